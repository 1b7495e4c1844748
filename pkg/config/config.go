// Package config loads the client configuration manifest.
//
// A manifest is a Kubernetes-style YAML document:
//
//	apiVersion: codestream.altairalabs.ai/v1alpha1
//	kind: ClientConfig
//	spec:
//	  backend:
//	    wsURL: ws://127.0.0.1:7001
//	    connectTimeout: 30s
//	  generation:
//	    maxVariants: 2
//	    stack: html_tailwind
//
// Every field is optional; DefaultClientConfig supplies the rest and the
// CODEGEN_* environment variables override the file.
package config

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AltairaLabs/codestream/runtime/codegen"
	"github.com/AltairaLabs/codestream/runtime/types"
)

// Environment variables that override the file.
const (
	EnvBackendURL     = "CODEGEN_WS_BACKEND_URL"
	EnvConnectTimeout = "CODEGEN_CONNECT_TIMEOUT"
	EnvMaxVariants    = "CODEGEN_MAX_VARIANTS"
)

// DefaultMetricsAddr is where the metrics exporter listens when enabled
// without an address.
const DefaultMetricsAddr = ":9090"

// ObjectMeta is the manifest metadata block.
type ObjectMeta struct {
	Name   string            `yaml:"name,omitempty"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// ClientConfigManifest is the on-disk form of a ClientConfig.
type ClientConfigManifest struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       string       `yaml:"kind"`
	Metadata   ObjectMeta   `yaml:"metadata,omitempty"`
	Spec       ClientConfig `yaml:"spec"`
}

// ClientConfig configures the code generation client.
type ClientConfig struct {
	Backend    BackendConfig     `yaml:"backend"`
	Generation GenerationConfig  `yaml:"generation"`
	Logging    LoggingConfigSpec `yaml:"logging"`
	Metrics    MetricsConfig     `yaml:"metrics"`
	Tracing    TracingConfig     `yaml:"tracing"`
}

// BackendConfig locates the generation backend.
type BackendConfig struct {
	// WSURL is the WebSocket base URL; /generate-code is appended.
	WSURL          string            `yaml:"wsURL"`
	ConnectTimeout Duration          `yaml:"connectTimeout"`
	Headers        map[string]string `yaml:"headers,omitempty"`
}

// GenerationConfig holds request defaults.
type GenerationConfig struct {
	MaxVariants     int               `yaml:"maxVariants"`
	Stack           types.Stack       `yaml:"stack"`
	Model           string            `yaml:"model,omitempty"`
	ImageGeneration bool              `yaml:"imageGeneration"`
	EditorTheme     types.EditorTheme `yaml:"editorTheme,omitempty"`
	// AcceptTermsOfService marks requests as accepting the hosted service's terms.
	AcceptTermsOfService bool `yaml:"acceptTermsOfService"`
}

// MetricsConfig controls the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"`
}

// TracingConfig controls OTLP trace export.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	ServiceName string `yaml:"serviceName,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultClientConfig returns the configuration used when no file is given.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Backend: BackendConfig{
			WSURL:          codegen.DefaultBaseURL,
			ConnectTimeout: Duration(codegen.DefaultConnectTimeout),
		},
		Generation: GenerationConfig{
			MaxVariants: codegen.DefaultMaxVariants,
			Stack:       types.StackHTMLTailwind,
		},
		Logging: DefaultLoggingConfig(),
		Metrics: MetricsConfig{Addr: DefaultMetricsAddr},
	}
}

// ApplyEnv overrides fields from the CODEGEN_* variables found by lookup
// (usually os.LookupEnv). Empty values are ignored.
func (c *ClientConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBackendURL); ok && v != "" {
		c.Backend.WSURL = v
	}
	if v, ok := lookup(EnvConnectTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: invalid duration %q: %w", EnvConnectTimeout, v, err)
		}
		c.Backend.ConnectTimeout = Duration(d)
	}
	if v, ok := lookup(EnvMaxVariants); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q: %w", EnvMaxVariants, v, err)
		}
		c.Generation.MaxVariants = n
	}
	return nil
}

// Validate checks values the schema cannot see, such as env overrides.
func (c *ClientConfig) Validate() error {
	if c.Backend.WSURL == "" {
		return &ValidationError{Field: "backend.wsURL", Message: "is required"}
	}
	if c.Backend.ConnectTimeout.Std() <= 0 {
		return &ValidationError{
			Field:   "backend.connectTimeout",
			Message: "must be positive",
			Value:   c.Backend.ConnectTimeout.Std().String(),
		}
	}
	if c.Generation.MaxVariants < 1 {
		return &ValidationError{
			Field:   "generation.maxVariants",
			Message: "must be at least 1",
			Value:   strconv.Itoa(c.Generation.MaxVariants),
		}
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return &ValidationError{Field: "tracing.endpoint", Message: "is required when tracing is enabled"}
	}
	return c.Logging.Validate()
}

// ControllerConfig maps the configuration onto codegen.Config.
func (c *ClientConfig) ControllerConfig() codegen.Config {
	var headers http.Header
	if len(c.Backend.Headers) > 0 {
		headers = make(http.Header, len(c.Backend.Headers))
		for k, v := range c.Backend.Headers {
			headers.Set(k, v)
		}
	}
	return codegen.Config{
		BaseURL:        c.Backend.WSURL,
		ConnectTimeout: c.Backend.ConnectTimeout.Std(),
		MaxVariants:    c.Generation.MaxVariants,
		Headers:        headers,
	}
}

// MetricsAddr returns the exporter address, or "" when metrics are disabled.
func (c *ClientConfig) MetricsAddr() string {
	if !c.Metrics.Enabled {
		return ""
	}
	if c.Metrics.Addr == "" {
		return DefaultMetricsAddr
	}
	return c.Metrics.Addr
}
