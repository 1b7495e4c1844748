package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AltairaLabs/codestream/runtime/schema"
)

//go:embed client_config.schema.json
var clientConfigSchemaJSON []byte

var clientConfigSchema = schema.MustCompile(clientConfigSchemaJSON)

// ValidateClientConfig checks a YAML manifest against the ClientConfig schema.
func ValidateClientConfig(yamlData []byte) error {
	// Convert YAML to JSON for schema validation
	var data interface{}
	if err := yaml.Unmarshal(yamlData, &data); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if data == nil {
		return fmt.Errorf("empty config document")
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to convert to JSON: %w", err)
	}

	result, err := clientConfigSchema.Validate(jsonData)
	if err != nil {
		return err
	}
	return result.Err()
}

// ParseClientConfig validates a manifest and returns its spec merged over
// DefaultClientConfig. Environment overrides are not applied.
func ParseClientConfig(yamlData []byte) (*ClientConfig, error) {
	if err := ValidateClientConfig(yamlData); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	manifest := ClientConfigManifest{Spec: *DefaultClientConfig()}
	if err := yaml.Unmarshal(yamlData, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &manifest.Spec, nil
}

// LoadClientConfig reads a manifest, applies the CODEGEN_* environment
// overrides and validates the result. An empty filename loads the defaults.
func LoadClientConfig(filename string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()
	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if cfg, err = ParseClientConfig(data); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
