package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/AltairaLabs/codestream/pkg/config"
	"github.com/AltairaLabs/codestream/runtime/media"
	"github.com/AltairaLabs/codestream/runtime/types"
)

// generateOptions are the generate command's inputs after flag and env
// resolution.
type generateOptions struct {
	image    string
	video    string
	update   bool
	history  []string
	imported bool

	stack           string
	model           string
	theme           string
	imageGeneration bool
	acceptTerms     bool

	openAIKey     string
	openAIBaseURL string
	anthropicKey  string

	outDir      string
	metricsAddr string
}

// buildRequest assembles the generation request. Flags take precedence over
// the config file's generation defaults.
func buildRequest(opts *generateOptions, cfg *config.ClientConfig) (*types.GenerationRequest, *media.Input, error) {
	if opts.image != "" && opts.video != "" {
		return nil, nil, errors.New("--image and --video are mutually exclusive")
	}

	req := &types.GenerationRequest{
		GenerationType:     types.GenerationCreate,
		InputMode:          types.InputImage,
		IsImportedFromCode: opts.imported,
		Settings: types.Settings{
			OpenAIAPIKey:             opts.openAIKey,
			OpenAIBaseURL:            opts.openAIBaseURL,
			AnthropicAPIKey:          opts.anthropicKey,
			IsImageGenerationEnabled: opts.imageGeneration || cfg.Generation.ImageGeneration,
			EditorTheme:              cfg.Generation.EditorTheme,
			GeneratedCodeConfig:      cfg.Generation.Stack,
			CodeGenerationModel:      cfg.Generation.Model,
			IsTermOfServiceAccepted:  opts.acceptTerms || cfg.Generation.AcceptTermsOfService,
		},
	}
	if opts.update {
		req.GenerationType = types.GenerationUpdate
	}
	if opts.stack != "" {
		req.GeneratedCodeConfig = types.Stack(opts.stack)
	}
	if opts.model != "" {
		req.CodeGenerationModel = opts.model
	}
	if opts.theme != "" {
		req.EditorTheme = types.EditorTheme(opts.theme)
	}

	path := opts.image
	if opts.video != "" {
		req.InputMode = types.InputVideo
		path = opts.video
	}

	var in *media.Input
	if path != "" {
		var err error
		in, err = media.PrepareFile(path, req.InputMode, media.DefaultImageLimits())
		if err != nil {
			return nil, nil, err
		}
		req.Image = in.DataURL()
	}

	for _, h := range opts.history {
		code, err := os.ReadFile(h)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read history entry: %w", err)
		}
		req.History = append(req.History, string(code))
	}

	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	return req, in, nil
}
