// Package types defines the data exchanged with the code-generation backend:
// the outbound GenerationRequest and the inbound protocol frames.
package types

import (
	"errors"
	"fmt"
)

// GenerationType selects between generating from scratch and updating a previous result.
type GenerationType string

// Generation types.
const (
	GenerationCreate GenerationType = "create"
	GenerationUpdate GenerationType = "update"
)

// InputMode is the kind of media the request is built from.
type InputMode string

// Input modes.
const (
	InputImage InputMode = "image"
	InputVideo InputMode = "video"
)

// EditorTheme is the UI editor theme forwarded with the request.
type EditorTheme string

// Editor themes.
const (
	ThemeEspresso EditorTheme = "espresso"
	ThemeCobalt   EditorTheme = "cobalt"
)

// Stack is the target output stack, e.g. "html_tailwind".
type Stack string

// Known output stacks.
const (
	StackHTMLTailwind  Stack = "html_tailwind"
	StackHTMLCSS       Stack = "html_css"
	StackReactTailwind Stack = "react_tailwind"
	StackBootstrap     Stack = "bootstrap"
	StackIonicTailwind Stack = "ionic_tailwind"
	StackVueTailwind   Stack = "vue_tailwind"
	StackSVG           Stack = "svg"
)

// ErrInvalidRequest is wrapped by every error returned from GenerationRequest.Validate.
var ErrInvalidRequest = errors.New("invalid generation request")

// Settings carries provider keys and output preferences. The backend reads
// them from the request body; nothing in this module interprets them.
type Settings struct {
	OpenAIAPIKey             string      `json:"openAiApiKey,omitempty"`
	OpenAIBaseURL            string      `json:"openAiBaseURL,omitempty"`
	AnthropicAPIKey          string      `json:"anthropicApiKey,omitempty"`
	ScreenshotOneAPIKey      string      `json:"screenshotOneApiKey,omitempty"`
	IsImageGenerationEnabled bool        `json:"isImageGenerationEnabled"`
	EditorTheme              EditorTheme `json:"editorTheme,omitempty"`
	GeneratedCodeConfig      Stack       `json:"generatedCodeConfig,omitempty"`
	CodeGenerationModel      string      `json:"codeGenerationModel,omitempty"`
	IsTermOfServiceAccepted  bool        `json:"isTermOfServiceAccepted"`
}

// GenerationRequest is the single outbound frame of a session.
type GenerationRequest struct {
	GenerationType     GenerationType `json:"generationType"`
	InputMode          InputMode      `json:"inputMode"`
	Image              string         `json:"image"`
	History            []string       `json:"history,omitempty"`
	IsImportedFromCode bool           `json:"isImportedFromCode,omitempty"`

	Settings
}

// Validate checks the enum fields and the fields each generation type requires.
func (r *GenerationRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}

	switch r.GenerationType {
	case GenerationCreate:
		if r.Image == "" {
			return fmt.Errorf("%w: image is required for create", ErrInvalidRequest)
		}
	case GenerationUpdate:
		if len(r.History) == 0 {
			return fmt.Errorf("%w: history is required for update", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown generation type %q", ErrInvalidRequest, r.GenerationType)
	}

	switch r.InputMode {
	case InputImage, InputVideo:
	default:
		return fmt.Errorf("%w: unknown input mode %q", ErrInvalidRequest, r.InputMode)
	}

	switch r.EditorTheme {
	case "", ThemeEspresso, ThemeCobalt:
	default:
		return fmt.Errorf("%w: unknown editor theme %q", ErrInvalidRequest, r.EditorTheme)
	}

	return nil
}
