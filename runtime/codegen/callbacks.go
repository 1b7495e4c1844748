package codegen

import (
	"github.com/AltairaLabs/codestream/runtime/logger"
)

// User-facing notification texts.
const (
	CancelMessage = "Code generation cancelled"
	ErrorMessage  = "Error generating code. Check the client log AND the backend logs for details."
)

// Callbacks are the hooks a caller supplies to Start. All of them are
// optional and all of them run on the session's dispatch goroutine, one at a
// time, in the order the frames arrived.
type Callbacks struct {
	// OnChunk receives incremental output for a variant.
	OnChunk func(value string, variant int)
	// OnStatus receives human-readable progress for a variant.
	OnStatus func(value string, variant int)
	// OnFinalOutput receives the complete output of a variant.
	OnFinalOutput func(value string, variant int)
	// OnError receives the text of a server error frame. When nil, the text
	// goes to the Notifier instead.
	OnError func(message string)

	// OnCancel and OnComplete are terminal: exactly one of them is called,
	// exactly once, per session.
	OnCancel   func()
	OnComplete func()

	// OnDiagnostic receives non-fatal problems such as malformed frames.
	OnDiagnostic func(err error)

	// Variants routes frames for specific variant indexes. A registered
	// variant's callback replaces the index-taking callback above for that
	// variant; a nil field falls back to it.
	Variants map[int]VariantCallbacks
}

// VariantCallbacks are the per-variant hooks.
type VariantCallbacks struct {
	OnChunk       func(value string)
	OnStatus      func(value string)
	OnFinalOutput func(value string)
}

func (cb *Callbacks) chunk(value string, variant int, routes map[int]VariantCallbacks) {
	if vc, ok := routes[variant]; ok && vc.OnChunk != nil {
		vc.OnChunk(value)
		return
	}
	if cb.OnChunk != nil {
		cb.OnChunk(value, variant)
	}
}

func (cb *Callbacks) status(value string, variant int, routes map[int]VariantCallbacks) {
	if vc, ok := routes[variant]; ok && vc.OnStatus != nil {
		vc.OnStatus(value)
		return
	}
	if cb.OnStatus != nil {
		cb.OnStatus(value, variant)
	}
}

func (cb *Callbacks) finalOutput(value string, variant int, routes map[int]VariantCallbacks) {
	if vc, ok := routes[variant]; ok && vc.OnFinalOutput != nil {
		vc.OnFinalOutput(value)
		return
	}
	if cb.OnFinalOutput != nil {
		cb.OnFinalOutput(value, variant)
	}
}

func (cb *Callbacks) cancel() {
	if cb.OnCancel != nil {
		cb.OnCancel()
	}
}

func (cb *Callbacks) complete() {
	if cb.OnComplete != nil {
		cb.OnComplete()
	}
}

func (cb *Callbacks) diagnostic(err error) {
	if cb.OnDiagnostic != nil {
		cb.OnDiagnostic(err)
	}
}

// Notifier shows transient user-visible notifications.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// LogNotifier writes notifications to the runtime logger. It is the default
// Notifier.
type LogNotifier struct{}

// Success implements Notifier.
func (LogNotifier) Success(msg string) {
	logger.Info(msg, "component", "notifier")
}

// Error implements Notifier.
func (LogNotifier) Error(msg string) {
	logger.Error(msg, "component", "notifier")
}
