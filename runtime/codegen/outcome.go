package codegen

import "github.com/AltairaLabs/codestream/runtime/streaming"

// Application close codes shared with the backend.
const (
	// AppErrorCode is sent by the server when generation fails for a reason
	// it recognizes and has already reported through an error frame.
	AppErrorCode = 4332
	// UserCloseCode is sent by the client when the user cancels.
	UserCloseCode = 4333
)

// Outcome is the terminal classification of a session.
type Outcome int

// Session outcomes. OutcomeUnset means the session has not closed yet.
const (
	OutcomeUnset Outcome = iota
	OutcomeCancelled
	OutcomeAppError
	OutcomeCompleted
	OutcomeAbnormal
)

// String returns the lowercase name used in logs, events and metrics labels.
func (o Outcome) String() string {
	switch o {
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeAppError:
		return "app_error"
	case OutcomeCompleted:
		return "completed"
	case OutcomeAbnormal:
		return "abnormal"
	default:
		return "unset"
	}
}

// Classify maps a close code to its outcome. Every code maps to exactly one
// terminal outcome; it never returns OutcomeUnset.
func Classify(code int) Outcome {
	switch code {
	case UserCloseCode:
		return OutcomeCancelled
	case AppErrorCode:
		return OutcomeAppError
	case streaming.CloseNormalClosure:
		return OutcomeCompleted
	default:
		return OutcomeAbnormal
	}
}
