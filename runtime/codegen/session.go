package codegen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	pkgerrors "github.com/AltairaLabs/codestream/pkg/errors"
	"github.com/AltairaLabs/codestream/runtime/events"
	"github.com/AltairaLabs/codestream/runtime/logger"
	"github.com/AltairaLabs/codestream/runtime/streaming"
	"github.com/AltairaLabs/codestream/runtime/types"
)

// Session is one generation request over one connection. It owns its
// connection exclusively; callers interact with it only through Cancel and
// the accessors below.
type Session struct {
	id          string
	ctx         context.Context
	conn        *streaming.Conn
	payload     []byte
	cb          Callbacks
	routes      map[int]VariantCallbacks
	maxVariants int
	notifier    Notifier
	emitter     *events.Emitter
	started     time.Time

	mu              sync.Mutex
	outcome         Outcome
	err             error
	failureNotified bool
	stopWatch       func() bool
}

// ID returns the session id sent with the request.
func (s *Session) ID() string {
	return s.id
}

// Cancel asks the connection to close with UserCloseCode. The terminal
// callback fires later, when the close completes. Calling Cancel after the
// session closed, or more than once, has no effect.
func (s *Session) Cancel() {
	s.conn.Close(UserCloseCode, "user cancelled")
}

// Done returns a channel that is closed after the terminal callback returns.
func (s *Session) Done() <-chan struct{} {
	return s.conn.Done()
}

// Outcome returns the terminal outcome, or OutcomeUnset while the session is running.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Err returns why the session did not complete: nil while running, after a
// normal close and after a user cancel; otherwise an error wrapping
// ErrRecognizedApplicationFailure, ErrConnectTimeout or ErrTransport.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// setStopWatch hands the ctx watcher to OnClose. If the session already
// closed, OnClose had nothing to stop, so the watcher is stopped here.
func (s *Session) setStopWatch(stop func() bool) {
	s.mu.Lock()
	closed := s.outcome != OutcomeUnset
	if !closed {
		s.stopWatch = stop
	}
	s.mu.Unlock()
	if closed {
		stop()
	}
}

// notifyFailure shows the generic failure notification at most once per session.
func (s *Session) notifyFailure() {
	s.mu.Lock()
	already := s.failureNotified
	s.failureNotified = true
	s.mu.Unlock()
	if !already {
		s.notifier.Error(ErrorMessage)
	}
}

// sessionHandler receives connection events for a Session.
type sessionHandler struct {
	s *Session
}

var _ streaming.Handler = (*sessionHandler)(nil)

// OnOpen sends the request, the only outbound frame of the session.
func (h *sessionHandler) OnOpen() {
	s := h.s
	s.emitter.SessionOpened(time.Since(s.started))
	logger.Frame(s.ctx, "outbound", s.payload)

	err := s.conn.Send(s.payload)
	if errors.Is(err, streaming.ErrNotConnected) {
		// Closed locally before the open event was handled.
		logger.DebugContext(s.ctx, "Session closed before the request was sent")
		return
	}
	if err != nil {
		logger.ErrorContext(s.ctx, "Failed to send generation request", "error", err)
		s.notifyFailure()
		s.cb.diagnostic(pkgerrors.New("codegen", "Send", fmt.Errorf("%w: %w", ErrTransport, err)))
		// Without the request the backend never answers.
		s.conn.Close(websocket.CloseGoingAway, "request not sent")
		return
	}
	logger.DebugContext(s.ctx, "Generation request sent", "bytes", len(s.payload))
}

// OnMessage parses one inbound frame and routes it. A malformed frame is
// reported and skipped; it never ends the session.
func (h *sessionHandler) OnMessage(data []byte) {
	s := h.s
	logger.Frame(s.ctx, "inbound", data)

	msg, err := types.ParseInboundMessage(data)
	if err != nil {
		logger.WarnContext(s.ctx, "Discarding malformed message", "error", err, "bytes", len(data))
		s.emitter.MessageMalformed(err, len(data))
		s.cb.diagnostic(pkgerrors.New("codegen", "Dispatch", err))
		return
	}

	s.emitter.MessageReceived(string(msg.Type), msg.VariantIndex, len(msg.Value))
	if msg.Type != types.MessageError && (msg.VariantIndex < 0 || msg.VariantIndex >= s.maxVariants) {
		logger.DebugContext(s.ctx, "Message for unexpected variant", "variant", msg.VariantIndex, "max_variants", s.maxVariants)
	}

	switch msg.Type {
	case types.MessageChunk:
		s.cb.chunk(msg.Value, msg.VariantIndex, s.routes)
	case types.MessageStatus:
		s.cb.status(msg.Value, msg.VariantIndex, s.routes)
	case types.MessageFinalOutput:
		s.emitter.VariantFinalized(msg.VariantIndex, len(msg.Value))
		s.cb.finalOutput(msg.Value, msg.VariantIndex, s.routes)
	case types.MessageError:
		logger.ErrorContext(s.ctx, "Error generating code", "error", msg.Value, "variant", msg.VariantIndex)
		s.emitter.ServerError(msg.Value, msg.VariantIndex)
		if s.cb.OnError != nil {
			s.cb.OnError(msg.Value)
		} else {
			s.notifier.Error(msg.Value)
		}
	}
}

// OnError reports a transport failure. The outcome is left to OnClose, which
// always follows.
func (h *sessionHandler) OnError(err error) {
	s := h.s
	logger.ErrorContext(s.ctx, "WebSocket error", "error", err)
	s.emitter.TransportError(err)
	s.notifyFailure()
}

// OnClose classifies the close code and runs the terminal callback. The
// outcome is recorded before any callback so a repeated close is ignored.
func (h *sessionHandler) OnClose(code int, reason string) {
	s := h.s

	s.mu.Lock()
	if s.outcome != OutcomeUnset {
		s.mu.Unlock()
		return
	}
	outcome := Classify(code)
	s.outcome = outcome
	s.err = closeError(outcome, code, reason)
	stop := s.stopWatch
	failureShown := s.failureNotified
	s.mu.Unlock()

	if stop != nil {
		stop()
	}

	duration := time.Since(s.started)
	logger.SessionClosed(s.ctx, outcome.String(), code, reason, "duration", duration)

	switch outcome {
	case OutcomeCancelled:
		if !failureShown {
			s.notifier.Success(CancelMessage)
		}
		s.emitter.SessionCancelled(code, reason, duration)
		s.cb.cancel()
	case OutcomeAppError:
		logger.ErrorContext(s.ctx, "Known server error", "code", code, "reason", reason)
		s.emitter.SessionFailed(outcome.String(), events.ErrorTypeServer, code, reason, duration)
		s.cb.cancel()
	case OutcomeCompleted:
		s.emitter.SessionCompleted(code, duration)
		s.cb.complete()
	case OutcomeAbnormal:
		logger.ErrorContext(s.ctx, "Unknown server or connection error", "code", code, "reason", reason)
		s.notifyFailure()
		s.emitter.SessionFailed(outcome.String(), events.ErrorTypeConnection, code, reason, duration)
		s.cb.cancel()
	}
}

func closeError(outcome Outcome, code int, reason string) error {
	var cause error
	switch outcome {
	case OutcomeAppError:
		cause = ErrRecognizedApplicationFailure
	case OutcomeAbnormal:
		if reason == streaming.ReasonConnectTimeout {
			cause = ErrConnectTimeout
		} else {
			cause = ErrTransport
		}
	default:
		return nil
	}
	if reason != "" {
		cause = fmt.Errorf("%w: %s", cause, reason)
	}
	return pkgerrors.New("codegen", "Close", cause).WithCode(code)
}
