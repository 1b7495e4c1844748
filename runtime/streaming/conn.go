// Package streaming manages a single client WebSocket connection and reports
// its lifecycle to an owner as four serial events: opened, message, error and
// closed.
//
// The package deals only with transport: dialing with a connect timeout,
// reading frames, writing text frames and closing with a code. It has no
// knowledge of what the frames mean.
//
// All Handler callbacks for one Conn run on a single dispatch goroutine, in
// the order the transport produced them. OnClose is always delivered exactly
// once and is always the last callback.
package streaming

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Default connection constants.
const (
	DefaultConnectTimeout   = 30 * time.Second
	DefaultWriteWait        = 10 * time.Second
	DefaultMaxMessageSize   = 16 * 1024 * 1024 // 16MB
	DefaultCloseGracePeriod = 5 * time.Second
)

// Standard close codes reported through OnClose.
const (
	CloseNormalClosure   = websocket.CloseNormalClosure
	CloseAbnormalClosure = websocket.CloseAbnormalClosure
)

// ReasonConnectTimeout is the close reason reported when the connection was
// not established within ConnectTimeout.
const ReasonConnectTimeout = "connect timeout"

var (
	// ErrNotConnected is returned by Send when the connection is not open.
	ErrNotConnected = errors.New("websocket is not connected")

	// ErrAlreadyOpened is returned when Open is called more than once.
	ErrAlreadyOpened = errors.New("connection already opened")
)

// ConnConfig configures the WebSocket connection behavior.
type ConnConfig struct {
	// URL is the WebSocket endpoint URL.
	URL string

	// Headers are sent during the WebSocket handshake.
	Headers http.Header

	// ConnectTimeout bounds the time between Open and OnOpen.
	// Defaults to DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// WriteWait is the write deadline for each message. Defaults to DefaultWriteWait.
	WriteWait time.Duration

	// MaxMessageSize is the read limit. Defaults to DefaultMaxMessageSize.
	MaxMessageSize int64

	// CloseGracePeriod is how long a local close waits for the peer's close
	// frame before dropping the connection. Defaults to DefaultCloseGracePeriod.
	CloseGracePeriod time.Duration

	// Dialer overrides the default dialer. Optional.
	Dialer *websocket.Dialer

	// Logger receives debug/warn/error log messages. Optional.
	Logger Logger
}

// Logger is an optional interface for structured logging.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// noopLogger discards all log output.
type noopLogger struct{}

// Debug implements Logger.
func (noopLogger) Debug(_ string, _ ...interface{}) {}

// Info implements Logger.
func (noopLogger) Info(_ string, _ ...interface{}) {}

// Warn implements Logger.
func (noopLogger) Warn(_ string, _ ...interface{}) {}

// Error implements Logger.
func (noopLogger) Error(_ string, _ ...interface{}) {}

func (c *ConnConfig) defaults() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.WriteWait == 0 {
		c.WriteWait = DefaultWriteWait
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.CloseGracePeriod == 0 {
		c.CloseGracePeriod = DefaultCloseGracePeriod
	}
	if c.Logger == nil {
		c.Logger = noopLogger{}
	}
}

type connState int

const (
	stateIdle connState = iota
	stateConnecting
	stateOpen
	stateClosing
	stateClosed
)

// Conn owns one WebSocket connection from Open to its single close event.
type Conn struct {
	cfg     ConnConfig
	handler Handler

	mu          sync.Mutex
	writeMu     sync.Mutex // serializes writes (gorilla/websocket requirement)
	state       connState
	ws          *websocket.Conn
	cancelDial  context.CancelFunc
	timer       *time.Timer
	graceTimer  *time.Timer
	localCode   int
	localReason string

	queue *eventQueue
	done  chan struct{}
}

// NewConn creates a new Conn. Call Open to start connecting.
func NewConn(cfg *ConnConfig, handler Handler) *Conn {
	cfg.defaults()
	if handler == nil {
		handler = HandlerFuncs{}
	}
	return &Conn{
		cfg:     *cfg,
		handler: handler,
		queue:   newEventQueue(),
		done:    make(chan struct{}),
	}
}

// Open starts the connect timer and dials in the background. It returns
// immediately; the outcome is reported through the Handler.
func (c *Conn) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.state != stateIdle {
		c.mu.Unlock()
		return ErrAlreadyOpened
	}
	dialCtx, cancel := context.WithCancel(ctx)
	c.cancelDial = cancel
	c.state = stateConnecting
	c.timer = time.AfterFunc(c.cfg.ConnectTimeout, c.onConnectTimeout)
	c.mu.Unlock()

	go c.dispatch()
	go c.dial(dialCtx, cancel)
	return nil
}

func (c *Conn) dial(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	// No HandshakeTimeout: the connect timer cancels ctx instead.
	dialer := websocket.Dialer{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	}
	if c.cfg.Dialer != nil {
		dialer = *c.cfg.Dialer
	}

	headers := c.cfg.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))

	c.cfg.Logger.Debug("connecting to WebSocket", "url", c.cfg.URL)
	start := time.Now()

	ws, resp, err := dialer.DialContext(ctx, c.cfg.URL, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c.mu.Lock()
	if c.state != stateConnecting {
		// Timed out or closed locally while dialing; that path already
		// reported the close.
		c.mu.Unlock()
		if ws != nil {
			_ = ws.Close()
		}
		return
	}

	c.timer.Stop()

	if err != nil {
		c.state = stateClosed
		c.mu.Unlock()
		if resp != nil {
			c.cfg.Logger.Error("WebSocket dial failed", "error", err, "status", resp.StatusCode)
		} else {
			c.cfg.Logger.Error("WebSocket dial failed", "error", err)
		}
		c.queue.push(event{kind: eventError, err: fmt.Errorf("failed to connect: %w", err)})
		c.queue.push(event{kind: eventClose, code: CloseAbnormalClosure, reason: err.Error()})
		return
	}

	ws.SetReadLimit(c.cfg.MaxMessageSize)
	c.ws = ws
	c.state = stateOpen
	c.queue.push(event{kind: eventOpen})
	c.mu.Unlock()

	c.cfg.Logger.Info("WebSocket connected successfully", "elapsed", time.Since(start))
	go c.readLoop(ws)
}

func (c *Conn) onConnectTimeout() {
	c.mu.Lock()
	if c.state != stateConnecting {
		c.mu.Unlock()
		return
	}
	c.state = stateClosed
	c.cancelDial()
	c.mu.Unlock()

	c.cfg.Logger.Warn("WebSocket connect timed out", "url", c.cfg.URL, "timeout", c.cfg.ConnectTimeout)
	c.queue.push(event{kind: eventClose, code: CloseAbnormalClosure, reason: ReasonConnectTimeout})
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.finish(ws, err)
			return
		}
		c.queue.push(event{kind: eventMessage, data: data})
	}
}

// finish reports the single close event once the read loop has stopped.
func (c *Conn) finish(ws *websocket.Conn, readErr error) {
	c.mu.Lock()
	local := c.state == stateClosing
	code, reason := c.localCode, c.localReason
	c.state = stateClosed
	if c.graceTimer != nil {
		c.graceTimer.Stop()
	}
	c.mu.Unlock()

	_ = ws.Close()

	var closeErr *websocket.CloseError
	switch {
	case errors.As(readErr, &closeErr) && closeErr.Code != CloseAbnormalClosure:
		c.cfg.Logger.Debug("WebSocket closed", "code", closeErr.Code, "reason", closeErr.Text)
		c.queue.push(event{kind: eventClose, code: closeErr.Code, reason: closeErr.Text})
	case local:
		c.cfg.Logger.Debug("WebSocket dropped after local close", "code", code)
		c.queue.push(event{kind: eventClose, code: code, reason: reason})
	default:
		c.cfg.Logger.Warn("WebSocket connection lost", "error", readErr)
		c.queue.push(event{kind: eventError, err: fmt.Errorf("connection lost: %w", readErr)})
		c.queue.push(event{kind: eventClose, code: CloseAbnormalClosure, reason: readErr.Error()})
	}
}

// Send writes data as a single text frame.
func (c *Conn) Send(data []byte) error {
	c.mu.Lock()
	if c.state != stateOpen {
		c.mu.Unlock()
		return ErrNotConnected
	}
	ws := c.ws
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// SendJSON JSON-encodes v and writes it as a single text frame.
func (c *Conn) SendJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return c.Send(data)
}

// Close starts a local close with the given code. The close event is
// reported asynchronously through OnClose. Calling Close on a connection that
// is already closing or closed is a no-op.
func (c *Conn) Close(code int, reason string) {
	c.mu.Lock()
	switch c.state {
	case stateIdle:
		c.state = stateClosed
		c.mu.Unlock()
		close(c.done)
		return

	case stateConnecting:
		c.state = stateClosed
		c.timer.Stop()
		c.cancelDial()
		c.mu.Unlock()
		c.queue.push(event{kind: eventClose, code: code, reason: reason})
		return

	case stateOpen:
		c.state = stateClosing
		c.localCode, c.localReason = code, reason
		ws := c.ws
		c.graceTimer = time.AfterFunc(c.cfg.CloseGracePeriod, func() {
			_ = ws.Close()
		})
		c.mu.Unlock()

		c.writeMu.Lock()
		err := ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(c.cfg.WriteWait),
		)
		c.writeMu.Unlock()
		if err != nil {
			c.cfg.Logger.Debug("failed to write close frame", "error", err)
			_ = ws.Close()
		}
		return

	default:
		c.mu.Unlock()
	}
}

// Done returns a channel that is closed after OnClose has returned.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}
