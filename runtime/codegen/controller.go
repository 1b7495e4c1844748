// Package codegen runs code-generation sessions against the backend's
// /generate-code WebSocket endpoint.
//
// A session sends one GenerationRequest when the connection opens and then
// only listens: chunk, status, final-output and error frames are routed to
// the caller's callbacks by variant index, and the close code decides which
// single terminal callback fires.
//
//	ctrl := codegen.NewController(codegen.Config{BaseURL: "ws://127.0.0.1:7001"})
//	sess, err := ctrl.Start(ctx, req, codegen.Callbacks{
//		OnChunk:    func(v string, i int) { ... },
//		OnComplete: func() { ... },
//		OnCancel:   func() { ... },
//	})
//	...
//	<-sess.Done()
package codegen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	pkgerrors "github.com/AltairaLabs/codestream/pkg/errors"
	"github.com/AltairaLabs/codestream/runtime/events"
	"github.com/AltairaLabs/codestream/runtime/logger"
	"github.com/AltairaLabs/codestream/runtime/streaming"
	"github.com/AltairaLabs/codestream/runtime/types"
)

// GenerateCodePath is appended to the base URL to form the session endpoint.
const GenerateCodePath = "/generate-code"

// Defaults applied by NewController.
const (
	DefaultBaseURL        = "ws://127.0.0.1:7001"
	DefaultConnectTimeout = 30 * time.Second
	DefaultMaxVariants    = 2
)

// Config configures a Controller.
type Config struct {
	// BaseURL is the backend WebSocket base URL, e.g. "ws://127.0.0.1:7001".
	BaseURL string
	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration
	// MaxVariants is how many variants the backend is expected to produce.
	// It is advisory only; frames for other indexes are still delivered.
	MaxVariants int
	// Headers are added to the WebSocket handshake.
	Headers http.Header
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.MaxVariants <= 0 {
		c.MaxVariants = DefaultMaxVariants
	}
}

// EndpointURL joins a base URL and GenerateCodePath.
func EndpointURL(base string) string {
	return strings.TrimRight(base, "/") + GenerateCodePath
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets the collaborator that shows user notifications.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithEventBus publishes session events to bus.
func WithEventBus(bus *events.EventBus) Option {
	return func(c *Controller) {
		c.bus = bus
	}
}

// WithMetadataProvider sets the source of request metadata. A nil provider
// sends the request without metadata.
func WithMetadataProvider(p MetadataProvider) Option {
	return func(c *Controller) {
		c.metadata = p
	}
}

// WithDialer overrides the WebSocket dialer (proxy, TLS settings).
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Controller) {
		c.dialer = d
	}
}

// Controller starts sessions. It holds no per-session state and is safe for
// concurrent use.
type Controller struct {
	cfg      Config
	notifier Notifier
	bus      *events.EventBus
	metadata MetadataProvider
	dialer   *websocket.Dialer
}

// NewController creates a Controller.
func NewController(cfg Config, opts ...Option) *Controller {
	cfg.defaults()
	c := &Controller{
		cfg:      cfg,
		notifier: LogNotifier{},
		metadata: DefaultMetadata,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL sessions connect to.
func (c *Controller) Endpoint() string {
	return EndpointURL(c.cfg.BaseURL)
}

// MaxVariants returns the advisory variant count.
func (c *Controller) MaxVariants() int {
	return c.cfg.MaxVariants
}

// Start validates and encodes req, then opens a new session. The request is
// sent as soon as the connection opens; it is never sent again.
//
// Cancelling ctx cancels the session the same way Session.Cancel does. The
// returned error is non-nil only when the session could not be started; all
// later failures are reported through cb.
func (c *Controller) Start(ctx context.Context, req *types.GenerationRequest, cb Callbacks) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, pkgerrors.New("codegen", "Start", err)
	}

	var meta *Metadata
	if c.metadata != nil {
		m := c.metadata()
		meta = &m
	}

	sessionID := ""
	if meta != nil {
		sessionID = meta.SessionID
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	payload, err := json.Marshal(outboundFrame{GenerationRequest: req, Metadata: meta})
	if err != nil {
		return nil, pkgerrors.New("codegen", "Start", fmt.Errorf("failed to encode request: %w", err))
	}

	logCtx := logger.WithLoggingContext(ctx, &logger.LoggingFields{
		SessionID:      sessionID,
		GenerationType: string(req.GenerationType),
		InputMode:      string(req.InputMode),
	})

	routes := make(map[int]VariantCallbacks, len(cb.Variants))
	for idx, vc := range cb.Variants {
		routes[idx] = vc
	}

	s := &Session{
		id:          sessionID,
		ctx:         logCtx,
		payload:     payload,
		cb:          cb,
		routes:      routes,
		maxVariants: c.cfg.MaxVariants,
		notifier:    c.notifier,
		emitter:     events.NewEmitter(c.bus, sessionID),
		started:     time.Now(),
	}

	endpoint := c.Endpoint()
	s.conn = streaming.NewConn(&streaming.ConnConfig{
		URL:            endpoint,
		Headers:        c.cfg.Headers,
		ConnectTimeout: c.cfg.ConnectTimeout,
		Dialer:         c.dialer,
		Logger:         &connLogger{ctx: logCtx},
	}, &sessionHandler{s: s})

	logger.InfoContext(logCtx, "Connecting to backend", "url", endpoint)
	s.emitter.SessionStarted(endpoint, string(req.GenerationType), string(req.InputMode), req.CodeGenerationModel)

	// Only Cancel may end the session early; the dial itself ignores ctx
	// cancellation so the close code stays UserCloseCode.
	if err := s.conn.Open(context.WithoutCancel(logCtx)); err != nil {
		return nil, pkgerrors.New("codegen", "Start", err)
	}
	s.setStopWatch(context.AfterFunc(ctx, s.Cancel))

	return s, nil
}
