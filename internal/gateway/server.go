// Package gateway serves layout records to editors over a WebSocket RPC
// protocol. Clients authenticate with a token or password, then call the
// workspace.* methods and receive workspace.* events as layouts change.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soyeahso/layoutdb/internal/config"
	"github.com/soyeahso/layoutdb/internal/hooks"
	"github.com/soyeahso/layoutdb/internal/logging"
	"github.com/soyeahso/layoutdb/internal/model"
	"github.com/soyeahso/layoutdb/internal/store"
	"github.com/soyeahso/layoutdb/internal/version"
	"github.com/soyeahso/layoutdb/internal/workspace"
)

// ErrClientClosed is returned when sending to a closed client.
var ErrClientClosed = errors.New("client connection closed")

const (
	maxPayload       = 4 * 1024 * 1024
	handshakeTimeout = 10 * time.Second
)

// Records is the read and delete side of the layout store.
type Records interface {
	Load(ctx context.Context, loc model.Location) (*model.SerializedWorkspace, error)
	LoadByID(ctx context.Context, id model.WorkspaceID) (*model.SerializedWorkspace, error)
	Recent(ctx context.Context, limit int) ([]store.RecentWorkspace, error)
	Delete(ctx context.Context, id model.WorkspaceID) error
}

// Server is the layoutdb HTTP and WebSocket server.
type Server struct {
	cfg       config.GatewayConfig
	auth      ResolvedAuth
	log       *logging.Logger
	clients   *ClientRegistry
	handlers  map[string]RequestHandler
	eventSeq  atomic.Int64
	records   Records
	service   *workspace.Service
	directory model.RemoteDirectory
	hooks     *hooks.Manager

	upgrader    websocket.Upgrader
	authLimiter *authRateLimiter

	mu        sync.RWMutex
	addr      string
	startedAt time.Time
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithHooks forwards workspace lifecycle hooks to connected clients as events.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// hookEvents maps hook events to the event names sent to clients.
var hookEvents = map[string]string{
	hooks.EventWorkspaceSaved:    "workspace.saved",
	hooks.EventWorkspaceRestored: "workspace.restored",
	hooks.EventItemDropped:       "workspace.itemDropped",
	hooks.EventPaneDropped:       "workspace.paneDropped",
}

// New creates a server.
func New(cfg config.GatewayConfig, svc *workspace.Service, records Records, dir model.RemoteDirectory, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:         cfg,
		auth:        ResolveAuth(cfg.Auth),
		log:         log.Sub("gateway"),
		clients:     NewClientRegistry(log.Sub("clients")),
		handlers:    make(map[string]RequestHandler),
		records:     records,
		service:     svc,
		directory:   dir,
		authLimiter: newAuthRateLimiter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(cfg.AllowedOrigins),
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRPCHandlers()
	if s.hooks != nil {
		for hookEvent, event := range hookEvents {
			s.hooks.On(hookEvent, "gateway", s.forward(event))
		}
	}
	return s
}

func (s *Server) forward(event string) hooks.Handler {
	return func(ctx context.Context, p hooks.Payload) error {
		s.clients.Broadcast(event, p.Data, s.eventSeq.Add(1))
		return nil
	}
}

// checkWebSocketOrigin allows requests without an Origin header and
// browser requests from an allowed origin.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Handle registers an RPC method handler.
func (s *Server) Handle(method string, handler RequestHandler) {
	s.handlers[method] = handler
}

// Methods returns the registered RPC methods, sorted.
func (s *Server) Methods() []string {
	methods := make([]string, 0, len(s.handlers))
	for m := range s.handlers {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	return methods
}

// Events returns the event names clients may receive, sorted.
func (s *Server) Events() []string {
	events := []string{"connect.challenge"}
	if s.hooks != nil {
		for _, e := range hookEvents {
			events = append(events, e)
		}
	}
	slices.Sort(events)
	return events
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)
	return withMiddleware(mux, s.log)
}

// resolveBindAddr computes the listen address.
func resolveBindAddr(cfg config.GatewayConfig) string {
	host := "127.0.0.1"
	switch cfg.Bind {
	case "lan":
		host = "0.0.0.0"
	case "custom":
		host = cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
	}
	return net.JoinHostPort(host, fmt.Sprint(cfg.Port))
}

// Start serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.startedAt = time.Now()
	s.mu.Unlock()

	if s.cfg.Bind != "loopback" {
		s.log.Warn().Str("bind", s.cfg.Bind).Msg("gateway is reachable beyond loopback; credentials travel in cleartext")
	}
	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("auth", s.auth.Mode).
		Int("methods", len(s.handlers)).
		Msg("gateway server ready")

	go s.authLimiter.run(ctx)
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.clients.CloseAll()
		httpServer.Shutdown(shutdownCtx)
	}()

	if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address, or "" before Start has listened.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

func (s *Server) uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}

// handleWebSocket upgrades the request and runs the connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.authLimiter.allow(r.RemoteAddr) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("rate limited after failed handshakes")
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxPayload)

	client, err := s.handshake(conn)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("handshake failed")
		s.authLimiter.recordFailure(r.RemoteAddr)
		conn.Close()
		return
	}

	s.clients.Add(client)
	defer func() {
		s.clients.Remove(client.ConnID)
		client.Close()
	}()

	s.readLoop(r.Context(), client)
}

// handshake sends a challenge, reads the connect request and authorizes it.
func (s *Server) handshake(conn *websocket.Conn) (*Client, error) {
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))

	challenge, err := NewEvent("connect.challenge", map[string]any{
		"nonce": uuid.New().String(),
		"ts":    time.Now().UnixMilli(),
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("creating challenge: %w", err)
	}
	if err := conn.WriteJSON(challenge); err != nil {
		return nil, fmt.Errorf("sending challenge: %w", err)
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading connect: %w", err)
	}
	var frame Frame
	if err := json.Unmarshal(msg, &frame); err != nil {
		return nil, fmt.Errorf("parsing connect frame: %w", err)
	}
	if frame.Type != FrameTypeRequest || frame.Method != "connect" {
		sendErrorAndClose(conn, frame.ID, CodeProtocol, "expected connect request")
		return nil, fmt.Errorf("expected connect request, got type=%s method=%s", frame.Type, frame.Method)
	}

	var params ConnectParams
	if err := json.Unmarshal(frame.Params, &params); err != nil {
		sendErrorAndClose(conn, frame.ID, CodeInvalidParams, "invalid connect params")
		return nil, fmt.Errorf("parsing connect params: %w", err)
	}
	if params.MaxProtocol != 0 && (ProtocolVersion < params.MinProtocol || ProtocolVersion > params.MaxProtocol) {
		sendErrorAndClose(conn, frame.ID, CodeProtocol, fmt.Sprintf("protocol %d not in [%d, %d]", ProtocolVersion, params.MinProtocol, params.MaxProtocol))
		return nil, fmt.Errorf("unsupported protocol range [%d, %d]", params.MinProtocol, params.MaxProtocol)
	}

	auth := Authorize(s.auth, params.Auth)
	if !auth.OK {
		sendErrorAndClose(conn, frame.ID, CodeUnauthorized, auth.Reason)
		return nil, fmt.Errorf("auth failed: %s", auth.Reason)
	}
	conn.SetReadDeadline(time.Time{})

	client := NewClient(conn, params.Client, auth)
	build := version.Current(store.SchemaVersion())
	resp, err := NewResponse(frame.ID, HelloOK{
		Protocol: ProtocolVersion,
		Server: ServerInfo{
			Version: build.Version,
			Commit:  build.Commit,
			Schema:  build.Schema,
			ConnID:  client.ConnID,
		},
		Features: Features{Methods: s.Methods(), Events: s.Events()},
		Policy:   ServerPolicy{MaxPayload: maxPayload},
	})
	if err != nil {
		return nil, fmt.Errorf("creating hello response: %w", err)
	}
	if err := client.Send(resp); err != nil {
		return nil, fmt.Errorf("sending hello: %w", err)
	}

	s.log.Info().
		Str("connId", client.ConnID).
		Str("clientId", params.Client.ID).
		Str("clientVersion", params.Client.Version).
		Str("authMethod", auth.Method).
		Msg("client authenticated")
	return client, nil
}

// readLoop handles request frames until the connection drops.
func (s *Server) readLoop(ctx context.Context, client *Client) {
	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("connId", client.ConnID).Msg("client closed connection")
			} else {
				s.log.Debug().Err(err).Str("connId", client.ConnID).Msg("read loop ended")
			}
			return
		}
		if frame.Type != FrameTypeRequest {
			s.log.Debug().Str("type", frame.Type).Msg("ignoring non-request frame")
			continue
		}
		s.dispatch(ctx, client, frame)
	}
}

// dispatch routes a request frame to its handler.
func (s *Server) dispatch(ctx context.Context, client *Client, frame Frame) {
	handler, ok := s.handlers[frame.Method]
	if !ok {
		client.RespondError(frame.ID, ErrorShape{
			Code:    CodeMethodNotFound,
			Message: "unknown method: " + frame.Method,
		})
		return
	}
	handler(&RequestContext{Ctx: ctx, Client: client, Frame: frame, Server: s})
}

func sendErrorAndClose(conn *websocket.Conn, reqID, code, message string) {
	conn.WriteJSON(NewErrorResponse(reqID, ErrorShape{Code: code, Message: message}))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message))
}
