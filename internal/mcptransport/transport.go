// Package mcptransport implements the MCP JSON-RPC-over-SSE transport: a
// single active session, replaced wholesale by each new connection, with a
// short reconnect grace window for messages that race a reconnect.
package mcptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopagent/runtime/internal/ids"
	"github.com/shopagent/runtime/internal/rpcerr"
)

const (
	keepaliveInterval = 5 * time.Second
	reconnectGrace    = 5 * time.Second
	reconnectPoll     = 500 * time.Millisecond
)

// Dispatch handles one decoded JSON-RPC request and returns its result.
type Dispatch func(ctx context.Context, method string, params json.RawMessage) (any, error)

// Request is a JSON-RPC 2.0 request frame.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response frame.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the JSON-RPC error object shape.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type session struct {
	id     string
	out    chan []byte
	done   chan struct{}
	closed bool
	mu     sync.Mutex
}

func (s *session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *session) send(frame []byte) bool {
	select {
	case s.out <- frame:
		return true
	case <-s.done:
		return false
	}
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

// Server holds the single active SSE session and dispatches JSON-RPC
// requests arriving over POST /messages into it.
type Server struct {
	mu       sync.Mutex
	active   *session
	dispatch Dispatch
	newID    ids.Generator
	logger   *slog.Logger
	healthCh func() bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithHealthCheck sets a function polled by GET /health to report a
// subsystem (e.g. the audit database) as healthy.
func WithHealthCheck(fn func() bool) Option {
	return func(s *Server) { s.healthCh = fn }
}

// New builds a Server that routes decoded requests through dispatch.
func New(dispatch Dispatch, opts ...Option) *Server {
	s := &Server{
		dispatch: dispatch,
		newID:    ids.Prefixed("sess_", ids.Default),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes mounts the transport's endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/mcp", s.handleSSE)
	r.Delete("/mcp", s.handleDelete)
	r.Post("/messages", s.handleMessage)
	r.Get("/health", s.handleHealth)
}

func (s *Server) replaceSession() *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.close()
	}
	sess := &session{id: s.newID(), out: make(chan []byte, 16), done: make(chan struct{})}
	s.active = sess
	return sess
}

func (s *Server) getActive() *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Server) clearIfCurrent(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == sess {
		s.active = nil
	}
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess := s.replaceSession()
	defer func() {
		sess.close()
		s.clearIfCurrent(sess)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: endpoint\ndata: /messages?sessionId=%s\n\n", sess.id)
	flusher.Flush()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.done:
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case frame := <-sess.out:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", frame)
			flusher.Flush()
		}
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.active != nil {
		s.active.close()
		s.active = nil
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// handleMessage decodes a JSON-RPC request and dispatches it, waiting up to
// reconnectGrace for a session to become active if none is yet connected
// (a reconnecting client's SSE stream can lag a fraction of a second behind
// its first POST). Once a session exists, the sessionId query parameter is
// not required to match it: a client that reconnected between issuing a
// request and it arriving still gets routed to whatever session is current,
// and the mismatch is logged.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, &RPCError{Code: -32700, Message: "parse error"})
		return
	}

	sess := s.waitForSession(r.Context())
	if sess == nil {
		writeJSONError(w, http.StatusServiceUnavailable, &RPCError{Code: -32000, Message: (&rpcerr.NoActiveSession{}).Error()})
		return
	}
	if id := r.URL.Query().Get("sessionId"); id != sess.id {
		s.logger.Warn("mcptransport: sessionId mismatch, routing to active session", "requested", id, "active", sess.id)
	}

	go s.process(sess, req)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) waitForSession(ctx context.Context) *session {
	if sess := s.getActive(); sess != nil {
		return sess
	}
	deadline := time.Now().Add(reconnectGrace)
	ticker := time.NewTicker(reconnectPoll)
	defer ticker.Stop()
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if sess := s.getActive(); sess != nil {
				return sess
			}
		}
	}
	return nil
}

func (s *Server) process(sess *session, req Request) {
	ctx := context.Background()
	result, err := s.dispatch(ctx, req.Method, req.Params)

	resp := Response{JSONRPC: "2.0", ID: req.ID}
	if err != nil {
		resp.Error = &RPCError{Code: rpcCode(err), Message: err.Error()}
	} else {
		resp.Result = result
	}

	frame, merr := json.Marshal(resp)
	if merr != nil {
		s.logger.Error("mcptransport: marshal response", "error", merr)
		return
	}
	if !sess.send(frame) {
		s.logger.Warn("mcptransport: session closed before response delivered", "method", req.Method)
	}
}

func rpcCode(err error) int {
	switch err.(type) {
	case *rpcerr.BadInput:
		return -32602
	case *rpcerr.UnknownTool:
		return -32601
	default:
		return -32000
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sess := s.getActive()

	var activeSessionID any
	if sess != nil {
		activeSessionID = sess.id
	}

	health := map[string]any{
		"ok":                 true,
		"activeSessionId":    activeSessionID,
		"hasActiveTransport": sess != nil,
		"sseConnectionAlive": sess != nil && !sess.isClosed(),
	}
	if s.healthCh != nil {
		health["auditDbOk"] = s.healthCh()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// Notify pushes a server-initiated JSON-RPC notification (no id) into the
// active session's SSE stream, e.g. a research-update progress line. It is
// a no-op, reporting false, when no session is connected.
func (s *Server) Notify(method string, params any) bool {
	sess := s.getActive()
	if sess == nil {
		return false
	}
	frame, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
	if err != nil {
		s.logger.Error("mcptransport: marshal notification", "error", err)
		return false
	}
	return sess.send(frame)
}

func writeJSONError(w http.ResponseWriter, status int, rpcErr *RPCError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{JSONRPC: "2.0", Error: rpcErr})
}
