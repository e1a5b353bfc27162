package wschannel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/errors"
)

// handlerWriteTimeout caps each reply frame write
const handlerWriteTimeout = 10 * time.Second

// Handler is the bridge half of the WebSocket transport: an
// http.Handler that upgrades each request to a socket and answers
// describe, call, and eval envelopes against a local channel,
// typically an in-process engine binding.
//
// Requests on one socket are served concurrently. Engine errors cross
// back as diagnostics inside the response payload so the far side can
// rebuild them verbatim; transport problems stay on this side as
// closed connections.
type Handler struct {
	channel  engine.Channel
	logger   *slog.Logger
	timeout  time.Duration
	upgrader websocket.Upgrader
}

// HandlerOption is a functional option for Handler construction.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithHandlerTimeout caps how long one request may hold the engine
func WithHandlerTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		if timeout > 0 {
			h.timeout = timeout
		}
	}
}

// NewHandler creates a bridge serving channel
func NewHandler(channel engine.Channel, opts ...HandlerOption) (*Handler, error) {
	if channel == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Handler", "NewHandler",
			"bridge requires a channel to serve")
	}

	h := &Handler{
		channel: channel,
		logger:  slog.Default(),
		timeout: 30 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin checking belongs to the fronting proxy
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP upgrades the request and serves envelopes until the peer
// hangs up
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	h.logger.Info("session opened",
		"remote", r.RemoteAddr,
		"client", r.Header.Get("X-Client-Name"))

	// Writes are serialized per socket; requests run concurrently
	var writeMu sync.Mutex
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Info("session closed", "remote", r.RemoteAddr)
			} else {
				h.logger.Warn("session read failed", "remote", r.RemoteAddr, "error", err)
			}
			return
		}
		go h.serve(r.Context(), conn, &writeMu, data)
	}
}

// serve answers one envelope
func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.logger.Debug("discarding malformed frame", "error", err)
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var payload any
	switch env.Type {
	case typeDescribe:
		payload = h.describe(reqCtx, env.Payload)
	case typeCall:
		payload = h.call(reqCtx, env.Payload)
	case typeEval:
		payload = h.eval(reqCtx, env.Payload)
	default:
		payload = valueResponse{Error: fmt.Sprintf("unknown request type %q", env.Type)}
	}

	h.reply(conn, writeMu, env.ID, payload)
}

// describe answers one describe request
func (h *Handler) describe(ctx context.Context, data []byte) describeResponse {
	var req describeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return describeResponse{Error: "malformed describe request: " + err.Error()}
	}

	identifiers, err := h.channel.Describe(ctx, engine.Ref(req.Ref))
	if err != nil {
		return describeResponse{Error: diagnosticOf(err)}
	}
	return describeResponse{Identifiers: identifiers}
}

// call answers one call request
func (h *Handler) call(ctx context.Context, data []byte) valueResponse {
	var req callRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return valueResponse{Error: "malformed call request: " + err.Error()}
	}

	result, err := h.channel.Call(ctx, req.Op, req.Args)
	if err != nil {
		return valueResponse{Error: diagnosticOf(err)}
	}
	return valueResponse{Result: result}
}

// eval answers one eval request
func (h *Handler) eval(ctx context.Context, data []byte) valueResponse {
	evaluator, ok := h.channel.(engine.Evaluator)
	if !ok {
		return valueResponse{Error: errors.ErrNotEvaluator.Error()}
	}

	var req evalRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return valueResponse{Error: "malformed eval request: " + err.Error()}
	}

	result, err := evaluator.Eval(ctx, req.Code)
	if err != nil {
		return valueResponse{Error: diagnosticOf(err)}
	}
	return valueResponse{Result: result}
}

// reply frames and sends one response envelope
func (h *Handler) reply(conn *websocket.Conn, writeMu *sync.Mutex, id string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("encoding response failed", "id", id, "error", err)
		return
	}
	frame, err := json.Marshal(envelope{
		Type:      typeReply,
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
		Payload:   body,
	})
	if err != nil {
		h.logger.Error("encoding envelope failed", "id", id, "error", err)
		return
	}

	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(handlerWriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		h.logger.Warn("sending response failed", "id", id, "error", err)
	}
}
