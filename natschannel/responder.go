package natschannel

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/errors"
)

// Responder is the server half of the protocol: it subscribes to the
// verb subjects and answers each request from a local engine.Channel.
// The process holding the engine session runs a Responder; remote
// processes reach it through Channel.
//
// Subscriptions are plain, not queue groups. Refs are session state,
// so every request for a session must reach the one responder that
// owns it; load balancing across responders would hand out refs no
// other session can resolve.
type Responder struct {
	cfg     Config
	channel engine.Channel
	logger  *slog.Logger

	conn *nats.Conn
	subs []*nats.Subscription

	mu     sync.Mutex
	closed bool
}

// ResponderOption is a functional option for Responder construction.
type ResponderOption func(*Responder)

// WithResponderLogger sets the logger
func WithResponderLogger(logger *slog.Logger) ResponderOption {
	return func(r *Responder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResponder creates a responder serving channel under cfg's subject
// prefix. Eval requests are honored when channel also implements
// engine.Evaluator and rejected otherwise.
func NewResponder(cfg Config, channel engine.Channel, opts ...ResponderOption) (*Responder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Responder", "NewResponder",
			"channel is required")
	}

	r := &Responder{
		cfg:     cfg,
		channel: channel,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start connects to NATS and subscribes to the verb subjects
func (r *Responder) Start(_ context.Context) error {
	opts := []nats.Option{
		nats.MaxReconnects(r.cfg.MaxReconnects),
		nats.ReconnectWait(r.cfg.ReconnectWait),
		nats.Timeout(r.cfg.ConnectTimeout),
		nats.DrainTimeout(r.cfg.DrainTimeout),
		nats.Name(r.cfg.Name + "-responder"),
	}
	opts = append(opts, r.cfg.securityOptions()...)

	conn, err := nats.Connect(r.cfg.URL, opts...)
	if err != nil {
		return errors.WrapTransient(err, "Responder", "Start", "connecting to NATS")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn = conn

	handlers := map[string]func(*nats.Msg){
		verbDescribe: r.handleDescribe,
		verbCall:     r.handleCall,
		verbEval:     r.handleEval,
	}
	for verb, handler := range handlers {
		sub, err := conn.Subscribe(r.cfg.subject(verb), handler)
		if err != nil {
			conn.Close()
			r.conn = nil
			return errors.WrapTransient(err, "Responder", "Start", "subscribing to "+verb)
		}
		r.subs = append(r.subs, sub)
	}

	r.logger.Info("responder serving engine bridge",
		"url", r.cfg.URL,
		"prefix", r.cfg.SubjectPrefix)
	return nil
}

// Stop unsubscribes and closes the connection
func (r *Responder) Stop(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	for _, sub := range r.subs {
		if err := sub.Unsubscribe(); err != nil {
			r.logger.Warn("unsubscribe failed", "error", err)
		}
	}
	r.subs = nil

	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
	return nil
}

func (r *Responder) handleDescribe(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()
	r.respond(msg, r.describe(ctx, msg.Data))
}

func (r *Responder) handleCall(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()
	r.respond(msg, r.call(ctx, msg.Data))
}

func (r *Responder) handleEval(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
	defer cancel()
	r.respond(msg, r.eval(ctx, msg.Data))
}

// describe answers one describe request
func (r *Responder) describe(ctx context.Context, data []byte) describeResponse {
	var req describeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return describeResponse{Error: "malformed describe request: " + err.Error()}
	}

	identifiers, err := r.channel.Describe(ctx, engine.Ref(req.Ref))
	if err != nil {
		return describeResponse{Error: diagnosticOf(err)}
	}
	return describeResponse{Identifiers: identifiers}
}

// call answers one call request
func (r *Responder) call(ctx context.Context, data []byte) valueResponse {
	var req callRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return valueResponse{Error: "malformed call request: " + err.Error()}
	}

	result, err := r.channel.Call(ctx, req.Op, req.Args)
	if err != nil {
		return valueResponse{Error: diagnosticOf(err)}
	}
	return valueResponse{Result: result}
}

// eval answers one eval request
func (r *Responder) eval(ctx context.Context, data []byte) valueResponse {
	evaluator, ok := r.channel.(engine.Evaluator)
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

// respond marshals and sends one reply
func (r *Responder) respond(msg *nats.Msg, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("encoding response failed", "subject", msg.Subject, "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		r.logger.Warn("sending response failed", "subject", msg.Subject, "error", err)
	}
}
