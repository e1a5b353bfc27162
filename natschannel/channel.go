package natschannel

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/errors"
	"github.com/c360/semalign/metric"
)

// transportLabel tags this channel's metrics
const transportLabel = "nats"

// ConnectionStatus represents the state of the NATS connection
type ConnectionStatus int

// Possible connection statuses
const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusCircuitOpen
)

// String returns the string representation of ConnectionStatus
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusCircuitOpen:
		return "circuit_open"
	default:
		return "unknown"
	}
}

// Circuit breaker states reported to metrics
const (
	circuitClosed = iota
	circuitOpen
	circuitHalfOpen
)

// Status holds runtime status information for the channel
type Status struct {
	Status          ConnectionStatus
	FailureCount    int32
	LastFailureTime time.Time
	RTT             time.Duration
}

// Channel is the NATS transport to the external computation engine. It
// speaks the request-reply protocol a Responder serves: one exchange
// per describe, call, or eval, with the engine's own diagnostics
// carried back verbatim.
//
// The channel protects the engine session with a circuit breaker:
// after CircuitThreshold consecutive transport failures it fails fast
// and retests the connection after an exponentially growing backoff.
// All methods are safe for concurrent use.
type Channel struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metric.Metrics
	limiter *rate.Limiter

	status   atomic.Value // stores ConnectionStatus
	failures atomic.Int32

	// Circuit breaker
	lastFailure     atomic.Value // stores time.Time
	backoff         atomic.Value // stores time.Duration
	circuitFailures atomic.Int32

	conn *nats.Conn

	// Health monitoring
	healthTicker *time.Ticker
	healthDone   chan struct{}

	mu      sync.RWMutex
	closeMu sync.Mutex
	closed  atomic.Bool
}

var (
	_ engine.Channel   = (*Channel)(nil)
	_ engine.Evaluator = (*Channel)(nil)
)

// Option is a functional option for configuring the Channel
type Option func(*Channel) error

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithMetrics attaches channel metrics
func WithMetrics(metrics *metric.Metrics) Option {
	return func(c *Channel) error {
		c.metrics = metrics
		return nil
	}
}

// WithRateLimit caps outbound requests at rps with the given burst.
// Engine sessions are single-threaded interpreters; a limiter keeps a
// busy host from flooding the session's mailbox.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Channel) error {
		if rps <= 0 || burst < 1 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Channel", "WithRateLimit",
				fmt.Sprintf("rate %v burst %d", rps, burst))
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// New creates a channel for cfg. The channel starts disconnected;
// Connect establishes the session.
func New(cfg Config, opts ...Option) (*Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Channel{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.status.Store(StatusDisconnected)
	c.backoff.Store(time.Second)
	c.lastFailure.Store(time.Time{})

	c.logger.Debug("created NATS channel", "url", cfg.URL, "prefix", cfg.SubjectPrefix)
	return c, nil
}

// Status returns the current connection status
func (c *Channel) Status() ConnectionStatus {
	val := c.status.Load()
	if val == nil {
		return StatusDisconnected
	}
	return val.(ConnectionStatus)
}

func (c *Channel) setStatus(status ConnectionStatus) {
	c.status.Store(status)
	if c.metrics != nil {
		c.metrics.RecordChannelStatus(transportLabel, status == StatusConnected)
	}
}

// IsHealthy reports whether the connection is up
func (c *Channel) IsHealthy() bool {
	return c.Status() == StatusConnected
}

// Failures returns the total transport failure count
func (c *Channel) Failures() int32 {
	return c.failures.Load()
}

// Backoff returns the current circuit breaker backoff
func (c *Channel) Backoff() time.Duration {
	return c.backoff.Load().(time.Duration)
}

// GetStatus returns a snapshot of the channel's runtime state
func (c *Channel) GetStatus() *Status {
	st := &Status{
		Status:          c.Status(),
		FailureCount:    c.failures.Load(),
		LastFailureTime: c.lastFailure.Load().(time.Time),
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn != nil && conn.IsConnected() {
		if rtt, err := conn.RTT(); err == nil {
			st.RTT = rtt
		}
	}
	return st
}

// Connect establishes the NATS connection
func (c *Channel) Connect(ctx context.Context) error {
	if c.Status() == StatusCircuitOpen {
		return errors.WrapTransient(errors.ErrCircuitOpen, "Channel", "Connect",
			"skipping connection attempt")
	}

	c.setStatus(StatusConnecting)
	c.logger.Info("connecting to NATS", "url", c.cfg.URL)

	connectDone := make(chan error, 1)
	go func() {
		conn, err := nats.Connect(c.cfg.URL, c.connectionOptions()...)
		if err != nil {
			connectDone <- err
			return
		}
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		connectDone <- nil
	}()

	select {
	case err := <-connectDone:
		if err != nil {
			c.recordFailure()
			if c.Status() != StatusCircuitOpen {
				c.setStatus(StatusDisconnected)
				return errors.WrapTransient(err, "Channel", "Connect", "establishing connection")
			}
			return errors.WrapTransient(errors.ErrCircuitOpen, "Channel", "Connect",
				"connection attempt opened circuit")
		}
	case <-ctx.Done():
		c.recordFailure()
		if c.Status() != StatusCircuitOpen {
			c.setStatus(StatusDisconnected)
		}
		return errors.WrapTransient(ctx.Err(), "Channel", "Connect", "connection cancelled")
	}

	c.setStatus(StatusConnected)
	c.resetCircuit()
	c.logger.Info("connected to NATS", "url", c.cfg.URL)

	if c.cfg.HealthInterval > 0 {
		c.startHealthMonitoring()
	}
	return nil
}

// connectionOptions builds the nats.go options from the configuration
func (c *Channel) connectionOptions() []nats.Option {
	opts := []nats.Option{
		nats.MaxReconnects(c.cfg.MaxReconnects),
		nats.ReconnectWait(c.cfg.ReconnectWait),
		nats.PingInterval(c.cfg.PingInterval),
		nats.Timeout(c.cfg.ConnectTimeout),
		nats.DrainTimeout(c.cfg.DrainTimeout),
		nats.DisconnectErrHandler(c.handleDisconnect),
		nats.ReconnectHandler(c.handleReconnect),
		nats.ClosedHandler(c.handleClosed),
	}
	if c.cfg.Name != "" {
		opts = append(opts, nats.Name(c.cfg.Name))
	}
	opts = append(opts, c.cfg.securityOptions()...)
	return opts
}

// WaitForConnection blocks until the channel is healthy or ctx expires
func (c *Channel) WaitForConnection(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return errors.WrapTransient(errors.ErrConnectionTimeout, "Channel", "WaitForConnection",
				"waiting for connection")
		case <-ticker.C:
			if c.IsHealthy() {
				return nil
			}
		}
	}
}

// Close drains and closes the connection. It is safe to call more than
// once.
func (c *Channel) Close(ctx context.Context) error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed.Load() {
		return nil
	}
	c.closed.Store(true)

	c.stopHealthMonitoring()

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		c.setStatus(StatusDisconnected)
		return nil
	}

	drainTimeout := c.cfg.DrainTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < drainTimeout {
			drainTimeout = remaining
		}
	}

	drainDone := make(chan error, 1)
	go func() {
		drainDone <- conn.Drain()
	}()

	var drainErr error
	select {
	case err := <-drainDone:
		if err != nil {
			drainErr = errors.Wrap(err, "Channel", "Close", "draining connection")
		}
	case <-time.After(drainTimeout):
		drainErr = errors.WrapTransient(errors.ErrConnectionTimeout, "Channel", "Close",
			fmt.Sprintf("drain timeout after %v", drainTimeout))
	case <-ctx.Done():
		drainErr = errors.Wrap(ctx.Err(), "Channel", "Close", "context cancelled during drain")
	}

	conn.Close()
	c.setStatus(StatusDisconnected)

	if drainErr != nil {
		c.logger.Warn("close finished with drain error", "error", drainErr)
		return drainErr
	}
	return nil
}

// Describe implements engine.Channel
func (c *Channel) Describe(ctx context.Context, ref engine.Ref) ([]string, error) {
	if ref.IsZero() {
		return nil, errors.WrapInvalid(errors.ErrBadArgument, "Channel", "Describe",
			"describing empty ref")
	}

	data, err := c.request(ctx, verbDescribe, describeRequest{Ref: ref.String()})
	if err != nil {
		return nil, err
	}

	var resp describeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.WrapInvalid(err, "Channel", "Describe", "decoding response")
	}
	if resp.Error != "" {
		return nil, &errors.ExternalCallError{Operation: "describe", Diagnostic: resp.Error}
	}
	return resp.Identifiers, nil
}

// Call implements engine.Channel
func (c *Channel) Call(ctx context.Context, op string, args []engine.Value) (engine.Value, error) {
	if op == "" {
		return engine.Nil(), errors.WrapInvalid(errors.ErrBadArgument, "Channel", "Call",
			"calling empty operation name")
	}

	data, err := c.request(ctx, verbCall, callRequest{Op: op, Args: args})
	if err != nil {
		return engine.Nil(), err
	}

	var resp valueResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return engine.Nil(), errors.WrapInvalid(err, "Channel", "Call", "decoding response")
	}
	if resp.Error != "" {
		return engine.Nil(), &errors.ExternalCallError{Operation: op, Diagnostic: resp.Error}
	}
	return resp.Result, nil
}

// Eval implements engine.Evaluator. Whether the far side actually
// evaluates source text is the bridge's decision; a bridge fronting an
// engine without an evaluator answers with an error.
func (c *Channel) Eval(ctx context.Context, code string) (engine.Value, error) {
	if code == "" {
		return engine.Nil(), errors.WrapInvalid(errors.ErrBadArgument, "Channel", "Eval",
			"evaluating empty source")
	}

	data, err := c.request(ctx, verbEval, evalRequest{Code: code})
	if err != nil {
		return engine.Nil(), err
	}

	var resp valueResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return engine.Nil(), errors.WrapInvalid(err, "Channel", "Eval", "decoding response")
	}
	if resp.Error != "" {
		return engine.Nil(), &errors.ExternalCallError{Operation: "eval", Diagnostic: resp.Error}
	}
	return resp.Result, nil
}

// request performs one request-reply exchange for a verb
func (c *Channel) request(ctx context.Context, verb string, payload any) ([]byte, error) {
	if c.Status() == StatusCircuitOpen {
		return nil, errors.WrapTransient(errors.ErrCircuitOpen, "Channel", verb,
			"failing fast")
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil || !conn.IsConnected() {
		return nil, errors.WrapTransient(errors.ErrNoConnection, "Channel", verb,
			"no active connection")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.WrapTransient(err, "Channel", verb, "waiting for rate limiter")
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Channel", verb, "encoding request")
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	msg, err := conn.RequestWithContext(reqCtx, c.cfg.subject(verb), data)
	if err != nil {
		c.recordFailure()
		switch {
		case stderrors.Is(err, nats.ErrNoResponders):
			return nil, errors.WrapTransient(errors.ErrNoConnection, "Channel", verb,
				"no engine bridge listening")
		case stderrors.Is(err, context.DeadlineExceeded):
			return nil, errors.WrapTransient(errors.ErrConnectionTimeout, "Channel", verb,
				fmt.Sprintf("request exceeded %v", c.cfg.RequestTimeout))
		default:
			return nil, errors.WrapTransient(err, "Channel", verb, "request")
		}
	}

	c.resetCircuit()
	return msg.Data, nil
}

// recordFailure counts a transport failure and manages the circuit
// breaker. After CircuitThreshold failures in a round the circuit
// opens, the backoff doubles up to MaxBackoff, and a retest is
// scheduled.
func (c *Channel) recordFailure() {
	c.failures.Add(1)
	c.lastFailure.Store(time.Now())

	circuitFailures := c.circuitFailures.Add(1)
	if circuitFailures < c.cfg.CircuitThreshold {
		return
	}

	currentStatus := c.Status()
	if currentStatus != StatusCircuitOpen {
		if c.status.CompareAndSwap(currentStatus, StatusCircuitOpen) {
			currentBackoff := c.backoff.Load().(time.Duration)
			newBackoff := currentBackoff * 2
			if newBackoff > c.cfg.MaxBackoff {
				newBackoff = c.cfg.MaxBackoff
			}
			c.backoff.Store(newBackoff)
			c.circuitFailures.Store(0)

			if c.metrics != nil {
				c.metrics.RecordChannelStatus(transportLabel, false)
				c.metrics.RecordCircuitBreakerState(transportLabel, circuitOpen)
			}
			c.logger.Warn("circuit breaker opened",
				"failures", circuitFailures,
				"backoff", currentBackoff)

			time.AfterFunc(currentBackoff, c.testCircuit)
		}
		return
	}

	// Circuit already open; consecutive failures keep growing the backoff
	currentBackoff := c.backoff.Load().(time.Duration)
	newBackoff := currentBackoff * 2
	if newBackoff > c.cfg.MaxBackoff {
		newBackoff = c.cfg.MaxBackoff
	}
	c.backoff.Store(newBackoff)
	c.circuitFailures.Store(0)
	c.logger.Warn("circuit breaker still open", "backoff", newBackoff)
}

// resetCircuit clears failure state after a successful exchange
func (c *Channel) resetCircuit() {
	c.failures.Store(0)
	c.circuitFailures.Store(0)
	c.backoff.Store(time.Second)
	c.lastFailure.Store(time.Time{})

	if c.Status() == StatusCircuitOpen {
		c.setStatus(StatusDisconnected)
	}
	if c.metrics != nil {
		c.metrics.RecordCircuitBreakerState(transportLabel, circuitClosed)
	}
}

// testCircuit moves an open circuit to half-open so the next request
// may probe the connection
func (c *Channel) testCircuit() {
	if c.Status() == StatusCircuitOpen {
		c.logger.Debug("circuit breaker retest, allowing traffic")
		c.setStatus(StatusDisconnected)
		if c.metrics != nil {
			c.metrics.RecordCircuitBreakerState(transportLabel, circuitHalfOpen)
		}
	}
}

// Event handlers for the NATS connection
func (c *Channel) handleDisconnect(_ *nats.Conn, err error) {
	c.setStatus(StatusReconnecting)
	c.logger.Warn("NATS disconnected", "error", err)
}

func (c *Channel) handleReconnect(_ *nats.Conn) {
	c.setStatus(StatusConnected)
	c.resetCircuit()
	if c.metrics != nil {
		c.metrics.RecordChannelReconnect(transportLabel)
	}
	c.logger.Info("NATS reconnected")
}

func (c *Channel) handleClosed(_ *nats.Conn) {
	c.setStatus(StatusDisconnected)
}

// startHealthMonitoring samples the connection RTT periodically
func (c *Channel) startHealthMonitoring() {
	c.stopHealthMonitoring()

	c.mu.Lock()
	c.healthTicker = time.NewTicker(c.cfg.HealthInterval)
	c.healthDone = make(chan struct{})
	ticker := c.healthTicker
	done := c.healthDone
	c.mu.Unlock()

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.mu.RLock()
				conn := c.conn
				c.mu.RUnlock()
				if conn == nil {
					continue
				}

				healthy := conn.IsConnected()
				if healthy {
					if rtt, err := conn.RTT(); err == nil {
						if c.metrics != nil {
							c.metrics.RecordChannelRTT(transportLabel, rtt)
						}
					} else {
						healthy = false
					}
				}

				if healthy && c.Status() != StatusConnected {
					c.setStatus(StatusConnected)
				} else if !healthy && c.Status() == StatusConnected {
					c.setStatus(StatusReconnecting)
				}
			}
		}
	}()
}

// stopHealthMonitoring stops the sampling goroutine
func (c *Channel) stopHealthMonitoring() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.healthTicker != nil {
		c.healthTicker.Stop()
		c.healthTicker = nil
	}
	if c.healthDone != nil {
		close(c.healthDone)
		c.healthDone = nil
	}
}
