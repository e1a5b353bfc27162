package wschannel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/errors"
	"github.com/c360/semalign/metric"
)

// transportLabel tags this channel's metrics
const transportLabel = "websocket"

// readPollInterval bounds each blocking read so the loop notices
// shutdown promptly
const readPollInterval = time.Second

// Channel is the WebSocket transport to the external computation
// engine. It multiplexes describe, call, and eval exchanges over a
// single socket served by a Handler, correlating replies to requests
// by envelope ID, with the engine's own diagnostics carried back
// verbatim.
//
// A lost connection fails all in-flight requests and triggers
// reconnection with exponentially growing delays. All methods are safe
// for concurrent use.
type Channel struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metric.Metrics

	conn    *websocket.Conn
	mu      sync.RWMutex
	writeMu sync.Mutex

	pending   map[string]chan *envelope
	pendingMu sync.Mutex

	connected         atomic.Bool
	closed            atomic.Bool
	reconnectAttempts atomic.Int32
	lastRTT           atomic.Int64

	done chan struct{}
	wg   sync.WaitGroup
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

// New creates a channel for cfg. The channel starts disconnected;
// Connect establishes the session.
func New(cfg Config, opts ...Option) (*Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Channel{
		cfg:     cfg,
		logger:  slog.Default(),
		pending: make(map[string]chan *envelope),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.logger.Debug("created WebSocket channel", "url", cfg.URL)
	return c, nil
}

// IsHealthy reports whether the connection is up
func (c *Channel) IsHealthy() bool {
	return c.connected.Load()
}

// RTT returns the round-trip time of the last keepalive ping, or zero
// before the first pong arrives
func (c *Channel) RTT() time.Duration {
	return time.Duration(c.lastRTT.Load())
}

// Connect performs the WebSocket handshake and starts the read loop
func (c *Channel) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return errors.WrapInvalid(errors.ErrBadArgument, "Channel", "Connect",
			"channel is closed")
	}
	if c.connected.Load() {
		return nil
	}

	c.logger.Info("connecting to engine bridge", "url", c.cfg.URL)
	conn, err := c.dial(ctx)
	if err != nil {
		return errors.WrapTransient(err, "Channel", "Connect", "establishing connection")
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.setConnected(true)
	c.logger.Info("connected to engine bridge", "url", c.cfg.URL)

	c.wg.Add(1)
	go c.readLoop(conn)

	if c.cfg.PingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop()
	}
	return nil
}

// dial performs one handshake and installs the pong handler
func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}

	var header http.Header
	if c.cfg.Name != "" {
		header = http.Header{"X-Client-Name": []string{c.cfg.Name}}
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return nil, err
	}

	// Pings carry their send time; the pong echo yields an RTT sample
	conn.SetPongHandler(func(appData string) error {
		if sent, err := strconv.ParseInt(appData, 10, 64); err == nil {
			rtt := time.Since(time.Unix(0, sent))
			c.lastRTT.Store(int64(rtt))
			if c.metrics != nil {
				c.metrics.RecordChannelRTT(transportLabel, rtt)
			}
		}
		return nil
	})
	return conn, nil
}

func (c *Channel) setConnected(connected bool) {
	c.connected.Store(connected)
	if c.metrics != nil {
		c.metrics.RecordChannelStatus(transportLabel, connected)
	}
}

// Close shuts the channel down and fails any in-flight requests. It is
// safe to call more than once.
func (c *Channel) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		_ = conn.Close()
	}

	waitDone := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(waitDone)
	}()

	var waitErr error
	select {
	case <-waitDone:
	case <-ctx.Done():
		waitErr = errors.Wrap(ctx.Err(), "Channel", "Close", "waiting for read loop")
	}

	c.setConnected(false)
	c.failPending()

	if waitErr != nil {
		c.logger.Warn("close finished before read loop exited", "error", waitErr)
		return waitErr
	}
	return nil
}

// Describe implements engine.Channel
func (c *Channel) Describe(ctx context.Context, ref engine.Ref) ([]string, error) {
	if ref.IsZero() {
		return nil, errors.WrapInvalid(errors.ErrBadArgument, "Channel", "Describe",
			"describing empty ref")
	}

	data, err := c.request(ctx, typeDescribe, describeRequest{Ref: ref.String()})
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

	data, err := c.request(ctx, typeCall, callRequest{Op: op, Args: args})
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

	data, err := c.request(ctx, typeEval, evalRequest{Code: code})
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

// request sends one framed request and waits for its correlated reply
func (c *Channel) request(ctx context.Context, verb string, payload any) (json.RawMessage, error) {
	if !c.connected.Load() {
		return nil, errors.WrapTransient(errors.ErrNoConnection, "Channel", verb,
			"no active connection")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Channel", verb, "encoding request")
	}
	env := envelope{
		Type:      verb,
		ID:        uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
		Payload:   body,
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Channel", verb, "encoding envelope")
	}

	replyCh := make(chan *envelope, 1)
	c.pendingMu.Lock()
	c.pending[env.ID] = replyCh
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, env.ID)
		c.pendingMu.Unlock()
	}()

	if err := c.write(frame); err != nil {
		return nil, errors.WrapTransient(err, "Channel", verb, "writing request")
	}

	timer := time.NewTimer(c.cfg.RequestTimeout)
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		// A closed channel means the connection died under us
		if reply == nil {
			return nil, errors.WrapTransient(errors.ErrConnectionLost, "Channel", verb,
				"connection lost awaiting reply")
		}
		return reply.Payload, nil
	case <-timer.C:
		return nil, errors.WrapTransient(errors.ErrConnectionTimeout, "Channel", verb,
			fmt.Sprintf("no reply within %v", c.cfg.RequestTimeout))
	case <-ctx.Done():
		return nil, errors.WrapTransient(ctx.Err(), "Channel", verb, "awaiting reply")
	case <-c.done:
		return nil, errors.WrapTransient(errors.ErrConnectionLost, "Channel", verb,
			"channel closed awaiting reply")
	}
}

// write sends one frame under the write lock
func (c *Channel) write(frame []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return errors.ErrNoConnection
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// readLoop reads frames until the connection dies or the channel
// closes. Each blocking read is bounded by readPollInterval so the
// done check stays responsive.
func (c *Channel) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(readPollInterval))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			c.handleDisconnect(conn, err)
			return
		}

		c.dispatch(data)
	}
}

// dispatch routes a reply frame to the request waiting on its ID
func (c *Channel) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Debug("discarding malformed frame", "error", err)
		return
	}
	if env.Type != typeReply {
		c.logger.Debug("discarding unexpected frame", "type", env.Type, "id", env.ID)
		return
	}

	c.pendingMu.Lock()
	replyCh, exists := c.pending[env.ID]
	if exists {
		delete(c.pending, env.ID)
	}
	c.pendingMu.Unlock()

	if exists {
		select {
		case replyCh <- &env:
		default:
		}
	}
}

// failPending wakes every in-flight request with a closed channel
func (c *Channel) failPending() {
	c.pendingMu.Lock()
	for id, ch := range c.pending {
		delete(c.pending, id)
		close(ch)
	}
	c.pendingMu.Unlock()
}

// handleDisconnect tears down a dead connection and hands off to the
// reconnect loop
func (c *Channel) handleDisconnect(conn *websocket.Conn, err error) {
	_ = conn.Close()
	c.setConnected(false)
	c.failPending()

	if c.closed.Load() {
		return
	}

	c.logger.Warn("connection lost", "url", c.cfg.URL, "error", err)
	c.reconnect()
}

// reconnect dials until a connection sticks or the attempt budget runs
// out, then restarts the read loop
func (c *Channel) reconnect() {
	for c.shouldReconnect() {
		delay := c.calculateReconnectDelay()
		c.logger.Info("reconnecting",
			"attempt", c.reconnectAttempts.Load(),
			"delay", delay)

		select {
		case <-c.done:
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HandshakeTimeout)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			c.logger.Warn("reconnect failed", "error", err)
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.reconnectAttempts.Store(0)
		c.setConnected(true)
		if c.metrics != nil {
			c.metrics.RecordChannelReconnect(transportLabel)
		}
		c.logger.Info("reconnected to engine bridge", "url", c.cfg.URL)

		c.wg.Add(1)
		go c.readLoop(conn)
		return
	}

	c.logger.Error("giving up on reconnection", "url", c.cfg.URL)
}

// shouldReconnect reports whether another attempt is allowed and
// claims it
func (c *Channel) shouldReconnect() bool {
	if c.closed.Load() {
		return false
	}
	if c.cfg.MaxReconnects == 0 {
		return false
	}

	current := c.reconnectAttempts.Load()
	if c.cfg.MaxReconnects > 0 && int(current) >= c.cfg.MaxReconnects {
		return false
	}

	c.reconnectAttempts.Add(1)
	return true
}

// calculateReconnectDelay grows the delay exponentially with each
// attempt, capped at ReconnectMaxWait
func (c *Channel) calculateReconnectDelay() time.Duration {
	attempts := c.reconnectAttempts.Load()

	delay := c.cfg.ReconnectWait
	for i := int32(1); i < attempts; i++ {
		delay = time.Duration(float64(delay) * c.cfg.ReconnectMultiplier)
		if delay > c.cfg.ReconnectMaxWait {
			return c.cfg.ReconnectMaxWait
		}
	}
	return delay
}

// pingLoop sends timestamped pings; the pong handler turns the echo
// into an RTT sample
func (c *Channel) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()
			if conn == nil || !c.connected.Load() {
				continue
			}

			payload := strconv.FormatInt(time.Now().UnixNano(), 10)
			c.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			err := conn.WriteMessage(websocket.PingMessage, []byte(payload))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("keepalive ping failed", "error", err)
			}
		}
	}
}
