package natschannel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("nats://localhost:4222")

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "nats://localhost:4222", cfg.URL)
	assert.Equal(t, "engine", cfg.SubjectPrefix)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, -1, cfg.MaxReconnects)
	assert.Equal(t, int32(5), cfg.CircuitThreshold)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{name: "default is valid", mutate: func(*Config) {}, valid: true},
		{name: "missing URL", mutate: func(c *Config) { c.URL = "" }},
		{name: "missing prefix", mutate: func(c *Config) { c.SubjectPrefix = "" }},
		{name: "wildcard prefix", mutate: func(c *Config) { c.SubjectPrefix = "engine.>" }},
		{name: "star prefix", mutate: func(c *Config) { c.SubjectPrefix = "engine.*" }},
		{name: "whitespace prefix", mutate: func(c *Config) { c.SubjectPrefix = "engine session" }},
		{name: "zero request timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }},
		{name: "zero connect timeout", mutate: func(c *Config) { c.ConnectTimeout = 0 }},
		{name: "zero circuit threshold", mutate: func(c *Config) { c.CircuitThreshold = 0 }},
		{name: "cert without key", mutate: func(c *Config) { c.TLSCertFile = "client.crt" }},
		{name: "key without cert", mutate: func(c *Config) { c.TLSKeyFile = "client.key" }},
		{
			name: "full TLS and credentials",
			mutate: func(c *Config) {
				c.Username = "bridge"
				c.Password = "secret"
				c.TLSCertFile = "client.crt"
				c.TLSKeyFile = "client.key"
				c.TLSCAFile = "ca.crt"
			},
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("nats://localhost:4222")
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.IsFatal(err))
			}
		})
	}
}

func TestConfig_SecurityOptions(t *testing.T) {
	cfg := DefaultConfig("nats://localhost:4222")
	assert.Empty(t, cfg.securityOptions())

	cfg.Username = "bridge"
	cfg.Password = "secret"
	cfg.Token = "tok"
	cfg.TLSCertFile = "client.crt"
	cfg.TLSKeyFile = "client.key"
	cfg.TLSCAFile = "ca.crt"
	assert.Len(t, cfg.securityOptions(), 4)
}

func TestConfig_Subject(t *testing.T) {
	cfg := DefaultConfig("nats://localhost:4222")
	assert.Equal(t, "engine.describe", cfg.subject(verbDescribe))

	cfg.SubjectPrefix = "gap.session7"
	assert.Equal(t, "gap.session7.call", cfg.subject(verbCall))
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
}

func TestNew_RejectsBadRateLimit(t *testing.T) {
	_, err := New(DefaultConfig("nats://localhost:4222"), WithRateLimit(0, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestChannel_RequiresConnection(t *testing.T) {
	ch, err := New(DefaultConfig("nats://localhost:4222"))
	require.NoError(t, err)

	ctx := context.Background()

	_, err = ch.Describe(ctx, engine.Ref("X"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoConnection)
	assert.True(t, errors.IsTransient(err))

	_, err = ch.Call(ctx, "Product", []engine.Value{engine.NewRef("X")})
	assert.ErrorIs(t, err, errors.ErrNoConnection)

	_, err = ch.Eval(ctx, "One(G)")
	assert.ErrorIs(t, err, errors.ErrNoConnection)
}

func TestChannel_RejectsEmptyArguments(t *testing.T) {
	ch, err := New(DefaultConfig("nats://localhost:4222"))
	require.NoError(t, err)

	ctx := context.Background()

	_, err = ch.Describe(ctx, engine.Ref(""))
	assert.ErrorIs(t, err, errors.ErrBadArgument)

	_, err = ch.Call(ctx, "", nil)
	assert.ErrorIs(t, err, errors.ErrBadArgument)

	_, err = ch.Eval(ctx, "")
	assert.ErrorIs(t, err, errors.ErrBadArgument)
}

func TestChannel_CircuitBreakerOpens(t *testing.T) {
	cfg := DefaultConfig("nats://localhost:4222")
	cfg.CircuitThreshold = 3
	ch, err := New(cfg)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		ch.recordFailure()
		assert.NotEqual(t, StatusCircuitOpen, ch.Status())
	}

	ch.recordFailure()
	assert.Equal(t, StatusCircuitOpen, ch.Status())
	assert.Equal(t, int32(3), ch.Failures())
	assert.Equal(t, 2*time.Second, ch.Backoff())

	// Open circuit fails fast without touching the connection
	_, err = ch.Describe(context.Background(), engine.Ref("X"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCircuitOpen)
	assert.True(t, errors.IsTransient(err))
}

func TestChannel_CircuitBreakerBackoffIsCapped(t *testing.T) {
	cfg := DefaultConfig("nats://localhost:4222")
	cfg.CircuitThreshold = 2
	cfg.MaxBackoff = 2 * time.Second
	ch, err := New(cfg)
	require.NoError(t, err)

	// First round opens the circuit and doubles the backoff
	ch.recordFailure()
	ch.recordFailure()
	require.Equal(t, StatusCircuitOpen, ch.Status())
	assert.Equal(t, 2*time.Second, ch.Backoff())

	// Failures while open keep doubling but respect the cap
	ch.recordFailure()
	ch.recordFailure()
	assert.Equal(t, 2*time.Second, ch.Backoff())
}

func TestChannel_CircuitResetClearsFailureState(t *testing.T) {
	cfg := DefaultConfig("nats://localhost:4222")
	cfg.CircuitThreshold = 2
	ch, err := New(cfg)
	require.NoError(t, err)

	ch.recordFailure()
	ch.recordFailure()
	require.Equal(t, StatusCircuitOpen, ch.Status())

	ch.resetCircuit()
	assert.Equal(t, StatusDisconnected, ch.Status())
	assert.Equal(t, int32(0), ch.Failures())
	assert.Equal(t, time.Second, ch.Backoff())
}

func TestChannel_CloseWithoutConnect(t *testing.T) {
	ch, err := New(DefaultConfig("nats://localhost:4222"))
	require.NoError(t, err)

	require.NoError(t, ch.Close(context.Background()))
	require.NoError(t, ch.Close(context.Background()))
	assert.Equal(t, StatusDisconnected, ch.Status())
}

func TestConnectionStatus_String(t *testing.T) {
	tests := []struct {
		status ConnectionStatus
		want   string
	}{
		{StatusDisconnected, "disconnected"},
		{StatusConnecting, "connecting"},
		{StatusConnected, "connected"},
		{StatusReconnecting, "reconnecting"},
		{StatusCircuitOpen, "circuit_open"},
		{ConnectionStatus(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}
