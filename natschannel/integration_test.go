//go:build integration

package natschannel

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/enginetest"
	"github.com/c360/semalign/errors"
	"github.com/c360/semalign/metric"
)

// TestIntegration_EngineRoundTrip exercises all three verbs against a
// responder on a real NATS server
func TestIntegration_EngineRoundTrip(t *testing.T) {
	ctx := context.Background()

	natsContainer, natsURL := startNATSContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	eng := enginetest.New()
	eng.AddObject("X", "is-magma", "is-associative")
	eng.SetOpResult("Product", engine.NewRef("XY"))
	eng.SetEval("Size(SymmetricGroup(5))", engine.NewInt(120))

	cfg := DefaultConfig(natsURL)
	cfg.SubjectPrefix = "engine.roundtrip"

	responder, err := NewResponder(cfg, eng)
	require.NoError(t, err)
	require.NoError(t, responder.Start(ctx))
	defer responder.Stop(ctx)

	channel, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, channel.Connect(ctx))
	defer channel.Close(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, channel.WaitForConnection(waitCtx))

	// Describe
	identifiers, err := channel.Describe(ctx, engine.Ref("X"))
	require.NoError(t, err)
	assert.Equal(t, []string{"is-magma", "is-associative"}, identifiers)

	// Call with ref and result crossing the wire
	result, err := channel.Call(ctx, "Product",
		[]engine.Value{engine.NewRef("X"), engine.NewRef("X")})
	require.NoError(t, err)
	assert.True(t, result.Equal(engine.NewRef("XY")))

	// Eval
	size, err := channel.Eval(ctx, "Size(SymmetricGroup(5))")
	require.NoError(t, err)
	assert.Equal(t, int64(120), size.Int())
}

// TestIntegration_EngineDiagnosticSurvivesTheWire checks that an
// engine failure reads identically on the far side of the bridge
func TestIntegration_EngineDiagnosticSurvivesTheWire(t *testing.T) {
	ctx := context.Background()

	natsContainer, natsURL := startNATSContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	const diag = "Error, no method found! For debugging hints type ?Recovery from NoMethodFound"
	eng := enginetest.New()
	eng.FailOp("Inverse", diag)

	cfg := DefaultConfig(natsURL)
	cfg.SubjectPrefix = "engine.diagnostics"

	responder, err := NewResponder(cfg, eng)
	require.NoError(t, err)
	require.NoError(t, responder.Start(ctx))
	defer responder.Stop(ctx)

	channel, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, channel.Connect(ctx))
	defer channel.Close(ctx)

	_, err = channel.Call(ctx, "Inverse", []engine.Value{engine.NewRef("X")})
	require.Error(t, err)

	var extErr *errors.ExternalCallError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "Inverse", extErr.Operation)
	assert.Equal(t, diag, extErr.Diagnostic)
	assert.False(t, errors.IsTransient(err), "engine errors are not transport errors")
}

// TestIntegration_NoResponder checks fail-fast behavior when nothing
// serves the subject
func TestIntegration_NoResponder(t *testing.T) {
	ctx := context.Background()

	natsContainer, natsURL := startNATSContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	cfg := DefaultConfig(natsURL)
	cfg.SubjectPrefix = "engine.nobody"

	channel, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, channel.Connect(ctx))
	defer channel.Close(ctx)

	start := time.Now()
	_, err = channel.Describe(ctx, engine.Ref("X"))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoConnection)
	assert.True(t, errors.IsTransient(err))
	assert.Less(t, elapsed, 5*time.Second, "no-responder errors should not wait out the timeout")
}

// TestIntegration_ChannelMetrics verifies the channel reports its
// connection state
func TestIntegration_ChannelMetrics(t *testing.T) {
	ctx := context.Background()

	natsContainer, natsURL := startNATSContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	registry := metric.NewMetricsRegistry()

	cfg := DefaultConfig(natsURL)
	cfg.SubjectPrefix = "engine.metrics"
	cfg.HealthInterval = 50 * time.Millisecond

	channel, err := New(cfg, WithMetrics(registry.CoreMetrics()))
	require.NoError(t, err)
	require.NoError(t, channel.Connect(ctx))
	defer channel.Close(ctx)

	// Let the health monitor sample RTT at least once
	time.Sleep(150 * time.Millisecond)

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := make(map[string]bool)
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	assert.True(t, found["semalign_channel_connected"], "connected gauge should be exported")
	assert.True(t, found["semalign_channel_rtt_milliseconds"], "rtt gauge should be exported")
}

// TestIntegration_RateLimitThrottles verifies the limiter spaces out
// requests
func TestIntegration_RateLimitThrottles(t *testing.T) {
	ctx := context.Background()

	natsContainer, natsURL := startNATSContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	eng := enginetest.New()
	eng.AddObject("X", "is-magma")

	cfg := DefaultConfig(natsURL)
	cfg.SubjectPrefix = "engine.throttled"

	responder, err := NewResponder(cfg, eng)
	require.NoError(t, err)
	require.NoError(t, responder.Start(ctx))
	defer responder.Stop(ctx)

	channel, err := New(cfg, WithRateLimit(10, 1))
	require.NoError(t, err)
	require.NoError(t, channel.Connect(ctx))
	defer channel.Close(ctx)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := channel.Describe(ctx, engine.Ref("X"))
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	// Burst of 1 at 10 rps means the second and third request wait
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
}

// TestIntegration_CircuitBreakerWithRealConnection tests the circuit
// breaker against an unreachable server
func TestIntegration_CircuitBreakerWithRealConnection(t *testing.T) {
	ctx := context.Background()

	cfg := DefaultConfig("nats://invalid-host:4222")
	cfg.ConnectTimeout = 500 * time.Millisecond
	channel, err := New(cfg)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		err = channel.Connect(ctx)
		assert.Error(t, err)
		assert.NotEqual(t, StatusCircuitOpen, channel.Status())
	}

	err = channel.Connect(ctx)
	assert.Error(t, err)
	assert.Equal(t, StatusCircuitOpen, channel.Status())
	assert.Equal(t, int32(5), channel.Failures())

	// Further attempts fail fast
	start := time.Now()
	err = channel.Connect(ctx)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCircuitOpen)
	assert.Less(t, elapsed, 10*time.Millisecond)
}

// startNATSContainer starts a NATS server for integration testing
func startNATSContainer(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	req := testcontainers.ContainerRequest{
		Image:        "nats:latest",
		ExposedPorts: []string{"4222/tcp", "8222/tcp"},
		WaitingFor:   wait.ForListeningPort("4222/tcp"),
		Cmd:          []string{"-m", "8222"},
	}

	natsContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := natsContainer.Host(ctx)
	require.NoError(t, err)

	port, err := natsContainer.MappedPort(ctx, "4222")
	require.NoError(t, err)

	natsURL := fmt.Sprintf("nats://%s:%s", host, port.Port())

	// Give the server a beat to finish startup
	time.Sleep(100 * time.Millisecond)

	return natsContainer, natsURL
}
