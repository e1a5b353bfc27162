package probe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/enginetest"
	"github.com/c360/semalign/errors"
	"github.com/c360/semalign/lattice"
	"github.com/c360/semalign/metric"
)

// Result feeds lattice matching directly.
var _ lattice.Evidence = Result{}

func TestProber_Probe(t *testing.T) {
	eng := enginetest.New()
	ref := eng.NewObject("is-associative", "is-magma")

	prober, err := New(eng)
	require.NoError(t, err)

	result, err := prober.Probe(context.Background(), ref)
	require.NoError(t, err)

	assert.Equal(t, ref, result.Ref())
	assert.Equal(t, 2, result.Len())
	assert.Equal(t, []string{"is-associative", "is-magma"}, result.Names())
	assert.True(t, result.Has("is-magma"))
	assert.True(t, result.Has("is-associative"))
	assert.False(t, result.Has("is-finite"))
	assert.False(t, result.At().IsZero())
}

func TestProber_OneDescribePerProbe(t *testing.T) {
	eng := enginetest.New()
	ref := eng.NewObject("is-magma")

	prober, err := New(eng)
	require.NoError(t, err)

	_, err = prober.Probe(context.Background(), ref)
	require.NoError(t, err)
	_, err = prober.Probe(context.Background(), ref)
	require.NoError(t, err)

	assert.Len(t, eng.Describes(), 2)
}

func TestProber_EmptyEvidenceIsNotAnError(t *testing.T) {
	eng := enginetest.New()
	ref := eng.NewObject()

	prober, err := New(eng)
	require.NoError(t, err)

	result, err := prober.Probe(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Len())
	assert.Empty(t, result.Names())
}

func TestProber_EngineFailurePropagates(t *testing.T) {
	eng := enginetest.New()
	ref := eng.NewObject("is-magma")
	eng.FailDescribe(ref, "Error, object has been destroyed")

	prober, err := New(eng)
	require.NoError(t, err)

	result, err := prober.Probe(context.Background(), ref)
	require.Error(t, err)

	// Diagnostic survives wrapping verbatim
	var callErr *errors.ExternalCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "Error, object has been destroyed", callErr.Diagnostic)

	// Failure is not an empty answer
	assert.Equal(t, 0, result.Len())
	assert.True(t, errors.IsInvalid(err))
}

func TestProber_RejectsEmptyRef(t *testing.T) {
	eng := enginetest.New()

	prober, err := New(eng)
	require.NoError(t, err)

	_, err = prober.Probe(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBadArgument)
	assert.Empty(t, eng.Describes())
}

func TestProber_RequiresChannel(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestResult_NamesIsACopy(t *testing.T) {
	result := NewResult("obj-1", []string{"is-magma", "is-associative"})

	names := result.Names()
	names[0] = "mutated"

	assert.Equal(t, []string{"is-associative", "is-magma"}, result.Names())
}

func TestResult_DeduplicatesIdentifiers(t *testing.T) {
	result := NewResult("obj-1", []string{"is-magma", "is-magma", "is-finite"})

	assert.Equal(t, 2, result.Len())
	assert.Equal(t, []string{"is-finite", "is-magma"}, result.Names())
}

func TestProber_RecordsMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	eng := enginetest.New()
	ref := eng.NewObject("is-magma")
	bad := engine.Ref("missing")

	prober, err := New(eng, WithMetrics(registry.CoreMetrics()))
	require.NoError(t, err)

	_, err = prober.Probe(context.Background(), ref)
	require.NoError(t, err)
	_, err = prober.Probe(context.Background(), bad)
	require.Error(t, err)

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != "semalign_probe_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, total, "both probe outcomes should be counted")
}
