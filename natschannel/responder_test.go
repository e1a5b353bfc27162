package natschannel

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/enginetest"
	"github.com/c360/semalign/errors"
)

// describeCallOnly hides the test engine's Eval capability
type describeCallOnly struct {
	eng *enginetest.Engine
}

func (c describeCallOnly) Describe(ctx context.Context, ref engine.Ref) ([]string, error) {
	return c.eng.Describe(ctx, ref)
}

func (c describeCallOnly) Call(ctx context.Context, op string, args []engine.Value) (engine.Value, error) {
	return c.eng.Call(ctx, op, args)
}

func newTestResponder(t *testing.T, ch engine.Channel) *Responder {
	t.Helper()
	r, err := NewResponder(DefaultConfig("nats://localhost:4222"), ch)
	require.NoError(t, err)
	return r
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestNewResponder_Validation(t *testing.T) {
	_, err := NewResponder(Config{}, enginetest.New())
	require.Error(t, err)

	_, err = NewResponder(DefaultConfig("nats://localhost:4222"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
}

func TestResponder_Describe(t *testing.T) {
	eng := enginetest.New()
	eng.AddObject("X", "is-magma", "is-associative")
	r := newTestResponder(t, eng)

	resp := r.describe(context.Background(), marshal(t, describeRequest{Ref: "X"}))
	assert.Empty(t, resp.Error)
	assert.Equal(t, []string{"is-magma", "is-associative"}, resp.Identifiers)
}

func TestResponder_DescribeUnknownRef(t *testing.T) {
	r := newTestResponder(t, enginetest.New())

	resp := r.describe(context.Background(), marshal(t, describeRequest{Ref: "ghost"}))
	assert.Empty(t, resp.Identifiers)
	assert.Contains(t, resp.Error, `no object with reference "ghost"`)
}

func TestResponder_Call(t *testing.T) {
	eng := enginetest.New()
	eng.SetOpResult("Product", engine.NewRef("XY"))
	r := newTestResponder(t, eng)

	req := callRequest{Op: "Product", Args: []engine.Value{engine.NewRef("X"), engine.NewRef("Y")}}
	resp := r.call(context.Background(), marshal(t, req))
	assert.Empty(t, resp.Error)
	assert.True(t, resp.Result.Equal(engine.NewRef("XY")))

	calls := eng.CallsTo("Product")
	require.Len(t, calls, 1)
	assert.Equal(t, []engine.Value{engine.NewRef("X"), engine.NewRef("Y")}, calls[0].Args)
}

func TestResponder_CallCarriesDiagnosticVerbatim(t *testing.T) {
	const diag = "Error, usage: Size(<obj>)"
	eng := enginetest.New()
	eng.FailOp("Size", diag)
	r := newTestResponder(t, eng)

	resp := r.call(context.Background(), marshal(t, callRequest{Op: "Size"}))
	assert.Equal(t, diag, resp.Error)
}

func TestResponder_Eval(t *testing.T) {
	eng := enginetest.New()
	eng.SetEval("Size(SymmetricGroup(5))", engine.NewInt(120))
	r := newTestResponder(t, eng)

	resp := r.eval(context.Background(), marshal(t, evalRequest{Code: "Size(SymmetricGroup(5))"}))
	assert.Empty(t, resp.Error)
	assert.True(t, resp.Result.Equal(engine.NewInt(120)))
}

func TestResponder_EvalWithoutEvaluator(t *testing.T) {
	eng := enginetest.New()
	r := newTestResponder(t, describeCallOnly{eng: eng})

	resp := r.eval(context.Background(), marshal(t, evalRequest{Code: "1+1"}))
	assert.Equal(t, errors.ErrNotEvaluator.Error(), resp.Error)
	assert.Empty(t, eng.Calls())
}

func TestResponder_MalformedRequests(t *testing.T) {
	r := newTestResponder(t, enginetest.New())
	ctx := context.Background()

	assert.Contains(t, r.describe(ctx, []byte("{broken")).Error, "malformed describe request")
	assert.Contains(t, r.call(ctx, []byte("{broken")).Error, "malformed call request")
	assert.Contains(t, r.eval(ctx, []byte("{broken")).Error, "malformed eval request")
}
