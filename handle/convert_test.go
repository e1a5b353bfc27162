package handle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/errors"
)

func TestToEngineValue(t *testing.T) {
	eng := testEngine(t)
	factory := testFactory(t, eng)
	x, err := factory.New(context.Background(), "X")
	require.NoError(t, err)

	tests := []struct {
		name string
		arg  any
		want engine.Value
	}{
		{"nil", nil, engine.Nil()},
		{"handle unwraps to ref", x, engine.NewRef("X")},
		{"ref", engine.Ref("Y"), engine.NewRef("Y")},
		{"value passes through", engine.NewInt(7), engine.NewInt(7)},
		{"bool", true, engine.NewBool(true)},
		{"int", 5, engine.NewInt(5)},
		{"int64", int64(9), engine.NewInt(9)},
		{"float64", 2.5, engine.NewFloat(2.5)},
		{"string", "abc", engine.NewString("abc")},
		{
			"handle slice",
			[]*Handle{x, x},
			engine.NewList(engine.NewRef("X"), engine.NewRef("X")),
		},
		{
			"mixed slice recurses",
			[]any{1, "a", x},
			engine.NewList(engine.NewInt(1), engine.NewString("a"), engine.NewRef("X")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toEngineValue(tt.arg)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestToEngineValue_Unsupported(t *testing.T) {
	_, err := toEngineValue(struct{ n int }{1})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBadArgument)

	_, err = toEngineValue([]any{1, struct{}{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBadArgument)
}

func TestToEngineArgs_PrependsReceiver(t *testing.T) {
	args, err := toEngineArgs("R", []any{1, "a"})
	require.NoError(t, err)

	assert.Equal(t, []engine.Value{
		engine.NewRef("R"),
		engine.NewInt(1),
		engine.NewString("a"),
	}, args)
}

func TestToEngineValue_NilHandle(t *testing.T) {
	var h *Handle
	got, err := toEngineValue(h)
	require.NoError(t, err)
	assert.True(t, got.IsNil())
}
