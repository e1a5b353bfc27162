package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semalign/errors"
)

func TestValue_Kinds(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind Kind
	}{
		{"nil", Nil(), KindNil},
		{"ref", NewRef("obj-1"), KindRef},
		{"bool", NewBool(true), KindBool},
		{"int", NewInt(42), KindInt},
		{"float", NewFloat(2.5), KindFloat},
		{"string", NewString("hello"), KindString},
		{"list", NewList(NewInt(1), NewInt(2)), KindList},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.kind, test.v.Kind())
		})
	}

	assert.Equal(t, Ref("obj-1"), NewRef("obj-1").Ref())
	assert.True(t, NewBool(true).Bool())
	assert.Equal(t, int64(42), NewInt(42).Int())
	assert.Equal(t, 2.5, NewFloat(2.5).Float())
	assert.Equal(t, "hello", NewString("hello").Str())
	assert.Len(t, NewList(NewInt(1), NewInt(2)).List(), 2)
	assert.True(t, Nil().IsNil())
	assert.True(t, NewRef("x").IsRef())
}

func TestValue_NumericCoercion(t *testing.T) {
	assert.Equal(t, int64(3), NewFloat(3.7).Int())
	assert.Equal(t, 42.0, NewInt(42).Float())

	// Mismatched kinds yield zero values, never panics
	assert.Equal(t, int64(0), NewString("42").Int())
	assert.Equal(t, "", NewInt(42).Str())
	assert.Nil(t, NewInt(42).List())
	assert.Equal(t, Ref(""), NewBool(true).Ref())
}

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Value
		equal bool
	}{
		{"nils", Nil(), Nil(), true},
		{"same refs", NewRef("a"), NewRef("a"), true},
		{"different refs", NewRef("a"), NewRef("b"), false},
		{"kind mismatch", NewInt(1), NewFloat(1), false},
		{"nested lists", NewList(NewInt(1), NewList(NewRef("x"))), NewList(NewInt(1), NewList(NewRef("x"))), true},
		{"list length", NewList(NewInt(1)), NewList(NewInt(1), NewInt(2)), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.equal, test.a.Equal(test.b))
		})
	}
}

func TestValue_WireEncoding(t *testing.T) {
	// A call result mixing every kind the transports exchange
	original := NewList(
		NewRef("grp-7"),
		NewBool(false),
		NewInt(-3),
		NewFloat(0.5),
		NewString("generator"),
		Nil(),
		NewList(),
	)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Value
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equal(decoded), "decoded %s, want %s", decoded, original)
}

func TestValue_UnmarshalRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown kind", `{"kind":"matrix"}`},
		{"bool missing payload", `{"kind":"bool"}`},
		{"int missing payload", `{"kind":"int"}`},
		{"not an object", `"just a string"`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var v Value
			err := json.Unmarshal([]byte(test.data), &v)
			require.Error(t, err)
		})
	}
}

func TestValue_String(t *testing.T) {
	v := NewList(NewRef("x"), NewInt(2), NewString("a"))
	assert.Equal(t, `[ref(x), 2, "a"]`, v.String())
	assert.Equal(t, "nil", Nil().String())
}

func TestValue_UnmarshalErrorClass(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`{"kind":"matrix"}`), &v)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}
