package engine

import (
	"context"
)

// Ref is an opaque identifier for an object living inside the external
// computation engine. The engine owns the object's lifetime; a Ref is
// only a name for it and carries no host-side resources.
type Ref string

// String returns the raw identifier
func (r Ref) String() string {
	return string(r)
}

// IsZero reports whether the ref is empty
func (r Ref) IsZero() bool {
	return r == ""
}

// Channel is the single logical connection to the external computation
// engine. The binding pipeline treats the engine as a black box behind
// this interface: one query form for classification evidence and one
// call form for operation invocation.
//
// Implementations state their own concurrency guarantees. Both shipped
// transports (natschannel, wschannel) are safe for concurrent use, which
// the parallel construction paths require.
type Channel interface {
	// Describe returns the property and category identifiers the engine
	// positively confirms for the object. Identifiers the engine cannot
	// answer are simply absent: absence is never an error and never a
	// negative fact. A failure raised by the engine itself surfaces as
	// an ExternalCallError carrying the engine's diagnostic verbatim.
	Describe(ctx context.Context, ref Ref) ([]string, error)

	// Call invokes a named engine operation. Adapters pass the receiver
	// ref as the first argument. Engine-raised failures surface as
	// ExternalCallError; transport failures as classified transient
	// errors.
	Call(ctx context.Context, op string, args []Value) (Value, error)
}

// Evaluator is implemented by channels that can evaluate source text in
// the engine's own language and return the resulting value. It is an
// optional capability; Factory.Eval rejects channels without it.
type Evaluator interface {
	Eval(ctx context.Context, code string) (Value, error)
}
