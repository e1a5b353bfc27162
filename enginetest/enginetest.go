// Package enginetest provides a scriptable in-memory engine for
// exercising the binding pipeline without a real computation system.
//
// Tests declare objects with the identifiers Describe should confirm,
// script operations as plain Go functions, inject failures, and assert
// on the exact calls the pipeline issued:
//
//	eng := enginetest.New()
//	ref := eng.NewObject("is-magma", "is-associative")
//	eng.SetOpResult("Size", engine.NewInt(8))
//
//	h, err := factory.New(ctx, ref)
//	...
//	require.Equal(t, 1, len(eng.CallsTo("Size")))
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/errors"
)

// OpFunc implements a scripted engine operation. Adapters prepend the
// receiver ref, so args[0] is the receiver for operation calls.
type OpFunc func(args []engine.Value) (engine.Value, error)

// Call records one interaction with the engine.
type Call struct {
	Kind string // "describe", "call" or "eval"
	Op   string
	Ref  engine.Ref
	Args []engine.Value
}

// Engine is an in-memory engine.Channel and engine.Evaluator. It is
// safe for concurrent use.
type Engine struct {
	mu          sync.Mutex
	objects     map[engine.Ref][]string
	ops         map[string]OpFunc
	evals       map[string]engine.Value
	describeErr map[engine.Ref]string
	opErr       map[string]string
	calls       []Call
	nextRef     int
}

// New creates an empty engine
func New() *Engine {
	return &Engine{
		objects:     make(map[engine.Ref][]string),
		ops:         make(map[string]OpFunc),
		evals:       make(map[string]engine.Value),
		describeErr: make(map[engine.Ref]string),
		opErr:       make(map[string]string),
	}
}

// AddObject declares an object under an explicit ref with the
// identifiers Describe confirms for it
func (e *Engine) AddObject(ref engine.Ref, identifiers ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.objects[ref] = append([]string(nil), identifiers...)
}

// NewObject declares an object under a generated ref
func (e *Engine) NewObject(identifiers ...string) engine.Ref {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextRef++
	ref := engine.Ref(fmt.Sprintf("obj-%d", e.nextRef))
	e.objects[ref] = append([]string(nil), identifiers...)
	return ref
}

// SetOp scripts an operation
func (e *Engine) SetOp(name string, fn OpFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ops[name] = fn
}

// SetOpResult scripts an operation that always returns v
func (e *Engine) SetOpResult(name string, v engine.Value) {
	e.SetOp(name, func([]engine.Value) (engine.Value, error) {
		return v, nil
	})
}

// FailOp makes an operation raise an engine error with the given
// diagnostic
func (e *Engine) FailOp(name, diagnostic string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opErr[name] = diagnostic
}

// FailDescribe makes Describe raise an engine error for ref
func (e *Engine) FailDescribe(ref engine.Ref, diagnostic string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.describeErr[ref] = diagnostic
}

// SetEval scripts an eval result keyed by exact source text
func (e *Engine) SetEval(code string, v engine.Value) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evals[code] = v
}

// ClearFailures removes every injected describe and operation failure
func (e *Engine) ClearFailures() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.describeErr = make(map[engine.Ref]string)
	e.opErr = make(map[string]string)
}

// Describe implements engine.Channel
func (e *Engine) Describe(ctx context.Context, ref engine.Ref) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, Call{Kind: "describe", Ref: ref})

	if diag, ok := e.describeErr[ref]; ok {
		return nil, &errors.ExternalCallError{Operation: "describe", Diagnostic: diag}
	}
	identifiers, ok := e.objects[ref]
	if !ok {
		return nil, &errors.ExternalCallError{
			Operation:  "describe",
			Diagnostic: fmt.Sprintf("Error, there is no object with reference %q", ref),
		}
	}
	return append([]string(nil), identifiers...), nil
}

// Call implements engine.Channel
func (e *Engine) Call(ctx context.Context, op string, args []engine.Value) (engine.Value, error) {
	if err := ctx.Err(); err != nil {
		return engine.Nil(), err
	}

	e.mu.Lock()
	rec := Call{Kind: "call", Op: op, Args: append([]engine.Value(nil), args...)}
	if len(args) > 0 && args[0].IsRef() {
		rec.Ref = args[0].Ref()
	}
	e.calls = append(e.calls, rec)

	if diag, ok := e.opErr[op]; ok {
		e.mu.Unlock()
		return engine.Nil(), &errors.ExternalCallError{Operation: op, Diagnostic: diag}
	}
	fn, ok := e.ops[op]
	e.mu.Unlock()

	if !ok {
		return engine.Nil(), &errors.ExternalCallError{
			Operation:  op,
			Diagnostic: "Error, no method found! For debugging hints type ?Recovery from NoMethodFound",
		}
	}
	return fn(args)
}

// Eval implements engine.Evaluator
func (e *Engine) Eval(ctx context.Context, code string) (engine.Value, error) {
	if err := ctx.Err(); err != nil {
		return engine.Nil(), err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, Call{Kind: "eval", Op: code})

	v, ok := e.evals[code]
	if !ok {
		return engine.Nil(), &errors.ExternalCallError{
			Operation:  "eval",
			Diagnostic: fmt.Sprintf("Error, syntax error in %q", code),
		}
	}
	return v, nil
}

// Calls returns every recorded interaction in order
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// CallsTo returns the recorded operation calls for one engine op
func (e *Engine) CallsTo(op string) []Call {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []Call
	for _, c := range e.calls {
		if c.Kind == "call" && c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Describes returns the recorded describe queries
func (e *Engine) Describes() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []Call
	for _, c := range e.calls {
		if c.Kind == "describe" {
			out = append(out, c)
		}
	}
	return out
}

// LastCall returns the most recent interaction, if any
func (e *Engine) LastCall() (Call, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.calls) == 0 {
		return Call{}, false
	}
	return e.calls[len(e.calls)-1], true
}

// ResetCalls clears the recorded interactions but keeps the script
func (e *Engine) ResetCalls() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}
