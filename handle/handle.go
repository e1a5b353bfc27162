package handle

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/errors"
	"github.com/c360/semalign/lattice"
)

// boundOp is one entry of a handle's synthesized operation table.
// external is empty when no annotation resolved anywhere on the
// specificity walk; such entries fail per call instead of blocking
// synthesis.
type boundOp struct {
	op         lattice.Operation
	declaredBy string // nearest declaring category
	external   string // engine operation name, "" if unresolved
	theory     string
	variant    string
	boundAt    string // category whose annotation supplied the binding
}

// Handle pairs an engine reference with the category set it matched and
// the operation table synthesized for that set. A Handle is immutable
// after construction and safe for concurrent use.
type Handle struct {
	ref        engine.Ref
	id         string
	categories []lattice.Category
	ops        map[string]boundOp
	factory    *Factory
}

// Ref returns the engine reference this handle wraps
func (h *Handle) Ref() engine.Ref {
	return h.ref
}

// ID returns the handle's unique identifier, used in logs and traces
func (h *Handle) ID() string {
	return h.id
}

// Categories returns the matched categories in name order. For a
// conjunction classification the slice holds every incomparable match.
func (h *Handle) Categories() []lattice.Category {
	return append([]lattice.Category(nil), h.categories...)
}

// CategoryNames returns the matched category names in name order
func (h *Handle) CategoryNames() []string {
	names := make([]string, len(h.categories))
	for i, c := range h.categories {
		names[i] = c.Name
	}
	return names
}

// Operations returns the names of every operation the matched
// categories obligate, bound or not, in sorted order
func (h *Handle) Operations() []string {
	names := make([]string, 0, len(h.ops))
	for name := range h.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Can reports whether op is declared and has an external binding.
// Declared operations without a binding exist in the table but fail
// when called.
func (h *Handle) Can(op string) bool {
	b, ok := h.ops[op]
	return ok && b.external != ""
}

// External returns the engine operation name op is bound to, or false
// when op is undeclared or unbound
func (h *Handle) External(op string) (string, bool) {
	b, ok := h.ops[op]
	if !ok || b.external == "" {
		return "", false
	}
	return b.external, true
}

// String returns a compact display form for logs
func (h *Handle) String() string {
	return fmt.Sprintf("handle(%s: %s)", h.ref, strings.Join(h.CategoryNames(), "+"))
}

// Call invokes a bound operation. Arguments are converted to engine
// values with handles unwrapped to their refs, the receiver ref is
// prepended, and exactly one engine call is issued. The result follows
// the operation's declared kind: an engine.Value for value operations,
// a *Handle for handle operations, []*Handle for list operations and an
// *Iterator for iterator operations.
func (h *Handle) Call(ctx context.Context, op string, args ...any) (any, error) {
	b, ok := h.ops[op]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrOperationNotFound, "Handle", "Call",
			fmt.Sprintf("operation %q is not declared by %s", op, strings.Join(h.CategoryNames(), "+")))
	}
	if b.external == "" {
		if h.factory.metrics != nil {
			h.factory.metrics.RecordUnimplementedCall(b.op.Name, b.declaredBy)
		}
		return nil, &errors.UnimplementedOperationError{
			Operation: b.op.Name,
			Category:  b.declaredBy,
		}
	}

	engineArgs, err := toEngineArgs(h.ref, args)
	if err != nil {
		return nil, err
	}
	// Arity 0 leaves the argument count unchecked
	if want := b.op.Arity; want > 0 && len(engineArgs) != want {
		return nil, errors.WrapInvalid(errors.ErrBadArgument, "Handle", "Call",
			fmt.Sprintf("operation %q takes %d arguments including the receiver, got %d",
				op, want, len(engineArgs)))
	}

	start := time.Now()
	result, err := h.factory.channel.Call(ctx, b.external, engineArgs)
	elapsed := time.Since(start)

	if err != nil {
		if h.factory.metrics != nil {
			h.factory.metrics.RecordOperationCall(b.external, "error", elapsed)
		}
		h.factory.logger.Warn("operation call failed",
			"handle", h.id,
			"operation", op,
			"external", b.external,
			"error", err)
		return nil, errors.Wrap(err, "Handle", "Call", fmt.Sprintf("engine operation %s", b.external))
	}

	if h.factory.metrics != nil {
		h.factory.metrics.RecordOperationCall(b.external, "ok", elapsed)
	}
	h.factory.logger.Debug("operation call complete",
		"handle", h.id,
		"operation", op,
		"external", b.external,
		"elapsed", elapsed)

	return h.factory.wrapResult(ctx, b, result)
}

// CallValue invokes a value-kind operation and returns the raw engine
// value
func (h *Handle) CallValue(ctx context.Context, op string, args ...any) (engine.Value, error) {
	res, err := h.Call(ctx, op, args...)
	if err != nil {
		return engine.Nil(), err
	}
	v, ok := res.(engine.Value)
	if !ok {
		return engine.Nil(), errors.WrapInvalid(errors.ErrBadResult, "Handle", "CallValue",
			fmt.Sprintf("operation %q returns %T, not a plain value", op, res))
	}
	return v, nil
}

// CallBool invokes a value-kind operation declared to yield a boolean
func (h *Handle) CallBool(ctx context.Context, op string, args ...any) (bool, error) {
	v, err := h.CallValue(ctx, op, args...)
	if err != nil {
		return false, err
	}
	if v.Kind() != engine.KindBool {
		return false, errors.WrapInvalid(errors.ErrBadResult, "Handle", "CallBool",
			fmt.Sprintf("operation %q returned %s, want bool", op, v.Kind()))
	}
	return v.Bool(), nil
}

// CallInt invokes a value-kind operation declared to yield an integer
func (h *Handle) CallInt(ctx context.Context, op string, args ...any) (int64, error) {
	v, err := h.CallValue(ctx, op, args...)
	if err != nil {
		return 0, err
	}
	if v.Kind() != engine.KindInt && v.Kind() != engine.KindFloat {
		return 0, errors.WrapInvalid(errors.ErrBadResult, "Handle", "CallInt",
			fmt.Sprintf("operation %q returned %s, want int", op, v.Kind()))
	}
	return v.Int(), nil
}

// CallString invokes a value-kind operation declared to yield a string
func (h *Handle) CallString(ctx context.Context, op string, args ...any) (string, error) {
	v, err := h.CallValue(ctx, op, args...)
	if err != nil {
		return "", err
	}
	if v.Kind() != engine.KindString {
		return "", errors.WrapInvalid(errors.ErrBadResult, "Handle", "CallString",
			fmt.Sprintf("operation %q returned %s, want string", op, v.Kind()))
	}
	return v.Str(), nil
}

// CallHandle invokes a handle-kind operation
func (h *Handle) CallHandle(ctx context.Context, op string, args ...any) (*Handle, error) {
	res, err := h.Call(ctx, op, args...)
	if err != nil {
		return nil, err
	}
	out, ok := res.(*Handle)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrBadResult, "Handle", "CallHandle",
			fmt.Sprintf("operation %q returns %T, not a handle", op, res))
	}
	return out, nil
}

// CallHandles invokes a list-kind operation
func (h *Handle) CallHandles(ctx context.Context, op string, args ...any) ([]*Handle, error) {
	res, err := h.Call(ctx, op, args...)
	if err != nil {
		return nil, err
	}
	out, ok := res.([]*Handle)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrBadResult, "Handle", "CallHandles",
			fmt.Sprintf("operation %q returns %T, not a handle list", op, res))
	}
	return out, nil
}

// CallIterator invokes an iterator-kind operation
func (h *Handle) CallIterator(ctx context.Context, op string, args ...any) (*Iterator, error) {
	res, err := h.Call(ctx, op, args...)
	if err != nil {
		return nil, err
	}
	out, ok := res.(*Iterator)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrBadResult, "Handle", "CallIterator",
			fmt.Sprintf("operation %q returns %T, not an iterator", op, res))
	}
	return out, nil
}
