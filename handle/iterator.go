package handle

import (
	"context"
	"fmt"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/errors"
)

// Default engine operations driving the iterator protocol
const (
	DefaultIsDoneOp = "IsDoneIterator"
	DefaultNextOp   = "NextIterator"
)

// Iterator is a cursor over an engine iterator object. Unlike handles,
// iterators are stateful on the engine side: Done and Next each issue
// an engine call and Next advances the cursor. Elements come back
// classified, the same as any handle-kind result.
type Iterator struct {
	ref     engine.Ref
	factory *Factory
}

// Ref returns the engine reference of the iterator object
func (it *Iterator) Ref() engine.Ref {
	return it.ref
}

// Done reports whether the iterator is exhausted
func (it *Iterator) Done(ctx context.Context) (bool, error) {
	v, err := it.factory.channel.Call(ctx, it.factory.isDoneOp,
		[]engine.Value{engine.NewRef(it.ref)})
	if err != nil {
		return false, errors.Wrap(err, "Iterator", "Done",
			fmt.Sprintf("engine operation %s", it.factory.isDoneOp))
	}
	if v.Kind() != engine.KindBool {
		return false, errors.WrapInvalid(errors.ErrBadResult, "Iterator", "Done",
			fmt.Sprintf("engine returned %s, want bool", v.Kind()))
	}
	return v.Bool(), nil
}

// Next advances the cursor and classifies the yielded element. Calling
// Next on an exhausted iterator surfaces the engine's own diagnostic.
func (it *Iterator) Next(ctx context.Context) (*Handle, error) {
	v, err := it.factory.channel.Call(ctx, it.factory.nextOp,
		[]engine.Value{engine.NewRef(it.ref)})
	if err != nil {
		return nil, errors.Wrap(err, "Iterator", "Next",
			fmt.Sprintf("engine operation %s", it.factory.nextOp))
	}
	if !v.IsRef() {
		return nil, errors.WrapInvalid(errors.ErrBadResult, "Iterator", "Next",
			fmt.Sprintf("engine returned %s, want ref", v.Kind()))
	}
	return it.factory.New(ctx, v.Ref())
}

// Collect drains up to max elements. Engine iterators may be unbounded,
// so a positive cap is required.
func (it *Iterator) Collect(ctx context.Context, max int) ([]*Handle, error) {
	if max <= 0 {
		return nil, errors.WrapInvalid(errors.ErrBadArgument, "Iterator", "Collect",
			"element cap must be positive")
	}

	var out []*Handle
	for len(out) < max {
		done, err := it.Done(ctx)
		if err != nil {
			return out, err
		}
		if done {
			break
		}
		h, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, h)
	}
	return out, nil
}
