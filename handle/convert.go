package handle

import (
	"fmt"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/errors"
)

// toEngineValue converts one host argument to an engine value. Handles
// unwrap to their refs, recursively through slices, so the engine only
// ever sees references it minted itself.
func toEngineValue(arg any) (engine.Value, error) {
	switch v := arg.(type) {
	case nil:
		return engine.Nil(), nil
	case *Handle:
		if v == nil {
			return engine.Nil(), nil
		}
		return engine.NewRef(v.ref), nil
	case engine.Value:
		return v, nil
	case engine.Ref:
		return engine.NewRef(v), nil
	case bool:
		return engine.NewBool(v), nil
	case int:
		return engine.NewInt(int64(v)), nil
	case int32:
		return engine.NewInt(int64(v)), nil
	case int64:
		return engine.NewInt(v), nil
	case float32:
		return engine.NewFloat(float64(v)), nil
	case float64:
		return engine.NewFloat(v), nil
	case string:
		return engine.NewString(v), nil
	case []*Handle:
		elems := make([]engine.Value, len(v))
		for i, h := range v {
			if h == nil {
				elems[i] = engine.Nil()
				continue
			}
			elems[i] = engine.NewRef(h.ref)
		}
		return engine.NewList(elems...), nil
	case []engine.Value:
		return engine.NewList(v...), nil
	case []any:
		elems := make([]engine.Value, len(v))
		for i, e := range v {
			ev, err := toEngineValue(e)
			if err != nil {
				return engine.Nil(), err
			}
			elems[i] = ev
		}
		return engine.NewList(elems...), nil
	default:
		return engine.Nil(), errors.WrapInvalid(errors.ErrBadArgument,
			"Handle", "Call", fmt.Sprintf("unsupported argument type %T", arg))
	}
}

// toEngineArgs converts a host argument list, prepending the receiver
func toEngineArgs(receiver engine.Ref, args []any) ([]engine.Value, error) {
	out := make([]engine.Value, 0, len(args)+1)
	out = append(out, engine.NewRef(receiver))
	for _, arg := range args {
		v, err := toEngineValue(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
