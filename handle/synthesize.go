package handle

import (
	stderrors "errors"

	"github.com/c360/semalign/errors"
	"github.com/c360/semalign/lattice"
)

// walkOrder computes the specificity order for annotation resolution:
// each matched category followed by its ancestors, nearest first,
// merged across the matched set without repeats. A descendant's
// annotation always precedes its ancestors' in this order.
func (f *Factory) walkOrder(matched []lattice.Category) ([]string, error) {
	seen := make(map[string]struct{})
	var order []string
	for _, m := range matched {
		walk, err := f.lattice.SelfAndAncestors(m.Name)
		if err != nil {
			return nil, err
		}
		for _, name := range walk {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			order = append(order, name)
		}
	}
	return order, nil
}

// newOpTable synthesizes the operation table for a matched category
// set. Synthesis is static: it reads the lattice and the registry and
// issues no engine traffic. Operations with no annotation anywhere on
// the walk stay in the table unbound and fail per call, so one missing
// alignment never blocks the rest of the handle.
func (f *Factory) newOpTable(matched []lattice.Category) (map[string]boundOp, error) {
	order, err := f.walkOrder(matched)
	if err != nil {
		return nil, err
	}

	table := make(map[string]boundOp)
	for _, m := range matched {
		declared, err := f.lattice.EffectiveOperations(m.Name)
		if err != nil {
			return nil, err
		}
		for _, d := range declared {
			if _, ok := table[d.Op.Name]; ok {
				// nearest declaration already collected
				continue
			}

			b := boundOp{op: d.Op, declaredBy: d.Category}
			for _, cat := range order {
				ann, err := f.registry.Lookup(cat, d.Op.Name)
				if err != nil {
					if stderrors.Is(err, errors.ErrAnnotationNotFound) {
						continue
					}
					return nil, err
				}
				b.external = ann.External
				b.theory = ann.Theory
				b.variant = ann.Variant
				b.boundAt = cat
				break
			}
			table[d.Op.Name] = b
		}
	}
	return table, nil
}
