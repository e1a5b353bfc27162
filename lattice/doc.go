// Package lattice holds the host category hierarchy and the matcher
// that classifies probed objects into it.
//
// # Overview
//
// Categories form a directed acyclic graph under their super-category
// relation, a join lattice rather than a tree: a category may
// specialize several incomparable others. Each category declares the
// abstract operations it obligates and an external property
// correspondence, the set of identifiers the engine must confirm for
// the category to apply. The hierarchy is data loaded at startup, not
// anything encoded in host language inheritance.
//
// # Lifecycle
//
// Build with Add during initialization, then freeze with Validate:
//
//	lat := lattice.New()
//	lat.Add(lattice.Category{Name: "set"})
//	lat.Add(lattice.Category{
//	    Name:       "magma",
//	    Supers:     []string{"set"},
//	    Properties: []string{"is-magma"},
//	    Operations: []lattice.Operation{{Name: "combine", Arity: 2, Kind: lattice.ResultHandle}},
//	})
//	if err := lat.Validate(); err != nil {
//	    // misconfigured category data, abort startup
//	}
//
// Validate enforces three invariants: every super exists, the relation
// is acyclic, and at least one category with an empty property
// correspondence is an ancestor of every other. That last guarantee is
// what makes every classification succeed; a probe confirming nothing
// still matches the universal root. After Validate the lattice is
// read-only and safe for concurrent readers.
//
// # Matching
//
// Match finds the candidates (property correspondence a subset of the
// confirmed identifiers) and keeps only the maximal ones. Incomparable
// survivors are all returned; classification is their conjunction:
//
//	cats, err := lat.MatchNames("is-magma", "is-associative", "is-finite")
//	// cats: [finite-set semigroup] when neither dominates the other
//
// Matching is monotone: confirming more identifiers never yields a
// strictly less specific classification.
//
// # Operations and inheritance
//
// EffectiveOperations returns a category's own declarations plus every
// inherited one, nearest declaration first. Inheritance is structural:
// it states which operations an object of the category must offer, not
// how they are implemented. Binding an operation to an engine name is
// the annotation registry's concern, and a declared-but-unbound
// operation is a legal state that surfaces per call as
// UnimplementedOperationError.
package lattice
