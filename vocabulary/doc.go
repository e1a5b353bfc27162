// Package vocabulary carries the standard algebra vocabulary: canonical
// property identifiers, category names, the standard category lattice
// and its alignment for GAP-style engines.
//
// The constants here are the shared names every deployment agrees on.
// Property identifiers ("is-magma") are what Describe queries return;
// host operation names ("combine") are what callers pass to
// Handle.Call; engine operation names ("Product") are what annotations
// bind to.
//
// # The Standard Lattice
//
//	set
//	├── finite-set ── enumerated-set
//	├── magma
//	│   ├── commutative-magma ──────────────┐
//	│   ├── unital-magma ──┐                │
//	│   └── semigroup ─────┴── monoid ── group ── abelian-group
//	├── additive-magma ── additive-group
//	└── general-mapping
//
//	ring             = semigroup and additive-group, with distributivity
//	commutative-ring = ring and commutative-magma
//	field            = commutative-ring and monoid, with division
//
// set is the universal root with an empty property correspondence.
// The diamond through monoid (both a semigroup and a unital magma), the
// join at abelian-group (a group and a commutative magma) and the ring
// chain spanning the multiplicative and additive branches exercise the
// DAG shape; nothing here is a tree.
//
// # Usage
//
// Most deployments start from the bundled standard:
//
//	lat, reg, err := vocabulary.Standard()
//	if err != nil { ... }
//	factory, err := handle.NewFactory(channel, lat, reg)
//
// Deployments with their own categories either extend a fresh lattice
// with the same constants or load an alignment document instead; see
// the alignment package.
package vocabulary
