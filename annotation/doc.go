// Package annotation declares which engine operation implements each
// abstract host operation.
//
// # Overview
//
// An annotation is one row of the alignment table: host category plus
// abstract operation on the left, engine operation name on the right,
// optionally tagged with the neutral theory operation both instantiate.
// The registry holds those rows and nothing else; no lattice knowledge,
// no closures, no engine I/O.
//
// Alignments enter through explicit Register calls or the alignment
// document loader. Nothing is patched into host types at import time,
// so the complete mapping for a deployment is visible in one place:
//
//	reg := annotation.NewRegistry()
//	err := reg.Register("magma", "combine", "Product",
//	    annotation.WithTheory("Magma.combine"))
//
// # Conflicts
//
// Re-registering an identical binding is idempotent, which lets several
// alignment documents share common rows. Binding an already bound
// operation to a different external name fails with
// DuplicateAnnotationError naming both sides; annotations are never
// silently overwritten.
//
// # Lookup semantics
//
// Lookup is exact: asking for ("semigroup", "combine") does not find a
// binding declared on "magma". The specificity walk, descendant before
// ancestor, lives in the adapter synthesizer where the matched
// categories and their ancestor chains are known.
package annotation
