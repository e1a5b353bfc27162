// Package alignment loads the YAML documents that configure a
// deployment: the category lattice and the annotation registry, in one
// file.
//
// A document declares categories with their super-categories, property
// correspondences, and abstract operations, then annotates operations
// with the engine names that implement them:
//
//	version: 1
//	categories:
//	  - name: set
//	    operations:
//	      - {name: cardinality, arity: 1, result: value}
//	  - name: magma
//	    supers: [set]
//	    properties: [is-magma]
//	    operations:
//	      - {name: combine, arity: 2}
//	annotations:
//	  - {category: set, operation: cardinality, external: Size}
//	  - {category: magma, operation: combine, external: Product, theory: magma}
//
// Parse validates the document against an embedded JSON schema before
// decoding, so malformed documents are rejected with field-level
// diagnostics instead of surfacing later as classification bugs.
// Build then compiles the document into a validated lattice.Lattice and
// a populated annotation.Registry, which is everything a handle.Factory
// needs.
//
// Document problems are configuration problems: every failure in this
// package is classified fatal, since running with a partly loaded
// alignment silently misclassifies objects.
package alignment
