package annotation

import (
	"fmt"
	"sort"
	"sync"

	"github.com/c360/semalign/errors"
)

// Annotation aligns one abstract host operation with the engine
// operation that implements it. Category and Operation identify the
// declaration being bound; External is the engine-side name.
//
// Theory optionally records the neutral mathematical theory the
// operation instantiates and Variant disambiguates structure carried
// through several theories at once (an additive and a multiplicative
// monoid on the same object). Both are carried metadata: binding never
// requires them.
type Annotation struct {
	Category  string
	Operation string
	External  string
	Theory    string
	Variant   string
}

// Key returns the registry key in "category.operation" form
func (a Annotation) Key() string {
	return fmt.Sprintf("%s.%s", a.Category, a.Operation)
}

// Option is a functional option for annotation registration.
type Option func(*Annotation)

// WithTheory tags the annotation with the neutral theory operation it
// instantiates, such as "Magma.combine" or "NeutralElement.one".
func WithTheory(theory string) Option {
	return func(a *Annotation) {
		a.Theory = theory
	}
}

// WithVariant disambiguates annotations whose category reaches the
// same theory twice, such as "additive" against "multiplicative".
func WithVariant(variant string) Option {
	return func(a *Annotation) {
		a.Variant = variant
	}
}

type key struct {
	category  string
	operation string
}

// Registry stores annotations keyed by (category, operation). It is
// deliberately lattice-agnostic: Lookup answers for the exact category
// only, and walking ancestors for the most specific binding is the
// adapter synthesizer's job.
//
// The registry is populated during initialization and read-mostly
// afterwards; all methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[key]Annotation
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[key]Annotation),
	}
}

// Register binds (category, operation) to an external engine name.
//
// Registering the same binding again is idempotent and keeps the first
// registration's metadata. Registering a different external name for an
// already bound operation fails with DuplicateAnnotationError: silent
// overwrites would let one alignment document shadow another.
func (r *Registry) Register(category, operation, external string, opts ...Option) error {
	if category == "" || operation == "" || external == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Register",
			fmt.Sprintf("registering %q.%q -> %q with empty field", category, operation, external))
	}

	a := Annotation{
		Category:  category,
		Operation: operation,
		External:  external,
	}
	for _, opt := range opts {
		opt(&a)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{category: category, operation: operation}
	if existing, ok := r.entries[k]; ok {
		if existing.External == external {
			return nil
		}
		return &errors.DuplicateAnnotationError{
			Category:  category,
			Operation: operation,
			Existing:  existing.External,
			Proposed:  external,
		}
	}

	r.entries[k] = a
	return nil
}

// Lookup returns the annotation for exactly (category, operation).
// A miss is ErrAnnotationNotFound; the caller decides whether to
// continue walking ancestors.
func (r *Registry) Lookup(category, operation string) (Annotation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.entries[key{category: category, operation: operation}]
	if !ok {
		return Annotation{}, errors.WrapInvalid(errors.ErrAnnotationNotFound, "Registry", "Lookup",
			fmt.Sprintf("looking up %q.%q", category, operation))
	}
	return a, nil
}

// Has reports whether (category, operation) is bound
func (r *Registry) Has(category, operation string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key{category: category, operation: operation}]
	return ok
}

// Len returns the number of registered annotations
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns all annotations sorted by category then operation
func (r *Registry) Snapshot() []Annotation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Annotation, 0, len(r.entries))
	for _, a := range r.entries {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Operation < out[j].Operation
	})
	return out
}

// Clear removes every annotation. This is primarily useful for testing.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[key]Annotation)
}
