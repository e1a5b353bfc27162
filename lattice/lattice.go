package lattice

import (
	"fmt"
	"sort"
	"sync"

	"github.com/c360/semalign/errors"
)

// ResultKind declares how adapters wrap the engine's result for an
// operation.
type ResultKind int

const (
	// ResultHandle re-enters the factory so the result is classified
	// and wrapped as a new handle
	ResultHandle ResultKind = iota
	// ResultValue converts the engine value directly to a host value
	// with no classification
	ResultValue
	// ResultHandleList wraps each element of a list result as a handle
	ResultHandleList
	// ResultIterator wraps the result in a cursor driving the engine's
	// iterator protocol
	ResultIterator
)

// String returns the string representation of ResultKind
func (k ResultKind) String() string {
	switch k {
	case ResultHandle:
		return "handle"
	case ResultValue:
		return "value"
	case ResultHandleList:
		return "handle-list"
	case ResultIterator:
		return "iterator"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseResultKind converts the string form used in alignment documents
func ParseResultKind(s string) (ResultKind, error) {
	switch s {
	case "", "handle":
		return ResultHandle, nil
	case "value":
		return ResultValue, nil
	case "handle-list":
		return ResultHandleList, nil
	case "iterator":
		return ResultIterator, nil
	default:
		return ResultHandle, errors.WrapInvalid(errors.ErrInvalidConfig, "Lattice", "ParseResultKind",
			fmt.Sprintf("parsing result kind %q", s))
	}
}

// Operation declares an abstract operation a category obligates. Arity
// counts every argument including the receiver, so a binary product has
// arity 2 and a nullary constant such as one() has arity 1.
type Operation struct {
	Name  string
	Arity int
	Kind  ResultKind
}

// Category is one node of the classification lattice.
//
// Supers name the direct super-categories; the relation forms a DAG,
// never a tree, since a category may specialize several others
// (a group is both a monoid and an inverse-magma). Properties is the
// external property correspondence: the identifiers the engine must
// report for this category to be a candidate. An empty correspondence
// makes the category a candidate for every object.
type Category struct {
	Name       string
	Supers     []string
	Operations []Operation
	Properties []string
}

// Declared pairs an operation with the category that declares it.
// Inherited operations keep their declaring category, which is what an
// unimplemented-operation report names.
type Declared struct {
	Op       Operation
	Category string
}

// Lattice holds the category DAG. Categories are added during an
// initialization phase and frozen by Validate; afterwards the lattice
// is read-only and safe for unsynchronized concurrent reads.
type Lattice struct {
	mu         sync.RWMutex
	categories map[string]Category
	validated  bool
	roots      []string

	// computed at Validate
	ancestors map[string][]string
	effective map[string][]Declared
}

// New creates an empty lattice
func New() *Lattice {
	return &Lattice{
		categories: make(map[string]Category),
	}
}

// Add registers a category. It fails on duplicate names, on empty
// names, and after Validate has frozen the lattice.
func (l *Lattice) Add(c Category) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.validated {
		return errors.WrapFatal(errors.ErrInvalidConfig, "Lattice", "Add",
			"adding category after validation")
	}
	if c.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Lattice", "Add",
			"adding category with empty name")
	}
	if _, exists := l.categories[c.Name]; exists {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Lattice", "Add",
			fmt.Sprintf("adding duplicate category %q", c.Name))
	}
	seen := make(map[string]bool, len(c.Operations))
	for _, op := range c.Operations {
		if op.Name == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Lattice", "Add",
				fmt.Sprintf("category %q declares operation with empty name", c.Name))
		}
		if seen[op.Name] {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Lattice", "Add",
				fmt.Sprintf("category %q declares operation %q twice", c.Name, op.Name))
		}
		seen[op.Name] = true
	}

	l.categories[c.Name] = copyCategory(c)
	return nil
}

// Validate checks the structural invariants and freezes the lattice:
// every super must exist, the super relation must be acyclic, and at
// least one category with an empty property correspondence must be an
// ancestor of every other category. Violations surface as
// ClassificationError since they make classification impossible.
func (l *Lattice) Validate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.validated {
		return nil
	}
	if len(l.categories) == 0 {
		return &errors.ClassificationError{Reason: "lattice has no categories"}
	}

	// Supers must exist
	for name, c := range l.categories {
		for _, super := range c.Supers {
			if _, ok := l.categories[super]; !ok {
				return &errors.ClassificationError{
					Reason: fmt.Sprintf("category %q references unknown super %q", name, super),
				}
			}
		}
	}

	if cycle := l.findCycle(); cycle != "" {
		return &errors.ClassificationError{
			Reason: fmt.Sprintf("super relation has a cycle through %q", cycle),
		}
	}

	// Precompute ancestor chains and effective operation sets
	l.ancestors = make(map[string][]string, len(l.categories))
	l.effective = make(map[string][]Declared, len(l.categories))
	for name := range l.categories {
		l.ancestors[name] = l.walkAncestors(name)
	}
	for name := range l.categories {
		l.effective[name] = l.collectOperations(name)
	}

	// Universal root guarantee: some empty-correspondence category is
	// an ancestor of (or is) every category
	total := len(l.categories)
	for name, c := range l.categories {
		if len(c.Properties) != 0 {
			continue
		}
		reach := 1
		for other := range l.categories {
			if other == name {
				continue
			}
			for _, anc := range l.ancestors[other] {
				if anc == name {
					reach++
					break
				}
			}
		}
		if reach == total {
			l.roots = append(l.roots, name)
		}
	}
	if len(l.roots) == 0 {
		l.ancestors = nil
		l.effective = nil
		return &errors.ClassificationError{
			Reason: "no universal root category with empty property correspondence",
		}
	}
	sort.Strings(l.roots)

	l.validated = true
	return nil
}

// findCycle runs an iterative three-color DFS over the super relation.
// Returns the name of a category on a cycle, or "".
func (l *Lattice) findCycle() string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(l.categories))

	names := make([]string, 0, len(l.categories))
	for name := range l.categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var visit func(string) string
	visit = func(name string) string {
		color[name] = gray
		for _, super := range l.categories[name].Supers {
			switch color[super] {
			case gray:
				return super
			case white:
				if hit := visit(super); hit != "" {
					return hit
				}
			}
		}
		color[name] = black
		return ""
	}

	for _, name := range names {
		if color[name] == white {
			if hit := visit(name); hit != "" {
				return hit
			}
		}
	}
	return ""
}

// walkAncestors returns the strict ancestors of name in breadth-first
// order, nearest first. The order is stable: supers are visited in
// declaration order level by level.
func (l *Lattice) walkAncestors(name string) []string {
	var out []string
	seen := map[string]bool{name: true}
	queue := append([]string(nil), l.categories[name].Supers...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		seen[current] = true
		out = append(out, current)
		queue = append(queue, l.categories[current].Supers...)
	}
	return out
}

// collectOperations returns declared plus inherited operations for
// name, nearest declaration first. When an operation name appears at
// several levels the nearest declaration wins.
func (l *Lattice) collectOperations(name string) []Declared {
	var out []Declared
	seen := make(map[string]bool)

	appendOps := func(cat string) {
		c := l.categories[cat]
		for _, op := range c.Operations {
			if seen[op.Name] {
				continue
			}
			seen[op.Name] = true
			out = append(out, Declared{Op: op, Category: cat})
		}
	}

	appendOps(name)
	for _, anc := range l.ancestors[name] {
		appendOps(anc)
	}
	return out
}

// Validated reports whether the lattice has been frozen
func (l *Lattice) Validated() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.validated
}

// Get returns a copy of the named category
func (l *Lattice) Get(name string) (Category, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, ok := l.categories[name]
	if !ok {
		return Category{}, errors.WrapInvalid(errors.ErrCategoryNotFound, "Lattice", "Get",
			fmt.Sprintf("looking up category %q", name))
	}
	return copyCategory(c), nil
}

// Has reports whether a category is registered
func (l *Lattice) Has(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.categories[name]
	return ok
}

// Len returns the number of registered categories
func (l *Lattice) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.categories)
}

// Categories returns all category names in sorted order
func (l *Lattice) Categories() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.categories))
	for name := range l.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Root returns the universal root. When several empty-correspondence
// categories reach everything, the lexicographically first is the root.
func (l *Lattice) Root() (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.validated {
		return "", errors.WrapFatal(errors.ErrInvalidConfig, "Lattice", "Root",
			"reading root before validation")
	}
	return l.roots[0], nil
}

// Ancestors returns the strict ancestors of name, nearest first
func (l *Lattice) Ancestors(name string) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.validated {
		return nil, errors.WrapFatal(errors.ErrInvalidConfig, "Lattice", "Ancestors",
			"walking ancestors before validation")
	}
	chain, ok := l.ancestors[name]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrCategoryNotFound, "Lattice", "Ancestors",
			fmt.Sprintf("walking ancestors of %q", name))
	}
	return append([]string(nil), chain...), nil
}

// SelfAndAncestors returns name followed by its strict ancestors,
// nearest first. This is the specificity order annotation resolution
// walks.
func (l *Lattice) SelfAndAncestors(name string) ([]string, error) {
	chain, err := l.Ancestors(name)
	if err != nil {
		return nil, err
	}
	return append([]string{name}, chain...), nil
}

// IsAncestor reports whether ancestor is a strict ancestor of name
func (l *Lattice) IsAncestor(ancestor, name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.validated {
		return false
	}
	for _, anc := range l.ancestors[name] {
		if anc == ancestor {
			return true
		}
	}
	return false
}

// EffectiveOperations returns the operations name obligates: its own
// declarations plus every inherited one, nearest declaration first.
// Inheritance here is structural, a statement of obligation; whether an
// operation is actually bound is the annotation registry's concern.
func (l *Lattice) EffectiveOperations(name string) ([]Declared, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.validated {
		return nil, errors.WrapFatal(errors.ErrInvalidConfig, "Lattice", "EffectiveOperations",
			"collecting operations before validation")
	}
	ops, ok := l.effective[name]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrCategoryNotFound, "Lattice", "EffectiveOperations",
			fmt.Sprintf("collecting operations of %q", name))
	}
	return append([]Declared(nil), ops...), nil
}

func copyCategory(c Category) Category {
	out := Category{Name: c.Name}
	if len(c.Supers) > 0 {
		out.Supers = append([]string(nil), c.Supers...)
	}
	if len(c.Operations) > 0 {
		out.Operations = append([]Operation(nil), c.Operations...)
	}
	if len(c.Properties) > 0 {
		out.Properties = append([]string(nil), c.Properties...)
	}
	return out
}
