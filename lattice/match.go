package lattice

import (
	"sort"

	"github.com/c360/semalign/errors"
)

// Evidence is the matcher's view of a probe result: the set of
// property identifiers the engine positively confirmed.
type Evidence interface {
	// Has reports whether an identifier was confirmed
	Has(identifier string) bool
	// Names returns the confirmed identifiers in sorted order
	Names() []string
}

// Match returns the most specific categories admitting the evidence.
//
// A category is a candidate when every identifier in its property
// correspondence was confirmed; an empty correspondence is vacuously
// satisfied, so the universal root is always a candidate. Of the
// candidates only the maximal ones survive: a candidate that is a
// strict ancestor of another candidate adds nothing, since the
// descendant already obligates everything the ancestor does.
//
// Several incomparable maximal candidates are all returned; the
// classification is their conjunction and no arbitrary tie-break is
// applied. An empty candidate set means the lattice lacks a universal
// root, which Validate rejects, so it surfaces as ClassificationError.
func (l *Lattice) Match(ev Evidence) ([]Category, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.validated {
		return nil, errors.WrapFatal(errors.ErrInvalidConfig, "Lattice", "Match",
			"matching before validation")
	}

	names := make([]string, 0, len(l.categories))
	for name := range l.categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var candidates []string
	for _, name := range names {
		if l.admits(name, ev) {
			candidates = append(candidates, name)
		}
	}

	if len(candidates) == 0 {
		return nil, &errors.ClassificationError{Probe: ev.Names()}
	}

	maximal := make([]string, 0, len(candidates))
	for _, c := range candidates {
		dominated := false
		for _, d := range candidates {
			if c != d && l.isAncestorLocked(c, d) {
				dominated = true
				break
			}
		}
		if !dominated {
			maximal = append(maximal, c)
		}
	}

	out := make([]Category, 0, len(maximal))
	for _, name := range maximal {
		out = append(out, copyCategory(l.categories[name]))
	}
	return out, nil
}

// MatchNames is a convenience for callers holding a bare identifier list
func (l *Lattice) MatchNames(identifiers ...string) ([]Category, error) {
	return l.Match(identifierSet(identifiers))
}

func (l *Lattice) admits(name string, ev Evidence) bool {
	for _, p := range l.categories[name].Properties {
		if !ev.Has(p) {
			return false
		}
	}
	return true
}

func (l *Lattice) isAncestorLocked(ancestor, name string) bool {
	for _, anc := range l.ancestors[name] {
		if anc == ancestor {
			return true
		}
	}
	return false
}

type identifierSet []string

func (s identifierSet) Has(identifier string) bool {
	for _, name := range s {
		if name == identifier {
			return true
		}
	}
	return false
}

func (s identifierSet) Names() []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
