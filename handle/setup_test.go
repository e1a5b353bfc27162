package handle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360/semalign/annotation"
	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/enginetest"
	"github.com/c360/semalign/lattice"
)

// testLattice builds the small algebra lattice the handle tests share:
//
//	set (root)
//	├── magma "is-magma"            combine/2 → handle
//	│   ├── semigroup               +"is-associative"
//	│   └── commutative-magma       +"is-commutative"
//	└── finite-set "is-finite"      list/1 → handle-list, iterate/1 → iterator
//
// set declares cardinality/1 → value and an_element/1 → handle.
func testLattice(t *testing.T) *lattice.Lattice {
	t.Helper()

	lat := lattice.New()
	require.NoError(t, lat.Add(lattice.Category{
		Name: "set",
		Operations: []lattice.Operation{
			{Name: "cardinality", Arity: 1, Kind: lattice.ResultValue},
			{Name: "an_element", Arity: 1, Kind: lattice.ResultHandle},
		},
	}))
	require.NoError(t, lat.Add(lattice.Category{
		Name:       "magma",
		Supers:     []string{"set"},
		Properties: []string{"is-magma"},
		Operations: []lattice.Operation{
			{Name: "combine", Arity: 2, Kind: lattice.ResultHandle},
		},
	}))
	require.NoError(t, lat.Add(lattice.Category{
		Name:       "semigroup",
		Supers:     []string{"magma"},
		Properties: []string{"is-magma", "is-associative"},
	}))
	require.NoError(t, lat.Add(lattice.Category{
		Name:       "commutative-magma",
		Supers:     []string{"magma"},
		Properties: []string{"is-magma", "is-commutative"},
	}))
	require.NoError(t, lat.Add(lattice.Category{
		Name:       "finite-set",
		Supers:     []string{"set"},
		Properties: []string{"is-finite"},
		Operations: []lattice.Operation{
			{Name: "list", Arity: 1, Kind: lattice.ResultHandleList},
			{Name: "iterate", Arity: 1, Kind: lattice.ResultIterator},
		},
	}))
	require.NoError(t, lat.Validate())
	return lat
}

// testRegistry aligns the test lattice with engine operation names
func testRegistry(t *testing.T) *annotation.Registry {
	t.Helper()

	reg := annotation.NewRegistry()
	require.NoError(t, reg.Register("set", "cardinality", "Size"))
	require.NoError(t, reg.Register("set", "an_element", "Representative"))
	require.NoError(t, reg.Register("magma", "combine", "Product", annotation.WithTheory("magma")))
	require.NoError(t, reg.Register("finite-set", "list", "Elements"))
	require.NoError(t, reg.Register("finite-set", "iterate", "Iterator"))
	return reg
}

// testEngine scripts a small engine with two associative magma objects
// whose product is a third
func testEngine(t *testing.T) *enginetest.Engine {
	t.Helper()

	eng := enginetest.New()
	eng.AddObject("X", "is-magma", "is-associative")
	eng.AddObject("Y", "is-magma", "is-associative")
	eng.AddObject("XY", "is-magma", "is-associative")
	eng.SetOpResult("Product", engine.NewRef("XY"))
	eng.SetOpResult("Size", engine.NewInt(8))
	return eng
}

// testFactory wires a factory over the shared fixtures
func testFactory(t *testing.T, eng *enginetest.Engine, opts ...FactoryOption) *Factory {
	t.Helper()

	factory, err := NewFactory(eng, testLattice(t), testRegistry(t), opts...)
	require.NoError(t, err)
	return factory
}
