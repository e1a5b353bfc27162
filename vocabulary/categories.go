package vocabulary

import (
	"github.com/c360/semalign/lattice"
)

// Standard category names
const (
	CategorySet              = "set"
	CategoryFiniteSet        = "finite-set"
	CategoryEnumeratedSet    = "enumerated-set"
	CategoryMagma            = "magma"
	CategoryCommutativeMagma = "commutative-magma"
	CategoryUnitalMagma      = "unital-magma"
	CategorySemigroup        = "semigroup"
	CategoryMonoid           = "monoid"
	CategoryGroup            = "group"
	CategoryAbelianGroup     = "abelian-group"
	CategoryAdditiveMagma    = "additive-magma"
	CategoryAdditiveGroup    = "additive-group"
	CategoryRing             = "ring"
	CategoryCommutativeRing  = "commutative-ring"
	CategoryField            = "field"
	CategoryGeneralMapping   = "general-mapping"
)

// StandardLattice builds and validates the standard algebra lattice.
//
// set is the universal root: its property correspondence is empty, so
// every engine object classifies at least as a set. The multiplicative
// chain runs set → magma → {semigroup, unital-magma, commutative-magma}
// → monoid → group → abelian-group; the additive chain and the size
// hierarchy hang off the root independently, which is what lets one
// object classify as, say, a finite abelian group through conjunction.
// The ring chain joins the two: a ring is a multiplicative semigroup
// and an additive group with distributivity, and field specializes
// commutative-ring through monoid for the multiplicative identity.
func StandardLattice() (*lattice.Lattice, error) {
	lat := lattice.New()

	categories := []lattice.Category{
		{
			Name: CategorySet,
			Operations: []lattice.Operation{
				{Name: OpIsFinite, Arity: 1, Kind: lattice.ResultValue},
				{Name: OpCardinality, Arity: 1, Kind: lattice.ResultValue},
				{Name: OpAnElement, Arity: 1, Kind: lattice.ResultHandle},
				{Name: OpRandomElement, Arity: 1, Kind: lattice.ResultHandle},
			},
		},
		{
			Name:       CategoryFiniteSet,
			Supers:     []string{CategorySet},
			Properties: []string{PropFinite},
			Operations: []lattice.Operation{
				{Name: OpList, Arity: 1, Kind: lattice.ResultHandleList},
				{Name: OpIterate, Arity: 1, Kind: lattice.ResultIterator},
			},
		},
		{
			Name:       CategoryEnumeratedSet,
			Supers:     []string{CategoryFiniteSet},
			Properties: []string{PropFinite, PropEnumerated},
			Operations: []lattice.Operation{
				{Name: OpEnumerate, Arity: 1, Kind: lattice.ResultHandle},
			},
		},
		{
			Name:       CategoryMagma,
			Supers:     []string{CategorySet},
			Properties: []string{PropMagma},
			Operations: []lattice.Operation{
				{Name: OpCombine, Arity: 2, Kind: lattice.ResultHandle},
			},
		},
		{
			Name:       CategoryCommutativeMagma,
			Supers:     []string{CategoryMagma},
			Properties: []string{PropMagma, PropCommutative},
		},
		{
			Name:       CategoryUnitalMagma,
			Supers:     []string{CategoryMagma},
			Properties: []string{PropMagma, PropUnital},
			Operations: []lattice.Operation{
				{Name: OpOne, Arity: 1, Kind: lattice.ResultHandle},
			},
		},
		{
			Name:       CategorySemigroup,
			Supers:     []string{CategoryMagma},
			Properties: []string{PropMagma, PropAssociative},
		},
		{
			Name:       CategoryMonoid,
			Supers:     []string{CategorySemigroup, CategoryUnitalMagma},
			Properties: []string{PropMagma, PropAssociative, PropUnital},
		},
		{
			Name:       CategoryGroup,
			Supers:     []string{CategoryMonoid},
			Properties: []string{PropMagma, PropAssociative, PropUnital, PropGroup},
			Operations: []lattice.Operation{
				{Name: OpInvert, Arity: 1, Kind: lattice.ResultHandle},
				{Name: OpGenerators, Arity: 1, Kind: lattice.ResultHandleList},
				{Name: OpIsAbelian, Arity: 1, Kind: lattice.ResultValue},
			},
		},
		{
			Name:   CategoryAbelianGroup,
			Supers: []string{CategoryGroup, CategoryCommutativeMagma},
			Properties: []string{
				PropMagma, PropAssociative, PropUnital, PropGroup, PropCommutative,
			},
		},
		{
			Name:       CategoryAdditiveMagma,
			Supers:     []string{CategorySet},
			Properties: []string{PropAdditiveMagma},
			Operations: []lattice.Operation{
				{Name: OpAdd, Arity: 2, Kind: lattice.ResultHandle},
			},
		},
		{
			Name:       CategoryAdditiveGroup,
			Supers:     []string{CategoryAdditiveMagma},
			Properties: []string{PropAdditiveMagma, PropAdditiveGroup},
			Operations: []lattice.Operation{
				{Name: OpZero, Arity: 1, Kind: lattice.ResultHandle},
				{Name: OpNegate, Arity: 1, Kind: lattice.ResultHandle},
			},
		},
		{
			Name:   CategoryRing,
			Supers: []string{CategorySemigroup, CategoryAdditiveGroup},
			Properties: []string{
				PropMagma, PropAssociative,
				PropAdditiveMagma, PropAdditiveGroup, PropAdditiveCommutative,
				PropDistributive,
			},
		},
		{
			Name:   CategoryCommutativeRing,
			Supers: []string{CategoryRing, CategoryCommutativeMagma},
			Properties: []string{
				PropMagma, PropAssociative, PropCommutative,
				PropAdditiveMagma, PropAdditiveGroup, PropAdditiveCommutative,
				PropDistributive,
			},
		},
		{
			Name:   CategoryField,
			Supers: []string{CategoryCommutativeRing, CategoryMonoid},
			Properties: []string{
				PropMagma, PropAssociative, PropCommutative, PropUnital,
				PropAdditiveMagma, PropAdditiveGroup, PropAdditiveCommutative,
				PropDistributive, PropDivision,
			},
		},
		{
			Name:       CategoryGeneralMapping,
			Supers:     []string{CategorySet},
			Properties: []string{PropGeneralMapping},
			Operations: []lattice.Operation{
				{Name: OpDomain, Arity: 1, Kind: lattice.ResultHandle},
				{Name: OpCodomain, Arity: 1, Kind: lattice.ResultHandle},
				{Name: OpImageOf, Arity: 2, Kind: lattice.ResultHandle},
				{Name: OpPreimageOf, Arity: 2, Kind: lattice.ResultHandle},
			},
		},
	}

	for _, c := range categories {
		if err := lat.Add(c); err != nil {
			return nil, err
		}
	}
	if err := lat.Validate(); err != nil {
		return nil, err
	}
	return lat, nil
}
