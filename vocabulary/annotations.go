package vocabulary

import (
	"github.com/c360/semalign/annotation"
	"github.com/c360/semalign/lattice"
)

// Engine operation names for GAP-style engines. These are the external
// names the standard annotations bind to.
const (
	GapIsFinite                = "IsFinite"
	GapSize                    = "Size"
	GapRepresentative          = "Representative"
	GapRandom                  = "Random"
	GapElements                = "Elements"
	GapIterator                = "Iterator"
	GapIsDoneIterator          = "IsDoneIterator"
	GapNextIterator            = "NextIterator"
	GapEnumerator              = "Enumerator"
	GapProduct                 = "Product"
	GapOne                     = "One"
	GapInverse                 = "Inverse"
	GapGeneratorsOfGroup       = "GeneratorsOfGroup"
	GapIsAbelian               = "IsAbelian"
	GapSum                     = "Sum"
	GapZero                    = "Zero"
	GapAdditiveInverse         = "AdditiveInverse"
	GapSource                  = "Source"
	GapRange                   = "Range"
	GapImageElm                = "ImageElm"
	GapPreImagesRepresentative = "PreImagesRepresentative"
)

// Theory names carried on the standard annotations. A theory names the
// neutral mathematical theory an operation instantiates; the variant
// separates additive from multiplicative notation of the same theory.
const (
	TheoryMagma  = "magma"
	TheoryMonoid = "monoid"
	TheoryGroup  = "group"
	VariantAdd   = "additive"
)

// RegisterStandard installs the standard alignment for GAP-style
// engines into a registry. Each operation is annotated at its declaring
// category; descendants inherit through the specificity walk.
func RegisterStandard(reg *annotation.Registry) error {
	type binding struct {
		category  string
		operation string
		external  string
		opts      []annotation.Option
	}

	bindings := []binding{
		{CategorySet, OpIsFinite, GapIsFinite, nil},
		{CategorySet, OpCardinality, GapSize, nil},
		{CategorySet, OpAnElement, GapRepresentative, nil},
		{CategorySet, OpRandomElement, GapRandom, nil},

		{CategoryFiniteSet, OpList, GapElements, nil},
		{CategoryFiniteSet, OpIterate, GapIterator, nil},
		{CategoryEnumeratedSet, OpEnumerate, GapEnumerator, nil},

		{CategoryMagma, OpCombine, GapProduct,
			[]annotation.Option{annotation.WithTheory(TheoryMagma)}},
		{CategoryUnitalMagma, OpOne, GapOne,
			[]annotation.Option{annotation.WithTheory(TheoryMonoid)}},
		{CategoryGroup, OpInvert, GapInverse,
			[]annotation.Option{annotation.WithTheory(TheoryGroup)}},
		{CategoryGroup, OpGenerators, GapGeneratorsOfGroup, nil},
		{CategoryGroup, OpIsAbelian, GapIsAbelian, nil},

		{CategoryAdditiveMagma, OpAdd, GapSum,
			[]annotation.Option{annotation.WithTheory(TheoryMagma), annotation.WithVariant(VariantAdd)}},
		{CategoryAdditiveGroup, OpZero, GapZero,
			[]annotation.Option{annotation.WithTheory(TheoryMonoid), annotation.WithVariant(VariantAdd)}},
		{CategoryAdditiveGroup, OpNegate, GapAdditiveInverse,
			[]annotation.Option{annotation.WithTheory(TheoryGroup), annotation.WithVariant(VariantAdd)}},

		{CategoryGeneralMapping, OpDomain, GapSource, nil},
		{CategoryGeneralMapping, OpCodomain, GapRange, nil},
		{CategoryGeneralMapping, OpImageOf, GapImageElm, nil},
		{CategoryGeneralMapping, OpPreimageOf, GapPreImagesRepresentative, nil},
	}

	for _, b := range bindings {
		if err := reg.Register(b.category, b.operation, b.external, b.opts...); err != nil {
			return err
		}
	}
	return nil
}

// Standard builds the validated standard lattice together with its
// GAP alignment
func Standard() (*lattice.Lattice, *annotation.Registry, error) {
	lat, err := StandardLattice()
	if err != nil {
		return nil, nil, err
	}
	reg := annotation.NewRegistry()
	if err := RegisterStandard(reg); err != nil {
		return nil, nil, err
	}
	return lat, reg, nil
}
