package vocabulary

// Property identifiers reported by the engine.
//
// Identifiers use dash-lowercase notation (e.g. "is-magma"). They are
// the wire-level names a Describe query returns, so every deployment
// speaking the standard vocabulary agrees on them. The engine-side
// predicates they correspond to (IsMagma, IsAssociative, ...) live in
// the alignment, not here.

// Structural properties
const (
	// PropMagma marks a set closed under one binary operation
	PropMagma = "is-magma"
	// PropAssociative marks an associative operation
	PropAssociative = "is-associative"
	// PropCommutative marks a commutative operation
	PropCommutative = "is-commutative"
	// PropUnital marks the presence of a neutral element
	PropUnital = "is-unital"
	// PropGroup marks invertibility on top of a monoid
	PropGroup = "is-group"
)

// Additive-notation properties. The engine reports these for objects
// whose structure is written additively; the theory behind them is the
// same as the multiplicative one.
const (
	// PropAdditiveMagma marks a set closed under addition
	PropAdditiveMagma = "is-additive-magma"
	// PropAdditiveGroup marks an additive group
	PropAdditiveGroup = "is-additive-group"
	// PropAdditiveCommutative marks a commutative addition
	PropAdditiveCommutative = "is-additively-commutative"
)

// Two-operation properties, reported for objects carrying both a
// multiplicative and an additive structure
const (
	// PropDistributive marks multiplication distributing over addition
	PropDistributive = "is-distributive"
	// PropDivision marks invertibility of every nonzero element
	PropDivision = "is-division"
)

// Size and enumeration properties
const (
	// PropFinite marks a set the engine knows to be finite
	PropFinite = "is-finite"
	// PropEnumerated marks a finite set with a canonical enumeration
	PropEnumerated = "is-enumerated"
)

// Mapping properties
const (
	// PropGeneralMapping marks a mapping between two sets
	PropGeneralMapping = "is-general-mapping"
)

// Host operation names. Operations use snake_case and are the names
// host code passes to Handle.Call.
const (
	OpIsFinite      = "is_finite"
	OpCardinality   = "cardinality"
	OpAnElement     = "an_element"
	OpRandomElement = "random_element"
	OpList          = "list"
	OpIterate       = "iterate"
	OpEnumerate     = "enumerate"
	OpCombine       = "combine"
	OpOne           = "one"
	OpInvert        = "invert"
	OpGenerators    = "generators"
	OpIsAbelian     = "is_abelian"
	OpAdd           = "add"
	OpZero          = "zero"
	OpNegate        = "negate"
	OpDomain        = "domain"
	OpCodomain      = "codomain"
	OpImageOf       = "image_of"
	OpPreimageOf    = "preimage_of"
)
