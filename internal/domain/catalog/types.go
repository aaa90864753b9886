package catalog

// PartType classifies a BOM line or master part
type PartType string

const (
	PartTypeExtrusion PartType = "Extrusion"
	PartTypeCutStock  PartType = "CutStock"
	PartTypeHardware  PartType = "Hardware"
	PartTypeFastener  PartType = "Fastener"
	PartTypePackaging PartType = "Packaging"
	PartTypeGlass     PartType = "Glass"
	PartTypeOption    PartType = "Option"
)

// IsValid returns true if the part type is known
func (t PartType) IsValid() bool {
	switch t {
	case PartTypeExtrusion, PartTypeCutStock, PartTypeHardware, PartTypeFastener,
		PartTypePackaging, PartTypeGlass, PartTypeOption:
		return true
	default:
		return false
	}
}

// IsCut returns true for parts cut from stock bars
func (t PartType) IsCut() bool {
	return t == PartTypeExtrusion || t == PartTypeCutStock
}

// IsHardware returns true for hardware and fasteners
func (t PartType) IsHardware() bool {
	return t == PartTypeHardware || t == PartTypeFastener
}

// UnitOfMeasure is the unit a master part is costed in
type UnitOfMeasure string

const (
	UnitEach       UnitOfMeasure = "EA"
	UnitLinearFoot UnitOfMeasure = "LF"
	UnitInch       UnitOfMeasure = "IN"
	UnitSquareFoot UnitOfMeasure = "SQFT"
)

// IsValid returns true if the unit is known
func (u UnitOfMeasure) IsValid() bool {
	switch u {
	case UnitEach, UnitLinearFoot, UnitInch, UnitSquareFoot:
		return true
	default:
		return false
	}
}

// IsLinear returns true for units priced by length
func (u UnitOfMeasure) IsLinear() bool {
	return u == UnitLinearFoot || u == UnitInch
}

// QuantityMode controls how a BOM line quantity is determined
type QuantityMode string

const (
	QuantityModeFixed QuantityMode = "FIXED"
	QuantityModeRange QuantityMode = "RANGE"
)

// ProductType classifies a product
type ProductType string

const (
	ProductTypeDoorLeaf     ProductType = "DOOR_LEAF"
	ProductTypeSlidingPanel ProductType = "SLIDING_PANEL"
	ProductTypeFixedPanel   ProductType = "FIXED_PANEL"
	ProductTypeFrame        ProductType = "FRAME"
)

// IsValid returns true if the product type is known
func (t ProductType) IsValid() bool {
	switch t {
	case ProductTypeDoorLeaf, ProductTypeSlidingPanel, ProductTypeFixedPanel, ProductTypeFrame:
		return true
	default:
		return false
	}
}
