package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is a configurable door/window product and its bill of materials
type Product struct {
	shared.BaseEntity
	Name                 string            `gorm:"type:varchar(200);not null"`
	ProductType          ProductType       `gorm:"type:varchar(20);not null"`
	InstallationPrice    decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	GlassWidthFormula    string            `gorm:"type:varchar(200)"`
	GlassHeightFormula   string            `gorm:"type:varchar(200)"`
	GlassQuantityFormula string            `gorm:"type:varchar(200)"`
	BOMLines             []BOMLine         `gorm:"foreignKey:ProductID"`
	Categories           []ProductCategory `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(name string, productType ProductType) (*Product, error) {
	product := &Product{
		BaseEntity:        shared.NewBaseEntity(),
		Name:              strings.TrimSpace(name),
		ProductType:       productType,
		InstallationPrice: decimal.Zero,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}

// Validate checks the product's invariants
func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: product name cannot be empty", shared.ErrInvalidInput)
	}
	if !p.ProductType.IsValid() {
		return fmt.Errorf("%w: product %s has unknown product type %q", shared.ErrInvalidInput, p.Name, p.ProductType)
	}
	if p.InstallationPrice.IsNegative() {
		return fmt.Errorf("%w: product %s has a negative installation price", shared.ErrInvalidInput, p.Name)
	}
	for i := range p.BOMLines {
		if err := p.BOMLines[i].Validate(); err != nil {
			return fmt.Errorf("product %s: %w", p.Name, err)
		}
	}
	return nil
}

// UnconditionalLines returns the BOM lines that apply regardless of option
// selection, skipping option placeholders.
func (p *Product) UnconditionalLines() []BOMLine {
	lines := make([]BOMLine, 0, len(p.BOMLines))
	for _, line := range p.BOMLines {
		if line.OptionID != nil || line.PartType == PartTypeOption {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// OptionLines returns the BOM lines gated on optionID in catalog order
func (p *Product) OptionLines(optionID uuid.UUID) []BOMLine {
	var lines []BOMLine
	for _, line := range p.BOMLines {
		if line.OptionID != nil && *line.OptionID == optionID {
			lines = append(lines, line)
		}
	}
	return lines
}

// BOMLine is one entry in a product's bill of materials
type BOMLine struct {
	shared.BaseEntity
	ProductID             uuid.UUID           `gorm:"type:uuid;not null;index"`
	SortOrder             int                 `gorm:"not null;default:0"`
	PartType              PartType            `gorm:"type:varchar(20);not null"`
	PartNumber            string              `gorm:"type:varchar(100)"`
	Description           string              `gorm:"type:varchar(500)"`
	Formula               string              `gorm:"type:varchar(500)"`
	Quantity              decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:1"`
	QuantityMode          QuantityMode        `gorm:"type:varchar(10);not null;default:'FIXED'"`
	MinQuantity           decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	DefaultQuantity       decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	OptionID              *uuid.UUID          `gorm:"type:uuid;index"`
	IsMilled              bool                `gorm:"not null;default:false"`
	AddFinishToPartNumber bool                `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (BOMLine) TableName() string {
	return "bom_lines"
}

// Validate checks the line's invariants
func (l *BOMLine) Validate() error {
	if !l.PartType.IsValid() {
		return fmt.Errorf("%w: BOM line has unknown part type %q", shared.ErrInvalidInput, l.PartType)
	}
	if l.Quantity.IsNegative() {
		return fmt.Errorf("%w: BOM line %s has a negative quantity", shared.ErrInvalidInput, l.PartNumber)
	}
	switch l.QuantityMode {
	case QuantityModeFixed, "":
	case QuantityModeRange:
		if l.MinQuantity.Valid && l.MinQuantity.Decimal.IsNegative() {
			return fmt.Errorf("%w: BOM line %s has a negative minimum quantity", shared.ErrInvalidInput, l.PartNumber)
		}
	default:
		return fmt.Errorf("%w: BOM line %s has unknown quantity mode %q", shared.ErrInvalidInput, l.PartNumber, l.QuantityMode)
	}
	return nil
}

// IsRange returns true for user-adjustable quantities
func (l *BOMLine) IsRange() bool {
	return l.QuantityMode == QuantityModeRange
}

// RangeDefault returns the default quantity of a RANGE line, falling back to
// its minimum and then to its fixed quantity.
func (l *BOMLine) RangeDefault() decimal.Decimal {
	if l.DefaultQuantity.Valid {
		return l.DefaultQuantity.Decimal
	}
	if l.MinQuantity.Valid {
		return l.MinQuantity.Decimal
	}
	return l.Quantity
}

// EffectiveQuantity returns the quantity used when no user override applies
func (l *BOMLine) EffectiveQuantity() decimal.Decimal {
	if l.IsRange() {
		return l.RangeDefault()
	}
	return l.Quantity
}

// ProductCategory binds an option category to a product with its standard option
type ProductCategory struct {
	shared.BaseEntity
	ProductID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	CategoryID       uuid.UUID  `gorm:"type:uuid;not null"`
	StandardOptionID *uuid.UUID `gorm:"type:uuid"`
	SortOrder        int        `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductCategory) TableName() string {
	return "product_categories"
}
