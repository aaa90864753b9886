package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MasterPart is a purchasable part identified by its base part number
type MasterPart struct {
	shared.BaseEntity
	PartNumber                  string              `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description                 string              `gorm:"type:varchar(500)"`
	PartType                    PartType            `gorm:"type:varchar(20);not null"`
	UnitCost                    decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	UnitOfMeasure               UnitOfMeasure       `gorm:"type:varchar(10);not null;default:'EA'"`
	WeightPerFoot               decimal.Decimal     `gorm:"type:decimal(18,6);not null;default:0"` // lb/ft
	CustomPricePerLb            decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	Perimeter                   decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"` // inches, for finish area
	IsMillFinish                bool                `gorm:"not null;default:false"`
	AppendDirectionToPartNumber bool                `gorm:"not null;default:false"`
	StockLengthRules            []StockLengthRule   `gorm:"foreignKey:MasterPartID"`
	PricingRule                 *PricingRule        `gorm:"foreignKey:MasterPartID"`
}

// TableName returns the table name for GORM
func (MasterPart) TableName() string {
	return "master_parts"
}

// NewMasterPart creates a new master part
func NewMasterPart(partNumber, description string, partType PartType, uom UnitOfMeasure) (*MasterPart, error) {
	part := &MasterPart{
		BaseEntity:    shared.NewBaseEntity(),
		PartNumber:    strings.TrimSpace(partNumber),
		Description:   description,
		PartType:      partType,
		UnitOfMeasure: uom,
		UnitCost:      decimal.Zero,
		WeightPerFoot: decimal.Zero,
		Perimeter:     decimal.Zero,
	}
	if err := part.Validate(); err != nil {
		return nil, err
	}
	return part, nil
}

// Validate checks the part's invariants
func (p *MasterPart) Validate() error {
	if p.PartNumber == "" {
		return fmt.Errorf("%w: part number cannot be empty", shared.ErrInvalidInput)
	}
	if !p.PartType.IsValid() {
		return fmt.Errorf("%w: part %s has unknown part type %q", shared.ErrInvalidInput, p.PartNumber, p.PartType)
	}
	if !p.UnitOfMeasure.IsValid() {
		return fmt.Errorf("%w: part %s has unknown unit of measure %q", shared.ErrInvalidInput, p.PartNumber, p.UnitOfMeasure)
	}
	if p.UnitCost.IsNegative() || p.WeightPerFoot.IsNegative() || p.Perimeter.IsNegative() {
		return fmt.Errorf("%w: part %s has negative cost data", shared.ErrInvalidInput, p.PartNumber)
	}
	for _, rule := range p.StockLengthRules {
		if !rule.StockLength.IsPositive() {
			return fmt.Errorf("%w: part %s has a stock length rule without a positive stock length", shared.ErrInvalidInput, p.PartNumber)
		}
	}
	return nil
}

// ActiveStockLengthRules returns the active rules in catalog order
func (p *MasterPart) ActiveStockLengthRules() []StockLengthRule {
	active := make([]StockLengthRule, 0, len(p.StockLengthRules))
	for _, rule := range p.StockLengthRules {
		if rule.IsActive {
			active = append(active, rule)
		}
	}
	return active
}

// HasWeight returns true if the part carries extrusion weight data
func (p *MasterPart) HasWeight() bool {
	return p.WeightPerFoot.IsPositive()
}

// StockLengthRule is a candidate stock bar for a part, optionally gated by a
// width/height window.
type StockLengthRule struct {
	shared.BaseEntity
	MasterPartID uuid.UUID           `gorm:"type:uuid;not null;index"`
	SortOrder    int                 `gorm:"not null;default:0"`
	StockLength  decimal.Decimal     `gorm:"type:decimal(18,4);not null"` // inches
	MinWidth     decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	MaxWidth     decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	MinHeight    decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	MaxHeight    decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	BasePrice    decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	IsActive     bool                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockLengthRule) TableName() string {
	return "stock_length_rules"
}

// Specificity counts the bounds set on the rule's dimension window
func (r StockLengthRule) Specificity() int {
	n := 0
	for _, bound := range []decimal.NullDecimal{r.MinWidth, r.MaxWidth, r.MinHeight, r.MaxHeight} {
		if bound.Valid {
			n++
		}
	}
	return n
}

// PricingRule prices a part by flat base price and/or formula over
// width, height, quantity and basePrice.
type PricingRule struct {
	shared.BaseEntity
	MasterPartID uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	BasePrice    decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	Formula      string              `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PricingRule) TableName() string {
	return "pricing_rules"
}
