package project

import (
	"fmt"

	"github.com/quoteworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PricingMode holds the category markups and discount applied to a project
type PricingMode struct {
	shared.BaseEntity
	Name            string              `gorm:"type:varchar(100);not null"`
	ExtrusionMarkup decimal.NullDecimal `gorm:"type:decimal(9,4)"` // percent
	HardwareMarkup  decimal.NullDecimal `gorm:"type:decimal(9,4)"`
	GlassMarkup     decimal.NullDecimal `gorm:"type:decimal(9,4)"`
	PackagingMarkup decimal.NullDecimal `gorm:"type:decimal(9,4)"`
	GlobalMarkup    decimal.NullDecimal `gorm:"type:decimal(9,4)"`
	Discount        decimal.Decimal     `gorm:"type:decimal(9,4);not null;default:0"` // percent
}

// TableName returns the table name for GORM
func (PricingMode) TableName() string {
	return "pricing_modes"
}

// Validate checks that markups are non-negative and the discount is a percentage
func (m *PricingMode) Validate() error {
	for name, v := range map[string]decimal.NullDecimal{
		"extrusion": m.ExtrusionMarkup,
		"hardware":  m.HardwareMarkup,
		"glass":     m.GlassMarkup,
		"packaging": m.PackagingMarkup,
		"global":    m.GlobalMarkup,
	} {
		if v.Valid && v.Decimal.IsNegative() {
			return fmt.Errorf("%w: pricing mode %s has a negative %s markup", shared.ErrInvalidInput, m.Name, name)
		}
	}
	if m.Discount.IsNegative() || m.Discount.GreaterThan(hundred) {
		return fmt.Errorf("%w: pricing mode %s discount must be between 0 and 100", shared.ErrInvalidInput, m.Name)
	}
	return nil
}
