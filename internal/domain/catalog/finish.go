package catalog

import (
	"strings"

	"github.com/quoteworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// MillFinish is the finish color of unfinished aluminium
const MillFinish = "Mill Finish"

// FinishType is a finish color with its part-number code and surface price
type FinishType struct {
	shared.BaseEntity
	Name         string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	FinishCode   string          `gorm:"type:varchar(20)"`
	PricePerSqFt decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (FinishType) TableName() string {
	return "finish_types"
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// IsMillFinishColor reports whether a finish color means no finish is applied
func IsMillFinishColor(color string) bool {
	c := fold(color)
	return c == "" || c == "mill" || c == fold(MillFinish)
}

// SameName compares catalog names case-insensitively
func SameName(a, b string) bool {
	return fold(a) == fold(b)
}

// GlassType is a glass make-up priced by area
type GlassType struct {
	shared.BaseEntity
	Name         string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	PricePerSqFt decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (GlassType) TableName() string {
	return "glass_types"
}

// IsNoGlass reports whether a panel's glass type means no glass line
func IsNoGlass(name string) bool {
	n := fold(name)
	return n == "" || n == "none" || n == "n/a"
}

// PricingSettings holds catalog-wide pricing defaults
type PricingSettings struct {
	shared.BaseEntity
	PricePerPound decimal.NullDecimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (PricingSettings) TableName() string {
	return "pricing_settings"
}
