package pricing

import (
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/quoteworks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CategoryMarkup resolves the markup percent for a bucket:
// the category markup, then the global markup, then zero.
func CategoryMarkup(mode *project.PricingMode, b Bucket) Lookup {
	if mode == nil {
		return Resolve(SourceNone)
	}

	var category decimal.NullDecimal
	switch b {
	case BucketExtrusion:
		category = mode.ExtrusionMarkup
	case BucketHardware:
		category = mode.HardwareMarkup
	case BucketGlass:
		category = mode.GlassMarkup
	case BucketPackaging:
		category = mode.PackagingMarkup
	}

	return Resolve(SourceNone,
		Maybe(SourceCategoryMarkup, category),
		Maybe(SourceGlobalMarkup, mode.GlobalMarkup),
	)
}

// DiscountPercent returns the pricing mode discount, zero without a mode
func DiscountPercent(mode *project.PricingMode) decimal.Decimal {
	if mode == nil {
		return decimal.Zero
	}
	return mode.Discount
}

// ApplyMarkup marks up the eligible part of base and adds back the exempt part:
// (base - exempt) * (1 + markup/100) * (1 - discount/100) + exempt
func ApplyMarkup(base, exempt, markupPercent, discountPercent decimal.Decimal) decimal.Decimal {
	eligible := base.Sub(exempt)
	factor := decimal.NewFromInt(1).Add(markupPercent.Div(hundred)).
		Mul(decimal.NewFromInt(1).Sub(discountPercent.Div(hundred)))
	return eligible.Mul(factor).Add(exempt)
}

// MarkUp fills in the marked-up amount of every bucket. Amounts keep full
// precision so openings and projects sum without drift; ComputeTotals and the
// reports round to cents.
func (t BucketTotals) MarkUp(mode *project.PricingMode) {
	discount := DiscountPercent(mode)
	for _, b := range AllBuckets {
		cur := t[b]
		cur.Markup = CategoryMarkup(mode, b)
		cur.MarkedUp = ApplyMarkup(cur.Base, cur.Exempt, cur.Markup.Value, discount)
		t[b] = cur
	}
}

// Totals are the final project figures
type Totals struct {
	SubtotalBase     decimal.Decimal
	SubtotalMarkedUp decimal.Decimal
	Installation     decimal.Decimal
	Tax              decimal.Decimal
	GrandTotal       decimal.Decimal
}

// ComputeTotals rounds the subtotals to cents and applies installation and tax:
// grandTotal = subtotalMarkedUp + installation + (subtotalMarkedUp + installation) * taxRate
func ComputeTotals(subtotalBase, subtotalMarkedUp, installation, taxRate decimal.Decimal) Totals {
	t := Totals{
		SubtotalBase:     valueobject.RoundCents(subtotalBase),
		SubtotalMarkedUp: valueobject.RoundCents(subtotalMarkedUp),
		Installation:     valueobject.RoundCents(installation),
	}
	taxable := t.SubtotalMarkedUp.Add(t.Installation)
	t.Tax = valueobject.RoundCents(taxable.Mul(taxRate))
	t.GrandTotal = taxable.Add(t.Tax)
	return t
}
