package pricing

import "github.com/shopspring/decimal"

// Source names the layer a looked-up value came from
type Source string

const (
	SourceNone            Source = "none"
	SourcePartPricePerLb  Source = "part_price_per_lb"
	SourceCatalogSettings Source = "catalog_settings"
	SourceConfigDefault   Source = "config_default"
	SourceWeight          Source = "weight"
	SourceRuleBasePrice   Source = "rule_base_price"
	SourceUnitCost        Source = "unit_cost"
	SourceOptionPrice     Source = "option_price"
	SourcePricingRule     Source = "pricing_rule"
	SourceCategoryMarkup  Source = "category_markup"
	SourceGlobalMarkup    Source = "global_markup"
	SourceNoCostFound     Source = "no_cost_found"
)

// Lookup is the result of a layered lookup
type Lookup struct {
	Value  decimal.Decimal
	Source Source
	Found  bool
}

// Layer is one candidate in a layered lookup
type Layer struct {
	Source Source
	Value  decimal.NullDecimal
}

// From returns a layer holding v
func From(source Source, v decimal.Decimal) Layer {
	return Layer{Source: source, Value: decimal.NewNullDecimal(v)}
}

// Maybe returns a layer holding v if it is set
func Maybe(source Source, v decimal.NullDecimal) Layer {
	return Layer{Source: source, Value: v}
}

// Resolve returns the first layer with a value. When no layer has one the
// result is zero, tagged with fallback and marked not found.
func Resolve(fallback Source, layers ...Layer) Lookup {
	for _, l := range layers {
		if l.Value.Valid {
			return Lookup{Value: l.Value.Decimal, Source: l.Source, Found: true}
		}
	}
	return Lookup{Value: decimal.Zero, Source: fallback}
}

// positive keeps v only when it is greater than zero
func positive(v decimal.Decimal) decimal.NullDecimal {
	if v.IsPositive() {
		return decimal.NewNullDecimal(v)
	}
	return decimal.NullDecimal{}
}
