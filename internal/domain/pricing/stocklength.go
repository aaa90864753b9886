package pricing

import (
	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// StockLengthMode selects how a rule's dimension window is applied
type StockLengthMode int

const (
	// StockLengthCutFit gates the window on the component width/height and
	// requires the bar to be at least as long as the cut.
	StockLengthCutFit StockLengthMode = iota
	// StockLengthBOMListing gates both windows on the required length and
	// does not check the bar length.
	StockLengthBOMListing
)

// StockLengthQuery describes the piece a stock bar is needed for
type StockLengthQuery struct {
	RequiredLength decimal.Decimal
	Width          decimal.Decimal
	Height         decimal.Decimal
	Mode           StockLengthMode
}

// ResolveStockLength picks the best fitting active rule: the most specific
// window wins, then the shortest bar, then the earliest rule. It returns nil
// when no rule fits.
func ResolveStockLength(rules []catalog.StockLengthRule, q StockLengthQuery) *catalog.StockLengthRule {
	var best *catalog.StockLengthRule
	bestSpecificity := -1

	for i := range rules {
		rule := &rules[i]
		if !rule.IsActive || !rule.StockLength.IsPositive() || !fits(rule, q) {
			continue
		}

		specificity := rule.Specificity()
		switch {
		case best == nil,
			specificity > bestSpecificity,
			specificity == bestSpecificity && rule.StockLength.LessThan(best.StockLength):
			best = rule
			bestSpecificity = specificity
		}
	}

	return best
}

func fits(rule *catalog.StockLengthRule, q StockLengthQuery) bool {
	switch q.Mode {
	case StockLengthBOMListing:
		return within(q.RequiredLength, rule.MinWidth, rule.MaxWidth) &&
			within(q.RequiredLength, rule.MinHeight, rule.MaxHeight)
	default:
		return within(q.Width, rule.MinWidth, rule.MaxWidth) &&
			within(q.Height, rule.MinHeight, rule.MaxHeight) &&
			rule.StockLength.GreaterThanOrEqual(q.RequiredLength)
	}
}

func within(v decimal.Decimal, lo, hi decimal.NullDecimal) bool {
	if lo.Valid && v.LessThan(lo.Decimal) {
		return false
	}
	if hi.Valid && v.GreaterThan(hi.Decimal) {
		return false
	}
	return true
}
