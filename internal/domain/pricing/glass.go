package pricing

import (
	"github.com/quoteworks/backend/internal/domain/formula"
	"github.com/quoteworks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var squareInchesPerSqFt = decimal.NewFromInt(144)

// GlassDimension computes one glass dimension from a product formula.
// A blank formula yields base. A formula that names the dimension variable
// is evaluated as is; any other formula is an offset added to base.
func GlassDimension(expr, variable string, base decimal.Decimal, vars formula.Variables) decimal.Decimal {
	if formula.IsBlank(expr) {
		return base
	}
	if formula.References(expr, variable) {
		return formula.Evaluate(expr, vars)
	}
	offset, err := formula.EvaluateRaw(expr, vars)
	if err != nil {
		return base
	}
	if size := base.Add(offset); size.IsPositive() {
		return size
	}
	return decimal.Zero
}

// GlassQuantity evaluates the glass quantity formula; blank means one pane
func GlassQuantity(expr string, vars formula.Variables) decimal.Decimal {
	if formula.IsBlank(expr) {
		return decimal.NewFromInt(1)
	}
	return formula.Evaluate(expr, vars)
}

// GlassArea returns the area of one pane in square feet, rounded to 2 places
func GlassArea(width, height decimal.Decimal) decimal.Decimal {
	return width.Mul(height).Div(squareInchesPerSqFt).Round(2)
}

// GlassCost prices quantity panes of area square feet, rounded to cents
func GlassCost(area, quantity, pricePerSqFt decimal.Decimal) decimal.Decimal {
	return valueobject.RoundCents(area.Mul(quantity).Mul(pricePerSqFt))
}
