package strategy

import (
	"context"

	"github.com/shopspring/decimal"
)

// CostingMethod selects how a cut piece is charged against the stock bar it is cut from
type CostingMethod string

const (
	CostingMethodFullStock       CostingMethod = "FULL_STOCK"
	CostingMethodPercentageBased CostingMethod = "PERCENTAGE_BASED"
	CostingMethodHybrid          CostingMethod = "HYBRID"
)

// String returns the string representation of the costing method
func (m CostingMethod) String() string {
	return string(m)
}

// IsValid returns true if the costing method is one of the known methods
func (m CostingMethod) IsValid() bool {
	switch m {
	case CostingMethodFullStock, CostingMethodPercentageBased, CostingMethodHybrid:
		return true
	default:
		return false
	}
}

// FinishBasis tells the finish calculation which length to price the surface over
type FinishBasis string

const (
	FinishBasisStock FinishBasis = "stock"
	FinishBasisCut   FinishBasis = "cut"
)

// HalfStock is the usage threshold shared by the percentage and hybrid methods
var HalfStock = decimal.NewFromFloat(0.5)

// CutCostContext provides the inputs for costing one cut piece
type CutCostContext struct {
	PartNumber  string
	PiecePrice  decimal.Decimal // price of one full stock bar
	CutLength   decimal.Decimal // inches
	StockLength decimal.Decimal // inches
}

// UsagePercentage returns cut length / stock length clamped to [0, 1]
func (c CutCostContext) UsagePercentage() decimal.Decimal {
	if !c.StockLength.IsPositive() || c.CutLength.IsNegative() {
		return decimal.Zero
	}
	usage := c.CutLength.Div(c.StockLength)
	if usage.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return usage
}

// CutCostResult contains the cost of one cut piece
// MaterialCost always equals MarkupEligible + MarkupExempt.
type CutCostResult struct {
	Method          CostingMethod
	Branch          string
	UsagePercentage decimal.Decimal
	MaterialCost    decimal.Decimal
	MarkupEligible  decimal.Decimal
	MarkupExempt    decimal.Decimal
	FinishBasis     FinishBasis
}

// CostingStrategy defines the interface for pricing a cut piece against its stock bar
type CostingStrategy interface {
	Strategy
	// Method returns the costing method implemented by this strategy
	Method() CostingMethod
	// CalculateCutCost prices a single cut piece
	CalculateCutCost(ctx context.Context, costCtx CutCostContext) (CutCostResult, error)
}
