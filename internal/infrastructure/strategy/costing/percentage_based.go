package costing

import (
	"context"

	"github.com/quoteworks/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// PercentageBasedStrategy charges only the consumed share of a bar while more than
// half of the bar is left over. Pieces that consume half the bar or more are charged
// the full bar.
type PercentageBasedStrategy struct {
	strategy.BaseStrategy
}

// NewPercentageBasedStrategy creates a new percentage based costing strategy
func NewPercentageBasedStrategy() *PercentageBasedStrategy {
	return &PercentageBasedStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"percentage_based",
			strategy.StrategyTypeCosting,
			"Charge the used share of the stock bar when more than half remains",
		),
	}
}

// Method returns the costing method
func (s *PercentageBasedStrategy) Method() strategy.CostingMethod {
	return strategy.CostingMethodPercentageBased
}

// CalculateCutCost charges price x usage when the remainder exceeds 50%
func (s *PercentageBasedStrategy) CalculateCutCost(
	ctx context.Context,
	costCtx strategy.CutCostContext,
) (strategy.CutCostResult, error) {
	if err := validateContext(costCtx); err != nil {
		return strategy.CutCostResult{}, err
	}

	usage := costCtx.UsagePercentage()
	remaining := decimal.NewFromInt(1).Sub(usage)

	if !remaining.GreaterThan(strategy.HalfStock) {
		result := fullStockResult(strategy.CostingMethodPercentageBased, "percentage_full_stock", costCtx)
		result.FinishBasis = strategy.FinishBasisCut
		return result, nil
	}

	cost := costCtx.PiecePrice.Mul(usage)
	return strategy.CutCostResult{
		Method:          strategy.CostingMethodPercentageBased,
		Branch:          "percentage_based",
		UsagePercentage: usage,
		MaterialCost:    cost,
		MarkupEligible:  cost,
		MarkupExempt:    decimal.Zero,
		FinishBasis:     strategy.FinishBasisCut,
	}, nil
}
