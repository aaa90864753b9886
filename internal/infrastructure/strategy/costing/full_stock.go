package costing

import (
	"context"

	"github.com/quoteworks/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// FullStockStrategy charges the whole stock bar regardless of how much is used
type FullStockStrategy struct {
	strategy.BaseStrategy
}

// NewFullStockStrategy creates a new full stock costing strategy
func NewFullStockStrategy() *FullStockStrategy {
	return &FullStockStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"full_stock",
			strategy.StrategyTypeCosting,
			"Charge the full stock bar price for every cut piece",
		),
	}
}

// Method returns the costing method
func (s *FullStockStrategy) Method() strategy.CostingMethod {
	return strategy.CostingMethodFullStock
}

// CalculateCutCost charges the full piece price
func (s *FullStockStrategy) CalculateCutCost(
	ctx context.Context,
	costCtx strategy.CutCostContext,
) (strategy.CutCostResult, error) {
	if err := validateContext(costCtx); err != nil {
		return strategy.CutCostResult{}, err
	}
	return fullStockResult(strategy.CostingMethodFullStock, "full_stock", costCtx), nil
}

func fullStockResult(method strategy.CostingMethod, branch string, costCtx strategy.CutCostContext) strategy.CutCostResult {
	return strategy.CutCostResult{
		Method:          method,
		Branch:          branch,
		UsagePercentage: costCtx.UsagePercentage(),
		MaterialCost:    costCtx.PiecePrice,
		MarkupEligible:  costCtx.PiecePrice,
		MarkupExempt:    decimal.Zero,
		FinishBasis:     strategy.FinishBasisStock,
	}
}
