package costing

import (
	"context"

	"github.com/quoteworks/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// HybridStrategy splits pieces that use at least half a bar into a used portion
// (marked up) and a remaining portion (cost only). Shorter pieces pay for the used
// share only.
type HybridStrategy struct {
	strategy.BaseStrategy
}

// NewHybridStrategy creates a new hybrid costing strategy
func NewHybridStrategy() *HybridStrategy {
	return &HybridStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"hybrid",
			strategy.StrategyTypeCosting,
			"Split long pieces into marked-up used and cost-only remaining portions",
		),
	}
}

// Method returns the costing method
func (s *HybridStrategy) Method() strategy.CostingMethod {
	return strategy.CostingMethodHybrid
}

// CalculateCutCost applies the split at usage >= 50%, percentage pricing below it
func (s *HybridStrategy) CalculateCutCost(
	ctx context.Context,
	costCtx strategy.CutCostContext,
) (strategy.CutCostResult, error) {
	if err := validateContext(costCtx); err != nil {
		return strategy.CutCostResult{}, err
	}

	usage := costCtx.UsagePercentage()
	used := costCtx.PiecePrice.Mul(usage)

	if usage.GreaterThanOrEqual(strategy.HalfStock) {
		remaining := costCtx.PiecePrice.Sub(used)
		return strategy.CutCostResult{
			Method:          strategy.CostingMethodHybrid,
			Branch:          "hybrid_split",
			UsagePercentage: usage,
			MaterialCost:    costCtx.PiecePrice,
			MarkupEligible:  used,
			MarkupExempt:    remaining,
			FinishBasis:     strategy.FinishBasisStock,
		}, nil
	}

	return strategy.CutCostResult{
		Method:          strategy.CostingMethodHybrid,
		Branch:          "hybrid_percentage",
		UsagePercentage: usage,
		MaterialCost:    used,
		MarkupEligible:  used,
		MarkupExempt:    decimal.Zero,
		FinishBasis:     strategy.FinishBasisCut,
	}, nil
}
