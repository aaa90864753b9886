package strategy

import (
	"github.com/quoteworks/backend/internal/domain/shared/strategy"
	"github.com/quoteworks/backend/internal/infrastructure/strategy/costing"
)

// NewRegistryWithDefaults registers FULL_STOCK, PERCENTAGE_BASED and HYBRID
// with FULL_STOCK as the default.
func NewRegistryWithDefaults() (*Registry, error) {
	return NewRegistryWithDefaultCosting(strategy.CostingMethodFullStock)
}

// NewRegistryWithDefaultCosting registers the three costing strategies and
// makes defaultMethod the default.
func NewRegistryWithDefaultCosting(defaultMethod strategy.CostingMethod) (*Registry, error) {
	r := NewRegistry()
	for _, s := range []strategy.CostingStrategy{
		costing.NewFullStockStrategy(),
		costing.NewPercentageBasedStrategy(),
		costing.NewHybridStrategy(),
	} {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	if err := r.SetDefaultCosting(defaultMethod); err != nil {
		return nil, err
	}
	return r, nil
}
