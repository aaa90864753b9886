package costing

import (
	"fmt"

	"github.com/quoteworks/backend/internal/domain/shared"
	"github.com/quoteworks/backend/internal/domain/shared/strategy"
)

func validateContext(costCtx strategy.CutCostContext) error {
	if !costCtx.StockLength.IsPositive() {
		return fmt.Errorf("%w: stock length must be positive for part %q", shared.ErrInvalidInput, costCtx.PartNumber)
	}
	if costCtx.PiecePrice.IsNegative() {
		return fmt.Errorf("%w: piece price cannot be negative for part %q", shared.ErrInvalidInput, costCtx.PartNumber)
	}
	return nil
}
