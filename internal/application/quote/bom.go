package quote

import (
	"context"
	"fmt"

	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/formula"
	"github.com/quoteworks/backend/internal/domain/pricing"
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/quoteworks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// component is one placed product being priced
type component struct {
	opening  *project.Opening
	panel    *project.Panel
	instance *project.ComponentInstance
	product  *catalog.Product
	finish   *catalog.FinishType // finish type of the opening color, nil when unknown
	vars     formula.Variables
}

// lineSpec describes a physical part to be sized and priced
type lineSpec struct {
	PartNumber  string
	Part        *catalog.MasterPart // nil when the part number is not in the catalog
	PartType    catalog.PartType
	Description string
	Quantity    decimal.Decimal
	CutLength   decimal.Decimal
	IsMilled    bool
	AddFinish   bool
	Bucket      pricing.Bucket
	OptionPrice decimal.NullDecimal
}

// generateBOM builds the priced lines of one component: unconditional BOM
// lines first, then one pass over the product's option categories.
func (r *request) generateBOM(ctx context.Context, c *component) ([]BOMItem, error) {
	var items []BOMItem

	for _, line := range c.product.UnconditionalLines() {
		qty := line.EffectiveQuantity()
		if qty.IsZero() {
			continue
		}
		item, err := r.lineItem(ctx, c, line, qty)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	optionItems, err := r.resolveOptions(ctx, c)
	if err != nil {
		return nil, err
	}
	items = append(items, optionItems...)

	for i := range items {
		items[i].Panel = c.panel.Name
		items[i].Component = c.product.Name
		items[i].PartNumber = items[i].Ref.String()
	}
	return items, nil
}

// lineItem sizes and prices one BOM line
func (r *request) lineItem(ctx context.Context, c *component, line catalog.BOMLine, qty decimal.Decimal) (BOMItem, error) {
	part, err := r.cache.masterPart(ctx, line.PartNumber)
	if err != nil {
		return BOMItem{}, err
	}

	spec := lineSpec{
		PartNumber:  line.PartNumber,
		Part:        part,
		PartType:    line.PartType,
		Description: line.Description,
		Quantity:    qty,
		IsMilled:    line.IsMilled,
		AddFinish:   line.AddFinishToPartNumber,
		Bucket:      pricing.BucketFor(line.PartType, false),
	}
	if spec.Description == "" && part != nil {
		spec.Description = part.Description
	}

	if line.PartType.IsCut() {
		spec.CutLength = formula.Evaluate(line.Formula, c.vars)
		return r.cutItem(ctx, c, spec)
	}
	if line.PartType.IsHardware() {
		spec.CutLength = formula.Evaluate(line.Formula, c.vars)
	}
	return r.unitItem(c, spec), nil
}

// newItem fills the identity of a line: its part reference and sizing
func (r *request) newItem(c *component, spec lineSpec) BOMItem {
	ref := pricing.PartRef{Base: spec.PartNumber}
	if part := spec.Part; part != nil {
		ref.Base = part.PartNumber
		if spec.AddFinish && c.finish != nil && c.finish.FinishCode != "" && !part.IsMillFinish {
			ref.FinishCode = c.finish.FinishCode
		}
		if part.AppendDirectionToPartNumber {
			ref.Direction = pricing.DirectionCode(c.panel.SwingDirection, c.panel.SlidingDirection)
		}
	}

	return BOMItem{
		Ref:          ref,
		PartNumber:   ref.String(),
		Description:  spec.Description,
		PartType:     spec.PartType,
		Bucket:       spec.Bucket,
		Quantity:     spec.Quantity,
		UnitCost:     decimal.Zero,
		FinishCost:   decimal.Zero,
		CutLength:    spec.CutLength,
		StockLength:  decimal.Zero,
		TotalCost:    decimal.Zero,
		MarkupExempt: decimal.Zero,
		Method:       string(pricing.SourceNoCostFound),
		Finish:       c.opening.FinishColor,
		Area:         decimal.Zero,
		Usage:        decimal.Zero,
	}
}

// cutItem prices a piece cut from stock with the project's costing method
func (r *request) cutItem(ctx context.Context, c *component, spec lineSpec) (BOMItem, error) {
	item := r.newItem(c, spec)
	if spec.Part == nil {
		return item, nil
	}

	rule := pricing.ResolveStockLength(spec.Part.StockLengthRules, pricing.StockLengthQuery{
		RequiredLength: spec.CutLength,
		Width:          c.panel.Width,
		Height:         c.panel.Height,
		Mode:           pricing.StockLengthCutFit,
	})
	pricePerLb := pricing.PricePerPound(spec.Part, r.settings, r.cfg.DefaultPricePerPound)

	cost, err := r.calc.Calculate(ctx, pricing.CutInput{
		Part:       spec.Part,
		Rule:       rule,
		CutLength:  spec.CutLength,
		Method:     r.methodFor(spec.Part.PartNumber),
		PricePerLb: pricePerLb.Value,
		Finish:     c.finish,
		IsMilled:   spec.IsMilled,
	})
	if err != nil {
		return BOMItem{}, err
	}

	if listed := pricing.ResolveStockLength(spec.Part.StockLengthRules, pricing.StockLengthQuery{
		RequiredLength: spec.CutLength,
		Mode:           pricing.StockLengthBOMListing,
	}); listed != nil {
		item.ListingStockLength = listed.StockLength
	}
	if rule != nil {
		item.StockLength = rule.StockLength
		if spec.PartType == catalog.PartTypeExtrusion {
			item.Ref.StockLength = rule.StockLength
			item.PartNumber = item.Ref.String()
		}
	}
	item.UnitCost = cost.MaterialCost
	item.FinishCost = cost.FinishCost
	item.Usage = cost.Usage
	item.TotalCost = valueobject.RoundCents(cost.UnitCost().Mul(spec.Quantity))
	item.MarkupExempt = valueobject.RoundCents(cost.MarkupExempt.Mul(spec.Quantity))
	item.Method = cost.Branch
	return item, nil
}

// unitItem prices a part sold by the unit. Linear parts with a sized
// length are charged per foot or inch of that length.
func (r *request) unitItem(c *component, spec lineSpec) BOMItem {
	item := r.newItem(c, spec)

	price := pricing.UnitPrice(spec.Part, spec.OptionPrice, c.vars, spec.Quantity)
	unit := price.Value
	if spec.Part != nil && spec.CutLength.IsPositive() && spec.Part.UnitOfMeasure.IsLinear() {
		unit = valueobject.RoundCents(unit.Mul(pricing.LengthUnits(spec.Part.UnitOfMeasure, spec.CutLength)))
	}

	item.UnitCost = unit
	item.TotalCost = valueobject.RoundCents(unit.Mul(spec.Quantity))
	item.Method = string(price.Source)
	return item
}

// glassItem prices the glass of a panel using the product's glass formulas.
// It returns false when the panel has no glass.
func (r *request) glassItem(ctx context.Context, c *component) (BOMItem, bool, error) {
	if catalog.IsNoGlass(c.panel.GlassType) {
		return BOMItem{}, false, nil
	}

	glassType, err := r.cache.glassType(ctx, c.panel.GlassType)
	if err != nil {
		return BOMItem{}, false, err
	}

	p := c.product
	width := pricing.GlassDimension(p.GlassWidthFormula, formula.VarWidth, c.panel.Width, c.vars)
	height := pricing.GlassDimension(p.GlassHeightFormula, formula.VarHeight, c.panel.Height, c.vars)
	qty := pricing.GlassQuantity(p.GlassQuantityFormula, c.vars)
	if !qty.IsPositive() || !width.IsPositive() || !height.IsPositive() {
		return BOMItem{}, false, nil
	}

	area := pricing.GlassArea(width, height)
	item := r.newItem(c, lineSpec{
		PartNumber:  c.panel.GlassType,
		PartType:    catalog.PartTypeGlass,
		Description: fmt.Sprintf("Glass %s x %s", width.String(), height.String()),
		Quantity:    qty,
		Bucket:      pricing.BucketGlass,
	})
	item.Area = area

	if glassType != nil {
		item.Ref.Base = glassType.Name
		item.UnitCost = valueobject.RoundCents(area.Mul(glassType.PricePerSqFt))
		item.TotalCost = pricing.GlassCost(area, qty, glassType.PricePerSqFt)
		item.Method = MethodGlassArea
	}

	item.Panel = c.panel.Name
	item.Component = c.product.Name
	item.PartNumber = item.Ref.String()
	return item, true, nil
}
