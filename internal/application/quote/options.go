package quote

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/formula"
	"github.com/quoteworks/backend/internal/domain/pricing"
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/quoteworks/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// resolveOptions emits the option-driven lines of every category bound to
// the product, in binding order.
func (r *request) resolveOptions(ctx context.Context, c *component) ([]BOMItem, error) {
	bindings := slices.Clone(c.product.Categories)
	slices.SortStableFunc(bindings, func(a, b catalog.ProductCategory) int {
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})

	var items []BOMItem
	for _, binding := range bindings {
		categoryItems, err := r.resolveCategory(ctx, c, binding)
		if err != nil {
			return nil, err
		}
		items = append(items, categoryItems...)
	}
	return items, nil
}

// resolveCategory picks the active option of one category (explicit
// selection, else the standard option) and prices it with its gated BOM
// lines and linked parts.
func (r *request) resolveCategory(ctx context.Context, c *component, binding catalog.ProductCategory) ([]BOMItem, error) {
	log := logger.L(ctx).With(zap.String("category_id", binding.CategoryID.String()))

	category, err := r.cache.optionCategory(ctx, binding.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		log.Warn("option category not found", zap.String("product", c.product.Name))
		return nil, nil
	}

	selections := c.instance.Selections
	optionID, selected := selections.Option(binding.CategoryID)
	if !selected {
		if binding.StandardOptionID == nil {
			log.Debug("no option selected and no standard option", zap.String("category", category.Name))
			return nil, nil
		}
		optionID = *binding.StandardOptionID
	}

	option, ok := category.Option(optionID)
	if !ok {
		log.Warn("selected option not found in category",
			zap.String("category", category.Name),
			zap.String("option_id", optionID.String()))
		return nil, nil
	}

	lines := c.product.OptionLines(optionID)
	qty := optionQuantity(selections, binding.CategoryID, lines)
	if qty.IsZero() {
		log.Debug("option excluded by zero quantity", zap.String("option", option.Name))
		return nil, nil
	}

	item, err := r.optionItem(ctx, c, option, lines, qty)
	if err != nil {
		return nil, err
	}

	isStandard := binding.StandardOptionID != nil && *binding.StandardOptionID == optionID
	if !isStandard && binding.StandardOptionID != nil {
		if standard, ok := category.Option(*binding.StandardOptionID); ok {
			standardLines := c.product.OptionLines(standard.ID)
			standardItem, err := r.optionItem(ctx, c, standard, standardLines,
				optionQuantity(selections, binding.CategoryID, standardLines))
			if err != nil {
				return nil, err
			}
			item.StandardEquivalentCost = decimal.NewNullDecimal(standardItem.TotalCost)
		}
	}

	// further gated lines are per option unit, like linked parts
	items := []BOMItem{item}
	if len(lines) > 1 {
		for _, line := range lines[1:] {
			lineQty := line.EffectiveQuantity().Mul(qty)
			if lineQty.IsZero() {
				continue
			}
			lineItem, err := r.lineItem(ctx, c, line, lineQty)
			if err != nil {
				return nil, err
			}
			items = append(items, lineItem)
		}
	}

	linked, err := r.linkedItems(ctx, c, option, qty)
	if err != nil {
		return nil, err
	}
	items = append(items, linked...)

	label := category.Name + ": " + option.Name
	included := selections.IsIncluded(optionID)
	for i := range items {
		items[i].Option = label
		switch {
		case included:
			includeAtZero(&items[i])
		case isStandard:
			items[i].MarkupExempt = items[i].TotalCost
		}
	}
	return items, nil
}

// optionQuantity resolves how many of an option to use: the user quantity
// for a RANGE line, else the line default, else the line quantity, else 1.
func optionQuantity(selections project.Selections, categoryID uuid.UUID, lines []catalog.BOMLine) decimal.Decimal {
	if len(lines) == 0 {
		return decimal.NewFromInt(1)
	}
	driver := lines[0]
	if driver.IsRange() {
		if q, ok := selections.Quantity(categoryID); ok {
			return q
		}
		return driver.RangeDefault()
	}
	return driver.Quantity
}

// optionItem prices the option itself. The first gated BOM line, when
// present, supplies the part number fallback, sizing formula and flags.
func (r *request) optionItem(ctx context.Context, c *component, option *catalog.IndividualOption, lines []catalog.BOMLine, qty decimal.Decimal) (BOMItem, error) {
	var driver *catalog.BOMLine
	if len(lines) > 0 {
		driver = &lines[0]
	}

	partNumber := option.PartNumber
	if partNumber == "" && driver != nil {
		partNumber = driver.PartNumber
	}
	part, err := r.cache.masterPart(ctx, partNumber)
	if err != nil {
		return BOMItem{}, err
	}

	spec := lineSpec{
		PartNumber:  partNumber,
		Part:        part,
		PartType:    catalog.PartTypeOption,
		Description: option.Name,
		Quantity:    qty,
		Bucket:      pricing.BucketFor(catalog.PartTypeOption, true),
		OptionPrice: option.Price,
	}
	if spec.PartNumber == "" {
		spec.PartNumber = option.Name
	}
	if part != nil {
		spec.PartType = part.PartType
	}
	if driver != nil {
		if driver.PartType != catalog.PartTypeOption {
			spec.PartType = driver.PartType
		}
		spec.IsMilled = driver.IsMilled
		spec.AddFinish = driver.AddFinishToPartNumber
		spec.CutLength = formula.Evaluate(driver.Formula, c.vars)
	}

	if option.IsCutListItem && driver != nil && driver.PartType.IsCut() && part != nil {
		return r.cutItem(ctx, c, spec)
	}
	return r.unitItem(c, spec), nil
}

// linkedItems emits the parts linked to an option for the selected variant,
// or the default variant when none is selected.
func (r *request) linkedItems(ctx context.Context, c *component, option *catalog.IndividualOption, optionQty decimal.Decimal) ([]BOMItem, error) {
	var variant *uuid.UUID
	if v, ok := c.instance.Selections.Variant(option.ID); ok && option.HasVariant(v) {
		variant = &v
	} else if v, ok := option.DefaultVariant(); ok {
		variant = &v
	}

	var items []BOMItem
	for _, lp := range option.LinkedPartsFor(variant) {
		qty := lp.Quantity.Mul(optionQty)
		if qty.IsZero() {
			continue
		}
		part, err := r.cache.masterPart(ctx, lp.PartNumber)
		if err != nil {
			return nil, err
		}
		spec := lineSpec{
			PartNumber: lp.PartNumber,
			Part:       part,
			PartType:   catalog.PartTypeHardware,
			Quantity:   qty,
			Bucket:     pricing.BucketFor(catalog.PartTypeHardware, true),
		}
		if part != nil {
			spec.PartType = part.PartType
			spec.Description = part.Description
		}
		items = append(items, r.unitItem(c, spec))
	}
	return items, nil
}

// includeAtZero bills an included option line at zero and keeps its price
func includeAtZero(item *BOMItem) {
	item.ListPrice = decimal.NewNullDecimal(item.TotalCost)
	item.UnitCost = decimal.Zero
	item.FinishCost = decimal.Zero
	item.TotalCost = decimal.Zero
	item.MarkupExempt = decimal.Zero
	item.Method = MethodIncluded
}
