package pricing

import (
	"context"
	"fmt"

	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/formula"
	"github.com/quoteworks/backend/internal/domain/shared/strategy"
	"github.com/quoteworks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var inchesPerFoot = decimal.NewFromInt(12)

// PricePerPound resolves the material price per pound for a part:
// part override, then catalog settings, then the configured default.
func PricePerPound(part *catalog.MasterPart, settings *catalog.PricingSettings, configured decimal.Decimal) Lookup {
	var fromSettings decimal.NullDecimal
	if settings != nil {
		fromSettings = settings.PricePerPound
	}
	var fromPart decimal.NullDecimal
	if part != nil {
		fromPart = part.CustomPricePerLb
	}
	return Resolve(SourceNone,
		Maybe(SourcePartPricePerLb, fromPart),
		Maybe(SourceCatalogSettings, fromSettings),
		Maybe(SourceConfigDefault, positive(configured)),
	)
}

// PiecePrice returns the price of one full stock bar, rounded to cents.
// Extrusions are priced by weight and fall back to the rule's base price;
// cut stock uses the part unit cost and falls back to the rule's base price.
func PiecePrice(part *catalog.MasterPart, rule *catalog.StockLengthRule, pricePerLb decimal.Decimal) Lookup {
	var ruleBase decimal.NullDecimal
	if rule != nil {
		ruleBase = rule.BasePrice
	}

	var byWeight, unitCost decimal.NullDecimal
	if part.PartType == catalog.PartTypeExtrusion {
		if part.HasWeight() && rule != nil && pricePerLb.IsPositive() {
			byWeight = decimal.NewNullDecimal(part.WeightPerFoot.Mul(pricePerLb).Mul(rule.StockLength.Div(inchesPerFoot)))
		}
	} else {
		unitCost = positive(part.UnitCost)
	}

	l := Resolve(SourceNoCostFound,
		Maybe(SourceWeight, byWeight),
		Maybe(SourceUnitCost, unitCost),
		Maybe(SourceRuleBasePrice, ruleBase),
	)
	l.Value = valueobject.RoundCents(l.Value)
	return l
}

// UnitPrice resolves the price of one unit of a non-cut part: a flat option
// price, then the part pricing rule, then the part unit cost. A pricing rule
// formula sees vars plus quantity and basePrice. The result is rounded to cents.
func UnitPrice(part *catalog.MasterPart, optionPrice decimal.NullDecimal, vars formula.Variables, quantity decimal.Decimal) Lookup {
	var ruleValue, unitCost decimal.NullDecimal
	if part != nil {
		if rule := part.PricingRule; rule != nil {
			if formula.IsBlank(rule.Formula) {
				ruleValue = rule.BasePrice
			} else {
				base := decimal.Zero
				if rule.BasePrice.Valid {
					base = rule.BasePrice.Decimal
				}
				ruleValue = decimal.NewNullDecimal(formula.Evaluate(rule.Formula,
					vars.With(formula.VarQuantity, quantity).With(formula.VarBasePrice, base)))
			}
		}
		unitCost = positive(part.UnitCost)
	}

	l := Resolve(SourceNoCostFound,
		Maybe(SourceOptionPrice, optionPrice),
		Maybe(SourcePricingRule, ruleValue),
		Maybe(SourceUnitCost, unitCost),
	)
	l.Value = valueobject.RoundCents(l.Value)
	return l
}

// LengthUnits converts a length in inches to the part's unit of measure.
// Parts sold by the linear foot are priced per 12 inches; others per inch.
func LengthUnits(uom catalog.UnitOfMeasure, inches decimal.Decimal) decimal.Decimal {
	if uom == catalog.UnitLinearFoot {
		return inches.Div(inchesPerFoot)
	}
	return inches
}

// FinishApplies reports whether a finish is charged on a piece
func FinishApplies(finish *catalog.FinishType, part *catalog.MasterPart, lineIsMilled bool) bool {
	if finish == nil || catalog.IsMillFinishColor(finish.Name) {
		return false
	}
	return !part.IsMillFinish && !lineIsMilled
}

// FinishCost prices the finish on one piece: (perimeter/12) * (length/12)
// square feet at pricePerSqFt, rounded to cents.
func FinishCost(perimeter, finishLength, pricePerSqFt decimal.Decimal) decimal.Decimal {
	area := perimeter.Div(inchesPerFoot).Mul(finishLength.Div(inchesPerFoot))
	return valueobject.RoundCents(area.Mul(pricePerSqFt))
}

// StrategyResolver finds the costing strategy for a method
type StrategyResolver interface {
	GetCostingStrategy(method strategy.CostingMethod) (strategy.CostingStrategy, error)
}

// CutInput describes one cut piece of an extrusion or cut-stock part
type CutInput struct {
	Part       *catalog.MasterPart
	Rule       *catalog.StockLengthRule
	CutLength  decimal.Decimal
	Method     strategy.CostingMethod
	PricePerLb decimal.Decimal
	Finish     *catalog.FinishType // nil when the opening carries no finish
	IsMilled   bool
}

// CutCost is the per-piece cost of a cut piece
type CutCost struct {
	PiecePrice     Lookup
	Method         strategy.CostingMethod
	Branch         string
	Usage          decimal.Decimal
	MaterialCost   decimal.Decimal
	MarkupEligible decimal.Decimal
	MarkupExempt   decimal.Decimal
	FinishCost     decimal.Decimal
	FinishLength   decimal.Decimal
}

// UnitCost returns material plus finish for one piece
func (c CutCost) UnitCost() decimal.Decimal {
	return c.MaterialCost.Add(c.FinishCost)
}

// CutCalculator prices cut pieces with the configured costing strategies
type CutCalculator struct {
	strategies StrategyResolver
}

// NewCutCalculator creates a calculator backed by a strategy resolver
func NewCutCalculator(strategies StrategyResolver) *CutCalculator {
	return &CutCalculator{strategies: strategies}
}

// Calculate prices one piece. A piece with no stock rule or no piece price
// costs zero and reports SourceNoCostFound.
func (c *CutCalculator) Calculate(ctx context.Context, in CutInput) (CutCost, error) {
	if in.Part == nil {
		return CutCost{PiecePrice: Lookup{Source: SourceNoCostFound}, Branch: string(SourceNoCostFound)}, nil
	}

	price := PiecePrice(in.Part, in.Rule, in.PricePerLb)
	if in.Rule == nil || !price.Found {
		return CutCost{PiecePrice: Lookup{Source: SourceNoCostFound}, Method: in.Method, Branch: string(SourceNoCostFound)}, nil
	}

	s, err := c.strategies.GetCostingStrategy(in.Method)
	if err != nil {
		return CutCost{}, fmt.Errorf("costing part %s: %w", in.Part.PartNumber, err)
	}

	result, err := s.CalculateCutCost(ctx, strategy.CutCostContext{
		PartNumber:  in.Part.PartNumber,
		PiecePrice:  price.Value,
		CutLength:   in.CutLength,
		StockLength: in.Rule.StockLength,
	})
	if err != nil {
		return CutCost{}, fmt.Errorf("costing part %s: %w", in.Part.PartNumber, err)
	}

	material := valueobject.RoundCents(result.MaterialCost)
	exempt := valueobject.RoundCents(result.MarkupExempt)
	cost := CutCost{
		PiecePrice:     price,
		Method:         result.Method,
		Branch:         result.Branch,
		Usage:          result.UsagePercentage,
		MaterialCost:   material,
		MarkupEligible: material.Sub(exempt),
		MarkupExempt:   exempt,
		FinishCost:     decimal.Zero,
		FinishLength:   decimal.Zero,
	}

	if FinishApplies(in.Finish, in.Part, in.IsMilled) {
		cost.FinishLength = in.Rule.StockLength
		if result.FinishBasis == strategy.FinishBasisCut {
			cost.FinishLength = in.CutLength
		}
		cost.FinishCost = FinishCost(in.Part.Perimeter, cost.FinishLength, in.Finish.PricePerSqFt)
	}

	return cost, nil
}
