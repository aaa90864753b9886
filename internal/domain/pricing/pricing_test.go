package pricing

import (
	"context"
	"testing"

	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/formula"
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/quoteworks/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(s))
}

func TestResolve(t *testing.T) {
	l := Resolve(SourceNoCostFound, Maybe(SourceOptionPrice, decimal.NullDecimal{}), From(SourceUnitCost, d("4.5")))
	assert.True(t, l.Found)
	assert.Equal(t, SourceUnitCost, l.Source)
	assert.Equal(t, "4.5", l.Value.String())

	l = Resolve(SourceNoCostFound, Maybe(SourceOptionPrice, decimal.NullDecimal{}))
	assert.False(t, l.Found)
	assert.Equal(t, SourceNoCostFound, l.Source)
	assert.True(t, l.Value.IsZero())
}

func TestPricePerPound(t *testing.T) {
	part := &catalog.MasterPart{}
	settings := &catalog.PricingSettings{PricePerPound: nd("2.25")}

	tests := []struct {
		name       string
		part       *catalog.MasterPart
		settings   *catalog.PricingSettings
		configured decimal.Decimal
		want       string
		source     Source
	}{
		{"part override wins", &catalog.MasterPart{CustomPricePerLb: nd("3")}, settings, d("2"), "3", SourcePartPricePerLb},
		{"catalog settings", part, settings, d("2"), "2.25", SourceCatalogSettings},
		{"configured default", part, nil, d("2"), "2", SourceConfigDefault},
		{"nothing", part, &catalog.PricingSettings{}, decimal.Zero, "0", SourceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := PricePerPound(tt.part, tt.settings, tt.configured)
			assert.Equal(t, tt.want, l.Value.String())
			assert.Equal(t, tt.source, l.Source)
		})
	}
}

func TestPiecePrice(t *testing.T) {
	rule := &catalog.StockLengthRule{StockLength: d("100"), BasePrice: nd("12.50"), IsActive: true}

	t.Run("extrusion by weight", func(t *testing.T) {
		part := &catalog.MasterPart{PartType: catalog.PartTypeExtrusion, WeightPerFoot: d("0.5")}
		l := PiecePrice(part, rule, d("2"))
		assert.Equal(t, "8.33", l.Value.StringFixed(2))
		assert.Equal(t, SourceWeight, l.Source)
	})

	t.Run("extrusion without weight uses rule base price", func(t *testing.T) {
		part := &catalog.MasterPart{PartType: catalog.PartTypeExtrusion}
		l := PiecePrice(part, rule, d("2"))
		assert.Equal(t, "12.50", l.Value.StringFixed(2))
		assert.Equal(t, SourceRuleBasePrice, l.Source)
	})

	t.Run("cut stock unit cost", func(t *testing.T) {
		part := &catalog.MasterPart{PartType: catalog.PartTypeCutStock, UnitCost: d("20")}
		l := PiecePrice(part, rule, d("2"))
		assert.Equal(t, "20.00", l.Value.StringFixed(2))
		assert.Equal(t, SourceUnitCost, l.Source)
	})

	t.Run("cut stock without unit cost uses rule base price", func(t *testing.T) {
		part := &catalog.MasterPart{PartType: catalog.PartTypeCutStock}
		l := PiecePrice(part, rule, d("2"))
		assert.Equal(t, SourceRuleBasePrice, l.Source)
	})

	t.Run("no data", func(t *testing.T) {
		part := &catalog.MasterPart{PartType: catalog.PartTypeExtrusion}
		l := PiecePrice(part, nil, d("2"))
		assert.False(t, l.Found)
		assert.Equal(t, SourceNoCostFound, l.Source)
	})
}

func TestFinishCost(t *testing.T) {
	// 12" perimeter over a 144" bar is 12 sq ft
	assert.Equal(t, "30.00", FinishCost(d("12"), d("144"), d("2.5")).StringFixed(2))
	assert.True(t, FinishCost(d("0"), d("144"), d("2.5")).IsZero())
}

func TestFinishApplies(t *testing.T) {
	bronze := &catalog.FinishType{Name: "Bronze", FinishCode: "BRZ", PricePerSqFt: d("3")}
	mill := &catalog.FinishType{Name: "Mill Finish"}
	part := &catalog.MasterPart{}

	assert.True(t, FinishApplies(bronze, part, false))
	assert.False(t, FinishApplies(nil, part, false))
	assert.False(t, FinishApplies(mill, part, false))
	assert.False(t, FinishApplies(bronze, &catalog.MasterPart{IsMillFinish: true}, false))
	assert.False(t, FinishApplies(bronze, part, true))
}

type fixedResolver map[strategy.CostingMethod]strategy.CostingStrategy

func (r fixedResolver) GetCostingStrategy(m strategy.CostingMethod) (strategy.CostingStrategy, error) {
	return r[m], nil
}

type splitStrategy struct {
	strategy.BaseStrategy
}

func (splitStrategy) Method() strategy.CostingMethod { return strategy.CostingMethodHybrid }

func (splitStrategy) CalculateCutCost(_ context.Context, c strategy.CutCostContext) (strategy.CutCostResult, error) {
	usage := c.UsagePercentage()
	used := c.PiecePrice.Mul(usage)
	return strategy.CutCostResult{
		Method:          strategy.CostingMethodHybrid,
		Branch:          "hybrid_split",
		UsagePercentage: usage,
		MaterialCost:    c.PiecePrice,
		MarkupEligible:  used,
		MarkupExempt:    c.PiecePrice.Sub(used),
		FinishBasis:     strategy.FinishBasisStock,
	}, nil
}

func TestCutCalculator_Calculate(t *testing.T) {
	calc := NewCutCalculator(fixedResolver{strategy.CostingMethodHybrid: splitStrategy{}})
	part := &catalog.MasterPart{PartNumber: "EXT-1", PartType: catalog.PartTypeExtrusion, WeightPerFoot: d("0.5"), Perimeter: d("12")}
	rule := &catalog.StockLengthRule{StockLength: d("100"), IsActive: true}
	finish := &catalog.FinishType{Name: "Bronze", PricePerSqFt: d("1")}

	cost, err := calc.Calculate(context.Background(), CutInput{
		Part: part, Rule: rule, CutLength: d("60"), Method: strategy.CostingMethodHybrid, PricePerLb: d("2"), Finish: finish,
	})
	require.NoError(t, err)

	assert.Equal(t, "8.33", cost.MaterialCost.StringFixed(2))
	assert.Equal(t, "3.33", cost.MarkupExempt.StringFixed(2))
	assert.Equal(t, "5.00", cost.MarkupEligible.StringFixed(2))
	assert.True(t, cost.MarkupEligible.Add(cost.MarkupExempt).Equal(cost.MaterialCost))
	// 1 ft perimeter over the 100" bar
	assert.Equal(t, "100", cost.FinishLength.String())
	assert.Equal(t, "8.33", cost.FinishCost.StringFixed(2))
	assert.Equal(t, "16.66", cost.UnitCost().StringFixed(2))

	t.Run("milled line skips finish", func(t *testing.T) {
		cost, err := calc.Calculate(context.Background(), CutInput{
			Part: part, Rule: rule, CutLength: d("60"), Method: strategy.CostingMethodHybrid, PricePerLb: d("2"), Finish: finish, IsMilled: true,
		})
		require.NoError(t, err)
		assert.True(t, cost.FinishCost.IsZero())
	})

	t.Run("no rule is no cost found", func(t *testing.T) {
		cost, err := calc.Calculate(context.Background(), CutInput{Part: part, CutLength: d("60"), Method: strategy.CostingMethodHybrid, PricePerLb: d("2")})
		require.NoError(t, err)
		assert.Equal(t, string(SourceNoCostFound), cost.Branch)
		assert.True(t, cost.UnitCost().IsZero())
	})
}

func TestResolveStockLength(t *testing.T) {
	rules := []catalog.StockLengthRule{
		{StockLength: d("192"), IsActive: true},
		{StockLength: d("144"), IsActive: true},
		{StockLength: d("120"), IsActive: false},
		{StockLength: d("96"), MaxWidth: nd("48"), IsActive: true},
		{StockLength: d("240"), MinHeight: nd("100"), MaxHeight: nd("130"), IsActive: true},
	}

	tests := []struct {
		name string
		q    StockLengthQuery
		want string
	}{
		{"smallest unconstrained bar that fits", StockLengthQuery{RequiredLength: d("130"), Width: d("60"), Height: d("80")}, "144"},
		{"window match beats shorter generic bar", StockLengthQuery{RequiredLength: d("40"), Width: d("36"), Height: d("80")}, "96"},
		{"most specific window wins", StockLengthQuery{RequiredLength: d("40"), Width: d("36"), Height: d("110")}, "240"},
		{"inactive rule ignored", StockLengthQuery{RequiredLength: d("110"), Width: d("60"), Height: d("80")}, "144"},
		{"too long for every bar", StockLengthQuery{RequiredLength: d("300"), Width: d("60"), Height: d("80")}, ""},
		{"listing mode gates on required length", StockLengthQuery{RequiredLength: d("40"), Width: d("99"), Height: d("99"), Mode: StockLengthBOMListing}, "96"},
		{"listing mode skips bar length check", StockLengthQuery{RequiredLength: d("110"), Mode: StockLengthBOMListing}, "240"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveStockLength(rules, tt.q)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.StockLength.String())
		})
	}
}

func TestResolveStockLength_Deterministic(t *testing.T) {
	rules := []catalog.StockLengthRule{
		{StockLength: d("144"), MinWidth: nd("10"), IsActive: true},
		{StockLength: d("144"), MaxWidth: nd("100"), IsActive: true},
	}
	rules[0].ID[0] = 1
	rules[1].ID[0] = 2

	q := StockLengthQuery{RequiredLength: d("50"), Width: d("30"), Height: d("80")}
	for i := 0; i < 20; i++ {
		got := ResolveStockLength(rules, q)
		require.NotNil(t, got)
		assert.Equal(t, rules[0].ID, got.ID)
	}
}

func TestBuckets(t *testing.T) {
	assert.Equal(t, BucketExtrusion, BucketFor(catalog.PartTypeCutStock, false))
	assert.Equal(t, BucketHardware, BucketFor(catalog.PartTypeFastener, false))
	assert.Equal(t, BucketHardware, BucketFor(catalog.PartTypeExtrusion, true))
	assert.Equal(t, BucketGlass, BucketFor(catalog.PartTypeGlass, false))
	assert.Equal(t, BucketPackaging, BucketFor(catalog.PartTypePackaging, false))
	assert.Equal(t, BucketOther, BucketFor(catalog.PartTypeOption, false))
	assert.Equal(t, "Packaging", BucketPackaging.Label())

	totals := NewBucketTotals()
	totals.Add(BucketExtrusion, d("100"), d("20"))
	totals.Add(BucketExtrusion, d("50"), d("0"))
	totals.Add(BucketGlass, d("30"), d("0"))
	assert.Equal(t, "150", totals[BucketExtrusion].Base.String())
	assert.Equal(t, "20", totals[BucketExtrusion].Exempt.String())
	assert.Equal(t, "180", totals.TotalBase().String())
}

func TestCategoryMarkup(t *testing.T) {
	mode := &project.PricingMode{HardwareMarkup: nd("40"), GlobalMarkup: nd("25")}

	l := CategoryMarkup(mode, BucketHardware)
	assert.Equal(t, SourceCategoryMarkup, l.Source)
	assert.Equal(t, "40", l.Value.String())

	l = CategoryMarkup(mode, BucketGlass)
	assert.Equal(t, SourceGlobalMarkup, l.Source)
	assert.Equal(t, "25", l.Value.String())

	l = CategoryMarkup(&project.PricingMode{}, BucketGlass)
	assert.Equal(t, SourceNone, l.Source)
	assert.True(t, l.Value.IsZero())

	l = CategoryMarkup(nil, BucketOther)
	assert.True(t, l.Value.IsZero())
}

func TestApplyMarkup(t *testing.T) {
	tests := []struct {
		name                           string
		base, exempt, markup, discount string
		want                           string
	}{
		{"plain markup", "100", "0", "50", "0", "150.00"},
		{"exempt portion untouched", "100", "40", "50", "0", "130.00"},
		{"discount after markup", "100", "0", "50", "10", "135.00"},
		{"fully exempt", "80", "80", "50", "10", "80.00"},
		{"zero", "0", "0", "50", "10", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyMarkup(d(tt.base), d(tt.exempt), d(tt.markup), d(tt.discount))
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestBucketTotals_MarkUp(t *testing.T) {
	mode := &project.PricingMode{ExtrusionMarkup: nd("100"), GlobalMarkup: nd("10"), Discount: d("50")}
	totals := NewBucketTotals()
	totals.Add(BucketExtrusion, d("10"), d("2"))
	totals.Add(BucketGlass, d("10"), d("0"))
	totals.MarkUp(mode)

	// (10-2)*2*0.5+2
	assert.Equal(t, "10.00", totals[BucketExtrusion].MarkedUp.StringFixed(2))
	// 10*1.1*0.5
	assert.Equal(t, "5.50", totals[BucketGlass].MarkedUp.StringFixed(2))
	assert.Equal(t, "15.50", totals.TotalMarkedUp().StringFixed(2))
}

func TestBucketTotals_MarkUpKeepsFullPrecision(t *testing.T) {
	mode := &project.PricingMode{HardwareMarkup: nd("10")}
	for _, k := range []int64{1, 2, 20} {
		totals := NewBucketTotals()
		for i := int64(0); i < k; i++ {
			totals.Add(BucketHardware, d("1.05"), decimal.Zero)
		}
		totals.MarkUp(mode)

		want := d("1.155").Mul(decimal.NewFromInt(k))
		assert.True(t, want.Equal(totals[BucketHardware].MarkedUp), "k=%d: got %s", k, totals[BucketHardware].MarkedUp)
		assert.True(t, want.Equal(totals.TotalMarkedUp()), "k=%d", k)
	}
}

func TestComputeTotals(t *testing.T) {
	totals := ComputeTotals(d("900.004"), d("1234.567"), d("250"), d("0.0825"))

	assert.Equal(t, "1234.57", totals.SubtotalMarkedUp.StringFixed(2))
	// (1234.57 + 250) * 0.0825 = 122.476...
	assert.Equal(t, "122.48", totals.Tax.StringFixed(2))
	assert.True(t, totals.GrandTotal.Equal(totals.SubtotalMarkedUp.Add(totals.Installation).Add(totals.Tax)))
	assert.Equal(t, "1607.05", totals.GrandTotal.StringFixed(2))
}

func TestInstallationCost(t *testing.T) {
	prices := []decimal.Decimal{d("100"), d("150")}

	tests := []struct {
		name    string
		project project.Project
		want    string
	}{
		{"manual", project.Project{InstallationMethod: project.InstallationManual, ManualInstallationCost: d("500")}, "500.00"},
		{"per product simple", project.Project{InstallationMethod: project.InstallationPerProduct, Complexity: project.ComplexitySimple}, "225.00"},
		{"per product standard", project.Project{InstallationMethod: project.InstallationPerProduct, Complexity: project.ComplexityStandard}, "250.00"},
		{"per product complex", project.Project{InstallationMethod: project.InstallationPerProduct, Complexity: project.ComplexityComplex}, "300.00"},
		{"per product very complex", project.Project{InstallationMethod: project.InstallationPerProduct, Complexity: project.ComplexityVeryComplex}, "375.00"},
		{"none", project.Project{InstallationMethod: project.InstallationNone, ManualInstallationCost: d("500")}, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InstallationCost(&tt.project, prices).StringFixed(2))
		})
	}
}

func TestPartRef(t *testing.T) {
	tests := []struct {
		name string
		ref  PartRef
		want string
	}{
		{"base only", PartRef{Base: "HW-100"}, "HW-100"},
		{"finish then length", PartRef{Base: "EXT-1", FinishCode: "BRZ", StockLength: d("144.0000")}, "EXT-1-BRZ-144"},
		{"length only", PartRef{Base: "EXT-1", StockLength: d("192")}, "EXT-1-192"},
		{"direction last", PartRef{Base: "HNG", FinishCode: "BLK", Direction: "LH"}, "HNG-BLK-LH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ref.String())
		})
	}
}

func TestDirectionCode(t *testing.T) {
	assert.Equal(t, "LHI", DirectionCode("Left Hand Inswing", "Right"))
	assert.Equal(t, "R", DirectionCode("", "right"))
	assert.Equal(t, "LHR", DirectionCode("left-hand-reverse", ""))
	assert.Equal(t, "", DirectionCode(" ", ""))
}

func TestUnitPrice(t *testing.T) {
	vars := formula.Dimensions(d("36"), d("80"))

	tests := []struct {
		name        string
		part        *catalog.MasterPart
		optionPrice decimal.NullDecimal
		quantity    decimal.Decimal
		want        string
		source      Source
	}{
		{"option price wins", &catalog.MasterPart{UnitCost: d("3")}, nd("12.5"), d("1"), "12.50", SourceOptionPrice},
		{"rule formula", &catalog.MasterPart{
			UnitCost:    d("3"),
			PricingRule: &catalog.PricingRule{BasePrice: nd("10"), Formula: "basePrice + width / 4"},
		}, decimal.NullDecimal{}, d("2"), "19.00", SourcePricingRule},
		{"rule formula sees quantity", &catalog.MasterPart{
			PricingRule: &catalog.PricingRule{Formula: "quantity * 1.5"},
		}, decimal.NullDecimal{}, d("4"), "6.00", SourcePricingRule},
		{"rule base price", &catalog.MasterPart{
			UnitCost:    d("3"),
			PricingRule: &catalog.PricingRule{BasePrice: nd("7.255")},
		}, decimal.NullDecimal{}, d("1"), "7.26", SourcePricingRule},
		{"unit cost", &catalog.MasterPart{UnitCost: d("3.333")}, decimal.NullDecimal{}, d("1"), "3.33", SourceUnitCost},
		{"nothing", &catalog.MasterPart{}, decimal.NullDecimal{}, d("1"), "0.00", SourceNoCostFound},
		{"no part", nil, decimal.NullDecimal{}, d("1"), "0.00", SourceNoCostFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := UnitPrice(tt.part, tt.optionPrice, vars, tt.quantity)
			assert.Equal(t, tt.want, l.Value.StringFixed(2))
			assert.Equal(t, tt.source, l.Source)
		})
	}
}

func TestLengthUnits(t *testing.T) {
	assert.Equal(t, "3", LengthUnits(catalog.UnitLinearFoot, d("36")).String())
	assert.Equal(t, "36", LengthUnits(catalog.UnitInch, d("36")).String())
}

func TestGlassDimension(t *testing.T) {
	vars := formula.Dimensions(d("36"), d("80"))

	tests := []struct {
		name string
		expr string
		want string
	}{
		{"blank keeps panel width", "", "36"},
		{"formula naming width", "width - 4.5", "31.5"},
		{"offset only", "-4.5", "31.5"},
		{"positive offset", "2", "38"},
		{"malformed keeps panel width", "((", "36"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GlassDimension(tt.expr, formula.VarWidth, d("36"), vars).String())
		})
	}
}

func TestGlassAreaAndCost(t *testing.T) {
	vars := formula.Dimensions(d("36"), d("80"))
	assert.Equal(t, "1", GlassQuantity("", vars).String())
	assert.Equal(t, "2", GlassQuantity("2", vars).String())

	// 31.5 x 75.5 / 144 = 16.515625
	area := GlassArea(d("31.5"), d("75.5"))
	assert.Equal(t, "16.52", area.StringFixed(2))
	assert.Equal(t, "396.48", GlassCost(area, d("2"), d("12")).StringFixed(2))
}
