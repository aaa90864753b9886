package pricing

import (
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/shopspring/decimal"
)

var complexityMultipliers = map[project.Complexity]decimal.Decimal{
	project.ComplexitySimple:      decimal.RequireFromString("0.9"),
	project.ComplexityStandard:    decimal.NewFromInt(1),
	project.ComplexityComplex:     decimal.RequireFromString("1.2"),
	project.ComplexityVeryComplex: decimal.RequireFromString("1.5"),
}

// ComplexityMultiplier returns the installation multiplier, 1 when unknown
func ComplexityMultiplier(c project.Complexity) decimal.Decimal {
	if m, ok := complexityMultipliers[c]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// InstallationCost prices installation for a project given the installation
// price of every placed product.
func InstallationCost(p *project.Project, productPrices []decimal.Decimal) decimal.Decimal {
	switch p.InstallationMethod {
	case project.InstallationManual:
		return p.ManualInstallationCost
	case project.InstallationPerProduct:
		sum := decimal.Zero
		for _, price := range productPrices {
			sum = sum.Add(price)
		}
		return sum.Mul(ComplexityMultiplier(p.Complexity))
	default:
		return decimal.Zero
	}
}
