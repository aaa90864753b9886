package quote

import (
	"github.com/quoteworks/backend/internal/domain/pricing"
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/shopspring/decimal"
)

// rollUpOpening buckets the opening's items and applies the pricing mode
func rollUpOpening(o *OpeningQuote, mode *project.PricingMode) {
	o.Buckets = pricing.NewBucketTotals()
	for _, c := range o.Components {
		for _, item := range c.Items {
			o.Buckets.Add(item.Bucket, item.TotalCost, item.MarkupExempt)
		}
	}
	o.Buckets.MarkUp(mode)
	o.TotalBase = o.Buckets.TotalBase()
	o.TotalMarkedUp = o.Buckets.TotalMarkedUp()
}

// rollUpProject sums the openings in order and computes installation, tax
// and the grand total.
func rollUpProject(q *ProjectQuote, p *project.Project) {
	q.Buckets = pricing.NewBucketTotals()
	subtotalBase := decimal.Zero
	subtotalMarkedUp := decimal.Zero
	var installationPrices []decimal.Decimal
	q.NoCostLines = 0

	for _, o := range q.Openings {
		q.Buckets.Merge(o.Buckets)
		subtotalBase = subtotalBase.Add(o.TotalBase)
		subtotalMarkedUp = subtotalMarkedUp.Add(o.TotalMarkedUp)
		for _, c := range o.Components {
			installationPrices = append(installationPrices, c.InstallationPrice)
			for _, item := range c.Items {
				if item.NoCost() {
					q.NoCostLines++
				}
			}
		}
	}

	installation := pricing.InstallationCost(p, installationPrices)
	q.Totals = pricing.ComputeTotals(subtotalBase, subtotalMarkedUp, installation, p.TaxRate)
}
