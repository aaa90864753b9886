package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/quoteworks/backend/internal/application/quote"
	"github.com/quoteworks/backend/internal/domain/pricing"
	"github.com/quoteworks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Pricing-debug report labels
const (
	LabelSubtotalBase       = "Subtotal (Base)"
	LabelSubtotalMarkedUp   = "Subtotal (Marked Up)"
	LabelInstallation       = "Installation"
	LabelTax                = "Tax"
	LabelGrandTotal         = "Grand Total"
	LabelOpeningTotalBase   = "Opening Total (Base)"
	LabelOpeningTotalMarkup = "Opening Total (Marked Up)"
	OpeningPrefix           = "=== OPENING: "
	OpeningSuffix           = " ==="
	SectionBOMItems         = "BOM ITEMS"
)

// BOMItemColumns are the columns of the BOM ITEMS table, in order
var BOMItemColumns = []string{
	"Panel", "Component", "Part Number", "Description", "Type",
	"Quantity", "Unit Cost", "Finish Cost", "Cut Length", "Stock Length",
	"Total Cost", "Method", "Markup Exempt",
}

// WritePricingDebug renders the per-opening pricing breakdown of a quote
func WritePricingDebug(w io.Writer, q *quote.ProjectQuote) error {
	cw := csv.NewWriter(w)

	records := [][]string{
		{"PRICING DEBUG"},
		{"Project", q.Name},
		{"Costing Method", string(q.CostingMethod)},
		{LabelSubtotalBase, money(q.Totals.SubtotalBase)},
		{LabelSubtotalMarkedUp, money(q.Totals.SubtotalMarkedUp)},
		{LabelInstallation, money(q.Totals.Installation)},
		{LabelTax, money(q.Totals.Tax)},
		{LabelGrandTotal, money(q.Totals.GrandTotal)},
		{},
	}

	for _, o := range q.Openings {
		records = append(records,
			[]string{OpeningPrefix + o.Name + OpeningSuffix},
			[]string{LabelOpeningTotalBase, money(o.TotalBase)},
			[]string{LabelOpeningTotalMarkup, money(o.TotalMarkedUp)},
		)
		for _, b := range pricing.AllBuckets {
			t := o.Buckets[b]
			records = append(records, []string{b.Label(), money(t.Base), money(t.MarkedUp)})
		}

		records = append(records, []string{SectionBOMItems}, BOMItemColumns)
		for _, item := range o.Items() {
			records = append(records, []string{
				item.Panel,
				item.Component,
				item.PartNumber,
				item.Description,
				string(item.PartType),
				item.Quantity.String(),
				money(item.UnitCost),
				money(item.FinishCost),
				length(item.CutLength),
				length(item.StockLength),
				money(item.TotalCost),
				item.Method,
				money(item.MarkupExempt),
			})
		}
		records = append(records, []string{})
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing pricing debug report: %w", err)
	}
	return nil
}

func money(d decimal.Decimal) string {
	return valueobject.FormatCurrency(d)
}

// length renders an inch length, blank when not applicable
func length(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.Round(3).String()
}
