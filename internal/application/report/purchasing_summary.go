package report

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"github.com/quoteworks/backend/internal/application/quote"
	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// PurchasingColumns are the columns of the purchasing summary, in order
var PurchasingColumns = []string{
	"Part Number", "Type", "Pieces", "Stock Length", "Total Length", "Utilization", "Area",
}

// PurchasingRow is the procurement quantity of one suffixed part number
type PurchasingRow struct {
	Ref         pricing.PartRef
	PartNumber  string
	PartType    catalog.PartType
	Pieces      decimal.Decimal
	StockLength decimal.Decimal
	TotalLength decimal.Decimal // inches of cut material
	Area        decimal.Decimal // square feet, glass only
}

// Utilization is the share of the bought stock used by the cuts, in percent.
// It is zero for parts not cut from stock.
func (r PurchasingRow) Utilization() decimal.Decimal {
	bought := r.Pieces.Mul(r.StockLength)
	if !bought.IsPositive() {
		return decimal.Zero
	}
	return r.TotalLength.Div(bought).Mul(decimal.NewFromInt(100)).Round(1)
}

// PurchasingSummary consolidates the quote's items into one row per display
// part number, ordered by part number.
func PurchasingSummary(q *quote.ProjectQuote) []PurchasingRow {
	index := make(map[string]int)
	var rows []PurchasingRow
	for _, item := range q.Items() {
		i, ok := index[item.PartNumber]
		if !ok {
			i = len(rows)
			index[item.PartNumber] = i
			rows = append(rows, PurchasingRow{
				Ref:         item.Ref,
				PartNumber:  item.PartNumber,
				PartType:    item.PartType,
				Pieces:      decimal.Zero,
				StockLength: item.StockLength,
				TotalLength: decimal.Zero,
				Area:        decimal.Zero,
			})
		}
		r := &rows[i]
		r.Pieces = r.Pieces.Add(item.Quantity)
		if item.StockLength.IsPositive() {
			r.TotalLength = r.TotalLength.Add(item.CutLength.Mul(item.Quantity))
		}
		r.Area = r.Area.Add(item.Area.Mul(item.Quantity))
	}

	slices.SortStableFunc(rows, func(a, b PurchasingRow) int {
		return cmp.Compare(a.PartNumber, b.PartNumber)
	})
	return rows
}

// WritePurchasingSummary renders the purchasing summary as CSV
func WritePurchasingSummary(w io.Writer, rows []PurchasingRow) error {
	cw := csv.NewWriter(w)
	records := make([][]string, 0, len(rows)+1)
	records = append(records, PurchasingColumns)
	for _, r := range rows {
		utilization, area := "", ""
		if r.StockLength.IsPositive() {
			utilization = r.Utilization().StringFixed(1) + "%"
		}
		if r.Area.IsPositive() {
			area = r.Area.StringFixed(2)
		}
		records = append(records, []string{
			r.PartNumber,
			string(r.PartType),
			r.Pieces.String(),
			length(r.StockLength),
			length(r.TotalLength),
			utilization,
			area,
		})
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing purchasing summary: %w", err)
	}
	return nil
}
