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
	"github.com/xuri/excelize/v2"
)

// BOMSummaryColumns are the columns of the BOM summary, in order
var BOMSummaryColumns = []string{
	"Part Number", "Base Part Number", "Description", "Type",
	"Pieces", "Cut Length", "Stock Length", "Finish",
}

const bomSheet = "BOM Summary"

// BOMRow is one physical part: a display part number cut to one length.
// StockLength is the listed bar, chosen by cut length alone.
type BOMRow struct {
	Ref         pricing.PartRef
	PartNumber  string
	Description string
	PartType    catalog.PartType
	Pieces      decimal.Decimal
	CutLength   decimal.Decimal
	StockLength decimal.Decimal
	Finish      string
}

type bomKey struct {
	partNumber string
	cutLength  string
}

// BOMSummary consolidates the quote's items into one row per part number
// and cut length, ordered by part number then cut length.
func BOMSummary(q *quote.ProjectQuote) []BOMRow {
	index := make(map[bomKey]int)
	var rows []BOMRow
	for _, item := range q.Items() {
		key := bomKey{partNumber: item.PartNumber, cutLength: item.CutLength.String()}
		if i, ok := index[key]; ok {
			rows[i].Pieces = rows[i].Pieces.Add(item.Quantity)
			continue
		}
		index[key] = len(rows)
		rows = append(rows, BOMRow{
			Ref:         item.Ref,
			PartNumber:  item.PartNumber,
			Description: item.Description,
			PartType:    item.PartType,
			Pieces:      item.Quantity,
			CutLength:   item.CutLength,
			StockLength: item.ListingStockLength,
			Finish:      item.Finish,
		})
	}

	slices.SortStableFunc(rows, func(a, b BOMRow) int {
		if c := cmp.Compare(a.PartNumber, b.PartNumber); c != 0 {
			return c
		}
		return a.CutLength.Cmp(b.CutLength)
	})
	return rows
}

func (r BOMRow) record() []string {
	return []string{
		r.PartNumber,
		r.Ref.Base,
		r.Description,
		string(r.PartType),
		r.Pieces.String(),
		length(r.CutLength),
		length(r.StockLength),
		r.Finish,
	}
}

// WriteBOMSummary renders the BOM summary as CSV
func WriteBOMSummary(w io.Writer, rows []BOMRow) error {
	cw := csv.NewWriter(w)
	records := make([][]string, 0, len(rows)+1)
	records = append(records, BOMSummaryColumns)
	for _, r := range rows {
		records = append(records, r.record())
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing BOM summary: %w", err)
	}
	return nil
}

// BOMSummaryWorkbook renders the BOM summary as a one-sheet workbook with a
// styled header row and numeric piece and length cells.
func BOMSummaryWorkbook(projectName string, rows []BOMRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", bomSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("creating BOM sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})

	f.SetCellValue(bomSheet, "A1", projectName)
	for i, h := range BOMSummaryColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s2", col)
		f.SetCellValue(bomSheet, cell, h)
		f.SetCellStyle(bomSheet, cell, cell, headerStyle)
	}

	for i, r := range rows {
		row := i + 3
		f.SetCellValue(bomSheet, fmt.Sprintf("A%d", row), r.PartNumber)
		f.SetCellValue(bomSheet, fmt.Sprintf("B%d", row), r.Ref.Base)
		f.SetCellValue(bomSheet, fmt.Sprintf("C%d", row), r.Description)
		f.SetCellValue(bomSheet, fmt.Sprintf("D%d", row), string(r.PartType))
		f.SetCellValue(bomSheet, fmt.Sprintf("E%d", row), r.Pieces.InexactFloat64())
		if r.CutLength.IsPositive() {
			f.SetCellValue(bomSheet, fmt.Sprintf("F%d", row), r.CutLength.Round(3).InexactFloat64())
		}
		if r.StockLength.IsPositive() {
			f.SetCellValue(bomSheet, fmt.Sprintf("G%d", row), r.StockLength.InexactFloat64())
		}
		f.SetCellValue(bomSheet, fmt.Sprintf("H%d", row), r.Finish)
	}

	widths := []float64{24, 18, 36, 12, 8, 12, 12, 16}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(bomSheet, col, col, w)
	}
	return f, nil
}

// WriteBOMSummaryXLSX renders the BOM summary workbook to w
func WriteBOMSummaryXLSX(w io.Writer, projectName string, rows []BOMRow) error {
	f, err := BOMSummaryWorkbook(projectName, rows)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing BOM workbook: %w", err)
	}
	return nil
}
