package report

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/application/quote"
	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/pricing"
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/quoteworks/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func stile(cut string) quote.BOMItem {
	ref := pricing.PartRef{Base: "E-100", FinishCode: "BR", StockLength: d("100")}
	return quote.BOMItem{
		Panel:        "Leaf",
		Component:    "Door Leaf",
		Ref:          ref,
		PartNumber:   ref.String(),
		Description:  "Stile, door",
		PartType:     catalog.PartTypeExtrusion,
		Bucket:       pricing.BucketExtrusion,
		Quantity:     d("2"),
		UnitCost:     d("8.33"),
		FinishCost:   d("20.83"),
		CutLength:    d(cut),
		StockLength:  d("100"),
		TotalCost:    d("58.32"),
		MarkupExempt: decimal.Zero,
		Method:       "full_stock",
		Finish:       "Bronze",
		Area:         decimal.Zero,
		Usage:        d(cut).Div(d("100")),

		ListingStockLength: d("100"),
	}
}

func hinge() quote.BOMItem {
	ref := pricing.PartRef{Base: "H-1", Direction: "LHI"}
	return quote.BOMItem{
		Panel:        "Leaf",
		Component:    "Door Leaf",
		Ref:          ref,
		PartNumber:   ref.String(),
		Description:  "Hinge",
		PartType:     catalog.PartTypeHardware,
		Bucket:       pricing.BucketHardware,
		Quantity:     d("3"),
		UnitCost:     d("412.25"),
		FinishCost:   decimal.Zero,
		CutLength:    decimal.Zero,
		StockLength:  decimal.Zero,
		TotalCost:    d("1236.75"),
		MarkupExempt: d("1236.75"),
		Method:       "unit_cost",
		Finish:       "Bronze",
		Area:         decimal.Zero,
	}
}

func glass() quote.BOMItem {
	ref := pricing.PartRef{Base: "Clear"}
	return quote.BOMItem{
		Panel:        "Leaf",
		Component:    "Door Leaf",
		Ref:          ref,
		PartNumber:   ref.String(),
		Description:  "Glass 31.5 x 75.5",
		PartType:     catalog.PartTypeGlass,
		Bucket:       pricing.BucketGlass,
		Quantity:     d("1"),
		UnitCost:     d("198.24"),
		FinishCost:   decimal.Zero,
		CutLength:    decimal.Zero,
		StockLength:  decimal.Zero,
		TotalCost:    d("198.24"),
		MarkupExempt: decimal.Zero,
		Method:       quote.MethodGlassArea,
		Finish:       "Bronze",
		Area:         d("16.52"),
	}
}

func opening(name string, items ...quote.BOMItem) quote.OpeningQuote {
	o := quote.OpeningQuote{
		OpeningID:   uuid.New(),
		Name:        name,
		FinishColor: "Bronze",
		Components: []quote.ComponentQuote{{
			InstanceID:        uuid.New(),
			ProductID:         uuid.New(),
			ProductName:       "Door Leaf",
			Panel:             "Leaf",
			Width:             d("36"),
			Height:            d("80"),
			InstallationPrice: d("100"),
			Items:             items,
		}},
		Buckets: pricing.NewBucketTotals(),
	}
	for _, item := range items {
		o.Buckets.Add(item.Bucket, item.TotalCost, item.MarkupExempt)
	}
	return o
}

// sampleQuote prices two openings under a 35% / 20% / 15% markup with a
// 10% discount, flat installation and 8.25% tax.
func sampleQuote() *quote.ProjectQuote {
	mode := &project.PricingMode{
		Name:            "Retail",
		ExtrusionMarkup: decimal.NewNullDecimal(d("35")),
		HardwareMarkup:  decimal.NewNullDecimal(d("20")),
		GlassMarkup:     decimal.NewNullDecimal(d("15")),
		Discount:        d("10"),
	}
	q := &quote.ProjectQuote{
		ProjectID:     uuid.New(),
		Name:          "Smith Residence / Lobby",
		CostingMethod: strategy.CostingMethodFullStock,
		Openings: []quote.OpeningQuote{
			opening("Front Entry", stile("79.5"), stile("36"), hinge(), glass()),
			opening("Rear", stile("79.5"), glass()),
		},
		Buckets: pricing.NewBucketTotals(),
	}

	base, marked := decimal.Zero, decimal.Zero
	for i := range q.Openings {
		o := &q.Openings[i]
		o.Buckets.MarkUp(mode)
		o.TotalBase = o.Buckets.TotalBase()
		o.TotalMarkedUp = o.Buckets.TotalMarkedUp()
		q.Buckets.Merge(o.Buckets)
		base = base.Add(o.TotalBase)
		marked = marked.Add(o.TotalMarkedUp)
	}
	q.Totals = pricing.ComputeTotals(base, marked, d("250"), d("0.0825"))
	return q
}

func TestWritePricingDebug(t *testing.T) {
	q := sampleQuote()
	var buf bytes.Buffer
	require.NoError(t, WritePricingDebug(&buf, q))
	out := buf.String()

	assert.Contains(t, out, "Subtotal (Base),\"$1,808.19\"\n")
	assert.Contains(t, out, "Installation,$250.00\n")
	assert.Contains(t, out, "=== OPENING: Front Entry ===\n")
	assert.Contains(t, out, "=== OPENING: Rear ===\n")
	assert.Contains(t, out, "Hardware,\"$1,236.75\",\"$1,236.75\"\n")
	assert.Contains(t, out, strings.Join(BOMItemColumns, ",")+"\n")
	assert.Contains(t, out,
		"Leaf,Door Leaf,H-1-LHI,Hinge,Hardware,3,$412.25,$0.00,,,\"$1,236.75\",unit_cost,\"$1,236.75\"\n")
	assert.Contains(t, out,
		"Leaf,Door Leaf,E-100-BR-100,\"Stile, door\",Extrusion,2,$8.33,$20.83,79.5,100,$58.32,full_stock,$0.00\n")
}

func TestBOMSummary(t *testing.T) {
	rows := BOMSummary(sampleQuote())
	require.Len(t, rows, 4)

	assert.Equal(t, "Clear", rows[0].PartNumber)
	assert.Equal(t, "2", rows[0].Pieces.String())

	assert.Equal(t, "E-100-BR-100", rows[1].PartNumber)
	assert.Equal(t, "36", rows[1].CutLength.String())
	assert.Equal(t, "2", rows[1].Pieces.String())

	assert.Equal(t, "E-100-BR-100", rows[2].PartNumber)
	assert.Equal(t, "79.5", rows[2].CutLength.String())
	assert.Equal(t, "4", rows[2].Pieces.String())

	assert.Equal(t, "H-1-LHI", rows[3].PartNumber)

	assert.Equal(t, "100", rows[2].StockLength.String(), "listing stock length")

	var buf bytes.Buffer
	require.NoError(t, WriteBOMSummary(&buf, rows))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Part Number,Base Part Number,Description,Type,Pieces,Cut Length,Stock Length,Finish", lines[0])
	assert.Equal(t, "E-100-BR-100,E-100,\"Stile, door\",Extrusion,4,79.5,100,Bronze", lines[3])
}

func TestBOMSummaryWorkbook(t *testing.T) {
	q := sampleQuote()
	var buf bytes.Buffer
	require.NoError(t, WriteBOMSummaryXLSX(&buf, q.Name, BOMSummary(q)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(bomSheet)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, q.Name, rows[0][0])
	assert.Equal(t, BOMSummaryColumns, rows[1])
	assert.Equal(t, "E-100-BR-100", rows[4][0])
	assert.Equal(t, "4", rows[4][4])
	assert.Equal(t, "79.5", rows[4][5])
}

func TestPurchasingSummary(t *testing.T) {
	rows := PurchasingSummary(sampleQuote())
	require.Len(t, rows, 3)

	extrusion := rows[1]
	assert.Equal(t, "E-100-BR-100", extrusion.PartNumber)
	assert.Equal(t, "6", extrusion.Pieces.String())
	// 4 x 79.5 + 2 x 36 of 6 x 100
	assert.Equal(t, "390", extrusion.TotalLength.String())
	assert.Equal(t, "65", extrusion.Utilization().String())

	glassRow := rows[0]
	assert.Equal(t, "33.04", glassRow.Area.StringFixed(2))
	assert.True(t, glassRow.Utilization().IsZero())

	var buf bytes.Buffer
	require.NoError(t, WritePurchasingSummary(&buf, rows))
	out := buf.String()
	assert.Contains(t, out, "Part Number,Type,Pieces,Stock Length,Total Length,Utilization,Area\n")
	assert.Contains(t, out, "E-100-BR-100,Extrusion,6,100,390,65.0%,\n")
	assert.Contains(t, out, "Clear,Glass,2,,,,33.04\n")
	assert.Contains(t, out, "H-1-LHI,Hardware,3,,,,\n")
}

func TestReconcile(t *testing.T) {
	svc := NewService(Config{}, zaptest.NewLogger(t))
	rendered, err := svc.Render(context.Background(), sampleQuote())
	require.NoError(t, err)

	t.Run("rendered reports agree", func(t *testing.T) {
		result, err := svc.Reconcile(context.Background(), rendered)
		require.NoError(t, err)
		assert.True(t, result.OK(), "failed: %+v", result.Failed())
		assert.NotEmpty(t, result.Checks)
	})

	t.Run("tampered grand total is caught", func(t *testing.T) {
		tampered := *rendered
		q := sampleQuote()
		wrong := q.Totals.GrandTotal.Add(d("1"))
		tampered.PricingDebug = bytes.Replace(rendered.PricingDebug,
			[]byte("Grand Total,"+csvField(money(q.Totals.GrandTotal))),
			[]byte("Grand Total,"+csvField(money(wrong))), 1)
		require.NotEqual(t, rendered.PricingDebug, tampered.PricingDebug)

		result, err := svc.Reconcile(context.Background(), &tampered)
		require.NoError(t, err)
		assert.False(t, result.OK())
		require.Len(t, result.Failed(), 1)
		assert.Equal(t, "grand total", result.Failed()[0].Name)
	})

	t.Run("missing purchasing line is caught", func(t *testing.T) {
		tampered := *rendered
		tampered.Purchasing = []byte(strings.Replace(string(rendered.Purchasing), "H-1-LHI,Hardware,3,,,,\n", "", 1))

		result, err := svc.Reconcile(context.Background(), &tampered)
		require.NoError(t, err)
		assert.False(t, result.OK())
		var names []string
		for _, c := range result.Failed() {
			names = append(names, c.Name)
		}
		assert.ElementsMatch(t, []string{"purchasing pieces", "purchasing pieces of H-1-LHI", "purchasing pieces of base H-1"}, names)
	})

	t.Run("miscounted BOM row is caught by part and base", func(t *testing.T) {
		tampered := *rendered
		row := "E-100-BR-100,E-100,\"Stile, door\",Extrusion,4,79.5,100,Bronze\n"
		require.Contains(t, string(rendered.BOMSummary), row)
		tampered.BOMSummary = []byte(strings.Replace(string(rendered.BOMSummary), row, strings.Replace(row, ",4,", ",5,", 1), 1))

		result, err := svc.Reconcile(context.Background(), &tampered)
		require.NoError(t, err)
		var names []string
		for _, c := range result.Failed() {
			names = append(names, c.Name)
		}
		assert.ElementsMatch(t, []string{"BOM pieces", "BOM pieces of E-100-BR-100", "purchasing pieces of base E-100"}, names)
	})

	t.Run("unreadable report", func(t *testing.T) {
		_, err := Reconcile(strings.NewReader(""), bytes.NewReader(rendered.BOMSummary), bytes.NewReader(rendered.Purchasing))
		assert.Error(t, err)

		_, err = Reconcile(bytes.NewReader(rendered.PricingDebug), strings.NewReader("Part,Qty\nA,1"), bytes.NewReader(rendered.Purchasing))
		assert.Error(t, err)
	})
}

func csvField(s string) string {
	if strings.Contains(s, ",") {
		return `"` + s + `"`
	}
	return s
}

func TestService_WriteAll(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{OutputDir: dir, WriteXLSX: true}, zaptest.NewLogger(t))
	metrics := &recordingMetrics{}
	svc.SetMetrics(metrics)

	q := sampleQuote()
	rendered, files, err := svc.WriteAll(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, dir+"/smith_residence_lobby_pricing_debug.csv", files.PricingDebug)
	for _, path := range []string{files.PricingDebug, files.BOMSummary, files.Purchasing, files.BOMWorkbook} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Positive(t, info.Size(), path)
	}

	onDisk, err := os.ReadFile(files.BOMSummary)
	require.NoError(t, err)
	assert.Equal(t, rendered.BOMSummary, onDisk)
	assert.Equal(t, []string{ReportPricingDebug, ReportBOMSummary, ReportPurchasing, ReportBOMSummary + "_xlsx"}, metrics.written)
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Smith Residence / Lobby": "smith_residence_lobby",
		"  ":                      "project",
		"Unit 4B!":                "unit_4b",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

type recordingMetrics struct {
	written    []string
	reconciled []bool
}

func (m *recordingMetrics) RecordReportWritten(_ context.Context, report string) {
	m.written = append(m.written, report)
}

func (m *recordingMetrics) RecordReconcile(_ context.Context, ok bool) {
	m.reconciled = append(m.reconciled, ok)
}
