package quote

import (
	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/pricing"
	"github.com/quoteworks/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// Method labels that do not come from a costing strategy or a lookup
const (
	MethodIncluded  = "included"
	MethodGlassArea = "glass_area"
)

// BOMItem is one priced line of a component's bill of materials.
// TotalCost is the base cost of all pieces; MarkupExempt is the part of it
// that receives no markup.
type BOMItem struct {
	Panel       string
	Component   string
	Ref         pricing.PartRef
	PartNumber  string // display part number, Ref.String()
	Description string
	PartType    catalog.PartType
	Bucket      pricing.Bucket
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal // material per piece
	FinishCost  decimal.Decimal // finish per piece
	CutLength   decimal.Decimal // inches, zero for uncut parts
	StockLength decimal.Decimal // inches, zero when no stock rule applies
	// ListingStockLength is the bar the BOM listing shows for the cut, picked
	// by its length alone; zero when no rule lists it
	ListingStockLength decimal.Decimal
	TotalCost   decimal.Decimal
	// MarkupExempt is the portion of TotalCost excluded from markup
	MarkupExempt decimal.Decimal
	Method       string
	Finish       string
	Area         decimal.Decimal // square feet per piece
	Usage        decimal.Decimal // cut length / stock length

	Option                 string              // "Category: Option" for option-driven lines
	StandardEquivalentCost decimal.NullDecimal // what the standard option would have cost
	ListPrice              decimal.NullDecimal // computed price of an included option
}

// NoCost reports whether the line could not be priced from the catalog
func (i BOMItem) NoCost() bool {
	return i.Method == string(pricing.SourceNoCostFound)
}

// ComponentQuote is the priced BOM of one component instance
type ComponentQuote struct {
	InstanceID        uuid.UUID
	ProductID         uuid.UUID
	ProductName       string
	Panel             string
	Width             decimal.Decimal
	Height            decimal.Decimal
	InstallationPrice decimal.Decimal
	Items             []BOMItem
}

// TotalBase sums the base cost of the component's items
func (c ComponentQuote) TotalBase() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.TotalCost)
	}
	return sum
}

// OpeningQuote is the rollup of one opening
type OpeningQuote struct {
	OpeningID     uuid.UUID
	Name          string
	FinishColor   string
	Components    []ComponentQuote
	Buckets       pricing.BucketTotals
	TotalBase     decimal.Decimal
	TotalMarkedUp decimal.Decimal
}

// Items returns the BOM items of every component in order
func (o OpeningQuote) Items() []BOMItem {
	var items []BOMItem
	for _, c := range o.Components {
		items = append(items, c.Items...)
	}
	return items
}

// ProjectQuote is the priced project
type ProjectQuote struct {
	ProjectID     uuid.UUID
	Name          string
	CostingMethod strategy.CostingMethod
	Openings      []OpeningQuote
	Buckets       pricing.BucketTotals
	Totals        pricing.Totals
	NoCostLines   int
}

// Items returns the BOM items of every opening in order
func (q *ProjectQuote) Items() []BOMItem {
	var items []BOMItem
	for _, o := range q.Openings {
		items = append(items, o.Items()...)
	}
	return items
}
