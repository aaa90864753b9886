package pricing

import (
	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// Bucket is a cost category that receives its own markup
type Bucket string

const (
	BucketExtrusion Bucket = "extrusion"
	BucketHardware  Bucket = "hardware"
	BucketGlass     Bucket = "glass"
	BucketPackaging Bucket = "packaging"
	BucketOther     Bucket = "other"
)

// AllBuckets lists the buckets in report order
var AllBuckets = []Bucket{BucketExtrusion, BucketHardware, BucketGlass, BucketPackaging, BucketOther}

var bucketLabels = map[Bucket]string{
	BucketExtrusion: "Extrusion",
	BucketHardware:  "Hardware",
	BucketGlass:     "Glass",
	BucketPackaging: "Packaging",
	BucketOther:     "Other",
}

// Label returns the report label of the bucket
func (b Bucket) Label() string {
	if l, ok := bucketLabels[b]; ok {
		return l
	}
	return string(b)
}

// BucketFor maps a part type to its bucket. Option-driven lines go to hardware.
func BucketFor(partType catalog.PartType, fromOption bool) Bucket {
	if fromOption {
		return BucketHardware
	}
	switch partType {
	case catalog.PartTypeExtrusion, catalog.PartTypeCutStock:
		return BucketExtrusion
	case catalog.PartTypeHardware, catalog.PartTypeFastener:
		return BucketHardware
	case catalog.PartTypeGlass:
		return BucketGlass
	case catalog.PartTypePackaging:
		return BucketPackaging
	default:
		return BucketOther
	}
}

// BucketTotal is the rollup of one bucket
type BucketTotal struct {
	Base     decimal.Decimal
	Exempt   decimal.Decimal // portion of Base that receives no markup
	MarkedUp decimal.Decimal
	Markup   Lookup
}

// BucketTotals holds one total per bucket
type BucketTotals map[Bucket]BucketTotal

// NewBucketTotals returns zeroed totals for every bucket
func NewBucketTotals() BucketTotals {
	t := make(BucketTotals, len(AllBuckets))
	for _, b := range AllBuckets {
		t[b] = BucketTotal{Base: decimal.Zero, Exempt: decimal.Zero, MarkedUp: decimal.Zero}
	}
	return t
}

// Add accumulates a line cost into a bucket
func (t BucketTotals) Add(b Bucket, base, exempt decimal.Decimal) {
	cur := t[b]
	cur.Base = cur.Base.Add(base)
	cur.Exempt = cur.Exempt.Add(exempt)
	t[b] = cur
}

// Merge adds another set of totals (including marked-up amounts) into t
func (t BucketTotals) Merge(other BucketTotals) {
	for b, o := range other {
		cur := t[b]
		cur.Base = cur.Base.Add(o.Base)
		cur.Exempt = cur.Exempt.Add(o.Exempt)
		cur.MarkedUp = cur.MarkedUp.Add(o.MarkedUp)
		if !cur.Markup.Found {
			cur.Markup = o.Markup
		}
		t[b] = cur
	}
}

// TotalBase sums base cost across buckets
func (t BucketTotals) TotalBase() decimal.Decimal {
	sum := decimal.Zero
	for _, b := range AllBuckets {
		sum = sum.Add(t[b].Base)
	}
	return sum
}

// TotalMarkedUp sums marked-up cost across buckets
func (t BucketTotals) TotalMarkedUp() decimal.Decimal {
	sum := decimal.Zero
	for _, b := range AllBuckets {
		sum = sum.Add(t[b].MarkedUp)
	}
	return sum
}
