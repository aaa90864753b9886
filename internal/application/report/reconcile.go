package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/quoteworks/backend/internal/domain/pricing"
	csvimport "github.com/quoteworks/backend/internal/infrastructure/import"
	"github.com/shopspring/decimal"
)

// Tolerance is the largest money difference accepted between two reports
var Tolerance = decimal.RequireFromString("0.02")

// Check is the outcome of one cross-report comparison
type Check struct {
	Name     string
	Expected decimal.Decimal
	Actual   decimal.Decimal
	OK       bool
}

// Reconciliation holds every cross-report check
type Reconciliation struct {
	Checks []Check
}

// OK reports whether every check passed
func (r *Reconciliation) OK() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Failed returns the checks that did not pass
func (r *Reconciliation) Failed() []Check {
	var failed []Check
	for _, c := range r.Checks {
		if !c.OK {
			failed = append(failed, c)
		}
	}
	return failed
}

func (r *Reconciliation) money(name string, expected, actual decimal.Decimal) {
	r.Checks = append(r.Checks, Check{
		Name:     name,
		Expected: expected,
		Actual:   actual,
		OK:       expected.Sub(actual).Abs().LessThanOrEqual(Tolerance),
	})
}

func (r *Reconciliation) exact(name string, expected, actual decimal.Decimal) {
	r.Checks = append(r.Checks, Check{Name: name, Expected: expected, Actual: actual, OK: expected.Equal(actual)})
}

// debugOpening is one opening block read back from the pricing-debug report
type debugOpening struct {
	name          string
	totalBase     decimal.Decimal
	totalMarkedUp decimal.Decimal
	bucketBase    decimal.Decimal
	bucketMarked  decimal.Decimal
	itemsTotal    decimal.Decimal
	itemsQuantity decimal.Decimal
	pieces        map[string]decimal.Decimal
}

// debugReport is the pricing-debug report read back
type debugReport struct {
	scalars  map[string]decimal.Decimal
	openings []*debugOpening
}

// Reconcile reads the three rendered reports back and verifies that they
// agree: opening totals sum to the subtotals, the grand total adds up, item
// totals sum to the base subtotal, and piece counts match across reports,
// per part number and per base part number.
func Reconcile(debug, bom, purchasing io.Reader) (*Reconciliation, error) {
	d, err := readDebug(debug)
	if err != nil {
		return nil, err
	}
	bomPieces, bases, err := readPieces(bom, "BOM summary")
	if err != nil {
		return nil, err
	}
	purchasingPieces, _, err := readPieces(purchasing, "purchasing summary")
	if err != nil {
		return nil, err
	}

	r := &Reconciliation{}
	subtotalBase := d.scalars[LabelSubtotalBase]
	subtotalMarkedUp := d.scalars[LabelSubtotalMarkedUp]

	sumBase, sumMarkedUp, itemsTotal, itemsQuantity := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	debugPieces := make(map[string]decimal.Decimal)
	for _, o := range d.openings {
		sumBase = sumBase.Add(o.totalBase)
		sumMarkedUp = sumMarkedUp.Add(o.totalMarkedUp)
		itemsTotal = itemsTotal.Add(o.itemsTotal)
		itemsQuantity = itemsQuantity.Add(o.itemsQuantity)
		for pn, q := range o.pieces {
			debugPieces[pn] = debugPieces[pn].Add(q)
		}

		r.money("opening "+o.name+" categories (base)", o.totalBase, o.bucketBase)
		r.money("opening "+o.name+" categories (marked up)", o.totalMarkedUp, o.bucketMarked)
		r.money("opening "+o.name+" items (base)", o.totalBase, o.itemsTotal)
	}

	r.money("openings sum to subtotal (base)", subtotalBase, sumBase)
	r.money("openings sum to subtotal (marked up)", subtotalMarkedUp, sumMarkedUp)
	r.money("items sum to subtotal (base)", subtotalBase, itemsTotal)
	r.exact("grand total", subtotalMarkedUp.Add(d.scalars[LabelInstallation]).Add(d.scalars[LabelTax]), d.scalars[LabelGrandTotal])

	r.exact("BOM pieces", itemsQuantity, sumPieces(bomPieces))
	r.exact("purchasing pieces", itemsQuantity, sumPieces(purchasingPieces))
	for _, pn := range sortedKeys(debugPieces) {
		r.exact("BOM pieces of "+pn, debugPieces[pn], bomPieces[pn])
		r.exact("purchasing pieces of "+pn, debugPieces[pn], purchasingPieces[pn])
	}

	// the purchasing summary has no base column; its part numbers map to
	// bases through the BOM summary
	bomByBase := piecesByBase(bomPieces, bases)
	purchasingByBase := piecesByBase(purchasingPieces, bases)
	for _, base := range sortedKeys(bomByBase) {
		r.exact("purchasing pieces of base "+base, bomByBase[base], purchasingByBase[base])
	}
	return r, nil
}

// piecesByBase totals pieces per base part number, ignoring finish, stock
// length and direction suffixes. Part numbers without a known base count
// under themselves.
func piecesByBase(pieces map[string]decimal.Decimal, bases map[string]string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(pieces))
	for pn, q := range pieces {
		base, ok := bases[pn]
		if !ok {
			base = pn
		}
		out[base] = out[base].Add(q)
	}
	return out
}

func readDebug(src io.Reader) (*debugReport, error) {
	parser, err := csvimport.NewCSVParser(src)
	if err != nil {
		return nil, fmt.Errorf("reading pricing debug report: %w", err)
	}

	rep := &debugReport{scalars: make(map[string]decimal.Decimal)}
	errs := csvimport.NewErrorCollection(20)
	var current *debugOpening
	inItems := false

	for {
		record, err := parser.ReadRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading pricing debug report: %w", err)
		}
		label := record[0]

		switch {
		case strings.HasPrefix(label, OpeningPrefix):
			current = &debugOpening{
				name:          strings.TrimSuffix(strings.TrimPrefix(label, OpeningPrefix), OpeningSuffix),
				totalBase:     decimal.Zero,
				totalMarkedUp: decimal.Zero,
				bucketBase:    decimal.Zero,
				bucketMarked:  decimal.Zero,
				itemsTotal:    decimal.Zero,
				itemsQuantity: decimal.Zero,
				pieces:        make(map[string]decimal.Decimal),
			}
			rep.openings = append(rep.openings, current)
			inItems = false

		case label == SectionBOMItems:
			if current == nil {
				errs.Add(csvimport.NewRowError(parser.CurrentRow(), "", csvimport.ErrCodeMissingSection, "BOM ITEMS outside an opening"))
				continue
			}
			if err := parser.ParseHeader(); err != nil {
				return nil, fmt.Errorf("reading BOM ITEMS of %s: %w", current.name, err)
			}
			if missing := parser.ValidateHeaders(BOMItemColumns); len(missing) > 0 {
				return nil, fmt.Errorf("%w: BOM ITEMS of %s lacks %s", csvimport.ErrMissingHeader, current.name, strings.Join(missing, ", "))
			}
			inItems = true

		case inItems:
			row := parser.NewRow(record)
			qty, err := row.Decimal("Quantity")
			errs.Add(err)
			total, err := row.Currency("Total Cost")
			errs.Add(err)
			pn := row.Get("Part Number")
			current.itemsQuantity = current.itemsQuantity.Add(qty)
			current.itemsTotal = current.itemsTotal.Add(total)
			current.pieces[pn] = current.pieces[pn].Add(qty)

		case current == nil && len(record) > 1 && isScalar(label):
			v, err := valueOf(parser, record)
			errs.Add(err)
			rep.scalars[label] = v

		case current != nil && len(record) > 1:
			v, err := valueOf(parser, record)
			errs.Add(err)
			switch {
			case label == LabelOpeningTotalBase:
				current.totalBase = v
			case label == LabelOpeningTotalMarkup:
				current.totalMarkedUp = v
			case isBucketLabel(label) && len(record) > 2:
				marked, err := valueOf(parser, record[1:])
				errs.Add(err)
				current.bucketBase = current.bucketBase.Add(v)
				current.bucketMarked = current.bucketMarked.Add(marked)
			}
		}
	}

	if err := errs.Err(); err != nil {
		return nil, fmt.Errorf("reading pricing debug report: %w", err)
	}
	for _, label := range []string{LabelSubtotalBase, LabelSubtotalMarkedUp, LabelGrandTotal} {
		if _, ok := rep.scalars[label]; !ok {
			return nil, fmt.Errorf("reading pricing debug report: missing %q line", label)
		}
	}
	return rep, nil
}

// valueOf parses the money amount in the second field of a record
func valueOf(parser *csvimport.CSVParser, record []string) (decimal.Decimal, error) {
	row := &csvimport.Row{LineNumber: parser.CurrentRow(), Data: map[string]string{record[0]: record[1]}, RawFields: record}
	return row.Currency(record[0])
}

func isScalar(label string) bool {
	switch label {
	case LabelSubtotalBase, LabelSubtotalMarkedUp, LabelInstallation, LabelTax, LabelGrandTotal:
		return true
	}
	return false
}

func isBucketLabel(label string) bool {
	for _, b := range pricing.AllBuckets {
		if b.Label() == label {
			return true
		}
	}
	return false
}

// readPieces totals the Pieces column per part number. When the report has a
// Base Part Number column it also returns each part number's base.
func readPieces(src io.Reader, name string) (map[string]decimal.Decimal, map[string]string, error) {
	parser, err := csvimport.NewCSVParser(src)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if missing := parser.ValidateHeaders([]string{"Part Number", "Pieces"}); len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s lacks %s", csvimport.ErrMissingHeader, name, strings.Join(missing, ", "))
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", name, err)
	}
	errs := csvimport.NewErrorCollection(20)
	pieces := make(map[string]decimal.Decimal, len(rows))
	bases := make(map[string]string)
	for _, row := range rows {
		q, err := row.Decimal("Pieces")
		errs.Add(err)
		pn := row.Get("Part Number")
		pieces[pn] = pieces[pn].Add(q)
		if base := row.Get("Base Part Number"); base != "" {
			bases[pn] = base
		}
	}
	if err := errs.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return pieces, bases, nil
}

func sumPieces(m map[string]decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, q := range m {
		sum = sum.Add(q)
	}
	return sum
}
