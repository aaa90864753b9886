// Package csvimport reads rendered report CSVs back so totals can be
// reconciled across reports.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/quoteworks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// utf8BOM is written by spreadsheet tools that re-save a report
const utf8BOM = "\xEF\xBB\xBF"

// encodingProbe is how much of the input is checked for valid UTF-8
const encodingProbe = 4096

// CSVParser walks a report record by record. Reports are sectioned, so a
// header can be adopted part way through the file and later records are
// mapped onto it.
type CSVParser struct {
	reader  *csv.Reader
	line    int
	mapped  int
	headers []string
	index   map[string]int
}

// NewCSVParser wraps r. A leading byte order mark is dropped; an empty or
// non-UTF-8 input is rejected before any record is read.
func NewCSVParser(r io.Reader) (*CSVParser, error) {
	br := bufio.NewReaderSize(r, 2*encodingProbe)
	if head, _ := br.Peek(len(utf8BOM)); string(head) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	probe, err := br.Peek(encodingProbe)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	switch {
	case len(probe) == 0:
		return nil, ErrEmptyFile
	case !utf8.Valid(trimPartialRune(probe)):
		return nil, ErrInvalidEncoding
	}

	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	return &CSVParser{reader: cr, index: map[string]int{}}, nil
}

// trimPartialRune drops a multi-byte rune cut off at the end of a full probe
func trimPartialRune(b []byte) []byte {
	if len(b) < encodingProbe {
		return b
	}
	for i := 1; i < utf8.UTFMax && !utf8.Valid(b); i++ {
		b = b[:len(b)-1]
	}
	return b
}

// ReadRecord returns the next record with every field trimmed. Blank lines
// never surface; io.EOF marks the end.
func (p *CSVParser) ReadRecord() ([]string, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.line++
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", p.line, err)
	}
	for i, f := range record {
		record[i] = strings.TrimSpace(f)
	}
	return record, nil
}

// ParseHeader adopts the next record as the header for the records after it
func (p *CSVParser) ParseHeader() error {
	record, err := p.ReadRecord()
	switch {
	case err == io.EOF, err == nil && len(record) == 0:
		return ErrMissingHeader
	case err != nil:
		return fmt.Errorf("reading header: %w", err)
	}
	p.headers = record
	p.index = make(map[string]int, len(record))
	for i, h := range record {
		p.index[h] = i
	}
	return nil
}

func (p *CSVParser) Headers() []string {
	return p.headers
}

// ValidateHeaders lists the required columns the current header lacks
func (p *CSVParser) ValidateHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if _, ok := p.index[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// CurrentRow is the 1-based line of the last record read
func (p *CSVParser) CurrentRow() int {
	return p.line
}

// TotalRows counts records mapped onto a header
func (p *CSVParser) TotalRows() int {
	return p.mapped
}

// Row is a record keyed by the header in force when it was read
type Row struct {
	LineNumber int
	Data       map[string]string
	RawFields  []string
}

// NewRow keys record by the current header. Short records get empty cells.
func (p *CSVParser) NewRow(record []string) *Row {
	p.mapped++
	data := make(map[string]string, len(p.headers))
	for i, h := range p.headers {
		if i < len(record) {
			data[h] = record[i]
		} else {
			data[h] = ""
		}
	}
	return &Row{LineNumber: p.line, Data: data, RawFields: record}
}

// ReadAllRows maps every remaining non-empty record onto the header
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		record, err := p.ReadRecord()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		row := p.NewRow(record)
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
}

func (r *Row) Get(header string) string {
	return r.Data[header]
}

func (r *Row) IsEmpty() bool {
	for _, v := range r.RawFields {
		if v != "" {
			return false
		}
	}
	return true
}

// Decimal reads a quantity or percentage cell. Thousands separators and a
// trailing percent sign are ignored; an empty cell reads as zero.
func (r *Row) Decimal(header string) (decimal.Decimal, error) {
	v := strings.TrimSuffix(strings.ReplaceAll(r.Data[header], ",", ""), "%")
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, cellError(*r, header, ErrCodeInvalidNumber, "expected a number")
	}
	return d, nil
}

// Currency reads a money cell rendered as "$1,234.56"
func (r *Row) Currency(header string) (decimal.Decimal, error) {
	d, err := valueobject.ParseCurrency(r.Data[header])
	if err != nil {
		return decimal.Zero, cellError(*r, header, ErrCodeInvalidCurrency, "expected a currency amount")
	}
	return d, nil
}
