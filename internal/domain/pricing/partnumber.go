package pricing

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// PartRef is the structured identity of a physical part. The display part
// number is derived from it and never parsed back.
type PartRef struct {
	Base        string
	FinishCode  string
	StockLength decimal.Decimal // zero when no stock suffix applies
	Direction   string
}

// String renders the display part number: base, then finish code, then
// stock length, then direction, joined by "-".
func (r PartRef) String() string {
	parts := []string{r.Base}
	if r.FinishCode != "" {
		parts = append(parts, r.FinishCode)
	}
	if r.StockLength.IsPositive() {
		parts = append(parts, r.StockLength.String())
	}
	if r.Direction != "" {
		parts = append(parts, r.Direction)
	}
	return strings.Join(parts, "-")
}

// DirectionCode returns the initials of the swing direction, or of the
// sliding direction when no swing direction is set.
// "Left Hand Inswing" -> "LHI".
func DirectionCode(swing, sliding string) string {
	direction := strings.TrimSpace(swing)
	if direction == "" {
		direction = strings.TrimSpace(sliding)
	}

	var b strings.Builder
	for _, word := range strings.FieldsFunc(direction, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	}) {
		b.WriteRune(unicode.ToUpper([]rune(word)[0]))
	}
	return b.String()
}
