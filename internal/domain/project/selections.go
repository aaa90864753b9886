package project

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// QuantitySuffix marks a user quantity entry in the serialized option map
const QuantitySuffix = "_qty"

// Selections are the option choices made for one component instance
type Selections struct {
	Options    map[uuid.UUID]uuid.UUID       // category -> option
	Quantities map[uuid.UUID]decimal.Decimal // category -> user quantity
	Variants   map[uuid.UUID]uuid.UUID       // option -> variant
	Included   map[uuid.UUID]struct{}        // options billed at zero
}

// NewSelections returns empty selections
func NewSelections() Selections {
	return Selections{
		Options:    make(map[uuid.UUID]uuid.UUID),
		Quantities: make(map[uuid.UUID]decimal.Decimal),
		Variants:   make(map[uuid.UUID]uuid.UUID),
		Included:   make(map[uuid.UUID]struct{}),
	}
}

// Option returns the option explicitly selected for a category
func (s Selections) Option(categoryID uuid.UUID) (uuid.UUID, bool) {
	id, ok := s.Options[categoryID]
	return id, ok
}

// Quantity returns the user quantity entered for a category.
// A stored zero means the category was explicitly excluded.
func (s Selections) Quantity(categoryID uuid.UUID) (decimal.Decimal, bool) {
	q, ok := s.Quantities[categoryID]
	return q, ok
}

// Variant returns the variant selected for an option
func (s Selections) Variant(optionID uuid.UUID) (uuid.UUID, bool) {
	id, ok := s.Variants[optionID]
	return id, ok
}

// IsIncluded reports whether an option is billed at zero
func (s Selections) IsIncluded(optionID uuid.UUID) bool {
	_, ok := s.Included[optionID]
	return ok
}

// Validate checks that user quantities are not negative
func (s Selections) Validate() error {
	for cat, q := range s.Quantities {
		if q.IsNegative() {
			return fmt.Errorf("%w: negative quantity for category %s", shared.ErrInvalidInput, cat)
		}
	}
	return nil
}

type selectionsJSON struct {
	Options  map[string]json.RawMessage `json:"options,omitempty"`
	Variants map[string]string          `json:"variants,omitempty"`
	Included []string                   `json:"included,omitempty"`
}

// MarshalJSON writes the option map with "<categoryId>_qty" quantity keys
func (s Selections) MarshalJSON() ([]byte, error) {
	out := selectionsJSON{
		Options:  make(map[string]json.RawMessage, len(s.Options)+len(s.Quantities)),
		Variants: make(map[string]string, len(s.Variants)),
	}
	for cat, opt := range s.Options {
		raw, err := json.Marshal(opt.String())
		if err != nil {
			return nil, err
		}
		out.Options[cat.String()] = raw
	}
	for cat, q := range s.Quantities {
		out.Options[cat.String()+QuantitySuffix] = json.RawMessage(q.String())
	}
	for opt, variant := range s.Variants {
		out.Variants[opt.String()] = variant.String()
	}
	for opt := range s.Included {
		out.Included = append(out.Included, opt.String())
	}
	slices.Sort(out.Included)
	return json.Marshal(out)
}

// UnmarshalJSON parses and validates the serialized selections
func (s *Selections) UnmarshalJSON(data []byte) error {
	*s = NewSelections()
	if len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	var in selectionsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: selections: %v", shared.ErrInvalidInput, err)
	}

	for key, raw := range in.Options {
		if catKey, ok := strings.CutSuffix(key, QuantitySuffix); ok {
			cat, err := parseID("category", catKey)
			if err != nil {
				return err
			}
			q, err := parseQuantity(raw)
			if err != nil {
				return fmt.Errorf("%w: quantity for category %s: %v", shared.ErrInvalidInput, catKey, err)
			}
			s.Quantities[cat] = q
			continue
		}

		cat, err := parseID("category", key)
		if err != nil {
			return err
		}
		var optText string
		if err := json.Unmarshal(raw, &optText); err != nil {
			return fmt.Errorf("%w: option for category %s must be a string", shared.ErrInvalidInput, key)
		}
		if optText == "" {
			continue
		}
		opt, err := parseID("option", optText)
		if err != nil {
			return err
		}
		s.Options[cat] = opt
	}

	for optKey, variantText := range in.Variants {
		opt, err := parseID("option", optKey)
		if err != nil {
			return err
		}
		variant, err := parseID("variant", variantText)
		if err != nil {
			return err
		}
		s.Variants[opt] = variant
	}

	for _, optText := range in.Included {
		opt, err := parseID("option", optText)
		if err != nil {
			return err
		}
		s.Included[opt] = struct{}{}
	}

	return s.Validate()
}

// Value implements driver.Valuer
func (s Selections) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (s *Selections) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*s = NewSelections()
		return nil
	case string:
		return s.UnmarshalJSON([]byte(v))
	case []byte:
		return s.UnmarshalJSON(v)
	default:
		return fmt.Errorf("cannot scan %T into Selections", value)
	}
}

func parseID(kind, text string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(text))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s id %q", shared.ErrInvalidInput, kind, text)
	}
	return id, nil
}

func parseQuantity(raw json.RawMessage) (decimal.Decimal, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return decimal.NewFromString(strings.TrimSpace(text))
	}
	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
