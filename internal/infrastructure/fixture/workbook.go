// Package fixture loads catalog and project data from a YAML workbook into an
// in-memory store that serves the catalog and project repositories.
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/quoteworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Workbook is the YAML document. Records reference each other by key.
type Workbook struct {
	Settings     *SettingsDoc     `yaml:"settings"`
	Parts        []PartDoc        `yaml:"parts" validate:"dive"`
	Finishes     []FinishDoc      `yaml:"finishes" validate:"dive"`
	GlassTypes   []GlassDoc       `yaml:"glass_types" validate:"dive"`
	Categories   []CategoryDoc    `yaml:"option_categories" validate:"dive"`
	Products     []ProductDoc     `yaml:"products" validate:"dive"`
	PricingModes []PricingModeDoc `yaml:"pricing_modes" validate:"dive"`
	Projects     []ProjectDoc     `yaml:"projects" validate:"dive"`
}

// SettingsDoc holds catalog-wide pricing defaults
type SettingsDoc struct {
	PricePerPound *decimal.Decimal `yaml:"price_per_pound"`
}

// PartDoc is a master part with its stock lengths and pricing rule
type PartDoc struct {
	PartNumber       string           `yaml:"part_number" validate:"required"`
	Description      string           `yaml:"description"`
	Type             string           `yaml:"type" validate:"required,oneof=Extrusion CutStock Hardware Fastener Packaging Glass Option"`
	UnitOfMeasure    string           `yaml:"uom" validate:"omitempty,oneof=EA LF IN SQFT"`
	UnitCost         decimal.Decimal  `yaml:"unit_cost"`
	WeightPerFoot    decimal.Decimal  `yaml:"weight_per_foot"`
	CustomPricePerLb *decimal.Decimal `yaml:"custom_price_per_lb"`
	Perimeter        decimal.Decimal  `yaml:"perimeter"`
	MillFinish       bool             `yaml:"mill_finish"`
	AppendDirection  bool             `yaml:"append_direction"`
	StockLengths     []StockLengthDoc `yaml:"stock_lengths" validate:"dive"`
	Formula          string           `yaml:"formula"`
	BasePrice        *decimal.Decimal `yaml:"base_price"`
}

// StockLengthDoc is one stock bar rule
type StockLengthDoc struct {
	Length    decimal.Decimal  `yaml:"length"`
	Price     *decimal.Decimal `yaml:"price"`
	MinWidth  *decimal.Decimal `yaml:"min_width"`
	MaxWidth  *decimal.Decimal `yaml:"max_width"`
	MinHeight *decimal.Decimal `yaml:"min_height"`
	MaxHeight *decimal.Decimal `yaml:"max_height"`
	Inactive  bool             `yaml:"inactive"`
}

// FinishDoc is a finish color priced by area
type FinishDoc struct {
	Name         string          `yaml:"name" validate:"required"`
	Code         string          `yaml:"code"`
	PricePerSqFt decimal.Decimal `yaml:"price_per_sqft"`
}

// GlassDoc is a glass type priced by area
type GlassDoc struct {
	Name         string          `yaml:"name" validate:"required"`
	PricePerSqFt decimal.Decimal `yaml:"price_per_sqft"`
}

// CategoryDoc is an option category
type CategoryDoc struct {
	Key     string      `yaml:"key" validate:"required"`
	Name    string      `yaml:"name" validate:"required"`
	Options []OptionDoc `yaml:"options" validate:"dive"`
}

// OptionDoc is one selectable option
type OptionDoc struct {
	Key         string           `yaml:"key" validate:"required"`
	Name        string           `yaml:"name" validate:"required"`
	PartNumber  string           `yaml:"part_number"`
	Price       *decimal.Decimal `yaml:"price"`
	CutListItem bool             `yaml:"cut_list_item"`
	Variants    []VariantDoc     `yaml:"variants" validate:"dive"`
	LinkedParts []LinkedPartDoc  `yaml:"linked_parts" validate:"dive"`
}

// VariantDoc is a variant of an option
type VariantDoc struct {
	Key     string `yaml:"key" validate:"required"`
	Name    string `yaml:"name" validate:"required"`
	Default bool   `yaml:"default"`
}

// LinkedPartDoc is a part added with an option, optionally only for one variant
type LinkedPartDoc struct {
	PartNumber string           `yaml:"part_number" validate:"required"`
	Quantity   *decimal.Decimal `yaml:"quantity"`
	Variant    string           `yaml:"variant"`
}

// ProductDoc is a product with its BOM
type ProductDoc struct {
	Key               string          `yaml:"key" validate:"required"`
	Name              string          `yaml:"name" validate:"required"`
	Type              string          `yaml:"type" validate:"required,oneof=DOOR_LEAF SLIDING_PANEL FIXED_PANEL FRAME"`
	InstallationPrice decimal.Decimal `yaml:"installation_price"`
	Glass             *GlassFormulas  `yaml:"glass"`
	BOM               []BOMLineDoc    `yaml:"bom" validate:"dive"`
	Categories        []BindingDoc    `yaml:"categories" validate:"dive"`
}

// GlassFormulas are the glass size formulas of a product
type GlassFormulas struct {
	Width    string `yaml:"width"`
	Height   string `yaml:"height"`
	Quantity string `yaml:"quantity"`
}

// BOMLineDoc is one BOM line. Option is "<category>/<option>".
type BOMLineDoc struct {
	Type        string           `yaml:"type" validate:"required,oneof=Extrusion CutStock Hardware Fastener Packaging Glass Option"`
	PartNumber  string           `yaml:"part_number"`
	Description string           `yaml:"description"`
	Formula     string           `yaml:"formula"`
	Quantity    *decimal.Decimal `yaml:"quantity"`
	Mode        string           `yaml:"mode" validate:"omitempty,oneof=FIXED RANGE"`
	Min         *decimal.Decimal `yaml:"min"`
	Default     *decimal.Decimal `yaml:"default"`
	Option      string           `yaml:"option" validate:"omitempty,contains=/"`
	Milled      bool             `yaml:"milled"`
	AddFinish   bool             `yaml:"add_finish"`
}

// BindingDoc binds an option category to a product
type BindingDoc struct {
	Category string `yaml:"category" validate:"required"`
	Standard string `yaml:"standard"`
}

// PricingModeDoc is a named markup profile. Markups are percentages.
type PricingModeDoc struct {
	Key       string           `yaml:"key" validate:"required"`
	Name      string           `yaml:"name" validate:"required"`
	Extrusion *decimal.Decimal `yaml:"extrusion"`
	Hardware  *decimal.Decimal `yaml:"hardware"`
	Glass     *decimal.Decimal `yaml:"glass"`
	Packaging *decimal.Decimal `yaml:"packaging"`
	Global    *decimal.Decimal `yaml:"global"`
	Discount  decimal.Decimal  `yaml:"discount"`
}

// ProjectDoc is a project with its openings
type ProjectDoc struct {
	Key           string          `yaml:"key" validate:"required"`
	Name          string          `yaml:"name" validate:"required"`
	Installation  InstallationDoc `yaml:"installation"`
	TaxRate       decimal.Decimal `yaml:"tax_rate"`
	ExcludedParts []string        `yaml:"excluded_parts"`
	CostingMethod string          `yaml:"costing_method" validate:"omitempty,oneof=FULL_STOCK PERCENTAGE_BASED HYBRID"`
	PricingMode   string          `yaml:"pricing_mode"`
	Openings      []OpeningDoc    `yaml:"openings" validate:"dive"`
}

// InstallationDoc selects how installation is charged
type InstallationDoc struct {
	Method     string          `yaml:"method" validate:"omitempty,oneof=MANUAL PER_PRODUCT NONE"`
	ManualCost decimal.Decimal `yaml:"manual_cost"`
	Complexity string          `yaml:"complexity" validate:"omitempty,oneof=SIMPLE STANDARD COMPLEX VERY_COMPLEX"`
}

// OpeningDoc is an opening with its panels
type OpeningDoc struct {
	Name   string     `yaml:"name" validate:"required"`
	Finish string     `yaml:"finish"`
	Panels []PanelDoc `yaml:"panels" validate:"dive"`
}

// PanelDoc is a sized panel with its components
type PanelDoc struct {
	Name       string          `yaml:"name"`
	Width      decimal.Decimal `yaml:"width"`
	Height     decimal.Decimal `yaml:"height"`
	Glass      string          `yaml:"glass"`
	Swing      string          `yaml:"swing"`
	Sliding    string          `yaml:"sliding"`
	Components []ComponentDoc  `yaml:"components" validate:"dive"`
}

// ComponentDoc places a product on a panel. Options map category keys to
// option keys, quantities map category keys to user quantities, variants and
// included entries address options as "<category>/<option>".
type ComponentDoc struct {
	Product    string                     `yaml:"product" validate:"required"`
	Options    map[string]string          `yaml:"options"`
	Quantities map[string]decimal.Decimal `yaml:"quantities"`
	Variants   map[string]string          `yaml:"variants"`
	Included   []string                   `yaml:"included"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// Parse decodes and validates a workbook. Unknown keys are rejected.
func Parse(r io.Reader) (*Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading workbook: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: workbook is empty", shared.ErrInvalidInput)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var wb Workbook
	if err := dec.Decode(&wb); err != nil {
		return nil, fmt.Errorf("%w: workbook: %v", shared.ErrInvalidInput, err)
	}
	if err := validate.Struct(&wb); err != nil {
		return nil, formatValidationErrors(err)
	}
	return &wb, nil
}

// ParseFile decodes and validates the workbook at path
func ParseFile(path string) (*Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func formatValidationErrors(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: workbook: %v", shared.ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fieldPath(fe)+" "+validationMessage(fe))
	}
	sort.Strings(msgs)
	return fmt.Errorf("%w: workbook: %s", shared.ErrInvalidInput, strings.Join(msgs, "; "))
}

// fieldPath drops the root type from the namespace, e.g. "parts[0].type"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "contains":
		return fmt.Sprintf("must contain %q", fe.Param())
	}
	return "is invalid"
}
