package catalog

import (
	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OptionCategory groups the interchangeable options for one hardware/glass choice
type OptionCategory struct {
	shared.BaseEntity
	Name    string             `gorm:"type:varchar(200);not null"`
	Options []IndividualOption `gorm:"foreignKey:CategoryID"`
}

// TableName returns the table name for GORM
func (OptionCategory) TableName() string {
	return "option_categories"
}

// Option returns the option with the given id
func (c *OptionCategory) Option(id uuid.UUID) (*IndividualOption, bool) {
	for i := range c.Options {
		if c.Options[i].ID == id {
			return &c.Options[i], true
		}
	}
	return nil, false
}

// IndividualOption is a selectable option within a category
type IndividualOption struct {
	shared.BaseEntity
	CategoryID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	SortOrder     int                 `gorm:"not null;default:0"`
	Name          string              `gorm:"type:varchar(200);not null"`
	PartNumber    string              `gorm:"type:varchar(100)"`
	Price         decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	IsCutListItem bool                `gorm:"not null;default:false"`
	LinkedParts   []LinkedPart        `gorm:"foreignKey:OptionID"`
	Variants      []OptionVariant     `gorm:"foreignKey:OptionID"`
}

// TableName returns the table name for GORM
func (IndividualOption) TableName() string {
	return "individual_options"
}

// DefaultVariant returns the option's default variant, if any
func (o *IndividualOption) DefaultVariant() (uuid.UUID, bool) {
	for _, v := range o.Variants {
		if v.IsDefault {
			return v.ID, true
		}
	}
	return uuid.Nil, false
}

// HasVariant returns true if id is one of the option's variants
func (o *IndividualOption) HasVariant(id uuid.UUID) bool {
	for _, v := range o.Variants {
		if v.ID == id {
			return true
		}
	}
	return false
}

// LinkedPartsFor returns the linked parts that apply to the given variant.
// Parts without a variant always apply; a nil variant matches only those.
func (o *IndividualOption) LinkedPartsFor(variantID *uuid.UUID) []LinkedPart {
	parts := make([]LinkedPart, 0, len(o.LinkedParts))
	for _, lp := range o.LinkedParts {
		if lp.VariantID == nil || (variantID != nil && *lp.VariantID == *variantID) {
			parts = append(parts, lp)
		}
	}
	return parts
}

// LinkedPart is an extra part emitted whenever its option is active
type LinkedPart struct {
	shared.BaseEntity
	OptionID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	PartNumber string          `gorm:"type:varchar(100);not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
	VariantID  *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (LinkedPart) TableName() string {
	return "linked_parts"
}

// OptionVariant is a variant of an option (e.g. keyed alike, left/right hand)
type OptionVariant struct {
	shared.BaseEntity
	OptionID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null"`
	IsDefault bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (OptionVariant) TableName() string {
	return "option_variants"
}
