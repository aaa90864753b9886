package project

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/shared"
	"github.com/quoteworks/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// InstallationMethod selects how installation is charged
type InstallationMethod string

const (
	InstallationManual     InstallationMethod = "MANUAL"
	InstallationPerProduct InstallationMethod = "PER_PRODUCT"
	InstallationNone       InstallationMethod = "NONE"
)

// IsValid returns true if the installation method is known
func (m InstallationMethod) IsValid() bool {
	switch m {
	case InstallationManual, InstallationPerProduct, InstallationNone:
		return true
	default:
		return false
	}
}

// Complexity scales per-product installation pricing
type Complexity string

const (
	ComplexitySimple      Complexity = "SIMPLE"
	ComplexityStandard    Complexity = "STANDARD"
	ComplexityComplex     Complexity = "COMPLEX"
	ComplexityVeryComplex Complexity = "VERY_COMPLEX"
)

// IsValid returns true if the complexity is known
func (c Complexity) IsValid() bool {
	switch c {
	case ComplexitySimple, ComplexityStandard, ComplexityComplex, ComplexityVeryComplex:
		return true
	default:
		return false
	}
}

// Project is a customer quote: a set of openings priced together
type Project struct {
	shared.BaseEntity
	Name                   string                 `gorm:"type:varchar(200);not null"`
	InstallationMethod     InstallationMethod     `gorm:"type:varchar(20);not null;default:'NONE'"`
	ManualInstallationCost decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Complexity             Complexity             `gorm:"type:varchar(20);not null;default:'STANDARD'"`
	TaxRate                decimal.Decimal        `gorm:"type:decimal(9,6);not null;default:0"` // fraction, 0.0825 = 8.25%
	ExcludedPartNumbers    StringList             `gorm:"type:text"`
	CostingMethod          strategy.CostingMethod `gorm:"type:varchar(20)"`
	PricingModeID          *uuid.UUID             `gorm:"type:uuid"`
	PricingMode            *PricingMode           `gorm:"foreignKey:PricingModeID"`
	Openings               []Opening              `gorm:"foreignKey:ProjectID"`
}

// TableName returns the table name for GORM
func (Project) TableName() string {
	return "projects"
}

// NewProject creates a new project with no installation and no tax
func NewProject(name string) (*Project, error) {
	p := &Project{
		BaseEntity:             shared.NewBaseEntity(),
		Name:                   strings.TrimSpace(name),
		InstallationMethod:     InstallationNone,
		ManualInstallationCost: decimal.Zero,
		Complexity:             ComplexityStandard,
		TaxRate:                decimal.Zero,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the project configuration
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: project name cannot be empty", shared.ErrInvalidInput)
	}
	if !p.InstallationMethod.IsValid() {
		return fmt.Errorf("%w: unknown installation method %q", shared.ErrInvalidInput, p.InstallationMethod)
	}
	if p.InstallationMethod == InstallationPerProduct && !p.Complexity.IsValid() {
		return fmt.Errorf("%w: unknown complexity %q", shared.ErrInvalidInput, p.Complexity)
	}
	if p.ManualInstallationCost.IsNegative() {
		return fmt.Errorf("%w: manual installation cost cannot be negative", shared.ErrInvalidInput)
	}
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: tax rate must be a fraction between 0 and 1", shared.ErrInvalidInput)
	}
	if p.CostingMethod != "" && !p.CostingMethod.IsValid() {
		return fmt.Errorf("%w: unknown costing method %q", shared.ErrInvalidInput, p.CostingMethod)
	}
	if p.PricingMode != nil {
		if err := p.PricingMode.Validate(); err != nil {
			return err
		}
	}
	for i := range p.Openings {
		if err := p.Openings[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsExcluded reports whether a part is excluded from waste-based costing
func (p *Project) IsExcluded(partNumber string) bool {
	return slices.Contains(p.ExcludedPartNumbers, partNumber)
}

// Opening finds an opening by id
func (p *Project) Opening(id uuid.UUID) (*Opening, error) {
	for i := range p.Openings {
		if p.Openings[i].ID == id {
			return &p.Openings[i], nil
		}
	}
	return nil, fmt.Errorf("%w: opening %s not found in project %s", shared.ErrNotFound, id, p.ID)
}

// Opening is a wall opening filled by one or more panels sharing a finish
type Opening struct {
	shared.BaseEntity
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index"`
	SortOrder   int       `gorm:"not null;default:0"`
	Name        string    `gorm:"type:varchar(200);not null"`
	FinishColor string    `gorm:"type:varchar(100)"`
	Panels      []Panel   `gorm:"foreignKey:OpeningID"`
}

// TableName returns the table name for GORM
func (Opening) TableName() string {
	return "openings"
}

// Validate checks the opening and its panels
func (o *Opening) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("%w: opening name cannot be empty", shared.ErrInvalidInput)
	}
	for i := range o.Panels {
		if err := o.Panels[i].Validate(); err != nil {
			return fmt.Errorf("opening %s: %w", o.Name, err)
		}
	}
	return nil
}

// Panel is a sized leaf or lite within an opening
type Panel struct {
	shared.BaseEntity
	OpeningID        uuid.UUID           `gorm:"type:uuid;not null;index"`
	SortOrder        int                 `gorm:"not null;default:0"`
	Name             string              `gorm:"type:varchar(200)"`
	Width            decimal.Decimal     `gorm:"type:decimal(18,4);not null"`  // inches
	Height           decimal.Decimal     `gorm:"type:decimal(18,4);not null"`  // inches
	GlassType        string              `gorm:"type:varchar(100)"`
	SwingDirection   string              `gorm:"type:varchar(50)"`
	SlidingDirection string              `gorm:"type:varchar(50)"`
	Components       []ComponentInstance `gorm:"foreignKey:PanelID"`
}

// TableName returns the table name for GORM
func (Panel) TableName() string {
	return "panels"
}

// Validate checks the panel dimensions and component selections
func (p *Panel) Validate() error {
	if p.Width.IsNegative() || p.Height.IsNegative() {
		return fmt.Errorf("%w: panel %s has negative dimensions", shared.ErrInvalidInput, p.Name)
	}
	for i := range p.Components {
		if err := p.Components[i].Selections.Validate(); err != nil {
			return fmt.Errorf("panel %s: %w", p.Name, err)
		}
	}
	return nil
}

// ComponentInstance is a product placed on a panel with its option selections
type ComponentInstance struct {
	shared.BaseEntity
	PanelID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	SortOrder  int        `gorm:"not null;default:0"`
	ProductID  uuid.UUID  `gorm:"type:uuid;not null"`
	Selections Selections `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ComponentInstance) TableName() string {
	return "component_instances"
}
