package quote

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/quoteworks/backend/internal/domain/shared"
	"github.com/quoteworks/backend/internal/domain/shared/strategy"
	costingregistry "github.com/quoteworks/backend/internal/infrastructure/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(s))
}

// memCatalog is an in-memory catalog.Repository that counts part lookups
type memCatalog struct {
	mu         sync.Mutex
	parts      map[string]*catalog.MasterPart
	products   map[uuid.UUID]*catalog.Product
	categories map[uuid.UUID]*catalog.OptionCategory
	finishes   []*catalog.FinishType
	glass      []*catalog.GlassType
	settings   *catalog.PricingSettings
	partCalls  map[string]int
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		parts:      make(map[string]*catalog.MasterPart),
		products:   make(map[uuid.UUID]*catalog.Product),
		categories: make(map[uuid.UUID]*catalog.OptionCategory),
		partCalls:  make(map[string]int),
	}
}

func (m *memCatalog) addParts(parts ...*catalog.MasterPart) {
	for _, p := range parts {
		m.parts[p.PartNumber] = p
	}
}

func (m *memCatalog) addProducts(products ...*catalog.Product) {
	for _, p := range products {
		m.products[p.ID] = p
	}
}

func (m *memCatalog) FindMasterPart(_ context.Context, partNumber string) (*catalog.MasterPart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.partCalls[partNumber]++
	if p, ok := m.parts[partNumber]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: part %s", shared.ErrNotFound, partNumber)
}

func (m *memCatalog) FindProduct(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: product %s", shared.ErrNotFound, id)
}

func (m *memCatalog) FindOptionCategory(_ context.Context, id uuid.UUID) (*catalog.OptionCategory, error) {
	if c, ok := m.categories[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: option category %s", shared.ErrNotFound, id)
}

func (m *memCatalog) FindFinishType(_ context.Context, name string) (*catalog.FinishType, error) {
	for _, f := range m.finishes {
		if catalog.SameName(f.Name, name) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: finish %s", shared.ErrNotFound, name)
}

func (m *memCatalog) FindGlassType(_ context.Context, name string) (*catalog.GlassType, error) {
	for _, g := range m.glass {
		if catalog.SameName(g.Name, name) {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: glass type %s", shared.ErrNotFound, name)
}

func (m *memCatalog) GetPricingSettings(context.Context) (*catalog.PricingSettings, error) {
	if m.settings == nil {
		return nil, shared.ErrNotFound
	}
	return m.settings, nil
}

type memProjects map[uuid.UUID]*project.Project

func (m memProjects) FindByID(_ context.Context, id uuid.UUID) (*project.Project, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: project %s", shared.ErrNotFound, id)
}

// extrusionPart weighs 0.5 lb/ft and is cut from a 100" bar
func extrusionPart(partNumber string) *catalog.MasterPart {
	return &catalog.MasterPart{
		BaseEntity:    shared.NewBaseEntity(),
		PartNumber:    partNumber,
		Description:   "Stile " + partNumber,
		PartType:      catalog.PartTypeExtrusion,
		UnitOfMeasure: catalog.UnitEach,
		WeightPerFoot: d("0.5"),
		Perimeter:     d("6"),
		StockLengthRules: []catalog.StockLengthRule{
			{BaseEntity: shared.NewBaseEntity(), StockLength: d("100"), IsActive: true},
		},
	}
}

func hardwarePart(partNumber, cost string) *catalog.MasterPart {
	return &catalog.MasterPart{
		BaseEntity:    shared.NewBaseEntity(),
		PartNumber:    partNumber,
		Description:   "Hardware " + partNumber,
		PartType:      catalog.PartTypeHardware,
		UnitOfMeasure: catalog.UnitEach,
		UnitCost:      d(cost),
	}
}

func bomLine(partType catalog.PartType, partNumber, formulaText, qty string) catalog.BOMLine {
	return catalog.BOMLine{
		BaseEntity:   shared.NewBaseEntity(),
		PartType:     partType,
		PartNumber:   partNumber,
		Formula:      formulaText,
		Quantity:     d(qty),
		QuantityMode: catalog.QuantityModeFixed,
	}
}

func newProduct(name string, lines ...catalog.BOMLine) *catalog.Product {
	p := &catalog.Product{
		BaseEntity:        shared.NewBaseEntity(),
		Name:              name,
		ProductType:       catalog.ProductTypeDoorLeaf,
		InstallationPrice: decimal.Zero,
	}
	for i := range lines {
		lines[i].ProductID = p.ID
		lines[i].SortOrder = i
	}
	p.BOMLines = lines
	return p
}

func newProject(method strategy.CostingMethod, openings ...project.Opening) *project.Project {
	for i := range openings {
		openings[i].SortOrder = i
	}
	return &project.Project{
		BaseEntity:             shared.NewBaseEntity(),
		Name:                   "Lobby",
		InstallationMethod:     project.InstallationNone,
		ManualInstallationCost: decimal.Zero,
		Complexity:             project.ComplexityStandard,
		TaxRate:                decimal.Zero,
		CostingMethod:          method,
		Openings:               openings,
	}
}

func newOpening(name, finish string, panels ...project.Panel) project.Opening {
	for i := range panels {
		panels[i].SortOrder = i
	}
	return project.Opening{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		FinishColor: finish,
		Panels:      panels,
	}
}

func newPanel(name, width, height, glass string, products ...*catalog.Product) project.Panel {
	p := project.Panel{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Width:      d(width),
		Height:     d(height),
		GlassType:  glass,
	}
	for i, product := range products {
		p.Components = append(p.Components, project.ComponentInstance{
			BaseEntity: shared.NewBaseEntity(),
			SortOrder:  i,
			ProductID:  product.ID,
			Selections: project.NewSelections(),
		})
	}
	return p
}

type fixture struct {
	catalog  *memCatalog
	projects memProjects
	svc      *Service
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	registry, err := costingregistry.NewRegistryWithDefaults()
	require.NoError(t, err)

	cat := newMemCatalog()
	cat.settings = &catalog.PricingSettings{PricePerPound: nd("2")}
	projects := memProjects{}

	return &fixture{
		catalog:  cat,
		projects: projects,
		svc:      NewService(cat, projects, registry, cfg, zaptest.NewLogger(t)),
	}
}

func (f *fixture) price(t *testing.T, p *project.Project) *ProjectQuote {
	t.Helper()
	f.projects[p.ID] = p
	q, err := f.svc.PriceProject(context.Background(), p.ID)
	require.NoError(t, err)
	return q
}

// countingMetrics records what the service reports
type countingMetrics struct {
	mu      sync.Mutex
	quotes  int
	failed  int
	methods []string
	noCost  map[string]int
}

func (m *countingMetrics) RecordQuote(_ context.Context, method string, _ decimal.Decimal, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.failed++
		return
	}
	m.quotes++
	m.methods = append(m.methods, method)
}

func (m *countingMetrics) RecordNoCostLine(_ context.Context, partType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.noCost == nil {
		m.noCost = make(map[string]int)
	}
	m.noCost[partType]++
}
