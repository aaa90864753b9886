package fixture

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/quoteworks/backend/internal/domain/shared"
)

// Store is an immutable in-memory catalog and project store
type Store struct {
	parts       map[string]*catalog.MasterPart
	partOrder   []*catalog.MasterPart
	products    map[uuid.UUID]*catalog.Product
	prodOrder   []*catalog.Product
	categories  map[uuid.UUID]*catalog.OptionCategory
	catOrder    []*catalog.OptionCategory
	finishes    []*catalog.FinishType
	glass       []*catalog.GlassType
	settings    *catalog.PricingSettings
	modes       []*project.PricingMode
	projects    map[uuid.UUID]*project.Project
	projOrder   []*project.Project
	projectKeys map[string]uuid.UUID
}

var (
	_ catalog.Repository = (*Store)(nil)
	_ project.Repository = (*Store)(nil)
)

func newStore() *Store {
	return &Store{
		parts:       make(map[string]*catalog.MasterPart),
		products:    make(map[uuid.UUID]*catalog.Product),
		categories:  make(map[uuid.UUID]*catalog.OptionCategory),
		projects:    make(map[uuid.UUID]*project.Project),
		projectKeys: make(map[string]uuid.UUID),
	}
}

// Load parses, validates and builds the workbook at path
func Load(path string) (*Store, error) {
	wb, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Build(wb)
}

func (s *Store) addPart(p *catalog.MasterPart) error {
	if _, ok := s.parts[p.PartNumber]; ok {
		return fmt.Errorf("%w: part %s defined twice", shared.ErrAlreadyExists, p.PartNumber)
	}
	s.parts[p.PartNumber] = p
	s.partOrder = append(s.partOrder, p)
	return nil
}

func (s *Store) addFinish(f *catalog.FinishType) error {
	for _, existing := range s.finishes {
		if catalog.SameName(existing.Name, f.Name) {
			return fmt.Errorf("%w: finish %s defined twice", shared.ErrAlreadyExists, f.Name)
		}
	}
	s.finishes = append(s.finishes, f)
	return nil
}

func (s *Store) addGlass(g *catalog.GlassType) error {
	for _, existing := range s.glass {
		if catalog.SameName(existing.Name, g.Name) {
			return fmt.Errorf("%w: glass type %s defined twice", shared.ErrAlreadyExists, g.Name)
		}
	}
	s.glass = append(s.glass, g)
	return nil
}

func (s *Store) addCategory(c *catalog.OptionCategory) {
	s.categories[c.ID] = c
	s.catOrder = append(s.catOrder, c)
}

func (s *Store) addProduct(p *catalog.Product) {
	s.products[p.ID] = p
	s.prodOrder = append(s.prodOrder, p)
}

func (s *Store) addProject(key string, p *project.Project) error {
	if _, ok := s.projectKeys[key]; ok {
		return fmt.Errorf("%w: project %q defined twice", shared.ErrAlreadyExists, key)
	}
	s.projectKeys[key] = p.ID
	s.projects[p.ID] = p
	s.projOrder = append(s.projOrder, p)
	return nil
}

// FindMasterPart finds a part by its base part number
func (s *Store) FindMasterPart(_ context.Context, partNumber string) (*catalog.MasterPart, error) {
	if p, ok := s.parts[strings.TrimSpace(partNumber)]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

// FindProduct finds a product by id
func (s *Store) FindProduct(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

// FindOptionCategory finds an option category by id
func (s *Store) FindOptionCategory(_ context.Context, id uuid.UUID) (*catalog.OptionCategory, error) {
	if c, ok := s.categories[id]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

// FindFinishType finds a finish by color name, ignoring case
func (s *Store) FindFinishType(_ context.Context, name string) (*catalog.FinishType, error) {
	for _, f := range s.finishes {
		if catalog.SameName(f.Name, name) {
			return f, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindGlassType finds a glass type by name, ignoring case
func (s *Store) FindGlassType(_ context.Context, name string) (*catalog.GlassType, error) {
	for _, g := range s.glass {
		if catalog.SameName(g.Name, name) {
			return g, nil
		}
	}
	return nil, shared.ErrNotFound
}

// GetPricingSettings returns the workbook settings
func (s *Store) GetPricingSettings(context.Context) (*catalog.PricingSettings, error) {
	if s.settings == nil {
		return nil, shared.ErrNotFound
	}
	return s.settings, nil
}

// FindByID finds a project by id
func (s *Store) FindByID(_ context.Context, id uuid.UUID) (*project.Project, error) {
	if p, ok := s.projects[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

// ProjectByKey returns the id of the project with the given workbook key
func (s *Store) ProjectByKey(key string) (uuid.UUID, bool) {
	id, ok := s.projectKeys[key]
	return id, ok
}

// Parts returns the parts in workbook order
func (s *Store) Parts() []*catalog.MasterPart { return s.partOrder }

// Products returns the products in workbook order
func (s *Store) Products() []*catalog.Product { return s.prodOrder }

// Categories returns the option categories in workbook order
func (s *Store) Categories() []*catalog.OptionCategory { return s.catOrder }

// Finishes returns the finishes in workbook order
func (s *Store) Finishes() []*catalog.FinishType { return s.finishes }

// GlassTypes returns the glass types in workbook order
func (s *Store) GlassTypes() []*catalog.GlassType { return s.glass }

// Settings returns the pricing settings, nil when the workbook has none
func (s *Store) Settings() *catalog.PricingSettings { return s.settings }

// PricingModes returns the pricing modes in workbook order
func (s *Store) PricingModes() []*project.PricingMode { return s.modes }

// Projects returns the projects in workbook order
func (s *Store) Projects() []*project.Project { return s.projOrder }
