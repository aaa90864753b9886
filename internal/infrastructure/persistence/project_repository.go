package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/quoteworks/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProjectRepository implements project.Repository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

var _ project.Repository = (*GormProjectRepository)(nil)

// FindByID finds a project with its pricing mode, openings, panels and components
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	var p project.Project
	if err := r.db.WithContext(ctx).
		Preload("PricingMode").
		Preload("Openings", bySortOrder).
		Preload("Openings.Panels", bySortOrder).
		Preload("Openings.Panels.Components", bySortOrder).
		First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindAll lists projects without their openings. Unknown sort fields fall
// back to name; Search matches names case-insensitively.
func (r *GormProjectRepository) FindAll(ctx context.Context, filter shared.Filter) ([]project.Project, error) {
	field := ValidateSortField(filter.OrderBy, ProjectSortFields, "name")
	query := r.db.WithContext(ctx).Order(field + " " + ValidateSortOrder(filter.OrderDir))
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var projects []project.Project
	if err := query.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Save creates or replaces a project and its whole opening tree
func (r *GormProjectRepository) Save(ctx context.Context, p *project.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteProjectTree(tx, p.ID); err != nil {
			return err
		}
		if err := tx.Omit("PricingMode").Create(p).Error; err != nil {
			return fmt.Errorf("saving project %s: %w", p.Name, err)
		}
		return nil
	})
}

func deleteProjectTree(tx *gorm.DB, id uuid.UUID) error {
	openings := tx.Model(&project.Opening{}).Select("id").Where("project_id = ?", id)
	panels := tx.Model(&project.Panel{}).Select("id").Where("opening_id IN (?)", openings)
	steps := []struct {
		model any
		where string
		arg   any
	}{
		{&project.ComponentInstance{}, "panel_id IN (?)", panels},
		{&project.Panel{}, "opening_id IN (?)", openings},
		{&project.Opening{}, "project_id = ?", id},
		{&project.Project{}, "id = ?", id},
	}
	for _, s := range steps {
		if err := tx.Where(s.where, s.arg).Delete(s.model).Error; err != nil {
			return fmt.Errorf("clearing project %s: %w", id, err)
		}
	}
	return nil
}
