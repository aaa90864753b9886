package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCatalogRepository implements catalog.Repository using GORM
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GormCatalogRepository
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

var _ catalog.Repository = (*GormCatalogRepository)(nil)

func bySortOrder(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}

// FindMasterPart finds a part by its base part number
func (r *GormCatalogRepository) FindMasterPart(ctx context.Context, partNumber string) (*catalog.MasterPart, error) {
	var part catalog.MasterPart
	if err := r.db.WithContext(ctx).
		Preload("StockLengthRules", bySortOrder).
		Preload("PricingRule").
		Where("part_number = ?", strings.TrimSpace(partNumber)).
		First(&part).Error; err != nil {
		return nil, notFound(err)
	}
	return &part, nil
}

// FindProduct finds a product with its BOM lines and category bindings
func (r *GormCatalogRepository) FindProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).
		Preload("BOMLines", bySortOrder).
		Preload("Categories", bySortOrder).
		First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// FindOptionCategory finds a category with its options, linked parts and variants
func (r *GormCatalogRepository) FindOptionCategory(ctx context.Context, id uuid.UUID) (*catalog.OptionCategory, error) {
	var category catalog.OptionCategory
	if err := r.db.WithContext(ctx).
		Preload("Options", bySortOrder).
		Preload("Options.LinkedParts").
		Preload("Options.Variants").
		First(&category, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// FindFinishType finds a finish by its color name, ignoring case
func (r *GormCatalogRepository) FindFinishType(ctx context.Context, name string) (*catalog.FinishType, error) {
	var finish catalog.FinishType
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&finish).Error; err != nil {
		return nil, notFound(err)
	}
	return &finish, nil
}

// FindGlassType finds a glass type by name, ignoring case
func (r *GormCatalogRepository) FindGlassType(ctx context.Context, name string) (*catalog.GlassType, error) {
	var glass catalog.GlassType
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&glass).Error; err != nil {
		return nil, notFound(err)
	}
	return &glass, nil
}

// GetPricingSettings returns the most recently updated settings row
func (r *GormCatalogRepository) GetPricingSettings(ctx context.Context) (*catalog.PricingSettings, error) {
	var settings catalog.PricingSettings
	if err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		First(&settings).Error; err != nil {
		return nil, notFound(err)
	}
	return &settings, nil
}

// notFound maps gorm.ErrRecordNotFound to shared.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}
