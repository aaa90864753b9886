package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the read-only catalog store used while pricing.
// Lookups of missing records return shared.ErrNotFound.
type Repository interface {
	// FindMasterPart finds a part by its base part number
	FindMasterPart(ctx context.Context, partNumber string) (*MasterPart, error)

	// FindProduct finds a product with its BOM lines and category bindings
	FindProduct(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindOptionCategory finds a category with its options, linked parts and variants
	FindOptionCategory(ctx context.Context, id uuid.UUID) (*OptionCategory, error)

	// FindFinishType finds a finish by its color name
	FindFinishType(ctx context.Context, name string) (*FinishType, error)

	// FindGlassType finds a glass type by name
	FindGlassType(ctx context.Context, name string) (*GlassType, error)

	// GetPricingSettings returns the catalog pricing settings
	GetPricingSettings(ctx context.Context) (*PricingSettings, error)
}
