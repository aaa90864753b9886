package quote

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/shared"
)

// catalogCache memoizes catalog reads for one pricing request. Misses are
// cached as nil so a missing part is looked up once. It is safe for
// concurrent use by the opening workers of the same request.
type catalogCache struct {
	repo catalog.Repository

	mu         sync.Mutex
	parts      map[string]*catalog.MasterPart
	products   map[uuid.UUID]*catalog.Product
	categories map[uuid.UUID]*catalog.OptionCategory
	finishes   map[string]*catalog.FinishType
	glass      map[string]*catalog.GlassType
	settings   *catalog.PricingSettings
	settingsOK bool
}

func newCatalogCache(repo catalog.Repository) *catalogCache {
	return &catalogCache{
		repo:       repo,
		parts:      make(map[string]*catalog.MasterPart),
		products:   make(map[uuid.UUID]*catalog.Product),
		categories: make(map[uuid.UUID]*catalog.OptionCategory),
		finishes:   make(map[string]*catalog.FinishType),
		glass:      make(map[string]*catalog.GlassType),
	}
}

// load returns the cached value for key or calls fetch once. A not-found
// error is remembered as nil; other errors are returned and not cached.
func load[K comparable, V any](ctx context.Context, mu *sync.Mutex, m map[K]*V, key K, fetch func(context.Context, K) (*V, error)) (*V, error) {
	mu.Lock()
	v, ok := m[key]
	mu.Unlock()
	if ok {
		return v, nil
	}

	v, err := fetch(ctx, key)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		v = nil
	}

	mu.Lock()
	m[key] = v
	mu.Unlock()
	return v, nil
}

func (c *catalogCache) masterPart(ctx context.Context, partNumber string) (*catalog.MasterPart, error) {
	partNumber = strings.TrimSpace(partNumber)
	if partNumber == "" {
		return nil, nil
	}
	return load(ctx, &c.mu, c.parts, partNumber, c.repo.FindMasterPart)
}

func (c *catalogCache) product(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return load(ctx, &c.mu, c.products, id, c.repo.FindProduct)
}

func (c *catalogCache) optionCategory(ctx context.Context, id uuid.UUID) (*catalog.OptionCategory, error) {
	return load(ctx, &c.mu, c.categories, id, c.repo.FindOptionCategory)
}

func (c *catalogCache) finishType(ctx context.Context, name string) (*catalog.FinishType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	return load(ctx, &c.mu, c.finishes, name, c.repo.FindFinishType)
}

func (c *catalogCache) glassType(ctx context.Context, name string) (*catalog.GlassType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	return load(ctx, &c.mu, c.glass, name, c.repo.FindGlassType)
}

func (c *catalogCache) pricingSettings(ctx context.Context) (*catalog.PricingSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settingsOK {
		return c.settings, nil
	}
	settings, err := c.repo.GetPricingSettings(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		settings = nil
	}
	c.settings, c.settingsOK = settings, true
	return c.settings, nil
}
