// Package quote prices projects: it expands every placed component into a
// priced bill of materials and rolls the lines up per opening and project.
package quote

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/formula"
	"github.com/quoteworks/backend/internal/domain/pricing"
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/quoteworks/backend/internal/domain/shared/strategy"
	"github.com/quoteworks/backend/internal/infrastructure/logger"
	"github.com/quoteworks/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config tunes the quote engine
type Config struct {
	// DefaultPricePerPound prices extrusions when neither the part nor the
	// catalog settings carry a price per pound.
	DefaultPricePerPound decimal.Decimal
	ParallelOpenings     bool
	MaxParallelOpenings  int // 0 means unbounded
}

// Strategies resolves costing strategies and names the default method
type Strategies interface {
	pricing.StrategyResolver
	DefaultCosting() strategy.CostingMethod
}

// Metrics receives quote engine measurements
type Metrics interface {
	RecordQuote(ctx context.Context, method string, grandTotal decimal.Decimal, d time.Duration, err error)
	RecordNoCostLine(ctx context.Context, partType string)
}

type nopMetrics struct{}

func (nopMetrics) RecordQuote(context.Context, string, decimal.Decimal, time.Duration, error) {}
func (nopMetrics) RecordNoCostLine(context.Context, string)                                  {}

// Service prices projects against the catalog
type Service struct {
	catalogRepo catalog.Repository
	projectRepo project.Repository
	strategies  Strategies
	calc        *pricing.CutCalculator
	cfg         Config
	logger      *zap.Logger
	metrics     Metrics
}

// NewService creates a new quote Service
func NewService(
	catalogRepo catalog.Repository,
	projectRepo project.Repository,
	strategies Strategies,
	cfg Config,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		catalogRepo: catalogRepo,
		projectRepo: projectRepo,
		strategies:  strategies,
		calc:        pricing.NewCutCalculator(strategies),
		cfg:         cfg,
		logger:      log,
		metrics:     nopMetrics{},
	}
}

// SetMetrics sets the metrics sink; nil restores the no-op sink
func (s *Service) SetMetrics(m Metrics) {
	if m == nil {
		m = nopMetrics{}
	}
	s.metrics = m
}

// request holds the state of one pricing call. The catalog cache lives
// only as long as the request.
type request struct {
	cfg      Config
	cache    *catalogCache
	calc     *pricing.CutCalculator
	project  *project.Project
	method   strategy.CostingMethod
	settings *catalog.PricingSettings
	metrics  Metrics
}

// PriceProject prices every opening of a project and computes the totals
func (s *Service) PriceProject(ctx context.Context, projectID uuid.UUID) (*ProjectQuote, error) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "price_project",
		telemetry.WithAttribute(telemetry.SpanAttrProjectID, projectID.String()))
	defer span.End()
	ctx = s.contextLogger(ctx, projectID)

	q, err := s.priceProject(ctx, projectID)
	if err != nil {
		s.metrics.RecordQuote(ctx, "", decimal.Zero, time.Since(start), err)
		telemetry.RecordError(span, err)
		logger.L(ctx).Error("failed to price project", zap.Error(err))
		return nil, err
	}
	s.metrics.RecordQuote(ctx, string(q.CostingMethod), q.Totals.GrandTotal, time.Since(start), nil)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrProjectName, q.Name,
		telemetry.SpanAttrCostingMethod, string(q.CostingMethod),
		telemetry.SpanAttrBOMItems, len(q.Items()),
		telemetry.SpanAttrGrandTotal, q.Totals.GrandTotal.StringFixed(2),
	)
	logger.L(ctx).Info("project priced",
		zap.String("project", q.Name),
		zap.String("costing_method", string(q.CostingMethod)),
		zap.Int("openings", len(q.Openings)),
		zap.Int("no_cost_lines", q.NoCostLines),
		zap.String("subtotal_base", q.Totals.SubtotalBase.StringFixed(2)),
		zap.String("grand_total", q.Totals.GrandTotal.StringFixed(2)),
		zap.Duration("duration", time.Since(start)),
	)
	return q, nil
}

// PriceOpening prices a single opening of a project
func (s *Service) PriceOpening(ctx context.Context, projectID, openingID uuid.UUID) (*OpeningQuote, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "price_single_opening",
		telemetry.WithAttribute(telemetry.SpanAttrProjectID, projectID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrOpeningID, openingID.String()))
	defer span.End()
	ctx = s.contextLogger(ctx, projectID)

	p, err := s.loadProject(ctx, projectID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	opening, err := p.Opening(openingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	r, err := s.newRequest(ctx, p)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	oq, err := r.priceOpening(ctx, opening)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &oq, nil
}

func (s *Service) priceProject(ctx context.Context, projectID uuid.UUID) (*ProjectQuote, error) {
	p, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	r, err := s.newRequest(ctx, p)
	if err != nil {
		return nil, err
	}

	openings, err := r.priceOpenings(ctx, p.Openings)
	if err != nil {
		return nil, err
	}

	q := &ProjectQuote{
		ProjectID:     p.ID,
		Name:          p.Name,
		CostingMethod: r.method,
		Openings:      openings,
	}
	rollUpProject(q, p)
	return q, nil
}

func (s *Service) loadProject(ctx context.Context, projectID uuid.UUID) (*project.Project, error) {
	p, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", projectID, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	return p, nil
}

func (s *Service) newRequest(ctx context.Context, p *project.Project) (*request, error) {
	cache := newCatalogCache(s.catalogRepo)
	settings, err := cache.pricingSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading pricing settings: %w", err)
	}

	method := p.CostingMethod
	if method == "" {
		method = s.strategies.DefaultCosting()
	}

	return &request{
		cfg:      s.cfg,
		cache:    cache,
		calc:     s.calc,
		project:  p,
		method:   method,
		settings: settings,
		metrics:  s.metrics,
	}, nil
}

// contextLogger makes sure ctx carries a logger and the project id
func (s *Service) contextLogger(ctx context.Context, projectID uuid.UUID) context.Context {
	ctx, _ = logger.WithProjectID(ctx, logger.FromContextOr(ctx, s.logger), projectID.String())
	return ctx
}

// methodFor returns the costing method for a part. Excluded parts are
// always charged the full stock bar.
func (r *request) methodFor(partNumber string) strategy.CostingMethod {
	if r.project.IsExcluded(partNumber) {
		return strategy.CostingMethodFullStock
	}
	return r.method
}

// priceOpenings prices the openings in sort order, in parallel when
// configured. Results keep the sort order.
func (r *request) priceOpenings(ctx context.Context, openings []project.Opening) ([]OpeningQuote, error) {
	ordered := sortedPointers(openings, func(o *project.Opening) int { return o.SortOrder })
	results := make([]OpeningQuote, len(ordered))

	if !r.cfg.ParallelOpenings || len(ordered) < 2 {
		for i, o := range ordered {
			oq, err := r.priceOpening(ctx, o)
			if err != nil {
				return nil, err
			}
			results[i] = oq
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if r.cfg.MaxParallelOpenings > 0 {
		g.SetLimit(r.cfg.MaxParallelOpenings)
	}
	for i, o := range ordered {
		g.Go(func() error {
			oq, err := r.priceOpening(gctx, o)
			if err != nil {
				return err
			}
			results[i] = oq
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *request) priceOpening(ctx context.Context, o *project.Opening) (OpeningQuote, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "price_opening",
		telemetry.WithAttribute(telemetry.SpanAttrOpeningID, o.ID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrOpeningName, o.Name))
	defer span.End()
	ctx, _ = logger.WithOpeningID(ctx, logger.FromContext(ctx), o.ID.String())
	log := logger.L(ctx)

	if err := ctx.Err(); err != nil {
		return OpeningQuote{}, err
	}

	finish, err := r.cache.finishType(ctx, o.FinishColor)
	if err != nil {
		telemetry.RecordError(span, err)
		return OpeningQuote{}, err
	}
	if finish == nil && !catalog.IsMillFinishColor(o.FinishColor) {
		log.Warn("finish type not found, finish cost omitted", zap.String("finish", o.FinishColor))
	}

	oq := OpeningQuote{
		OpeningID:   o.ID,
		Name:        o.Name,
		FinishColor: o.FinishColor,
	}
	for _, panel := range sortedPointers(o.Panels, func(p *project.Panel) int { return p.SortOrder }) {
		components, err := r.pricePanel(ctx, o, finish, panel)
		if err != nil {
			telemetry.RecordError(span, err)
			return OpeningQuote{}, err
		}
		oq.Components = append(oq.Components, components...)
	}

	rollUpOpening(&oq, r.project.PricingMode)
	telemetry.SetAttribute(span, telemetry.SpanAttrComponents, len(oq.Components))
	log.Debug("opening priced",
		zap.String("opening", o.Name),
		zap.Int("components", len(oq.Components)),
		zap.String("total_base", oq.TotalBase.StringFixed(2)),
		zap.String("total_marked_up", oq.TotalMarkedUp.StringFixed(2)),
	)
	return oq, nil
}

// pricePanel prices the components placed on a panel. The panel's glass is
// emitted once, on the first component whose product defines glass formulas
// (or the first component when none does).
func (r *request) pricePanel(ctx context.Context, o *project.Opening, finish *catalog.FinishType, panel *project.Panel) ([]ComponentQuote, error) {
	log := logger.L(ctx)

	var quotes []ComponentQuote
	var glassHost *component
	glassIndex := -1

	instances := sortedPointers(panel.Components, func(c *project.ComponentInstance) int { return c.SortOrder })
	for _, instance := range instances {
		product, err := r.cache.product(ctx, instance.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			log.Warn("product not found, component skipped",
				zap.String("panel", panel.Name),
				zap.String("product_id", instance.ProductID.String()))
			continue
		}

		c := &component{
			opening:  o,
			panel:    panel,
			instance: instance,
			product:  product,
			finish:   finish,
			vars:     formula.Dimensions(panel.Width, panel.Height),
		}
		items, err := r.generateBOM(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("pricing %s on panel %s: %w", product.Name, panel.Name, err)
		}

		if glassHost == nil || (!hasGlassFormulas(glassHost.product) && hasGlassFormulas(product)) {
			glassHost = c
			glassIndex = len(quotes)
		}
		quotes = append(quotes, ComponentQuote{
			InstanceID:        instance.ID,
			ProductID:         product.ID,
			ProductName:       product.Name,
			Panel:             panel.Name,
			Width:             panel.Width,
			Height:            panel.Height,
			InstallationPrice: product.InstallationPrice,
			Items:             items,
		})
	}

	if glassHost != nil {
		item, ok, err := r.glassItem(ctx, glassHost)
		if err != nil {
			return nil, err
		}
		if ok {
			quotes[glassIndex].Items = append(quotes[glassIndex].Items, item)
		}
	}

	for _, q := range quotes {
		r.reportNoCost(ctx, q.Items)
	}
	return quotes, nil
}

func (r *request) reportNoCost(ctx context.Context, items []BOMItem) {
	for _, item := range items {
		if !item.NoCost() {
			continue
		}
		logger.L(ctx).Warn("no cost found for BOM line",
			zap.String("part_number", item.PartNumber),
			zap.String("part_type", string(item.PartType)),
			zap.String("panel", item.Panel),
			zap.String("component", item.Component),
		)
		r.metrics.RecordNoCostLine(ctx, string(item.PartType))
	}
}

func hasGlassFormulas(p *catalog.Product) bool {
	return !formula.IsBlank(p.GlassWidthFormula) || !formula.IsBlank(p.GlassHeightFormula) || !formula.IsBlank(p.GlassQuantityFormula)
}

// sortedPointers returns pointers to the elements of s ordered by key,
// keeping the original order for equal keys.
func sortedPointers[T any](s []T, key func(*T) int) []*T {
	out := make([]*T, len(s))
	for i := range s {
		out[i] = &s[i]
	}
	slices.SortStableFunc(out, func(a, b *T) int {
		return cmp.Compare(key(a), key(b))
	})
	return out
}
