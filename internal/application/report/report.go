// Package report renders a priced quote into the pricing-debug, BOM summary
// and purchasing summary reports and reconciles them against each other.
package report

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/quoteworks/backend/internal/application/quote"
	"github.com/quoteworks/backend/internal/infrastructure/logger"
	"github.com/quoteworks/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Report names, also used as file name suffixes and metric labels
const (
	ReportPricingDebug = "pricing_debug"
	ReportBOMSummary   = "bom_summary"
	ReportPurchasing   = "purchasing_summary"
)

// Config controls where reports are written
type Config struct {
	OutputDir string
	WriteXLSX bool
}

// Metrics receives report measurements
type Metrics interface {
	RecordReportWritten(ctx context.Context, report string)
	RecordReconcile(ctx context.Context, ok bool)
}

type nopMetrics struct{}

func (nopMetrics) RecordReportWritten(context.Context, string) {}
func (nopMetrics) RecordReconcile(context.Context, bool)       {}

// Files lists the paths written for one quote
type Files struct {
	PricingDebug string
	BOMSummary   string
	BOMWorkbook  string // empty when XLSX output is disabled
	Purchasing   string
}

// Rendered holds the three CSV reports in memory
type Rendered struct {
	PricingDebug []byte
	BOMSummary   []byte
	Purchasing   []byte
	BOMRows      []BOMRow
}

// Service renders and reconciles quote reports
type Service struct {
	cfg     Config
	logger  *zap.Logger
	metrics Metrics
}

// NewService creates a new report Service
func NewService(cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cfg: cfg, logger: log, metrics: nopMetrics{}}
}

// SetMetrics sets the metrics sink; nil restores the no-op sink
func (s *Service) SetMetrics(m Metrics) {
	if m == nil {
		m = nopMetrics{}
	}
	s.metrics = m
}

// Render produces the three CSV reports of a quote
func (s *Service) Render(ctx context.Context, q *quote.ProjectQuote) (*Rendered, error) {
	_, span := telemetry.StartServiceSpan(ctx, "report", "render",
		telemetry.WithAttribute(telemetry.SpanAttrProjectID, q.ProjectID.String()))
	defer span.End()

	out := &Rendered{BOMRows: BOMSummary(q)}

	var debug, bom, purchasing bytes.Buffer
	if err := WritePricingDebug(&debug, q); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := WriteBOMSummary(&bom, out.BOMRows); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := WritePurchasingSummary(&purchasing, PurchasingSummary(q)); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	out.PricingDebug = debug.Bytes()
	out.BOMSummary = bom.Bytes()
	out.Purchasing = purchasing.Bytes()
	return out, nil
}

// Reconcile checks rendered reports against each other and logs every
// failed check.
func (s *Service) Reconcile(ctx context.Context, r *Rendered) (*Reconciliation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "reconcile")
	defer span.End()
	log := logger.L(ctx)

	result, err := Reconcile(bytes.NewReader(r.PricingDebug), bytes.NewReader(r.BOMSummary), bytes.NewReader(r.Purchasing))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordReconcile(ctx, result.OK())
	for _, c := range result.Failed() {
		log.Warn("reports do not reconcile",
			zap.String("check", c.Name),
			zap.String("expected", c.Expected.String()),
			zap.String("actual", c.Actual.String()),
		)
	}
	telemetry.SetAttribute(span, "report.reconciled", result.OK())
	return result, nil
}

// WriteAll renders the reports of a quote into the output directory
func (s *Service) WriteAll(ctx context.Context, q *quote.ProjectQuote) (*Rendered, Files, error) {
	log := logger.L(ctx)

	r, err := s.Render(ctx, q)
	if err != nil {
		return nil, Files{}, err
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return nil, Files{}, fmt.Errorf("creating report directory: %w", err)
	}

	base := filepath.Join(s.cfg.OutputDir, Slug(q.Name))
	files := Files{
		PricingDebug: base + "_" + ReportPricingDebug + ".csv",
		BOMSummary:   base + "_" + ReportBOMSummary + ".csv",
		Purchasing:   base + "_" + ReportPurchasing + ".csv",
	}
	for _, f := range []struct {
		name, path string
		data       []byte
	}{
		{ReportPricingDebug, files.PricingDebug, r.PricingDebug},
		{ReportBOMSummary, files.BOMSummary, r.BOMSummary},
		{ReportPurchasing, files.Purchasing, r.Purchasing},
	} {
		if err := os.WriteFile(f.path, f.data, 0o644); err != nil {
			return nil, Files{}, fmt.Errorf("writing %s: %w", f.name, err)
		}
		s.metrics.RecordReportWritten(ctx, f.name)
		log.Debug("report written", zap.String("report", f.name), zap.String("path", f.path))
	}

	if s.cfg.WriteXLSX {
		files.BOMWorkbook = base + "_" + ReportBOMSummary + ".xlsx"
		out, err := os.Create(files.BOMWorkbook)
		if err != nil {
			return nil, Files{}, fmt.Errorf("creating BOM workbook: %w", err)
		}
		werr := WriteBOMSummaryXLSX(out, q.Name, r.BOMRows)
		if cerr := out.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return nil, Files{}, werr
		}
		s.metrics.RecordReportWritten(ctx, ReportBOMSummary+"_xlsx")
	}

	log.Info("reports written", zap.String("dir", s.cfg.OutputDir), zap.String("project", q.Name))
	return r, files, nil
}

// Slug turns a project name into a file name stem
func Slug(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	s := strings.TrimSuffix(b.String(), "_")
	if s == "" {
		return "project"
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, cmp.Compare[string])
	return keys
}
