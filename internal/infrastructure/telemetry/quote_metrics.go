package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Quote outcomes used as the outcome attribute
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// QuoteMetrics records quote engine activity: priced projects, degraded
// lines, grand totals and rendered reports.
type QuoteMetrics struct {
	logger *zap.Logger

	quotesPriced    *Counter
	noCostLines     *Counter
	reportsWritten  *Counter
	reconcileChecks *Counter

	grandTotal      *Histogram
	pricingDuration *Histogram
}

// NewQuoteMetrics creates the quote instruments on meter.
func NewQuoteMetrics(meter metric.Meter, logger *zap.Logger) (*QuoteMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	qm := &QuoteMetrics{logger: logger}
	var err error

	qm.quotesPriced, err = NewCounter(meter,
		"quote_projects_priced_total",
		"Total number of projects priced",
		"{quotes}",
	)
	if err != nil {
		return nil, err
	}

	qm.noCostLines, err = NewCounter(meter,
		"quote_no_cost_lines_total",
		"BOM lines priced at zero because catalog pricing was missing",
		"{lines}",
	)
	if err != nil {
		return nil, err
	}

	qm.reportsWritten, err = NewCounter(meter,
		"quote_reports_written_total",
		"Total number of report files rendered",
		"{reports}",
	)
	if err != nil {
		return nil, err
	}

	qm.reconcileChecks, err = NewCounter(meter,
		"quote_reconcile_checks_total",
		"Report reconciliation runs by outcome",
		"{checks}",
	)
	if err != nil {
		return nil, err
	}

	qm.grandTotal, err = NewHistogram(meter, HistogramOpts{
		Name:        "quote_grand_total",
		Description: "Grand total of priced projects",
		Unit:        "USD",
		Boundaries:  GrandTotalBuckets,
	})
	if err != nil {
		return nil, err
	}

	qm.pricingDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "quote_pricing_duration_seconds",
		Description: "Time spent pricing one project",
		Unit:        "s",
		Boundaries:  QuoteDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return qm, nil
}

// RecordQuote records one PriceProject call
func (qm *QuoteMetrics) RecordQuote(ctx context.Context, method string, grandTotal decimal.Decimal, d time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	attrs := []attribute.KeyValue{AttrCostingMethod.String(method), AttrOutcome.String(outcome)}
	qm.quotesPriced.Inc(ctx, attrs...)
	qm.pricingDuration.RecordDuration(ctx, d, attrs...)
	if err == nil {
		qm.grandTotal.Record(ctx, grandTotal.InexactFloat64(), AttrCostingMethod.String(method))
	}
}

// RecordNoCostLine counts a line that had no catalog pricing
func (qm *QuoteMetrics) RecordNoCostLine(ctx context.Context, partType string) {
	qm.noCostLines.Inc(ctx, AttrPartType.String(partType))
}

// RecordReportWritten counts a rendered report file
func (qm *QuoteMetrics) RecordReportWritten(ctx context.Context, report string) {
	qm.reportsWritten.Inc(ctx, AttrReport.String(report))
}

// RecordReconcile records the outcome of a reconciliation run
func (qm *QuoteMetrics) RecordReconcile(ctx context.Context, ok bool) {
	outcome := OutcomeSuccess
	if !ok {
		outcome = OutcomeFailure
	}
	qm.reconcileChecks.Inc(ctx, AttrOutcome.String(outcome))
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewQuoteMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
