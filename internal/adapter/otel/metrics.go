package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Strob0t/seogov/internal/port/telemetry"
)

const meterName = "seogov"

var _ telemetry.Recorder = (*Metrics)(nil)

// Metrics holds all seogov metric instruments and implements
// telemetry.Recorder.
type Metrics struct {
	Cycles          metric.Int64Counter
	CycleDuration   metric.Float64Histogram
	SectionFailures metric.Int64Counter
	Issues          metric.Int64Counter
	Escalations     metric.Int64Counter
	ReviewsTriaged  metric.Int64Counter
	LedgerDecisions metric.Int64Counter
	LedgerSpend     metric.Float64Counter
	ActionsResolved metric.Int64Counter
	BreakerChanges  metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWith(otel.GetMeterProvider())
}

// NewMetricsWith creates the instruments on mp.
func NewMetricsWith(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.Cycles, err = meter.Int64Counter("seogov.cycles",
		metric.WithDescription("Governance cycles run")); err != nil {
		return nil, err
	}
	if m.CycleDuration, err = meter.Float64Histogram("seogov.cycle.duration_seconds",
		metric.WithDescription("Governance cycle duration in seconds"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.SectionFailures, err = meter.Int64Counter("seogov.cycle.section_failures",
		metric.WithDescription("Cycle sections that ended in an error")); err != nil {
		return nil, err
	}
	if m.Issues, err = meter.Int64Counter("seogov.sentinel.issues",
		metric.WithDescription("Issues detected by the sentinel")); err != nil {
		return nil, err
	}
	if m.Escalations, err = meter.Int64Counter("seogov.sentinel.escalations",
		metric.WithDescription("Sentinel passes escalated to a human")); err != nil {
		return nil, err
	}
	if m.ReviewsTriaged, err = meter.Int64Counter("seogov.reviews.triaged",
		metric.WithDescription("Reviews analyzed by triage")); err != nil {
		return nil, err
	}
	if m.LedgerDecisions, err = meter.Int64Counter("seogov.ledger.decisions",
		metric.WithDescription("Spending approval decisions")); err != nil {
		return nil, err
	}
	if m.LedgerSpend, err = meter.Float64Counter("seogov.ledger.spend",
		metric.WithDescription("Approved spend"), metric.WithUnit("{currency}")); err != nil {
		return nil, err
	}
	if m.ActionsResolved, err = meter.Int64Counter("seogov.actions.resolved",
		metric.WithDescription("Pending actions approved and executed")); err != nil {
		return nil, err
	}
	if m.BreakerChanges, err = meter.Int64Counter("seogov.breaker.transitions",
		metric.WithDescription("Circuit breaker state changes")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) CycleCompleted(ctx context.Context, d time.Duration, failed []string) {
	outcome := "ok"
	if len(failed) > 0 {
		outcome = "partial"
	}
	m.Cycles.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.CycleDuration.Record(ctx, d.Seconds())
	for _, section := range failed {
		m.SectionFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("section", section)))
	}
}

func (m *Metrics) IssuesDetected(ctx context.Context, counts map[string]int, escalated bool) {
	for category, n := range counts {
		if n > 0 {
			m.Issues.Add(ctx, int64(n), metric.WithAttributes(attribute.String("category", category)))
		}
	}
	if escalated {
		m.Escalations.Add(ctx, 1)
	}
}

func (m *Metrics) ReviewTriaged(ctx context.Context, sentiment string, escalated bool) {
	m.ReviewsTriaged.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sentiment", sentiment),
		attribute.Bool("escalated", escalated),
	))
}

func (m *Metrics) ExpenseDecided(ctx context.Context, activity string, cost float64, approved bool) {
	m.LedgerDecisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("activity", activity),
		attribute.Bool("approved", approved),
	))
	if approved {
		m.LedgerSpend.Add(ctx, cost, metric.WithAttributes(attribute.String("activity", activity)))
	}
}

func (m *Metrics) ActionResolved(ctx context.Context, kind, status string) {
	m.ActionsResolved.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}

// BreakerStateChanged matches resilience.Breaker.OnStateChange once its
// states are converted to strings.
func (m *Metrics) BreakerStateChanged(name, from, to string) {
	m.BreakerChanges.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("breaker", name),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
