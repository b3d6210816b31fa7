package pipeline

import (
	"context"
	"log/slog"

	"soc-platform/internal/event"
	"soc-platform/pkg/metrics"
)

// Enqueuer appends the event to the durable queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, ev event.LogEvent) error
}

// Indexer writes the event into the search index.
type Indexer interface {
	IndexEvent(ctx context.Context, ev event.LogEvent) error
}

// Evaluator runs the event through the tenant's alert rules.
type Evaluator interface {
	Evaluate(ctx context.Context, ev event.LogEvent) error
}

// Pipeline fans a validated event out to the queue, the index, and the
// alert engine. Each stage is best-effort: a failing stage is logged and
// counted, and the remaining stages still run. The caller acknowledges
// acceptance regardless of side-effect outcomes.
type Pipeline struct {
	queue   Enqueuer
	index   Indexer
	alerts  Evaluator
	log     *slog.Logger
	metrics *metrics.Metrics
}

func New(queue Enqueuer, index Indexer, alerts Evaluator, log *slog.Logger, m *metrics.Metrics) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{queue: queue, index: index, alerts: alerts, log: log, metrics: m}
}

// Process runs all three stages for one accepted event.
//
// The stages run detached from request cancellation: once an event is
// accepted, a client disconnect must not abort an in-flight enqueue,
// index write or rule evaluation.
func (p *Pipeline) Process(ctx context.Context, ev event.LogEvent) {
	ctx = context.WithoutCancel(ctx)

	if p.metrics != nil {
		p.metrics.EventsIngested.WithLabelValues(ev.Source).Inc()
	}

	if err := p.queue.Enqueue(ctx, ev); err != nil {
		p.stageFailed("enqueue", ev, err)
	}
	if err := p.index.IndexEvent(ctx, ev); err != nil {
		p.stageFailed("index", ev, err)
	}
	if err := p.alerts.Evaluate(ctx, ev); err != nil {
		p.stageFailed("evaluate", ev, err)
	}
}

func (p *Pipeline) stageFailed(stage string, ev event.LogEvent, err error) {
	p.log.Error("ingestion side effect failed",
		"stage", stage,
		"event", ev.ID,
		"tenant", ev.TenantID,
		"err", err,
	)
	if p.metrics != nil {
		p.metrics.SideEffectFailures.WithLabelValues(stage).Inc()
	}
}
