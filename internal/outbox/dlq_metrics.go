package outbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// dlqMetrics tracks what the DLQ manager does with parked events.
type dlqMetrics struct {
	outcomes *prometheus.CounterVec
	pending  prometheus.Gauge
}

const (
	outcomeRequeued    = "requeued"
	outcomeQuarantined = "quarantined"
	outcomeDeferred    = "deferred"
)

var dlqStats = newDLQMetrics(prometheus.DefaultRegisterer)

func newDLQMetrics(reg prometheus.Registerer) *dlqMetrics {
	m := &dlqMetrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zenscape",
			Subsystem: "event_dlq",
			Name:      "entries_total",
			Help:      "Dead-lettered wellness events by manager outcome.",
		}, []string{"outcome", "topic", "event_type"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "zenscape",
			Subsystem: "event_dlq",
			Name:      "pending_entries",
			Help:      "Dead-lettered events still eligible for retry.",
		}),
	}
	reg.MustRegister(m.outcomes, m.pending)
	return m
}

func (m *dlqMetrics) observe(outcome string, entry dlqEntry) {
	m.outcomes.WithLabelValues(outcome, entry.Topic, entry.EventType).Inc()
}

// refreshPending samples the retryable backlog; query errors leave the last value.
func (m *dlqMetrics) refreshPending(ctx context.Context, pool *pgxpool.Pool) {
	var pending int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NULL`).Scan(&pending)
	if err == nil {
		m.pending.Set(float64(pending))
	}
}
