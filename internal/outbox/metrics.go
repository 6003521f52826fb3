package outbox

import "github.com/prometheus/client_golang/prometheus"

// dispatchMetrics tracks how wellness events leave the outbox table.
type dispatchMetrics struct {
	published   prometheus.Counter
	rejected    prometheus.Counter
	deadLetters *prometheus.CounterVec
	batchTime   prometheus.Histogram
}

var dispatchStats = newDispatchMetrics(prometheus.DefaultRegisterer)

func newDispatchMetrics(reg prometheus.Registerer) *dispatchMetrics {
	const subsystem = "event_outbox"
	m := &dispatchMetrics{
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zenscape", Subsystem: subsystem,
			Name: "published_total",
			Help: "Wellness events acknowledged by Kafka.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zenscape", Subsystem: subsystem,
			Name: "publish_failures_total",
			Help: "Wellness events whose publish attempt failed.",
		}),
		deadLetters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zenscape", Subsystem: subsystem,
			Name: "dead_lettered_total",
			Help: "Wellness events moved to outbox_dlq per topic.",
		}, []string{"topic"}),
		batchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "zenscape", Subsystem: subsystem,
			Name:    "batch_seconds",
			Help:    "Duration of one claim, publish and mark cycle.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
	reg.MustRegister(m.published, m.rejected, m.deadLetters, m.batchTime)
	return m
}
