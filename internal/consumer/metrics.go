package consumer

import "github.com/prometheus/client_golang/prometheus"

const metricsSubsystem = "wellness_consumer"

// consumerMetrics groups the collectors the processor updates per message.
type consumerMetrics struct {
	handled   *prometheus.CounterVec
	failed    *prometheus.CounterVec
	undecoded *prometheus.CounterVec
	freshness *prometheus.GaugeVec
}

var metrics = newConsumerMetrics(prometheus.DefaultRegisterer)

func newConsumerMetrics(reg prometheus.Registerer) *consumerMetrics {
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: "zenscape", Subsystem: metricsSubsystem, Name: name, Help: help}
	}
	m := &consumerMetrics{
		handled: prometheus.NewCounterVec(prometheus.CounterOpts(opts("events_handled_total",
			"Wellness events applied by every registered handler.")), []string{"topic", "event_type"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts(opts("events_failed_total",
			"Wellness events rejected by a handler and left uncommitted.")), []string{"topic", "event_type"}),
		undecoded: prometheus.NewCounterVec(prometheus.CounterOpts(opts("envelopes_undecodable_total",
			"Kafka records skipped because their envelope could not be parsed.")), []string{"topic"}),
		freshness: prometheus.NewGaugeVec(prometheus.GaugeOpts(opts("last_event_occurred_seconds",
			"Occurrence time of the newest wellness event applied on each topic.")), []string{"topic"}),
	}
	reg.MustRegister(m.handled, m.failed, m.undecoded, m.freshness)
	return m
}

func recordProcessed(msg Message) {
	metrics.handled.WithLabelValues(msg.Topic, msg.EventType).Inc()
	if msg.Timestamp.IsZero() {
		return
	}
	metrics.freshness.WithLabelValues(msg.Topic).Set(float64(msg.Timestamp.Unix()))
}

func recordHandlerError(msg Message) {
	metrics.failed.WithLabelValues(msg.Topic, msg.EventType).Inc()
}

func recordDecodeError(topic string) {
	metrics.undecoded.WithLabelValues(topic).Inc()
}
