package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zenscape",
		Subsystem: "chat",
		Name:      "requests_total",
		Help:      "Companion replies grouped by outcome (ok, error, fallback).",
	}, []string{"outcome"})

	crisisCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zenscape",
		Subsystem: "chat",
		Name:      "crisis_detections_total",
		Help:      "Messages flagged by crisis keyword detection, by category.",
	}, []string{"category"})
)

func init() {
	prometheus.MustRegister(requestCounter, crisisCounter)
}

func recordRequest(outcome string) {
	requestCounter.WithLabelValues(outcome).Inc()
}

func recordDetection(d Detection) {
	for _, category := range Categories {
		if d.Has(category) {
			crisisCounter.WithLabelValues(string(category)).Inc()
		}
	}
}
