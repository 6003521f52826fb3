package session

import "github.com/prometheus/client_golang/prometheus"

var (
	startedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zenscape",
		Subsystem: "session",
		Name:      "started_total",
		Help:      "Timed sessions that began playback.",
	})

	completedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zenscape",
		Subsystem: "session",
		Name:      "completed_total",
		Help:      "Timed sessions that ran to their target duration.",
	})

	stoppedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zenscape",
		Subsystem: "session",
		Name:      "stopped_total",
		Help:      "Timed sessions stopped before completion.",
	})
)

func init() {
	prometheus.MustRegister(startedCounter, completedCounter, stoppedCounter)
}
