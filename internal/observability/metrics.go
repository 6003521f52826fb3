// Package observability exposes freshness watermarks for the write path: when a
// wellness record last reached Postgres and when its event last reached Kafka.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage names one hop of the write path.
type Stage string

const (
	StageActivityStored Stage = "activity_stored"
	StageJournalStored  Stage = "journal_stored"
	StageEventPublished Stage = "event_published"
)

var watermarks = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "zenscape",
	Name:      "write_path_watermark_seconds",
	Help:      "Unix time of the newest record that completed each write path stage.",
}, []string{"stage"})

func init() {
	prometheus.MustRegister(watermarks)
}

// Advance moves the watermark for stage to ts. Zero times are ignored.
func Advance(stage Stage, ts time.Time) {
	if !ts.IsZero() {
		watermarks.WithLabelValues(string(stage)).Set(float64(ts.Unix()))
	}
}
