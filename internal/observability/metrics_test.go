package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAdvanceTracksEachStage(t *testing.T) {
	ts := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	Advance(StageActivityStored, ts)
	Advance(StageActivityStored, time.Time{})
	Advance(StageEventPublished, ts.Add(time.Minute))

	assert.Equal(t, float64(ts.Unix()), testutil.ToFloat64(watermarks.WithLabelValues(string(StageActivityStored))))
	assert.Equal(t, float64(ts.Add(time.Minute).Unix()), testutil.ToFloat64(watermarks.WithLabelValues(string(StageEventPublished))))
}
