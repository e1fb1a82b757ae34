package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewSearchMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSearchMetrics(reg)

	m.Submissions.WithLabelValues(OutcomeSuccess).Inc()
	m.ActivePollers.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActivePollers))

	count, err := testutil.GatherAndCount(reg, "segment_search_submissions_total", "segment_search_active_pollers")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Panics(t, func() { NewSearchMetrics(reg) }, "registering twice must fail")
}
