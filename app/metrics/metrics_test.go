package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PostProcessed("humor", OutcomeEmitted)
	m.PostProcessed("humor", OutcomeEmitted)
	m.PostProcessed("humor", OutcomeFetchFailed)
	m.PostsProcessed("humor", OutcomeFiltered, 4)
	m.ItemsEmitted("humor", 2)
	m.BuildFinished("humor", "success", 3*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.postsProcessed.WithLabelValues("humor", OutcomeEmitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.postsProcessed.WithLabelValues("humor", OutcomeFetchFailed)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.postsProcessed.WithLabelValues("humor", OutcomeFiltered)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.itemsEmitted.WithLabelValues("humor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.builds.WithLabelValues("humor", "success")))
	assert.Greater(t, testutil.ToFloat64(m.lastSuccess.WithLabelValues("humor")), 0.0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.buildDuration))
}
