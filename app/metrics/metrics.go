package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeEmitted          = "emitted"
	OutcomeFetchFailed      = "fetch_failed"
	OutcomeContainerMissing = "container_missing"
	OutcomeEmpty            = "empty"
	OutcomeFiltered         = "filtered"
)

type Metrics struct {
	postsProcessed *prometheus.CounterVec
	itemsEmitted   *prometheus.CounterVec
	builds         *prometheus.CounterVec
	buildDuration  *prometheus.HistogramVec
	lastSuccess    *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		postsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "board_feeds_posts_processed_total",
			Help: "Posts handled by the content pipeline, by outcome",
		}, []string{"site", "outcome"}),

		itemsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "board_feeds_items_emitted_total",
			Help: "Items written to feed documents",
		}, []string{"site"}),

		builds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "board_feeds_builds_total",
			Help: "Feed builds, by final status",
		}, []string{"site", "status"}),

		buildDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "board_feeds_build_duration_seconds",
			Help:    "Wall time of a complete feed build",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~8.5m
		}, []string{"site"}),

		lastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "board_feeds_last_success_timestamp_seconds",
			Help: "Unix time of the last successful build",
		}, []string{"site"}),
	}
}

func (m *Metrics) PostProcessed(site, outcome string) {
	m.PostsProcessed(site, outcome, 1)
}

func (m *Metrics) PostsProcessed(site, outcome string, n int) {
	m.postsProcessed.WithLabelValues(site, outcome).Add(float64(n))
}

func (m *Metrics) ItemsEmitted(site string, n int) {
	m.itemsEmitted.WithLabelValues(site).Add(float64(n))
}

func (m *Metrics) BuildFinished(site, status string, duration time.Duration) {
	m.builds.WithLabelValues(site, status).Inc()
	m.buildDuration.WithLabelValues(site).Observe(duration.Seconds())
	if status == "success" {
		m.lastSuccess.WithLabelValues(site).SetToCurrentTime()
	}
}
