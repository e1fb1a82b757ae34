// Package metrics holds the prometheus collectors of the segment search.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "segment_search"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeRetried = "retried"
	OutcomeFailure = "failure"
)

type SearchMetrics struct {
	Submissions   *prometheus.CounterVec
	Fetches       *prometheus.CounterVec
	PollOutcomes  *prometheus.CounterVec
	CacheLookups  *prometheus.CounterVec
	ActivePollers prometheus.Gauge
	Batches       prometheus.Counter
}

// NewSearchMetrics creates the collectors and registers them with reg.
func NewSearchMetrics(reg prometheus.Registerer) *SearchMetrics {
	m := &SearchMetrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Remote start-search calls by outcome.",
		}, []string{"outcome"}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Remote result polls by outcome.",
		}, []string{"outcome"}),
		PollOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_terminations_total",
			Help:      "Poll loops that reached a terminal state, by state.",
		}, []string{"state"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by result (hit, miss).",
		}, []string{"result"}),
		ActivePollers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_pollers",
			Help:      "Poll loops currently running.",
		}),
		Batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Batches started or resumed.",
		}),
	}

	reg.MustRegister(m.Submissions, m.Fetches, m.PollOutcomes, m.CacheLookups, m.ActivePollers, m.Batches)

	return m
}
