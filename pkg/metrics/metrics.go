// Package metrics exposes Prometheus counters for information-checking runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace prefixes every metric.
	Namespace = "rss"

	// LabelResult distinguishes accepted from rejected shares.
	LabelResult = "result"

	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

// Metrics groups the counters updated by the information-checking layer.
type Metrics struct {
	SharesChecked *prometheus.CounterVec
	TagsCreated   prometheus.Counter
	PairsRejected prometheus.Counter
}

// New registers the counters with reg. A nil registerer creates unregistered
// counters, which is handy in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SharesChecked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "shares_checked_total",
				Help:      "Shares evaluated by the information-checking layer, by result",
			},
			[]string{LabelResult},
		),
		TagsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tags_created_total",
			Help:      "Pairwise MAC tags created",
		}),
		PairsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pair_verifications_failed_total",
			Help:      "Pairwise MAC verifications that failed or had missing material",
		}),
	}
}

// RecordCheck records the outcome of one share evaluation.
func (m *Metrics) RecordCheck(accepted bool) {
	if m == nil {
		return
	}
	result := ResultRejected
	if accepted {
		result = ResultAccepted
	}
	m.SharesChecked.WithLabelValues(result).Inc()
}

// RecordTags adds n created tags.
func (m *Metrics) RecordTags(n int) {
	if m == nil {
		return
	}
	m.TagsCreated.Add(float64(n))
}

// RecordFailedPairs adds n failed pairwise verifications.
func (m *Metrics) RecordFailedPairs(n int) {
	if m == nil || n == 0 {
		return
	}
	m.PairsRejected.Add(float64(n))
}
