package visit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records submission outcomes and latency.
type Metrics struct {
	submissions *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics creates submission metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sfa",
			Subsystem: "visit",
			Name:      "submissions_total",
			Help:      "Visit submissions by result (success, validation, connection, transaction, query).",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sfa",
			Subsystem: "visit",
			Name:      "submission_duration_seconds",
			Help:      "Time spent handling a visit submission.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.submissions, m.duration)
	return m
}

func (m *Metrics) observe(err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = KindOf(err).String()
	}
	m.submissions.WithLabelValues(result).Inc()
	m.duration.Observe(d.Seconds())
}
