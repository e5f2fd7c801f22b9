package extraction

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks vision model calls by outcome.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewMetrics registers extraction metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "accueil_extraction_requests_total",
			Help: "Vision model extraction calls by outcome (ok or failure category)",
		}, []string{"outcome"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "accueil_extraction_duration_seconds",
			Help:    "Vision model extraction latency",
			Buckets: []float64{0.5, 1, 2, 4, 8, 15, 30, 60},
		}),
	}
}

func (m *Metrics) observe(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
	m.Duration.Observe(time.Since(start).Seconds())
}
