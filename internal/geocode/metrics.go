package geocode

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Lookups  *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewMetrics registers geocoding metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "accueil_geocode_lookups_total",
			Help: "Geocoding lookups by outcome (ok or failure category)",
		}, []string{"outcome"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "accueil_geocode_duration_seconds",
			Help:    "Geocoding lookup latency",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observe(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(outcome).Inc()
	m.Duration.Observe(time.Since(start).Seconds())
}
