package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration module.
// Tracks record writes and record store latency per operation.
type Metrics struct {
	RecordsCreated prometheus.Counter
	RecordsUpdated prometheus.Counter
	StoreDuration  *prometheus.HistogramVec
	StoreFailures  *prometheus.CounterVec
}

// New creates a Metrics instance registered with the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a Metrics instance registered with reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RecordsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "accueil_registrations_created_total",
			Help: "Total number of registration records created",
		}),
		RecordsUpdated: f.NewCounter(prometheus.CounterOpts{
			Name: "accueil_registrations_updated_total",
			Help: "Total number of registration records updated",
		}),
		StoreDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accueil_record_store_duration_seconds",
			Help:    "Duration of record store calls by operation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
		StoreFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "accueil_record_store_failures_total",
			Help: "Record store calls that returned an error, by operation",
		}, []string{"operation"}),
	}
}

// IncrementCreated records a successful creation.
func (m *Metrics) IncrementCreated() {
	if m == nil {
		return
	}
	m.RecordsCreated.Inc()
}

// IncrementUpdated records a successful update.
func (m *Metrics) IncrementUpdated() {
	if m == nil {
		return
	}
	m.RecordsUpdated.Inc()
}

// ObserveStore records the duration of one store call and whether it failed.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveStore(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.StoreFailures.WithLabelValues(operation).Inc()
	}
}
