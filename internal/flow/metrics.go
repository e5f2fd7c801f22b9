package flow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the capture journey.
type Metrics struct {
	SessionsStarted prometheus.Counter
	Extractions     *prometheus.CounterVec
	StaleResults    prometheus.Counter
	InFlight        prometheus.Gauge
	Saved           prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "accueil_flow_sessions_started_total",
			Help: "Capture sessions started",
		}),
		Extractions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "accueil_flow_extractions_total",
			Help: "Extractions finished by outcome",
		}, []string{"outcome"}),
		StaleResults: f.NewCounter(prometheus.CounterOpts{
			Name: "accueil_flow_stale_results_total",
			Help: "Extraction results dropped because the session moved on",
		}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "accueil_flow_extractions_in_flight",
			Help: "Extractions currently running",
		}),
		Saved: f.NewCounter(prometheus.CounterOpts{
			Name: "accueil_flow_saved_total",
			Help: "Capture sessions saved as registrations",
		}),
	}
}

func (m *Metrics) sessionStarted() {
	if m != nil {
		m.SessionsStarted.Inc()
	}
}

func (m *Metrics) extractionStarted() {
	if m != nil {
		m.InFlight.Inc()
	}
}

func (m *Metrics) extractionFinished(outcome string) {
	if m != nil {
		m.InFlight.Dec()
		m.Extractions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) staleResult() {
	if m != nil {
		m.StaleResults.Inc()
	}
}

func (m *Metrics) saved() {
	if m != nil {
		m.Saved.Inc()
	}
}
