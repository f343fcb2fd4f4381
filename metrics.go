package doccrop

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "doccrop"

// Metrics holds Prometheus collectors for jobs and conversions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	jobs               *prometheus.CounterVec
	jobDuration        *prometheus.HistogramVec
	inFlight           prometheus.Gauge
	pages              prometheus.Counter
	conversions        *prometheus.CounterVec
	conversionDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_total",
			Help:      "Crop jobs finished, by input format and result.",
		}, []string{"format", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time per crop job.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"format"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_in_flight",
			Help:      "Crop jobs currently running.",
		}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pages_cropped_total",
			Help:      "Pages written by successful crops.",
		}),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "conversions_total",
			Help:      "Format conversions, by tier and result.",
		}, []string{"tier", "result"}),
		conversionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "conversion_duration_seconds",
			Help:      "Wall time per conversion attempt.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"tier"}),
	}

	for _, c := range []prometheus.Collector{m.jobs, m.jobDuration, m.inFlight, m.pages, m.conversions, m.conversionDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (m *Metrics) jobStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) jobFinished(format string, o CropOutcome) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.jobs.WithLabelValues(format, result(o.Success)).Inc()
	m.jobDuration.WithLabelValues(format).Observe(o.Duration.Seconds())
	if o.Success {
		m.pages.Add(float64(o.PagesProcessed))
	}
}

// jobRejected counts a job refused before dispatch.
func (m *Metrics) jobRejected(format string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(format, result(false)).Inc()
}

func (m *Metrics) conversion(tier string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(tier, result(ok)).Inc()
	m.conversionDuration.WithLabelValues(tier).Observe(d.Seconds())
}
