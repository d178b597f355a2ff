package cds

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects retrieval statistics of a Client.
type Metrics struct {
	retrievals *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	bytes      prometheus.Counter
}

// NewMetrics creates the retrieval collectors and registers
// them on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		retrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "era5",
			Subsystem: "cds",
			Name:      "retrievals_total",
			Help:      "Retrieval requests submitted to the CDS, by product and outcome.",
		}, []string{"product", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "era5",
			Subsystem: "cds",
			Name:      "retrieval_duration_seconds",
			Help:      "Time from request submission to completed download.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"product"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "era5",
			Subsystem: "cds",
			Name:      "downloaded_bytes_total",
			Help:      "Bytes of result files downloaded from the CDS.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.retrievals, m.duration, m.bytes)
	}
	return m
}

func (m *Metrics) observe(product string, seconds float64, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.retrievals.WithLabelValues(product, outcome).Inc()
	m.duration.WithLabelValues(product).Observe(seconds)
}

func (m *Metrics) addBytes(n int64) {
	if m == nil {
		return
	}
	m.bytes.Add(float64(n))
}
