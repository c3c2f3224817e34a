package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nbdt"

// Recorder exports evaluation progress as Prometheus metrics.
type Recorder struct {
	BatchesTotal  *prometheus.CounterVec
	SamplesTotal  *prometheus.CounterVec
	BatchDuration *prometheus.HistogramVec
	AnalyzerStat  *prometheus.GaugeVec
}

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		BatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Batches passed to the analyzer by phase",
		}, []string{"phase"}),
		SamplesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Samples passed to the analyzer by phase",
		}, []string{"phase"}),
		BatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time spent in the analyzer per batch",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"phase"}),
		AnalyzerStat: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analyzer_stat",
			Help:      "Last value reported by the analyzer for a batch",
		}, []string{"analyzer", "stat"}),
	}
	reg.MustRegister(r.BatchesTotal, r.SamplesTotal, r.BatchDuration, r.AnalyzerStat)
	return r
}

// ObserveBatch records one analyzed batch. An empty stat name skips the gauge.
func (r *Recorder) ObserveBatch(phase string, samples int, took time.Duration, analyzer, stat string, value float64) {
	if r == nil {
		return
	}
	r.BatchesTotal.WithLabelValues(phase).Inc()
	r.SamplesTotal.WithLabelValues(phase).Add(float64(samples))
	r.BatchDuration.WithLabelValues(phase).Observe(took.Seconds())
	if stat != "" {
		r.AnalyzerStat.WithLabelValues(analyzer, stat).Set(value)
	}
}
