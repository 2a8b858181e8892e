package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records pipeline metrics to Prometheus. It satisfies the
// repository.Metrics interface.
type Recorder struct {
	pipelineRuns *prometheus.CounterVec
	promotions   *prometheus.CounterVec
	rowsScored   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with all collectors registered on the
// default registry.
func NewRecorder() *Recorder {
	return &Recorder{
		pipelineRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopintent_pipeline_runs_total",
				Help: "Pipeline executions by pipeline name and outcome",
			},
			[]string{"pipeline", "outcome"},
		),
		promotions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopintent_model_promotions_total",
				Help: "Challenger promotions by model name",
			},
			[]string{"model"},
		),
		rowsScored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopintent_rows_scored_total",
				Help: "Rows scored by the prediction pipeline",
			},
			[]string{"model"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shopintent_operation_duration_seconds",
				Help:    "Duration of pipeline operations",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordPipelineRun(pipeline, outcome string) {
	r.pipelineRuns.WithLabelValues(pipeline, outcome).Inc()
}

func (r *Recorder) RecordPromotion(modelName string) {
	r.promotions.WithLabelValues(modelName).Inc()
}

func (r *Recorder) RecordRowsScored(modelName string, n int) {
	r.rowsScored.WithLabelValues(modelName).Add(float64(n))
}

func (r *Recorder) RecordLatency(operation string, seconds float64) {
	r.latency.WithLabelValues(operation).Observe(seconds)
}
