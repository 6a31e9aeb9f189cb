// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "janus_pipeline_runs_completed_total",
			Help: "Total number of pipeline runs that produced an event",
		},
		[]string{"source_type"},
	)

	PipelineRunsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "janus_pipeline_runs_failed_total",
			Help: "Total number of pipeline runs that failed, by stage",
		},
		[]string{"source_type", "failed_stage"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "janus_pipeline_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"source_type", "stage"},
	)

	PipelineRunsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "janus_pipeline_runs_active",
			Help: "Number of pipeline runs currently in flight",
		},
		[]string{"source_type"},
	)
)
