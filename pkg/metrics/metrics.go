// Package metrics defines the Prometheus collectors for extraction and detection.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction outcomes.
const (
	OutcomeModel       = "model"
	OutcomePlaceholder = "placeholder"
	OutcomeRejected    = "rejected"
)

var (
	ExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accidentscan_extractions_total",
		Help: "Total number of frame extractions, by status",
	}, []string{"status"})

	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "accidentscan_extraction_duration_seconds",
		Help:    "Duration of sampling all frames of one video",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	FramesSampledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accidentscan_frames_sampled_total",
		Help: "Total number of frames sampled across all videos",
	})

	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accidentscan_predictions_total",
		Help: "Total number of predictions, by outcome",
	}, []string{"outcome"})

	AccidentsDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accidentscan_accidents_detected_total",
		Help: "Total number of predictions that reported an accident",
	})

	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accidentscan_exports_total",
		Help: "Total number of frame exports, by status",
	}, []string{"status"})
)

// Status reports "success" for a nil error and "error" otherwise.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
