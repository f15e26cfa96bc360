// Package metrics holds the prometheus collectors shared by the pipeline,
// the image ranker and the CLI.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Extractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "readembed_extractions_total",
		Help: "Extractions finished, by outcome.",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "readembed_stage_duration_seconds",
		Help:    "Time spent in each enrichment stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	StageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "readembed_stage_errors_total",
		Help: "Stage errors and recovered panics.",
	}, []string{"stage"})

	ImageProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "readembed_image_probes_total",
		Help: "Image size probes, by outcome.",
	}, []string{"outcome"})
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	ProbeOK     = "ok"
	ProbeFailed = "failed"
	ProbeCached = "cached"
)

// WriteTextfile writes every registered collector to path in the text
// exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
