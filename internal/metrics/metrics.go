package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "photofix"

// Outcomes of processing a single file.
const (
	Renamed  = "renamed"
	Marked   = "marked"
	Skipped  = "skipped"
	Failed   = "failed"
	Removed  = "removed"
	Reverted = "reverted"
)

type Metrics struct {
	registry *prometheus.Registry
	files    *prometheus.CounterVec
	tools    *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	files := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "files_total",
		Help:      "Files handled by a pipeline, by outcome.",
	}, []string{"pipeline", "outcome"})

	tools := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tool_seconds",
		Help:      "Time spent waiting for metadata tools.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"tool"})

	registry.MustRegister(files, tools)

	return &Metrics{
		registry: registry,
		files:    files,
		tools:    tools,
	}
}

func (x *Metrics) Increment(pipeline, outcome string) {
	x.files.WithLabelValues(pipeline, outcome).Inc()
}

// Record starts timing a tool invocation; call the returned function when it returns.
func (x *Metrics) Record(tool string) func() {
	start := time.Now()
	return func() {
		x.tools.WithLabelValues(tool).Observe(time.Since(start).Seconds())
	}
}

// Count returns the current value of the files counter for pipeline and outcome.
func (x *Metrics) Count(pipeline, outcome string) int {
	families, err := x.registry.Gather()
	if err != nil {
		return 0
	}

	for _, f := range families {
		if f.GetName() != namespace+"_files_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			if matches(m.GetLabel(), pipeline, outcome) {
				return int(m.GetCounter().GetValue())
			}
		}
	}

	return 0
}

func matches(labels []*dto.LabelPair, pipeline, outcome string) bool {
	var p, o bool
	for _, l := range labels {
		switch l.GetName() {
		case "pipeline":
			p = l.GetValue() == pipeline
		case "outcome":
			o = l.GetValue() == outcome
		}
	}
	return p && o
}

// WriteTextfile dumps the registry in the node_exporter textfile collector format.
func (x *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, x.registry)
}
