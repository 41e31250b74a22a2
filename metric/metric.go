// Package metric exports Prometheus instrumentation for pipeline
// processing: per-stage durations, processed batch/sample counts, and
// stage errors. The Observer plugs into the pipeline's callback surface.
package metric

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cwbudde/algo-pipeline/dsp/pipeline"
)

// Config controls collector registration.
type Config struct {
	// Registry receives the collectors; nil uses the default registerer.
	Registry prometheus.Registerer
	// Namespace prefixes every metric name.
	Namespace string
}

// Observer bridges pipeline observer callbacks to Prometheus collectors.
type Observer struct {
	stageDuration *prometheus.HistogramVec
	batches       prometheus.Counter
	samples       prometheus.Counter
	stageErrors   *prometheus.CounterVec
}

// NewObserver creates and registers the collectors.
func NewObserver(cfg Config) (*Observer, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &Observer{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Wall-clock time spent in each pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "pipeline_batches_processed_total",
			Help:      "Completed process calls.",
		}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "pipeline_samples_processed_total",
			Help:      "Output samples across all completed process calls.",
		}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "pipeline_stage_errors_total",
			Help:      "Stage execution failures by joined stage trail.",
		}, []string{"stage"}),
	}

	collectors := []prometheus.Collector{
		o.stageDuration, o.batches, o.samples, o.stageErrors,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metric: register: %w", err)
		}
	}

	return o, nil
}

// Callbacks returns pipeline callbacks that feed the collectors. Merge the
// result into any application callbacks before constructing the pipeline.
func (o *Observer) Callbacks() pipeline.Callbacks {
	return pipeline.Callbacks{
		OnStageComplete: func(stage string, d time.Duration) {
			o.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
		},
		OnBatch: func(batch []float64) {
			o.batches.Inc()
			o.samples.Add(float64(len(batch)))
		},
		OnError: func(stage string, _ error) {
			o.stageErrors.WithLabelValues(stage).Inc()
		},
	}
}
