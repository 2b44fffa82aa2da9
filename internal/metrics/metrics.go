// Package metrics records command outcomes for the node_exporter textfile
// collector. Everything here is best-effort: a metrics failure never alters
// a command's exit status.
package metrics

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

var histogramBuckets = []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600}

// Recorder accumulates per-invocation command metrics and flushes them to a
// textfile. A nil Recorder is a no-op.
type Recorder struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	path     string
	logger   *slog.Logger
}

// New returns a recorder writing to path, or nil when path is empty.
func New(path string, logger *slog.Logger) *Recorder {
	if path == "" {
		return nil
	}
	registry := prometheus.NewRegistry()
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deployctl",
		Name:      "command_runs_total",
		Help:      "Count of command invocations by outcome",
	}, []string{"verb", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "deployctl",
		Name:      "command_duration_seconds",
		Help:      "Wall-clock duration of command invocations",
		Buckets:   histogramBuckets,
	}, []string{"verb"})
	registry.MustRegister(runs, duration)
	return &Recorder{
		registry: registry,
		runs:     runs,
		duration: duration,
		path:     path,
		logger:   logger,
	}
}

// Record notes one command invocation.
func (r *Recorder) Record(verb, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(verb, outcome).Inc()
	r.duration.WithLabelValues(verb).Observe(elapsed.Seconds())
}

// Flush writes the accumulated metrics atomically to the textfile.
func (r *Recorder) Flush() {
	if r == nil {
		return
	}
	if err := r.flush(); err != nil {
		r.logger.Warn("metrics flush failed", "path", r.path, "error", err)
	}
}

func (r *Recorder) flush() error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	var buf bytes.Buffer
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, family); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	tmp := r.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}
