// Package metrics exports rebuild step outcomes in the Prometheus text format
// for the node_exporter textfile collector.
package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrNoTextfile is returned by Flush when no output path is configured.
var ErrNoTextfile = errors.New("metrics textfile path is empty")

// Recorder holds the rebuild gauges in a private registry.
type Recorder struct {
	registry *prometheus.Registry
	path     string

	stepExitCode *prometheus.GaugeVec
	stepDuration *prometheus.GaugeVec
	lastRun      prometheus.Gauge
	failedSteps  prometheus.Gauge
}

// NewRecorder creates a Recorder that writes to path on Flush.
func NewRecorder(path string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		path:     path,
		stepExitCode: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rta_rebuild_step_exit_code",
				Help: "Exit code of each rebuild step in the last run (-1 if it did not start)",
			},
			[]string{"step", "name"},
		),
		stepDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rta_rebuild_step_duration_seconds",
				Help: "Wall time of each rebuild step in the last run",
			},
			[]string{"step", "name"},
		),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rta_rebuild_last_run_timestamp_seconds",
			Help: "Unix time the last rebuild finished",
		}),
		failedSteps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rta_rebuild_failed_steps",
			Help: "Number of steps that exited non-zero in the last run",
		}),
	}
	r.registry.MustRegister(r.stepExitCode, r.stepDuration, r.lastRun, r.failedSteps)
	return r
}

// ObserveStep records the outcome of one step.
func (r *Recorder) ObserveStep(step int, name string, exitCode int, d time.Duration) {
	labels := prometheus.Labels{"step": strconv.Itoa(step), "name": name}
	r.stepExitCode.With(labels).Set(float64(exitCode))
	r.stepDuration.With(labels).Set(d.Seconds())
}

// ObserveRun records the end of a run.
func (r *Recorder) ObserveRun(finishedAt time.Time, failed int) {
	r.lastRun.Set(float64(finishedAt.UnixNano()) / 1e9)
	r.failedSteps.Set(float64(failed))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Flush writes the textfile atomically.
func (r *Recorder) Flush() error {
	if r.path == "" {
		return ErrNoTextfile
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(r.path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
