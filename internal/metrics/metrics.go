package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ── Run metrics ────────────────────────────────────────────
// Gauges describing the most recent export run, written in the node
// exporter textfile format so a cron-driven run can be scraped without
// an HTTP listener.

const namespace = "employerexport"

// Recorder holds the export gauges on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	rows         *prometheus.GaugeVec
	lastRun      prometheus.Gauge
	lastSuccess  prometheus.Gauge
	lastDuration prometheus.Gauge
	runs         *prometheus.CounterVec
}

// NewRecorder creates a Recorder. A nil registry gets a fresh one.
func NewRecorder(registry *prometheus.Registry) *Recorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	r := &Recorder{
		registry: registry,
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows",
			Help:      "Rows written per table by the last run that reached the table.",
		}, []string{"table"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run succeeded, 0 otherwise.",
		}),
		lastDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Runs started by this process, by status.",
		}, []string{"status"}),
	}
	registry.MustRegister(r.rows, r.lastRun, r.lastSuccess, r.lastDuration, r.runs)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records one finished run. rows maps dataset name to row count;
// tables absent from rows keep their previous value.
func (r *Recorder) Observe(finished time.Time, duration time.Duration, rows map[string]int, success bool) {
	for table, n := range rows {
		r.rows.WithLabelValues(table).Set(float64(n))
	}
	r.lastRun.Set(float64(finished.Unix()))
	r.lastDuration.Set(duration.Seconds())
	if success {
		r.lastSuccess.Set(1)
		r.runs.WithLabelValues("success").Inc()
	} else {
		r.lastSuccess.Set(0)
		r.runs.WithLabelValues("error").Inc()
	}
}

// WriteTextfile writes the registry to path, creating parent directories.
// prometheus.WriteToTextfile renames a temp file into place.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
