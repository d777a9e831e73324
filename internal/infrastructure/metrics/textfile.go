// Package metrics records run statistics in a Prometheus registry and writes
// them out in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"HNDigest/internal/domain"
	"HNDigest/internal/ports"
)

const namespace = "hndigest"

// TextfileRecorder implements ports.RunRecorder.
type TextfileRecorder struct {
	path     string
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	published   *prometheus.CounterVec
	lastRun     *prometheus.GaugeVec
	duration    *prometheus.GaugeVec
	scanned     *prometheus.GaugeVec
	failed      *prometheus.GaugeVec
	candidates  *prometheus.GaugeVec
	dropped     *prometheus.GaugeVec
	historySize *prometheus.GaugeVec
}

var _ ports.RunRecorder = (*TextfileRecorder)(nil)

// NewTextfileRecorder builds a recorder flushing to path. An empty path keeps
// the metrics in memory only.
func NewTextfileRecorder(path string) *TextfileRecorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := []string{"source"}

	gauge := func(name, help string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      name,
			Help:      help,
		}, labels)
	}

	return &TextfileRecorder{
		path:     path,
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed pipeline runs.",
		}, labels),
		published: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_published_total",
			Help:      "Entries added to the feed.",
		}, labels),
		lastRun:     gauge("last_timestamp_seconds", "Start time of the last run."),
		duration:    gauge("duration_seconds", "Wall time of the last run."),
		scanned:     gauge("items_scanned", "Items fetched in the last run."),
		failed:      gauge("items_failed", "Item fetches that failed in the last run."),
		candidates:  gauge("candidates", "Threshold crossings selected in the last run."),
		dropped:     gauge("candidates_dropped", "Crossings dropped by the batch cap in the last run."),
		historySize: gauge("history_entries", "Entries retained in the feed history."),
	}
}

// Registry exposes the underlying registry.
func (r *TextfileRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRun updates every series for report.Source.
func (r *TextfileRecorder) ObserveRun(report domain.RunReport) {
	src := report.Source
	r.runs.WithLabelValues(src).Inc()
	r.published.WithLabelValues(src).Add(float64(len(report.Published)))
	if !report.StartedAt.IsZero() {
		r.lastRun.WithLabelValues(src).Set(float64(report.StartedAt.Unix()))
	}
	r.duration.WithLabelValues(src).Set(report.Duration.Seconds())
	r.scanned.WithLabelValues(src).Set(float64(report.Scanned))
	r.failed.WithLabelValues(src).Set(float64(report.Failed))
	r.candidates.WithLabelValues(src).Set(float64(report.Candidates))
	r.dropped.WithLabelValues(src).Set(float64(report.Dropped))
	r.historySize.WithLabelValues(src).Set(float64(report.HistorySize))
}

// Flush writes the registry to the textfile, if one is configured.
func (r *TextfileRecorder) Flush() error {
	if r.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(r.path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
