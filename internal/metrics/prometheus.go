package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromExporter bridges Collector events into Prometheus metrics, served by
// the app's telemetry endpoint alongside /health.
type PromExporter struct {
	sectionsTotal   *prometheus.CounterVec
	retriesTotal    prometheus.Counter
	sectionDuration prometheus.Histogram
}

// NewPromExporter creates an exporter and registers its metrics with reg.
// Registration panics on duplicate metric names, which only happens when an
// exporter is constructed twice for the same registry.
func NewPromExporter(reg prometheus.Registerer) *PromExporter {
	e := &PromExporter{
		sectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "draftgrid_sections_total",
			Help: "Sections finished, by terminal status.",
		}, []string{"status"}),
		retriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "draftgrid_retries_total",
			Help: "Section attempt retries across all runs.",
		}),
		sectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "draftgrid_section_duration_seconds",
			Help: "Wall-clock duration of section execution including retries.",
			// LLM-backed sections run seconds to minutes.
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}

	reg.MustRegister(e.sectionsTotal, e.retriesTotal, e.sectionDuration)
	return e
}

// TaskSucceeded implements Observer.
func (e *PromExporter) TaskSucceeded(name string, duration time.Duration) {
	e.sectionsTotal.WithLabelValues("succeeded").Inc()
	e.sectionDuration.Observe(duration.Seconds())
}

// TaskFailed implements Observer.
func (e *PromExporter) TaskFailed(name string, duration time.Duration) {
	e.sectionsTotal.WithLabelValues("failed").Inc()
	e.sectionDuration.Observe(duration.Seconds())
}

// TaskCancelled implements Observer.
func (e *PromExporter) TaskCancelled(name string, duration time.Duration) {
	e.sectionsTotal.WithLabelValues("cancelled").Inc()
	e.sectionDuration.Observe(duration.Seconds())
}

// TaskRetried implements Observer.
func (e *PromExporter) TaskRetried(name string) {
	e.retriesTotal.Inc()
}
