package monitor

import (
	"github.com/prometheus/client_golang/prometheus"

	"crowsnest/pkg/monitoring"
)

// PipelineMetrics tracks scan pipeline activity. All methods are nil-safe so
// the pipeline runs unchanged when metrics are disabled.
type PipelineMetrics struct {
	ScanCycles       prometheus.Counter
	PostsAnalyzed    *prometheus.CounterVec
	AlertsEmitted    *prometheus.CounterVec
	AssessorFailures prometheus.Counter
	SourceFailures   *prometheus.CounterVec
}

// NewPipelineMetrics registers pipeline metrics on the service collector.
// Returns nil when the collector is nil.
func NewPipelineMetrics(mc *monitoring.MetricsCollector) *PipelineMetrics {
	if mc == nil {
		return nil
	}
	scanCycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crowsnest_scan_cycles_total",
		Help: "Completed monitoring scan cycles",
	})
	assessorFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crowsnest_assessor_failures_total",
		Help: "Semantic assessor calls that errored or timed out",
	})
	mc.RegisterCustomMetric("scan_cycles_total", scanCycles)
	mc.RegisterCustomMetric("assessor_failures_total", assessorFailures)

	return &PipelineMetrics{
		ScanCycles:       scanCycles,
		PostsAnalyzed:    mc.NewCounter("posts_analyzed_total", "Posts pulled from sources and analyzed", []string{"platform"}),
		AlertsEmitted:    mc.NewCounter("alerts_emitted_total", "Alerts persisted, by threat level", []string{"threat_level"}),
		AssessorFailures: assessorFailures,
		SourceFailures:   mc.NewCounter("source_failures_total", "Post source fetch failures", []string{"platform"}),
	}
}

func (m *PipelineMetrics) IncScanCycle() {
	if m == nil || m.ScanCycles == nil {
		return
	}
	m.ScanCycles.Inc()
}

func (m *PipelineMetrics) IncPostAnalyzed(platform string) {
	if m == nil || m.PostsAnalyzed == nil {
		return
	}
	m.PostsAnalyzed.WithLabelValues(platform).Inc()
}

func (m *PipelineMetrics) IncAlertEmitted(level string) {
	if m == nil || m.AlertsEmitted == nil {
		return
	}
	m.AlertsEmitted.WithLabelValues(level).Inc()
}

func (m *PipelineMetrics) IncAssessorFailure() {
	if m == nil || m.AssessorFailures == nil {
		return
	}
	m.AssessorFailures.Inc()
}

func (m *PipelineMetrics) IncSourceFailure(platform string) {
	if m == nil || m.SourceFailures == nil {
		return
	}
	m.SourceFailures.WithLabelValues(platform).Inc()
}
