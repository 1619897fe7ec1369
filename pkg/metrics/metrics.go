package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	WebhookEventsTotal     *prometheus.CounterVec
	TransitionsTotal       *prometheus.CounterVec
	GenerationsTotal       *prometheus.CounterVec
	GenerationSeconds      *prometheus.HistogramVec
	ExternalFailuresTotal  *prometheus.CounterVec
	PipelineJobsTotal      *prometheus.CounterVec
	TranscriptSegmentCount prometheus.Histogram
}

// NewMetrics registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		WebhookEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_webhook_events_total",
				Help: "Bot webhook deliveries by status code and outcome",
			},
			[]string{"code", "outcome"},
		),
		TransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_status_transitions_total",
				Help: "Applied meeting status transitions by target status",
			},
			[]string{"to"},
		),
		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_generations_total",
				Help: "Derived artifact generations by stage and result source",
			},
			[]string{"stage", "source"},
		),
		GenerationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meeting_generation_seconds",
				Help:    "Language model latency per stage",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"stage"},
		),
		ExternalFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_external_failures_total",
				Help: "Failed calls to external services",
			},
			[]string{"service"},
		),
		PipelineJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_pipeline_jobs_total",
				Help: "Finished pipeline jobs by final status",
			},
			[]string{"status"},
		),
		TranscriptSegmentCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "meeting_transcript_segments",
				Help:    "Segments per normalized transcript",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}
}

// WebhookEvent counts a webhook delivery
func (m *Metrics) WebhookEvent(code, outcome string) {
	if m == nil {
		return
	}
	m.WebhookEventsTotal.WithLabelValues(code, outcome).Inc()
}

// Transition counts an applied status change
func (m *Metrics) Transition(to string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(to).Inc()
}

// Generation counts a generator result and records its latency
func (m *Metrics) Generation(stage, source string, seconds float64) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(stage, source).Inc()
	m.GenerationSeconds.WithLabelValues(stage).Observe(seconds)
}

// ExternalFailure counts a failed external call
func (m *Metrics) ExternalFailure(service string) {
	if m == nil {
		return
	}
	m.ExternalFailuresTotal.WithLabelValues(service).Inc()
}

// PipelineJob counts a finished pipeline job
func (m *Metrics) PipelineJob(status string) {
	if m == nil {
		return
	}
	m.PipelineJobsTotal.WithLabelValues(status).Inc()
}

// TranscriptSegments records the segment count of a stored transcript
func (m *Metrics) TranscriptSegments(n int) {
	if m == nil {
		return
	}
	m.TranscriptSegmentCount.Observe(float64(n))
}
