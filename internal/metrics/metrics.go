// Package metrics exposes the pipeline's lifecycle events as Prometheus
// metrics. The Collector owns its own registry so embedding applications
// and tests never fight over the default one.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/espalier/pkg/domain"
)

// Collector aggregates counters for classification and merge activity.
type Collector struct {
	registry        *prometheus.Registry
	classifications *prometheus.CounterVec
	retries         prometheus.Counter
	cacheHits       prometheus.Counter
	transcripts     *prometheus.CounterVec
	duration        prometheus.Histogram
}

// NewCollector creates a collector with all metrics registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_classifications_total",
				Help: "Total number of classification attempts that concluded, by outcome",
			},
			[]string{"outcome"},
		),
		retries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "espalier_classification_retries_total",
				Help: "Total number of rate-limited classification attempts that were retried",
			},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "espalier_cache_hits_total",
				Help: "Total number of phrases answered from the intent cache",
			},
		),
		transcripts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_transcripts_total",
				Help: "Total number of transcripts processed, by result",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "espalier_classification_duration_seconds",
				Help: "Duration of successful classification requests",
			},
		),
	}
	c.registry.MustRegister(c.classifications, c.retries, c.cacheHits, c.transcripts, c.duration)
	return c
}

// Hooks returns lifecycle callbacks that feed the collector. They are
// safe for the resolver's concurrent phrase goroutines.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCacheHit: func(_ context.Context, _ *domain.PhraseEvent) {
			c.cacheHits.Inc()
		},
		OnPhraseClassified: func(_ context.Context, e *domain.PhraseEvent) {
			c.classifications.WithLabelValues("resolved").Inc()
			c.duration.Observe(e.Duration.Seconds())
		},
		OnClassifyRetry: func(_ context.Context, _ *domain.PhraseEvent) {
			c.retries.Inc()
		},
		OnResolveFailed: func(_ context.Context, _ *domain.PhraseEvent) {
			c.classifications.WithLabelValues("failed").Inc()
		},
		OnTranscriptMerged: func(_ context.Context, _ *domain.TranscriptEvent) {
			c.transcripts.WithLabelValues("merged").Inc()
		},
		OnTranscriptSkipped: func(_ context.Context, _ *domain.TranscriptEvent) {
			c.transcripts.WithLabelValues("skipped").Inc()
		},
	}
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
