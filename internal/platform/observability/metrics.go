package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_messages_handled_total",
		Help: "The total number of inbound messages by outcome",
	}, []string{"outcome"})

	MessageHandleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relay_message_handle_duration_seconds",
		Help:    "Duration of the full pipeline for one message",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	URLsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_urls_classified_total",
		Help: "The total number of canonical URLs by classification decision",
	}, []string{"decision"})

	FetchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_fetch_requests_total",
		Help: "The total number of upstream fetch calls by kind and result",
	}, []string{"kind", "result"})

	FetchRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_fetch_retries_total",
		Help: "The total number of retries after HTTP 429",
	}, []string{"kind"})

	EnrichmentResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_enrichment_results_total",
		Help: "The total number of enrichment lookups by result",
	}, []string{"result"})

	EnrichmentCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_enrichment_cache_hits_total",
		Help: "Total number of enrichment cache hits",
	})

	EnrichmentCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_enrichment_cache_misses_total",
		Help: "Total number of enrichment cache misses",
	})

	EnrichmentCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_enrichment_cache_entries",
		Help: "Number of entries held by the enrichment cache, stale ones included",
	})

	RepostBatchesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_repost_batches_total",
		Help: "The total number of outgoing repost messages by status",
	}, []string{"status"})
)
