// Package metrics exposes Prometheus collectors for the broker service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	brokerMessagesTotal        *prometheus.CounterVec
	brokerDecodeFailuresTotal  *prometheus.CounterVec
	brokerRecordsTotal         *prometheus.CounterVec
	brokerEnrichRequestsTotal  *prometheus.CounterVec
	brokerEnrichResponsesTotal *prometheus.CounterVec
	brokerRecrawlRequestsTotal prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		brokerMessagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "broker_messages_total",
				Help: "Total messages popped from inbound channels, labeled by channel.",
			},
			[]string{"channel"},
		)

		brokerDecodeFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "broker_decode_failures_total",
				Help: "Total inbound messages discarded because they were not well-formed mappings.",
			},
			[]string{"channel"},
		)

		brokerRecordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "broker_records_total",
				Help: "Total resolved records, labeled by record type and outcome.",
			},
			[]string{"type", "outcome"},
		)

		brokerEnrichRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "broker_enrichment_requests_total",
				Help: "Total enrichment computation requests enqueued, labeled by kind.",
			},
			[]string{"kind"},
		)

		brokerEnrichResponsesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "broker_enrichment_responses_total",
				Help: "Total enrichment responses applied, labeled by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		brokerRecrawlRequestsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "broker_company_recrawl_requests_total",
				Help: "Total company recrawl requests published.",
			},
		)
	})
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// MessageReceived counts one popped inbound message.
func MessageReceived(channel string) {
	if brokerMessagesTotal != nil {
		brokerMessagesTotal.WithLabelValues(channel).Inc()
	}
}

// DecodeFailure counts one discarded undecodable message.
func DecodeFailure(channel string) {
	if brokerDecodeFailuresTotal != nil {
		brokerDecodeFailuresTotal.WithLabelValues(channel).Inc()
	}
}

// RecordResolved counts one resolver outcome.
func RecordResolved(recordType, outcome string) {
	if brokerRecordsTotal != nil {
		brokerRecordsTotal.WithLabelValues(recordType, outcome).Inc()
	}
}

// EnrichmentRequested counts one embedding/sentiment request.
func EnrichmentRequested(kind string) {
	if brokerEnrichRequestsTotal != nil {
		brokerEnrichRequestsTotal.WithLabelValues(kind).Inc()
	}
}

// EnrichmentResponded counts one embedding/sentiment response outcome.
func EnrichmentResponded(kind, outcome string) {
	if brokerEnrichResponsesTotal != nil {
		brokerEnrichResponsesTotal.WithLabelValues(kind, outcome).Inc()
	}
}

// RecrawlRequested counts one company recrawl request.
func RecrawlRequested() {
	if brokerRecrawlRequestsTotal != nil {
		brokerRecrawlRequestsTotal.Inc()
	}
}
