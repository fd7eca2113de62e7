// Package metrics registers the Prometheus metrics used by the gateway.
// Import this package (via blank import) from the server entry point to
// register all metrics before the /metrics handler is mounted.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request-level counters and histograms.
var (
	// RequestsTotal counts completed chat requests labelled by provider,
	// model, and outcome ("success", "degraded", "rejected", "error").
	// "degraded" marks requests answered by the terminal responder.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gawin_requests_total",
			Help: "Total number of chat requests processed by the gateway.",
		},
		[]string{"provider", "model", "status"},
	)

	// RequestDuration observes end-to-end request latency in seconds.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gawin_request_duration_seconds",
			Help:    "End-to-end chat request duration in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	// ChainAttempts counts individual adapter attempts inside the fallback
	// chain, labelled by provider and outcome reason ("success", "network",
	// "http_<status>", "empty_response").
	ChainAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gawin_chain_attempts_total",
			Help: "Adapter attempts inside the fallback chain by outcome.",
		},
		[]string{"provider", "reason"},
	)

	// TerminalResponses counts requests that exhausted every adapter and were
	// answered by the terminal responder, labelled by selected template.
	TerminalResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gawin_terminal_responses_total",
			Help: "Requests answered by the canned terminal responder.",
		},
		[]string{"template"},
	)

	// TokensInput counts total prompt tokens sent to providers.
	TokensInput = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gawin_tokens_input_total",
			Help: "Total prompt tokens sent to providers.",
		},
		[]string{"provider", "model"},
	)

	// TokensOutput counts total completion tokens received from providers.
	TokensOutput = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gawin_tokens_output_total",
			Help: "Total completion tokens received from providers.",
		},
		[]string{"provider", "model"},
	)

	// RequestCostUSD accumulates estimated request cost using the model catalog.
	RequestCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gawin_request_cost_usd_total",
			Help: "Estimated request cost in USD.",
		},
		[]string{"provider", "model"},
	)

	// OCRFiles counts OCR uploads by per-file outcome
	// ("ok", "too_large", "unsupported_type", "pdf_needs_conversion",
	// "extraction_failed").
	OCRFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gawin_ocr_files_total",
			Help: "OCR uploads by per-file outcome.",
		},
		[]string{"status"},
	)

	// SessionsActive tracks the number of live browser-automation sessions.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gawin_sessions_active",
			Help: "Live browser-automation sessions in the pool.",
		},
	)

	// SessionsEvicted counts sessions removed by the idle sweeper.
	SessionsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gawin_sessions_evicted_total",
			Help: "Sessions evicted after exceeding the idle threshold.",
		},
	)
)
