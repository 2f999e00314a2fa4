package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tuskmem"

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	retrievals     *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	contextTokens  prometheus.Histogram
	rewrites       *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		retrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_total",
			Help:      "Context retrievals by outcome.",
		}, []string{"outcome"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vector_search_seconds",
			Help:      "Latency of vector searches including reranking.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"reranked"}),
		contextTokens: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "injected_context_tokens",
			Help:      "Estimated tokens added to user messages.",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 8),
		}),
		rewrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "window_rewrites_total",
			Help:      "Conversation window rewrites by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.retrievals, m.searchDuration, m.contextTokens, m.rewrites)
	return m
}

func (m *Metrics) ObserveRetrieval(outcome string) {
	if m == nil {
		return
	}
	m.retrievals.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSearch(reranked bool, d time.Duration) {
	if m == nil {
		return
	}
	label := "false"
	if reranked {
		label = "true"
	}
	m.searchDuration.WithLabelValues(label).Observe(d.Seconds())
}

func (m *Metrics) ObserveContextTokens(n int) {
	if m == nil {
		return
	}
	m.contextTokens.Observe(float64(n))
}

func (m *Metrics) ObserveRewrite(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.rewrites.WithLabelValues(result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
