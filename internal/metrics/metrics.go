// Package metrics exposes Prometheus instrumentation for the HTTP surface and
// the upstream generator.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/gophchat-server/internal/model"
)

const namespace = "gophchat"

// Upstream call outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeQuota = "quota_exceeded"
	OutcomeError = "error"
)

type Metrics struct {
	registry         *prometheus.Registry
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamCalls    *prometheus.CounterVec
	upstreamDuration prometheus.Histogram
}

// New registers every collector on a fresh registry, including the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Generation calls by outcome.",
		}, []string{"outcome"}),
		upstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "call_duration_seconds",
			Help:      "Generation call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.upstreamCalls,
		m.upstreamDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveUpstream(err error, d time.Duration) {
	outcome := OutcomeOK
	switch {
	case errors.Is(err, model.ErrQuotaExceeded):
		outcome = OutcomeQuota
	case err != nil:
		outcome = OutcomeError
	}
	m.upstreamCalls.WithLabelValues(outcome).Inc()
	m.upstreamDuration.Observe(d.Seconds())
}

type instrumentedGenerator struct {
	next    model.Generator
	metrics *Metrics
}

// InstrumentGenerator records outcome and latency of every call to next.
func InstrumentGenerator(next model.Generator, m *Metrics) model.Generator {
	return &instrumentedGenerator{next: next, metrics: m}
}

func (g *instrumentedGenerator) Generate(ctx context.Context, history []model.ChatEntry, prompt string) (string, error) {
	start := time.Now()
	reply, err := g.next.Generate(ctx, history, prompt)
	g.metrics.ObserveUpstream(err, time.Since(start))
	return reply, err
}
