/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package metrics exposes Prometheus metrics for bulk writes and HTTP requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/im-danwu/earn-up/datastore/ddb"
)

// Collector holds all Prometheus metrics for the application. It implements
// ddb.BatchObserver.
type Collector struct {
	registry *prometheus.Registry

	batchCalls       *prometheus.CounterVec
	batchRequests    *prometheus.CounterVec
	batchUnprocessed *prometheus.CounterVec
	batchRetries     *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var _ ddb.BatchObserver = (*Collector)(nil)

// NewCollector creates a collector with its own registry. Metric names are prefixed with
// namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		batchCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_write_calls_total",
			Help:      "BatchWriteItem calls by table and outcome",
		}, []string{"table", "outcome"}),
		batchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_write_requests_total",
			Help:      "Write requests sent in BatchWriteItem calls, resubmissions included",
		}, []string{"table"}),
		batchUnprocessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_write_unprocessed_total",
			Help:      "Write requests returned unprocessed by BatchWriteItem",
		}, []string{"table"}),
		batchRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_write_retries_total",
			Help:      "Resubmissions of unprocessed write requests",
		}, []string{"table"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	c.registry.MustRegister(
		c.batchCalls,
		c.batchRequests,
		c.batchUnprocessed,
		c.batchRetries,
		c.httpRequests,
		c.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveBatchCall records one BatchWriteItem call.
func (c *Collector) ObserveBatchCall(table string, sent, unprocessed int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.batchCalls.WithLabelValues(table, outcome).Inc()
	c.batchRequests.WithLabelValues(table).Add(float64(sent))
	c.batchUnprocessed.WithLabelValues(table).Add(float64(unprocessed))
}

// ObserveBatchRetry records a resubmission.
func (c *Collector) ObserveBatchRetry(table string, attempt, pending int) {
	c.batchRetries.WithLabelValues(table).Inc()
}

// Middleware counts and times HTTP requests.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.httpRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		c.httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
