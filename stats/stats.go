// Package stats tracks DTL throughput and compute-charge counters and
// exposes them to Prometheus, grounded on the teacher's stats/target_stats.go
// and stats/proxy_stats.go Tracker (a small named set of counters/gauges
// registered once and updated from the hot path) simplified to DTL's
// handful of metrics and rebuilt on github.com/prometheus/client_golang
// directly rather than the teacher's StatsD/Prometheus dual-build runner.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tracker is the process-wide counter set for one DTL instance: bytes
// moved on the publish and subscribe sides, FLOPs charged for reduction
// and its inverse, and committed transactions, all labeled by stream
// name.
type Tracker struct {
	registry *prometheus.Registry

	bytesPublished        *prometheus.CounterVec
	bytesSubscribed       *prometheus.CounterVec
	flopsCharged          *prometheus.CounterVec
	transactionsCommitted *prometheus.CounterVec
}

func New() *Tracker {
	t := &Tracker{registry: prometheus.NewRegistry()}

	t.bytesPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dtl", Name: "bytes_published_total", Help: "bytes accounted for by Engine.put, per stream",
	}, []string{"stream"})
	t.bytesSubscribed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dtl", Name: "bytes_subscribed_total", Help: "bytes accounted for by Engine.get, per stream",
	}, []string{"stream"})
	t.flopsCharged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dtl", Name: "flops_charged_total", Help: "floating-point operations charged for reduction and its inverse, per stream",
	}, []string{"stream"})
	t.transactionsCommitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dtl", Name: "transactions_committed_total", Help: "end_transaction calls that completed successfully, per stream",
	}, []string{"stream"})

	t.registry.MustRegister(t.bytesPublished, t.bytesSubscribed, t.flopsCharged, t.transactionsCommitted)
	return t
}

func (t *Tracker) AddBytesPublished(stream string, n uint64) {
	t.bytesPublished.WithLabelValues(stream).Add(float64(n))
}

func (t *Tracker) AddBytesSubscribed(stream string, n uint64) {
	t.bytesSubscribed.WithLabelValues(stream).Add(float64(n))
}

func (t *Tracker) AddFLOPs(stream string, flops float64) {
	if flops > 0 {
		t.flopsCharged.WithLabelValues(stream).Add(flops)
	}
}

func (t *Tracker) IncTransactionsCommitted(stream string) {
	t.transactionsCommitted.WithLabelValues(stream).Inc()
}

// Handler exposes the tracked metrics for scraping, mirroring the
// teacher's runner.PromHandler.
func (t *Tracker) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
}
