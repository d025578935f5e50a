/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"time"

	"github.com/Seednode/teambox/room"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry

	connections prometheus.Gauge
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func newMetrics(rooms *room.Registry) *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &metrics{
		registry: reg,
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "teambox_ws_active_connections",
			Help: "Number of open websocket connections",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "teambox_requests_total",
			Help: "Websocket requests by type and result",
		}, []string{"type", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "teambox_request_duration_seconds",
			Help:    "Time spent handling websocket requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "teambox_rooms",
		Help: "Number of open rooms",
	}, func() float64 {
		return float64(rooms.Len())
	})

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *metrics) observe(kind, result string, took time.Duration) {
	m.requests.WithLabelValues(kind, result).Inc()
	m.duration.WithLabelValues(kind).Observe(took.Seconds())
}

func registerMetricsHandler(cfg *Config, mux *httprouter.Router, m *metrics) {
	mux.Handler("GET", cfg.prefix+"/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
