// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the engine's Prometheus instrumentation. A nil *Metrics is a
// no-op sink, so the engine never branches on whether metrics are wired.
type Metrics struct {
	resolutions   *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	upstreamCalls *prometheus.CounterVec
	scanPages     *prometheus.CounterVec
}

// NewMetrics registers the resolver metrics on reg.
//
// Inputs:
//   - reg: Target registerer, typically prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Resolution requests by outcome and matching strategy.",
		}, []string{"outcome", "strategy"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orderdesk",
			Subsystem: "resolver",
			Name:      "resolution_duration_seconds",
			Help:      "End-to-end resolution latency by outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"outcome"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "resolver",
			Name:      "upstream_calls_total",
			Help:      "Upstream query calls by kind (exact/scan) and result.",
		}, []string{"kind", "result"}),
		scanPages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "resolver",
			Name:      "scan_pages_total",
			Help:      "Fallback scan pages fetched by strategy.",
		}, []string{"strategy"}),
	}
	reg.MustRegister(m.resolutions, m.duration, m.upstreamCalls, m.scanPages)
	return m
}

func (m *Metrics) observeResolution(outcome, strategy string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome, strategy).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) observeUpstreamCall(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.upstreamCalls.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) observeScanPage(strategy string) {
	if m == nil {
		return
	}
	m.scanPages.WithLabelValues(strategy).Inc()
}
