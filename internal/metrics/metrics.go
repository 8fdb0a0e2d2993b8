// Copyright (c) Gabriel de Quadros Ligneul
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// This package holds the prometheus collectors exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "moviegraph"

var (
	// Upstream requests labeled by http method and status class (2xx, 4xx, error...).
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tmdb",
		Name:      "requests_total",
		Help:      "Requests sent to the movie database API.",
	}, []string{"method", "status"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "tmdb",
		Name:      "request_duration_seconds",
		Help:      "Latency of requests sent to the movie database API.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Response cache lookups by result (hit or miss).",
	}, []string{"result"})

	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "expired_rows_deleted_total",
		Help:      "Expired rows removed from the persistent response cache.",
	})
)

// StatusClass maps an http status code to its label value.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "error"
	}
}
