// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// metrics.go exposes the storage worker's own health as Prometheus
// metrics: queue depth, flush activity and codec saturation, the
// signals an operator needs to notice the single writer falling behind.
package seriesstore

import "github.com/prometheus/client_golang/prometheus"

var (
	// QueueDepth reports how many tasks are waiting on the single-writer
	// queue. Sustained growth means the worker cannot keep up.
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tsstore",
		Name:      "queue_depth",
		Help:      "Number of tasks currently queued for the storage worker.",
	})

	// FlushesTotal counts completed flush() calls, split by whether they
	// were forced (shutdown/Close) or opportunistic.
	FlushesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsstore",
		Name:      "flushes_total",
		Help:      "Total number of series flushes performed.",
	}, []string{"forced"})

	// FlushErrorsTotal counts flushes that failed with an I/O error.
	FlushErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tsstore",
		Name:      "flush_errors_total",
		Help:      "Total number of series flushes that failed.",
	})

	// StaleSamplesTotal counts appends rejected for arriving 60 s or more
	// behind level 0's newest bucket.
	StaleSamplesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tsstore",
		Name:      "stale_samples_total",
		Help:      "Total number of samples dropped for being too old.",
	})

	// AUSaturationsTotal counts AU-codec encodes that hit the saturating
	// cap, a sign the configured base width is too small for the metric.
	AUSaturationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tsstore",
		Name:      "au_saturations_total",
		Help:      "Total number of AU codec encodes clamped to the saturating cap.",
	})

	// OpenSeries reports how many series files are currently open.
	OpenSeries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tsstore",
		Name:      "open_series",
		Help:      "Number of series files currently open.",
	})
)

// MustRegister registers every tsstore metric with reg, panicking on a
// duplicate registration the way main() wiring is expected to catch at
// startup rather than silently ignore.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(QueueDepth, FlushesTotal, FlushErrorsTotal, StaleSamplesTotal, AUSaturationsTotal, OpenSeries)
}
