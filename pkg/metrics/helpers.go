// Copyright 2025 Philipp Hossner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes zerohop's run instrumentation over
// Prometheus: constructors for the instruments the pipeline registers
// (compilation and deployment outcomes, durations) and an HTTP server
// for the /metrics endpoint.
//
// Every constructor takes an explicit prometheus.Registerer; nothing
// here touches the global default registry, so a run's instruments are
// collected when its registry is discarded.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NewCounterVec registers a labeled counter family, e.g. per-outcome
// compilation counts:
//
//	compilations := metrics.NewCounterVec(registry,
//		"zerohop_compilations_total", "Binary compilations by outcome",
//		[]string{"outcome"})
//	compilations.WithLabelValues("succeeded").Inc()
func NewCounterVec(registry prometheus.Registerer, name, help string, labels []string) *prometheus.CounterVec {
	return promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{Name: name, Help: help},
		labels,
	)
}

// NewHistogramWithBuckets registers a histogram with explicit buckets.
// Pair with DurationBuckets for build and deployment timings.
func NewHistogramWithBuckets(registry prometheus.Registerer, name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Name:    name,
		Help:    help,
		Buckets: buckets,
	})
}

// DurationBuckets returns bucket boundaries in seconds sized for this
// tool's operations: the low end catches binary-cache hits and template
// renders, the high end a full cross-compile running up to the default
// five-minute timeout.
func DurationBuckets() []float64 {
	return []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120, 300}
}
