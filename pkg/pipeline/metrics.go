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

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"

	"zerohop/pkg/metrics"
)

// Metrics holds the pipeline's Prometheus instruments. Instance-based:
// build one per process against a fresh registry and serve it via
// pkg/metrics.Server.
type Metrics struct {
	Compilations       *prometheus.CounterVec // outcome: "succeeded" | "fallback" | "failed"
	CompilationSeconds prometheus.Histogram
	HostDeployments    *prometheus.CounterVec // outcome: "succeeded" | "failed"
	RunSeconds         prometheus.Histogram
}

// NewMetrics registers the pipeline's instruments on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	return &Metrics{
		Compilations: metrics.NewCounterVec(registry,
			"zerohop_compilations_total",
			"Binary compilations by outcome",
			[]string{"outcome"}),
		CompilationSeconds: metrics.NewHistogramWithBuckets(registry,
			"zerohop_compilation_duration_seconds",
			"Wall-clock duration of one binary compilation",
			metrics.DurationBuckets()),
		HostDeployments: metrics.NewCounterVec(registry,
			"zerohop_host_deployments_total",
			"Per-host deployment outcomes",
			[]string{"outcome"}),
		RunSeconds: metrics.NewHistogramWithBuckets(registry,
			"zerohop_run_duration_seconds",
			"End-to-end pipeline run duration",
			metrics.DurationBuckets()),
	}
}

func (m *Metrics) observeCompilation(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Compilations.WithLabelValues(outcome).Inc()
	if seconds > 0 {
		m.CompilationSeconds.Observe(seconds)
	}
}

func (m *Metrics) observeHost(succeeded bool) {
	if m == nil {
		return
	}
	if succeeded {
		m.HostDeployments.WithLabelValues("succeeded").Inc()
	} else {
		m.HostDeployments.WithLabelValues("failed").Inc()
	}
}

func (m *Metrics) observeRun(seconds float64) {
	if m == nil {
		return
	}
	m.RunSeconds.Observe(seconds)
}
