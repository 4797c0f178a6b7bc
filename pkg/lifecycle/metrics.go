// Copyright 2025 The EnMasse Authors.
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

package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

const (
	metricsNamespace = "enmasse"
	metricsSubsystem = "lifecycle"
)

// DefaultMetrics is registered on the controller-runtime registry and used by
// managers that are not given their own Metrics.
var DefaultMetrics = NewMetrics()

func init() {
	DefaultMetrics.MustRegister(metrics.Registry)
}

// Metrics holds prometheus metrics for declared resources and their teardown.
type Metrics struct {
	declaredTotal         *prometheus.CounterVec
	deletedTotal          *prometheus.CounterVec
	teardownFailuresTotal *prometheus.CounterVec
	readyWaitDuration     *prometheus.HistogramVec
}

// NewMetrics returns unregistered lifecycle metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		declaredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "resources_declared_total",
				Help:      "Total number of resources created per kind",
			},
			[]string{"kind"},
		),
		deletedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "resources_deleted_total",
				Help:      "Total number of resource deletions per kind and result",
			},
			[]string{"kind", "result"},
		),
		teardownFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "teardown_failures_total",
				Help:      "Total number of scope teardowns that left at least one resource behind",
			},
			[]string{"scope"},
		),
		readyWaitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "ready_wait_duration_seconds",
				Help:      "Time spent waiting for declared resources to become ready",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17m
			},
			[]string{"kind", "result"},
		),
	}
}

// MustRegister registers the metrics with the given Prometheus registry.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(
		m.declaredTotal,
		m.deletedTotal,
		m.teardownFailuresTotal,
		m.readyWaitDuration,
	)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *Metrics) observeDeclared(kind string) {
	m.declaredTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeDeleted(kind string, err error) {
	m.deletedTotal.WithLabelValues(kind, result(err)).Inc()
}

func (m *Metrics) observeTeardown(scope string, err error) {
	if err != nil {
		m.teardownFailuresTotal.WithLabelValues(scope).Inc()
	}
}

func (m *Metrics) observeReadyWait(kind string, seconds float64, err error) {
	m.readyWaitDuration.WithLabelValues(kind, result(err)).Observe(seconds)
}
