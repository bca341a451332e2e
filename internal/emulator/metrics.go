// Copyright 2025 Tom Barlow
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

package emulator

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "emuhelper"

// Metrics collects gauges about one wait or kill so CI hosts can pick them
// up through the node_exporter textfile collector.
type Metrics struct {
	registry *prometheus.Registry

	bootDuration   prometheus.Gauge
	bootPolls      prometheus.Gauge
	readinessState *prometheus.GaugeVec
	killOutcome    *prometheus.GaugeVec
	killDuration   prometheus.Gauge
}

// NewMetrics creates the gauges on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bootDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "boot_duration_seconds",
			Help:      "Time spent polling the boot property.",
		}),
		bootPolls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "boot_polls",
			Help:      "Number of boot property reads.",
		}),
		readinessState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "readiness_state",
			Help:      "1 for the readiness state the last wait ended in, 0 otherwise.",
		}, []string{"state"}),
		killOutcome: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "kill_outcome",
			Help:      "1 for the outcome of the last kill, 0 otherwise.",
		}, []string{"outcome"}),
		killDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "kill_duration_seconds",
			Help:      "Time spent waiting for the emulator to exit.",
		}),
	}

	m.registry.MustRegister(m.bootDuration, m.bootPolls, m.readinessState, m.killOutcome, m.killDuration)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveWait records the result of a wait or status observation.
func (m *Metrics) ObserveWait(r Result) {
	m.bootDuration.Set(r.Elapsed.Seconds())
	m.bootPolls.Set(float64(r.Polls))
	for s := State(0); s < stateCount; s++ {
		value := 0.0
		if s == r.State {
			value = 1
		}
		m.readinessState.WithLabelValues(s.String()).Set(value)
	}
}

// ObserveKill records the result of a kill.
func (m *Metrics) ObserveKill(r KillResult) {
	m.killDuration.Set(r.Elapsed.Seconds())
	for o := KillOutcome(0); o < killOutcomeCount; o++ {
		value := 0.0
		if o == r.Outcome {
			value = 1
		}
		m.killOutcome.WithLabelValues(o.String()).Set(value)
	}
}

// WriteTextfile writes all gauges to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
