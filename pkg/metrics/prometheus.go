/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "netpoll_"

const (
	resultSuccess = "success"
	resultError   = "error"
)

// PrometheusRecorder exports Recorder observations as Prometheus series.
type PrometheusRecorder struct {
	connectAttempts *prometheus.CounterVec
	commands        *prometheus.CounterVec
	commandLatency  *prometheus.HistogramVec
	devices         *prometheus.CounterVec
	deviceLatency   *prometheus.HistogramVec
	runs            prometheus.Counter
	runDevices      prometheus.Gauge
	runLatency      prometheus.Histogram
	alerts          *prometheus.CounterVec
}

// NewPrometheusRecorder builds the collectors and registers them with reg.
// A nil reg uses the default registerer.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &PrometheusRecorder{
		connectAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "connect_attempts_total",
				Help: "Management channel dial attempts by vendor and outcome",
			},
			[]string{"vendor", "outcome"},
		),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "commands_total",
				Help: "Commands issued by vendor and result",
			},
			[]string{"vendor", "result"},
		),
		commandLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "command_latency_seconds",
				Help:    "Command round trip latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"vendor"},
		),
		devices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_polls_total",
				Help: "Device polls by final state",
			},
			[]string{"state"},
		),
		deviceLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "device_poll_seconds",
				Help:    "Device poll duration in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"state"},
		),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "runs_total",
			Help: "Completed polling runs",
		}),
		runDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "run_devices",
			Help: "Devices in the most recent run",
		}),
		runLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "run_seconds",
			Help:    "Polling run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_total",
				Help: "Classified alerts by severity, state and suppression",
			},
			[]string{"severity", "state", "suppressed"},
		),
	}

	for _, c := range []prometheus.Collector{
		r.connectAttempts,
		r.commands,
		r.commandLatency,
		r.devices,
		r.deviceLatency,
		r.runs,
		r.runDevices,
		r.runLatency,
		r.alerts,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *PrometheusRecorder) ConnectAttempt(vendor, outcome string) {
	r.connectAttempts.WithLabelValues(vendor, outcome).Inc()
}

func (r *PrometheusRecorder) Command(vendor string, success bool, elapsed time.Duration) {
	result := resultSuccess
	if !success {
		result = resultError
	}

	r.commands.WithLabelValues(vendor, result).Inc()
	r.commandLatency.WithLabelValues(vendor).Observe(elapsed.Seconds())
}

func (r *PrometheusRecorder) DevicePolled(state string, elapsed time.Duration) {
	r.devices.WithLabelValues(state).Inc()
	r.deviceLatency.WithLabelValues(state).Observe(elapsed.Seconds())
}

func (r *PrometheusRecorder) RunFinished(devices int, elapsed time.Duration) {
	r.runs.Inc()
	r.runDevices.Set(float64(devices))
	r.runLatency.Observe(elapsed.Seconds())
}

func (r *PrometheusRecorder) Alert(severity, state string, suppressed bool) {
	r.alerts.WithLabelValues(severity, state, strconv.FormatBool(suppressed)).Inc()
}
