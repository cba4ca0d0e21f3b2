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

// Package monitor runs the polling pipeline: poll the fleet, evaluate
// thresholds, diff against the last stored observation, classify alerts,
// store the new observations and hand alerts to the notifiers.
package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/netpoll/pkg/alerts"
	"github.com/carverauto/netpoll/pkg/diff"
	"github.com/carverauto/netpoll/pkg/events"
	"github.com/carverauto/netpoll/pkg/history"
	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/metrics"
	"github.com/carverauto/netpoll/pkg/models"
	"github.com/carverauto/netpoll/pkg/scheduler"
	"github.com/carverauto/netpoll/pkg/threshold"
)

const tracerName = "github.com/carverauto/netpoll/pkg/monitor"

// Monitor owns the per-device alert state between runs. RunOnce calls are
// serialized.
type Monitor struct {
	config     *Config
	runner     PollRunner
	store      history.Store
	classifier *alerts.Classifier
	notifier   events.Notifier
	resolver   VendorResolver
	recorder   metrics.Recorder
	logger     logger.Logger
	tracer     trace.Tracer
	now        func() time.Time
	closers    []func() error

	runMu   sync.Mutex
	stateMu sync.Mutex
	states  map[string]*alerts.State
}

// Option configures a Monitor.
type Option func(*Monitor)

func WithNotifier(n events.Notifier) Option {
	return func(m *Monitor) { m.notifier = n }
}

// WithResolver enables vendor autodetection before each run.
func WithResolver(r VendorResolver) Option {
	return func(m *Monitor) { m.resolver = r }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(m *Monitor) { m.recorder = metrics.OrNop(r) }
}

// WithClassifier replaces the classifier built from Config.Alerts.
func WithClassifier(c *alerts.Classifier) Option {
	return func(m *Monitor) { m.classifier = c }
}

// WithNow replaces the report clock.
func WithNow(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithCloser registers a resource released by Close.
func WithCloser(fn func() error) Option {
	return func(m *Monitor) { m.closers = append(m.closers, fn) }
}

// New assembles a Monitor. cfg must already be validated.
func New(cfg *Config, runner PollRunner, store history.Store, log logger.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		config:   cfg,
		runner:   runner,
		store:    store,
		recorder: metrics.NopRecorder{},
		logger:   log,
		tracer:   logger.GetTracer(tracerName),
		now:      time.Now,
		states:   make(map[string]*alerts.State),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.classifier == nil {
		m.classifier = alerts.NewClassifier(cfg.Alerts, log, alerts.WithRecorder(m.recorder))
	}

	return m
}

// RunOnce polls every configured device once and processes the results.
// Device failures are reported in the RunReport; the only error is a
// context that was already done.
func (m *Monitor) RunOnce(ctx context.Context) (*RunReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.runMu.Lock()
	defer m.runMu.Unlock()

	report := &RunReport{ID: uuid.NewString(), Started: m.now()}

	ctx, span := m.tracer.Start(ctx, "monitor.RunOnce",
		trace.WithAttributes(attribute.String("run_id", report.ID)))
	defer span.End()

	devices := m.config.Devices

	if m.resolver != nil && needsDetection(devices) {
		var failed map[string]error

		devices, failed = m.resolver.Resolve(ctx, devices)

		for id, err := range failed {
			if report.DetectionErrors == nil {
				report.DetectionErrors = make(map[string]string, len(failed))
			}

			report.DetectionErrors[id] = err.Error()
		}
	}

	results := scheduler.Collect(m.runner.Run(ctx, devices, m.config.Request()))

	report.Devices = make([]DeviceReport, len(results))

	var g errgroup.Group

	g.SetLimit(m.config.Concurrency)

	for i, r := range results {
		g.Go(func() error {
			report.Devices[i] = m.process(ctx, r)
			return nil
		})
	}

	_ = g.Wait()

	sort.Slice(report.Devices, func(i, j int) bool {
		return report.Devices[i].DeviceID < report.Devices[j].DeviceID
	})

	for i := range report.Devices {
		report.Alerts = append(report.Alerts, report.Devices[i].Alerts...)
	}

	m.notify(ctx, report)
	m.prune(ctx)

	report.Finished = m.now()

	summary := report.Summary()

	m.logger.Info().
		Str("run_id", report.ID).
		Int("devices", summary.Total).
		Int("reachable", summary.Reachable).
		Int("critical", len(summary.Critical)).
		Int("warning", len(summary.Warning)).
		Int("changes", summary.Changes).
		Int("alerts_delivered", summary.Delivered).
		Dur("elapsed", summary.Duration.Std()).
		Msg("Run completed")

	return report, nil
}

func (m *Monitor) process(ctx context.Context, r scheduler.Result) DeviceReport {
	id := r.Device.ID()

	dr := DeviceReport{
		DeviceID: id,
		Vendor:   r.Device.Vendor,
		Site:     r.Device.Site,
		State:    r.State(),
		Elapsed:  models.Duration(r.Elapsed),
	}

	prior := m.alertState(id)

	if !r.OK() {
		var cause error = ErrNoObservation
		if r.Err != nil {
			cause = r.Err
		}

		dr.Status = models.StatusUnknown
		dr.Error = cause.Error()

		var next *alerts.State

		dr.Alerts, next = m.classifier.ClassifyPollFailure(id, cause, prior)
		m.setAlertState(id, next)

		return dr
	}

	obs := r.Observation

	dr.Statuses = threshold.Evaluate(obs, threshold.Resolve(m.config.Thresholds, r.Device))
	dr.Status = threshold.Overall(dr.Statuses)

	previous, err := m.store.Latest(ctx, id)
	if err != nil {
		m.logger.Warn().Err(err).Str("device", id).Msg("Failed to read previous observation; skipping diff")

		dr.HistoryError = err.Error()
	} else {
		dr.Deltas = diff.Diff(previous, obs)
	}

	var next *alerts.State

	dr.Alerts, next = m.classifier.Classify(id, dr.Statuses, dr.Deltas, prior)
	m.setAlertState(id, next)

	// an observation with nothing collected would hide the last good one
	// from the next diff
	if obs.State == models.ObservationFailed {
		return dr
	}

	if err := m.store.Save(ctx, obs); err != nil {
		m.logger.Error().Err(err).Str("device", id).Msg("Failed to store observation")

		dr.HistoryError = err.Error()
	}

	return dr
}

func (m *Monitor) notify(ctx context.Context, report *RunReport) {
	if m.notifier == nil || len(report.Alerts) == 0 {
		return
	}

	if err := m.notifier.Notify(ctx, report.Alerts); err != nil {
		m.logger.Error().Err(err).Str("run_id", report.ID).Msg("Alert delivery failed")

		report.NotifyError = err.Error()
	}
}

func (m *Monitor) prune(ctx context.Context) {
	p, ok := m.store.(pruner)
	if !ok {
		return
	}

	n, err := p.Prune(ctx, m.now())
	if err != nil {
		m.logger.Warn().Err(err).Msg("History prune failed")
		return
	}

	if n > 0 {
		m.logger.Debug().Int64("rows", n).Msg("Pruned expired observations")
	}
}

func (m *Monitor) alertState(id string) *alerts.State {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	return m.states[id]
}

func (m *Monitor) setAlertState(id string, s *alerts.State) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	m.states[id] = s
}

// Firing lists every firing alert across the fleet, sorted by key.
func (m *Monitor) Firing() []models.Alert {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	var out []models.Alert

	for _, s := range m.states {
		out = append(out, s.Firing()...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out
}

// Close releases the store, the NATS connection and anything else
// registered with WithCloser, in reverse order.
func (m *Monitor) Close() error {
	var first error

	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil && first == nil {
			first = err
		}
	}

	m.closers = nil

	return first
}
