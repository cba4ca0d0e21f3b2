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

// Package poller collects one Observation from one device by running the
// catalog's commands sequentially over a single session.
package poller

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/netpoll/pkg/catalog"
	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/models"
	"github.com/carverauto/netpoll/pkg/session"
)

const tracerName = "github.com/carverauto/netpoll/pkg/poller"

// Poller runs one device's commands in request order. Commands for one
// device are never issued in parallel.
type Poller struct {
	sessions SessionManager
	catalog  CommandCatalog
	clock    Clock
	logger   logger.Logger
	tracer   trace.Tracer
}

// New creates a new poller instance.
func New(sessions SessionManager, cat CommandCatalog, clock Clock, log logger.Logger) *Poller {
	if clock == nil {
		clock = RealClock{}
	}

	return &Poller{
		sessions: sessions,
		catalog:  cat,
		clock:    clock,
		logger:   log,
		tracer:   logger.GetTracer(tracerName),
	}
}

type step struct {
	metric  models.MetricName
	command string
}

// Poll collects req from device. A metric that cannot be collected is
// recorded as failed and polling continues with the next one. The returned
// error is non-nil only when no session could be established (the
// Observation is then nil) or ctx ended mid-poll (the Observation holds what
// was collected before).
func (p *Poller) Poll(ctx context.Context, device *models.Device, req models.MetricRequest) (*models.Observation, error) {
	if device == nil {
		return nil, ErrNilDevice
	}

	ctx, span := p.tracer.Start(ctx, "poller.Poll", trace.WithAttributes(
		attribute.String("device", device.ID()),
		attribute.String("vendor", string(device.Vendor)),
		attribute.Int("metrics", len(req.Metrics)),
	))
	defer span.End()

	obs := models.NewObservation(device, req.Metrics, p.clock.Now())
	plan := p.plan(device, obs, req)

	if len(plan) == 0 {
		obs.Finalize()
		return obs, nil
	}

	h, err := p.sessions.Acquire(ctx, device)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "acquire failed")

		return nil, err
	}
	defer p.sessions.Release(h)

	// several metrics share one command (memory and memory_free, for one)
	outputs := make(map[string]models.RawCommandResult, len(plan))

	for _, st := range plan {
		if ctx.Err() != nil {
			obs.Fail(models.MetricFailure{
				Metric:  st.metric,
				Kind:    models.FailureTimeout,
				Command: st.command,
				Reason:  ctx.Err().Error(),
			})

			continue
		}

		res, seen := outputs[st.command]
		if !seen {
			res = p.sessions.RunCommand(ctx, h, st.command)
			outputs[st.command] = res
		}

		p.collect(device, obs, st, res)
	}

	obs.Finalize()

	span.SetAttributes(
		attribute.String("state", string(obs.State)),
		attribute.Int("failed", len(obs.Failed)),
	)

	p.logger.Debug().
		Str("device", device.ID()).
		Str("state", string(obs.State)).
		Int("collected", len(obs.Records)).
		Int("failed", len(obs.Failed)).
		Msg("Device polled")

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return obs, err
	}

	return obs, nil
}

// plan resolves every metric to a command, failing unsupported ones up
// front so they never cost a session.
func (p *Poller) plan(device *models.Device, obs *models.Observation, req models.MetricRequest) []step {
	plan := make([]step, 0, len(req.Metrics))

	for _, metric := range req.Metrics {
		cmd, err := p.catalog.CommandFor(device.Vendor, metric)
		if err != nil {
			p.logger.Info().
				Str("device", device.ID()).
				Str("vendor", string(device.Vendor)).
				Str("metric", string(metric)).
				Msg("Metric not supported by vendor")

			obs.Fail(models.MetricFailure{Metric: metric, Kind: models.FailureUnsupported, Reason: err.Error()})

			continue
		}

		plan = append(plan, step{metric: metric, command: cmd})
	}

	return plan
}

func (p *Poller) collect(device *models.Device, obs *models.Observation, st step, res models.RawCommandResult) {
	if !res.Success {
		kind := models.FailureCommand

		var ce *session.ConnectError
		if errors.As(res.Err, &ce) && ce.Kind == session.KindTimeout {
			kind = models.FailureTimeout
		}

		p.logger.Warn().
			Str("device", device.ID()).
			Str("metric", string(st.metric)).
			Str("command", st.command).
			Int("attempt", res.Attempts).
			Str("error", res.Error).
			Msg("Command failed")

		obs.Fail(models.MetricFailure{
			Metric:  st.metric,
			Kind:    kind,
			Command: st.command,
			Reason:  res.Error,
		})

		return
	}

	rec, err := p.catalog.Parse(device.Vendor, st.metric, res.Output, res.CapturedAt)
	if err != nil {
		failure := models.MetricFailure{
			Metric:  st.metric,
			Kind:    models.FailureParse,
			Command: st.command,
			Reason:  err.Error(),
		}

		var pe *catalog.ParseError
		if errors.As(err, &pe) {
			failure.Raw = pe.Raw
		}

		if errors.Is(err, catalog.ErrCommandRejected) {
			failure.Kind = models.FailureCommand
		}

		p.logger.Warn().
			Str("device", device.ID()).
			Str("metric", string(st.metric)).
			Str("command", st.command).
			Err(err).
			Msg("Failed to parse command output")

		obs.Fail(failure)

		return
	}

	obs.Add(rec)
}

