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

// Package scheduler fans device polls out over a bounded worker pool and
// streams back exactly one Result per device.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/metrics"
	"github.com/carverauto/netpoll/pkg/models"
	"github.com/carverauto/netpoll/pkg/session"
)

const (
	DefaultConcurrency   = 10
	DefaultDeviceTimeout = 2 * time.Minute
	DefaultRunTimeout    = 10 * time.Minute

	tracerName = "github.com/carverauto/netpoll/pkg/scheduler"
)

// Config bounds one run.
type Config struct {
	Concurrency   int
	DeviceTimeout time.Duration
	RunTimeout    time.Duration
	// Retry is applied to devices that carry no policy of their own.
	Retry *models.RetryPolicy
}

// WithDefaults fills zero fields.
func (c Config) WithDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}

	if c.DeviceTimeout <= 0 {
		c.DeviceTimeout = DefaultDeviceTimeout
	}

	if c.RunTimeout <= 0 {
		c.RunTimeout = DefaultRunTimeout
	}

	return c
}

// Scheduler runs polls concurrently across devices.
type Scheduler struct {
	poller   DevicePoller
	config   Config
	logger   logger.Logger
	recorder metrics.Recorder
	tracer   trace.Tracer
}

// New creates a scheduler. rec may be nil.
func New(p DevicePoller, cfg Config, log logger.Logger, rec metrics.Recorder) *Scheduler {
	return &Scheduler{
		poller:   p,
		config:   cfg.WithDefaults(),
		logger:   log,
		recorder: metrics.OrNop(rec),
		tracer:   logger.GetTracer(tracerName),
	}
}

// RunPoll is a one-shot run with explicit limits.
func RunPoll(ctx context.Context, p DevicePoller, devices []*models.Device, req models.MetricRequest,
	cfg Config, log logger.Logger) <-chan Result {
	return New(p, cfg, log, nil).Run(ctx, devices, req)
}

// run is the state of one invocation of Run.
type run struct {
	id        string
	devices   []*models.Device
	delivered []atomic.Bool
	out       chan Result
}

// emit delivers the first result for device i and drops any later one.
func (r *run) emit(i int, res Result) bool {
	if !r.delivered[i].CompareAndSwap(false, true) {
		return false
	}

	r.out <- res

	return true
}

// Run polls every device and streams one Result per device, in completion
// order. The channel is closed once every device has a result or the run
// deadline has passed; devices still pending at the deadline get a
// run_timeout result. Run is not restartable: call it again for a new run.
func (s *Scheduler) Run(ctx context.Context, devices []*models.Device, req models.MetricRequest) <-chan Result {
	r := &run{
		id:        uuid.NewString(),
		devices:   devices,
		delivered: make([]atomic.Bool, len(devices)),
		out:       make(chan Result, len(devices)),
	}

	go s.execute(ctx, r, req)

	return r.out
}

func (s *Scheduler) execute(ctx context.Context, r *run, req models.MetricRequest) {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "scheduler.Run", trace.WithAttributes(
		attribute.String("run_id", r.id),
		attribute.Int("devices", len(r.devices)),
		attribute.Int("concurrency", s.config.Concurrency),
	))
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	s.logger.Info().
		Str("run_id", r.id).
		Int("devices", len(r.devices)).
		Int("concurrency", s.config.Concurrency).
		Dur("device_timeout", s.config.DeviceTimeout).
		Dur("run_timeout", s.config.RunTimeout).
		Msg("Starting polling run")

	sem := semaphore.NewWeighted(int64(s.config.Concurrency))

	var wg sync.WaitGroup

	for i, device := range r.devices {
		if device == nil {
			r.emit(i, s.failure(&models.Device{Name: fmt.Sprintf("device[%d]", i)},
				KindInvalidDevice, errors.New("nil device"), 0))

			continue
		}

		if err := device.Validate(); err != nil {
			r.emit(i, s.failure(device, KindInvalidDevice, err, 0))
			continue
		}

		if err := sem.Acquire(runCtx, 1); err != nil {
			r.emit(i, s.failure(device, KindRunTimeout, runCtx.Err(), 0))
			continue
		}

		wg.Add(1)

		go func(i int, device *models.Device) {
			defer wg.Done()
			defer sem.Release(1)

			s.pollDevice(runCtx, r, i, device, req)
		}(i, device)
	}

	// A worker is released once its device has a result, even if the poll
	// itself ignores cancellation, so this wait is bounded by the deadlines.
	wg.Wait()

	elapsed := time.Since(start)
	s.recorder.RunFinished(len(r.devices), elapsed)

	s.logger.Info().
		Str("run_id", r.id).
		Int("devices", len(r.devices)).
		Dur("elapsed", elapsed).
		Msg("Polling run complete")

	close(r.out)
}

type outcome struct {
	obs *models.Observation
	err error
}

func (s *Scheduler) pollDevice(runCtx context.Context, r *run, i int, device *models.Device, req models.MetricRequest) {
	start := time.Now()

	dctx, cancel := context.WithTimeout(runCtx, s.config.DeviceTimeout)
	defer cancel()

	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error().
					Str("run_id", r.id).
					Str("device", device.ID()).
					Interface("panic", p).
					Bytes("stack", debug.Stack()).
					Msg("Recovered panic while polling device")

				done <- outcome{err: fmt.Errorf("%w: panic: %v", ErrInternal, p)}
			}
		}()

		obs, err := s.poller.Poll(dctx, s.withRetry(device), req)
		done <- outcome{obs: obs, err: err}
	}()

	var res Result

	select {
	case o := <-done:
		res = s.classify(runCtx, dctx, device, o, time.Since(start))
	case <-dctx.Done():
		res = s.failure(device, timeoutKind(runCtx), dctx.Err(), time.Since(start))
	}

	if !r.emit(i, res) {
		return
	}

	s.recorder.DevicePolled(res.State(), res.Elapsed)

	event := s.logger.Debug()
	if res.Err != nil {
		event = s.logger.Warn().Str("kind", string(res.Err.Kind)).AnErr("error", res.Err.Err)
	}

	event.Str("run_id", r.id).
		Str("device", device.ID()).
		Str("state", res.State()).
		Dur("elapsed", res.Elapsed).
		Msg("Device result")
}

func timeoutKind(runCtx context.Context) ErrorKind {
	if runCtx.Err() != nil {
		return KindRunTimeout
	}

	return KindTimeout
}

func (s *Scheduler) classify(runCtx, dctx context.Context, device *models.Device, o outcome, elapsed time.Duration) Result {
	switch {
	case o.err == nil && o.obs != nil:
		return Result{Device: device, Observation: o.obs, Elapsed: elapsed}
	case o.err == nil:
		return s.failure(device, KindInternal, errors.New("poller returned no observation"), elapsed)
	case errors.Is(o.err, ErrInternal):
		return s.failure(device, KindInternal, o.err, elapsed)
	case dctx.Err() != nil:
		return s.failure(device, timeoutKind(runCtx), o.err, elapsed)
	}

	var ce *session.ConnectError
	if errors.As(o.err, &ce) {
		if ce.Kind == session.KindUnknownVendor {
			return s.failure(device, KindInvalidDevice, o.err, elapsed)
		}

		return s.failure(device, KindConnect, o.err, elapsed)
	}

	return s.failure(device, KindInternal, o.err, elapsed)
}

func (s *Scheduler) failure(device *models.Device, kind ErrorKind, err error, elapsed time.Duration) Result {
	return Result{
		Device:  device,
		Err:     &PollError{Kind: kind, DeviceID: device.ID(), Err: err},
		Elapsed: elapsed,
	}
}

// withRetry returns device, or a copy carrying the run's retry policy.
func (s *Scheduler) withRetry(device *models.Device) *models.Device {
	if s.config.Retry == nil || device.Retry != nil {
		return device
	}

	d := *device
	policy := s.config.Retry.WithDefaults()
	d.Retry = &policy

	return &d
}
