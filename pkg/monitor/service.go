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

package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/poller"
)

// Service runs the monitor on a fixed interval until stopped. It satisfies
// lifecycle.Service. Runs never overlap: a tick that arrives while a run is
// in progress is dropped by the ticker.
type Service struct {
	monitor  *Monitor
	clock    poller.Clock
	interval time.Duration
	logger   logger.Logger
	onReport func(*RunReport)

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceClock replaces the wall clock ticker, for tests.
func WithServiceClock(c poller.Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

// WithReportHandler is called after every run.
func WithReportHandler(fn func(*RunReport)) ServiceOption {
	return func(s *Service) { s.onReport = fn }
}

func NewService(m *Monitor, interval time.Duration, log logger.Logger, opts ...ServiceOption) *Service {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	s := &Service{
		monitor:  m,
		clock:    poller.RealClock{},
		interval: interval,
		logger:   log,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start polls immediately and then on every tick. It returns when ctx is
// done or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}

	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Stop aborts an in-flight run
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("Starting monitor")

	s.run(ctx)

	for {
		select {
		case <-ctx.Done():
			select {
			case <-s.done:
				return nil
			default:
				return ctx.Err()
			}
		case <-ticker.Chan():
			s.run(ctx)
		}
	}
}

func (s *Service) run(ctx context.Context) {
	report, err := s.monitor.RunOnce(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Run skipped")
		return
	}

	if s.onReport != nil {
		s.onReport(report)
	}
}

// Stop ends the loop, waits for an in-flight run to unwind and releases
// the monitor's resources.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.done)
	}
	s.mu.Unlock()

	finished := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info().Msg("Monitor stopped")

	return s.monitor.Close()
}
