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
	"fmt"

	"github.com/carverauto/netpoll/pkg/catalog"
	"github.com/carverauto/netpoll/pkg/events"
	"github.com/carverauto/netpoll/pkg/history"
	"github.com/carverauto/netpoll/pkg/identify"
	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/metrics"
	"github.com/carverauto/netpoll/pkg/poller"
	"github.com/carverauto/netpoll/pkg/scheduler"
	"github.com/carverauto/netpoll/pkg/session"
)

// Build wires the production pipeline from a validated Config: SSH
// sessions with credentials from the environment, the vendor catalog, the
// configured history store, a log notifier and, when configured, the NATS
// alert publisher. The caller must Close the returned Monitor.
func Build(ctx context.Context, cfg *Config, log logger.Logger, rec metrics.Recorder) (*Monitor, error) {
	rec = metrics.OrNop(rec)
	cat := catalog.New()

	dialer, err := session.NewSSHDialer(cfg.SSH, log)
	if err != nil {
		return nil, fmt.Errorf("ssh: %w", err)
	}

	sessions := session.NewManager(dialer, session.NewEnvCredentials(), log,
		session.WithVendors(cat),
		session.WithRetryPolicy(*cfg.Retry),
		session.WithRecorder(rec),
	)

	runner := scheduler.New(poller.New(sessions, cat, poller.RealClock{}, log), cfg.SchedulerConfig(), log, rec)

	store, closeStore, err := history.Open(ctx, cfg.History, log)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	opts := []Option{
		WithRecorder(rec),
		WithCloser(func() error {
			closeStore()
			return nil
		}),
	}

	notifiers := []events.Notifier{events.NewLogNotifier(log)}

	if cfg.NATS != nil {
		pub, nc, err := events.Connect(ctx, *cfg.NATS, log)
		if err != nil {
			closeStore()
			return nil, fmt.Errorf("nats: %w", err)
		}

		notifiers = append(notifiers, pub)
		opts = append(opts, WithCloser(nc.Drain))
	}

	opts = append(opts, WithNotifier(events.NewMultiNotifier(notifiers...)))

	if cfg.NeedsDetection() {
		opts = append(opts, WithResolver(identify.NewDetector(cfg.SNMP, log)))
	}

	return New(cfg, runner, store, log, opts...), nil
}
