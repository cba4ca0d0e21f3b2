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

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/carverauto/netpoll/pkg/lifecycle"
	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/metrics"
	"github.com/carverauto/netpoll/pkg/monitor"
)

const (
	metricsReadHeaderTimeout = 5 * time.Second
	metricsShutdownTimeout   = 5 * time.Second
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the fleet every poll_interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return watch(cmd.Context(), root, shutdownTimeout)
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second,
		"How long to wait for an in-flight run on shutdown")

	return cmd
}

func watch(ctx context.Context, root *rootOptions, shutdownTimeout time.Duration) error {
	ctx, a, err := setup(ctx, root, "watch")
	if err != nil {
		return err
	}
	defer a.shutdown()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rec, err := metrics.NewPrometheusRecorder(reg)
	if err != nil {
		return err
	}

	m, err := monitor.Build(ctx, a.cfg, a.log, rec)
	if err != nil {
		return err
	}

	if a.cfg.MetricsAddr != "" {
		stop := serveMetrics(a.cfg.MetricsAddr, reg, a.log)
		defer stop()
	}

	svc := monitor.NewService(m, a.cfg.PollInterval.Std(), a.log,
		monitor.WithReportHandler(func(r *monitor.RunReport) {
			a.log.Debug().
				Str("run_id", r.ID).
				Int("firing", len(m.Firing())).
				Msg("Alert state after run")
		}))

	return lifecycle.RunService(ctx, &lifecycle.RunOptions{
		ServiceName:     serviceName,
		Service:         svc,
		Logger:          a.log,
		ShutdownTimeout: shutdownTimeout,
	})
}

// serveMetrics exposes reg on addr/metrics and returns the shutdown func.
func serveMetrics(addr string, reg *prometheus.Registry, log logger.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("Metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}
}
