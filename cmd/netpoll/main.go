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
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/carverauto/netpoll/pkg/config"
	"github.com/carverauto/netpoll/pkg/lifecycle"
	"github.com/carverauto/netpoll/pkg/logger"
	"github.com/carverauto/netpoll/pkg/monitor"
	"github.com/carverauto/netpoll/pkg/version"
)

const (
	serviceName       = "netpoll"
	defaultConfigPath = "/etc/netpoll/netpoll.yaml"
	tracingShutdown   = 5 * time.Second
)

var errFailedToLoadConfig = errors.New("failed to load config")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "netpoll: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Poll network devices over SSH, track changes and raise alerts",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath,
		"Path to the YAML or JSON config file")

	cmd.AddCommand(
		newRunCmd(opts),
		newWatchCmd(opts),
		newDetectCmd(opts),
	)

	return cmd
}

// app is the state shared by every subcommand: the validated config, the
// component logger and the tracing shutdown hook.
type app struct {
	cfg      *monitor.Config
	log      logger.Logger
	shutdown func()
}

// loadConfig reads and validates the config without side effects.
func loadConfig(ctx context.Context, opts *rootOptions) (*monitor.Config, error) {
	var cfg monitor.Config

	if err := config.NewConfig(nil).LoadAndValidate(ctx, opts.configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	return &cfg, nil
}

func setup(ctx context.Context, opts *rootOptions, component string) (context.Context, *app, error) {
	cfg, err := loadConfig(ctx, opts)
	if err != nil {
		return ctx, nil, err
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		// stdout carries reports
		logConfig = &logger.Config{
			Level:  "info",
			Output: "stderr",
		}
	}

	log, err := lifecycle.CreateComponentLogger(component, logConfig)
	if err != nil {
		return ctx, nil, err
	}

	tracing := logger.TracingDefaults(serviceName)
	if cfg.Tracing != nil {
		tracing = *cfg.Tracing
	}

	tracing.ServiceVersion = version.GetVersion()
	tracing.Logger = log
	tracing.Debug = logConfig.Debug

	tp, ctx, rootSpan, err := logger.InitializeTracing(ctx, tracing)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	shutdown := func() {
		rootSpan.End()

		sctx, cancel := context.WithTimeout(context.Background(), tracingShutdown)
		defer cancel()

		if err := tp.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("Tracer provider shutdown failed")
		}
	}

	return ctx, &app{cfg: cfg, log: log, shutdown: shutdown}, nil
}
