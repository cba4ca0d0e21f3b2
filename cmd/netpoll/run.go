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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/carverauto/netpoll/pkg/config"
	"github.com/carverauto/netpoll/pkg/monitor"
)

var (
	errFailOnMatched = errors.New("run matched --fail-on")
	errUnknownFailOn = errors.New("unknown --fail-on value")
	errUnknownOutput = errors.New("unknown --output value")
)

const (
	failOnNone        = "none"
	failOnWarning     = "warning"
	failOnCritical    = "critical"
	failOnUnreachable = "unreachable"

	outputReport  = "report"
	outputSummary = "summary"
)

type runOptions struct {
	failOn string
	output string
	dryRun bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll every device once and print the run report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.failOn, "fail-on", failOnNone,
		"Exit non-zero when any device is: none, warning, critical or unreachable")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputReport, "Output: report or summary")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the effective config with secrets redacted and exit")

	return cmd
}

func runOnce(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	if err := validateRunOptions(opts); err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if opts.dryRun {
		cfg, err := loadConfig(ctx, root)
		if err != nil {
			return err
		}

		data, err := config.Redact(cfg)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}

		_, err = fmt.Fprintln(out, buf.String())

		return err
	}

	ctx, a, err := setup(ctx, root, "run")
	if err != nil {
		return err
	}
	defer a.shutdown()

	m, err := monitor.Build(ctx, a.cfg, a.log, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err := m.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to release monitor resources")
		}
	}()

	report, err := m.RunOnce(ctx)
	if err != nil {
		return err
	}

	var doc interface{} = report
	if opts.output == outputSummary {
		doc = report.Summary()
	}

	if err := writeJSON(out, doc); err != nil {
		return err
	}

	return checkFailOn(opts.failOn, report.Summary())
}

func validateRunOptions(opts *runOptions) error {
	switch opts.failOn {
	case failOnNone, failOnWarning, failOnCritical, failOnUnreachable:
	default:
		return fmt.Errorf("%w: %q", errUnknownFailOn, opts.failOn)
	}

	switch opts.output {
	case outputReport, outputSummary:
	default:
		return fmt.Errorf("%w: %q", errUnknownOutput, opts.output)
	}

	return nil
}

// checkFailOn turns a run summary into the process exit status.
func checkFailOn(failOn string, s monitor.Summary) error {
	var hit []string

	switch failOn {
	case failOnWarning:
		hit = append(append(hit, s.Critical...), s.Warning...)
	case failOnCritical:
		hit = s.Critical
	case failOnUnreachable:
		if s.Unreachable > 0 {
			return fmt.Errorf("%w: %d unreachable device(s)", errFailOnMatched, s.Unreachable)
		}
	}

	if len(hit) > 0 {
		return fmt.Errorf("%w: %v", errFailOnMatched, hit)
	}

	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
