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
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/netpoll/pkg/identify"
	"github.com/carverauto/netpoll/pkg/models"
)

// detection is one line of `netpoll detect` output.
type detection struct {
	Device string `json:"device"`
	Host   string `json:"host"`
	identify.Identity
	Error string `json:"error,omitempty"`
}

func newDetectCmd(root *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Identify device vendors over SNMP and print what was found",
		Long: "Probes sysDescr and sysObjectID on every device whose vendor is \"autodetect\" " +
			"(or every device with --all) and prints the vendor each would be polled as.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return detect(cmd.Context(), cmd.OutOrStdout(), root, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Probe every configured device, not only autodetect ones")

	return cmd
}

func detect(ctx context.Context, out io.Writer, root *rootOptions, all bool) error {
	ctx, a, err := setup(ctx, root, "detect")
	if err != nil {
		return err
	}
	defer a.shutdown()

	var targets []*models.Device

	for _, d := range a.cfg.Devices {
		if all || d.Vendor == models.VendorAutodetect {
			targets = append(targets, d)
		}
	}

	det := identify.NewDetector(a.cfg.SNMP, a.log)
	results := make([]detection, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.SNMP.WithDefaults().Parallelism)

	for i, d := range targets {
		g.Go(func() error {
			id, err := det.Detect(gctx, d)

			results[i] = detection{Device: d.ID(), Host: d.Host, Identity: id}
			if err != nil {
				results[i].Error = err.Error()
			}

			return nil
		})
	}

	_ = g.Wait()

	a.log.Info().Int("devices", len(targets)).Msg("Detection finished")

	return writeJSON(out, results)
}
