// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zonekit/zonekit.go/core"
)

func newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Converge live provider state to the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireProvider(); err != nil {
				return err
			}
			zones, loadWarnings, err := loadZones(cmd)
			if err != nil {
				return err
			}
			if err := core.CheckCompatibility(zones, flagProvider, flagValidate); err != nil {
				return err
			}
			warnings := append(loadWarnings, core.Advisories(zones, flagProvider)...)

			log, err := newLogger()
			if err != nil {
				return err
			}
			provider, err := core.BuildProvider(flagProvider, log, flagSettings)
			if err != nil {
				return err
			}

			// An abort stops scheduling; applied operations stay applied.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			r := &core.Reconciler{Provider: provider, Log: log, Concurrency: flagConcurrency}
			run, runErr := r.Run(ctx, zones)
			if run == nil {
				return runErr
			}

			report := core.BuildReport(zones, run, warnings)
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			fmt.Fprintln(cmd.OutOrStdout(), report.NextSteps)

			var partial *core.PartialError
			if errors.As(runErr, &partial) {
				return fmt.Errorf("run converged partially: %w", runErr)
			}
			if errors.Is(runErr, context.Canceled) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted; applied operations were kept")
				return nil
			}
			return runErr
		},
	}
}
