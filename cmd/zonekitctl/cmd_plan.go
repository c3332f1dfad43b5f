// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zonekit/zonekit.go/core"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the operations an apply would perform",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireProvider(); err != nil {
				return err
			}
			zones, _, err := loadZones(cmd)
			if err != nil {
				return err
			}
			if err := core.CheckCompatibility(zones, flagProvider, flagValidate); err != nil {
				return err
			}

			log, err := newLogger()
			if err != nil {
				return err
			}
			provider, err := core.BuildProvider(flagProvider, log, flagSettings)
			if err != nil {
				return err
			}

			r := &core.Reconciler{Provider: provider, Log: log, Concurrency: flagConcurrency}
			plans, err := r.Plan(cmd.Context(), zones)
			if err != nil {
				return err
			}

			total := 0
			for _, plan := range plans {
				if !plan.Exists {
					fmt.Fprintf(cmd.OutOrStdout(), "zone %s (%s): will be created\n", plan.Zone.Key, plan.Zone.Domain)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "zone %s (%s):\n", plan.Zone.Key, plan.Zone.Domain)
				}
				if len(plan.Ops) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "  converged, nothing to do")
					continue
				}
				for _, op := range plan.Ops {
					total++
					switch op.Action {
					case core.ActionDelete:
						fmt.Fprintf(cmd.OutOrStdout(), "  %s %s (value %q)\n", op.Action, op.Identity, op.Live.Value)
					default:
						fmt.Fprintf(cmd.OutOrStdout(), "  %s %s -> %q ttl %d\n", op.Action, op.Identity, op.Desired.Value, op.Desired.TTL)
					}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d operation(s) planned\n", total)
			return nil
		},
	}
}
