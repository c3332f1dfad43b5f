// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/zonekit/zonekit.go/core"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration without touching any provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, loadWarnings, err := loadZones(cmd)
			if err != nil {
				return err
			}

			printStatistics(cmd, zones)

			for _, w := range loadWarnings {
				fmt.Fprintln(cmd.OutOrStdout(), "warning:", w)
			}

			providers := core.ProviderNames()
			if flagProvider != "" {
				providers = []string{flagProvider}
			}

			var failure error
			for _, provider := range providers {
				for _, w := range core.Advisories(zones, provider) {
					fmt.Fprintf(cmd.OutOrStdout(), "warning (%s): %s\n", provider, w)
				}
				err := core.CheckCompatibility(zones, provider, flagValidate)
				switch {
				case err == nil:
					fmt.Fprintf(cmd.OutOrStdout(), "ok: compatible with %s\n", provider)
				case flagProvider != "":
					failure = err
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "incompatible with %s:\n%v\n", provider, err)
				}
			}
			return failure
		},
	}
}

func printStatistics(cmd *cobra.Command, zones []*core.Zone) {
	counts := core.Statistics(zones)
	fmt.Fprintf(cmd.OutOrStdout(), "zones: %d, records: %d\n", counts.Zones, counts.Records)
	types := make([]string, 0, len(counts.ByType))
	for t := range counts.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d\n", t, counts.ByType[t])
	}
}
