// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/redis/rueidis"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zonekit/zonekit.go/config"
	"github.com/zonekit/zonekit.go/core"

	_ "github.com/zonekit/zonekit.go/provider/aws"
	_ "github.com/zonekit/zonekit.go/provider/cloudflare"
	_ "github.com/zonekit/zonekit.go/provider/vercel"
)

var (
	flagConfig    string
	flagFromRedis string
	flagRedisAddr string
	flagRedisDB   int

	flagProvider string
	flagSettings map[string]string

	flagDefaultTTL  int
	flagComment     string
	flagTags        map[string]string
	flagAllowAnyTTL bool
	flagLenient     bool

	flagValidate    bool
	flagConcurrency int
	flagVerbosity   int
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "zonekitctl",
		Short:         "Reconcile declarative DNS zones against a provider",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "Configuration file (JSON or YAML).")
	pf.StringVar(&flagFromRedis, "from-redis", "", "Pull the configuration document from redis under this name instead of a file.")
	pf.StringVar(&flagRedisAddr, "redis-addr", "[::1]:6379", "Redis address.")
	pf.IntVar(&flagRedisDB, "redis-db", 0, "Redis database index.")
	pf.StringVarP(&flagProvider, "provider", "p", "", "Provider selector: aws, cloudflare or vercel.")
	pf.StringToStringVar(&flagSettings, "setting", nil, "Provider settings as key=value, repeatable.")
	pf.IntVar(&flagDefaultTTL, "default-ttl", 0, "Default record TTL in seconds.")
	pf.StringVar(&flagComment, "default-comment", "", "Default zone comment.")
	pf.StringToStringVar(&flagTags, "default-tag", nil, "Default zone tags as key=value, repeatable.")
	pf.BoolVar(&flagAllowAnyTTL, "allow-any-ttl", false, "Lift the TTL range policy.")
	pf.BoolVar(&flagLenient, "lenient", false, "Skip malformed records with a warning instead of failing.")
	pf.BoolVar(&flagValidate, "validate", true, "Fail on record types the provider does not support.")
	pf.IntVar(&flagConcurrency, "concurrency", core.DefaultConcurrency, "Concurrent provider operations.")
	pf.CountVarP(&flagVerbosity, "verbose", "v", "Increase log verbosity.")

	root.AddCommand(newValidateCmd(), newPlanCmd(), newApplyCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() (logr.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.Level(-flagVerbosity))
	z, err := zc.Build()
	if err != nil {
		return logr.Logger{}, err
	}
	return zapr.NewLogger(z), nil
}

func defaults() config.Defaults {
	return config.Defaults{
		TTL:         flagDefaultTTL,
		Comment:     flagComment,
		Tags:        flagTags,
		AllowAnyTTL: flagAllowAnyTTL,
		Lenient:     flagLenient,
	}
}

// loadZones reads the desired configuration from the file or the redis
// document store, whichever is selected.
func loadZones(cmd *cobra.Command) ([]*core.Zone, []core.Warning, error) {
	switch {
	case flagConfig != "" && flagFromRedis != "":
		return nil, nil, fmt.Errorf("--config and --from-redis are mutually exclusive")
	case flagConfig != "":
		return config.LoadFile(flagConfig, defaults())
	case flagFromRedis != "":
		client, err := rueidis.NewClient(rueidis.ClientOption{
			InitAddress: []string{flagRedisAddr},
			SelectDB:    flagRedisDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis server: %w", err)
		}
		db := &core.Database{Client: client}
		defer db.Close()

		data, ok, err := db.QueryDocument(cmd.Context(), flagFromRedis)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, fmt.Errorf("no document called %s in redis", flagFromRedis)
		}
		return config.LoadJSON(data, "redis:"+flagFromRedis, defaults())
	default:
		return nil, nil, fmt.Errorf("either --config or --from-redis is required")
	}
}

func requireProvider() error {
	if flagProvider == "" {
		return fmt.Errorf("--provider is required, one of %v", core.ProviderNames())
	}
	return nil
}
