package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jg-rp/liquid-extra/pkg/config"
	"github.com/jg-rp/liquid-extra/pkg/liquid"
	"github.com/jg-rp/liquid-extra/pkg/logger"
)

var (
	rootConfig    string
	debug         bool
	strictFilters bool
)

var rootCmd = cobra.Command{
	Use:           "liquid-extra",
	Short:         "Render Liquid templates with inline if, not and with extensions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// loadConfig reads --config when given and applies the flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if rootConfig != "" {
		var err error
		if cfg, err = config.Load(rootConfig); err != nil {
			return nil, err
		}
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	if cmd.Flags().Changed("strict-filters") {
		cfg.StrictFilters = strictFilters
	}
	logger.Init(&cfg.Log)
	return cfg, nil
}

func loadEnvironment(cmd *cobra.Command) (*config.Config, *liquid.Environment, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	env, err := cfg.Environment()
	if err != nil {
		return nil, nil, fmt.Errorf("building environment: %w", err)
	}
	return cfg, env, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfig, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&strictFilters, "strict-filters", true, "Fail on unknown filters instead of skipping them")
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		logger.L().Error("command failed", zap.Error(err))
	}
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
