package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/harborline/slipway/internal/config"
	"github.com/harborline/slipway/internal/store"
	"github.com/harborline/slipway/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "slipway",
	Short: "Build sequence scheduler for assembly lines",
	Long:  "Slipway schedules assembly cards across lanes, validates build order dependencies, and flags crane and sequencing conflicts.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .slipway.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".slipway")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("SLIPWAY")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// openBoard loads the config and opens the board database. Callers own
// the returned store and must Close it.
func openBoard(ctx context.Context) (config.Config, *store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("opening board %s: %w", cfg.DBPath, err)
	}
	return cfg, st, nil
}

// newEmitter opens the telemetry sink when one is configured. A nil
// emitter is a valid no-op.
func newEmitter(cfg config.Config) *telemetry.Emitter {
	if cfg.TelemetryPath == "" {
		return nil
	}
	em, err := telemetry.NewEmitter(cfg.TelemetryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry disabled: %v\n", err)
		return nil
	}
	return em
}
