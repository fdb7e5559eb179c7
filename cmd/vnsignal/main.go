package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Buu205/vnsignal/internal/config"
	applog "github.com/Buu205/vnsignal/internal/log"
)

const (
	appName = "vnsignal"
	version = "v1.2.0"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Daily technical signal and market regime engine for the Vietnamese stock market",
		Version: version,
		Long: `vnsignal computes the daily market picture from end-of-day data:
index regime and exposure, bottom formation staging, sector and stock
rotation, and deduplicated, composite-scored trading signals.`,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (defaults apply when empty)")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHealthCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, applies defaults, validates, and sets up
// the global logger.
func loadConfig(pretty bool) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	if pretty {
		cfg.Log.Pretty = true
	}
	applog.Setup(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}
