package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/tabi/internal/cli"
	"github.com/aretw0/tabi/pkg/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tabi",
	Short: "Tabi drafts travel itineraries for trips in Japan",
	Long: `Tabi gathers background on a destination from a local knowledge base or web search,
asks a language model for several candidate itineraries and adds practical advice.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./"+cli.DefaultConfigFile+" when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("knowledge", "", "Directory holding the destination guides")
}

// setup loads the config and logger shared by every command.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")

	cfg, err := cli.LoadConfig(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	if dir, _ := cmd.Flags().GetString("knowledge"); dir != "" {
		cfg.Knowledge.Dir = dir
	}

	logger, err := cli.NewLogger(os.Stderr, cfg, level)
	if err != nil {
		return config.Config{}, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}
