// Package main is the command-line front end for the area map editor.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmapper/internal/config"
	"github.com/cory-johannsen/mudmapper/internal/mapper"
	"github.com/cory-johannsen/mudmapper/internal/observability"
)

var (
	configPath string
	cfg        config.Config
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "mapper",
	Short: "MUD area map editor",
	Long: `mapper edits multi-level MUD area maps stored as native JSON, runs Lua
build scripts against them, and exports them to templated area file formats.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(watchCmd)
}

// setup loads configuration and builds the logger shared by every command.
func setup(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	l, err := observability.NewLogger(loaded.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	cfg, logger = loaded, l
	return nil
}

// newSession creates an empty editor session from the loaded configuration
// with edit notifications routed to the logger.
func newSession() (*mapper.Session, error) {
	opts := cfg.SessionOptions()
	opts.Logger = logger
	opts.Hooks = observability.NewEditLog(logger)
	return mapper.NewSession(opts)
}
