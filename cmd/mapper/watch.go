package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/mudmapper/internal/area"
	"github.com/cory-johannsen/mudmapper/internal/watch"
)

var (
	watchFormat   string
	watchOut      string
	watchVars     []string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <area.json>",
	Short: "Re-export an area file whenever it changes",
	Long: `Export the area once, then watch the file and export it again after
every save until interrupted. Failed exports are logged and watching continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "", "export format name (default from config)")
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "output path")
	watchCmd.Flags().StringArrayVar(&watchVars, "var", nil, "template variable as KEY=VALUE (repeatable)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before re-exporting")
}

func runWatch(cmd *cobra.Command, args []string) error {
	vars, err := parseVars(watchVars)
	if err != nil {
		return err
	}
	registry, f, err := resolveFormat(watchFormat)
	if err != nil {
		return err
	}
	in, out := args[0], watchOut
	if out == "" {
		out = area.OutputPath(in, f)
	}

	w := watch.New(in, watchDebounce, func() error {
		_, err := convertFile(registry, f, in, out, vars)
		return err
	}, logger.Named("watch"))

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := watch.SignalContext(parent, logger)
	defer cancel()
	if err := w.Run(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d exports written to %s\n", w.Builds(), out)
	return nil
}
