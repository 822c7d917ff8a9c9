package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/mudmapper/internal/area"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the available export formats",
	Args:  cobra.NoArgs,
	RunE:  runFormats,
}

func runFormats(cmd *cobra.Command, _ []string) error {
	registry, err := area.NewRegistry(cfg.Formats.Dir)
	if err != nil {
		return fmt.Errorf("loading formats: %w", err)
	}
	for _, name := range registry.Names() {
		f, err := registry.Get(name)
		if err != nil {
			return err
		}
		marker := " "
		if name == cfg.Formats.Default {
			marker = "*"
		}
		encoding := f.Encoding
		if encoding == "" {
			encoding = "utf-8"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-10s %s (%s, %s)\n", marker, f.Name, f.Label, f.FileExtension, encoding)
	}
	return nil
}
