package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/mudmapper/internal/area"
)

var (
	newName     string
	newFilename string
	newMin      int
	newMax      int
)

var newCmd = &cobra.Command{
	Use:   "new <area.json>",
	Short: "Create an empty area file",
	Long: `Create an empty native area file. The name, file name and vnum range
default to the area section of the configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func init() {
	newCmd.Flags().StringVar(&newName, "name", "", "area name")
	newCmd.Flags().StringVar(&newFilename, "filename", "", "export file name written to area headers")
	newCmd.Flags().IntVar(&newMin, "min", -1, "lowest vnum of the area")
	newCmd.Flags().IntVar(&newMax, "max", -1, "highest vnum of the area")
}

func runNew(cmd *cobra.Command, args []string) error {
	if newName != "" {
		cfg.Area.Name = newName
	}
	if newFilename != "" {
		cfg.Area.Filename = newFilename
	}
	if newMin >= 0 {
		cfg.Area.VnumMin = newMin
	}
	if newMax >= 0 {
		cfg.Area.VnumMax = newMax
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	if err := area.WriteAreaFile(s, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s, vnums %d-%d)\n",
		args[0], cfg.Area.Name, cfg.Area.VnumMin, cfg.Area.VnumMax)
	return nil
}
