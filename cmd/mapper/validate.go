package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/mudmapper/internal/area"
)

var validateStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate <area.json>",
	Short: "Check an area file and report what loading it drops",
	Long: `Load a native area file, list the rooms and exits that could not be
rebuilt, and verify the consistency of the resulting map. With --strict any
dropped room or exit fails the command.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "fail when any room or exit is dropped")
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	report, err := area.LoadSession(s, args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	info := s.AreaInfo()
	fmt.Fprintf(w, "%s: %q vnums %d-%d\n", args[0], info.AreaName, info.VnumMin, info.VnumMax)
	fmt.Fprintf(w, "  rooms: %d\n  links: %d\n", report.Rooms, report.Links)
	if report.Rederived > 0 {
		fmt.Fprintf(w, "  exits rederived from positions: %d\n", report.Rederived)
	}
	for _, sk := range report.Skipped {
		fmt.Fprintf(w, "  skipped room %d: %s\n", sk.ID, sk.Reason)
	}
	for _, u := range report.Unresolved {
		fmt.Fprintf(w, "  dropped exit %d %s -> %d: %s\n", u.From, u.Key, u.To, u.Reason)
	}

	if err := s.CheckInvariants(); err != nil {
		return fmt.Errorf("inconsistent map: %w", err)
	}
	if dropped := len(report.Skipped) + len(report.Unresolved); validateStrict && dropped > 0 {
		return fmt.Errorf("%s: %d records dropped", args[0], dropped)
	}
	fmt.Fprintln(w, "  ok")
	return nil
}
