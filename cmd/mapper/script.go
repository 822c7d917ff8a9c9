package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmapper/internal/area"
	"github.com/cory-johannsen/mudmapper/internal/scripting"
)

var (
	scriptOut    string
	scriptDryRun bool
	scriptDir    string
)

// saveHook is the Lua global consulted before the area is written. Returning
// false or a message string vetoes the save.
const saveHook = "on_save"

var scriptCmd = &cobra.Command{
	Use:   "script <area.json> [script.lua]...",
	Short: "Run Lua build scripts against an area",
	Long: `Load a native area file, or start an empty area when the file does not
exist, run the Lua scripts through the map module and save the result.
Every *.lua file in --dir runs first in name order, then each listed script.
Scripts share one Lua state, so later scripts see earlier globals.

A script may define on_save(path). It is called before writing; returning
false or a string aborts the save.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScript,
}

func init() {
	scriptCmd.Flags().StringVarP(&scriptOut, "out", "o", "", "output path (default: overwrite the input)")
	scriptCmd.Flags().BoolVar(&scriptDryRun, "dry-run", false, "run the scripts without saving")
	scriptCmd.Flags().StringVarP(&scriptDir, "dir", "d", "", "directory of Lua scripts to run first")
}

func runScript(cmd *cobra.Command, args []string) error {
	in, scripts := args[0], args[1:]
	if len(scripts) == 0 && scriptDir == "" {
		return fmt.Errorf("no scripts given: pass script files or --dir")
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(in); statErr == nil {
		if _, err := area.LoadSession(s, in); err != nil {
			return err
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", in, statErr)
	}

	mgr := scripting.NewManager(s, logger.Named("lua"), cfg.Scripting.InstructionLimit)
	defer mgr.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if scriptDir != "" {
		if err := mgr.LoadDir(ctx, scriptDir); err != nil {
			return err
		}
	}
	for _, path := range scripts {
		if err := mgr.RunFile(ctx, path); err != nil {
			return err
		}
	}
	if err := s.CheckInvariants(); err != nil {
		return fmt.Errorf("scripts left an inconsistent map: %w", err)
	}
	logger.Info("scripts applied",
		zap.Int("scripts", len(scripts)),
		zap.Int("rooms", s.Graph().RoomCount()),
		zap.Int("links", s.Graph().LinkCount()),
	)

	if scriptDryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "dry run: %d rooms, %d links\n", s.Graph().RoomCount(), s.Graph().LinkCount())
		return nil
	}
	out := scriptOut
	if out == "" {
		out = in
	}
	if err := checkSaveHook(ctx, mgr, out); err != nil {
		return err
	}
	if err := area.WriteAreaFile(s, out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d rooms, %d links\n", out, s.Graph().RoomCount(), s.Graph().LinkCount())
	return nil
}

// checkSaveHook runs the optional on_save hook and turns a veto into an error.
func checkSaveHook(ctx context.Context, mgr *scripting.Manager, out string) error {
	ret, err := mgr.CallHook(ctx, saveHook, lua.LString(out))
	if err != nil {
		return err
	}
	switch v := ret.(type) {
	case lua.LString:
		return fmt.Errorf("%s refused to save %s: %s", saveHook, out, string(v))
	case lua.LBool:
		if !bool(v) {
			return fmt.Errorf("%s refused to save %s", saveHook, out)
		}
	}
	return nil
}
