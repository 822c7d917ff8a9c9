package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/mudmapper/internal/area"
)

var (
	convertFormat string
	convertOut    string
	convertVars   []string
)

var convertCmd = &cobra.Command{
	Use:   "convert <area.json>",
	Short: "Export an area file to a templated format",
	Long: `Load a native area file and render it with one of the registered export
formats. The output path defaults to the input path with the format's file
extension. Template variables given with --var override the format defaults.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "", "export format name (default from config)")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "output path")
	convertCmd.Flags().StringArrayVar(&convertVars, "var", nil, "template variable as KEY=VALUE (repeatable)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	vars, err := parseVars(convertVars)
	if err != nil {
		return err
	}
	registry, f, err := resolveFormat(convertFormat)
	if err != nil {
		return err
	}
	out := convertOut
	if out == "" {
		out = area.OutputPath(args[0], f)
	}
	rendered, err := convertFile(registry, f, args[0], out, vars)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d rooms, %d exits", out, rendered.Rooms, rendered.Exits)
	if n := len(rendered.Dropped); n > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), ", %d exits not representable in %s", n, f.Name)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

// resolveFormat loads the format registry and looks up name, falling back to
// the configured default.
func resolveFormat(name string) (*area.Registry, *area.Format, error) {
	registry, err := area.NewRegistry(cfg.Formats.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading formats: %w", err)
	}
	if name == "" {
		name = cfg.Formats.Default
	}
	f, err := registry.Get(name)
	if err != nil {
		return nil, nil, err
	}
	return registry, f, nil
}

// convertFile loads the native area at in and writes its rendering to out.
func convertFile(registry *area.Registry, f *area.Format, in, out string, vars map[string]string) (*area.Rendered, error) {
	s, err := newSession()
	if err != nil {
		return nil, err
	}
	if _, err := area.LoadSession(s, in); err != nil {
		return nil, err
	}
	rendered, err := area.NewExporter(registry, logger).Export(s, f.Name, vars)
	if err != nil {
		return nil, err
	}
	if err := area.WriteFormatted(out, rendered); err != nil {
		return nil, err
	}
	return rendered, nil
}

// parseVars turns KEY=VALUE pairs into a template variable map.
func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, found := strings.Cut(p, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --var %q: want KEY=VALUE", p)
		}
		vars[strings.ToUpper(key)] = value
	}
	return vars, nil
}
