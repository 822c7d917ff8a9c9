// Package config provides Viper-based configuration loading for the map editor.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/mudmapper/internal/mapper"
)

// AreaConfig holds the defaults for a new area.
type AreaConfig struct {
	// Name is the area title written to export headers.
	Name string `mapstructure:"name"`
	// Filename is the target file name written to export headers.
	Filename string `mapstructure:"filename"`
	// VnumMin and VnumMax bound the identifier pool of a new area.
	VnumMin int `mapstructure:"vnum_min"`
	VnumMax int `mapstructure:"vnum_max"`
}

// EditorConfig holds editing behavior settings.
type EditorConfig struct {
	// HistoryDepth is the number of undo snapshots kept.
	HistoryDepth int `mapstructure:"history_depth"`
	// DefaultColor is applied to new rooms, as "#rrggbb".
	DefaultColor string `mapstructure:"default_color"`
	// DefaultSector is the sector name applied to new rooms.
	DefaultSector string `mapstructure:"default_sector"`
}

// FormatsConfig selects the templated export formats.
type FormatsConfig struct {
	// Dir is an optional directory of extra format descriptors.
	Dir string `mapstructure:"dir"`
	// Default is the format used when none is requested.
	Default string `mapstructure:"default"`
}

// ScriptingConfig holds Lua scripting settings.
type ScriptingConfig struct {
	// InstructionLimit caps the VM instructions a single script may execute.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Area      AreaConfig      `mapstructure:"area"`
	Editor    EditorConfig    `mapstructure:"editor"`
	Formats   FormatsConfig   `mapstructure:"formats"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// SessionOptions builds editor session options from the area and editor
// settings.
//
// Precondition: c must have passed Validate.
func (c Config) SessionOptions() mapper.Options {
	sector, _ := mapper.ParseSector(c.Editor.DefaultSector)
	return mapper.Options{
		AreaName:      c.Area.Name,
		Filename:      c.Area.Filename,
		VnumMin:       c.Area.VnumMin,
		VnumMax:       c.Area.VnumMax,
		HistoryDepth:  c.Editor.HistoryDepth,
		DefaultColor:  c.Editor.DefaultColor,
		DefaultSector: sector,
	}
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateArea(c.Area); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEditor(c.Editor); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateFormats(c.Formats); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripting(c.Scripting); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateArea(a AreaConfig) error {
	var errs []string
	if a.VnumMin < 0 {
		errs = append(errs, fmt.Sprintf("area.vnum_min must be >= 0, got %d", a.VnumMin))
	}
	if a.VnumMax < a.VnumMin {
		errs = append(errs, fmt.Sprintf("area.vnum_max must be >= area.vnum_min, got %d < %d", a.VnumMax, a.VnumMin))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func validateEditor(e EditorConfig) error {
	var errs []string
	if e.HistoryDepth < 2 {
		errs = append(errs, fmt.Sprintf("editor.history_depth must be >= 2, got %d", e.HistoryDepth))
	}
	if !colorPattern.MatchString(e.DefaultColor) {
		errs = append(errs, fmt.Sprintf("editor.default_color must be #rrggbb, got %q", e.DefaultColor))
	}
	if _, err := mapper.ParseSector(e.DefaultSector); err != nil {
		errs = append(errs, fmt.Sprintf("editor.default_sector: %v", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateFormats(f FormatsConfig) error {
	if f.Default == "" {
		return errors.New("formats.default must not be empty")
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 1 {
		return fmt.Errorf("scripting.instruction_limit must be >= 1, got %d", s.InstructionLimit)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Precondition: path must be empty or name a readable YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with MAPPER_ prefix
	v.SetEnvPrefix("MAPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("area.name", "New Area")
	v.SetDefault("area.filename", "newarea.are")
	v.SetDefault("area.vnum_min", 100)
	v.SetDefault("area.vnum_max", 199)

	v.SetDefault("editor.history_depth", mapper.DefaultHistoryDepth)
	v.SetDefault("editor.default_color", "#808080")
	v.SetDefault("editor.default_sector", "inside")

	v.SetDefault("formats.dir", "")
	v.SetDefault("formats.default", "rom")

	v.SetDefault("scripting.instruction_limit", 1_000_000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}
