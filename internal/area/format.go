// Package area renders room graphs into game-specific text area files and
// moves native area data to and from disk.
package area

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/mudmapper/internal/mapper"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Format describes one templated output format. Templates contain %KEY%
// placeholders; see Fill.
type Format struct {
	Name          string `yaml:"name"`
	Label         string `yaml:"label"`
	FileExtension string `yaml:"file_extension"`
	// Encoding names the output charset; empty means UTF-8.
	Encoding string `yaml:"encoding"`

	Area   string `yaml:"area"`
	Room   string `yaml:"room"`
	Exit   string `yaml:"exit"`
	Extra  string `yaml:"extra"`
	Footer string `yaml:"footer"`

	AreaDefaults map[string]string `yaml:"area_defaults"`
	RoomDefaults map[string]string `yaml:"room_defaults"`
	ExitDefaults map[string]string `yaml:"exit_defaults"`

	// UniqueExitDirections emits at most one exit per output direction index.
	UniqueExitDirections bool `yaml:"unique_exit_directions"`
	// Directions maps a direction name to the index written for it. Exits in
	// unmapped directions are not written.
	Directions map[string]int `yaml:"directions"`
	// Sectors maps a sector name to the value written for it. Unmapped
	// sectors are written as their number.
	Sectors map[string]string `yaml:"sectors"`

	dirIndex map[mapper.Direction]int
}

// Validate checks that the format can render a room and that its direction
// table is usable, and resolves the table for rendering.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (f *Format) Validate() error {
	var errs []string
	if strings.TrimSpace(f.Name) == "" {
		errs = append(errs, "name must not be empty")
	}
	if f.Room == "" {
		errs = append(errs, "room template must not be empty")
	}
	if _, err := lookupCharmap(f.Encoding); err != nil {
		errs = append(errs, err.Error())
	}
	index := make(map[mapper.Direction]int, len(f.Directions))
	for name, i := range f.Directions {
		dir, err := mapper.ParseDirection(name)
		if err != nil {
			errs = append(errs, fmt.Sprintf("directions: %v", err))
			continue
		}
		if i < 0 {
			errs = append(errs, fmt.Sprintf("directions: %s has negative index %d", name, i))
			continue
		}
		index[dir] = i
	}
	for name := range f.Sectors {
		if _, err := mapper.ParseSector(name); err != nil {
			errs = append(errs, fmt.Sprintf("sectors: %v", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("format %q: %s", f.Name, strings.Join(errs, "; "))
	}
	f.dirIndex = index
	return nil
}

// DirectionIndex returns the index this format writes for dir.
func (f *Format) DirectionIndex(dir mapper.Direction) (int, bool) {
	i, ok := f.dirIndex[dir]
	return i, ok
}

// SectorValue returns the value this format writes for s.
func (f *Format) SectorValue(s mapper.Sector) string {
	if v, ok := f.Sectors[s.String()]; ok {
		return v
	}
	return fmt.Sprintf("%d", int(s))
}

// LoadFormatFromBytes parses and validates a format descriptor.
//
// Precondition: data must be valid YAML conforming to the format schema.
// Postcondition: Returns a validated Format or a non-nil error.
func LoadFormatFromBytes(data []byte) (*Format, error) {
	var f Format
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing format YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("validating format: %w", err)
	}
	return &f, nil
}

// LoadFormatFromFile reads and validates a single format descriptor.
func LoadFormatFromFile(path string) (*Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading format file %s: %w", path, err)
	}
	return LoadFormatFromBytes(data)
}

// LoadFormatsFromDir loads every YAML file in dir as a format.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all validated formats or the first error encountered.
func LoadFormatsFromDir(dir string) ([]*Format, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading format directory %s: %w", dir, err)
	}
	var formats []*Format
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		f, err := LoadFormatFromFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("loading format from %s: %w", entry.Name(), err)
		}
		formats = append(formats, f)
	}
	return formats, nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// Builtins returns the formats compiled into the binary.
func Builtins() ([]*Format, error) {
	var formats []*Format
	err := fs.WalkDir(builtinFS, "builtin", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isYAML(path) {
			return err
		}
		data, err := builtinFS.ReadFile(path)
		if err != nil {
			return err
		}
		f, err := LoadFormatFromBytes(data)
		if err != nil {
			return fmt.Errorf("builtin %s: %w", path, err)
		}
		formats = append(formats, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return formats, nil
}

// ErrUnknownFormat is returned when a format name is not registered.
var ErrUnknownFormat = errors.New("unknown format")

// Registry holds the formats available for export, keyed by name.
type Registry struct {
	formats map[string]*Format
}

// NewRegistry loads the built-in formats and, when dir is non-empty, every
// format in dir. Formats from dir replace built-ins of the same name.
//
// Postcondition: Returns a populated Registry or a non-nil error.
func NewRegistry(dir string) (*Registry, error) {
	builtins, err := Builtins()
	if err != nil {
		return nil, err
	}
	r := &Registry{formats: make(map[string]*Format)}
	for _, f := range builtins {
		r.Register(f)
	}
	if dir == "" {
		return r, nil
	}
	extra, err := LoadFormatsFromDir(dir)
	if err != nil {
		return nil, err
	}
	for _, f := range extra {
		r.Register(f)
	}
	return r, nil
}

// Register adds or replaces a format.
//
// Precondition: f must have passed Validate.
func (r *Registry) Register(f *Format) {
	r.formats[f.Name] = f
}

// Get returns the format with the given name.
func (r *Registry) Get(name string) (*Format, error) {
	f, ok := r.formats[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownFormat, name, strings.Join(r.Names(), ", "))
	}
	return f, nil
}

// Names returns the registered format names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
