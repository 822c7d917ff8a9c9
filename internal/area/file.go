package area

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"

	"github.com/cory-johannsen/mudmapper/internal/mapper"
)

// ReadAreaFile reads and decodes a native area file.
//
// Postcondition: Returns the decoded file or a non-nil error naming path.
func ReadAreaFile(path string) (mapper.AreaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mapper.AreaFile{}, oops.With("path", path).Wrapf(err, "read area file %s", path)
	}
	file, err := mapper.DecodeAreaFile(data)
	if err != nil {
		return mapper.AreaFile{}, oops.With("path", path).Wrapf(err, "decode area file %s", path)
	}
	return file, nil
}

// LoadSession reads a native area file into s, replacing its map.
func LoadSession(s *mapper.Session, path string) (mapper.ImportReport, error) {
	file, err := ReadAreaFile(path)
	if err != nil {
		return mapper.ImportReport{}, err
	}
	report, err := s.Import(file)
	if err != nil {
		return mapper.ImportReport{}, oops.With("path", path).Wrapf(err, "import area file %s", path)
	}
	return report, nil
}

// WriteAreaFile writes the session's map to path in native JSON form.
func WriteAreaFile(s *mapper.Session, path string) error {
	data, err := s.ExportJSON()
	if err != nil {
		return oops.Wrapf(err, "export area %s", s.AreaInfo().AreaName)
	}
	return writeFile(path, data)
}

// WriteFormatted writes a rendered export to path.
func WriteFormatted(path string, r *Rendered) error {
	return writeFile(path, r.Data)
}

// OutputPath swaps the extension of path for the format's file extension.
func OutputPath(path string, f *Format) string {
	ext := f.FileExtension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return oops.With("path", path).Wrapf(err, "create directory %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return oops.With("path", path).Wrapf(err, "write %s", path)
	}
	return nil
}
