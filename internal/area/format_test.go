package area

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/mudmapper/internal/mapper"
)

const customFormat = `
name: tiny
label: Tiny
file_extension: txt
room: "%VNUM% %NAME% [%EXITS%]\n"
exit: "%DIR_NAME%=%TO_VNUM%;"
directions:
  north: 1
  south: 2
  up: 3
  down: 3
sectors:
  city: CITY
`

func TestBuiltins(t *testing.T) {
	formats, err := Builtins()
	require.NoError(t, err)
	names := map[string]*Format{}
	for _, f := range formats {
		names[f.Name] = f
	}
	require.Contains(t, names, "rom")
	require.Contains(t, names, "aw")

	rom := names["rom"]
	assert.Equal(t, ".are", rom.FileExtension)
	i, ok := rom.DirectionIndex(mapper.Southwest)
	assert.True(t, ok)
	assert.Equal(t, 9, i)

	aw := names["aw"]
	i, ok = aw.DirectionIndex(mapper.East)
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	assert.Equal(t, "2", aw.SectorValue(mapper.SectorDesert))
}

func TestLoadFormatFromBytes(t *testing.T) {
	f, err := LoadFormatFromBytes([]byte(customFormat))
	require.NoError(t, err)
	assert.Equal(t, "tiny", f.Name)
	_, ok := f.DirectionIndex(mapper.East)
	assert.False(t, ok)
	assert.Equal(t, "CITY", f.SectorValue(mapper.SectorCity))
	assert.Equal(t, "3", f.SectorValue(mapper.SectorForest))
}

func TestLoadFormatFromBytes_Invalid(t *testing.T) {
	tests := map[string]string{
		"no name":       "room: x\n",
		"no room":       "name: a\n",
		"bad direction": "name: a\nroom: x\ndirections:\n  sideways: 1\n",
		"negative":      "name: a\nroom: x\ndirections:\n  north: -1\n",
		"bad sector":    "name: a\nroom: x\nsectors:\n  swamp: \"1\"\n",
		"bad encoding":  "name: a\nroom: x\nencoding: ebcdic\n",
		"not yaml":      "name: [\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFormatFromBytes([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestNewRegistry_DirectoryOverridesBuiltins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.yaml"), []byte(customFormat), 0o644))
	override := "name: rom\nlabel: Custom ROM\nroom: \"%VNUM%\\n\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rom.yml"), []byte(override), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	reg, err := NewRegistry(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"aw", "rom", "tiny"}, reg.Names())

	rom, err := reg.Get("rom")
	require.NoError(t, err)
	assert.Equal(t, "Custom ROM", rom.Label)

	_, err = reg.Get("smaug")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestNewRegistry_BadDirectory(t *testing.T) {
	_, err := NewRegistry(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: x\n"), 0o644))
	_, err = NewRegistry(dir)
	assert.Error(t, err)
}
