package area

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"pgregory.net/rapid"
)

func TestFill(t *testing.T) {
	got := Fill("#%VNUM%\n%NAME%~ %MISSING%|%lower%", map[string]string{
		"VNUM": "100",
		"NAME": "Hall %VNUM%",
	})
	assert.Equal(t, "#100\nHall %VNUM%~ |%lower%", got)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"A", "B_2"}, Placeholders("%A% %B_2% %A% %c%"))
	assert.Empty(t, Placeholders("no tokens"))
}

func TestMergeLaterLayerWins(t *testing.T) {
	got := Merge(map[string]string{"A": "1", "B": "1"}, nil, map[string]string{"B": "2"})
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, got)
}

func TestPropertyFillLeavesNoPlaceholders(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOfN(rapid.StringMatching(`[A-Z][A-Z0-9_]{0,6}`), 0, 6).Draw(t, "keys")
		values := map[string]string{}
		tmpl := ""
		for i, k := range keys {
			tmpl += "<%" + k + "%>"
			if i%2 == 0 {
				values[k] = rapid.StringMatching(`[a-z ]{0,8}`).Draw(t, "value")
			}
		}
		out := Fill(tmpl, values)
		if left := Placeholders(out); len(left) != 0 {
			t.Fatalf("placeholders %v survived in %q", left, out)
		}
	})
}

func TestEncode(t *testing.T) {
	out, err := Encode("", []byte("café"))
	require.NoError(t, err)
	assert.Equal(t, "café", string(out))

	out, err = Encode("ISO-8859-1", []byte("café"))
	require.NoError(t, err)
	assert.Equal(t, []byte{'c', 'a', 'f', 0xe9}, out)

	out, err = Encode("cp437", []byte("é"))
	require.NoError(t, err)
	want, ok := charmap.CodePage437.EncodeRune('é')
	require.True(t, ok)
	assert.Equal(t, []byte{want}, out)

	out, err = Encode("latin1", []byte("日"))
	require.NoError(t, err)
	assert.Len(t, out, 1, "unrepresentable rune is substituted")

	_, err = Encode("ebcdic", []byte("x"))
	assert.Error(t, err)
}
