package area

import (
	"fmt"
	"maps"
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var placeholder = regexp.MustCompile(`%([A-Z0-9_]+)%`)

// Fill substitutes every %KEY% placeholder in tmpl with values[KEY]. A
// placeholder with no value becomes the empty string. Substituted text is
// never rescanned.
func Fill(tmpl string, values map[string]string) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(tok string) string {
		return values[tok[1:len(tok)-1]]
	})
}

// Placeholders returns the distinct placeholder keys in tmpl in order of
// first appearance.
func Placeholders(tmpl string) []string {
	var keys []string
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}

// Merge layers value maps; later maps win.
func Merge(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}

var charmaps = map[string]*charmap.Charmap{
	"cp437":       charmap.CodePage437,
	"ibm437":      charmap.CodePage437,
	"cp850":       charmap.CodePage850,
	"iso88591":    charmap.ISO8859_1,
	"latin1":      charmap.ISO8859_1,
	"iso885915":   charmap.ISO8859_15,
	"windows1252": charmap.Windows1252,
	"cp1252":      charmap.Windows1252,
	"koi8r":       charmap.KOI8R,
	"macintosh":   charmap.Macintosh,
	"windows1251": charmap.Windows1251,
	"iso88592":    charmap.ISO8859_2,
	"windows1250": charmap.Windows1250,
	"iso88595":    charmap.ISO8859_5,
	"iso88597":    charmap.ISO8859_7,
	"iso88599":    charmap.ISO8859_9,
	"windows1253": charmap.Windows1253,
	"windows1254": charmap.Windows1254,
}

func normalizeCharset(name string) string {
	r := strings.NewReplacer("-", "", "_", "", " ", "")
	return strings.ToLower(r.Replace(name))
}

// lookupCharmap resolves an encoding name. A nil charmap means UTF-8.
func lookupCharmap(name string) (*charmap.Charmap, error) {
	key := normalizeCharset(name)
	if key == "" || key == "utf8" {
		return nil, nil
	}
	cm, ok := charmaps[key]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return cm, nil
}

// Encode converts UTF-8 text to the named charset. Runes the charset cannot
// represent are replaced with its substitution byte.
func Encode(name string, text []byte) ([]byte, error) {
	cm, err := lookupCharmap(name)
	if err != nil {
		return nil, err
	}
	if cm == nil {
		return text, nil
	}
	out, err := encoding.ReplaceUnsupported(cm.NewEncoder()).Bytes(text)
	if err != nil {
		return nil, fmt.Errorf("encoding output as %s: %w", name, err)
	}
	return out, nil
}
