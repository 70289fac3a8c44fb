package source

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/matzehuels/pagestack/pkg/errors"
)

// decodeText returns data as a UTF-8 string with "\n" line endings.
// A byte order mark selects UTF-8 or UTF-16; without one, valid UTF-8 is
// kept and anything else is read as Windows-1252.
func decodeText(data []byte) (string, error) {
	var fallback transform.Transformer = encoding.Nop.NewDecoder()
	if !utf8.Valid(data) {
		fallback = charmap.Windows1252.NewDecoder()
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), data)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "decode text")
	}
	s := strings.ReplaceAll(string(out), "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n"), nil
}

func convertText(data []byte) ([]byte, error) {
	s, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	ts := newTypesetter(pageA4, "Helvetica", 11)
	ts.text(s)
	return ts.bytes()
}
