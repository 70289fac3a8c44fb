package errors

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
)

// ValidateFilename validates an uploaded document name for safety.
// It rejects names that could be used for path traversal once the name is
// used to derive the output file name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 255 characters
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidFilename, "filename cannot be empty")
	}

	if len(name) > 255 {
		return New(ErrCodeInvalidFilename, "filename too long (max 255 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidFilename, "filename contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidFilename, "filename cannot contain path separators")
	}

	if name == "." || name == ".." || strings.Contains(name, "..") {
		return New(ErrCodeInvalidFilename, "filename cannot contain path traversal sequences (..)")
	}

	if strings.TrimSuffix(name, filepath.Ext(name)) == "" {
		return New(ErrCodeInvalidFilename, "filename must have a name before the extension")
	}

	return nil
}

// ValidateLabelTemplate checks a page label template.
// A template is printed verbatim with every "{n}" replaced by the 1-based
// page number; it must contain the placeholder at least once and must not
// contain line breaks. Labels are drawn with the core PDF fonts, so every
// character must exist in Windows-1252.
func ValidateLabelTemplate(tmpl string) error {
	if tmpl == "" {
		return New(ErrCodeInvalidLabel, "label template cannot be empty")
	}
	if !strings.Contains(tmpl, "{n}") {
		return New(ErrCodeInvalidLabel, "label template %q must contain {n}", tmpl)
	}
	if strings.ContainsAny(tmpl, "\r\n") {
		return New(ErrCodeInvalidLabel, "label template cannot contain line breaks")
	}
	for _, r := range tmpl {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			return New(ErrCodeInvalidLabel, "label template character %q is not supported by the label fonts", r)
		}
	}
	return nil
}
