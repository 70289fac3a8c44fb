package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/matzehuels/pagestack/pkg/errors"
)

// Format is an output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatPNG  Format = "png"
	FormatJSON Format = "json"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatPDF, FormatPNG, FormatJSON}

// ParseFormat parses a format name, ignoring case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatPDF, FormatPNG, FormatJSON:
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q (valid: pdf, png, json)", s)
}

// ParseFormats parses a list of format names, dropping duplicates.
func ParseFormats(names []string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			f, err := ParseFormat(part)
			if err != nil {
				return nil, err
			}
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out, nil
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string { return "." + string(f) }

// ContentType returns the MIME type of documents in this format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// Core PDF font families usable for labels.
var fontFamilies = map[string]string{
	"helvetica": "Helvetica",
	"arial":     "Helvetica",
	"times":     "Times",
	"courier":   "Courier",
}

// LabelStyle describes how page-number labels are drawn.
type LabelStyle struct {
	Font  string     // core PDF font family: Helvetica, Times or Courier
	Size  float64    // font size in points
	Color color.RGBA // text color
}

// DefaultLabelStyle returns black 12 pt Helvetica.
func DefaultLabelStyle() LabelStyle {
	return LabelStyle{Font: "Helvetica", Size: 12, Color: color.RGBA{A: 255}}
}

// Validate checks the style and normalizes the font name.
func (s LabelStyle) Validate() (LabelStyle, error) {
	family, ok := fontFamilies[strings.ToLower(s.Font)]
	if !ok {
		return s, errors.New(errors.ErrCodeInvalidLabel, "unknown label font %q (valid: helvetica, times, courier)", s.Font)
	}
	s.Font = family
	if !(s.Size > 0 && s.Size <= 200) {
		return s, errors.New(errors.ErrCodeInvalidLabel, "label font size must be in (0, 200], got %v", s.Size)
	}
	return s, nil
}

// WithColor returns a copy of s with the color parsed from hex.
func (s LabelStyle) WithColor(hex string) (LabelStyle, error) {
	c, err := ParseColor(hex)
	if err != nil {
		return s, err
	}
	s.Color = c
	return s, nil
}

// ParseColor parses "#rrggbb" or "#rgb" into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, errors.New(errors.ErrCodeInvalidColor, "color %q must look like #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, errors.New(errors.ErrCodeInvalidColor, "color %q is not hexadecimal", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// HexColor formats c as "#rrggbb".
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
