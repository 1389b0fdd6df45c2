package placement

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Transparent is returned by ParseColor for the "transparent" keyword.
var Transparent = color.RGBA{0, 0, 0, 0}

// ParseColor parses "#RRGGBB", "#RRGGBBAA" (with or without the leading #) or
// the keyword "transparent".
func ParseColor(s string) (color.RGBA, error) {
	v := strings.TrimSpace(s)
	if strings.EqualFold(v, "transparent") {
		return Transparent, nil
	}
	v = strings.TrimPrefix(v, "#")
	if len(v) != 6 && len(v) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: expected #RRGGBB or #RRGGBBAA", s)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(v) == 6 {
		return color.RGBA{uint8(n >> 16), uint8(n >> 8), uint8(n), 0xFF}, nil
	}
	return color.RGBA{uint8(n >> 24), uint8(n >> 16), uint8(n >> 8), uint8(n)}, nil
}

// ParseColorOr is ParseColor with a fallback for empty or malformed input.
func ParseColorOr(s string, fallback color.RGBA) color.RGBA {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

// FormatColor renders c as #RRGGBB, or #RRGGBBAA when it is not opaque.
func FormatColor(c color.RGBA) string {
	if c.A == 0xFF {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}
