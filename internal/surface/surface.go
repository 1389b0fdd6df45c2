// Package surface describes the composite surface: the rectangle the base
// image occupies on screen, which every placement percentage is relative to.
package surface

import (
	"image"
	"math"

	"github.com/cristianadrielbraun/posterqr/internal/placement"
)

// Surface is the displayed size of the base image in pixels.
type Surface struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Viewport bounds the displayed surface. Zero fields mean unbounded.
type Viewport struct {
	MaxWidth  int `json:"maxWidth"`
	MaxHeight int `json:"maxHeight"`
}

// Empty reports whether the surface has no area.
func (s Surface) Empty() bool { return s.Width <= 0 || s.Height <= 0 }

// Fit scales the natural image size down to fit the viewport while keeping the
// aspect ratio. Images are never scaled up.
func Fit(natural image.Point, vp Viewport) Surface {
	if natural.X <= 0 || natural.Y <= 0 {
		return Surface{}
	}
	scale := 1.0
	if vp.MaxWidth > 0 && natural.X > vp.MaxWidth {
		scale = math.Min(scale, float64(vp.MaxWidth)/float64(natural.X))
	}
	if vp.MaxHeight > 0 && natural.Y > vp.MaxHeight {
		scale = math.Min(scale, float64(vp.MaxHeight)/float64(natural.Y))
	}
	w := int(math.Round(float64(natural.X) * scale))
	h := int(math.Round(float64(natural.Y) * scale))
	return Surface{Width: max(w, 1), Height: max(h, 1)}
}

// Scaled returns the surface dimensions multiplied by density.
func (s Surface) Scaled(density float64) image.Point {
	return image.Pt(
		int(math.Round(float64(s.Width)*density)),
		int(math.Round(float64(s.Height)*density)),
	)
}

// Display-pixel constants of the overlay chrome.
const (
	OverlayPadding = 8.0
	HandleRadius   = 6.0
)

// Box is the overlay square in output pixels. Min may be negative and Max may
// exceed the surface; callers clip.
type Box struct {
	Rect    image.Rectangle
	Padding int
}

// Inner is the area the QR symbol occupies inside the padding.
func (b Box) Inner() image.Rectangle {
	return b.Rect.Inset(b.Padding)
}

// Overlay places the QR overlay for st on s, scaled by density. The side is
// Size percent of the surface width and the center sits at (X%, Y%).
func Overlay(s Surface, st placement.State, density float64) Box {
	w := float64(s.Width) * density
	h := float64(s.Height) * density
	side := st.Size / 100 * w
	cx := st.X / 100 * w
	cy := st.Y / 100 * h

	x0 := int(math.Round(cx - side/2))
	y0 := int(math.Round(cy - side/2))
	n := int(math.Round(side))

	pad := int(math.Round(OverlayPadding * density))
	if limit := n / 4; pad > limit {
		pad = limit
	}
	return Box{Rect: image.Rect(x0, y0, x0+n, y0+n), Padding: pad}
}

// Handle returns the center and radius of the resize handle in output pixels.
func Handle(b Box, density float64) (cx, cy, r float64) {
	return float64(b.Rect.Max.X), float64(b.Rect.Max.Y), HandleRadius * density
}
