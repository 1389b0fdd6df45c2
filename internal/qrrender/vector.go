package qrrender

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// SVG builds a vector document for m. The view box is measured in modules and
// the document declares size x size pixels. Dark modules are merged into one
// rect per horizontal run.
func SVG(m *Matrix, fg, bg color.RGBA, size int) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`,
		m.Size, m.Size, size, size)

	if bg.A > 0 {
		fmt.Fprintf(&b, `<rect x="0" y="0" width="%d" height="%d" %s/>`, m.Size, m.Size, fillAttrs(bg))
	}

	fill := fillAttrs(fg)
	for y := 0; y < m.Size; y++ {
		for x := 0; x < m.Size; {
			if !m.Dark(x, y) {
				x++
				continue
			}
			start := x
			for x < m.Size && m.Dark(x, y) {
				x++
			}
			fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="1" %s/>`, start, y, x-start, fill)
		}
	}

	b.WriteString(`</svg>`)
	return []byte(b.String())
}

func fillAttrs(c color.RGBA) string {
	if c.A == 0xFF {
		return fmt.Sprintf(`fill="#%02x%02x%02x"`, c.R, c.G, c.B)
	}
	return fmt.Sprintf(`fill="#%02x%02x%02x" fill-opacity="%.4f"`, c.R, c.G, c.B, float64(c.A)/255)
}

// Rasterize draws an SVG document into a w x h RGBA image.
func Rasterize(doc []byte, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("rasterize: invalid size %dx%d", w, h)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(doc), oksvg.StrictErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}
