// Package qrrender draws QR symbols. Content is encoded at the highest error
// correction level into a module matrix, the matrix becomes a small SVG
// document, and the document is rasterized at the requested pixel size.
package qrrender

import (
	"errors"
	"fmt"
	"strings"

	skipqr "github.com/skip2/go-qrcode"
	yqr "github.com/yeqown/go-qrcode/v2"
)

// ErrEmptyContent is returned when there is nothing to encode.
var ErrEmptyContent = errors.New("qr content is empty")

// Matrix is a square grid of modules without a quiet zone.
type Matrix struct {
	Size int
	dark []bool
}

func newMatrix(size int) *Matrix {
	return &Matrix{Size: size, dark: make([]bool, size*size)}
}

// Dark reports whether the module at (x, y) is set.
func (m *Matrix) Dark(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Size || y >= m.Size {
		return false
	}
	return m.dark[y*m.Size+x]
}

func (m *Matrix) set(x, y int) {
	if x >= 0 && y >= 0 && x < m.Size && y < m.Size {
		m.dark[y*m.Size+x] = true
	}
}

// Encoder turns content into a module matrix at error correction level H.
type Encoder interface {
	Encode(content string) (*Matrix, error)
	Name() string
}

// NewEncoder returns the encoder registered under name. An empty name selects
// the default yeqown encoder.
func NewEncoder(name string) (Encoder, error) {
	switch strings.ToLower(name) {
	case "", "yeqown":
		return YeqownEncoder{}, nil
	case "skip2":
		return Skip2Encoder{}, nil
	}
	return nil, fmt.Errorf("unknown qr encoder %q", name)
}

// YeqownEncoder encodes with github.com/yeqown/go-qrcode/v2.
type YeqownEncoder struct{}

func (YeqownEncoder) Name() string { return "yeqown" }

func (YeqownEncoder) Encode(content string) (*Matrix, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	qrc, err := yqr.NewWith(content, yqr.WithErrorCorrectionLevel(yqr.ErrorCorrectionHighest))
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	var w matrixWriter
	if err := qrc.Save(&w); err != nil {
		return nil, fmt.Errorf("read qr matrix: %w", err)
	}
	if w.m == nil {
		return nil, errors.New("read qr matrix: writer received no matrix")
	}
	return w.m, nil
}

// matrixWriter is a yqr.Writer that keeps the module grid instead of drawing it.
type matrixWriter struct {
	m *Matrix
}

func (w *matrixWriter) Write(mat yqr.Matrix) error {
	w.m = newMatrix(mat.Width())
	mat.Iterate(yqr.IterDirection_ROW, func(x, y int, v yqr.QRValue) {
		if v.IsSet() {
			w.m.set(x, y)
		}
	})
	return nil
}

func (w *matrixWriter) Close() error { return nil }

// Skip2Encoder encodes with github.com/skip2/go-qrcode.
type Skip2Encoder struct{}

func (Skip2Encoder) Name() string { return "skip2" }

func (Skip2Encoder) Encode(content string) (*Matrix, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	q, err := skipqr.New(content, skipqr.Highest)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	q.DisableBorder = true
	bitmap := q.Bitmap()
	m := newMatrix(len(bitmap))
	for y, row := range bitmap {
		for x, dark := range row {
			if dark {
				m.set(x, y)
			}
		}
	}
	return m, nil
}
