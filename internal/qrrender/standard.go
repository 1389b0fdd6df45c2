package qrrender

import (
	"bytes"
	"fmt"
	"image/color"

	yqr "github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// PNGOptions configures a standalone symbol drawn by the yeqown standard writer.
type PNGOptions struct {
	Foreground  color.RGBA
	Background  color.RGBA
	ModuleWidth uint8
	Border      int
}

// StandalonePNG encodes content and draws it with the standard writer. A fully
// transparent background yields a transparent PNG.
func StandalonePNG(content string, opts PNGOptions) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	qrc, err := yqr.NewWith(content, yqr.WithErrorCorrectionLevel(yqr.ErrorCorrectionHighest))
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	width := opts.ModuleWidth
	if width == 0 {
		width = 16
	}
	imgOpts := []standard.ImageOption{
		standard.WithQRWidth(width),
		standard.WithBorderWidth(opts.Border),
		standard.WithFgColor(opts.Foreground),
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
	}
	if opts.Background.A == 0 {
		imgOpts = append(imgOpts, standard.WithBgTransparent())
	} else {
		imgOpts = append(imgOpts, standard.WithBgColor(opts.Background))
	}

	var buf bytes.Buffer
	w := standard.NewWithWriter(nopCloser{&buf}, imgOpts...)
	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("draw qr: %w", err)
	}
	return buf.Bytes(), nil
}

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }
