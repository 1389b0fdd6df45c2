// Package ingest validates and decodes uploaded base images.
package ingest

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrInvalidAssetType is returned for uploads that are not images.
	ErrInvalidAssetType = errors.New("please upload a valid image file")
	// ErrAssetDecode is returned when an image cannot be decoded.
	ErrAssetDecode = errors.New("image could not be loaded")
	// ErrAssetTooLarge is returned for images whose pixel count exceeds the
	// limit. It is checked from the header, before any pixels are decoded.
	ErrAssetTooLarge = errors.New("image dimensions are too large")
)

// DefaultMaxPixels is the pixel limit used when Decode is given none.
const DefaultMaxPixels = 4096 * 4096

// maxSVGSide bounds the raster size of SVG uploads without a usable view box.
const maxSVGSide = 4096

// Asset is a decoded base image.
type Asset struct {
	Image     image.Image
	MediaType string
	raw       []byte
}

// Size returns the natural pixel size of the image.
func (a *Asset) Size() image.Point {
	return a.Image.Bounds().Size()
}

// DataURL returns the original upload as a data URL for the preview.
func (a *Asset) DataURL() string {
	return "data:" + a.MediaType + ";base64," + base64.StdEncoding.EncodeToString(a.raw)
}

// Decode sniffs data and decodes it into an Asset. declaredType is the media
// type the client claimed; it is only used when sniffing is inconclusive.
// Images with more than maxPixels pixels are refused with ErrAssetTooLarge;
// maxPixels <= 0 means DefaultMaxPixels.
func Decode(data []byte, declaredType string, maxPixels int64) (*Asset, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if len(data) == 0 {
		return nil, ErrInvalidAssetType
	}
	mediaType := mimetype.Detect(data).String()
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	if !strings.HasPrefix(mediaType, "image/") {
		// Detection falls back to text/plain or octet-stream for formats it
		// does not know; honour an image declaration in that case.
		declared := strings.ToLower(strings.TrimSpace(declaredType))
		generic := mediaType == "application/octet-stream" || mediaType == "text/plain"
		if !generic || !strings.HasPrefix(declared, "image/") {
			return nil, fmt.Errorf("%w: got %s", ErrInvalidAssetType, mediaType)
		}
		mediaType = declared
	}

	var (
		img image.Image
		err error
	)
	if mediaType == "image/svg+xml" {
		img, err = decodeSVG(data, maxPixels)
	} else {
		img, err = decodeRaster(data, maxPixels)
	}
	if errors.Is(err, ErrAssetTooLarge) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetDecode, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrAssetDecode)
	}
	return &Asset{Image: img, MediaType: mediaType, raw: data}, nil
}

func checkPixels(w, h int, maxPixels int64) error {
	if int64(w)*int64(h) > maxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrAssetTooLarge, w, h, maxPixels)
	}
	return nil
}

func decodeRaster(data []byte, maxPixels int64) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := checkPixels(cfg.Width, cfg.Height, maxPixels); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

func decodeSVG(data []byte, maxPixels int64) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, err
	}
	w := int(math.Ceil(icon.ViewBox.W))
	h := int(math.Ceil(icon.ViewBox.H))
	if w <= 0 || h <= 0 {
		return nil, errors.New("svg has no view box")
	}
	if w > maxSVGSide || h > maxSVGSide {
		scale := math.Min(float64(maxSVGSide)/float64(w), float64(maxSVGSide)/float64(h))
		w = max(int(float64(w)*scale), 1)
		h = max(int(float64(h)*scale), 1)
	}
	if err := checkPixels(w, h, maxPixels); err != nil {
		return nil, err
	}
	icon.SetTarget(0, 0, float64(w), float64(h))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return img, nil
}
