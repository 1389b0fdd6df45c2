package qrrender

import (
	"fmt"
	"image"
	"image/color"

	lru "github.com/hashicorp/golang-lru/v2"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"
)

// Quality selects how a symbol is rasterized.
type Quality int

const (
	// Full rasterizes the vector document at the requested size.
	Full Quality = iota
	// Draft rasterizes at one pixel per module and scales up with nearest
	// neighbor. It still parses the full vector document.
	Draft
)

func (q Quality) String() string {
	if q == Draft {
		return "draft"
	}
	return "full"
}

// Request describes one symbol.
type Request struct {
	Content    string
	Foreground color.RGBA
	Background color.RGBA
	Size       int
	Quality    Quality
}

// Renderer renders QR symbols and memoizes the rasters. Returned images are
// shared and must not be modified.
type Renderer struct {
	enc   Encoder
	cache *lru.Cache[Request, image.Image]
	group singleflight.Group
}

// NewRenderer returns a renderer using enc, caching up to cacheSize rasters.
// A cacheSize below one disables caching.
func NewRenderer(enc Encoder, cacheSize int) (*Renderer, error) {
	r := &Renderer{enc: enc}
	if cacheSize > 0 {
		c, err := lru.New[Request, image.Image](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create render cache: %w", err)
		}
		r.cache = c
	}
	return r, nil
}

// Encoder returns the matrix encoder in use.
func (r *Renderer) Encoder() Encoder { return r.enc }

// Render returns the symbol for req as a Size x Size image.
func (r *Renderer) Render(req Request) (image.Image, error) {
	if req.Size <= 0 {
		return nil, fmt.Errorf("render qr: invalid size %d", req.Size)
	}
	if r.cache != nil {
		if img, ok := r.cache.Get(req); ok {
			return img, nil
		}
	}

	key := fmt.Sprintf("%q|%v|%v|%d|%d", req.Content, req.Foreground, req.Background, req.Size, req.Quality)
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		img, err := r.render(req)
		if err != nil {
			return nil, err
		}
		if r.cache != nil {
			r.cache.Add(req, img)
		}
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

func (r *Renderer) render(req Request) (image.Image, error) {
	m, err := r.enc.Encode(req.Content)
	if err != nil {
		return nil, err
	}
	doc := SVG(m, req.Foreground, req.Background, req.Size)

	if req.Quality != Draft {
		return Rasterize(doc, req.Size, req.Size)
	}

	small, err := Rasterize(doc, m.Size, m.Size)
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, req.Size, req.Size))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), small, small.Bounds(), xdraw.Src, nil)
	return dst, nil
}

// Vector returns the SVG document for content without rasterizing it.
func (r *Renderer) Vector(content string, fg, bg color.RGBA, size int) ([]byte, error) {
	m, err := r.enc.Encode(content)
	if err != nil {
		return nil, err
	}
	return SVG(m, fg, bg, size), nil
}
