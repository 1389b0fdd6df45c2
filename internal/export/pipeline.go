// Package export renders the composite surface into a single high density
// raster and hands the encoded bytes to a delivery target.
//
// An export runs two passes. The warmup pass renders a cheap draft at density
// one and throws it away; its job is to resolve every asset the capture needs
// (base image pixels, QR encoding, the parsed vector symbol) so that a failure
// surfaces before the real capture starts. The capture pass then renders at
// full quality and the configured density.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/cristianadrielbraun/posterqr/internal/placement"
	"github.com/cristianadrielbraun/posterqr/internal/qrrender"
	"github.com/cristianadrielbraun/posterqr/internal/surface"
)

var (
	// ErrExportFailed wraps any failure of either pass or of encoding.
	ErrExportFailed = errors.New("failed to generate image")
	// ErrExportInFlight is returned when an export is triggered while another
	// one is still running. Nothing is rendered or delivered.
	ErrExportInFlight = errors.New("export already in progress")
)

// Defaults for Options.
const (
	DefaultDensity  = 3.0
	DefaultFilename = "poster-qr.png"
)

// DefaultBackground fills the canvas under the base image.
var DefaultBackground = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}

// Scene is everything a pass draws: the base image, the surface it is
// displayed at and the placement of the QR overlay.
type Scene struct {
	Base    image.Image
	Surface surface.Surface
	State   placement.State
}

// Source snapshots the scene. It is called once per pass.
type Source interface {
	Snapshot() (Scene, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (Scene, error)

func (f SourceFunc) Snapshot() (Scene, error) { return f() }

// Delivery hands finished bytes to the user, e.g. as a download.
type Delivery interface {
	Deliver(filename string, data []byte)
}

// DeliveryFunc adapts a function to Delivery.
type DeliveryFunc func(filename string, data []byte)

func (f DeliveryFunc) Deliver(filename string, data []byte) { f(filename, data) }

// Observer receives pass timings and export outcomes.
type Observer interface {
	ObservePass(pass string, d time.Duration, err error)
	ObserveExport(result string)
}

// Options configures a Pipeline.
type Options struct {
	Density    float64
	Background color.RGBA
	Filename   string
	Observer   Observer
	Logger     *zap.Logger
}

// Pipeline runs exports for one editing session. At most one export is in
// flight at a time.
type Pipeline struct {
	renderer *qrrender.Renderer
	opts     Options
	busy     atomic.Bool
}

// New returns a pipeline drawing QR symbols with renderer.
func New(renderer *qrrender.Renderer, opts Options) *Pipeline {
	if opts.Density <= 0 {
		opts.Density = DefaultDensity
	}
	if opts.Filename == "" {
		opts.Filename = DefaultFilename
	}
	if opts.Background == (color.RGBA{}) {
		opts.Background = DefaultBackground
	}
	// The fill exists to remove transparency, so it is always opaque.
	opts.Background.A = 0xFF
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pipeline{renderer: renderer, opts: opts}
}

// Busy reports whether an export is in flight.
func (p *Pipeline) Busy() bool { return p.busy.Load() }

// Density returns the output density multiplier.
func (p *Pipeline) Density() float64 { return p.opts.Density }

// Filename returns the name exports are delivered under.
func (p *Pipeline) Filename() string { return p.opts.Filename }

type pass struct {
	name    string
	density float64
	filter  imaging.ResampleFilter
	quality qrrender.Quality
	level   png.CompressionLevel
}

// Run exports the scene from src and delivers it to dst. A call made while
// another export is running returns ErrExportInFlight without side effects.
// On failure nothing is delivered and the pipeline is immediately ready again.
func (p *Pipeline) Run(ctx context.Context, src Source, dst Delivery) error {
	if !p.busy.CompareAndSwap(false, true) {
		p.observeExport("busy")
		return ErrExportInFlight
	}
	defer p.busy.Store(false)

	warmup := pass{name: "warmup", density: 1, filter: imaging.NearestNeighbor, quality: qrrender.Draft, level: png.BestSpeed}
	if _, err := p.runPass(ctx, src, warmup); err != nil {
		return p.fail(err)
	}

	capture := pass{name: "capture", density: p.opts.Density, filter: imaging.Lanczos, quality: qrrender.Full, level: png.DefaultCompression}
	data, err := p.runPass(ctx, src, capture)
	if err != nil {
		return p.fail(err)
	}

	dst.Deliver(p.opts.Filename, data)
	p.observeExport("success")
	p.opts.Logger.Info("export delivered",
		zap.String("filename", p.opts.Filename),
		zap.Int("bytes", len(data)),
	)
	return nil
}

func (p *Pipeline) runPass(ctx context.Context, src Source, ps pass) (data []byte, err error) {
	start := time.Now()
	defer func() {
		if p.opts.Observer != nil {
			p.opts.Observer.ObservePass(ps.name, time.Since(start), err)
		}
		p.opts.Logger.Debug("export pass finished",
			zap.String("pass", ps.name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
	}()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s pass: %w", ps.name, err)
	}
	scene, err := src.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("%s pass: snapshot: %w", ps.name, err)
	}
	img, err := p.compose(scene, ps)
	if err != nil {
		return nil, fmt.Errorf("%s pass: %w", ps.name, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(ps.level)); err != nil {
		return nil, fmt.Errorf("%s pass: encode png: %w", ps.name, err)
	}
	return buf.Bytes(), nil
}

func (p *Pipeline) fail(err error) error {
	p.observeExport("failure")
	p.opts.Logger.Warn("export failed", zap.Error(err))
	return fmt.Errorf("%w: %w", ErrExportFailed, err)
}

func (p *Pipeline) observeExport(result string) {
	if p.opts.Observer != nil {
		p.opts.Observer.ObserveExport(result)
	}
}

// compose draws the base image and the QR overlay without any interactive
// affordances.
func (p *Pipeline) compose(sc Scene, ps pass) (*image.NRGBA, error) {
	if sc.Base == nil {
		return nil, errors.New("no base image")
	}
	if sc.Surface.Empty() {
		return nil, errors.New("empty surface")
	}
	size := sc.Surface.Scaled(ps.density)

	canvas := imaging.New(size.X, size.Y, p.opts.Background)
	base := imaging.Resize(sc.Base, size.X, size.Y, ps.filter)
	canvas = imaging.Overlay(canvas, base, image.Point{}, 1.0)

	tile, err := p.overlayTile(sc, ps)
	if err != nil {
		return nil, err
	}
	if tile != nil {
		box := surface.Overlay(sc.Surface, sc.State, ps.density)
		canvas = imaging.Overlay(canvas, tile, box.Rect.Min, 1.0)
	}
	return canvas, nil
}

// overlayTile renders the padded QR square. It returns nil when the overlay
// rounds to nothing at this density.
func (p *Pipeline) overlayTile(sc Scene, ps pass) (*image.NRGBA, error) {
	box := surface.Overlay(sc.Surface, sc.State, ps.density)
	if box.Rect.Empty() {
		return nil, nil
	}
	tile := imaging.New(box.Rect.Dx(), box.Rect.Dy(), sc.State.Background)
	side := box.Inner().Dx()
	if side <= 0 {
		return tile, nil
	}
	sym, err := p.renderer.Render(qrrender.Request{
		Content:    sc.State.Content,
		Foreground: sc.State.Foreground,
		Background: sc.State.Background,
		Size:       side,
		Quality:    ps.quality,
	})
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	return imaging.Paste(tile, sym, image.Pt(box.Padding, box.Padding)), nil
}

// Preview composes sc at display density for on-screen use. It shares the
// export composer so the preview and the download never disagree.
func (p *Pipeline) Preview(sc Scene) (*image.NRGBA, error) {
	return p.compose(sc, pass{name: "preview", density: 1, filter: imaging.Linear, quality: qrrender.Full})
}
