// Package editor ties one user's editing state together: the placement model,
// the gesture controller, the base image and its surface, and the export
// pipeline. A Session is the only owner of that state.
package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"github.com/cristianadrielbraun/posterqr/internal/export"
	"github.com/cristianadrielbraun/posterqr/internal/gesture"
	"github.com/cristianadrielbraun/posterqr/internal/ingest"
	"github.com/cristianadrielbraun/posterqr/internal/placement"
	"github.com/cristianadrielbraun/posterqr/internal/qrrender"
	"github.com/cristianadrielbraun/posterqr/internal/surface"
)

// ErrNotReady is returned by operations that need a base image before one
// has been loaded.
var ErrNotReady = errors.New("upload a base image first")

// ExportState is the tri-state of the export trigger.
type ExportState string

const (
	ExportDisabled ExportState = "disabled"
	ExportReady    ExportState = "ready"
	ExportBusy     ExportState = "busy"
)

// Options configures new sessions.
type Options struct {
	Renderer *qrrender.Renderer
	Export   export.Options
	Logger   *zap.Logger
	// MaxImagePixels bounds the pixel count of base images. Zero uses
	// ingest.DefaultMaxPixels.
	MaxImagePixels int64
}

// Session is one editing session. Its mutex plays the part of the UI thread:
// each input runs to completion before the next one is looked at. Exports do
// not hold it while rendering, so gestures keep working during an export and
// each export pass sees the state of its own snapshot.
type Session struct {
	ID string

	mu       sync.Mutex
	model    *placement.Model
	gestures *gesture.Controller
	asset    *ingest.Asset
	viewport surface.Viewport
	surface  surface.Surface
	pipeline *export.Pipeline
	touched  time.Time
	log      *zap.Logger

	maxPixels int64
}

// NewSession returns an empty session with the default placement.
func NewSession(id string, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("session", id))
	expOpts := opts.Export
	expOpts.Logger = log

	model := placement.New()
	model.Subscribe(func(st placement.State) {
		log.Debug("placement committed",
			zap.Float64("size", st.Size),
			zap.Float64("x", st.X),
			zap.Float64("y", st.Y),
		)
	})
	return &Session{
		ID:       id,
		model:    model,
		gestures: gesture.NewController(model),
		pipeline: export.New(opts.Renderer, expOpts),
		touched:  time.Now(),
		log:      log,

		maxPixels: opts.MaxImagePixels,
	}
}

// View is the externally visible state of a session.
type View struct {
	ID          string          `json:"id"`
	Content     string          `json:"content"`
	Size        float64         `json:"size"`
	X           float64         `json:"x"`
	Y           float64         `json:"y"`
	Foreground  string          `json:"foreground"`
	Background  string          `json:"background"`
	Gesture     gesture.Mode    `json:"gesture"`
	Ready       bool            `json:"ready"`
	Export      ExportState     `json:"export"`
	Surface     surface.Surface `json:"surface"`
	ImageWidth  int             `json:"imageWidth,omitempty"`
	ImageHeight int             `json:"imageHeight,omitempty"`
	MediaType   string          `json:"mediaType,omitempty"`
}

// View returns the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	st := s.model.State()
	v := View{
		ID:         s.ID,
		Content:    st.Content,
		Size:       st.Size,
		X:          st.X,
		Y:          st.Y,
		Foreground: placement.FormatColor(st.Foreground),
		Background: placement.FormatColor(st.Background),
		Gesture:    s.gestures.Mode(),
		Ready:      s.asset != nil,
		Export:     s.exportStateLocked(),
		Surface:    s.surface,
	}
	if s.asset != nil {
		size := s.asset.Size()
		v.ImageWidth, v.ImageHeight = size.X, size.Y
		v.MediaType = s.asset.MediaType
	}
	return v
}

func (s *Session) exportStateLocked() ExportState {
	switch {
	case s.pipeline.Busy():
		return ExportBusy
	case s.asset == nil:
		return ExportDisabled
	}
	return ExportReady
}

// ExportState reports whether the export trigger is disabled, ready or busy.
func (s *Session) ExportState() ExportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportStateLocked()
}

// Touched returns the time of the last input.
func (s *Session) Touched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// SetImage decodes data and makes it the base image. On error the session is
// left as it was.
func (s *Session) SetImage(data []byte, declaredType string) (View, error) {
	asset, err := ingest.Decode(data, declaredType, s.maxPixels)
	if err != nil {
		s.log.Info("base image rejected", zap.Error(err))
		return s.View(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.asset = asset
	s.surface = surface.Fit(asset.Size(), s.viewport)
	s.touched = time.Now()
	s.log.Info("base image loaded",
		zap.String("media_type", asset.MediaType),
		zap.Int("width", asset.Size().X),
		zap.Int("height", asset.Size().Y),
	)
	return s.viewLocked(), nil
}

// DataURL returns the base image as a data URL for the preview.
func (s *Session) DataURL() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.asset == nil {
		return "", ErrNotReady
	}
	return s.asset.DataURL(), nil
}

// SetViewport records the space available for the surface and recomputes it.
func (s *Session) SetViewport(vp surface.Viewport) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = vp
	if s.asset != nil {
		s.surface = surface.Fit(s.asset.Size(), vp)
	}
	s.touched = time.Now()
	return s.viewLocked()
}

// Update applies a settings patch through the clamped model setter.
func (s *Session) Update(p placement.Patch) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.Update(p)
	s.touched = time.Now()
	return s.viewLocked()
}

// Reset recenters the overlay.
func (s *Session) Reset() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.Reset()
	s.touched = time.Now()
	return s.viewLocked()
}

// Pointer feeds one event of the pointer stream to the gesture controller.
func (s *Session) Pointer(ev gesture.Event) (View, gesture.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.gestures.Handle(ev, s.surface)
	s.touched = time.Now()
	return s.viewLocked(), res
}

// Export renders the composite and delivers it to dst. It returns ErrNotReady
// without a base image and export.ErrExportInFlight while another export of
// this session is running.
func (s *Session) Export(ctx context.Context, dst export.Delivery) error {
	s.mu.Lock()
	ready := s.asset != nil
	s.touched = time.Now()
	s.mu.Unlock()
	if !ready {
		return ErrNotReady
	}
	return s.pipeline.Run(ctx, export.SourceFunc(s.scene), dst)
}

func (s *Session) scene() (export.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.asset == nil {
		return export.Scene{}, ErrNotReady
	}
	return export.Scene{Base: s.asset.Image, Surface: s.surface, State: s.model.State()}, nil
}

// Preview renders the surface at display size as PNG. With hover set, the
// outline and resize handle are drawn the way the editor shows them under
// the pointer; they are never drawn while an export is in flight.
func (s *Session) Preview(hover bool) ([]byte, error) {
	sc, err := s.scene()
	if err != nil {
		return nil, err
	}
	img, err := s.pipeline.Preview(sc)
	if err != nil {
		return nil, err
	}

	var out image.Image = img
	if hover && !s.pipeline.Busy() {
		out = drawAffordances(img, surface.Overlay(sc.Surface, sc.State, 1))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawAffordances(img image.Image, box surface.Box) image.Image {
	dc := gg.NewContextForImage(img)
	r := box.Rect

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(2)
	dc.DrawRectangle(float64(r.Min.X)+1, float64(r.Min.Y)+1, float64(r.Dx())-2, float64(r.Dy())-2)
	dc.Stroke()

	cx, cy, radius := surface.Handle(box, 1)
	dc.DrawCircle(cx, cy, radius)
	dc.SetRGB(1, 1, 1)
	dc.FillPreserve()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1.5)
	dc.Stroke()
	return dc.Image()
}
