package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/cristianadrielbraun/posterqr/internal/placement"
	"github.com/cristianadrielbraun/posterqr/internal/qrrender"
	"github.com/cristianadrielbraun/posterqr/internal/surface"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	r, err := qrrender.NewRenderer(qrrender.YeqownEncoder{}, 16)
	if err != nil {
		t.Fatal(err)
	}
	return New(r, Options{})
}

func testScene() Scene {
	base := image.NewNRGBA(image.Rect(0, 0, 200, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 200; x++ {
			base.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 90, 255})
		}
	}
	return Scene{
		Base:    base,
		Surface: surface.Surface{Width: 100, Height: 60},
		State:   placement.New().State(),
	}
}

type recorder struct {
	mu    sync.Mutex
	calls int
	name  string
	data  []byte
}

func (r *recorder) Deliver(filename string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.name = filename
	r.data = data
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func staticSource(sc Scene) Source {
	return SourceFunc(func() (Scene, error) { return sc, nil })
}

func TestExportSizeAndOpacity(t *testing.T) {
	p := newTestPipeline(t)
	rec := &recorder{}
	if err := p.Run(context.Background(), staticSource(testScene()), rec); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.name != DefaultFilename {
		t.Fatalf("filename = %q", rec.name)
	}
	img, err := png.Decode(bytes.NewReader(rec.data))
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(300, 180) {
		t.Fatalf("export size = %v, want 300x180", got)
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += 7 {
		for x := b.Min.X; x < b.Max.X; x += 7 {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xFFFF {
				t.Fatalf("pixel (%d,%d) not opaque", x, y)
			}
		}
	}
}

func TestExportFillsTransparency(t *testing.T) {
	p := newTestPipeline(t)
	sc := testScene()
	sc.Base = image.NewNRGBA(image.Rect(0, 0, 100, 60)) // fully transparent
	sc.State.X, sc.State.Y = 100, 100
	rec := &recorder{}
	if err := p.Run(context.Background(), staticSource(sc), rec); err != nil {
		t.Fatalf("Run: %v", err)
	}
	img, _ := png.Decode(bytes.NewReader(rec.data))
	if c := color.NRGBAModel.Convert(img.At(5, 5)).(color.NRGBA); c != (color.NRGBA{255, 255, 255, 255}) {
		t.Fatalf("transparent base not filled with white: %v", c)
	}
}

func TestExportIsDeterministic(t *testing.T) {
	p := newTestPipeline(t)
	src := staticSource(testScene())
	a, b := &recorder{}, &recorder{}
	if err := p.Run(context.Background(), src, a); err != nil {
		t.Fatal(err)
	}
	if err := p.Run(context.Background(), src, b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.data, b.data) {
		t.Fatal("two exports of the same scene differ")
	}
}

func TestExportDrawsOverlayBackground(t *testing.T) {
	p := newTestPipeline(t)
	sc := testScene()
	rec := &recorder{}
	if err := p.Run(context.Background(), staticSource(sc), rec); err != nil {
		t.Fatal(err)
	}
	img, _ := png.Decode(bytes.NewReader(rec.data))
	box := surface.Overlay(sc.Surface, sc.State, DefaultDensity)
	// Just inside the padding the overlay background shows.
	pt := box.Rect.Min.Add(image.Pt(2, 2))
	got := color.NRGBAModel.Convert(img.At(pt.X, pt.Y)).(color.NRGBA)
	want := sc.State.Background
	if got.R != want.R || got.G != want.G || got.B != want.B {
		t.Fatalf("padding pixel = %v, want %v", got, want)
	}
}

func TestExportRejectsReentry(t *testing.T) {
	r, err := qrrender.NewRenderer(qrrender.YeqownEncoder{}, 16)
	if err != nil {
		t.Fatal(err)
	}
	log := &passLog{}
	p := New(r, Options{Observer: log})
	sc := testScene()
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	src := SourceFunc(func() (Scene, error) {
		once.Do(func() {
			close(entered)
			<-release
		})
		return sc, nil
	})

	rec := &recorder{}
	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background(), src, rec) }()

	<-entered
	if !p.Busy() {
		t.Fatal("pipeline not busy during export")
	}
	if err := p.Run(context.Background(), src, rec); !errors.Is(err, ErrExportInFlight) {
		t.Fatalf("second Run err = %v, want ErrExportInFlight", err)
	}
	close(release)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("export did not finish")
	}
	if n := rec.count(); n != 1 {
		t.Fatalf("deliveries = %d, want 1", n)
	}
	if p.Busy() {
		t.Fatal("busy flag not cleared")
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	if len(log.result) != 2 || log.result[0] != "busy" || log.result[1] != "success" {
		t.Fatalf("results = %v, want [busy success]", log.result)
	}
}

func TestExportFailureDeliversNothingAndAllowsRetry(t *testing.T) {
	p := newTestPipeline(t)
	sc := testScene()
	sc.State.Content = ""
	rec := &recorder{}

	err := p.Run(context.Background(), staticSource(sc), rec)
	if !errors.Is(err, ErrExportFailed) || !errors.Is(err, qrrender.ErrEmptyContent) {
		t.Fatalf("err = %v, want ErrExportFailed wrapping ErrEmptyContent", err)
	}
	if rec.count() != 0 {
		t.Fatal("failed export delivered bytes")
	}
	if p.Busy() {
		t.Fatal("busy flag left set after failure")
	}

	sc.State.Content = "fixed"
	if err := p.Run(context.Background(), staticSource(sc), rec); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if rec.count() != 1 {
		t.Fatal("retry did not deliver")
	}
}

func TestExportSnapshotFailureAbortsBeforeCapture(t *testing.T) {
	p := newTestPipeline(t)
	calls := 0
	src := SourceFunc(func() (Scene, error) {
		calls++
		return Scene{}, errors.New("asset not loaded")
	})
	rec := &recorder{}
	if err := p.Run(context.Background(), src, rec); !errors.Is(err, ErrExportFailed) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Fatalf("snapshot called %d times, want 1 (capture must not start)", calls)
	}
}

func TestExportHonoursCancelledContext(t *testing.T) {
	p := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{}
	err := p.Run(ctx, staticSource(testScene()), rec)
	if !errors.Is(err, context.Canceled) || !errors.Is(err, ErrExportFailed) {
		t.Fatalf("err = %v", err)
	}
}

type passLog struct {
	mu     sync.Mutex
	passes []string
	result []string
}

func (l *passLog) ObservePass(pass string, _ time.Duration, _ error) {
	l.mu.Lock()
	l.passes = append(l.passes, pass)
	l.mu.Unlock()
}

func (l *passLog) ObserveExport(result string) {
	l.mu.Lock()
	l.result = append(l.result, result)
	l.mu.Unlock()
}

func TestExportRunsWarmupBeforeCapture(t *testing.T) {
	r, _ := qrrender.NewRenderer(qrrender.YeqownEncoder{}, 0)
	log := &passLog{}
	p := New(r, Options{Observer: log})
	if err := p.Run(context.Background(), staticSource(testScene()), &recorder{}); err != nil {
		t.Fatal(err)
	}
	if len(log.passes) != 2 || log.passes[0] != "warmup" || log.passes[1] != "capture" {
		t.Fatalf("passes = %v", log.passes)
	}
	if len(log.result) != 1 || log.result[0] != "success" {
		t.Fatalf("results = %v", log.result)
	}
}

func TestOptionsDefaults(t *testing.T) {
	p := New(nil, Options{Background: color.RGBA{10, 20, 30, 0x40}})
	if p.Density() != DefaultDensity || p.Filename() != DefaultFilename {
		t.Fatalf("defaults not applied: %v %q", p.Density(), p.Filename())
	}
	if p.opts.Background.A != 0xFF {
		t.Fatal("background fill not forced opaque")
	}
}
