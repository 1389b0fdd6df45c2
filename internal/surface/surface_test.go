package surface

import (
	"image"
	"testing"

	"github.com/cristianadrielbraun/posterqr/internal/placement"
)

func TestFit(t *testing.T) {
	tests := []struct {
		name    string
		natural image.Point
		vp      Viewport
		want    Surface
	}{
		{"unbounded", image.Pt(1200, 800), Viewport{}, Surface{1200, 800}},
		{"never upscales", image.Pt(300, 200), Viewport{MaxWidth: 1000, MaxHeight: 1000}, Surface{300, 200}},
		{"width bound", image.Pt(2000, 1000), Viewport{MaxWidth: 1000}, Surface{1000, 500}},
		{"height bound wins", image.Pt(1000, 2000), Viewport{MaxWidth: 1000, MaxHeight: 800}, Surface{400, 800}},
		{"empty image", image.Pt(0, 10), Viewport{}, Surface{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fit(tt.natural, tt.vp); got != tt.want {
				t.Fatalf("Fit = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOverlayGeometry(t *testing.T) {
	s := Surface{Width: 400, Height: 200}
	st := placement.State{Size: 25, X: 50, Y: 50}

	b := Overlay(s, st, 1)
	if want := image.Rect(150, 50, 250, 150); b.Rect != want {
		t.Fatalf("overlay rect = %v, want %v", b.Rect, want)
	}
	if b.Padding != 8 {
		t.Fatalf("padding = %d, want 8", b.Padding)
	}

	b3 := Overlay(s, st, 3)
	if want := image.Rect(450, 150, 750, 450); b3.Rect != want {
		t.Fatalf("overlay rect at 3x = %v, want %v", b3.Rect, want)
	}
	if b3.Padding != 24 {
		t.Fatalf("padding at 3x = %d, want 24", b3.Padding)
	}
}

func TestOverlayPaddingCappedForSmallBoxes(t *testing.T) {
	b := Overlay(Surface{Width: 100, Height: 100}, placement.State{Size: 5, X: 50, Y: 50}, 1)
	if b.Padding > b.Rect.Dx()/4 {
		t.Fatalf("padding %d exceeds a quarter of side %d", b.Padding, b.Rect.Dx())
	}
}

func TestScaled(t *testing.T) {
	if got := (Surface{Width: 333, Height: 101}).Scaled(3); got != image.Pt(999, 303) {
		t.Fatalf("Scaled = %v", got)
	}
}
