package placement

import (
	"image/color"
	"math"
	"testing"
)

func TestUpdateClampsNumericFields(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		check func(State) bool
	}{
		{"size above range", Patch{Size: Float(999)}, func(s State) bool { return s.Size == MaxSize }},
		{"size below range", Patch{Size: Float(-3)}, func(s State) bool { return s.Size == MinSize }},
		{"x below range", Patch{X: Float(-50)}, func(s State) bool { return s.X == 0 }},
		{"y above range", Patch{Y: Float(150)}, func(s State) bool { return s.Y == 100 }},
		{"inf clamps", Patch{X: Float(math.Inf(1))}, func(s State) bool { return s.X == 100 }},
		{"nan keeps previous", Patch{Size: Float(math.NaN())}, func(s State) bool { return s.Size == DefaultSize }},
		{"in range untouched", Patch{Size: Float(42.5), X: Float(12), Y: Float(88)}, func(s State) bool {
			return s.Size == 42.5 && s.X == 12 && s.Y == 88
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			got := m.Update(tt.patch)
			if !tt.check(got) {
				t.Fatalf("unexpected state after update: %+v", got)
			}
			if got != m.State() {
				t.Fatalf("returned state %+v differs from committed %+v", got, m.State())
			}
		})
	}
}

func TestUpdateMergesOnlyProvidedFields(t *testing.T) {
	m := New()
	fg := color.RGBA{1, 2, 3, 255}
	m.Update(Patch{Content: String("https://example.com"), Foreground: Color(fg)})
	s := m.State()
	if s.Content != "https://example.com" || s.Foreground != fg {
		t.Fatalf("patch not applied: %+v", s)
	}
	if s.Background != DefaultBackground || s.Size != DefaultSize || s.X != DefaultX || s.Y != DefaultY {
		t.Fatalf("untouched fields changed: %+v", s)
	}
}

func TestResetKeepsContentAndColors(t *testing.T) {
	m := New()
	fg := color.RGBA{10, 20, 30, 255}
	bg := color.RGBA{40, 50, 60, 255}
	m.Update(Patch{
		Content:    String("hello"),
		Size:       Float(70),
		X:          Float(3),
		Y:          Float(97),
		Foreground: Color(fg),
		Background: Color(bg),
	})
	s := m.Reset()
	if s.Size != 25 || s.X != 50 || s.Y != 50 {
		t.Fatalf("reset geometry = %v/%v/%v, want 25/50/50", s.Size, s.X, s.Y)
	}
	if s.Content != "hello" || s.Foreground != fg || s.Background != bg {
		t.Fatalf("reset touched content or colors: %+v", s)
	}
}

func TestSubscribersSeeClampedState(t *testing.T) {
	m := New()
	var seen []State
	m.Subscribe(func(s State) { seen = append(seen, s) })
	m.Update(Patch{Size: Float(500), X: Float(-1)})
	m.Reset()
	if len(seen) != 2 {
		t.Fatalf("got %d notifications, want 2", len(seen))
	}
	if seen[0].Size != MaxSize || seen[0].X != MinPos {
		t.Fatalf("observer saw unclamped state: %+v", seen[0])
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#E9F6F1", color.RGBA{0xE9, 0xF6, 0xF1, 0xFF}, true},
		{"15382c", color.RGBA{0x15, 0x38, 0x2C, 0xFF}, true},
		{"#11223380", color.RGBA{0x11, 0x22, 0x33, 0x80}, true},
		{"transparent", Transparent, true},
		{"#12345", color.RGBA{}, false},
		{"#GGGGGG", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("ParseColor(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
		}
		if tt.ok && got != tt.want {
			t.Fatalf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if s := FormatColor(color.RGBA{0xE9, 0xF6, 0xF1, 0xFF}); s != "#E9F6F1" {
		t.Fatalf("FormatColor = %s", s)
	}
	if c := ParseColorOr("bogus", DefaultForeground); c != DefaultForeground {
		t.Fatalf("ParseColorOr fallback = %v", c)
	}
}
