// Package placement holds the normalized QR placement state for an editing
// session. Positions and size are percentages of the composite surface, so the
// same state renders identically at any resolution.
package placement

import (
	"image/color"
	"math"
)

// Closed ranges for the numeric fields.
const (
	MinSize = 5.0
	MaxSize = 80.0
	MinPos  = 0.0
	MaxPos  = 100.0
)

// Values restored by Reset.
const (
	DefaultSize = 25.0
	DefaultX    = 50.0
	DefaultY    = 50.0
)

// DefaultContent is encoded until the user types something else.
const DefaultContent = "https://openai.com"

var (
	DefaultForeground = color.RGBA{0xE9, 0xF6, 0xF1, 0xFF}
	DefaultBackground = color.RGBA{0x15, 0x38, 0x2C, 0xFF}
)

// State is an immutable snapshot of the placement.
type State struct {
	Content    string
	Size       float64
	X          float64
	Y          float64
	Foreground color.RGBA
	Background color.RGBA
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Content    *string
	Size       *float64
	X          *float64
	Y          *float64
	Foreground *color.RGBA
	Background *color.RGBA
}

// Model is the single source of truth for placement. It is not safe for
// concurrent use; the owning session serializes access.
type Model struct {
	state       State
	subscribers []func(State)
}

// New returns a model populated with the default placement.
func New() *Model {
	return &Model{state: State{
		Content:    DefaultContent,
		Size:       DefaultSize,
		X:          DefaultX,
		Y:          DefaultY,
		Foreground: DefaultForeground,
		Background: DefaultBackground,
	}}
}

// State returns the current committed state.
func (m *Model) State() State { return m.state }

// Subscribe registers fn to be called after every commit.
func (m *Model) Subscribe(fn func(State)) {
	m.subscribers = append(m.subscribers, fn)
}

// Update merges p into the current state. Each numeric field is clamped to its
// range after the merge, so out-of-range input is absorbed rather than rejected.
func (m *Model) Update(p Patch) State {
	next := m.state
	if p.Content != nil {
		next.Content = *p.Content
	}
	if p.Size != nil {
		next.Size = clampOr(*p.Size, MinSize, MaxSize, next.Size)
	}
	if p.X != nil {
		next.X = clampOr(*p.X, MinPos, MaxPos, next.X)
	}
	if p.Y != nil {
		next.Y = clampOr(*p.Y, MinPos, MaxPos, next.Y)
	}
	if p.Foreground != nil {
		next.Foreground = *p.Foreground
	}
	if p.Background != nil {
		next.Background = *p.Background
	}
	m.commit(next)
	return next
}

// Reset recenters the overlay at its default size. Content and colors are kept.
func (m *Model) Reset() State {
	next := m.state
	next.Size = DefaultSize
	next.X = DefaultX
	next.Y = DefaultY
	m.commit(next)
	return next
}

func (m *Model) commit(s State) {
	m.state = s
	for _, fn := range m.subscribers {
		fn(s)
	}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// clampOr clamps v, falling back to prev when v is NaN.
func clampOr(v, lo, hi, prev float64) float64 {
	if math.IsNaN(v) {
		return prev
	}
	return Clamp(v, lo, hi)
}

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s, for building patches.
func String(s string) *string { return &s }

// Color returns a pointer to c, for building patches.
func Color(c color.RGBA) *color.RGBA { return &c }
