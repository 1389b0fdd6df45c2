package gesture

// Kind is the phase of a pointer event.
type Kind string

const (
	Down   Kind = "down"
	Move   Kind = "move"
	Up     Kind = "up"
	Cancel Kind = "cancel"
	// Blur is sent when the input surface loses focus, e.g. the window blurs.
	Blur Kind = "blur"
)

// Target is the element a pointer-down landed on.
type Target string

const (
	TargetSurface Target = "surface"
	TargetOverlay Target = "overlay"
	TargetHandle  Target = "handle"
)

// Point is a pointer position in client pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Event is one entry of the unified pointer stream. Mouse and touch input are
// both reduced to this shape before reaching the controller.
type Event struct {
	Kind   Kind
	Target Target
	Point  Point
}

// FromTouches reduces a touch list to the primary pointer. ok is false when
// the list is empty, as on a final touchend.
func FromTouches(touches []Point) (p Point, ok bool) {
	if len(touches) == 0 {
		return Point{}, false
	}
	return touches[0], true
}
