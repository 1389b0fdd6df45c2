// Package gesture turns the pointer stream into placement changes. At most one
// gesture is live at a time: the controller is either idle, dragging the
// overlay or resizing it from the handle.
package gesture

import (
	"github.com/cristianadrielbraun/posterqr/internal/placement"
	"github.com/cristianadrielbraun/posterqr/internal/surface"
)

// ResizeGain scales the horizontal pointer delta while resizing. The overlay
// grows from its center in both axes, so a 1:1 mapping feels sluggish.
const ResizeGain = 2.0

// Mode names the active session variant.
type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeDragging Mode = "dragging"
	ModeResizing Mode = "resizing"
)

// Session is the live gesture: Idle, Dragging or Resizing.
type Session interface {
	Mode() Mode
}

// Idle means no gesture is in progress.
type Idle struct{}

// Dragging moves the overlay center. Surface dimensions are held for the
// duration of the gesture.
type Dragging struct {
	Anchor    Point
	BaselineX float64
	BaselineY float64
	Surface   surface.Surface
}

// Resizing changes the overlay size from the horizontal pointer delta only.
type Resizing struct {
	AnchorX      float64
	BaselineSize float64
	Surface      surface.Surface
}

func (Idle) Mode() Mode     { return ModeIdle }
func (Dragging) Mode() Mode { return ModeDragging }
func (Resizing) Mode() Mode { return ModeResizing }

// Result reports what the controller did with an event.
type Result struct {
	// Consumed is set when the event must not propagate further, as for a
	// pointer-down on the resize handle.
	Consumed bool
	// Committed is set when the placement model was written.
	Committed bool
}

// Controller owns the gesture state machine. It reads the model only to take
// a baseline and writes it only through the clamped Update path.
type Controller struct {
	model   *placement.Model
	session Session
}

// NewController returns an idle controller bound to model.
func NewController(model *placement.Model) *Controller {
	return &Controller{model: model, session: Idle{}}
}

// Session returns the live gesture.
func (c *Controller) Session() Session { return c.session }

// Mode returns the live gesture's mode.
func (c *Controller) Mode() Mode { return c.session.Mode() }

// Handle feeds one pointer event through the state machine. surf is only read
// on pointer-down; later events use the dimensions captured then.
func (c *Controller) Handle(ev Event, surf surface.Surface) Result {
	switch ev.Kind {
	case Down:
		switch ev.Target {
		case TargetHandle:
			c.BeginResize(ev.Point, surf)
			// The handle sits on top of the overlay; the down event stops here
			// whether or not a resize started.
			return Result{Consumed: true}
		case TargetOverlay:
			return Result{Consumed: c.BeginDrag(ev.Point, surf)}
		}
		return Result{}
	case Move:
		return Result{Committed: c.Move(ev.Point)}
	case Up, Cancel, Blur:
		c.End()
		return Result{}
	}
	return Result{}
}

// BeginDrag starts a drag anchored at p. It is refused while another gesture
// is live or when the surface has no area.
func (c *Controller) BeginDrag(p Point, surf surface.Surface) bool {
	if _, idle := c.session.(Idle); !idle || surf.Empty() {
		return false
	}
	st := c.model.State()
	c.session = Dragging{Anchor: p, BaselineX: st.X, BaselineY: st.Y, Surface: surf}
	return true
}

// BeginResize starts a resize anchored at p.X. It is refused while another
// gesture is live or when the surface has no area.
func (c *Controller) BeginResize(p Point, surf surface.Surface) bool {
	if _, idle := c.session.(Idle); !idle || surf.Empty() {
		return false
	}
	c.session = Resizing{AnchorX: p.X, BaselineSize: c.model.State().Size, Surface: surf}
	return true
}

// Move applies the pointer position to the live gesture and reports whether
// the model was written.
func (c *Controller) Move(p Point) bool {
	switch s := c.session.(type) {
	case Dragging:
		dx := (p.X - s.Anchor.X) / float64(s.Surface.Width) * 100
		dy := (p.Y - s.Anchor.Y) / float64(s.Surface.Height) * 100
		x := placement.Clamp(s.BaselineX+dx, placement.MinPos, placement.MaxPos)
		y := placement.Clamp(s.BaselineY+dy, placement.MinPos, placement.MaxPos)
		c.model.Update(placement.Patch{X: &x, Y: &y})
		return true
	case Resizing:
		d := (p.X - s.AnchorX) / float64(s.Surface.Width) * 100
		size := placement.Clamp(s.BaselineSize+d*ResizeGain, placement.MinSize, placement.MaxSize)
		c.model.Update(placement.Patch{Size: &size})
		return true
	}
	return false
}

// End returns to Idle. Whatever the last move committed is kept.
func (c *Controller) End() {
	c.session = Idle{}
}
