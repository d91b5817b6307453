package session

import (
	"math"

	"github.com/lewtec/demarcador/internal/domain"
	"github.com/lewtec/demarcador/internal/geometry"
)

// Mode is the state of a pointer interaction
type Mode int

const (
	ModeIdle Mode = iota
	ModeDrawing
	ModeResizing
	ModeMoving
)

func (m Mode) String() string {
	switch m {
	case ModeDrawing:
		return "drawing"
	case ModeResizing:
		return "resizing"
	case ModeMoving:
		return "moving"
	default:
		return "idle"
	}
}

// Interaction turns pointer events in canvas coordinates into session edits.
// Drags stream edits without touching the history; the release records a
// single snapshot.
type Interaction struct {
	session  *Session
	Viewport geometry.Viewport
	// Class labels newly drawn boxes
	Class string

	mode     Mode
	selected int
	handle   geometry.Handle
	startX   float64
	startY   float64
	origin   domain.BBox
	changed  bool
}

// NewInteraction binds an interaction to a session
func NewInteraction(s *Session, v geometry.Viewport, class string) *Interaction {
	return &Interaction{session: s, Viewport: v, Class: class, selected: -1}
}

// Mode returns the current state
func (in *Interaction) Mode() Mode {
	return in.mode
}

// Selected returns the selected annotation index, or -1
func (in *Interaction) Selected() int {
	if !in.session.valid(in.selected) {
		return -1
	}
	return in.selected
}

// Select changes the selection. Out of range indices clear it.
func (in *Interaction) Select(index int) {
	if !in.session.valid(index) {
		index = -1
	}
	in.selected = index
}

// Press starts an interaction at a canvas point
func (in *Interaction) Press(x, y float64) Mode {
	in.startX, in.startY = in.Viewport.ToImage(x, y)
	in.changed = false
	target, ok := in.session.Pick(x, y, in.Viewport, in.Selected())
	switch {
	case !ok:
		in.selected = -1
		in.mode = ModeDrawing
	case target.Handle != "":
		in.selected = target.Index
		in.handle = target.Handle
		in.origin = in.session.working[target.Index].BBox
		in.mode = ModeResizing
	default:
		in.selected = target.Index
		in.origin = in.session.working[target.Index].BBox
		in.mode = ModeMoving
	}
	return in.mode
}

// Drag updates the interaction with the current canvas point
func (in *Interaction) Drag(x, y float64) {
	ix, iy := in.Viewport.ToImage(x, y)
	s := in.session
	switch in.mode {
	case ModeResizing:
		if !s.valid(in.selected) {
			in.mode = ModeIdle
			return
		}
		edit := geometry.Edit{}
		for _, e := range in.handle.Edges() {
			switch e {
			case geometry.EdgeX1, geometry.EdgeX2:
				edit[e] = int(math.Round(ix))
			default:
				edit[e] = int(math.Round(iy))
			}
		}
		in.changed = s.EditBBox(in.selected, edit, s.width, s.height) || in.changed
	case ModeMoving:
		if !s.valid(in.selected) {
			in.mode = ModeIdle
			return
		}
		dx := int(math.Round(ix - in.startX))
		dy := int(math.Round(iy - in.startY))
		// moves are computed from the pressed position so pinning at a
		// border does not accumulate drift
		s.working[in.selected].BBox = geometry.MoveWithin(in.origin, dx, dy, s.width, s.height, s.opts.MinSize)
		in.changed = true
	}
}

// Release finishes the interaction. When a box was drawn it is returned.
func (in *Interaction) Release(x, y float64) (domain.Annotation, bool) {
	mode := in.mode
	in.mode = ModeIdle
	s := in.session
	switch mode {
	case ModeDrawing:
		ix, iy := in.Viewport.ToImage(x, y)
		minDraw := float64(s.opts.MinDrawSize)
		if math.Abs(ix-in.startX) <= minDraw || math.Abs(iy-in.startY) <= minDraw {
			return domain.Annotation{}, false
		}
		box := geometry.ClampToImage(domain.BBox{
			X1: int(in.startX),
			Y1: int(in.startY),
			X2: int(ix),
			Y2: int(iy),
		}, s.width, s.height)
		ann := s.Add(box, in.Class, "")
		in.selected = len(s.working) - 1
		return ann, true
	case ModeResizing, ModeMoving:
		if in.changed && s.valid(in.selected) && s.working[in.selected].BBox != in.origin {
			s.Checkpoint()
		}
	}
	return domain.Annotation{}, false
}
