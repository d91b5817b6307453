package session

import (
	"math"

	"github.com/lewtec/demarcador/internal/geometry"
)

// HitTest returns the index of the topmost visible annotation containing the
// canvas point. Later annotations are drawn on top and win.
func (s *Session) HitTest(x, y float64, v geometry.Viewport) (int, bool) {
	ix, iy := v.ToImage(x, y)
	for i := len(s.working) - 1; i >= 0; i-- {
		ann := s.working[i]
		if ann.Visible && ann.BBox.Contains(ix, iy) {
			return i, true
		}
	}
	return -1, false
}

// HandleTest returns the resize handle of the annotation at index that lies
// within the handle tolerance of the canvas point. Corners are tested before
// edge midpoints.
func (s *Session) HandleTest(x, y float64, v geometry.Viewport, index int) (geometry.Handle, bool) {
	if !s.valid(index) || !s.working[index].Visible {
		return "", false
	}
	tol := s.opts.HandleTolerance
	b := s.working[index].BBox
	for _, h := range geometry.Handles {
		hx, hy := v.HandlePoint(b, h)
		if math.Abs(x-hx) <= tol && math.Abs(y-hy) <= tol {
			return h, true
		}
	}
	return "", false
}

// Target is what a pointer press lands on. An empty Handle means the body of
// the annotation.
type Target struct {
	Index  int
	Handle geometry.Handle
}

// Pick resolves a pointer press. The handles of the selected annotation take
// precedence over the bodies of every annotation.
func (s *Session) Pick(x, y float64, v geometry.Viewport, selected int) (Target, bool) {
	if h, ok := s.HandleTest(x, y, v, selected); ok {
		return Target{Index: selected, Handle: h}, true
	}
	if i, ok := s.HitTest(x, y, v); ok {
		return Target{Index: i}, true
	}
	return Target{Index: -1}, false
}
