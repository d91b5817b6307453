package session

import (
	"github.com/lewtec/demarcador/internal/domain"
	"github.com/lewtec/demarcador/internal/geometry"
)

// Add appends a new visible annotation to the working list. An empty color
// takes the next palette entry.
func (s *Session) Add(bbox domain.BBox, className, color string) domain.Annotation {
	if color == "" {
		color = s.palette.Next()
	}
	ann := domain.Annotation{
		ClassName: className,
		BBox:      geometry.Normalize(bbox),
		Visible:   true,
		Color:     color,
	}
	s.working = append(s.working, ann)
	s.Checkpoint()
	return ann.Clone()
}

// Delete removes the annotation at index. Later indices shift down by one.
func (s *Session) Delete(index int) bool {
	if !s.valid(index) {
		return false
	}
	s.working = append(s.working[:index], s.working[index+1:]...)
	s.Checkpoint()
	return true
}

// SetColor changes the display color of the annotation at index
func (s *Session) SetColor(index int, color string) bool {
	if !s.valid(index) || color == "" {
		return false
	}
	s.working[index].Color = color
	s.Checkpoint()
	return true
}

// SetClass relabels the annotation at index
func (s *Session) SetClass(index int, className string) bool {
	if !s.valid(index) || className == "" {
		return false
	}
	s.working[index].ClassName = className
	s.Checkpoint()
	return true
}

// ToggleVisible flips the visibility of the annotation at index. Hidden
// annotations are not committed.
func (s *Session) ToggleVisible(index int) bool {
	if !s.valid(index) {
		return false
	}
	s.working[index].Visible = !s.working[index].Visible
	return true
}

// Move translates the annotation at index, keeping it inside the image and
// at least the minimum size. Call Checkpoint once the move is over.
func (s *Session) Move(index, dx, dy, imgW, imgH int) bool {
	if !s.valid(index) {
		return false
	}
	s.working[index].BBox = geometry.MoveWithin(s.working[index].BBox, dx, dy, imgW, imgH, s.opts.MinSize)
	return true
}

// EditBBox applies a partial edge update to the annotation at index. Call
// Checkpoint once the edit is over.
func (s *Session) EditBBox(index int, edit geometry.Edit, imgW, imgH int) bool {
	if !s.valid(index) {
		return false
	}
	s.working[index].BBox = geometry.Resize(s.working[index].BBox, edit, imgW, imgH, s.opts.MinSize)
	return true
}

// Copy places a deep copy of the annotation at index on the clipboard
func (s *Session) Copy(index int) bool {
	if !s.valid(index) {
		return false
	}
	ann := s.working[index].Clone()
	s.clipboard = &ann
	return true
}

// Clipboard returns a copy of the clipboard content
func (s *Session) Clipboard() (domain.Annotation, bool) {
	if s.clipboard == nil {
		return domain.Annotation{}, false
	}
	return s.clipboard.Clone(), true
}

// Paste appends a copy of the clipboard shifted by the paste offset and
// pinned inside the image. The clipboard survives image changes.
func (s *Session) Paste(imgW, imgH int) (domain.Annotation, bool) {
	if s.clipboard == nil {
		return domain.Annotation{}, false
	}
	ann := s.clipboard.Clone()
	off := s.opts.PasteOffset
	ann.BBox = geometry.MoveWithin(ann.BBox, off, off, imgW, imgH, s.opts.MinSize)
	ann.Visible = true
	s.working = append(s.working, ann)
	s.Checkpoint()
	return ann.Clone(), true
}
