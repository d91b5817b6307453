package session

import (
	"log"

	"github.com/lewtec/demarcador/internal/domain"
	"github.com/lewtec/demarcador/internal/geometry"
)

// Ingest replaces the pending suggestion set with detections for the active
// image. The working list is untouched until Approve. It returns the number
// of pending suggestions.
func (s *Session) Ingest(detections []domain.Detection) int {
	s.pending = make([]domain.Annotation, 0, len(detections))
	for _, det := range detections {
		box := geometry.Normalize(det.BBox)
		if s.width > 0 && s.height > 0 {
			box = geometry.ClampToImage(box, s.width, s.height)
		}
		s.pending = append(s.pending, domain.Annotation{
			ClassName: det.ClassName,
			BBox:      box,
			Visible:   true,
			Color:     det.Color,
			Provenance: &domain.Provenance{
				Confidence:     det.Confidence,
				ModelSuggested: true,
			},
		})
	}
	log.Printf("session: %d suggestions pending for %s", len(s.pending), s.imageID)
	return len(s.pending)
}

// Pending returns a copy of the suggestions awaiting review
func (s *Session) Pending() []domain.Annotation {
	return domain.CloneList(s.pending)
}

// SetPendingClass relabels a suggestion before approval
func (s *Session) SetPendingClass(index int, className string) bool {
	if index < 0 || index >= len(s.pending) || className == "" {
		return false
	}
	s.pending[index].ClassName = className
	return true
}

// DropPending removes a single suggestion from the pending set
func (s *Session) DropPending(index int) bool {
	if index < 0 || index >= len(s.pending) {
		return false
	}
	s.pending = append(s.pending[:index], s.pending[index+1:]...)
	return true
}

// Approve moves every pending suggestion into the working list as a regular
// annotation and returns the appended annotations. Provenance is stripped and
// missing colors come from the palette.
func (s *Session) Approve() []domain.Annotation {
	if len(s.pending) == 0 {
		return nil
	}
	delta := make([]domain.Annotation, 0, len(s.pending))
	for _, ann := range s.pending {
		ann.Provenance = nil
		ann.Visible = true
		if ann.Color == "" {
			ann.Color = s.palette.Next()
		}
		delta = append(delta, ann)
	}
	s.pending = nil
	s.working = append(s.working, delta...)
	s.Checkpoint()
	return domain.CloneList(delta)
}

// Reject discards the pending suggestions and returns how many there were
func (s *Session) Reject() int {
	n := len(s.pending)
	s.pending = nil
	return n
}
