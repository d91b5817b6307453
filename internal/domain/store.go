package domain

import "sort"

// Store is the durable mapping from image identifier to its committed annotations.
// An image never maps to an empty list: Commit removes it instead.
type Store struct {
	entries   map[string][]Annotation
	completed map[string]bool
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		entries:   map[string][]Annotation{},
		completed: map[string]bool{},
	}
}

// Get returns a deep copy of the annotations of an image
func (s *Store) Get(imageID string) ([]Annotation, bool) {
	list, ok := s.entries[imageID]
	if !ok {
		return nil, false
	}
	return CloneList(list), true
}

// Has reports whether the image has committed annotations
func (s *Store) Has(imageID string) bool {
	_, ok := s.entries[imageID]
	return ok
}

// Append adds one annotation to an image, used while decoding persisted data
func (s *Store) Append(imageID string, ann Annotation) {
	s.entries[imageID] = append(s.entries[imageID], ann.Clone())
}

// Commit writes the visible subset of list under imageID, or removes the
// image entirely when nothing visible remains.
func (s *Store) Commit(imageID string, list []Annotation) {
	visible := VisibleOnly(list)
	if len(visible) == 0 {
		delete(s.entries, imageID)
		delete(s.completed, imageID)
		return
	}
	s.entries[imageID] = visible
}

// Remove drops an image from the store
func (s *Store) Remove(imageID string) {
	delete(s.entries, imageID)
	delete(s.completed, imageID)
}

// MarkComplete flags an image as fully annotated. Images without committed
// annotations can't be marked.
func (s *Store) MarkComplete(imageID string) bool {
	if !s.Has(imageID) {
		return false
	}
	s.completed[imageID] = true
	return true
}

// SetComplete sets the completion flag without the annotation check, used when
// decoding persisted state
func (s *Store) SetComplete(imageID string, complete bool) {
	if complete {
		s.completed[imageID] = true
	} else {
		delete(s.completed, imageID)
	}
}

// IsComplete reports whether the image was marked as fully annotated
func (s *Store) IsComplete(imageID string) bool {
	return s.completed[imageID]
}

// Images returns the identifiers of every image with annotations, sorted
func (s *Store) Images() []string {
	ret := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ret = append(ret, id)
	}
	sort.Strings(ret)
	return ret
}

// Len returns the number of images with annotations
func (s *Store) Len() int {
	return len(s.entries)
}

// CountAnnotations returns the total number of annotations across images
func (s *Store) CountAnnotations() int {
	total := 0
	for _, list := range s.entries {
		total += len(list)
	}
	return total
}

// Clone returns a deep copy of the store
func (s *Store) Clone() *Store {
	ret := NewStore()
	for id, list := range s.entries {
		ret.entries[id] = CloneList(list)
	}
	for id := range s.completed {
		ret.completed[id] = true
	}
	return ret
}
