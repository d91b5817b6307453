// Package session owns the live editing state of one image: the working list,
// the clipboard, pending model suggestions and the undo/redo history.
//
// A Session is not safe for concurrent use. Hosts that run detectors or
// decoders on other goroutines must hand results back to the goroutine that
// owns the Session before calling into it.
package session

import (
	"log"

	"github.com/lewtec/demarcador/internal/domain"
	"github.com/lewtec/demarcador/internal/geometry"
	"github.com/lewtec/demarcador/internal/history"
)

// Options tunes the editing behaviour
type Options struct {
	MinSize         int
	PasteOffset     int
	HandleTolerance float64
	MaxHistory      int
	MinDrawSize     int
	Palette         []string
}

// DefaultPalette is the color cycle used for new annotations
var DefaultPalette = []string{"#ff4444", "#44ff44", "#4444ff", "#ffff44", "#ff44ff", "#44ffff"}

// DefaultOptions returns the stock editing settings
func DefaultOptions() Options {
	return Options{
		MinSize:         geometry.DefaultMinSize,
		PasteOffset:     20,
		HandleTolerance: 8,
		MaxHistory:      history.DefaultMaxHistory,
		MinDrawSize:     5,
		Palette:         DefaultPalette,
	}
}

// Snapshot is the editable state captured for undo/redo
type Snapshot struct {
	ImageID     string
	ImageIndex  int
	Annotations []domain.Annotation
}

// Clone returns a deep copy of the snapshot
func (s Snapshot) Clone() Snapshot {
	s.Annotations = domain.CloneList(s.Annotations)
	return s
}

// Session is the editing context over a Store
type Session struct {
	store   *domain.Store
	opts    Options
	palette *Palette

	imageID    string
	imageIndex int
	width      int
	height     int

	working   []domain.Annotation
	clipboard *domain.Annotation
	pending   []domain.Annotation
	history   *history.Manager[Snapshot]
}

// New creates a Session editing store
func New(store *domain.Store, opts Options) *Session {
	if store == nil {
		store = domain.NewStore()
	}
	if opts.MinSize <= 0 {
		opts.MinSize = geometry.DefaultMinSize
	}
	if len(opts.Palette) == 0 {
		opts.Palette = DefaultPalette
	}
	return &Session{
		store:   store,
		opts:    opts,
		palette: NewPalette(opts.Palette),
		history: history.New(opts.MaxHistory, Snapshot.Clone),
	}
}

// Store returns the durable annotation store
func (s *Session) Store() *domain.Store {
	return s.store
}

// Options returns the editing settings
func (s *Session) Options() Options {
	return s.opts
}

// Palette returns the color allocator of the session
func (s *Session) Palette() *Palette {
	return s.palette
}

// Open makes imageID the active image: its committed annotations become the
// working list, pending suggestions are dropped and the history restarts with
// the loaded state as its first snapshot.
func (s *Session) Open(imageID string, index, width, height int) {
	s.imageID = imageID
	s.imageIndex = index
	s.width = width
	s.height = height
	s.pending = nil
	s.LoadWorkingList(imageID)
	s.history.Reset()
	s.Checkpoint()
}

// ImageID returns the active image
func (s *Session) ImageID() string {
	return s.imageID
}

// ImageIndex returns the position of the active image in the host's image list
func (s *Session) ImageIndex() int {
	return s.imageIndex
}

// Dimensions returns the pixel size of the active image
func (s *Session) Dimensions() (int, int) {
	return s.width, s.height
}

// LoadWorkingList replaces the working list with a deep copy of the committed
// annotations of imageID, or an empty list when there are none.
func (s *Session) LoadWorkingList(imageID string) {
	list, ok := s.store.Get(imageID)
	if !ok {
		s.working = []domain.Annotation{}
		return
	}
	s.working = list
}

// Commit writes the visible part of the working list to the store under imageID
func (s *Session) Commit(imageID string) {
	s.store.Commit(imageID, s.working)
	log.Printf("session: committed %s (%d in working list)", imageID, len(s.working))
}

// CommitCurrent commits the working list to the active image
func (s *Session) CommitCurrent() {
	s.Commit(s.imageID)
}

// MarkComplete commits the working list and flags the active image as fully annotated
func (s *Session) MarkComplete() bool {
	s.CommitCurrent()
	return s.store.MarkComplete(s.imageID)
}

// Working returns a deep copy of the working list
func (s *Session) Working() []domain.Annotation {
	return domain.CloneList(s.working)
}

// Len returns the size of the working list
func (s *Session) Len() int {
	return len(s.working)
}

// At returns a copy of the working annotation at index
func (s *Session) At(index int) (domain.Annotation, bool) {
	if !s.valid(index) {
		return domain.Annotation{}, false
	}
	return s.working[index].Clone(), true
}

func (s *Session) valid(index int) bool {
	return index >= 0 && index < len(s.working)
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		ImageID:     s.imageID,
		ImageIndex:  s.imageIndex,
		Annotations: s.working,
	}
}

// Checkpoint records the current working list in the history. Edits that
// stream many small changes (moves, resizes) call it once when they finish.
func (s *Session) Checkpoint() {
	s.history.Save(s.snapshot())
}

func (s *Session) restore(snap Snapshot) {
	s.working = snap.Annotations
	if s.working == nil {
		s.working = []domain.Annotation{}
	}
	s.imageIndex = snap.ImageIndex
}

// Undo restores the previous snapshot. It returns false at the history start.
func (s *Session) Undo() bool {
	snap, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// Redo restores the next snapshot. It returns false at the history end.
func (s *Session) Redo() bool {
	snap, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// CanUndo reports whether Undo would change the working list
func (s *Session) CanUndo() bool {
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change the working list
func (s *Session) CanRedo() bool {
	return s.history.CanRedo()
}
