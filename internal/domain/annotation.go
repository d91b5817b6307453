package domain

import "context"

// BBox is an axis-aligned box in absolute pixel coordinates of the source image.
type BBox struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// Width returns the horizontal extent of the box
func (b BBox) Width() int {
	return b.X2 - b.X1
}

// Height returns the vertical extent of the box
func (b BBox) Height() int {
	return b.Y2 - b.Y1
}

// Contains reports whether the point lies inside the box, edges included
func (b BBox) Contains(x, y float64) bool {
	return float64(b.X1) <= x && x <= float64(b.X2) &&
		float64(b.Y1) <= y && y <= float64(b.Y2)
}

// Slice returns the box as [x1, y1, x2, y2]
func (b BBox) Slice() []int {
	return []int{b.X1, b.Y1, b.X2, b.Y2}
}

// Provenance marks an annotation suggested by a detection model and not yet approved
type Provenance struct {
	Confidence     float64
	ModelSuggested bool
}

// Annotation is a single labelled box on an image
type Annotation struct {
	ClassName  string
	BBox       BBox
	Visible    bool
	Color      string
	Provenance *Provenance
}

// Clone returns a deep copy of the annotation
func (a Annotation) Clone() Annotation {
	if a.Provenance != nil {
		p := *a.Provenance
		a.Provenance = &p
	}
	return a
}

// IsModelSuggestion reports whether the annotation still carries model provenance
func (a Annotation) IsModelSuggestion() bool {
	return a.Provenance != nil && a.Provenance.ModelSuggested
}

// CloneList deep copies a per-image annotation list. A nil list stays nil.
func CloneList(list []Annotation) []Annotation {
	if list == nil {
		return nil
	}
	ret := make([]Annotation, len(list))
	for i, ann := range list {
		ret[i] = ann.Clone()
	}
	return ret
}

// VisibleOnly returns deep copies of the visible annotations in list
func VisibleOnly(list []Annotation) []Annotation {
	var ret []Annotation
	for _, ann := range list {
		if ann.Visible {
			ret = append(ret, ann.Clone())
		}
	}
	return ret
}

// Detection is a single result of a detector run
type Detection struct {
	ClassName  string
	BBox       BBox
	Confidence float64
	Color      string
}

// AnnotationStats provides statistics about the committed annotations
type AnnotationStats struct {
	TotalImages      int64
	AnnotatedImages  int64
	FinishedImages   int64
	TotalAnnotations int64
	PerClass         map[string]int64
}

// AnnotationRepository defines the interface for annotation storage operations
type AnnotationRepository interface {
	// ReplaceForImage atomically replaces every annotation of an image
	ReplaceForImage(ctx context.Context, imageID int64, annotations []Annotation) error

	// ListForImage retrieves the ordered annotation list of an image
	ListForImage(ctx context.Context, imageID int64) ([]Annotation, error)

	// LoadStore reads every committed annotation into a Store
	LoadStore(ctx context.Context) (*Store, error)

	// SaveStore writes a Store, removing images that are absent from it
	SaveStore(ctx context.Context, store *Store) error

	// GetStats returns overall annotation statistics
	GetStats(ctx context.Context) (*AnnotationStats, error)
}
