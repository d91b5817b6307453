package geometry

import "github.com/lewtec/demarcador/internal/domain"

// Edge names one of the four scalar coordinates of a box
type Edge string

const (
	EdgeX1 Edge = "x1"
	EdgeY1 Edge = "y1"
	EdgeX2 Edge = "x2"
	EdgeY2 Edge = "y2"
)

// ParseEdge converts "x1", "y1", "x2" or "y2" into an Edge
func ParseEdge(s string) (Edge, bool) {
	switch e := Edge(s); e {
	case EdgeX1, EdgeY1, EdgeX2, EdgeY2:
		return e, true
	}
	return "", false
}

// Edit is a partial update of a box: only the listed edges change
type Edit map[Edge]int

// Resize applies a partial edge update and restores the box invariants:
// ordered coordinates, minimum size and image bounds. When the box is too small
// the edge that was not dragged yields, so the dragged edge stays under the
// cursor.
func Resize(b domain.BBox, edit Edit, w, h, minSize int) domain.BBox {
	b = Normalize(b)
	movedX1, movedX2 := applyEdge(&b.X1, edit, EdgeX1), applyEdge(&b.X2, edit, EdgeX2)
	movedY1, movedY2 := applyEdge(&b.Y1, edit, EdgeY1), applyEdge(&b.Y2, edit, EdgeY2)

	// a drag across the opposite edge swaps which coordinate is being dragged
	if b.X1 > b.X2 {
		b.X1, b.X2 = b.X2, b.X1
		movedX1, movedX2 = movedX2, movedX1
	}
	if b.Y1 > b.Y2 {
		b.Y1, b.Y2 = b.Y2, b.Y1
		movedY1, movedY2 = movedY2, movedY1
	}

	b.X1, b.X2 = FitAxis(b.X1, b.X2, minSize, w, !(movedX2 && !movedX1))
	b.Y1, b.Y2 = FitAxis(b.Y1, b.Y2, minSize, h, !(movedY2 && !movedY1))
	return b
}

func applyEdge(dst *int, edit Edit, edge Edge) bool {
	v, ok := edit[edge]
	if ok {
		*dst = v
	}
	return ok
}
