package geometry

import "github.com/lewtec/demarcador/internal/domain"

// Viewport describes how the image is zoomed and panned on the canvas
type Viewport struct {
	Zoom float64
	PanX float64
	PanY float64
}

// Identity is the viewport where canvas and image coordinates coincide
var Identity = Viewport{Zoom: 1}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// ToImage converts canvas coordinates to image coordinates
func (v Viewport) ToImage(x, y float64) (float64, float64) {
	return (x - v.PanX) / v.zoom(), (y - v.PanY) / v.zoom()
}

// ToCanvas converts image coordinates to canvas coordinates
func (v Viewport) ToCanvas(x, y float64) (float64, float64) {
	return x*v.zoom() + v.PanX, y*v.zoom() + v.PanY
}

// Handle is one of the eight resize grips of a selected box
type Handle string

const (
	HandleNW Handle = "nw"
	HandleNE Handle = "ne"
	HandleSW Handle = "sw"
	HandleSE Handle = "se"
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleW  Handle = "w"
	HandleE  Handle = "e"
)

// Handles lists the grips in hit-test order, corners first
var Handles = []Handle{HandleNW, HandleNE, HandleSW, HandleSE, HandleN, HandleS, HandleW, HandleE}

// Edges returns the box edges a handle drags
func (h Handle) Edges() []Edge {
	var ret []Edge
	for _, c := range string(h) {
		switch c {
		case 'n':
			ret = append(ret, EdgeY1)
		case 's':
			ret = append(ret, EdgeY2)
		case 'w':
			ret = append(ret, EdgeX1)
		case 'e':
			ret = append(ret, EdgeX2)
		}
	}
	return ret
}

// HandlePoint returns the canvas position of a handle for a box
func (v Viewport) HandlePoint(b domain.BBox, h Handle) (float64, float64) {
	x1, y1 := v.ToCanvas(float64(b.X1), float64(b.Y1))
	x2, y2 := v.ToCanvas(float64(b.X2), float64(b.Y2))
	mx, my := (x1+x2)/2, (y1+y2)/2
	switch h {
	case HandleNW:
		return x1, y1
	case HandleNE:
		return x2, y1
	case HandleSW:
		return x1, y2
	case HandleSE:
		return x2, y2
	case HandleN:
		return mx, y1
	case HandleS:
		return mx, y2
	case HandleW:
		return x1, my
	default:
		return x2, my
	}
}
