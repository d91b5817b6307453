// Package codec persists an annotation Store, either as a single YOLO-style
// line file or as one JSON document per image.
package codec

import "github.com/lewtec/demarcador/internal/domain"

// Normalized is a box in center form, each value a fraction of the image size
type Normalized struct {
	CX float64
	CY float64
	W  float64
	H  float64
}

// ToNormalized converts a pixel box into center form. The image size must be positive.
func ToNormalized(b domain.BBox, imgW, imgH int) Normalized {
	w, h := float64(imgW), float64(imgH)
	return Normalized{
		CX: float64(b.X1+b.X2) / 2 / w,
		CY: float64(b.Y1+b.Y2) / 2 / h,
		W:  float64(b.X2-b.X1) / w,
		H:  float64(b.Y2-b.Y1) / h,
	}
}

// FromNormalized converts center form back to a pixel box, truncating each
// coordinate.
func FromNormalized(n Normalized, imgW, imgH int) domain.BBox {
	w, h := float64(imgW), float64(imgH)
	return domain.BBox{
		X1: int((n.CX - n.W/2) * w),
		Y1: int((n.CY - n.H/2) * h),
		X2: int((n.CX + n.W/2) * w),
		Y2: int((n.CY + n.H/2) * h),
	}
}
