// Package detector provides the model collaborators that suggest annotations.
package detector

import (
	"context"
	"strings"

	"github.com/lewtec/demarcador/internal/domain"
)

// Request describes one prediction
type Request struct {
	// ImagePath is relative to the project folder
	ImagePath string
	// ClassFilter keeps only detections of this class when set
	ClassFilter string
	// Prompt and AntiPrompt steer models that accept text guidance
	Prompt              string
	AntiPrompt          string
	ConfidenceThreshold float64
}

// Detector predicts bounding boxes for an image
type Detector interface {
	Predict(ctx context.Context, req Request) ([]domain.Detection, error)
}

// Filter keeps detections at or above threshold, and of class when class is not empty
func Filter(dets []domain.Detection, threshold float64, class string) []domain.Detection {
	ret := make([]domain.Detection, 0, len(dets))
	for _, det := range dets {
		if det.Confidence < threshold {
			continue
		}
		if class != "" && !strings.EqualFold(det.ClassName, class) {
			continue
		}
		ret = append(ret, det)
	}
	return ret
}

// Placeholder always reports the same two objects. It stands in for a real
// model during development and tests.
type Placeholder struct{}

func (Placeholder) Predict(ctx context.Context, req Request) ([]domain.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dets := []domain.Detection{
		{ClassName: "person", BBox: domain.BBox{X1: 100, Y1: 50, X2: 200, Y2: 300}, Confidence: 0.85},
		{ClassName: "car", BBox: domain.BBox{X1: 300, Y1: 200, X2: 450, Y2: 320}, Confidence: 0.72},
	}
	return Filter(dets, req.ConfidenceThreshold, req.ClassFilter), nil
}
