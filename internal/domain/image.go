package domain

import (
	"context"
	"time"
)

// Image represents an image registered in the project index
type Image struct {
	ID         int64
	Path       string
	Width      int
	Height     int
	SHA256     string
	IngestedAt time.Time
	IsFinished bool
}

// ImageRepository defines the interface for image storage operations
type ImageRepository interface {
	// Upsert creates an image record or refreshes its metadata
	Upsert(ctx context.Context, path string, width, height int, sha256 string) (*Image, error)

	// GetByID retrieves an image by its ID
	GetByID(ctx context.Context, id int64) (*Image, error)

	// GetByPath retrieves an image by its path
	GetByPath(ctx context.Context, path string) (*Image, error)

	// List retrieves all images
	List(ctx context.Context) ([]*Image, error)

	// Count returns the total number of images
	Count(ctx context.Context) (int64, error)

	// SetFinished updates the completion flag of an image
	SetFinished(ctx context.Context, id int64, finished bool) error

	// Delete removes an image by ID
	Delete(ctx context.Context, id int64) error
}
