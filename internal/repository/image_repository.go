package repository

import (
	"context"
	"database/sql"

	"github.com/lewtec/demarcador/internal/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const imageColumns = `id, path, width, height, sha256, ingested_at, is_finished`

// ImageRepository implements domain.ImageRepository over SQLite
type ImageRepository struct {
	db querier
}

// NewImageRepository creates a new ImageRepository
func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// NewImageRepositoryWithTx creates a new ImageRepository with a transaction
func NewImageRepositoryWithTx(tx *sql.Tx) *ImageRepository {
	return &ImageRepository{db: tx}
}

func scanImage(row interface{ Scan(...any) error }) (*domain.Image, error) {
	var img domain.Image
	err := row.Scan(&img.ID, &img.Path, &img.Width, &img.Height, &img.SHA256, &img.IngestedAt, &img.IsFinished)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// Upsert creates an image record or refreshes its size and hash
func (r *ImageRepository) Upsert(ctx context.Context, path string, width, height int, sha256 string) (*domain.Image, error) {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO images (path, width, height, sha256) VALUES (?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET width=excluded.width, height=excluded.height, sha256=excluded.sha256`,
		path, width, height, sha256)
	if err != nil {
		return nil, err
	}
	return r.GetByPath(ctx, path)
}

// ensure returns the id of path, creating a bare record when missing
func (r *ImageRepository) ensure(ctx context.Context, path string) (int64, error) {
	_, err := r.db.ExecContext(ctx, `INSERT INTO images (path) VALUES (?) ON CONFLICT(path) DO NOTHING`, path)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.db.QueryRowContext(ctx, `SELECT id FROM images WHERE path = ?`, path).Scan(&id)
	return id, err
}

// GetByID retrieves an image by its ID
func (r *ImageRepository) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	img, err := scanImage(r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return img, nil
}

// GetByPath retrieves an image by its path
func (r *ImageRepository) GetByPath(ctx context.Context, path string) (*domain.Image, error) {
	img, err := scanImage(r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE path = ?`, path))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return img, nil
}

// List retrieves all images ordered by path
func (r *ImageRepository) List(ctx context.Context) ([]*domain.Image, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+imageColumns+` FROM images ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, img)
	}
	return result, rows.Err()
}

// Count returns the total number of images
func (r *ImageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&count)
	return count, err
}

// SetFinished updates the completion flag of an image
func (r *ImageRepository) SetFinished(ctx context.Context, id int64, finished bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE images SET is_finished = ? WHERE id = ?`, finished, id)
	return err
}

// Delete removes an image by ID
func (r *ImageRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	return err
}

// Verify that ImageRepository implements domain.ImageRepository
var _ domain.ImageRepository = (*ImageRepository)(nil)
