package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lewtec/demarcador/internal/domain"
)

// AnnotationRepository implements domain.AnnotationRepository over SQLite
type AnnotationRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewAnnotationRepository creates a new AnnotationRepository
func NewAnnotationRepository(db *sql.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

// NewAnnotationRepositoryWithTx creates a new AnnotationRepository with a transaction
func NewAnnotationRepositoryWithTx(tx *sql.Tx) *AnnotationRepository {
	return &AnnotationRepository{tx: tx}
}

func (r *AnnotationRepository) querier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// inTx runs fn inside the repository transaction, or a new one
func (r *AnnotationRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("while starting transaction: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceForImage(ctx context.Context, tx *sql.Tx, imageID int64, annotations []domain.Annotation) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM annotations WHERE image_id = ?`, imageID)
	if err != nil {
		return fmt.Errorf("while clearing annotations of image %d: %w", imageID, err)
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO annotations (image_id, position, class_name, x1, y1, x2, y2, visible, color, confidence, is_model_annotation)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, ann := range annotations {
		confidence := sql.NullFloat64{}
		modelSuggested := false
		if ann.Provenance != nil {
			confidence = sql.NullFloat64{Float64: ann.Provenance.Confidence, Valid: true}
			modelSuggested = ann.Provenance.ModelSuggested
		}
		_, err := stmt.ExecContext(ctx, imageID, i, ann.ClassName,
			ann.BBox.X1, ann.BBox.Y1, ann.BBox.X2, ann.BBox.Y2,
			ann.Visible, ann.Color, confidence, modelSuggested)
		if err != nil {
			return fmt.Errorf("while inserting annotation %d of image %d: %w", i, imageID, err)
		}
	}
	return nil
}

// ReplaceForImage atomically replaces every annotation of an image
func (r *AnnotationRepository) ReplaceForImage(ctx context.Context, imageID int64, annotations []domain.Annotation) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		return replaceForImage(ctx, tx, imageID, annotations)
	})
}

func scanAnnotation(rows *sql.Rows) (domain.Annotation, error) {
	var ann domain.Annotation
	var confidence sql.NullFloat64
	var modelSuggested bool
	err := rows.Scan(&ann.ClassName, &ann.BBox.X1, &ann.BBox.Y1, &ann.BBox.X2, &ann.BBox.Y2,
		&ann.Visible, &ann.Color, &confidence, &modelSuggested)
	if err != nil {
		return ann, err
	}
	if confidence.Valid || modelSuggested {
		ann.Provenance = &domain.Provenance{Confidence: confidence.Float64, ModelSuggested: modelSuggested}
	}
	return ann, nil
}

// ListForImage retrieves the ordered annotation list of an image
func (r *AnnotationRepository) ListForImage(ctx context.Context, imageID int64) ([]domain.Annotation, error) {
	rows, err := r.querier().QueryContext(ctx, `
SELECT class_name, x1, y1, x2, y2, visible, color, confidence, is_model_annotation
FROM annotations WHERE image_id = ? ORDER BY position`, imageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Annotation{}
	for rows.Next() {
		ann, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ann)
	}
	return result, rows.Err()
}

// LoadStore reads every committed annotation into a Store
func (r *AnnotationRepository) LoadStore(ctx context.Context) (*domain.Store, error) {
	rows, err := r.querier().QueryContext(ctx, `
SELECT i.path, a.class_name, a.x1, a.y1, a.x2, a.y2, a.visible, a.color, a.confidence, a.is_model_annotation
FROM annotations a JOIN images i ON i.id = a.image_id
ORDER BY i.path, a.position`)
	if err != nil {
		return nil, fmt.Errorf("while querying annotations: %w", err)
	}
	defer rows.Close()

	store := domain.NewStore()
	for rows.Next() {
		var path string
		var ann domain.Annotation
		var confidence sql.NullFloat64
		var modelSuggested bool
		err := rows.Scan(&path, &ann.ClassName, &ann.BBox.X1, &ann.BBox.Y1, &ann.BBox.X2, &ann.BBox.Y2,
			&ann.Visible, &ann.Color, &confidence, &modelSuggested)
		if err != nil {
			return nil, err
		}
		if confidence.Valid || modelSuggested {
			ann.Provenance = &domain.Provenance{Confidence: confidence.Float64, ModelSuggested: modelSuggested}
		}
		store.Append(path, ann)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	finished, err := r.querier().QueryContext(ctx, `SELECT path FROM images WHERE is_finished`)
	if err != nil {
		return nil, fmt.Errorf("while querying finished images: %w", err)
	}
	defer finished.Close()
	for finished.Next() {
		var path string
		if err := finished.Scan(&path); err != nil {
			return nil, err
		}
		if store.Has(path) {
			store.SetComplete(path, true)
		}
	}
	return store, finished.Err()
}

// SaveStore writes a Store. Images missing from it lose their annotations and
// completion flag but stay indexed.
func (r *AnnotationRepository) SaveStore(ctx context.Context, store *domain.Store) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		images := NewImageRepositoryWithTx(tx)
		keep := map[int64]bool{}
		for _, path := range store.Images() {
			id, err := images.ensure(ctx, path)
			if err != nil {
				return fmt.Errorf("while registering image %s: %w", path, err)
			}
			list, _ := store.Get(path)
			if err := replaceForImage(ctx, tx, id, list); err != nil {
				return err
			}
			if err := images.SetFinished(ctx, id, store.IsComplete(path)); err != nil {
				return fmt.Errorf("while updating completion of %s: %w", path, err)
			}
			keep[id] = true
		}

		all, err := images.List(ctx)
		if err != nil {
			return err
		}
		for _, img := range all {
			if keep[img.ID] {
				continue
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM annotations WHERE image_id = ?`, img.ID); err != nil {
				return fmt.Errorf("while clearing annotations of %s: %w", img.Path, err)
			}
			if err := images.SetFinished(ctx, img.ID, false); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetStats returns overall annotation statistics
func (r *AnnotationRepository) GetStats(ctx context.Context) (*domain.AnnotationStats, error) {
	q := r.querier()
	stats := &domain.AnnotationStats{PerClass: map[string]int64{}}

	err := q.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(is_finished), 0) FROM images`).
		Scan(&stats.TotalImages, &stats.FinishedImages)
	if err != nil {
		return nil, err
	}
	err = q.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT image_id) FROM annotations`).
		Scan(&stats.TotalAnnotations, &stats.AnnotatedImages)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `SELECT class_name, COUNT(*) FROM annotations GROUP BY class_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var class string
		var count int64
		if err := rows.Scan(&class, &count); err != nil {
			return nil, err
		}
		stats.PerClass[class] = count
	}
	return stats, rows.Err()
}

// Verify that AnnotationRepository implements domain.AnnotationRepository
var _ domain.AnnotationRepository = (*AnnotationRepository)(nil)
