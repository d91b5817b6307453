package annotation

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/lewtec/demarcador/internal/domain"
	"github.com/lewtec/demarcador/internal/repository"
	_ "modernc.org/sqlite"
)

func GetDatabase(filename string) (*sql.DB, error) {
	return sql.Open("sqlite", filename+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
}

// PrepareDatabase brings the schema up to date
func PrepareDatabase(ctx context.Context, db *sql.DB) error {
	log.Printf("PrepareDatabase: checking connection")
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("while connecting to the database: %w", err)
	}
	log.Printf("PrepareDatabase: applying migrations")
	if err := repository.MigrateUp(db); err != nil {
		return err
	}
	log.Printf("PrepareDatabase: success!")
	return nil
}

// ExportStore mirrors a Store into the database index
func ExportStore(ctx context.Context, db *sql.DB, store *domain.Store) error {
	repo := repository.NewAnnotationRepository(db)
	if err := repo.SaveStore(ctx, store); err != nil {
		return fmt.Errorf("while exporting annotations to the database: %w", err)
	}
	log.Printf("ExportStore: wrote %d annotations for %d images", store.CountAnnotations(), store.Len())
	return nil
}
