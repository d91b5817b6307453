package annotation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/lewtec/demarcador/internal/catalog"
	"github.com/lewtec/demarcador/internal/codec"
	"github.com/lewtec/demarcador/internal/detector"
	"github.com/lewtec/demarcador/internal/domain"
	"github.com/lewtec/demarcador/internal/imagemeta"
	"github.com/lewtec/demarcador/internal/repository"
	"github.com/lewtec/demarcador/internal/session"
)

// ConfigFile is the name of the project configuration inside a project folder
const ConfigFile = "config.yaml"

// Project is a folder of images together with its configuration and
// annotation files.
type Project struct {
	Dir    string
	FS     billy.Filesystem
	Config *Config
	Dims   *imagemeta.FolderProvider
}

// NewProject builds a project over an arbitrary filesystem. dir is only used
// for folder scanning and watching.
func NewProject(dir string, fs billy.Filesystem, config *Config) *Project {
	if config == nil {
		config = DefaultConfig()
	}
	return &Project{
		Dir:    dir,
		FS:     fs,
		Config: config,
		Dims:   imagemeta.NewFolderProvider(fs, config.Images.FallbackWidth, config.Images.FallbackHeight),
	}
}

// OpenProject opens the project in dir. A missing config.yaml means defaults.
func OpenProject(dir string) (*Project, error) {
	stat, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("while opening project %s: %w", dir, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("project %s is not a folder", dir)
	}
	config := DefaultConfig()
	configFile := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(configFile); err == nil {
		config, err = LoadConfig(configFile)
		if err != nil {
			return nil, fmt.Errorf("while loading %s: %w", configFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	} else {
		log.Printf("Project: no %s in %s, using defaults", ConfigFile, dir)
	}
	return NewProject(dir, osfs.New(dir), config), nil
}

// Images lists the images of the project folder in display order
func (p *Project) Images() ([]string, error) {
	return catalog.Scan(p.Dir)
}

func (p *Project) linesCodec() codec.Lines {
	return codec.Lines{Dims: p.Dims, Palette: p.Config.Palette}
}

func (p *Project) sidecarCodec() codec.Sidecar {
	return codec.Sidecar{Dir: p.Config.Storage.AnnotationsDir}
}

// LoadStore reads the committed annotations in the configured format
func (p *Project) LoadStore(images []string) (*domain.Store, error) {
	switch p.Config.Storage.Format {
	case FormatLines:
		return p.linesCodec().Load(p.FS, p.Config.Storage.AnnotationsFile)
	case FormatJSON:
		return p.sidecarCodec().Load(p.FS, images)
	}
	return nil, fmt.Errorf("storage format %q: %w", p.Config.Storage.Format, ErrUnknownFormat)
}

// SaveStore writes the committed annotations in the configured format
func (p *Project) SaveStore(store *domain.Store, images []string) error {
	return p.Export(store, p.Config.Storage.Format, images)
}

// Export writes store in format, which may differ from the configured one
func (p *Project) Export(store *domain.Store, format string, images []string) error {
	var err error
	switch format {
	case FormatLines:
		err = p.linesCodec().Save(p.FS, p.Config.Storage.AnnotationsFile, store)
	case FormatJSON:
		err = p.sidecarCodec().Save(p.FS, store, images)
	default:
		return fmt.Errorf("storage format %q: %w", format, ErrUnknownFormat)
	}
	if err != nil {
		return fmt.Errorf("while saving annotations as %s: %w", format, err)
	}
	log.Printf("Project: saved %d annotations for %d images as %s", store.CountAnnotations(), store.Len(), format)
	return nil
}

// SessionOptions maps the editor settings to session options
func (p *Project) SessionOptions() session.Options {
	return session.Options{
		MinSize:         p.Config.Editor.MinBoxSize,
		PasteOffset:     p.Config.Editor.PasteOffset,
		HandleTolerance: p.Config.Editor.HandleTolerance,
		MaxHistory:      p.Config.Editor.MaxHistory,
		MinDrawSize:     p.Config.Editor.MinDrawSize,
		Palette:         p.Config.Palette,
	}
}

// NewSession starts an editing session over store
func (p *Project) NewSession(store *domain.Store) *session.Session {
	return session.New(store, p.SessionOptions())
}

// OpenImage makes images[index] the active image of s
func (p *Project) OpenImage(s *session.Session, images []string, index int) error {
	if index < 0 || index >= len(images) {
		return fmt.Errorf("image index %d out of range (%d images)", index, len(images))
	}
	w, h := p.Dims.Dimensions(images[index])
	s.Open(images[index], index, w, h)
	return nil
}

// DatabasePath returns where the SQLite index lives
func (p *Project) DatabasePath() string {
	if filepath.IsAbs(p.Config.Storage.Database) {
		return p.Config.Storage.Database
	}
	return filepath.Join(p.Dir, p.Config.Storage.Database)
}

// OpenDatabase opens the SQLite index and applies pending migrations
func (p *Project) OpenDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := GetDatabase(p.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("while opening database: %w", err)
	}
	if err := PrepareDatabase(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Detector builds the configured detection collaborator
func (p *Project) Detector() (detector.Detector, error) {
	switch p.Config.Detector.Kind {
	case DetectorPlaceholder:
		return detector.Placeholder{}, nil
	case DetectorOllama:
		return detector.NewOllama(p.Config.Detector.URL, p.Config.Detector.Model, p.FS, p.Dims)
	}
	return nil, fmt.Errorf("unknown detector kind %q", p.Config.Detector.Kind)
}

// DetectorRequest fills a prediction request from the configuration
func (p *Project) DetectorRequest(imageID, classFilter string) detector.Request {
	return detector.Request{
		ImagePath:           imageID,
		ClassFilter:         classFilter,
		Prompt:              p.Config.Detector.Prompt,
		ConfidenceThreshold: p.Config.Detector.ConfidenceThreshold,
	}
}

// Index registers images in the database with their size and hash. Images
// that can't be read are logged and skipped. It returns how many were indexed.
func (p *Project) Index(ctx context.Context, db *sql.DB, images []string) (int, error) {
	log.Printf("Index: starting transaction")
	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("while starting index transaction: %w", err)
	}
	defer tx.Rollback()

	repo := repository.NewImageRepositoryWithTx(tx)
	count := 0
	for _, imageID := range images {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		p.Dims.Forget(imageID)
		w, h, err := p.Dims.Lookup(imageID)
		if err != nil {
			log.Printf("Index: skipping %s: %s", imageID, err)
			continue
		}
		hash, err := HashFile(p.FS, imageID)
		if err != nil {
			log.Printf("Index: skipping %s: while hashing: %s", imageID, err)
			continue
		}
		if _, err := repo.Upsert(ctx, imageID, w, h, hash); err != nil {
			return count, fmt.Errorf("while indexing %s: %w", imageID, err)
		}
		count++
	}
	log.Printf("Index: committing %d images", count)
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("while committing index: %w", err)
	}
	return count, nil
}

// Unindex drops an image and its annotations from the database
func (p *Project) Unindex(ctx context.Context, db *sql.DB, imageID string) error {
	p.Dims.Forget(imageID)
	repo := repository.NewImageRepository(db)
	img, err := repo.GetByPath(ctx, imageID)
	if err != nil {
		return err
	}
	if img == nil {
		return nil
	}
	log.Printf("Index: removing %s", imageID)
	return repo.Delete(ctx, img.ID)
}
