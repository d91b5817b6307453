package codec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v6"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lewtec/demarcador/internal/domain"
)

// DefaultSidecarDir is the directory holding one JSON document per image
const DefaultSidecarDir = "annotations"

//go:embed sidecar.schema.json
var sidecarSchemaText string

const sidecarSchemaURL = "sidecar.schema.json"

var (
	sidecarSchemaOnce sync.Once
	sidecarSchema     *jsonschema.Schema
	sidecarSchemaErr  error
)

func compiledSidecarSchema() (*jsonschema.Schema, error) {
	sidecarSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(sidecarSchemaURL, strings.NewReader(sidecarSchemaText)); err != nil {
			sidecarSchemaErr = fmt.Errorf("while adding sidecar schema: %w", err)
			return
		}
		sidecarSchema, sidecarSchemaErr = compiler.Compile(sidecarSchemaURL)
	})
	return sidecarSchema, sidecarSchemaErr
}

type sidecarDocument struct {
	Annotations      []sidecarAnnotation `json:"annotations"`
	IsFullyAnnotated bool                `json:"is_fully_annotated"`
}

type sidecarAnnotation struct {
	Class             string   `json:"class"`
	BBox              [4]int   `json:"bbox"`
	Visible           bool     `json:"visible"`
	Color             string   `json:"color"`
	Confidence        *float64 `json:"confidence,omitempty"`
	IsModelAnnotation bool     `json:"is_model_annotation,omitempty"`
}

// Sidecar stores each image as `<dir>/<name without extension>.json`. Every
// annotation field survives the round trip.
type Sidecar struct {
	Dir string
}

// PathFor returns the document path of an image
func (c Sidecar) PathFor(imageID string) string {
	dir := c.Dir
	if dir == "" {
		dir = DefaultSidecarDir
	}
	base := strings.TrimSuffix(imageID, path.Ext(imageID))
	return path.Join(dir, base+".json")
}

// Encode writes the annotation list of one image
func (c Sidecar) Encode(w io.Writer, list []domain.Annotation, complete bool) error {
	doc := sidecarDocument{
		Annotations:      make([]sidecarAnnotation, 0, len(list)),
		IsFullyAnnotated: complete,
	}
	for _, ann := range list {
		item := sidecarAnnotation{
			Class:   ann.ClassName,
			BBox:    [4]int{ann.BBox.X1, ann.BBox.Y1, ann.BBox.X2, ann.BBox.Y2},
			Visible: ann.Visible,
			Color:   ann.Color,
		}
		if ann.Provenance != nil {
			confidence := ann.Provenance.Confidence
			item.Confidence = &confidence
			item.IsModelAnnotation = ann.Provenance.ModelSuggested
		}
		doc.Annotations = append(doc.Annotations, item)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("while encoding sidecar: %w", err)
	}
	return nil
}

// Decode validates and parses one document
func (c Sidecar) Decode(r io.Reader) ([]domain.Annotation, bool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, fmt.Errorf("while reading sidecar: %w", err)
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, false, fmt.Errorf("while parsing sidecar: %w", err)
	}
	schema, err := compiledSidecarSchema()
	if err != nil {
		return nil, false, err
	}
	if err := schema.Validate(instance); err != nil {
		return nil, false, fmt.Errorf("invalid sidecar: %w", err)
	}
	var doc sidecarDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("while decoding sidecar: %w", err)
	}
	list := make([]domain.Annotation, 0, len(doc.Annotations))
	for _, item := range doc.Annotations {
		ann := domain.Annotation{
			ClassName: item.Class,
			BBox:      domain.BBox{X1: item.BBox[0], Y1: item.BBox[1], X2: item.BBox[2], Y2: item.BBox[3]},
			Visible:   item.Visible,
			Color:     item.Color,
		}
		if item.Confidence != nil || item.IsModelAnnotation {
			ann.Provenance = &domain.Provenance{ModelSuggested: item.IsModelAnnotation}
			if item.Confidence != nil {
				ann.Provenance.Confidence = *item.Confidence
			}
		}
		list = append(list, ann)
	}
	return list, doc.IsFullyAnnotated, nil
}

// Load reads the documents of the given images. Missing documents mean no
// annotations; invalid ones are logged and skipped.
func (c Sidecar) Load(fs billy.Filesystem, images []string) (*domain.Store, error) {
	store := domain.NewStore()
	for _, imageID := range images {
		name := c.PathFor(imageID)
		data, err := readFile(fs, name)
		if err != nil {
			return nil, err
		}
		if data == nil {
			continue
		}
		list, complete, err := c.Decode(bytes.NewReader(data))
		if err != nil {
			log.Printf("codec: skipping %s: %s", name, err)
			continue
		}
		if len(domain.VisibleOnly(list)) == 0 {
			continue
		}
		for _, ann := range list {
			store.Append(imageID, ann)
		}
		store.SetComplete(imageID, complete)
	}
	log.Printf("codec: loaded %d annotations for %d images from %s", store.CountAnnotations(), store.Len(), c.Dir)
	return store, nil
}

// Save writes a document for every image of the store and removes the
// documents of the listed images that no longer have annotations.
func (c Sidecar) Save(fs billy.Filesystem, store *domain.Store, images []string) error {
	for _, imageID := range store.Images() {
		list, _ := store.Get(imageID)
		complete := store.IsComplete(imageID)
		err := writeAtomic(fs, c.PathFor(imageID), func(w io.Writer) error {
			return c.Encode(w, list, complete)
		})
		if err != nil {
			return fmt.Errorf("while saving %s: %w", imageID, err)
		}
	}
	for _, imageID := range images {
		if store.Has(imageID) {
			continue
		}
		err := fs.Remove(c.PathFor(imageID))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("while removing stale sidecar of %s: %w", imageID, err)
		}
	}
	return nil
}
