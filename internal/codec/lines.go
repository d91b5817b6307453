package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v6"

	"github.com/lewtec/demarcador/internal/domain"
	"github.com/lewtec/demarcador/internal/geometry"
	"github.com/lewtec/demarcador/internal/imagemeta"
)

// DefaultLinesFile is the name of the line file inside the image folder
const DefaultLinesFile = "annotations.txt"

// ErrInvalidField is returned when a value can't be written to the line format
var ErrInvalidField = errors.New("field contains a separator")

// ErrNotFinite is reported for NaN or infinite coordinates
var ErrNotFinite = errors.New("value is not a finite number")

// Lines reads and writes the `image_id,class_name,cx,cy,w,h` format. Only
// class and geometry survive: visibility, color and completion are dropped.
type Lines struct {
	Dims imagemeta.Provider
	// Palette colors the loaded annotations by their position in the image list
	Palette []string
}

// Encode writes every annotation of store, images in sorted order
func (c Lines) Encode(w io.Writer, store *domain.Store) error {
	bw := bufio.NewWriter(w)
	for _, imageID := range store.Images() {
		if strings.ContainsAny(imageID, ",\n") {
			return fmt.Errorf("image %q: %w", imageID, ErrInvalidField)
		}
		imgW, imgH := c.Dims.Dimensions(imageID)
		if imgW <= 0 || imgH <= 0 {
			log.Printf("codec: skipping %s, image has no area (%dx%d)", imageID, imgW, imgH)
			continue
		}
		list, _ := store.Get(imageID)
		for _, ann := range list {
			if !ann.Visible {
				continue
			}
			if strings.ContainsAny(ann.ClassName, ",\n") {
				return fmt.Errorf("class %q on %s: %w", ann.ClassName, imageID, ErrInvalidField)
			}
			n := ToNormalized(ann.BBox, imgW, imgH)
			_, err := fmt.Fprintf(bw, "%s,%s,%.6f,%.6f,%.6f,%.6f\n", imageID, ann.ClassName, n.CX, n.CY, n.W, n.H)
			if err != nil {
				return fmt.Errorf("while writing annotation: %w", err)
			}
		}
	}
	return bw.Flush()
}

// Decode parses a line file. Malformed lines are logged and skipped.
func (c Lines) Decode(r io.Reader) (*domain.Store, error) {
	store := domain.NewStore()
	counts := map[string]int{}
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("while reading annotation lines: %w", readErr)
		}
		if raw == "" && readErr == io.EOF {
			break
		}
		lineNo++
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		imageID, ann, err := c.parseLine(line)
		if err != nil {
			log.Printf("codec: skipping line %d: %s", lineNo, err)
			continue
		}
		if len(c.Palette) > 0 {
			ann.Color = c.Palette[counts[imageID]%len(c.Palette)]
		}
		counts[imageID]++
		store.Append(imageID, ann)
	}
	return store, nil
}

func (c Lines) parseLine(line string) (string, domain.Annotation, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 6 {
		return "", domain.Annotation{}, fmt.Errorf("expected 6 fields, got %d", len(parts))
	}
	imageID := strings.TrimSpace(parts[0])
	className := strings.TrimSpace(parts[1])
	if imageID == "" {
		return "", domain.Annotation{}, fmt.Errorf("empty image name")
	}
	var values [4]float64
	for i := range values {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i+2]), 64)
		if err != nil {
			return "", domain.Annotation{}, fmt.Errorf("field %d: %w", i+3, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", domain.Annotation{}, fmt.Errorf("field %d: %w", i+3, ErrNotFinite)
		}
		values[i] = v
	}
	if values[2] < 0 || values[3] < 0 {
		return "", domain.Annotation{}, fmt.Errorf("negative box size %vx%v", values[2], values[3])
	}
	imgW, imgH := c.Dims.Dimensions(imageID)
	box := FromNormalized(Normalized{CX: values[0], CY: values[1], W: values[2], H: values[3]}, imgW, imgH)
	return imageID, domain.Annotation{
		ClassName: className,
		BBox:      geometry.Normalize(box),
		Visible:   true,
	}, nil
}

// Load reads name from fs. A missing file is an empty store.
func (c Lines) Load(fs billy.Filesystem, name string) (*domain.Store, error) {
	data, err := readFile(fs, name)
	if err != nil {
		return nil, err
	}
	store, err := c.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	log.Printf("codec: loaded %d annotations for %d images from %s", store.CountAnnotations(), store.Len(), name)
	return store, nil
}

// Save replaces name on fs with the encoded store
func (c Lines) Save(fs billy.Filesystem, name string, store *domain.Store) error {
	return writeAtomic(fs, name, func(w io.Writer) error {
		return c.Encode(w, store)
	})
}
