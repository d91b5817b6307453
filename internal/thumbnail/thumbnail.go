// Package thumbnail renders small previews of the project images
package thumbnail

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/go-git/go-billy/v6"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultDir  = ".thumbnails"
	DefaultSize = 256
)

// Generator writes PNG thumbnails fitted inside Size x Size
type Generator struct {
	FS   billy.Filesystem
	Dir  string
	Size int
	Jobs int
}

// PathFor returns the thumbnail path of an image
func (g Generator) PathFor(imageID string) string {
	dir := g.Dir
	if dir == "" {
		dir = DefaultDir
	}
	return path.Join(dir, strings.TrimSuffix(imageID, path.Ext(imageID))+".png")
}

// Render creates the thumbnail of one image
func (g Generator) Render(imageID string) error {
	size := g.Size
	if size <= 0 {
		size = DefaultSize
	}
	src, err := g.FS.Open(imageID)
	if err != nil {
		return fmt.Errorf("while opening %s: %w", imageID, err)
	}
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	src.Close()
	if err != nil {
		return fmt.Errorf("while decoding %s: %w", imageID, err)
	}
	thumb := imaging.Fit(img, size, size, imaging.Lanczos)

	target := g.PathFor(imageID)
	if err := g.FS.MkdirAll(path.Dir(target), 0o755); err != nil {
		return fmt.Errorf("while creating thumbnail directory: %w", err)
	}
	tempFile := path.Join(path.Dir(target), fmt.Sprintf(".%s.png", uuid.New()))
	f, err := g.FS.Create(tempFile)
	if err != nil {
		return err
	}
	if err := imaging.Encode(f, thumb, imaging.PNG); err != nil {
		f.Close()
		g.FS.Remove(tempFile)
		return fmt.Errorf("while encoding thumbnail of %s: %w", imageID, err)
	}
	if err := f.Close(); err != nil {
		g.FS.Remove(tempFile)
		return err
	}
	if err := g.FS.Rename(tempFile, target); err != nil {
		g.FS.Remove(tempFile)
		return err
	}
	return nil
}

// RenderAll renders every image with a pool of Jobs workers. Failures are
// logged and counted; it returns the number of thumbnails written.
func (g Generator) RenderAll(ctx context.Context, images []string) (int, int) {
	jobs := max(g.Jobs, 1)
	queue := make(chan string)
	var written, failed atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for imageID := range queue {
				if err := g.Render(imageID); err != nil {
					log.Printf("thumbnail: %s", err)
					failed.Add(1)
					continue
				}
				written.Add(1)
			}
		}()
	}

feed:
	for _, imageID := range images {
		select {
		case <-ctx.Done():
			break feed
		case queue <- imageID:
		}
	}
	close(queue)
	wg.Wait()
	return int(written.Load()), int(failed.Load())
}
