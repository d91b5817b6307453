// Package imagemeta looks up pixel dimensions of images in a project folder.
package imagemeta

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"sync"

	"github.com/go-git/go-billy/v6"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultFallbackWidth  = 640
	DefaultFallbackHeight = 480
)

// Provider returns the pixel size of an image. Implementations never fail:
// unreadable images get a fallback size.
type Provider interface {
	Dimensions(imageID string) (int, int)
}

// ProviderFunc adapts a function to Provider
type ProviderFunc func(imageID string) (int, int)

func (f ProviderFunc) Dimensions(imageID string) (int, int) {
	return f(imageID)
}

// Fixed returns a Provider reporting the same size for every image
func Fixed(width, height int) Provider {
	return ProviderFunc(func(string) (int, int) {
		return width, height
	})
}

// FolderProvider reads image headers from a filesystem and caches the result
type FolderProvider struct {
	fs             billy.Filesystem
	fallbackWidth  int
	fallbackHeight int

	mu    sync.Mutex
	cache map[string][2]int
}

// NewFolderProvider creates a provider over fs. Non-positive fallbacks use 640x480.
func NewFolderProvider(fs billy.Filesystem, fallbackWidth, fallbackHeight int) *FolderProvider {
	if fallbackWidth <= 0 || fallbackHeight <= 0 {
		fallbackWidth, fallbackHeight = DefaultFallbackWidth, DefaultFallbackHeight
	}
	return &FolderProvider{
		fs:             fs,
		fallbackWidth:  fallbackWidth,
		fallbackHeight: fallbackHeight,
		cache:          map[string][2]int{},
	}
}

// Dimensions implements Provider
func (p *FolderProvider) Dimensions(imageID string) (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if dims, ok := p.cache[imageID]; ok {
		return dims[0], dims[1]
	}
	w, h, err := p.Lookup(imageID)
	if err != nil {
		log.Printf("imagemeta: using fallback %dx%d for %s: %s", p.fallbackWidth, p.fallbackHeight, imageID, err)
		w, h = p.fallbackWidth, p.fallbackHeight
	}
	p.cache[imageID] = [2]int{w, h}
	return w, h
}

// Lookup decodes the image header without caching or falling back
func (p *FolderProvider) Lookup(imageID string) (int, int, error) {
	f, err := p.fs.Open(imageID)
	if err != nil {
		return 0, 0, fmt.Errorf("while opening image: %w", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("while decoding image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("image has no area: %dx%d", cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

// Forget drops a cached entry, used when an image changes on disk
func (p *FolderProvider) Forget(imageID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cache, imageID)
}
