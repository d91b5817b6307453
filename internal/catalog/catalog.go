// Package catalog lists the images of a project folder and follows changes to it.
package catalog

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".gif":  true,
	".webp": true,
}

// IsImage reports whether name has a supported image extension
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// Scan returns the image file names directly inside dir, sorted
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("while listing %s: %w", dir, err)
	}
	ret := []string{}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || !IsImage(entry.Name()) {
			continue
		}
		ret = append(ret, entry.Name())
	}
	sort.Strings(ret)
	return ret, nil
}

// Op is the kind of change seen on an image
type Op int

const (
	Added Op = iota
	Changed
	Removed
)

func (o Op) String() string {
	switch o {
	case Added:
		return "added"
	case Changed:
		return "changed"
	default:
		return "removed"
	}
}

// Event is a change to one image of the folder
type Event struct {
	Name string
	Op   Op
}

// Watch calls fn for every image created, written, removed or renamed in dir
// until ctx is done. fn runs on the calling goroutine.
func Watch(ctx context.Context, dir string, fn func(Event)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("while creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("while watching %s: %w", dir, err)
	}
	log.Printf("catalog: watching %s", dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			if strings.HasPrefix(name, ".") || !IsImage(name) {
				continue
			}
			switch {
			case event.Op&fsnotify.Create != 0:
				fn(Event{Name: name, Op: Added})
			case event.Op&fsnotify.Write != 0:
				fn(Event{Name: name, Op: Changed})
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				fn(Event{Name: name, Op: Removed})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("catalog: watcher error: %s", err)
		}
	}
}
