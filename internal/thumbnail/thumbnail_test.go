package thumbnail

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, fs billy.Filesystem, name string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	f, err := fs.Create(name)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestRenderAll(t *testing.T) {
	fs := memfs.New()
	writeImage(t, fs, "wide.png", 400, 100)
	writeImage(t, fs, "tall.png", 50, 200)
	f, err := fs.Create("broken.jpg")
	require.NoError(t, err)
	f.Close()

	g := Generator{FS: fs, Size: 100, Jobs: 3}
	written, failed := g.RenderAll(context.Background(), []string{"wide.png", "tall.png", "broken.jpg"})
	assert.Equal(t, 2, written)
	assert.Equal(t, 1, failed)

	tests := []struct {
		name string
		w, h int
	}{
		{"wide.png", 100, 25},
		{"tall.png", 25, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := fs.Open(g.PathFor(tt.name))
			require.NoError(t, err)
			defer f.Close()
			cfg, err := png.DecodeConfig(f)
			require.NoError(t, err)
			assert.Equal(t, tt.w, cfg.Width)
			assert.Equal(t, tt.h, cfg.Height)
		})
	}
}

func TestRenderAllCancelled(t *testing.T) {
	fs := memfs.New()
	writeImage(t, fs, "a.png", 10, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	written, _ := Generator{FS: fs}.RenderAll(ctx, []string{"a.png"})
	assert.LessOrEqual(t, written, 1)
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, ".thumbnails/cat.png", Generator{}.PathFor("cat.jpg"))
	assert.Equal(t, "thumbs/cat.png", Generator{Dir: "thumbs"}.PathFor("cat.jpg"))
}
