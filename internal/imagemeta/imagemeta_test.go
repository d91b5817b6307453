package imagemeta

import (
	"image"
	"image/png"
	"testing"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderProvider(t *testing.T) {
	fs := memfs.New()
	f, err := fs.Create("a.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 123, 45))))
	require.NoError(t, f.Close())

	f, err = fs.Create("broken.jpg")
	require.NoError(t, err)
	_, err = f.Write([]byte("not an image"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	p := NewFolderProvider(fs, 0, 0)

	t.Run("reads header", func(t *testing.T) {
		w, h := p.Dimensions("a.png")
		assert.Equal(t, 123, w)
		assert.Equal(t, 45, h)
	})

	t.Run("missing file falls back", func(t *testing.T) {
		w, h := p.Dimensions("missing.png")
		assert.Equal(t, DefaultFallbackWidth, w)
		assert.Equal(t, DefaultFallbackHeight, h)
	})

	t.Run("undecodable file falls back", func(t *testing.T) {
		_, _, err := p.Lookup("broken.jpg")
		assert.Error(t, err)
		w, h := p.Dimensions("broken.jpg")
		assert.Equal(t, DefaultFallbackWidth, w)
		assert.Equal(t, DefaultFallbackHeight, h)
	})

	t.Run("cached until forgotten", func(t *testing.T) {
		require.NoError(t, fs.Remove("a.png"))
		w, _ := p.Dimensions("a.png")
		assert.Equal(t, 123, w)
		p.Forget("a.png")
		w, _ = p.Dimensions("a.png")
		assert.Equal(t, DefaultFallbackWidth, w)
	})
}

func TestFixed(t *testing.T) {
	w, h := Fixed(10, 20).Dimensions("anything")
	assert.Equal(t, 10, w)
	assert.Equal(t, 20, h)
}
