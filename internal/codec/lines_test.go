package codec

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewtec/demarcador/internal/domain"
	"github.com/lewtec/demarcador/internal/imagemeta"
)

func visible(class string, x1, y1, x2, y2 int) domain.Annotation {
	return domain.Annotation{ClassName: class, BBox: domain.BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}, Visible: true}
}

func assertBoxNear(t *testing.T, want, got domain.BBox) {
	t.Helper()
	assert.InDelta(t, want.X1, got.X1, 1, "x1 of %v vs %v", want, got)
	assert.InDelta(t, want.Y1, got.Y1, 1, "y1 of %v vs %v", want, got)
	assert.InDelta(t, want.X2, got.X2, 1, "x2 of %v vs %v", want, got)
	assert.InDelta(t, want.Y2, got.Y2, 1, "y2 of %v vs %v", want, got)
}

func TestLinesRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		w, h := 1+rng.Intn(4000), 1+rng.Intn(4000)
		x1 := rng.Intn(w)
		x2 := x1 + 1 + rng.Intn(w-x1)
		y1 := rng.Intn(h)
		y2 := y1 + 1 + rng.Intn(h-y1)

		store := domain.NewStore()
		store.Commit("img.png", []domain.Annotation{visible("c", x1, y1, x2, y2)})
		codec := Lines{Dims: imagemeta.Fixed(w, h)}

		var buf bytes.Buffer
		require.NoError(t, codec.Encode(&buf, store))
		decoded, err := codec.Decode(&buf)
		require.NoError(t, err)

		list, ok := decoded.Get("img.png")
		require.True(t, ok)
		require.Len(t, list, 1)
		assertBoxNear(t, domain.BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}, list[0].BBox)
	}
}

func TestLinesDecode(t *testing.T) {
	input := strings.Join([]string{
		"a.jpg,cat,0.5,0.5,0.2,0.2",
		"a.jpg,dog,0.5,0.5",
		"",
		"b.jpg,dog,0.1,zero,0.2,0.2",
		"b.jpg,bird,0.25,0.25,0.5,0.5,extra",
	}, "\n")
	codec := Lines{
		Dims:    imagemeta.Fixed(100, 100),
		Palette: []string{"#ff4444", "#44ff44"},
	}

	store, err := codec.Decode(strings.NewReader(input))
	require.NoError(t, err)

	a, ok := store.Get("a.jpg")
	require.True(t, ok)
	require.Len(t, a, 1)
	assert.Equal(t, "cat", a[0].ClassName)
	assert.True(t, a[0].Visible)
	assert.Equal(t, "#ff4444", a[0].Color)
	assertBoxNear(t, domain.BBox{X1: 40, Y1: 40, X2: 60, Y2: 60}, a[0].BBox)

	b, ok := store.Get("b.jpg")
	require.True(t, ok, "extra fields are ignored")
	require.Len(t, b, 1)
	assert.Equal(t, "bird", b[0].ClassName)
	assertBoxNear(t, domain.BBox{X1: 0, Y1: 0, X2: 50, Y2: 50}, b[0].BBox)
}

func TestLinesDecodeRejectsBadNumbers(t *testing.T) {
	input := strings.Join([]string{
		"a.jpg,cat,NaN,0.5,0.2,0.2",
		"b.jpg,dog,0.5,0.5,Inf,0.2",
		"c.jpg,dog,0.5,0.5,-0.2,0.2",
		"d.jpg,dog,0.5,-Inf,0.2,0.2",
		"e.jpg,bird,0.5,0.5,0.2,0.2",
	}, "\n")
	codec := Lines{Dims: imagemeta.Fixed(100, 100)}

	store, err := codec.Decode(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"e.jpg"}, store.Images())

	list, _ := store.Get("e.jpg")
	require.Len(t, list, 1)
	assert.LessOrEqual(t, list[0].BBox.X1, list[0].BBox.X2)
	assert.LessOrEqual(t, list[0].BBox.Y1, list[0].BBox.Y2)
}

func TestLinesDecodeSkipsOverlongLine(t *testing.T) {
	input := "a.jpg,cat,0.5,0.5,0.2,0.2\n" +
		strings.Repeat("x", 70000) + "\n" +
		"b.jpg,dog,0.5,0.5,0.2,0.2"
	codec := Lines{Dims: imagemeta.Fixed(100, 100)}

	store, err := codec.Decode(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, store.Images())
}

func TestLinesEncode(t *testing.T) {
	store := domain.NewStore()
	store.Commit("b.jpg", []domain.Annotation{visible("dog", 0, 0, 50, 100)})
	store.Commit("a.jpg", []domain.Annotation{
		visible("cat", 10, 20, 30, 60),
		{ClassName: "hidden", BBox: domain.BBox{X2: 10, Y2: 10}},
	})
	store.Commit("empty.jpg", nil)

	var buf bytes.Buffer
	require.NoError(t, Lines{Dims: imagemeta.Fixed(100, 200)}.Encode(&buf, store))
	assert.Equal(t,
		"a.jpg,cat,0.200000,0.200000,0.200000,0.200000\n"+
			"b.jpg,dog,0.250000,0.250000,0.500000,0.500000\n",
		buf.String())

	t.Run("zero sized images are skipped", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Lines{Dims: imagemeta.Fixed(0, 0)}.Encode(&buf, store))
		assert.Empty(t, buf.String())
	})

	t.Run("separators are rejected", func(t *testing.T) {
		bad := domain.NewStore()
		bad.Commit("a.jpg", []domain.Annotation{visible("big,cat", 0, 0, 10, 10)})
		err := Lines{Dims: imagemeta.Fixed(100, 100)}.Encode(&bytes.Buffer{}, bad)
		assert.True(t, errors.Is(err, ErrInvalidField))
	})
}

func TestLinesFile(t *testing.T) {
	fs := memfs.New()
	codec := Lines{Dims: imagemeta.Fixed(100, 100)}

	store, err := codec.Load(fs, DefaultLinesFile)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len(), "missing file is an empty store")

	store.Commit("a.jpg", []domain.Annotation{visible("cat", 40, 40, 60, 60)})
	require.NoError(t, codec.Save(fs, DefaultLinesFile, store))
	store.Commit("a.jpg", []domain.Annotation{visible("cat", 40, 40, 60, 60), visible("dog", 0, 0, 20, 20)})
	require.NoError(t, codec.Save(fs, DefaultLinesFile, store))

	loaded, err := codec.Load(fs, DefaultLinesFile)
	require.NoError(t, err)
	list, ok := loaded.Get("a.jpg")
	require.True(t, ok)
	assert.Len(t, list, 2)
}
