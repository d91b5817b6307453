package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewtec/demarcador/internal/domain"
)

func TestSidecarPathFor(t *testing.T) {
	c := Sidecar{Dir: "annotations"}
	assert.Equal(t, "annotations/cat.json", c.PathFor("cat.jpg"))
	assert.Equal(t, "annotations/archive.tar.json", c.PathFor("archive.tar.gz"))
	assert.Equal(t, "annotations/noext.json", c.PathFor("noext"))
}

func TestSidecarRoundTrip(t *testing.T) {
	list := []domain.Annotation{
		{ClassName: "cat", BBox: domain.BBox{X1: 1, Y1: 2, X2: 30, Y2: 40}, Visible: true, Color: "#ff4444"},
		{ClassName: "dog", BBox: domain.BBox{X1: 5, Y1: 6, X2: 70, Y2: 80}, Visible: false, Color: "#44ff44"},
		{
			ClassName:  "car",
			BBox:       domain.BBox{X1: 300, Y1: 200, X2: 450, Y2: 320},
			Visible:    true,
			Color:      "#4444ff",
			Provenance: &domain.Provenance{Confidence: 0.72, ModelSuggested: true},
		},
	}
	c := Sidecar{}

	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, list, true))
	got, complete, err := c.Decode(&buf)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, list, got)
}

func TestSidecarDecodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `{`},
		{"missing annotations", `{"is_fully_annotated": true}`},
		{"short bbox", `{"annotations": [{"class": "a", "bbox": [1, 2, 3]}]}`},
		{"confidence out of range", `{"annotations": [{"class": "a", "bbox": [1, 2, 3, 4], "confidence": 2}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Sidecar{}.Decode(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestSidecarFiles(t *testing.T) {
	fs := memfs.New()
	c := Sidecar{Dir: "annotations"}
	images := []string{"a.jpg", "b.png", "c.jpg"}

	store := domain.NewStore()
	store.Commit("a.jpg", []domain.Annotation{{ClassName: "cat", BBox: domain.BBox{X2: 20, Y2: 20}, Visible: true, Color: "#ff4444"}})
	store.Commit("b.png", []domain.Annotation{{ClassName: "dog", BBox: domain.BBox{X2: 20, Y2: 20}, Visible: true, Color: "#44ff44"}})
	require.True(t, store.MarkComplete("b.png"))
	require.NoError(t, c.Save(fs, store, images))

	loaded, err := c.Load(fs, images)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.png"}, loaded.Images())
	assert.True(t, loaded.IsComplete("b.png"))
	assert.False(t, loaded.IsComplete("a.jpg"))

	store.Remove("a.jpg")
	require.NoError(t, c.Save(fs, store, images))
	_, err = fs.Stat("annotations/a.json")
	assert.Error(t, err, "stale sidecar removed")

	f, err := fs.Create("annotations/c.json")
	require.NoError(t, err)
	_, err = f.Write([]byte(`{"annotations": "nope"}`))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	loaded, err = c.Load(fs, images)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.png"}, loaded.Images(), "invalid documents are skipped")
}
