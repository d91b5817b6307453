package detector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewtec/demarcador/internal/domain"
	"github.com/lewtec/demarcador/internal/imagemeta"
)

func TestFilter(t *testing.T) {
	dets := []domain.Detection{
		{ClassName: "person", Confidence: 0.85},
		{ClassName: "car", Confidence: 0.72},
		{ClassName: "Car", Confidence: 0.3},
	}
	tests := []struct {
		name      string
		threshold float64
		class     string
		want      []string
	}{
		{"everything", 0, "", []string{"person", "car", "Car"}},
		{"threshold is inclusive", 0.72, "", []string{"person", "car"}},
		{"class filter ignores case", 0, "car", []string{"car", "Car"}},
		{"nothing left", 0.9, "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, det := range Filter(dets, tt.threshold, tt.class) {
				got = append(got, det.ClassName)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceholder(t *testing.T) {
	dets, err := Placeholder{}.Predict(context.Background(), Request{ImagePath: "a.jpg", ConfidenceThreshold: 0.5})
	require.NoError(t, err)
	require.Len(t, dets, 2)
	assert.Equal(t, domain.BBox{X1: 100, Y1: 50, X2: 200, Y2: 300}, dets[0].BBox)

	dets, err = Placeholder{}.Predict(context.Background(), Request{ConfidenceThreshold: 0.8})
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "person", dets[0].ClassName)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Placeholder{}.Predict(ctx, Request{})
	assert.Error(t, err)
}

func TestSanitizeModelJSON(t *testing.T) {
	raw := "```json\n{\n  // objects\n  \"objects\": [\n    {\"label\": \"cat\",},\n  ],\n}\n```"
	answer, err := parseAnswer(raw)
	require.NoError(t, err)
	require.Len(t, answer.Objects, 1)
	assert.Equal(t, "cat", answer.Objects[0].Label)

	_, err = parseAnswer("I see a cat")
	assert.Error(t, err)
}

func TestOllamaPredict(t *testing.T) {
	content := "```json\n{\"objects\": [" +
		"{\"label\": \"cat\", \"confidence\": 0.9, \"box\": {\"x\": 0.25, \"y\": 0.25, \"w\": 0.5, \"h\": 0.5}}," +
		"{\"label\": \"dog\", \"confidence\": 0.2, \"box\": {\"x\": 0.0, \"y\": 0.0, \"w\": 0.1, \"h\": 0.1}}," +
		"{\"label\": \"\", \"confidence\": 0.9, \"box\": {\"x\": 0.0, \"y\": 0.0, \"w\": 0.1, \"h\": 0.1}}" +
		"]}\n```"

	var gotRequest map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model":   "llava",
			"message": map[string]any{"role": "assistant", "content": content},
			"done":    true,
		})
	}))
	defer server.Close()

	fs := memfs.New()
	f, err := fs.Create("a.jpg")
	require.NoError(t, err)
	_, err = f.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	o, err := NewOllama(server.URL+"/api/chat", "llava", fs, imagemeta.Fixed(200, 100))
	require.NoError(t, err)

	dets, err := o.Predict(context.Background(), Request{ImagePath: "a.jpg", ConfidenceThreshold: 0.5, Prompt: "pets"})
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "cat", dets[0].ClassName)
	assert.Equal(t, domain.BBox{X1: 50, Y1: 25, X2: 150, Y2: 75}, dets[0].BBox)
	assert.InDelta(t, 0.9, dets[0].Confidence, 1e-9)

	assert.Equal(t, "llava", gotRequest["model"])
	messages, ok := gotRequest["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	message := messages[0].(map[string]any)
	assert.Contains(t, message["content"], "Focus on: pets")
	assert.Len(t, message["images"], 1)

	_, err = o.Predict(context.Background(), Request{ImagePath: "missing.jpg"})
	assert.Error(t, err)
}

func TestNewOllamaRejectsBadURL(t *testing.T) {
	_, err := NewOllama("localhost", "llava", memfs.New(), imagemeta.Fixed(1, 1))
	assert.Error(t, err)
}
