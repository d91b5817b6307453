package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewtec/demarcador/internal/domain"
)

func detections() []domain.Detection {
	return []domain.Detection{
		{ClassName: "person", BBox: box(100, 50, 200, 300), Confidence: 0.85},
		{ClassName: "car", BBox: box(300, 200, 450, 320), Confidence: 0.72, Color: "#000000"},
	}
}

func TestIngestApprove(t *testing.T) {
	s := New(nil, Options{Palette: []string{"#abcdef"}})
	s.Open("a.jpg", 0, 640, 480)
	s.Add(box(0, 0, 20, 20), "manual", "#111111")

	assert.Equal(t, 2, s.Ingest(detections()))
	assert.Equal(t, 1, s.Len(), "pending suggestions stay out of the working list")
	pending := s.Pending()
	require.Len(t, pending, 2)
	assert.True(t, pending[0].IsModelSuggestion())
	assert.InDelta(t, 0.85, pending[0].Provenance.Confidence, 1e-9)

	delta := s.Approve()
	require.Len(t, delta, 2)
	for _, ann := range delta {
		assert.Nil(t, ann.Provenance)
		assert.True(t, ann.Visible)
	}
	assert.Equal(t, "#abcdef", delta[0].Color)
	assert.Equal(t, "#000000", delta[1].Color)
	assert.Equal(t, 3, s.Len())
	assert.Empty(t, s.Pending())

	require.True(t, s.Undo())
	assert.Equal(t, 1, s.Len(), "approval is one history step")
}

func TestIngestReject(t *testing.T) {
	s := newSession(t)
	s.Ingest(detections())
	assert.Equal(t, 2, s.Reject())
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Approve())
}

func TestIngestClampsToImage(t *testing.T) {
	s := newSession(t)
	s.Ingest(detections())
	pending := s.Pending()
	assert.Equal(t, box(100, 50, 200, 200), pending[0].BBox)
	assert.Equal(t, box(200, 200, 200, 200), pending[1].BBox)
}

func TestEditPendingBeforeApproval(t *testing.T) {
	s := New(nil, DefaultOptions())
	s.Open("a.jpg", 0, 640, 480)
	s.Ingest(detections())

	assert.True(t, s.SetPendingClass(1, "truck"))
	assert.False(t, s.SetPendingClass(2, "truck"))
	assert.True(t, s.DropPending(0))
	assert.False(t, s.DropPending(-1))

	delta := s.Approve()
	require.Len(t, delta, 1)
	assert.Equal(t, "truck", delta[0].ClassName)
}

func TestOpenDropsPending(t *testing.T) {
	s := newSession(t)
	s.Ingest(detections())
	s.Open("b.jpg", 1, 100, 100)
	assert.Empty(t, s.Pending())
}
