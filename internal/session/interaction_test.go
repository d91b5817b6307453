package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewtec/demarcador/internal/geometry"
)

func TestInteractionDraw(t *testing.T) {
	s := newSession(t)
	in := NewInteraction(s, geometry.Identity, "cat")

	assert.Equal(t, ModeDrawing, in.Press(10, 10))
	in.Drag(40, 30)
	ann, ok := in.Release(60, 70)
	require.True(t, ok)
	assert.Equal(t, box(10, 10, 60, 70), ann.BBox)
	assert.Equal(t, "cat", ann.ClassName)
	assert.Equal(t, 0, in.Selected())
	assert.Equal(t, ModeIdle, in.Mode())

	t.Run("too small is discarded", func(t *testing.T) {
		in.Press(150, 150)
		_, ok := in.Release(155, 190)
		assert.False(t, ok)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("reverse drag is normalized", func(t *testing.T) {
		in.Press(190, 190)
		ann, ok := in.Release(150, 120)
		require.True(t, ok)
		assert.Equal(t, box(150, 120, 190, 190), ann.BBox)
	})
}

func TestInteractionMove(t *testing.T) {
	s := newSession(t)
	s.Add(box(20, 20, 60, 60), "a", "")
	in := NewInteraction(s, geometry.Identity, "a")

	assert.Equal(t, ModeMoving, in.Press(40, 40))
	in.Drag(50, 45)
	in.Drag(60, 50)
	in.Release(60, 50)

	ann, _ := s.At(0)
	assert.Equal(t, box(40, 30, 80, 70), ann.BBox)

	require.True(t, s.Undo())
	ann, _ = s.At(0)
	assert.Equal(t, box(20, 20, 60, 60), ann.BBox, "the drag is a single history step")
}

func TestInteractionMoveAgainstBorder(t *testing.T) {
	s := newSession(t)
	s.Add(box(20, 20, 60, 60), "a", "")
	in := NewInteraction(s, geometry.Identity, "a")

	in.Press(40, 40)
	in.Drag(-100, 40)
	in.Drag(30, 40)
	in.Release(30, 40)

	ann, _ := s.At(0)
	assert.Equal(t, box(10, 20, 50, 60), ann.BBox, "pinning does not accumulate")
}

func TestInteractionResize(t *testing.T) {
	s := newSession(t)
	s.Add(box(20, 20, 60, 60), "a", "")
	in := NewInteraction(s, geometry.Identity, "a")
	in.Select(0)

	assert.Equal(t, ModeResizing, in.Press(60, 60))
	in.Drag(100, 90)
	in.Release(100, 90)

	ann, _ := s.At(0)
	assert.Equal(t, box(20, 20, 100, 90), ann.BBox)

	require.True(t, s.Undo())
	ann, _ = s.At(0)
	assert.Equal(t, box(20, 20, 60, 60), ann.BBox)
}

func TestInteractionClickWithoutDragKeepsHistory(t *testing.T) {
	s := newSession(t)
	s.Add(box(20, 20, 60, 60), "a", "")
	in := NewInteraction(s, geometry.Identity, "a")

	in.Press(40, 40)
	in.Release(40, 40)

	require.True(t, s.Undo())
	assert.Equal(t, 0, s.Len(), "no snapshot for a plain click")
}
