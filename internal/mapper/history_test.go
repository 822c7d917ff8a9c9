package mapper

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func snap(label string) Snapshot {
	return NewSnapshot([]byte(label))
}

func TestHistory_UndoKeepsBaseline(t *testing.T) {
	h := NewHistory(5)
	h.Reset(snap("base"))

	_, ok := h.Undo()
	assert.False(t, ok, "baseline is never undone")

	h.Push(snap("a"))
	got, ok := h.Undo()
	require.True(t, ok)
	assert.True(t, got.Equal(snap("base")))
	assert.Equal(t, 1, h.RedoLen())
}

func TestHistory_PushClearsRedo(t *testing.T) {
	h := NewHistory(5)
	h.Reset(snap("base"))
	h.Push(snap("a"))
	h.Push(snap("b"))
	_, _ = h.Undo()
	require.True(t, h.CanRedo())

	h.Push(snap("c"))
	assert.False(t, h.CanRedo())
	_, ok := h.Redo()
	assert.False(t, ok)
}

func TestHistory_RedoRestoresUndone(t *testing.T) {
	h := NewHistory(5)
	h.Reset(snap("base"))
	h.Push(snap("a"))
	h.Push(snap("b"))
	_, _ = h.Undo()
	_, _ = h.Undo()

	got, ok := h.Redo()
	require.True(t, ok)
	assert.True(t, got.Equal(snap("a")))
	got, ok = h.Redo()
	require.True(t, ok)
	assert.True(t, got.Equal(snap("b")))
	top, _ := h.Top()
	assert.True(t, top.Equal(snap("b")))
}

func TestHistory_SnapshotIsImmutable(t *testing.T) {
	data := []byte("state")
	s := NewSnapshot(data)
	data[0] = 'X'
	out := s.Bytes()
	out[1] = 'Y'
	assert.Equal(t, "state", string(s.Bytes()))
}

func TestPropertyHistoryBound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(2, 12).Draw(t, "capacity")
		pushes := capacity + 5
		h := NewHistory(capacity)
		h.Reset(snap("base"))
		for i := 0; i < pushes; i++ {
			h.Push(snap(fmt.Sprintf("s%d", i)))
			if h.Len() > capacity {
				t.Fatalf("undo stack %d exceeds capacity %d", h.Len(), capacity)
			}
		}
		oldest, _ := h.Oldest()
		undos := 0
		var last Snapshot
		for {
			s, ok := h.Undo()
			if !ok {
				break
			}
			last = s
			undos++
		}
		if undos != capacity-1 {
			t.Fatalf("undid %d steps, want %d", undos, capacity-1)
		}
		if !last.Equal(oldest) {
			t.Fatalf("oldest retained snapshot not reproduced")
		}
		want := fmt.Sprintf("s%d", pushes-capacity)
		if !oldest.Equal(snap(want)) {
			t.Fatalf("oldest is %q, want %q", oldest.Bytes(), want)
		}
	})
}
