package mapper

import "bytes"

// DefaultHistoryDepth is the undo capacity used when none is configured.
const DefaultHistoryDepth = 10

// Snapshot is an immutable serialized copy of the whole room graph.
type Snapshot struct {
	data []byte
}

// NewSnapshot wraps serialized graph bytes. The bytes are copied.
func NewSnapshot(data []byte) Snapshot {
	return Snapshot{data: append([]byte(nil), data...)}
}

// Bytes returns a copy of the serialized graph.
func (s Snapshot) Bytes() []byte {
	return append([]byte(nil), s.data...)
}

// Decode parses the snapshot back into an area file.
func (s Snapshot) Decode() (AreaFile, error) {
	return DecodeAreaFile(s.data)
}

// Equal reports whether two snapshots hold the same graph bytes.
func (s Snapshot) Equal(o Snapshot) bool {
	return bytes.Equal(s.data, o.data)
}

// IsZero reports whether s holds no data.
func (s Snapshot) IsZero() bool {
	return len(s.data) == 0
}

// History is a bounded linear undo/redo stack of snapshots. The bottom of
// the undo stack is the baseline and is never undone past.
type History struct {
	capacity int
	undo     []Snapshot
	redo     []Snapshot
}

// NewHistory creates an empty history holding at most capacity snapshots.
//
// Postcondition: capacity < 2 is raised to 2 so at least one step can be undone.
func NewHistory(capacity int) *History {
	if capacity < 2 {
		capacity = 2
	}
	return &History{capacity: capacity}
}

// Capacity returns the maximum undo stack length.
func (h *History) Capacity() int { return h.capacity }

// Len returns the undo stack length, baseline included.
func (h *History) Len() int { return len(h.undo) }

// RedoLen returns the redo stack length.
func (h *History) RedoLen() int { return len(h.redo) }

// CanUndo reports whether Undo would restore something.
func (h *History) CanUndo() bool { return len(h.undo) >= 2 }

// CanRedo reports whether Redo would restore something.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Push records a new current state and discards the redo branch.
//
// Postcondition: Len() <= Capacity() and RedoLen() == 0.
func (h *History) Push(s Snapshot) {
	h.undo = append(h.undo, s)
	if over := len(h.undo) - h.capacity; over > 0 {
		h.undo = append([]Snapshot(nil), h.undo[over:]...)
	}
	h.redo = nil
}

// Undo moves the current state to the redo stack and returns the new top.
//
// Postcondition: Returns (snapshot, true) to restore, or false when only the
// baseline remains.
func (h *History) Undo() (Snapshot, bool) {
	if len(h.undo) < 2 {
		return Snapshot{}, false
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, top)
	return h.undo[len(h.undo)-1], true
}

// Redo moves the most recently undone state back onto the undo stack.
//
// Postcondition: Returns (snapshot, true) to restore, or false when the redo
// stack is empty.
func (h *History) Redo() (Snapshot, bool) {
	if len(h.redo) == 0 {
		return Snapshot{}, false
	}
	s := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, s)
	return s, true
}

// Top returns the current state, if any.
func (h *History) Top() (Snapshot, bool) {
	if len(h.undo) == 0 {
		return Snapshot{}, false
	}
	return h.undo[len(h.undo)-1], true
}

// Oldest returns the oldest retained state, if any.
func (h *History) Oldest() (Snapshot, bool) {
	if len(h.undo) == 0 {
		return Snapshot{}, false
	}
	return h.undo[0], true
}

// Reset drops both stacks and installs baseline as the only entry.
func (h *History) Reset(baseline Snapshot) {
	h.undo = []Snapshot{baseline}
	h.redo = nil
}
