package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingHooks struct {
	NopHooks
	created  []int
	removed  []int
	moved    []int
	linked   []Link
	unlinked []Link
	replaced int
	notices  []*Error
}

func (h *recordingHooks) RoomCreated(r *Room) { h.created = append(h.created, r.ID) }
func (h *recordingHooks) RoomRemoved(id int)  { h.removed = append(h.removed, id) }
func (h *recordingHooks) RoomMoved(r *Room)   { h.moved = append(h.moved, r.ID) }
func (h *recordingHooks) LinkCreated(l Link)  { h.linked = append(h.linked, l) }
func (h *recordingHooks) LinkRemoved(l Link)  { h.unlinked = append(h.unlinked, l) }
func (h *recordingHooks) GraphReplaced()      { h.replaced++ }
func (h *recordingHooks) Notice(err *Error)   { h.notices = append(h.notices, err) }

func newTestSession(t testing.TB, min, max int) (*Session, *recordingHooks) {
	t.Helper()
	hooks := &recordingHooks{}
	s, err := NewSession(Options{
		AreaName: "Test Area",
		Filename: "test.are",
		VnumMin:  min,
		VnumMax:  max,
		Hooks:    hooks,
	})
	require.NoError(t, err)
	return s, hooks
}

func mustCreate(t testing.TB, s *Session, level int, x, z float64) *Room {
	t.Helper()
	r, err := s.CreateRoom(level, x, z)
	require.NoError(t, err)
	return r
}

func TestSession_CreateLinkDeleteScenario(t *testing.T) {
	s, hooks := newTestSession(t, 100, 199)

	a := mustCreate(t, s, 0, 0.5, 0.5)
	b := mustCreate(t, s, 0, 1.5, 0.5)
	assert.Equal(t, 100, a.ID)
	assert.Equal(t, 101, b.ID)

	require.NoError(t, s.CreateLink(100, 101))
	assert.Equal(t, Exit{To: 101, Direction: East}, a.Exits[East])
	assert.Equal(t, Exit{To: 100, Direction: West}, b.Exits[West])

	require.NoError(t, s.DeleteRoom(100))
	assert.Empty(t, b.Exits)
	assert.Equal(t, []int{101}, s.Allocator().Used())
	assert.False(t, s.Allocator().IsUsed(100))
	assert.Equal(t, []int{100}, hooks.removed)
	assert.Len(t, hooks.unlinked, 1)
	require.NoError(t, s.CheckInvariants())
}

func TestSession_PoolExhausted(t *testing.T) {
	s, hooks := newTestSession(t, 100, 100)

	r := mustCreate(t, s, 0, 0.5, 0.5)
	assert.Equal(t, 100, r.ID)
	historyLen := s.History().Len()

	_, err := s.CreateRoom(0, 1.5, 0.5)
	require.ErrorIs(t, err, ErrPoolExhausted)
	assert.Equal(t, 1, s.Graph().RoomCount())
	assert.Equal(t, []int{100}, s.Allocator().Used())
	assert.Equal(t, historyLen, s.History().Len())
	require.Len(t, hooks.notices, 1)
	assert.Equal(t, CodePoolExhausted, hooks.notices[0].Code)
}

func TestSession_CreateRoomCellOccupied(t *testing.T) {
	s, _ := newTestSession(t, 1, 10)
	mustCreate(t, s, 0, 0.5, 0.5)

	_, err := s.CreateRoom(0, 0.6, 0.4)
	assert.ErrorIs(t, err, ErrCellOccupied)
	_, err = s.CreateRoom(1, 0.5, 0.5)
	assert.NoError(t, err, "same cell on another level is free")
	_, err = s.CreateRoom(MaxLevel+1, 0.5, 0.5)
	assert.ErrorIs(t, err, ErrRangeViolation)
	assert.Equal(t, 2, s.Graph().RoomCount())
}

func TestSession_CreateRoomSnapsToCellCenter(t *testing.T) {
	tests := []struct {
		name       string
		first      [2]float64
		second     [2]float64
		wantCenter Position
	}{
		{"opposite edges of one cell", [2]float64{0.1, 0.5}, [2]float64{0.9, 0.5}, Position{X: 0.5, Z: 0.5}},
		{"cell boundary and interior", [2]float64{3, 0}, [2]float64{3.5, 0.5}, Position{X: 3.5, Z: 0.5}},
		{"negative coordinates", [2]float64{-0.2, -1.9}, [2]float64{-0.8, -1.1}, Position{X: -0.5, Z: -1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, hooks := newTestSession(t, 1, 10)
			r := mustCreate(t, s, 0, tt.first[0], tt.first[1])
			assert.Equal(t, tt.wantCenter, r.Position())

			_, err := s.CreateRoom(0, tt.second[0], tt.second[1])
			require.ErrorIs(t, err, ErrCellOccupied)
			require.Len(t, hooks.notices, 1)
			assert.Equal(t, CodeCellOccupied, hooks.notices[0].Code)
			assert.Equal(t, 1, s.Graph().RoomCount())
			require.NoError(t, s.CheckInvariants())
		})
	}
}

func TestSession_MoveRoomSnapsAndDetectsSharedCell(t *testing.T) {
	s, _ := newTestSession(t, 1, 10)
	a := mustCreate(t, s, 0, 0.5, 0.5)
	b := mustCreate(t, s, 0, 2.5, 0.5)

	require.NoError(t, s.MoveRoom(b.ID, Position{Level: 0, X: 1.1, Z: 0.9}))
	assert.Equal(t, Position{Level: 0, X: 1.5, Z: 0.5}, b.Position())

	err := s.MoveRoom(b.ID, Position{Level: 0, X: 0.9, Z: 0.1})
	require.ErrorIs(t, err, ErrCellOccupied)
	assert.Equal(t, Position{Level: 0, X: 1.5, Z: 0.5}, b.Position())
	assert.Equal(t, Position{Level: 0, X: 0.5, Z: 0.5}, a.Position())
	require.NoError(t, s.CheckInvariants())
}

func TestSession_MoveRoomCollisionReverts(t *testing.T) {
	s, hooks := newTestSession(t, 1, 10)
	a := mustCreate(t, s, 0, 0, 0.5)
	mustCreate(t, s, 0, 1, 0.5)
	historyLen := s.History().Len()

	err := s.MoveRoom(a.ID, Position{Level: 0, X: 1, Z: 0.5})
	require.ErrorIs(t, err, ErrCellOccupied)
	assert.Equal(t, Position{Level: 0, X: 0.5, Z: 0.5}, a.Position())
	assert.Equal(t, historyLen, s.History().Len())
	assert.Empty(t, hooks.moved)
}

func TestSession_MoveRoomNoOpRecordsNothing(t *testing.T) {
	s, _ := newTestSession(t, 1, 10)
	a := mustCreate(t, s, 0, 0.5, 0.5)
	historyLen := s.History().Len()

	require.NoError(t, s.MoveRoom(a.ID, a.Position()))
	assert.Equal(t, historyLen, s.History().Len())
}

func TestSession_MoveRoomRederivesExits(t *testing.T) {
	s, _ := newTestSession(t, 1, 10)
	a := mustCreate(t, s, 0, 0.5, 0.5)
	b := mustCreate(t, s, 0, 1.5, 0.5)
	require.NoError(t, s.CreateLink(a.ID, b.ID))

	require.NoError(t, s.MoveRoom(b.ID, Position{Level: 0, X: 1.5, Z: 1.5}))
	assert.Equal(t, b.ID, a.Exits[Southeast].To)
	assert.Equal(t, a.ID, b.Exits[Northwest].To)
	_, stale := a.Exits[East]
	assert.False(t, stale)

	require.NoError(t, s.MoveRoom(b.ID, Position{Level: 2, X: 0.5, Z: 0.5}))
	assert.Equal(t, b.ID, a.Exits[Up].To)
	assert.Equal(t, a.ID, b.Exits[Down].To)
	require.NoError(t, s.CheckInvariants())
}

func TestSession_CreateLinkPathBlocked(t *testing.T) {
	s, _ := newTestSession(t, 1, 10)
	a := mustCreate(t, s, 0, 0, 0.5)
	c := mustCreate(t, s, 0, 2, 0.5)
	mustCreate(t, s, 0, 1, 0.5)
	historyLen := s.History().Len()

	err := s.CreateLink(a.ID, c.ID)
	require.ErrorIs(t, err, ErrPathBlocked)
	assert.Empty(t, a.Exits)
	assert.Empty(t, c.Exits)
	assert.Equal(t, 0, s.Graph().LinkCount())
	assert.Equal(t, historyLen, s.History().Len())
}

func TestSession_CreateLinkLongStraightLine(t *testing.T) {
	s, _ := newTestSession(t, 1, 10)
	a := mustCreate(t, s, 0, 0.5, 0.5)
	b := mustCreate(t, s, 0, 0.5, -3.5)

	require.NoError(t, s.CreateLink(a.ID, b.ID))
	assert.Equal(t, b.ID, a.Exits[North].To)
	assert.Equal(t, a.ID, b.Exits[South].To)
}

func TestSession_CreateLinkInvalidDirection(t *testing.T) {
	s, _ := newTestSession(t, 1, 10)
	a := mustCreate(t, s, 0, 0.5, 0.5)
	b := mustCreate(t, s, 0, 2.5, 1.5)
	c := mustCreate(t, s, 1, 1.5, 0.5)

	assert.ErrorIs(t, s.CreateLink(a.ID, b.ID), ErrInvalidDirection)
	assert.ErrorIs(t, s.CreateLink(a.ID, c.ID), ErrInvalidDirection, "vertical links need no horizontal offset")
	assert.ErrorIs(t, s.CreateLink(a.ID, a.ID), ErrInvalidDirection)
	assert.ErrorIs(t, s.CreateLink(a.ID, 99), ErrRoomNotFound)
	assert.Equal(t, 0, s.Graph().LinkCount())
}

func TestSession_CreateLinkDuplicateExit(t *testing.T) {
	s, _ := newTestSession(t, 1, 10)
	a := mustCreate(t, s, 0, 0.5, 0.5)
	b := mustCreate(t, s, 0, 1.5, 0.5)
	far := mustCreate(t, s, 0, -2.5, 0.5)
	require.NoError(t, s.CreateLink(a.ID, b.ID))
	require.NoError(t, s.CreateLink(a.ID, far.ID))

	assert.ErrorIs(t, s.CreateLink(a.ID, b.ID), ErrDuplicateExit)
	assert.ErrorIs(t, s.CreateLink(b.ID, a.ID), ErrDuplicateExit)

	// mid's east slot is free but a already exits west.
	mid := mustCreate(t, s, 0, -0.5, 0.5)
	err := s.CreateLink(mid.ID, a.ID)
	assert.ErrorIs(t, err, ErrDuplicateExit)
	assert.Empty(t, mid.Exits)
	assert.Equal(t, 2, s.Graph().LinkCount())
	require.NoError(t, s.CheckInvariants())
}

func TestSession_BreakLink(t *testing.T) {
	s, hooks := newTestSession(t, 1, 10)
	a := mustCreate(t, s, 0, 0.5, 0.5)
	b := mustCreate(t, s, 0, 0.5, 1.5)
	require.NoError(t, s.CreateLink(a.ID, b.ID))

	require.NoError(t, s.BreakLink(b.ID, a.ID))
	assert.Empty(t, a.Exits)
	assert.Empty(t, b.Exits)
	assert.Len(t, hooks.unlinked, 1)
	assert.ErrorIs(t, s.BreakLink(a.ID, b.ID), ErrLinkNotFound)
}

func TestSession_MoveDropsLinkThatLosesItsExits(t *testing.T) {
	s, hooks := newTestSession(t, 1, 10)
	a := mustCreate(t, s, 0, 0.5, 0.5)
	b := mustCreate(t, s, 0, 1.5, 0.5)
	c := mustCreate(t, s, 0, -0.5, 0.5)
	require.NoError(t, s.CreateLink(a.ID, b.ID))
	require.NoError(t, s.CreateLink(a.ID, c.ID))
	require.Len(t, hooks.unlinked, 0)

	// c now sits east of a, where b already holds the slot.
	require.NoError(t, s.MoveRoom(c.ID, Position{Level: 0, X: 2.5, Z: 0.5}))
	assert.Equal(t, 1, s.Graph().LinkCount())
	assert.Empty(t, c.Exits)
	assert.Equal(t, b.ID, a.Exits[East].To)
	require.Len(t, hooks.unlinked, 1)
	assert.ElementsMatch(t, []int{a.ID, c.ID}, []int{hooks.unlinked[0].A, hooks.unlinked[0].B})
	assert.ErrorIs(t, s.BreakLink(a.ID, c.ID), ErrLinkNotFound)
	require.NoError(t, s.CheckInvariants())

	exported, err := s.ExportJSON()
	require.NoError(t, err)
	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, s.Graph().LinkCount(), "undo restores the link with the old position")
	ok, err = s.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, s.Graph().LinkCount())
	redone, err := s.ExportJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(exported), string(redone))

	// Moving c back does not revive the dropped link.
	rc, _ := s.Room(c.ID)
	require.NoError(t, s.MoveRoom(rc.ID, Position{Level: 0, X: -0.5, Z: 0.5}))
	assert.Equal(t, 1, s.Graph().LinkCount())
	assert.Empty(t, rc.Exits)
}

func TestSession_SetRangePurgesOutsideRooms(t *testing.T) {
	s, hooks := newTestSession(t, 100, 199)
	for i := 0; i < 5; i++ {
		mustCreate(t, s, 0, float64(i)+0.5, 0.5)
	}
	require.NoError(t, s.CreateLink(101, 102))
	require.NoError(t, s.CreateLink(102, 103))

	purged, err := s.SetRange(100, 102)
	require.NoError(t, err)
	assert.Equal(t, []int{103, 104}, purged)
	assert.Equal(t, []int{100, 101, 102}, s.Graph().IDs())
	assert.Equal(t, []int{100, 101, 102}, s.Allocator().Used())
	assert.Empty(t, s.Allocator().Available())
	r102, _ := s.Room(102)
	_, hasEast := r102.Exits[East]
	assert.False(t, hasEast)
	assert.ElementsMatch(t, []int{103, 104}, hooks.removed)
	require.NoError(t, s.CheckInvariants())

	_, err = s.SetRange(50, 40)
	assert.ErrorIs(t, err, ErrRangeViolation)
	assert.Equal(t, 100, s.Allocator().Min())
}

func TestSession_SetRoomID(t *testing.T) {
	s, _ := newTestSession(t, 100, 110)
	a := mustCreate(t, s, 0, 0.5, 0.5)
	b := mustCreate(t, s, 0, 1.5, 0.5)
	require.NoError(t, s.CreateLink(a.ID, b.ID))
	require.NoError(t, s.Select(a.ID))

	require.NoError(t, s.SetRoomID(100, 105))
	assert.Equal(t, 105, a.ID)
	assert.Equal(t, 105, b.Exits[West].To)
	assert.Equal(t, []int{101, 105}, s.Allocator().Used())
	sel, ok := s.Selected()
	assert.True(t, ok)
	assert.Equal(t, 105, sel)

	assert.ErrorIs(t, s.SetRoomID(105, 101), ErrRangeViolation)
	assert.ErrorIs(t, s.SetRoomID(105, 111), ErrRangeViolation)
	assert.Equal(t, 105, a.ID)

	r := mustCreate(t, s, 0, 5.5, 0.5)
	assert.Equal(t, 100, r.ID, "freed vnum is reused")
	require.NoError(t, s.CheckInvariants())
}

func TestSession_UpdateRoom(t *testing.T) {
	s, _ := newTestSession(t, 1, 10)
	r := mustCreate(t, s, 0, 0.5, 0.5)
	historyLen := s.History().Len()

	name := "Town Square"
	sector := SectorCity
	require.NoError(t, s.UpdateRoom(r.ID, RoomPatch{Name: &name, Sector: &sector}))
	assert.Equal(t, "Town Square", r.Name)
	assert.Equal(t, SectorCity, r.Sector)
	assert.Equal(t, historyLen+1, s.History().Len())

	require.NoError(t, s.UpdateRoom(r.ID, RoomPatch{Name: &name}))
	assert.Equal(t, historyLen+1, s.History().Len(), "unchanged edit records nothing")

	assert.ErrorIs(t, s.UpdateRoom(42, RoomPatch{Name: &name}), ErrRoomNotFound)
}

func TestSession_UndoRedo(t *testing.T) {
	s, hooks := newTestSession(t, 1, 10)
	a := mustCreate(t, s, 0, 0.5, 0.5)
	b := mustCreate(t, s, 0, 1.5, 0.5)
	require.NoError(t, s.CreateLink(a.ID, b.ID))
	require.NoError(t, s.Select(a.ID))

	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, s.Graph().LinkCount())
	_, sel := s.Selected()
	assert.False(t, sel, "restore clears selection")
	assert.Equal(t, 1, hooks.replaced)

	ok, err = s.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	r, _ := s.Room(a.ID)
	assert.Equal(t, b.ID, r.Exits[East].To)

	for {
		ok, err := s.Undo()
		require.NoError(t, err)
		if !ok {
			break
		}
	}
	assert.Equal(t, 0, s.Graph().RoomCount())
	assert.Equal(t, 10, s.Allocator().AvailableCount())
	require.NoError(t, s.CheckInvariants())

	mustCreate(t, s, 0, 0.5, 0.5)
	ok, err = s.Redo()
	require.NoError(t, err)
	assert.False(t, ok, "new edit discards the redo branch")
}

func TestSession_UndoRestoresRange(t *testing.T) {
	s, _ := newTestSession(t, 100, 199)
	mustCreate(t, s, 0, 0.5, 0.5)
	mustCreate(t, s, 0, 1.5, 0.5)
	_, err := s.SetRange(100, 100)
	require.NoError(t, err)

	_, err = s.Undo()
	require.NoError(t, err)
	assert.Equal(t, 199, s.Allocator().Max())
	assert.Equal(t, []int{100, 101}, s.Graph().IDs())
	require.NoError(t, s.CheckInvariants())
}

func TestSession_HistoryBound(t *testing.T) {
	s, _ := newTestSession(t, 1, 100)
	n := s.History().Capacity()
	for i := 0; i < n+5; i++ {
		mustCreate(t, s, 0, float64(i)+0.5, 0.5)
		assert.LessOrEqual(t, s.History().Len(), n)
	}
	oldest, ok := s.History().Oldest()
	require.True(t, ok)
	for {
		ok, err := s.Undo()
		require.NoError(t, err)
		if !ok {
			break
		}
	}
	current, err := s.Snapshot()
	require.NoError(t, err)
	assert.True(t, current.Equal(oldest))
	assert.Equal(t, 6, s.Graph().RoomCount())
}

func TestSession_LogsRejections(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s, err := NewSession(Options{VnumMin: 1, VnumMax: 1, Logger: zap.New(core)})
	require.NoError(t, err)

	mustCreate(t, s, 0, 0.5, 0.5)
	_, err = s.CreateRoom(0, 1.5, 0.5)
	require.Error(t, err)

	entries := logs.FilterMessage("edit rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "create_room", entries[0].ContextMap()["op"])
	assert.Equal(t, "POOL_EXHAUSTED", entries[0].ContextMap()["code"])
}

func TestSession_SetLevelAndSelection(t *testing.T) {
	s, _ := newTestSession(t, 1, 10)
	require.NoError(t, s.SetLevel(-4))
	assert.Equal(t, -4, s.Level())
	assert.ErrorIs(t, s.SetLevel(MinLevel-1), ErrRangeViolation)
	assert.Equal(t, -4, s.Level())

	assert.ErrorIs(t, s.Select(3), ErrRoomNotFound)
	r := mustCreate(t, s, -4, 0.5, 0.5)
	require.NoError(t, s.Select(r.ID))
	require.NoError(t, s.DeleteRoom(r.ID))
	_, ok := s.Selected()
	assert.False(t, ok)
	assert.ErrorIs(t, s.DeleteRoom(r.ID), ErrRoomNotFound)
}
