package mapper

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures a new Session.
type Options struct {
	// AreaName and Filename populate the export header.
	AreaName string
	Filename string
	// VnumMin and VnumMax bound the identifier pool.
	VnumMin int
	VnumMax int
	// HistoryDepth is the undo capacity; 0 means DefaultHistoryDepth.
	HistoryDepth int
	// DefaultColor and DefaultSector are applied to new rooms.
	DefaultColor  string
	DefaultSector Sector
	// Hooks receives change notifications; nil means NopHooks.
	Hooks Hooks
	// Logger receives structured edit logs; nil means zap.NewNop.
	Logger *zap.Logger
}

// Session owns one editable map: the room graph, the vnum pool, the undo
// history and the view state. All mutations go through it and are atomic:
// a rejected edit leaves every structure untouched.
//
// A Session is not safe for concurrent use; one mutation completes before
// the next begins.
type Session struct {
	id       uuid.UUID
	graph    *Graph
	alloc    *Allocator
	history  *History
	hooks    Hooks
	logger   *zap.Logger
	areaName string
	filename string

	defaultColor  string
	defaultSector Sector

	level    int
	selected int
	hasSel   bool
}

// NewSession creates an empty map and records it as the history baseline.
//
// Precondition: 0 <= opts.VnumMin <= opts.VnumMax.
// Postcondition: Returns a ready Session or a RangeViolation error.
func NewSession(opts Options) (*Session, error) {
	alloc, err := NewAllocator(opts.VnumMin, opts.VnumMax)
	if err != nil {
		return nil, err
	}
	depth := opts.HistoryDepth
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	hooks := opts.Hooks
	if hooks == nil {
		hooks = NopHooks{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	color := opts.DefaultColor
	if color == "" {
		color = "#808080"
	}
	s := &Session{
		id:            uuid.New(),
		graph:         NewGraph(),
		alloc:         alloc,
		history:       NewHistory(depth),
		hooks:         hooks,
		areaName:      opts.AreaName,
		filename:      opts.Filename,
		defaultColor:  color,
		defaultSector: opts.DefaultSector,
	}
	s.logger = logger.With(zap.String("session", s.id.String()))
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	s.history.Reset(snap)
	return s, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() uuid.UUID { return s.id }

// Graph exposes the room graph for read-only use.
func (s *Session) Graph() *Graph { return s.graph }

// Allocator exposes the vnum pool for read-only use.
func (s *Session) Allocator() *Allocator { return s.alloc }

// History exposes the undo history for read-only use.
func (s *Session) History() *History { return s.history }

// Room returns the room with the given vnum.
func (s *Session) Room(id int) (*Room, bool) { return s.graph.Room(id) }

// AreaInfo returns the export header for the current state.
func (s *Session) AreaInfo() AreaInfo {
	return AreaInfo{
		AreaName: s.areaName,
		Filename: s.filename,
		VnumMin:  s.alloc.Min(),
		VnumMax:  s.alloc.Max(),
	}
}

// SetAreaInfo updates the area name and filename. These are header metadata
// and are not recorded in history.
func (s *Session) SetAreaInfo(name, filename string) {
	s.areaName, s.filename = name, filename
}

// Level returns the level currently being viewed.
func (s *Session) Level() int { return s.level }

// SetLevel switches the viewed level.
//
// Postcondition: Returns a RangeViolation error and keeps the current level
// when level has no container.
func (s *Session) SetLevel(level int) error {
	if !ValidLevel(level) {
		return s.reject("set_level", newError(CodeRangeViolation, "level %d is outside %d..%d", level, MinLevel, MaxLevel))
	}
	s.level = level
	return nil
}

// Select marks a room as the current selection.
func (s *Session) Select(id int) error {
	if _, ok := s.graph.Room(id); !ok {
		return s.reject("select", newError(CodeRoomNotFound, "room %d does not exist", id))
	}
	s.selected, s.hasSel = id, true
	return nil
}

// Selected returns the selected room vnum, if any.
func (s *Session) Selected() (int, bool) { return s.selected, s.hasSel }

// ClearSelection drops the current selection.
func (s *Session) ClearSelection() { s.selected, s.hasSel = 0, false }

// reject logs and reports a refused edit, then returns it as an error.
func (s *Session) reject(op string, err *Error) error {
	s.logger.Info("edit rejected",
		zap.String("op", op),
		zap.String("code", err.Code.String()),
		zap.String("reason", err.Message),
	)
	s.hooks.Notice(err)
	return err
}

// commit rederives exits and records the new state.
func (s *Session) commit(op string) error {
	for _, l := range s.graph.Recalculate() {
		s.hooks.LinkRemoved(l)
		s.logger.Debug("link dropped",
			zap.String("op", op),
			zap.Int("a", l.A),
			zap.Int("b", l.B),
		)
	}
	snap, err := s.snapshot()
	if err != nil {
		return fmt.Errorf("%s: recording history: %w", op, err)
	}
	s.history.Push(snap)
	s.logger.Debug("edit applied",
		zap.String("op", op),
		zap.Int("rooms", s.graph.RoomCount()),
		zap.Int("links", s.graph.LinkCount()),
		zap.Int("history", s.history.Len()),
	)
	return nil
}

func (s *Session) snapshot() (Snapshot, error) {
	data, err := json.Marshal(EncodeAreaFile(s.AreaInfo(), s.graph))
	if err != nil {
		return Snapshot{}, fmt.Errorf("encoding snapshot: %w", err)
	}
	return NewSnapshot(data), nil
}

// Snapshot returns the serialized current state.
func (s *Session) Snapshot() (Snapshot, error) { return s.snapshot() }

// CreateRoom places a new room at the center of the cell containing (x, z)
// with a freshly allocated vnum.
//
// Postcondition: Returns the room, or CellOccupied, PoolExhausted or
// RangeViolation with no state changed.
func (s *Session) CreateRoom(level int, x, z float64) (*Room, error) {
	x, z = Snap(x), Snap(z)
	if !ValidLevel(level) {
		return nil, s.reject("create_room", newError(CodeRangeViolation, "level %d is outside %d..%d", level, MinLevel, MaxLevel))
	}
	if other := s.graph.FindAt(level, x, z); other != nil {
		return nil, s.reject("create_room", newError(CodeCellOccupied,
			"cell %s is occupied by room %d", Position{Level: level, X: x, Z: z}, other.ID).WithMeta("room", other.ID))
	}
	id, ok := s.alloc.Allocate()
	if !ok {
		return nil, s.reject("create_room", newError(CodePoolExhausted,
			"no free vnums in range %d-%d", s.alloc.Min(), s.alloc.Max()))
	}
	r := &Room{
		ID:     id,
		Level:  level,
		X:      x,
		Z:      z,
		Color:  s.defaultColor,
		Sector: s.defaultSector,
		Exits:  make(map[Direction]Exit),
	}
	s.graph.insertRoom(r)
	s.hooks.RoomCreated(r)
	if err := s.commit("create_room"); err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteRoom removes a room, every link touching it, and frees its vnum.
//
// Postcondition: Returns nil, or RoomNotFound with no state changed.
func (s *Session) DeleteRoom(id int) error {
	if _, ok := s.graph.Room(id); !ok {
		return s.reject("delete_room", newError(CodeRoomNotFound, "room %d does not exist", id))
	}
	s.deleteRoom(id)
	return s.commit("delete_room")
}

// deleteRoom is the shared cleanup path. A room already removed earlier in
// the same batch is ignored.
func (s *Session) deleteRoom(id int) {
	removed, ok := s.graph.removeRoom(id)
	if !ok {
		return
	}
	for _, l := range removed {
		s.hooks.LinkRemoved(l)
	}
	s.alloc.Free(id)
	if s.hasSel && s.selected == id {
		s.ClearSelection()
	}
	s.hooks.RoomRemoved(id)
}

// MoveRoom drops a room onto the center of the cell containing to. The
// destination is checked for collisions on its own level only; a collision
// leaves the room where it was. A move that ends where it started records no
// history. Links the new position leaves without a canonical direction, or
// whose exit slot is already taken, are removed.
//
// Postcondition: Returns nil, or RoomNotFound, RangeViolation or
// CellOccupied with the room at its original position.
func (s *Session) MoveRoom(id int, to Position) error {
	r, ok := s.graph.Room(id)
	if !ok {
		return s.reject("move_room", newError(CodeRoomNotFound, "room %d does not exist", id))
	}
	to = to.Snapped()
	if !ValidLevel(to.Level) {
		return s.reject("move_room", newError(CodeRangeViolation, "level %d is outside %d..%d", to.Level, MinLevel, MaxLevel))
	}
	if other := s.graph.FindAt(to.Level, to.X, to.Z); other != nil && other != r {
		return s.reject("move_room", newError(CodeCellOccupied,
			"cell %s is occupied by room %d", to, other.ID).WithMeta("room", other.ID))
	}
	if r.Position() == to {
		return nil
	}
	s.graph.relocate(r, to)
	s.hooks.RoomMoved(r)
	return s.commit("move_room")
}

// CreateLink joins two rooms with a bidirectional exit pair. The rooms must
// lie on one straight canonical line with no room between them, and neither
// endpoint may already have an exit in the needed direction.
//
// Postcondition: Returns nil with both exits present, or InvalidDirection,
// PathBlocked, DuplicateExit or RoomNotFound with no state changed.
func (s *Session) CreateLink(fromID, toID int) error {
	from, ok := s.graph.Room(fromID)
	if !ok {
		return s.reject("create_link", newError(CodeRoomNotFound, "room %d does not exist", fromID))
	}
	to, ok := s.graph.Room(toID)
	if !ok {
		return s.reject("create_link", newError(CodeRoomNotFound, "room %d does not exist", toID))
	}
	if fromID == toID {
		return s.reject("create_link", newError(CodeInvalidDirection, "room %d cannot link to itself", fromID))
	}
	dir, _, ok := ResolveDelta(Delta(from.Position(), to.Position()))
	if !ok {
		return s.reject("create_link", newError(CodeInvalidDirection,
			"rooms %d and %d are not on a canonical line", fromID, toID))
	}
	if s.graph.IsPathBlocked(from.Position(), to.Position(), dir) {
		return s.reject("create_link", newError(CodePathBlocked,
			"a room blocks the %s path from %d to %d", dir, fromID, toID))
	}
	rev := dir.Opposite()
	if e, taken := from.Exits[dir]; taken {
		return s.reject("create_link", newError(CodeDuplicateExit,
			"room %d already exits %s to %d", fromID, dir, e.To))
	}
	if e, taken := to.Exits[rev]; taken {
		return s.reject("create_link", newError(CodeDuplicateExit,
			"room %d already exits %s to %d", toID, rev, e.To))
	}
	l := s.graph.addLink(fromID, toID)
	s.hooks.LinkCreated(l)
	return s.commit("create_link")
}

// BreakLink removes every link between two rooms.
//
// Postcondition: Returns nil with no exits left between the pair, or
// RoomNotFound or LinkNotFound with no state changed.
func (s *Session) BreakLink(fromID, toID int) error {
	for _, id := range []int{fromID, toID} {
		if _, ok := s.graph.Room(id); !ok {
			return s.reject("break_link", newError(CodeRoomNotFound, "room %d does not exist", id))
		}
	}
	links := s.graph.LinksBetween(fromID, toID)
	if len(links) == 0 {
		return s.reject("break_link", newError(CodeLinkNotFound, "rooms %d and %d are not linked", fromID, toID))
	}
	for _, l := range links {
		s.graph.removeLink(l.ID)
		s.hooks.LinkRemoved(l)
	}
	return s.commit("break_link")
}

// SetRange rebinds the vnum pool. Rooms whose vnum falls outside the new
// range are deleted through the normal room cleanup.
//
// Postcondition: Returns the purged vnums in ascending order, or a
// RangeViolation error with no state changed.
func (s *Session) SetRange(min, max int) ([]int, error) {
	if err := checkRange(min, max); err != nil {
		return nil, s.reject("set_range", err)
	}
	if min == s.alloc.Min() && max == s.alloc.Max() {
		return nil, nil
	}
	var purged []int
	for _, id := range s.graph.IDs() {
		if id < min || id > max {
			purged = append(purged, id)
		}
	}
	for _, id := range purged {
		s.deleteRoom(id)
	}
	if err := s.alloc.SetRange(min, max); err != nil {
		return nil, err
	}
	if len(purged) > 0 {
		s.logger.Info("rooms purged by range change",
			zap.Int("min", min),
			zap.Int("max", max),
			zap.Ints("vnums", purged),
		)
	}
	if err := s.commit("set_range"); err != nil {
		return nil, err
	}
	return purged, nil
}

// SetRoomID reassigns a room's vnum and rewrites every reference to it.
//
// Postcondition: Returns nil, or RoomNotFound or RangeViolation with no
// state changed.
func (s *Session) SetRoomID(oldID, newID int) error {
	if _, ok := s.graph.Room(oldID); !ok {
		return s.reject("set_room_id", newError(CodeRoomNotFound, "room %d does not exist", oldID))
	}
	if oldID == newID {
		return nil
	}
	if !s.alloc.InRange(newID) {
		return s.reject("set_room_id", newError(CodeRangeViolation,
			"vnum %d is outside range %d-%d", newID, s.alloc.Min(), s.alloc.Max()))
	}
	if s.alloc.IsUsed(newID) {
		return s.reject("set_room_id", newError(CodeRangeViolation, "vnum %d is already in use", newID))
	}
	s.alloc.Free(oldID)
	if err := s.alloc.Register(newID); err != nil {
		return err
	}
	s.graph.renumber(oldID, newID)
	if s.hasSel && s.selected == oldID {
		s.selected = newID
	}
	return s.commit("set_room_id")
}

// RoomPatch carries optional field edits for UpdateRoom.
type RoomPatch struct {
	Name        *string
	Description *string
	Color       *string
	Sector      *Sector
	Extras      []ExtraDescription
	// SetExtras replaces Extras even when the new list is empty.
	SetExtras bool
}

// UpdateRoom edits a room's descriptive fields. History is recorded only
// when a field actually changes.
//
// Postcondition: Returns nil, or RoomNotFound with no state changed.
func (s *Session) UpdateRoom(id int, p RoomPatch) error {
	r, ok := s.graph.Room(id)
	if !ok {
		return s.reject("update_room", newError(CodeRoomNotFound, "room %d does not exist", id))
	}
	changed := false
	if p.Name != nil && *p.Name != r.Name {
		r.Name, changed = *p.Name, true
	}
	if p.Description != nil && *p.Description != r.Description {
		r.Description, changed = *p.Description, true
	}
	if p.Color != nil && *p.Color != r.Color {
		r.Color, changed = *p.Color, true
	}
	if p.Sector != nil && *p.Sector != r.Sector {
		r.Sector, changed = *p.Sector, true
	}
	if p.SetExtras && !slices.Equal(p.Extras, r.Extras) {
		r.Extras, changed = append([]ExtraDescription(nil), p.Extras...), true
	}
	if !changed {
		return nil
	}
	return s.commit("update_room")
}

// Undo restores the previous state.
//
// Postcondition: Returns false and changes nothing when only the baseline
// remains.
func (s *Session) Undo() (bool, error) {
	snap, ok := s.history.Undo()
	if !ok {
		return false, nil
	}
	if err := s.restore(snap); err != nil {
		return false, fmt.Errorf("undo: %w", err)
	}
	return true, nil
}

// Redo reapplies the most recently undone state.
//
// Postcondition: Returns false and changes nothing when the redo stack is
// empty.
func (s *Session) Redo() (bool, error) {
	snap, ok := s.history.Redo()
	if !ok {
		return false, nil
	}
	if err := s.restore(snap); err != nil {
		return false, fmt.Errorf("redo: %w", err)
	}
	return true, nil
}

// restore is the only path that replaces the graph wholesale.
func (s *Session) restore(snap Snapshot) error {
	file, err := snap.Decode()
	if err != nil {
		return err
	}
	if _, err := s.load(file, false); err != nil {
		return err
	}
	s.logger.Debug("history restored", zap.Int("rooms", s.graph.RoomCount()))
	return nil
}
