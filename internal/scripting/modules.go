package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmapper/internal/mapper"
)

// RegisterModules registers the map and log Lua tables into L and routes
// print to the logger.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: map and log globals are defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	L.SetGlobal("map", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"create_room": m.luaCreateRoom,
		"delete_room": m.luaDeleteRoom,
		"move_room":   m.luaMoveRoom,
		"link":        m.luaLink,
		"unlink":      m.luaUnlink,
		"set_range":   m.luaSetRange,
		"range":       m.luaRange,
		"set_room":    m.luaSetRoom,
		"set_id":      m.luaSetID,
		"room":        m.luaRoom,
		"room_at":     m.luaRoomAt,
		"rooms":       m.luaRooms,
		"undo":        m.luaUndo,
		"redo":        m.luaRedo,
	}))

	L.SetGlobal("log", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"debug": m.logFunc(m.logger.Debug),
		"info":  m.logFunc(m.logger.Info),
		"warn":  m.logFunc(m.logger.Warn),
		"error": m.logFunc(m.logger.Error),
	}))
	L.SetGlobal("print", L.NewFunction(m.logFunc(m.logger.Info)))
}

func (m *Manager) logFunc(emit func(string, ...zap.Field)) lua.LGFunction {
	return func(L *lua.LState) int {
		var msg string
		for i := 1; i <= L.GetTop(); i++ {
			if i > 1 {
				msg += " "
			}
			msg += L.ToStringMeta(L.Get(i)).String()
		}
		emit(msg, zap.String("source", "lua"))
		return 0
	}
}

// fail pushes nil and a "<CODE>: <message>" string, the scripting form of a
// rejected edit.
func fail(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	return 2
}

func succeed(L *lua.LState) int {
	L.Push(lua.LTrue)
	return 1
}

func (m *Manager) luaCreateRoom(L *lua.LState) int {
	level := L.CheckInt(1)
	x := float64(L.CheckNumber(2))
	z := float64(L.CheckNumber(3))
	r, err := m.session.CreateRoom(level, x, z)
	if err != nil {
		return fail(L, err)
	}
	L.Push(lua.LNumber(r.ID))
	return 1
}

func (m *Manager) luaDeleteRoom(L *lua.LState) int {
	if err := m.session.DeleteRoom(L.CheckInt(1)); err != nil {
		return fail(L, err)
	}
	return succeed(L)
}

func (m *Manager) luaMoveRoom(L *lua.LState) int {
	id := L.CheckInt(1)
	to := mapper.Position{
		Level: L.CheckInt(2),
		X:     float64(L.CheckNumber(3)),
		Z:     float64(L.CheckNumber(4)),
	}
	if err := m.session.MoveRoom(id, to); err != nil {
		return fail(L, err)
	}
	return succeed(L)
}

func (m *Manager) luaLink(L *lua.LState) int {
	if err := m.session.CreateLink(L.CheckInt(1), L.CheckInt(2)); err != nil {
		return fail(L, err)
	}
	return succeed(L)
}

func (m *Manager) luaUnlink(L *lua.LState) int {
	if err := m.session.BreakLink(L.CheckInt(1), L.CheckInt(2)); err != nil {
		return fail(L, err)
	}
	return succeed(L)
}

func (m *Manager) luaSetRange(L *lua.LState) int {
	purged, err := m.session.SetRange(L.CheckInt(1), L.CheckInt(2))
	if err != nil {
		return fail(L, err)
	}
	L.Push(intList(L, purged))
	return 1
}

func (m *Manager) luaRange(L *lua.LState) int {
	a := m.session.Allocator()
	L.Push(lua.LNumber(a.Min()))
	L.Push(lua.LNumber(a.Max()))
	return 2
}

// luaSetRoom applies the fields present in the table argument:
// name, desc, color and sector (a name or number).
func (m *Manager) luaSetRoom(L *lua.LState) int {
	id := L.CheckInt(1)
	fields := L.CheckTable(2)
	var patch mapper.RoomPatch
	if v, isStr := fields.RawGetString("name").(lua.LString); isStr {
		s := string(v)
		patch.Name = &s
	}
	if v, isStr := fields.RawGetString("desc").(lua.LString); isStr {
		s := string(v)
		patch.Description = &s
	}
	if v, isStr := fields.RawGetString("color").(lua.LString); isStr {
		s := string(v)
		patch.Color = &s
	}
	if v := fields.RawGetString("sector"); v != lua.LNil {
		sector, err := mapper.ParseSector(v.String())
		if err != nil {
			return fail(L, err)
		}
		patch.Sector = &sector
	}
	if err := m.session.UpdateRoom(id, patch); err != nil {
		return fail(L, err)
	}
	return succeed(L)
}

func (m *Manager) luaSetID(L *lua.LState) int {
	if err := m.session.SetRoomID(L.CheckInt(1), L.CheckInt(2)); err != nil {
		return fail(L, err)
	}
	return succeed(L)
}

func (m *Manager) luaRoom(L *lua.LState) int {
	r, found := m.session.Room(L.CheckInt(1))
	if !found {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(roomTable(L, r))
	return 1
}

func (m *Manager) luaRoomAt(L *lua.LState) int {
	r := m.session.Graph().FindAt(L.CheckInt(1), float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
	if r == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(roomTable(L, r))
	return 1
}

func (m *Manager) luaRooms(L *lua.LState) int {
	L.Push(intList(L, m.session.Graph().IDs()))
	return 1
}

func (m *Manager) luaUndo(L *lua.LState) int {
	done, err := m.session.Undo()
	if err != nil {
		return fail(L, err)
	}
	L.Push(lua.LBool(done))
	return 1
}

func (m *Manager) luaRedo(L *lua.LState) int {
	done, err := m.session.Redo()
	if err != nil {
		return fail(L, err)
	}
	L.Push(lua.LBool(done))
	return 1
}

func intList(L *lua.LState, ids []int) *lua.LTable {
	t := L.CreateTable(len(ids), 0)
	for _, id := range ids {
		t.Append(lua.LNumber(id))
	}
	return t
}

// roomTable converts a room into a Lua table. Exits are keyed by direction
// name and hold the target vnum.
func roomTable(L *lua.LState, r *mapper.Room) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LNumber(r.ID))
	t.RawSetString("name", lua.LString(r.Name))
	t.RawSetString("desc", lua.LString(r.Description))
	t.RawSetString("level", lua.LNumber(r.Level))
	t.RawSetString("x", lua.LNumber(r.X))
	t.RawSetString("z", lua.LNumber(r.Z))
	t.RawSetString("color", lua.LString(r.Color))
	t.RawSetString("sector", lua.LString(r.Sector.String()))
	exits := L.NewTable()
	for _, e := range r.SortedExits() {
		exits.RawSetString(e.Direction.String(), lua.LNumber(e.To))
	}
	t.RawSetString("exits", exits)
	return t
}
