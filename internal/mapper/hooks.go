package mapper

// Hooks receives notifications from a Session. Rendering and UI layers
// implement it to mirror graph changes; none of the calls may mutate the
// Session.
type Hooks interface {
	// RoomCreated fires after a room is inserted by CreateRoom.
	RoomCreated(r *Room)
	// RoomRemoved fires after a room is deleted, including range purges.
	RoomRemoved(id int)
	// RoomMoved fires after a successful move.
	RoomMoved(r *Room)
	// LinkCreated fires after CreateLink registers a link.
	LinkCreated(l Link)
	// LinkRemoved fires for every link dropped by BreakLink or room deletion.
	LinkRemoved(l Link)
	// GraphReplaced fires after undo, redo, or import rebuilt the graph.
	GraphReplaced()
	// Notice reports a rejected edit or a dropped import entry.
	Notice(err *Error)
}

// NopHooks ignores every notification.
type NopHooks struct{}

func (NopHooks) RoomCreated(*Room) {}
func (NopHooks) RoomRemoved(int)   {}
func (NopHooks) RoomMoved(*Room)   {}
func (NopHooks) LinkCreated(Link)  {}
func (NopHooks) LinkRemoved(Link)  {}
func (NopHooks) GraphReplaced()    {}
func (NopHooks) Notice(*Error)     {}

var _ Hooks = NopHooks{}
