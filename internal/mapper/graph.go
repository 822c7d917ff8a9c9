package mapper

import (
	"math"
	"sort"
)

// Level bounds. Rooms live in levels[level+LevelOffset].
const (
	LevelOffset = 20
	LevelCount  = 2*LevelOffset + 1
	MinLevel    = -LevelOffset
	MaxLevel    = LevelOffset
)

// LinkID identifies a link in the graph's edge list.
type LinkID int

// Link is an undirected connection between two rooms. Its exits are derived
// from the endpoints' positions by Recalculate.
type Link struct {
	ID LinkID
	A  int
	B  int
}

// Other returns the endpoint opposite id.
func (l Link) Other(id int) int {
	if l.A == id {
		return l.B
	}
	return l.A
}

// Connects reports whether l joins a and b in either order.
func (l Link) Connects(a, b int) bool {
	return (l.A == a && l.B == b) || (l.A == b && l.B == a)
}

// Graph owns the rooms, their level containers, and the link edge list.
// It performs no validation; the Session decides what may be mutated.
type Graph struct {
	levels   [LevelCount][]*Room
	rooms    map[int]*Room
	links    map[LinkID]*Link
	byRoom   map[int][]LinkID
	nextLink LinkID
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		rooms:  make(map[int]*Room),
		links:  make(map[LinkID]*Link),
		byRoom: make(map[int][]LinkID),
	}
}

// ValidLevel reports whether level has a container.
func ValidLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}

// Room returns the room with the given vnum.
//
// Postcondition: Returns (room, true) if found, or (nil, false) otherwise.
func (g *Graph) Room(id int) (*Room, bool) {
	r, ok := g.rooms[id]
	return r, ok
}

// RoomCount returns the number of live rooms.
func (g *Graph) RoomCount() int { return len(g.rooms) }

// LinkCount returns the number of links in the edge list.
func (g *Graph) LinkCount() int { return len(g.links) }

// Rooms returns every room ordered by vnum.
func (g *Graph) Rooms() []*Room {
	out := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RoomsOnLevel returns the rooms of one level in insertion order.
func (g *Graph) RoomsOnLevel(level int) []*Room {
	if !ValidLevel(level) {
		return nil
	}
	return append([]*Room(nil), g.levels[level+LevelOffset]...)
}

// IDs returns every live vnum in ascending order.
func (g *Graph) IDs() []int {
	ids := make([]int, 0, len(g.rooms))
	for id := range g.rooms {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Links returns the edge list ordered by link id.
func (g *Graph) Links() []Link {
	out := make([]Link, 0, len(g.links))
	for _, l := range g.links {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LinksOf returns the links touching room id.
func (g *Graph) LinksOf(id int) []Link {
	out := make([]Link, 0, len(g.byRoom[id]))
	for _, lid := range g.byRoom[id] {
		out = append(out, *g.links[lid])
	}
	return out
}

// LinksBetween returns every link joining a and b. Imported data may hold
// more than one.
func (g *Graph) LinksBetween(a, b int) []Link {
	var out []Link
	for _, lid := range g.byRoom[a] {
		if l := g.links[lid]; l.Connects(a, b) {
			out = append(out, *l)
		}
	}
	return out
}

func (g *Graph) insertRoom(r *Room) {
	if r.Exits == nil {
		r.Exits = make(map[Direction]Exit)
	}
	idx := r.Level + LevelOffset
	g.levels[idx] = append(g.levels[idx], r)
	g.rooms[r.ID] = r
}

// removeRoom drops the room and every link touching it. Removing an absent
// room is a no-op.
func (g *Graph) removeRoom(id int) ([]Link, bool) {
	r, ok := g.rooms[id]
	if !ok {
		return nil, false
	}
	removed := g.LinksOf(id)
	for _, l := range removed {
		g.removeLink(l.ID)
	}
	g.detach(r)
	delete(g.rooms, id)
	delete(g.byRoom, id)
	return removed, true
}

func (g *Graph) detach(r *Room) {
	idx := r.Level + LevelOffset
	list := g.levels[idx]
	for i, candidate := range list {
		if candidate == r {
			g.levels[idx] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// relocate moves r to pos, switching level containers when needed.
func (g *Graph) relocate(r *Room, pos Position) {
	if pos.Level != r.Level {
		g.detach(r)
		r.Level = pos.Level
		idx := r.Level + LevelOffset
		g.levels[idx] = append(g.levels[idx], r)
	}
	r.X, r.Z = pos.X, pos.Z
}

// renumber changes a room's vnum and rewrites every link endpoint.
func (g *Graph) renumber(oldID, newID int) {
	r := g.rooms[oldID]
	delete(g.rooms, oldID)
	r.ID = newID
	g.rooms[newID] = r
	lids := g.byRoom[oldID]
	delete(g.byRoom, oldID)
	g.byRoom[newID] = lids
	for _, lid := range lids {
		l := g.links[lid]
		if l.A == oldID {
			l.A = newID
		}
		if l.B == oldID {
			l.B = newID
		}
	}
}

func (g *Graph) addLink(a, b int) Link {
	g.nextLink++
	l := &Link{ID: g.nextLink, A: a, B: b}
	g.links[l.ID] = l
	g.byRoom[a] = append(g.byRoom[a], l.ID)
	g.byRoom[b] = append(g.byRoom[b], l.ID)
	return *l
}

func (g *Graph) removeLink(id LinkID) {
	l, ok := g.links[id]
	if !ok {
		return
	}
	delete(g.links, id)
	g.byRoom[l.A] = without(g.byRoom[l.A], id)
	g.byRoom[l.B] = without(g.byRoom[l.B], id)
}

func without(ids []LinkID, id LinkID) []LinkID {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// clear drops every room and link.
func (g *Graph) clear() {
	for i := range g.levels {
		g.levels[i] = nil
	}
	g.rooms = make(map[int]*Room)
	g.links = make(map[LinkID]*Link)
	g.byRoom = make(map[int][]LinkID)
	g.nextLink = 0
}

// FindAt returns the room occupying the cell of (x, z) on level, or nil.
func (g *Graph) FindAt(level int, x, z float64) *Room {
	if !ValidLevel(level) {
		return nil
	}
	target := Position{Level: level, X: x, Z: z}
	for _, r := range g.levels[level+LevelOffset] {
		if r.Position().SameCell(target) {
			return r
		}
	}
	return nil
}

// IsPathBlocked reports whether any room sits on a cell strictly between from
// and to when walking in steps of dir. Vertical walks check the same cell on
// every intermediate level.
func (g *Graph) IsPathBlocked(from, to Position, dir Direction) bool {
	dx, dy, dz := dir.Vector()
	steps := stepsBetween(from, to, dir)
	for k := 1; k < steps; k++ {
		level := from.Level + k*dy
		x := from.X + float64(k*dx)
		z := from.Z + float64(k*dz)
		if g.FindAt(level, x, z) != nil {
			return true
		}
	}
	return false
}

func stepsBetween(from, to Position, dir Direction) int {
	if dir.IsVertical() {
		return abs(to.Level - from.Level)
	}
	return max(
		abs(int(math.Round(to.X-from.X))),
		abs(int(math.Round(to.Z-from.Z))),
	)
}

// Adjacent returns the rooms exactly one step from r in each direction.
func (g *Graph) Adjacent(r *Room) map[Direction]*Room {
	out := make(map[Direction]*Room)
	for _, d := range AllDirections {
		dx, dy, dz := d.Vector()
		if n := g.FindAt(r.Level+dy, r.X+float64(dx), r.Z+float64(dz)); n != nil {
			out[d] = n
		}
	}
	return out
}

// Nearest returns the room on level closest to (x, z), or nil when the level
// is empty. Ties go to the lower vnum.
func (g *Graph) Nearest(level int, x, z float64) *Room {
	if !ValidLevel(level) {
		return nil
	}
	var best *Room
	bestDist := math.Inf(1)
	for _, r := range g.levels[level+LevelOffset] {
		d := math.Hypot(r.X-x, r.Z-z)
		if d < bestDist || (d == bestDist && best != nil && r.ID < best.ID) {
			best, bestDist = r, d
		}
	}
	return best
}

// Delta returns the rounded (dx, dlevel, dz) from a to b.
func Delta(a, b Position) (int, int, int) {
	return int(math.Round(b.X - a.X)), b.Level - a.Level, int(math.Round(b.Z - a.Z))
}

// Recalculate rebuilds every room's exits from the link list and current
// positions. Links are visited in id order; a link whose geometry no longer
// resolves to a canonical direction, or whose slot on either endpoint was
// already claimed by an earlier link, produces no exits and is removed, so
// the link list and the exits always describe the same connections.
//
// Postcondition: exits are symmetric, every remaining link realizes exactly
// one exit pair, and calling Recalculate again without an intervening
// mutation yields identical exits. Returns the removed links in id order.
func (g *Graph) Recalculate() []Link {
	for _, r := range g.rooms {
		r.Exits = make(map[Direction]Exit)
	}
	var pruned []Link
	for _, l := range g.Links() {
		a, okA := g.rooms[l.A]
		b, okB := g.rooms[l.B]
		if !okA || !okB || l.A == l.B {
			pruned = append(pruned, l)
			continue
		}
		dir, _, ok := ResolveDelta(Delta(a.Position(), b.Position()))
		if !ok {
			pruned = append(pruned, l)
			continue
		}
		rev := dir.Opposite()
		_, takenA := a.Exits[dir]
		_, takenB := b.Exits[rev]
		if takenA || takenB {
			pruned = append(pruned, l)
			continue
		}
		a.Exits[dir] = Exit{To: b.ID, Direction: dir}
		b.Exits[rev] = Exit{To: a.ID, Direction: rev}
	}
	for _, l := range pruned {
		g.removeLink(l.ID)
	}
	return pruned
}
