package mapper

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Sector is the terrain tag of a room. It only matters to exporters.
type Sector int

// Terrain types, numbered the way ROM-family area files number them.
const (
	SectorInside Sector = iota
	SectorCity
	SectorField
	SectorForest
	SectorHills
	SectorMountain
	SectorWaterSwim
	SectorWaterNoSwim
	SectorUnused
	SectorAir
	SectorDesert
)

var sectorNames = []string{
	"inside", "city", "field", "forest", "hills", "mountain",
	"water_swim", "water_noswim", "unused", "air", "desert",
}

// String returns the sector name, e.g. "water_swim".
func (s Sector) String() string {
	if s < 0 || int(s) >= len(sectorNames) {
		return fmt.Sprintf("sector(%d)", int(s))
	}
	return sectorNames[s]
}

// ParseSector resolves a sector by name or number.
//
// Postcondition: Returns a known Sector or a non-nil error.
func ParseSector(s string) (Sector, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range sectorNames {
		if key == name {
			return Sector(i), nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(key, "%d", &n); err == nil && n >= 0 && n < len(sectorNames) {
		return Sector(n), nil
	}
	return 0, fmt.Errorf("unknown sector %q", s)
}

// Position places a room on the grid. X and Z are cell-centered world
// coordinates; Level is the signed level index.
type Position struct {
	Level int
	X     float64
	Z     float64
}

// Cell returns the integer grid cell containing p.
func (p Position) Cell() (int, int) {
	return int(math.Floor(p.X)), int(math.Floor(p.Z))
}

// SameCell reports whether p and o fall in the same cell on the same level.
func (p Position) SameCell(o Position) bool {
	if p.Level != o.Level {
		return false
	}
	px, pz := p.Cell()
	ox, oz := o.Cell()
	return px == ox && pz == oz
}

// Snapped returns p moved to the center of its cell.
func (p Position) Snapped() Position {
	return Position{Level: p.Level, X: Snap(p.X), Z: Snap(p.Z)}
}

// Snap returns the center coordinate of the cell containing v.
func Snap(v float64) float64 {
	return math.Floor(v) + 0.5
}

// String renders p as "L<level> (<x>, <z>)".
func (p Position) String() string {
	return fmt.Sprintf("L%d (%g, %g)", p.Level, p.X, p.Z)
}

// Exit is a directed half of a link as seen from one room.
type Exit struct {
	// To is the vnum of the room on the other end.
	To int
	// Direction is the direction of travel from the owning room.
	Direction Direction
}

// ExtraDescription is a keyword-addressed description attached to a room.
type ExtraDescription struct {
	Keywords    string
	Description string
}

// Room is a single map location.
type Room struct {
	// ID is the room's vnum.
	ID int
	// Level is the signed level index the room lives on.
	Level int
	// X and Z are cell-centered grid coordinates.
	X float64
	Z float64
	// Color is a "#rrggbb" display color.
	Color string
	// Name is the short room title; empty means "Room <id>" on export.
	Name string
	// Description is the long room text; empty means "<id>" on export.
	Description string
	// Sector is the terrain type.
	Sector Sector
	// Extras are additional keyword descriptions.
	Extras []ExtraDescription
	// Exits is derived from the link list by Recalculate and must not be
	// edited directly.
	Exits map[Direction]Exit
}

// Position returns the room's current grid position.
func (r *Room) Position() Position {
	return Position{Level: r.Level, X: r.X, Z: r.Z}
}

// ExitForDirection returns the exit in the given direction, if one exists.
//
// Postcondition: Returns (exit, true) if found, or (Exit{}, false) otherwise.
func (r *Room) ExitForDirection(dir Direction) (Exit, bool) {
	e, ok := r.Exits[dir]
	return e, ok
}

// SortedExits returns the room's exits ordered by direction index.
func (r *Room) SortedExits() []Exit {
	exits := make([]Exit, 0, len(r.Exits))
	for _, e := range r.Exits {
		exits = append(exits, e)
	}
	sort.Slice(exits, func(i, j int) bool { return exits[i].Direction < exits[j].Direction })
	return exits
}

// DisplayName returns Name, or "Room <id>" when Name is blank.
func (r *Room) DisplayName() string {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Sprintf("Room %d", r.ID)
	}
	return r.Name
}

// DisplayDescription returns Description, or "<id>" when it is blank.
func (r *Room) DisplayDescription() string {
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Sprintf("%d", r.ID)
	}
	return r.Description
}
