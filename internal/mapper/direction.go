// Package mapper provides the room-graph engine behind the map editor: rooms
// placed on a multi-level grid, the vnum pool that identifies them, the
// bidirectional exit graph between them, and the undo history of the whole.
package mapper

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction is one of the ten canonical exit directions. The integer value is
// the stable export index.
type Direction int

// Canonical directions in export-index order.
const (
	North Direction = iota
	East
	South
	West
	Up
	Down
	Northeast
	Northwest
	Southeast
	Southwest
)

// NumDirections is the size of the canonical direction set.
const NumDirections = 10

// AllDirections lists every canonical direction in index order.
var AllDirections = []Direction{
	North, East, South, West, Up, Down,
	Northeast, Northwest, Southeast, Southwest,
}

type directionInfo struct {
	name       string
	short      string
	dx, dy, dz int
	opposite   Direction
}

// Grid convention: -z is north, +x is east, +y (level) is up.
var directionTable = [NumDirections]directionInfo{
	North:     {"north", "n", 0, 0, -1, South},
	East:      {"east", "e", 1, 0, 0, West},
	South:     {"south", "s", 0, 0, 1, North},
	West:      {"west", "w", -1, 0, 0, East},
	Up:        {"up", "u", 0, 1, 0, Down},
	Down:      {"down", "d", 0, -1, 0, Up},
	Northeast: {"northeast", "ne", 1, 0, -1, Southwest},
	Northwest: {"northwest", "nw", -1, 0, -1, Southeast},
	Southeast: {"southeast", "se", 1, 0, 1, Northwest},
	Southwest: {"southwest", "sw", -1, 0, 1, Northeast},
}

// Valid reports whether d is one of the ten canonical directions.
func (d Direction) Valid() bool {
	return d >= 0 && d < NumDirections
}

// Index returns the stable integer used by export formats.
func (d Direction) Index() int {
	return int(d)
}

// String returns the lowercase direction name, e.g. "northeast".
func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("direction(%d)", int(d))
	}
	return directionTable[d].name
}

// Short returns the abbreviated key, e.g. "ne".
func (d Direction) Short() string {
	if !d.Valid() {
		return ""
	}
	return directionTable[d].short
}

// Vector returns the unit step of d as (dx, dy, dz) where dy counts levels.
func (d Direction) Vector() (dx, dy, dz int) {
	if !d.Valid() {
		return 0, 0, 0
	}
	info := directionTable[d]
	return info.dx, info.dy, info.dz
}

// Opposite returns the reverse of d.
//
// Postcondition: d.Opposite().Opposite() == d for every valid d.
func (d Direction) Opposite() Direction {
	if !d.Valid() {
		return d
	}
	return directionTable[d].opposite
}

// IsVertical reports whether d is Up or Down.
func (d Direction) IsVertical() bool {
	return d == Up || d == Down
}

// MarshalText encodes d as its name so it can key JSON objects.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes any form accepted by ParseDirection.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection resolves a direction key. Accepted forms are the name
// ("north"), the short key ("n"), the export index ("0") and the legacy
// vector key ("0,0,-1").
//
// Postcondition: Returns a valid Direction or a non-nil error.
func ParseDirection(s string) (Direction, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return 0, fmt.Errorf("empty direction key")
	}
	for _, d := range AllDirections {
		info := directionTable[d]
		if key == info.name || key == info.short {
			return d, nil
		}
	}
	if idx, err := strconv.Atoi(key); err == nil {
		d := Direction(idx)
		if d.Valid() {
			return d, nil
		}
		return 0, fmt.Errorf("direction index %d out of range", idx)
	}
	if parts := strings.Split(key, ","); len(parts) == 3 {
		var v [3]int
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return 0, fmt.Errorf("unknown direction key %q", s)
			}
			v[i] = int(f)
		}
		if d, ok := DirectionFromStep(v[0], v[1], v[2]); ok {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown direction key %q", s)
}

// DirectionFromStep maps a unit step to its direction.
//
// Postcondition: Returns (d, true) when (dx, dy, dz) equals d.Vector().
func DirectionFromStep(dx, dy, dz int) (Direction, bool) {
	for _, d := range AllDirections {
		info := directionTable[d]
		if info.dx == dx && info.dy == dy && info.dz == dz {
			return d, true
		}
	}
	return 0, false
}

// ResolveDelta reduces an integer delta between two cells to a canonical
// direction and the number of unit steps along it. Vertical deltas resolve
// only when there is no horizontal component, and collapse to Up or Down
// regardless of how many levels apart the endpoints are. Horizontal deltas
// resolve when they lie on an axis or a diagonal.
//
// Postcondition: ok is false for the zero delta and for off-line deltas.
func ResolveDelta(dx, dy, dz int) (dir Direction, steps int, ok bool) {
	switch {
	case dy != 0:
		if dx != 0 || dz != 0 {
			return 0, 0, false
		}
		if dy > 0 {
			return Up, dy, true
		}
		return Down, -dy, true
	case dx == 0 && dz == 0:
		return 0, 0, false
	case dx != 0 && dz != 0 && abs(dx) != abs(dz):
		return 0, 0, false
	}
	d, found := DirectionFromStep(sign(dx), 0, sign(dz))
	if !found {
		return 0, 0, false
	}
	return d, max(abs(dx), abs(dz)), true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
