package mapper

import "fmt"

// CheckInvariants verifies that the graph, its level containers, its exits
// and the vnum pool agree with each other.
//
// Postcondition: Returns nil if consistent, or an error describing the first
// violation.
func (s *Session) CheckInvariants() error {
	g, a := s.graph, s.alloc

	placed := 0
	for idx, list := range g.levels {
		for _, r := range list {
			placed++
			if r.Level != idx-LevelOffset {
				return fmt.Errorf("room %d: level %d stored in container for level %d", r.ID, r.Level, idx-LevelOffset)
			}
			if g.rooms[r.ID] != r {
				return fmt.Errorf("room %d: level container holds a room missing from the index", r.ID)
			}
		}
	}
	if placed != len(g.rooms) {
		return fmt.Errorf("%d rooms indexed but %d placed on levels", len(g.rooms), placed)
	}

	if got, want := a.UsedCount()+a.AvailableCount(), a.Max()-a.Min()+1; got != want {
		return fmt.Errorf("vnum pool covers %d ids, range %d-%d has %d", got, a.Min(), a.Max(), want)
	}
	if a.UsedCount() != len(g.rooms) {
		return fmt.Errorf("vnum pool marks %d ids used for %d rooms", a.UsedCount(), len(g.rooms))
	}

	for _, r := range g.Rooms() {
		if !a.InRange(r.ID) || !a.IsUsed(r.ID) {
			return fmt.Errorf("room %d: vnum not registered in range %d-%d", r.ID, a.Min(), a.Max())
		}
		if r.Position() != r.Position().Snapped() {
			return fmt.Errorf("room %d: position %s is not a cell center", r.ID, r.Position())
		}
		if other := g.FindAt(r.Level, r.X, r.Z); other != r {
			return fmt.Errorf("room %d: shares cell %s with room %d", r.ID, r.Position(), other.ID)
		}
		for dir, e := range r.Exits {
			if e.Direction != dir {
				return fmt.Errorf("room %d: exit keyed %s records direction %s", r.ID, dir, e.Direction)
			}
			target, ok := g.rooms[e.To]
			if !ok {
				return fmt.Errorf("room %d: exit %s targets missing room %d", r.ID, dir, e.To)
			}
			back, ok := target.Exits[dir.Opposite()]
			if !ok || back.To != r.ID {
				return fmt.Errorf("room %d: exit %s to %d has no matching %s exit back", r.ID, dir, e.To, dir.Opposite())
			}
		}
	}
	return nil
}
