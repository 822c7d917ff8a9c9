package mapper

import (
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// Allocator hands out vnums from an inclusive [Min, Max] range.
//
// The used and available sets always partition the range exactly.
// lastAssigned is only a high-water hint; Allocate always scans from Min.
type Allocator struct {
	min, max     int
	used         mapset.Set[int]
	available    mapset.Set[int]
	lastAssigned int
}

// NewAllocator creates an empty pool over [min, max].
//
// Precondition: 0 <= min <= max.
// Postcondition: Returns an Allocator with every id available, or a
// RangeViolation error.
func NewAllocator(min, max int) (*Allocator, error) {
	if err := checkRange(min, max); err != nil {
		return nil, err
	}
	a := &Allocator{min: min, max: max}
	a.Recompute(nil)
	return a, nil
}

func checkRange(min, max int) *Error {
	if min < 0 {
		return newError(CodeRangeViolation, "vnum range minimum %d must not be negative", min)
	}
	if min > max {
		return newError(CodeRangeViolation, "vnum range minimum %d exceeds maximum %d", min, max)
	}
	return nil
}

// Min returns the lower bound of the range.
func (a *Allocator) Min() int { return a.min }

// Max returns the upper bound of the range.
func (a *Allocator) Max() int { return a.max }

// LastAssigned returns the high-water mark, or Min-1 when nothing is used.
func (a *Allocator) LastAssigned() int { return a.lastAssigned }

// InRange reports whether id lies within [Min, Max].
func (a *Allocator) InRange(id int) bool {
	return id >= a.min && id <= a.max
}

// IsUsed reports whether id is currently assigned.
func (a *Allocator) IsUsed(id int) bool {
	return a.used.Has(id)
}

// UsedCount returns the number of assigned ids.
func (a *Allocator) UsedCount() int { return a.used.Size() }

// AvailableCount returns the number of free ids.
func (a *Allocator) AvailableCount() int { return a.available.Size() }

// Allocate assigns the lowest free id.
//
// Postcondition: Returns (id, true) with id marked used, or (0, false) when
// the pool is exhausted.
func (a *Allocator) Allocate() (int, bool) {
	for id := a.min; id <= a.max; id++ {
		if a.used.Has(id) {
			continue
		}
		a.used.Put(id)
		a.available.Remove(id)
		if id > a.lastAssigned {
			a.lastAssigned = id
		}
		return id, true
	}
	return 0, false
}

// Register marks a specific id as used. Imports and explicit id edits go
// through here instead of Allocate.
//
// Postcondition: id is used, or a RangeViolation error is returned and the
// pool is unchanged.
func (a *Allocator) Register(id int) error {
	if !a.InRange(id) {
		return newError(CodeRangeViolation, "vnum %d is outside range %d-%d", id, a.min, a.max)
	}
	if a.used.Has(id) {
		return newError(CodeRangeViolation, "vnum %d is already in use", id)
	}
	a.used.Put(id)
	a.available.Remove(id)
	if id > a.lastAssigned {
		a.lastAssigned = id
	}
	return nil
}

// Free returns id to the pool. Freeing the high-water mark walks the mark
// down past every trailing unused id.
func (a *Allocator) Free(id int) {
	a.used.Remove(id)
	if a.InRange(id) {
		a.available.Put(id)
	}
	if id == a.lastAssigned {
		for a.lastAssigned >= a.min && !a.used.Has(a.lastAssigned) {
			a.lastAssigned--
		}
	}
}

// SetRange rebinds the pool to [min, max]. Used ids that fall outside the new
// range are released; callers must delete the rooms holding them first.
//
// Postcondition: On success the sets partition the new range; on error the
// pool is unchanged.
func (a *Allocator) SetRange(min, max int) error {
	if err := checkRange(min, max); err != nil {
		return err
	}
	kept := make([]int, 0, a.used.Size())
	a.used.Each(func(id int) {
		if id >= min && id <= max {
			kept = append(kept, id)
		}
	})
	a.min, a.max = min, max
	a.Recompute(kept)
	return nil
}

// Recompute rebuilds both sets from the ids of the live rooms.
//
// Postcondition: used holds every in-range id of ids, available holds the
// rest of the range, and LastAssigned is the largest used id.
func (a *Allocator) Recompute(ids []int) {
	a.used = mapset.New[int]()
	a.available = mapset.New[int]()
	a.lastAssigned = a.min - 1
	for _, id := range ids {
		if !a.InRange(id) {
			continue
		}
		a.used.Put(id)
		if id > a.lastAssigned {
			a.lastAssigned = id
		}
	}
	for id := a.min; id <= a.max; id++ {
		if !a.used.Has(id) {
			a.available.Put(id)
		}
	}
}

// Used returns the assigned ids in ascending order.
func (a *Allocator) Used() []int {
	return sortedSet(a.used)
}

// Available returns the free ids in ascending order.
func (a *Allocator) Available() []int {
	return sortedSet(a.available)
}

func sortedSet(s mapset.Set[int]) []int {
	out := make([]int, 0, s.Size())
	s.Each(func(id int) { out = append(out, id) })
	sort.Ints(out)
	return out
}
