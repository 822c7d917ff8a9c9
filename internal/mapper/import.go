package mapper

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// UnresolvedExit is an imported exit that was dropped.
type UnresolvedExit struct {
	From   int
	Key    string
	To     int
	Reason string
}

// SkippedRoom is an imported room record that was dropped.
type SkippedRoom struct {
	ID     int
	Reason string
}

// ImportReport summarizes what an import rebuilt and what it dropped.
type ImportReport struct {
	Rooms int
	Links int
	// Rederived counts exits whose stored direction disagreed with the room
	// positions; the geometric direction wins.
	Rederived  int
	Unresolved []UnresolvedExit
	Skipped    []SkippedRoom
}

// ExportJSON renders the current graph in the native indented JSON form.
func (s *Session) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(EncodeAreaFile(s.AreaInfo(), s.graph), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding area: %w", err)
	}
	return data, nil
}

// ImportJSON replaces the whole map with native area data and makes the
// result the new history baseline. Exits that name an unknown room are
// dropped individually; everything else proceeds.
//
// Postcondition: On error the current map is untouched.
func (s *Session) ImportJSON(data []byte) (ImportReport, error) {
	file, err := DecodeAreaFile(data)
	if err != nil {
		return ImportReport{}, err
	}
	return s.Import(file)
}

// Import replaces the whole map with an already decoded area file.
//
// Postcondition: On error the current map is untouched.
func (s *Session) Import(file AreaFile) (ImportReport, error) {
	report, err := s.load(file, true)
	if err != nil {
		return ImportReport{}, err
	}
	snap, err := s.snapshot()
	if err != nil {
		return report, err
	}
	s.history.Reset(snap)
	s.logger.Info("area imported",
		zap.String("area", s.areaName),
		zap.Int("rooms", report.Rooms),
		zap.Int("links", report.Links),
		zap.Int("unresolved", len(report.Unresolved)),
		zap.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

// load tears the graph down and rebuilds it from file. Pass one creates
// every room so each vnum resolves; pass two wires links from exit
// references. Exits are then rederived from geometry.
func (s *Session) load(file AreaFile, notify bool) (ImportReport, error) {
	min, max := s.alloc.Min(), s.alloc.Max()
	if file.AreaInfo != nil {
		min, max = file.AreaInfo.VnumMin, file.AreaInfo.VnumMax
	} else {
		for _, rec := range file.Rooms {
			if rec.ID < min {
				min = rec.ID
			}
			if rec.ID > max {
				max = rec.ID
			}
		}
	}
	alloc, err := NewAllocator(min, max)
	if err != nil {
		return ImportReport{}, fmt.Errorf("importing area: %w", err)
	}

	var report ImportReport
	skip := func(code Code, id int, format string, args ...any) {
		reason := fmt.Sprintf(format, args...)
		report.Skipped = append(report.Skipped, SkippedRoom{ID: id, Reason: reason})
		if notify {
			s.hooks.Notice(newError(code, "room %d skipped: %s", id, reason))
		}
	}

	graph := NewGraph()
	var accepted []RoomRecord
	for _, rec := range file.Rooms {
		switch {
		case !ValidLevel(rec.Level):
			skip(CodeRangeViolation, rec.ID, "level %d is outside %d..%d", rec.Level, MinLevel, MaxLevel)
			continue
		case alloc.Register(rec.ID) != nil:
			skip(CodeRangeViolation, rec.ID, "vnum is outside %d-%d or duplicated", min, max)
			continue
		}
		if other := graph.FindAt(rec.Level, rec.X, rec.Z); other != nil {
			alloc.Free(rec.ID)
			skip(CodeCellOccupied, rec.ID, "cell already holds room %d", other.ID)
			continue
		}
		graph.insertRoom(roomFromRecord(rec))
		accepted = append(accepted, rec)
	}

	drop := func(from int, key string, to int, reason string) {
		report.Unresolved = append(report.Unresolved, UnresolvedExit{From: from, Key: key, To: to, Reason: reason})
		if notify {
			s.hooks.Notice(newError(CodeUnresolvedReference, "room %d exit %q to %d dropped: %s", from, key, to, reason))
		}
	}
	type exitRef struct {
		key      string
		from, to int
	}
	origin := make(map[LinkID]exitRef)
	for _, rec := range accepted {
		src, _ := graph.Room(rec.ID)
		keys := make([]string, 0, len(rec.Exits))
		for key := range rec.Exits {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			ex := rec.Exits[key]
			dir, err := ParseDirection(key)
			if err != nil {
				drop(rec.ID, key, ex.To, err.Error())
				continue
			}
			target, ok := graph.Room(ex.To)
			switch {
			case !ok:
				drop(rec.ID, key, ex.To, "target room does not exist")
				continue
			case ex.To == rec.ID:
				drop(rec.ID, key, ex.To, "exit loops to its own room")
				continue
			}
			geo, _, ok := ResolveDelta(Delta(src.Position(), target.Position()))
			if !ok {
				drop(rec.ID, key, ex.To, "room positions do not line up in a canonical direction")
				continue
			}
			if geo != dir {
				report.Rederived++
			}
			if len(graph.LinksBetween(rec.ID, ex.To)) == 0 {
				l := graph.addLink(rec.ID, ex.To)
				origin[l.ID] = exitRef{key: key, from: rec.ID, to: ex.To}
			}
		}
	}
	for _, l := range graph.Recalculate() {
		o := origin[l.ID]
		drop(o.from, o.key, o.to, "exit slot already taken by another link")
	}

	s.graph = graph
	s.alloc = alloc
	s.ClearSelection()
	if file.AreaInfo != nil {
		s.areaName = file.AreaInfo.AreaName
		s.filename = file.AreaInfo.Filename
	}
	s.hooks.GraphReplaced()

	report.Rooms = graph.RoomCount()
	report.Links = graph.LinkCount()
	return report, nil
}
