package area

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmapper/internal/mapper"
)

// DroppedExit is an exit that a format could not write.
type DroppedExit struct {
	From      int
	To        int
	Direction mapper.Direction
	Reason    string
}

// Rendered is the output of a templated export.
type Rendered struct {
	Format *Format
	// Data is the encoded file content.
	Data    []byte
	Rooms   int
	Exits   int
	Dropped []DroppedExit
}

// Render writes the graph through format f. Rooms are emitted in ascending
// vnum order and exits in ascending order of the format's direction index.
// Values supplied in vars override the format's defaults and are visible to
// every template; computed values such as VNUM always win.
//
// Precondition: f must have passed Validate.
// Postcondition: Returns the encoded output or a non-nil error.
func Render(info mapper.AreaInfo, g *mapper.Graph, f *Format, vars map[string]string) (*Rendered, error) {
	rooms := g.Rooms()
	out := &Rendered{Format: f, Rooms: len(rooms)}

	computed := map[string]string{
		"AREA_NAME":  info.AreaName,
		"FILENAME":   info.Filename,
		"VNUM_MIN":   strconv.Itoa(info.VnumMin),
		"VNUM_MAX":   strconv.Itoa(info.VnumMax),
		"ROOM_COUNT": strconv.Itoa(len(rooms)),
	}
	areaVals := Merge(f.AreaDefaults, vars, computed)

	var b strings.Builder
	b.WriteString(Fill(f.Area, areaVals))
	for _, r := range rooms {
		b.WriteString(renderRoom(r, f, vars, computed, out))
	}
	b.WriteString(Fill(f.Footer, areaVals))

	data, err := Encode(f.Encoding, []byte(b.String()))
	if err != nil {
		return nil, err
	}
	out.Data = data
	return out, nil
}

type indexedExit struct {
	index int
	exit  mapper.Exit
}

func renderRoom(r *mapper.Room, f *Format, vars, computed map[string]string, out *Rendered) string {
	var exits []indexedExit
	for _, e := range r.SortedExits() {
		i, ok := f.DirectionIndex(e.Direction)
		if !ok {
			out.Dropped = append(out.Dropped, DroppedExit{From: r.ID, To: e.To, Direction: e.Direction, Reason: "direction not in format"})
			continue
		}
		exits = append(exits, indexedExit{index: i, exit: e})
	}
	sort.SliceStable(exits, func(a, b int) bool { return exits[a].index < exits[b].index })

	var exitText strings.Builder
	seen := map[int]bool{}
	for _, ie := range exits {
		if f.UniqueExitDirections && seen[ie.index] {
			out.Dropped = append(out.Dropped, DroppedExit{From: r.ID, To: ie.exit.To, Direction: ie.exit.Direction, Reason: "direction index already written"})
			continue
		}
		seen[ie.index] = true
		exitText.WriteString(Fill(f.Exit, Merge(f.AreaDefaults, f.ExitDefaults, vars, computed, map[string]string{
			"DIR":       strconv.Itoa(ie.index),
			"DIR_NAME":  ie.exit.Direction.String(),
			"FROM_VNUM": strconv.Itoa(r.ID),
			"TO_VNUM":   strconv.Itoa(ie.exit.To),
		})))
		out.Exits++
	}

	var extraText strings.Builder
	for _, x := range r.Extras {
		extraText.WriteString(Fill(f.Extra, Merge(f.AreaDefaults, vars, computed, map[string]string{
			"KEYWORDS": x.Keywords,
			"DESC":     x.Description,
		})))
	}

	return Fill(f.Room, Merge(f.AreaDefaults, f.RoomDefaults, vars, computed, map[string]string{
		"VNUM":        strconv.Itoa(r.ID),
		"NAME":        r.DisplayName(),
		"DESC":        r.DisplayDescription(),
		"SECTOR":      f.SectorValue(r.Sector),
		"SECTOR_NAME": r.Sector.String(),
		"COLOR":       r.Color,
		"LEVEL":       strconv.Itoa(r.Level),
		"X":           strconv.FormatFloat(r.X, 'f', -1, 64),
		"Z":           strconv.FormatFloat(r.Z, 'f', -1, 64),
		"EXITS":       exitText.String(),
		"EXTRAS":      extraText.String(),
	}))
}

// Exporter renders sessions through a format registry and logs what the
// chosen format could not represent.
type Exporter struct {
	registry *Registry
	logger   *zap.Logger
}

// NewExporter creates an Exporter.
//
// Precondition: registry must be non-nil.
func NewExporter(registry *Registry, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{registry: registry, logger: logger}
}

// Export renders the session's current graph with the named format.
func (e *Exporter) Export(s *mapper.Session, formatName string, vars map[string]string) (*Rendered, error) {
	f, err := e.registry.Get(formatName)
	if err != nil {
		return nil, err
	}
	out, err := Render(s.AreaInfo(), s.Graph(), f, vars)
	if err != nil {
		return nil, err
	}
	for _, d := range out.Dropped {
		e.logger.Warn("exit not exported",
			zap.String("format", f.Name),
			zap.Int("from", d.From),
			zap.Int("to", d.To),
			zap.String("direction", d.Direction.String()),
			zap.String("reason", d.Reason),
		)
	}
	e.logger.Info("area exported",
		zap.String("format", f.Name),
		zap.Int("rooms", out.Rooms),
		zap.Int("exits", out.Exits),
		zap.Int("bytes", len(out.Data)),
	)
	return out, nil
}
