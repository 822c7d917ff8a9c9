package mapper

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// AreaInfo is the header of a native area file.
type AreaInfo struct {
	AreaName string `json:"areaName"`
	Filename string `json:"filename"`
	VnumMin  int    `json:"vnumMin"`
	VnumMax  int    `json:"vnumMax"`
}

// ExitRecord is the serialized form of one exit.
type ExitRecord struct {
	To int `json:"to"`
}

// ExtraRecord is the serialized form of an extra description.
type ExtraRecord struct {
	Keywords    string `json:"keywords"`
	Description string `json:"desc"`
}

// RoomRecord is the serialized form of a room.
type RoomRecord struct {
	ID     int                   `json:"id"`
	Name   string                `json:"name"`
	Desc   string                `json:"desc"`
	Level  int                   `json:"level"`
	X      float64               `json:"x"`
	Z      float64               `json:"z"`
	Exits  map[string]ExitRecord `json:"exits"`
	Color  string                `json:"color"`
	Sector int                   `json:"sector"`
	Extras []ExtraRecord         `json:"extras,omitempty"`
}

// AreaFile is the native export shape. AreaInfo is nil when the data was a
// bare room array.
type AreaFile struct {
	AreaInfo *AreaInfo   `json:"areaInfo,omitempty"`
	Rooms    []RoomRecord `json:"rooms"`
}

// DecodeAreaFile parses native area data, accepting either the
// {areaInfo, rooms} wrapper or a bare array of room records.
//
// Postcondition: Returns the parsed file or a non-nil error; exit keys are
// not validated here.
func DecodeAreaFile(data []byte) (AreaFile, error) {
	if !gjson.ValidBytes(data) {
		return AreaFile{}, fmt.Errorf("parsing area file: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	switch {
	case root.IsArray():
		var rooms []RoomRecord
		if err := json.Unmarshal(data, &rooms); err != nil {
			return AreaFile{}, fmt.Errorf("parsing room array: %w", err)
		}
		return AreaFile{Rooms: rooms}, nil
	case root.IsObject():
		if !root.Get("rooms").Exists() {
			return AreaFile{}, fmt.Errorf("parsing area file: missing \"rooms\"")
		}
		var file AreaFile
		if err := json.Unmarshal(data, &file); err != nil {
			return AreaFile{}, fmt.Errorf("parsing area file: %w", err)
		}
		return file, nil
	default:
		return AreaFile{}, fmt.Errorf("parsing area file: expected object or array, got %s", root.Type)
	}
}

func recordFromRoom(r *Room) RoomRecord {
	rec := RoomRecord{
		ID:     r.ID,
		Name:   r.Name,
		Desc:   r.Description,
		Level:  r.Level,
		X:      r.X,
		Z:      r.Z,
		Exits:  make(map[string]ExitRecord, len(r.Exits)),
		Color:  r.Color,
		Sector: int(r.Sector),
	}
	for d, e := range r.Exits {
		rec.Exits[d.String()] = ExitRecord{To: e.To}
	}
	for _, x := range r.Extras {
		rec.Extras = append(rec.Extras, ExtraRecord{Keywords: x.Keywords, Description: x.Description})
	}
	return rec
}

func roomFromRecord(rec RoomRecord) *Room {
	r := &Room{
		ID:          rec.ID,
		Level:       rec.Level,
		X:           Snap(rec.X),
		Z:           Snap(rec.Z),
		Color:       rec.Color,
		Name:        rec.Name,
		Description: rec.Desc,
		Sector:      Sector(rec.Sector),
		Exits:       make(map[Direction]Exit),
	}
	for _, x := range rec.Extras {
		r.Extras = append(r.Extras, ExtraDescription{Keywords: x.Keywords, Description: x.Description})
	}
	return r
}

// EncodeAreaFile renders the graph in native form, rooms ordered by vnum.
func EncodeAreaFile(info AreaInfo, g *Graph) AreaFile {
	file := AreaFile{AreaInfo: &info, Rooms: make([]RoomRecord, 0, g.RoomCount())}
	for _, r := range g.Rooms() {
		file.Rooms = append(file.Rooms, recordFromRoom(r))
	}
	return file
}
