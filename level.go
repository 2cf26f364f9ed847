package wad2pic

import (
	"bytes"
	"encoding/binary"
	"unsafe"
)

// noSide is the sentinel for a linedef without a back (or front) sidedef.
const noSide = 65535

// noTexture is the stored form of the "-" texture name, meaning no texture.
const noTexture = "-\x00\x00\x00\x00\x00\x00\x00"

// skyFlatName marks an open-air ceiling.
const skyFlatName = "F_SKY1"

// Vertex is a point on the map plane. Y is stored inverted relative to the
// WAD convention so it grows downward like raster coordinates.
type Vertex struct {
	X, Y int
}

// LineDef connects two vertexes and carries a sidedef for each face.
// The begin-end order matters: it defines which side is front.
type LineDef struct {
	V1Num, V2Num      int
	FrontNum, BackNum int // noSide means absent
	TopUnpegged       bool
	BottomUnpegged    bool
}

// SideDef is the wall data for one face of a linedef.
type SideDef struct {
	XOffset, YOffset     int
	Upper, Lower, Middle string // texture names, 8-byte padded
	SectorNum            int
}

// Sector is a floor/ceiling region of the map.
type Sector struct {
	FloorHeight    int
	CeilingHeight  int
	FloorTexture   string
	CeilingTexture string
	Light          int // 0-255, clamped

	// Derived by checkSectors, not part of the WAD: the vertexes bounding
	// this sector, and whether it is sound enough to flood fill.
	boundVerts []int
	Valid      bool
}

// Thing is a placed object: monster, pickup, decoration.
type Thing struct {
	X, Y    int
	Angle   int // 0-359, 0 east, counter-clockwise
	Type    int
	Options int

	// Derived during object resolution.
	Sprite   string
	Mirrored bool
}

// Level is the decoded geometry of one map. All cross-references are
// indexes; out-of-range indexes are treated as absent by every consumer.
type Level struct {
	Vertexes []Vertex
	LineDefs []LineDef
	SideDefs []SideDef
	Sectors  []Sector
	Things   []Thing
}

type binVertex struct {
	X, Y int16
}

type binLineDef struct {
	V1, V2 uint16
	Flags  uint16
	Pad    [4]byte // special and sector tag, unused here
	Front  uint16
	Back   uint16
}

// extended (zstyle) linedef: special+args replace the vanilla special+tag
type binLineDefExt struct {
	V1, V2 uint16
	Flags  uint16
	Pad    [6]byte
	Front  uint16
	Back   uint16
}

type binSideDef struct {
	XOffset int16
	YOffset int16
	Upper   [8]byte
	Lower   [8]byte
	Middle  [8]byte
	Sector  uint16
}

type binSector struct {
	FloorHeight    int16
	CeilingHeight  int16
	FloorTexture   [8]byte
	CeilingTexture [8]byte
	Light          int16
	Pad            [4]byte // type and tag, unused here
}

type binThing struct {
	X       int16
	Y       int16
	Angle   int16
	Type    int16
	Options int16
}

// extended (zstyle) thing
type binThingExt struct {
	TID     int16
	X       int16
	Y       int16
	Z       int16
	Angle   int16
	Type    int16
	Options int16
	Pad     [6]byte
}

const (
	flagTopUnpegged    = 8
	flagBottomUnpegged = 16
)

// readRecords decodes as many whole records as the lump holds. Truncated
// lumps yield a truncated list, absent lumps an empty one.
func readRecords[T any](lump *Lump) []T {
	if lump == nil {
		return nil
	}
	var zero T
	stride := int(unsafe.Sizeof(zero))
	count := len(lump.Data) / stride
	records := make([]T, count)
	if count > 0 {
		// only whole records; a ragged tail is ignored
		reader := bytes.NewReader(lump.Data[:count*stride])
		if err := binary.Read(reader, binary.LittleEndian, records); err != nil {
			return nil
		}
	}
	return records
}

func optionalLump(c Container, name string) *Lump {
	lump, ok := c.Lump(name)
	if !ok {
		return nil
	}
	return lump
}

func readVertexes(lump *Lump) []Vertex {
	bins := readRecords[binVertex](lump)
	vertexes := make([]Vertex, len(bins))
	for i, v := range bins {
		// Y inverted: the WAD axis grows up, the raster grows down
		vertexes[i] = Vertex{X: int(v.X), Y: -int(v.Y)}
	}
	logger.Printf("Read %v vertexes", len(vertexes))
	return vertexes
}

func readLineDefs(lump *Lump, zstyle bool) []LineDef {
	var linedefs []LineDef
	if zstyle {
		bins := readRecords[binLineDefExt](lump)
		linedefs = make([]LineDef, len(bins))
		for i, l := range bins {
			linedefs[i] = LineDef{
				V1Num: int(l.V1), V2Num: int(l.V2),
				FrontNum:       int(l.Front),
				BackNum:        int(l.Back),
				TopUnpegged:    l.Flags&flagTopUnpegged != 0,
				BottomUnpegged: l.Flags&flagBottomUnpegged != 0,
			}
		}
	} else {
		bins := readRecords[binLineDef](lump)
		linedefs = make([]LineDef, len(bins))
		for i, l := range bins {
			linedefs[i] = LineDef{
				V1Num: int(l.V1), V2Num: int(l.V2),
				FrontNum:       int(l.Front),
				BackNum:        int(l.Back),
				TopUnpegged:    l.Flags&flagTopUnpegged != 0,
				BottomUnpegged: l.Flags&flagBottomUnpegged != 0,
			}
		}
	}
	logger.Printf("Read %v linedefs", len(linedefs))
	return linedefs
}

func readSideDefs(lump *Lump) []SideDef {
	bins := readRecords[binSideDef](lump)
	sidedefs := make([]SideDef, len(bins))
	for i, s := range bins {
		sidedefs[i] = SideDef{
			XOffset:   int(s.XOffset),
			YOffset:   int(s.YOffset),
			Upper:     decodeName(s.Upper[:]),
			Lower:     decodeName(s.Lower[:]),
			Middle:    decodeName(s.Middle[:]),
			SectorNum: int(s.Sector),
		}
	}
	logger.Printf("Read %v sidedefs", len(sidedefs))
	return sidedefs
}

func readSectors(lump *Lump) []Sector {
	bins := readRecords[binSector](lump)
	sectors := make([]Sector, len(bins))
	for i, s := range bins {
		sectors[i] = Sector{
			FloorHeight:    int(s.FloorHeight),
			CeilingHeight:  int(s.CeilingHeight),
			FloorTexture:   decodeName(s.FloorTexture[:]),
			CeilingTexture: decodeName(s.CeilingTexture[:]),
			Light:          clamp(int(s.Light), 0, 255),
			Valid:          true,
		}
	}
	logger.Printf("Read %v sectors", len(sectors))
	return sectors
}

func readThings(lump *Lump, zstyle bool) []Thing {
	var things []Thing
	if zstyle {
		bins := readRecords[binThingExt](lump)
		things = make([]Thing, len(bins))
		for i, t := range bins {
			things[i] = Thing{
				X: int(t.X), Y: -int(t.Y),
				Angle:   int(t.Angle),
				Type:    int(t.Type),
				Options: int(t.Options),
			}
		}
	} else {
		bins := readRecords[binThing](lump)
		things = make([]Thing, len(bins))
		for i, t := range bins {
			things[i] = Thing{
				X: int(t.X), Y: -int(t.Y),
				Angle:   int(t.Angle),
				Type:    int(t.Type),
				Options: int(t.Options),
			}
		}
	}
	logger.Printf("Read %v things", len(things))
	return things
}

// ReadLevel decodes the geometry of the map previously selected with
// SetMap. Absent lumps produce empty lists, not errors: optional lumps are
// legitimately missing from partial WADs.
func ReadLevel(c Container, zstyle bool) *Level {
	return &Level{
		Vertexes: readVertexes(optionalLump(c, "VERTEXES")),
		LineDefs: readLineDefs(optionalLump(c, "LINEDEFS"), zstyle),
		SideDefs: readSideDefs(optionalLump(c, "SIDEDEFS")),
		Sectors:  readSectors(optionalLump(c, "SECTORS")),
		Things:   readThings(optionalLump(c, "THINGS"), zstyle),
	}
}

// sideDef resolves a sidedef index, treating the sentinel and out-of-range
// values as absent.
func (l *Level) sideDef(num int) (*SideDef, bool) {
	if num == noSide || num < 0 || num >= len(l.SideDefs) {
		return nil, false
	}
	return &l.SideDefs[num], true
}

// vertex resolves a vertex index.
func (l *Level) vertex(num int) (Vertex, bool) {
	if num < 0 || num >= len(l.Vertexes) {
		return Vertex{}, false
	}
	return l.Vertexes[num], true
}

// checkSectors validates sectors before flood filling (the HOM check).
// A sector needs at least three sides' worth of bounding vertexes and a
// bounding box wider than two units in both axes; anything less would leak
// or crash the fill, so it is excluded from rasterization.
func checkSectors(l *Level) {
	for _, ld := range l.LineDefs {
		for _, sideNum := range [2]int{ld.FrontNum, ld.BackNum} {
			side, ok := l.sideDef(sideNum)
			if !ok {
				continue
			}
			if side.SectorNum < 0 || side.SectorNum >= len(l.Sectors) {
				continue
			}
			sector := &l.Sectors[side.SectorNum]
			sector.boundVerts = append(sector.boundVerts, ld.V1Num, ld.V2Num)
		}
	}

	for i := range l.Sectors {
		sector := &l.Sectors[i]
		// three sides contribute two vertexes each
		if len(sector.boundVerts) < 6 {
			sector.Valid = false
			continue
		}
		minX, maxX := 1<<30, -(1 << 30)
		minY, maxY := 1<<30, -(1 << 30)
		seen := false
		for _, vn := range sector.boundVerts {
			v, ok := l.vertex(vn)
			if !ok {
				continue
			}
			seen = true
			minX, maxX = min(minX, v.X), max(maxX, v.X)
			minY, maxY = min(minY, v.Y), max(maxY, v.Y)
		}
		if !seen || maxX-minX < 2 || maxY-minY < 2 {
			sector.Valid = false
		}
	}
}
