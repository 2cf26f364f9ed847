// Package wad2pic renders an isometric raster image of a level stored in a
// Doom data archive (WAD or PK3): geometry, wall and floor textures,
// lighting, and sprite objects. The file format is documented in The
// Unofficial DOOM Specs: http://www.gamers.org/dhs/helpdocs/dmsp1666.html
package wad2pic

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Container is the read surface shared by flat WADs and zip-packed PK3s:
// named lumps, the full name set, and a per-map selection of geometry lumps.
type Container interface {
	// Lump returns the named byte range, or ok=false if absent. Callers
	// treat absence as "skip this optional asset".
	Lump(name string) (*Lump, bool)
	// Names is the set of all stored lump names, NUL-padded to 8 bytes.
	Names() map[string]struct{}
	// SetMap selects the geometry lumps belonging to one level.
	SetMap(name string) bool
	// MapFound reports whether SetMap located the level.
	MapFound() bool
	Close() error
}

// Lump is a named, fully-read byte range from a container.
type Lump struct {
	Name string
	Data []byte
}

// geometry lump names, in file order
var mapLumpNames = []string{"VERTEXES", "LINEDEFS", "SIDEDEFS", "SECTORS", "THINGS"}

// WAD reads a directory-indexed binary archive. Lump data is read on demand
// through the cursor; the directory is held in memory.
type WAD struct {
	cursor    Cursor
	lumpInfos []LumpInfo
	names     map[string]struct{}
	mapInfos  map[string]LumpInfo
	mapFound  bool
}

type binHeader struct {
	Magic        [4]byte
	NumLumps     int32
	InfoTableOfs int32
}

type binLumpInfo struct {
	Filepos int32
	Size    int32
	Name    [8]byte
}

type LumpInfo struct {
	Name    string
	Filepos int
	Size    int
}

// Lump names are stored as 8 bytes of ISO-8859-1, NUL-padded. Malformed
// archives carry stray bytes after the first NUL.
var nameDecoder = charmap.ISO8859_1.NewDecoder()

// decodeName turns a raw 8-byte name into its canonical form: ISO-8859-1
// decoded, uppercased, with everything after the first NUL forced to NUL.
func decodeName(raw []byte) string {
	s, err := nameDecoder.Bytes(raw)
	if err != nil {
		s = raw
	}
	return zeroTail(strings.ToUpper(string(s)))
}

// zeroTail forces every byte after the first NUL to NUL.
func zeroTail(name string) string {
	i := strings.IndexByte(name, 0)
	if i == -1 {
		return name
	}
	return name[:i+1] + strings.Repeat("\x00", len(name)-i-1)
}

// padName pads a logical name to the stored 8-byte form.
func padName(name string) string {
	if len(name) >= 8 {
		return name
	}
	return name + strings.Repeat("\x00", 8-len(name))
}

// trimName cuts a stored name back to its logical form.
func trimName(name string) string {
	if i := strings.IndexByte(name, 0); i != -1 {
		return name[:i]
	}
	return name
}

// OpenWAD opens a WAD file from disk.
func OpenWAD(filename string) (*WAD, error) {
	cursor, err := OpenFileCursor(filename)
	if err != nil {
		return nil, err
	}
	return NewWAD(cursor)
}

// NewWAD reads the WAD header and directory from a cursor. It returns a WAD
// that can be used to read individual lumps.
func NewWAD(cursor Cursor) (*WAD, error) {
	w := &WAD{cursor: cursor}

	var header binHeader
	if err := binary.Read(cursor, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	magic := string(header.Magic[:])
	if magic != "IWAD" && magic != "PWAD" {
		return nil, fmt.Errorf("bad magic: %q", magic)
	}

	if _, err := cursor.Seek(int64(header.InfoTableOfs), io.SeekStart); err != nil {
		return nil, err
	}
	w.lumpInfos = make([]LumpInfo, 0, header.NumLumps)
	w.names = make(map[string]struct{}, header.NumLumps)
	for i := int32(0); i < header.NumLumps; i++ {
		var bin binLumpInfo
		if err := binary.Read(cursor, binary.LittleEndian, &bin); err != nil {
			return nil, err
		}
		info := LumpInfo{decodeName(bin.Name[:]), int(bin.Filepos), int(bin.Size)}
		w.lumpInfos = append(w.lumpInfos, info)
		w.names[info.Name] = struct{}{}
	}
	logger.Printf("Read WAD directory: %v lumps", len(w.lumpInfos))

	return w, nil
}

// SetMap scans the directory for the named level marker and collects the
// geometry lumps that follow it, so that Lump("VERTEXES") etc. resolve to
// this level's copies rather than some other level's.
func (w *WAD) SetMap(name string) bool {
	w.mapInfos = make(map[string]LumpInfo)
	w.mapFound = false

	marker := padName(strings.ToUpper(name))
	required := make(map[string]struct{}, len(mapLumpNames))
	for _, n := range mapLumpNames {
		required[padName(n)] = struct{}{}
	}

	found := false
	for _, info := range w.lumpInfos {
		if strings.Contains(info.Name, marker) {
			found = true
		}
		if !found {
			continue
		}
		if _, ok := required[info.Name]; ok {
			w.mapInfos[info.Name] = info
			delete(required, info.Name)
		}
		if len(required) == 0 {
			w.mapFound = true
			return true
		}
	}
	return false
}

func (w *WAD) MapFound() bool {
	return w.mapFound
}

// Lump reads the named lump. Geometry lump names resolve within the map
// selected by SetMap; all other names resolve against the whole directory.
func (w *WAD) Lump(name string) (*Lump, bool) {
	fixed := padName(strings.ToUpper(name))

	for _, n := range mapLumpNames {
		if trimName(fixed) == n {
			info, ok := w.mapInfos[fixed]
			if !ok {
				return nil, false
			}
			return w.readLump(info)
		}
	}

	for _, info := range w.lumpInfos {
		if info.Name == fixed {
			return w.readLump(info)
		}
	}
	return nil, false
}

func (w *WAD) readLump(info LumpInfo) (*Lump, bool) {
	if _, err := w.cursor.Seek(int64(info.Filepos), io.SeekStart); err != nil {
		logger.Printf("Err: seek %v: %v", trimName(info.Name), err)
		return nil, false
	}
	data := make([]byte, info.Size)
	if _, err := io.ReadFull(w.cursor, data); err != nil {
		logger.Printf("Err: read %v: %v", trimName(info.Name), err)
		return nil, false
	}
	return &Lump{Name: info.Name, Data: data}, true
}

func (w *WAD) Names() map[string]struct{} {
	return w.names
}

func (w *WAD) Close() error {
	return w.cursor.Close()
}
