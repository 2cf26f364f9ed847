package wad2pic

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

// PK3 reads a zip-style container. A level lives in its own nested WAD under
// the Maps folder; everything else is a loose file whose base name is the
// lump name.
type PK3 struct {
	zr       *zip.ReadCloser
	names    map[string]struct{}
	mapWAD   *WAD
	mapFound bool
}

// OpenPK3 opens a PK3 file from disk and indexes its entry names.
func OpenPK3(filename string) (*PK3, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	p := &PK3{zr: zr, names: make(map[string]struct{})}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		p.names[entryLumpName(f.Name)] = struct{}{}
	}
	logger.Printf("Read PK3 directory: %v entries", len(p.names))
	return p, nil
}

// entryLumpName reduces a zip entry path to an 8-byte padded lump name:
// base name, extension dropped, uppercased.
func entryLumpName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if i := strings.IndexByte(name, '.'); i != -1 {
		name = name[:i]
	}
	return padName(strings.ToUpper(name))
}

// SetMap extracts the nested WAD for the level from the Maps folder and
// selects the map inside it.
func (p *PK3) SetMap(name string) bool {
	p.mapFound = false
	data, ok := p.zippedData(name, "Maps")
	if !ok {
		return false
	}
	mapWAD, err := NewWAD(NewByteCursor(data))
	if err != nil {
		logger.Printf("Err: nested WAD for %v: %v", name, err)
		return false
	}
	p.mapWAD = mapWAD
	p.mapWAD.SetMap(name)
	p.mapFound = p.mapWAD.MapFound()
	return p.mapFound
}

func (p *PK3) MapFound() bool {
	return p.mapFound
}

// zippedData finds and decompresses the entry matching a lump name,
// optionally restricted to entries under one folder.
func (p *PK3) zippedData(name, fromFolder string) ([]byte, bool) {
	want := strings.ToUpper(trimName(name))
	for _, f := range p.zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		upper := strings.ToUpper(f.Name)
		if fromFolder != "" && !strings.Contains(upper, strings.ToUpper(fromFolder)) {
			continue
		}
		if !strings.Contains(upper, want) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			logger.Printf("Err: open %v: %v", f.Name, err)
			return nil, false
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			logger.Printf("Err: read %v: %v", f.Name, err)
			return nil, false
		}
		return data, true
	}
	return nil, false
}

// Lump returns the named lump. Geometry lumps come from the nested map WAD;
// anything else is looked up as a loose zip entry.
func (p *PK3) Lump(name string) (*Lump, bool) {
	for _, n := range mapLumpNames {
		if trimName(padName(strings.ToUpper(name))) == n {
			if p.mapWAD == nil {
				return nil, false
			}
			return p.mapWAD.Lump(name)
		}
	}
	data, ok := p.zippedData(name, "")
	if !ok {
		return nil, false
	}
	return &Lump{Name: padName(strings.ToUpper(trimName(name))), Data: data}, true
}

func (p *PK3) Names() map[string]struct{} {
	return p.names
}

func (p *PK3) Close() error {
	return p.zr.Close()
}

// OpenContainer opens a WAD or PK3 based on the filename extension.
func OpenContainer(filename string) (Container, error) {
	if strings.EqualFold(path.Ext(filename), ".pk3") {
		return OpenPK3(filename)
	}
	w, err := OpenWAD(filename)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", filename, err)
	}
	return w, nil
}
