package wad2pic

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Pictures are decoded to NRGBA with palette-snapped colors and binary
// alpha: every pixel is either fully opaque or fully transparent.

// maxPictureDim guards against misparsed headers; textures up to 1024 wide
// are real, anything past 2000 is garbage.
const maxPictureDim = 2000

type binPictureHeader struct {
	Width, Height         uint16
	LeftOffset, TopOffset int16
}

// isPNG reports whether a lump holds an embedded PNG stream.
func isPNG(data []byte) bool {
	return len(data) >= 4 && string(data[1:4]) == "PNG"
}

// getPicture decodes a picture lump: either an embedded PNG or the
// column/post run-length format. Returns nil for undecodable lumps.
func getPicture(lump *Lump, pal *Palette, cache paletteCache) *image.NRGBA {
	if lump == nil {
		return nil
	}
	if isPNG(lump.Data) {
		return pngToPic(lump.Data, pal, cache)
	}

	reader := bytes.NewReader(lump.Data)
	var header binPictureHeader
	if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
		return nil
	}
	width, height := int(header.Width), int(header.Height)
	if width > maxPictureDim || height > maxPictureDim {
		return nil
	}

	offsets := make([]uint32, width)
	if err := binary.Read(reader, binary.LittleEndian, offsets); err != nil {
		return nil
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, offset := range offsets {
		pos := int(offset)
		for {
			if pos >= len(lump.Data) {
				break
			}
			// sentinel row offset ends the column
			topDelta := int(lump.Data[pos])
			pos++
			if topDelta == 255 {
				break
			}
			if pos >= len(lump.Data) {
				break
			}
			// a zero length is a legal no-op run
			length := int(lump.Data[pos])
			pos++
			pos++ // padding
			if pos+length > len(lump.Data) {
				break
			}
			for j := 0; j < length; j++ {
				c := pal[lump.Data[pos]]
				pos++
				if topDelta+j < height {
					img.SetNRGBA(i, topDelta+j, color.NRGBA{c.R, c.G, c.B, 255})
				}
			}
			pos++ // padding
		}
	}
	return img
}

// pngToPic decodes an embedded PNG and normalizes it to the picture
// contract: NRGBA, binary alpha, palette colors only.
func pngToPic(data []byte, pal *Palette, cache paletteCache) *image.NRGBA {
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Printf("Err: png decode: %v", err)
		return nil
	}
	bounds := decoded.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(img, img.Bounds(), decoded, bounds.Min, draw.Src)
	palettize(img, pal, cache)
	return img
}

// getPictures decodes a batch of named picture lumps, skipping anything
// missing or undecodable.
func getPictures(c Container, names []string, pal *Palette, cache paletteCache) map[string]*image.NRGBA {
	pictures := make(map[string]*image.NRGBA)
	for _, name := range names {
		lump, ok := c.Lump(name)
		if !ok {
			continue
		}
		if img := getPicture(lump, pal, cache); img != nil {
			pictures[padName(strings.ToUpper(trimName(name)))] = img
		}
	}
	return pictures
}

// getPatchNames reads the PNAMES lump: the patch pictures textures are
// composed from, referenced by index.
func getPatchNames(lump *Lump) []string {
	if lump == nil {
		return nil
	}
	reader := bytes.NewReader(lump.Data)
	var count int32
	if err := binary.Read(reader, binary.LittleEndian, &count); err != nil {
		return nil
	}
	names := make([]string, 0, count)
	for i := int32(0); i < count; i++ {
		var raw [8]byte
		if err := binary.Read(reader, binary.LittleEndian, &raw); err != nil {
			break
		}
		names = append(names, decodeName(raw[:]))
	}
	return names
}

type binTextureHeader struct {
	Name       [8]byte
	Masked     int32
	Width      int16
	Height     int16
	Unused     int32
	NumPatches int16
}

type binTexturePatch struct {
	XOffset      int16
	YOffset      int16
	PatchNameIdx int16
	Unused1      int16
	Unused2      int16
}

type patchPlacement struct {
	XOffset, YOffset int
	PatchNum         int
}

type textureInfo struct {
	Name          string
	Width, Height int
	Patches       []patchPlacement
}

// getTextureInfo reads one TEXTUREx lump's texture declarations.
func getTextureInfo(lump *Lump) []textureInfo {
	if lump == nil {
		return nil
	}
	reader := bytes.NewReader(lump.Data)
	var count uint32
	if err := binary.Read(reader, binary.LittleEndian, &count); err != nil {
		return nil
	}
	// a garbage declared count must not drive allocation
	if n := (len(lump.Data) - 4) / 4; int(count) > n {
		count = uint32(n)
	}
	offsets := make([]int32, count)
	if err := binary.Read(reader, binary.LittleEndian, offsets); err != nil {
		return nil
	}

	infos := make([]textureInfo, 0, count)
	for _, offset := range offsets {
		if _, err := reader.Seek(int64(offset), 0); err != nil {
			continue
		}
		var header binTextureHeader
		if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
			continue
		}
		info := textureInfo{
			Name:   decodeName(header.Name[:]),
			Width:  int(header.Width),
			Height: int(header.Height),
		}
		bins := make([]binTexturePatch, header.NumPatches)
		if err := binary.Read(reader, binary.LittleEndian, bins); err != nil {
			continue
		}
		for _, p := range bins {
			info.Patches = append(info.Patches, patchPlacement{
				XOffset:  int(p.XOffset),
				YOffset:  int(p.YOffset),
				PatchNum: int(p.PatchNameIdx),
			})
		}
		infos = append(infos, info)
	}
	return infos
}

// getTextures composes wall textures: a transparent canvas of the declared
// size, with each referenced patch pasted at its offset in list order.
// Later patches overpaint earlier ones where they overlap.
func getTextures(infos []textureInfo, patches map[string]*image.NRGBA, patchNames []string) map[string]*image.NRGBA {
	textures := make(map[string]*image.NRGBA, len(infos))
	for _, info := range infos {
		img := image.NewNRGBA(image.Rect(0, 0, info.Width, info.Height))
		for _, p := range info.Patches {
			if p.PatchNum < 0 || p.PatchNum >= len(patchNames) {
				continue
			}
			patch, ok := patches[patchNames[p.PatchNum]]
			if !ok {
				continue
			}
			rect := patch.Bounds().Add(image.Pt(p.XOffset, p.YOffset))
			draw.Draw(img, rect, patch, patch.Bounds().Min, draw.Over)
		}
		textures[info.Name] = img
	}
	logger.Printf("Composed %v textures", len(textures))
	return textures
}

// Flat is a floor texture as a grid of palette colors. Raw flats are
// indexed [row][column]; flats converted from pictures keep the picture's
// [x][y] layout (matching how the floor pass samples them).
type Flat [][]RGB

// flatSide is the fixed width of a raw flat.
const flatSide = 64

func createFlat(raw []byte, pal *Palette) Flat {
	height := len(raw) / flatSide
	flat := make(Flat, flatSide)
	pos := 0
	for i := range flat {
		flat[i] = make([]RGB, height)
		for j := range flat[i] {
			flat[i][j] = pal[raw[pos]]
			pos++
		}
	}
	return flat
}

func picToFlat(img *image.NRGBA) Flat {
	bounds := img.Bounds()
	flat := make(Flat, bounds.Dx())
	for i := range flat {
		flat[i] = make([]RGB, bounds.Dy())
		for j := range flat[i] {
			px := img.NRGBAAt(bounds.Min.X+i, bounds.Min.Y+j)
			flat[i][j] = RGB{px.R, px.G, px.B}
		}
	}
	return flat
}

func flatToPic(flat Flat) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, len(flat), len(flat[0])))
	for i := range flat {
		for j, c := range flat[i] {
			img.SetNRGBA(i, j, color.NRGBA{c.R, c.G, c.B, 255})
		}
	}
	return img
}

// getFlats loads the named floor textures. A flat lump is normally 4096
// bytes of raw palette indexes, but may instead hold picture-format or PNG
// data, in which case it goes through the picture path and is reshaped.
func getFlats(c Container, names []string, pal *Palette, cache paletteCache) map[string]Flat {
	flats := make(map[string]Flat)
	for _, name := range names {
		lump, ok := c.Lump(name)
		if !ok {
			continue
		}
		switch {
		case isPNG(lump.Data):
			if img := pngToPic(lump.Data, pal, cache); img != nil {
				flats[name] = picToFlat(img)
			}
		case len(lump.Data) == flatSide*flatSide:
			flats[name] = createFlat(lump.Data, pal)
		case len(lump.Data) != 0:
			if img := getPicture(lump, pal, cache); img != nil {
				flats[name] = picToFlat(img)
			}
		}
	}
	logger.Printf("Loaded %v flats", len(flats))
	return flats
}

// getFlatList returns the floor texture names the sectors use.
func getFlatList(sectors []Sector) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, s := range sectors {
		if _, ok := seen[s.FloorTexture]; !ok {
			seen[s.FloorTexture] = struct{}{}
			names = append(names, s.FloorTexture)
		}
	}
	return names
}

// getTextureList returns the texture names the synthesized walls use.
func getTextureList(walls map[float64][]*Wall) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, group := range walls {
		for _, wall := range group {
			if _, ok := seen[wall.Texture]; !ok {
				seen[wall.Texture] = struct{}{}
				names = append(names, wall.Texture)
			}
		}
	}
	return names
}

// picResize shrinks a picture, keeping the result palette- and
// alpha-conformant.
func picResize(img *image.NRGBA, shrink int, pal *Palette, cache paletteCache) *image.NRGBA {
	newW := max(img.Bounds().Dx()/shrink, 1)
	newH := max(img.Bounds().Dy()/shrink, 1)
	out := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	palettize(out, pal, cache)
	return out
}

func massResize(pics map[string]*image.NRGBA, shrink int, pal *Palette, cache paletteCache) {
	for name, img := range pics {
		pics[name] = picResize(img, shrink, pal, cache)
	}
}

func massResizeFlats(flats map[string]Flat, shrink int, pal *Palette, cache paletteCache) {
	for name, flat := range flats {
		flats[name] = picToFlat(picResize(flatToPic(flat), shrink, pal, cache))
	}
}
