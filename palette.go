package wad2pic

import (
	"image"
	"image/color"
	"math"
)

// RGB is one palette color.
type RGB struct {
	R, G, B uint8
}

// Palette is the 256-color game palette from the PLAYPAL lump.
type Palette [256]RGB

// ColorMaps is the 34 light-level remap rows from the COLORMAP lump. Each
// row maps a palette index to a darker palette index.
type ColorMaps [34][256]byte

// numLightBands is the number of colormap rows.
const numLightBands = 34

// readPalette decodes the PLAYPAL lump: 256 literal RGB triples.
func readPalette(c Container) (*Palette, bool) {
	lump, ok := c.Lump("PLAYPAL")
	if !ok || len(lump.Data) < 256*3 {
		return nil, false
	}
	logger.Println("Loading PLAYPAL ...")
	var pal Palette
	for i := range pal {
		pal[i] = RGB{lump.Data[i*3], lump.Data[i*3+1], lump.Data[i*3+2]}
	}
	return &pal, true
}

// readColorMaps decodes the COLORMAP lump: 34 rows of 256 remapped indexes.
func readColorMaps(c Container) (*ColorMaps, bool) {
	lump, ok := c.Lump("COLORMAP")
	if !ok || len(lump.Data) < numLightBands*256 {
		return nil, false
	}
	logger.Println("Loading COLORMAP ...")
	var cm ColorMaps
	for i := range cm {
		copy(cm[i][:], lump.Data[i*256:(i+1)*256])
	}
	return &cm, true
}

// ColorConversion maps an original color to its remapped color per light
// band: lit = conv[band][raw]. Precomputed once per render so the pixel
// loops do a single map lookup.
type ColorConversion [numLightBands]map[RGB]RGB

func newColorConversion(pal *Palette, cm *ColorMaps) *ColorConversion {
	var conv ColorConversion
	for band := range conv {
		conv[band] = make(map[RGB]RGB, 256)
		for j := range pal {
			conv[band][pal[j]] = pal[cm[band][j]]
		}
	}
	return &conv
}

// lit remaps one color through a light band, falling back to the raw color
// for anything outside the palette.
func (conv *ColorConversion) lit(band int, raw RGB) RGB {
	if c, ok := conv[band][raw]; ok {
		return c
	}
	return raw
}

// lightBand converts a sector light level (0-255) to a colormap row.
func lightBand(light int) int {
	return 31 - light/8
}

// paletteCache memoizes nearest-color lookups for one decode session. It is
// passed explicitly rather than kept package-global so palettes from
// different WADs never cross-contaminate a batch.
type paletteCache map[RGB]RGB

// contains reports whether a color is an exact palette entry.
func (pal *Palette) contains(c RGB) bool {
	for _, p := range pal {
		if p == c {
			return true
		}
	}
	return false
}

// snap finds the palette color minimizing the sum of absolute per-channel
// differences. Snapping an exact palette color returns that color.
func (pal *Palette) snap(c RGB, cache paletteCache) RGB {
	if hit, ok := cache[c]; ok {
		return hit
	}
	closest := RGB{}
	minDistance := 256 * 4
	for _, p := range pal {
		distance := absDiff(c.R, p.R) + absDiff(c.G, p.G) + absDiff(c.B, p.B)
		if distance < minDistance {
			minDistance = distance
			closest = p
		}
	}
	cache[c] = closest
	return closest
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// palettize snaps every pixel of an image to the palette and binarizes its
// alpha channel to fully opaque or fully transparent.
func palettize(img *image.NRGBA, pal *Palette, cache paletteCache) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := img.NRGBAAt(x, y)
			if px.A < 128 {
				px.A = 0
			} else {
				px.A = 255
			}
			c := RGB{px.R, px.G, px.B}
			if !pal.contains(c) {
				c = pal.snap(c, cache)
			}
			img.SetNRGBA(x, y, color.NRGBA{c.R, c.G, c.B, px.A})
		}
	}
}

// gammaCorrect applies output = (input/255)^gamma * 255 per channel, in
// place, skipping pure-black pixels. gamma < 1 lightens the image.
func gammaCorrect(img *image.NRGBA, gamma float64) {
	if gamma == 1 {
		return
	}
	// 256-entry curve; every channel shares it
	var curve [256]uint8
	for i := 1; i < 256; i++ {
		curve[i] = uint8(math.Pow(float64(i)/255, gamma) * 255)
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := img.NRGBAAt(x, y)
			if px.R == 0 && px.G == 0 && px.B == 0 {
				continue
			}
			px.R, px.G, px.B = curve[px.R], curve[px.G], curve[px.B]
			img.SetNRGBA(x, y, px)
		}
	}
}
