package wad2pic

import (
	"image"
	"image/color"
	"math"
	"sort"
	"strings"

	xdraw "golang.org/x/image/draw"
)

type point struct {
	x, y int
}

// pmod is a modulo whose result is non-negative for any a.
func pmod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// imageSizeOffset computes the output raster size and the offset that maps
// map-plane coordinates onto it. The extent covers every vertex both at
// ground level and displaced by its sectors' floor and ceiling heights, so
// no wall top can poke outside the margins.
func imageSizeOffset(l *Level, opts Options) (w, h, offsetX, offsetY int) {
	minX, minY, maxX, maxY := 100000, 100000, -100000, -100000
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
			for _, height := range [2]int{sector.FloorHeight, sector.CeilingHeight} {
				for _, vn := range [2]int{ld.V1Num, ld.V2Num} {
					v, ok := l.vertex(vn)
					if !ok {
						continue
					}
					minX, maxX = min(minX, v.X), max(maxX, v.X)
					minY, maxY = min(minY, v.Y), max(maxY, v.Y)
					x := int(float64(v.X) - float64(height)*opts.CoefX)
					y := int(float64(v.Y) - float64(height)*opts.CoefY)
					minX, maxX = min(minX, x), max(maxX, x)
					minY, maxY = min(minY, y), max(maxY, y)
				}
			}
		}
	}
	return maxX - minX + 2*opts.Margins, maxY - minY + 2*opts.Margins,
		-minX + opts.Margins, -minY + opts.Margins
}

// linePixels returns the pixels of a digital line from beg to end,
// inclusive. The line never steps diagonally: where it would move both
// horizontally and vertically at once an extra pixel is inserted, so walls
// built from adjacent lines have no pinholes.
func linePixels(beg, end point) []point {
	if beg == end {
		return []point{beg}
	}
	dx := end.x - beg.x
	dy := end.y - beg.y
	var pixels []point

	if abs(dx) > abs(dy) {
		s := 1
		if dx < 0 {
			s = -1
		}
		for x := beg.x; x != end.x+s; x += s {
			y := int(float64(beg.y) + float64(dy)*(float64(x-beg.x)/float64(dx)))
			if x != beg.x {
				last := pixels[len(pixels)-1]
				if x != last.x && y != last.y {
					pixels = append(pixels, point{last.x, y})
				}
			}
			pixels = append(pixels, point{x, y})
		}
	} else {
		s := 1
		if dy < 0 {
			s = -1
		}
		for y := beg.y; y != end.y+s; y += s {
			x := int(float64(beg.x) + float64(dx)*(float64(y-beg.y)/float64(dy)))
			if y != beg.y {
				last := pixels[len(pixels)-1]
				if x != last.x && y != last.y {
					pixels = append(pixels, point{x, last.y})
				}
			}
			pixels = append(pixels, point{x, y})
		}
	}
	return pixels
}

// zBuffer stores, per output pixel, the map-plane Y of whatever was drawn
// there last. Only Y matters for occlusion in this projection: larger Y is
// closer to the viewer. int16 keeps the buffer small; maps never exceed
// the int16 coordinate range.
type zBuffer struct {
	w, h int
	data []int16
}

const zEmpty = -32768

func newZBuffer(w, h int) *zBuffer {
	zb := &zBuffer{w: w, h: h, data: make([]int16, w*h)}
	for i := range zb.data {
		zb.data[i] = zEmpty
	}
	return zb
}

func (zb *zBuffer) inBounds(x, y int) bool {
	return x >= 0 && x < zb.w && y >= 0 && y < zb.h
}

func (zb *zBuffer) at(x, y int) int {
	return int(zb.data[y*zb.w+x])
}

func (zb *zBuffer) set(x, y, z int) {
	zb.data[y*zb.w+x] = int16(z)
}

// lightImage remaps every pixel of an image through one light band,
// in place, preserving alpha.
func lightImage(img *image.NRGBA, band int, conv *ColorConversion) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := img.NRGBAAt(x, y)
			lit := conv.lit(band, RGB{px.R, px.G, px.B})
			img.SetNRGBA(x, y, color.NRGBA{lit.R, lit.G, lit.B, px.A})
		}
	}
}

// wallImage renders a wall's texture onto a canvas of the wall's physical
// size, with tiling, offsets, peggedness and lighting applied. Returns nil
// when the wall has no drawable texture or degenerate size.
func wallImage(wall *Wall, textures map[string]*image.NRGBA, conv *ColorConversion, scaleY float64, shrink int) *image.NRGBA {
	texName := strings.ToUpper(wall.Texture)
	if texName == noTexture {
		return nil
	}
	tex, ok := textures[texName]
	if !ok {
		// missing texture, usually a mapping error in the WAD itself
		return nil
	}

	height := wall.Ceiling - wall.Floor
	// dividing dy by the Y scale recovers the wall's true length after the
	// projection squeezed the vertical axis
	width := int(math.Sqrt(float64(wall.SX-wall.EX)*float64(wall.SX-wall.EX) +
		(float64(wall.SY-wall.EY)/scaleY)*(float64(wall.SY-wall.EY)/scaleY)))
	if height <= 0 || width <= 0 {
		return nil
	}

	tw, th := tex.Bounds().Dx(), tex.Bounds().Dy()
	if tw == 0 || th == 0 {
		return nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	xOff := wall.XOffset
	for xOff > tw {
		xOff -= tw
	}
	for xOff < -tw {
		xOff += tw
	}

	paste := func(x, y int) {
		rect := tex.Bounds().Add(image.Pt(x, y))
		xdraw.Draw(img, rect, tex, tex.Bounds().Min, xdraw.Over)
	}

	for i := -1; i < width/tw+3; i++ {
		for j := -1; j < height/th+3; j++ {
			// mid textures hang once, they do not tile vertically
			if wall.Position == PositionMid && j != 1 {
				continue
			}
			if wall.FromTop {
				paste(i*tw-xOff, j*th-wall.YOffset)
			} else if wall.Position == PositionTop || wall.Position == PositionMid {
				paste(i*tw-xOff, height-j*th-wall.YOffset-1)
			} else {
				// unpegged bottoms anchor the texture to the world grid
				paste(i*tw-xOff, height-j*th-wall.YOffset-1-pmod(wall.Floor, max(128/shrink, 1)))
			}
		}
	}

	lightImage(img, lightBand(wall.Light), conv)
	return img
}

// pasteWall rasterizes one wall onto the output. coords is the projected
// quad: floor start, floor end, ceiling end, ceiling start. The quad is
// covered by a line along the floor, a line along the ceiling, and a
// connecting line per column; walking real lines instead of scanlines
// keeps each pixel tied to a map-plane position for the depth test.
func pasteWall(out *image.NRGBA, coords [8]int, wall *Wall, textures map[string]*image.NRGBA, zbuf *zBuffer, offsetX, offsetY int, conv *ColorConversion, opts Options) {
	img := wallImage(wall, textures, conv, opts.ScaleY, opts.Shrink)
	if img == nil {
		return
	}

	x1, y1, x2, y2 := coords[0], coords[1], coords[2], coords[3]
	x3, y3, x4, y4 := coords[4], coords[5], coords[6], coords[7]

	floorLine := linePixels(point{x1, y1}, point{x2, y2})
	ceilingLine := linePixels(point{x4, y4}, point{x3, y3})
	span := min(len(floorLine), len(ceilingLine))

	newW := max(abs(x2-x1)+1, len(floorLine))
	newH := abs(y4-y1) + 1
	for i := 0; i < span; i++ {
		newH = max(newH, len(linePixels(ceilingLine[i], floorLine[i])))
	}

	resized := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(resized, resized.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	// a wall faces away when its begin-to-end direction runs against the
	// projection; those show as see-through ghosts
	isTransparent := false
	fx1, fy1, fx2, fy2 := float64(x1), float64(y1), float64(x2), float64(y2)
	if (x2 <= x1 && y2 >= y1) ||
		(opts.CoefY != 0 && x2 < x1 && (fx1-fx2)/(fy1-fy2) > opts.CoefX/opts.CoefY) ||
		(opts.CoefY != 0 && y2 > y1 && (fx2-fx1)/(fy2-fy1) < opts.CoefX/opts.CoefY) {
		isTransparent = true
		// mid textures draw one face only: the one toward the viewer
		if wall.Position == PositionMid && wall.IsBack {
			return
		}
	} else if wall.Position == PositionMid && !wall.IsBack {
		return
	}
	if wall.IsBack {
		isTransparent = !isTransparent
	}
	if wall.Position == PositionMid {
		isTransparent = false
	}

	for i := 0; i < span; i++ {
		line := linePixels(ceilingLine[i], floorLine[i])
		for j, p := range line {
			if !zbuf.inBounds(p.x, p.y) {
				continue
			}
			lastZ := zbuf.at(p.x, p.y)
			// the pixel's map-plane Y decides the depth test; truncate the
			// whole sum, not the fraction alone
			y := int(float64(i)/float64(len(floorLine))*float64(wall.EY-wall.SY) +
				float64(wall.SY+offsetY))

			if y > lastZ {
				px := resized.NRGBAAt(i, j)
				opacity := int(px.A)
				if opacity == 0 {
					continue
				}
				if isTransparent {
					opacity = 80
				}
				bg := out.NRGBAAt(p.x, p.y)
				mixed := color.NRGBA{
					R: uint8((int(bg.R)*(255-opacity) + int(px.R)*opacity) / 255),
					G: uint8((int(bg.G)*(255-opacity) + int(px.G)*opacity) / 255),
					B: uint8((int(bg.B)*(255-opacity) + int(px.B)*opacity) / 255),
					A: 255,
				}
				out.SetNRGBA(p.x, p.y, mixed)
				// pixels fainter than a ghost face never claim depth;
				// ghost faces themselves do
				if opacity >= 80 {
					zbuf.set(p.x, p.y, y)
				}
			}
		}
	}
}

// fuzzOffsets is the background displacement table for Spectre rendering,
// from the Doom engine's fuzz effect.
var fuzzOffsets = [50]int{
	1, -1, 1, -1, 1, 1, -1, 1, 1, -1, 1, 1, 1, -1, 1, 1, 1, -1, -1, -1,
	-1, 1, -1, -1, 1, 1, 1, 1, -1, 1, -1, 1, 1, -1, -1, 1, 1, -1, -1,
	-1, -1, 1, 1, 1, 1, -1, 1, 1, -1, 1,
}

// spectreSprite builds a Spectre sprite by sampling the background through
// the mask sprite's silhouette, displaced by the fuzz table and darkened.
func spectreSprite(mask *image.NRGBA, out *image.NRGBA, x, y int) *image.NRGBA {
	w, h := mask.Bounds().Dx(), mask.Bounds().Dy()
	spectre := image.NewNRGBA(image.Rect(0, 0, w, h))
	bounds := out.Bounds()

	fuzzN := 0
	for i := 0; i < w; i++ {
		for j := 0; j < h; j++ {
			if mask.NRGBAAt(i, j).A != 255 {
				continue
			}
			picX := x - w/2 + i
			picY := y - h + j + fuzzOffsets[fuzzN]
			if image.Pt(picX, picY).In(bounds) {
				spectre.SetNRGBA(i, j, out.NRGBAAt(picX, picY))
			}
			fuzzN++
			if fuzzN == len(fuzzOffsets) {
				fuzzN = 0
			}
		}
	}
	// darken rather than colormap row 6; the colormap version is nearly
	// invisible in dark rooms
	gammaCorrect(spectre, 1.3)
	return spectre
}

func flipHorizontal(img *image.NRGBA) *image.NRGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			out.SetNRGBA(w-1-x, y, img.NRGBAAt(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return out
}

// spectreType is the thing type that renders with the fuzz effect.
const spectreType = 58

// pasteThing draws one object sprite at image position x, y (the sprite's
// bottom center), depth tested against the walls and floors already drawn.
func pasteThing(out *image.NRGBA, x, y int, light int, thing *Thing, sprites map[string]*image.NRGBA, zbuf *zBuffer, offsetY int, conv *ColorConversion) {
	sprite, ok := sprites[thing.Sprite]
	if !ok {
		return
	}

	if thing.Mirrored {
		sprite = flipHorizontal(sprite)
	}

	if thing.Type == spectreType {
		sprite = spectreSprite(sprite, out, x, y)
	} else {
		// work on a lit copy, the cached sprite must stay unlit
		lit := image.NewNRGBA(sprite.Bounds())
		copy(lit.Pix, sprite.Pix)
		lightImage(lit, lightBand(light), conv)
		sprite = lit
	}

	w, h := sprite.Bounds().Dx(), sprite.Bounds().Dy()
	physY := thing.Y + offsetY
	for i := 0; i < w; i++ {
		for j := 0; j < h; j++ {
			px := sprite.NRGBAAt(i, j)
			if px.A == 0 {
				continue
			}
			picX := x - w/2 + i
			picY := y - h + j
			if !zbuf.inBounds(picX, picY) {
				continue
			}
			if physY > zbuf.at(picX, picY) {
				out.SetNRGBA(picX, picY, color.NRGBA{px.R, px.G, px.B, 255})
				zbuf.set(picX, picY, physY)
			}
		}
	}
}

// drawMap composites the final picture: floors first, then walls and
// things interleaved in draw-distance order, farthest first.
func drawMap(l *Level, flats map[string]Flat, walls map[float64][]*Wall, textures map[string]*image.NRGBA, thingsList map[float64][]*Thing, sprites map[string]*image.NRGBA, conv *ColorConversion, opts Options) *image.NRGBA {
	w, h, offsetX, offsetY := imageSizeOffset(l, opts)
	logger.Printf("Image size: %v x %v", w, h)

	bp := buildBlueprint(l, w, h, offsetX, offsetY)
	zbuf := newZBuffer(w, h)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range out.Pix {
		if i%4 == 3 {
			out.Pix[i] = 255
		}
	}

	logger.Println("Drawing sectors ...")
	drawFloors(l, bp, flats, conv, out, zbuf, offsetX, offsetY, opts)

	logger.Println("Drawing walls and things ...")

	distances := make(map[float64]struct{}, len(walls)+len(thingsList))
	for d := range walls {
		distances[d] = struct{}{}
	}
	for d := range thingsList {
		distances[d] = struct{}{}
	}
	order := make([]float64, 0, len(distances))
	for d := range distances {
		order = append(order, d)
	}
	sort.Float64s(order)

	for _, distance := range order {
		for _, wall := range walls[distance] {
			wallHeight := wall.Ceiling - wall.Floor
			hx := int(float64(wall.Floor) * opts.CoefX)
			hy := int(float64(wall.Floor) * opts.CoefY)
			x1, y1 := wall.SX+offsetX, wall.SY+offsetY
			x2, y2 := wall.EX+offsetX, wall.EY+offsetY
			coords := [8]int{
				x1 - hx, y1 - hy, x2 - hx, y2 - hy,
				int(float64(x2-hx) - float64(wallHeight)*opts.CoefX),
				int(float64(y2-hy) - float64(wallHeight)*opts.CoefY),
				int(float64(x1-hx) - float64(wallHeight)*opts.CoefX),
				int(float64(y1-hy) - float64(wallHeight)*opts.CoefY),
			}
			pasteWall(out, coords, wall, textures, zbuf, offsetX, offsetY, conv, opts)
		}

		for _, thing := range thingsList[distance] {
			picX := thing.X + offsetX
			picY := thing.Y + offsetY
			if !zbuf.inBounds(picX, picY) {
				continue
			}
			sector := bp.sectorAt(picX, picY)
			// a thing at the meeting point of sectors can sit on a pixel
			// the fill never claimed; one pixel up usually resolves it
			if sector == noSector {
				sector = bp.sectorAt(picX, picY-1)
			}
			if sector == noSector || sector >= len(l.Sectors) {
				continue
			}
			atHeight := l.Sectors[sector].FloorHeight
			light := l.Sectors[sector].Light
			hx := int(float64(atHeight) * opts.CoefX)
			hy := int(float64(atHeight) * opts.CoefY)
			pasteThing(out, picX-hx, picY-hy, light, thing, sprites, zbuf, offsetY, conv)
		}
	}

	return out
}

// drawFloors paints every sector-owned pixel with its floor flat, lifted by
// the floor height and depth tested. The flat sample point is recovered by
// undoing the Y scale and rotation, so the floor pattern stays glued to the
// map grid rather than to the screen.
func drawFloors(l *Level, bp *blueprint, flats map[string]Flat, conv *ColorConversion, out *image.NRGBA, zbuf *zBuffer, offsetX, offsetY int, opts Options) {
	for i := 0; i < bp.w; i++ {
		for j := 0; j < bp.h; j++ {
			sectorNum := bp.sectorAt(i, j)
			if sectorNum == noSector || sectorNum >= len(l.Sectors) {
				continue
			}
			sector := &l.Sectors[sectorNum]
			if !sector.Valid {
				continue
			}
			hx := int(float64(sector.FloorHeight) * opts.CoefX)
			hy := int(float64(sector.FloorHeight) * opts.CoefY)
			if !zbuf.inBounds(i-hx, j-hy) {
				continue
			}
			if j <= zbuf.at(i-hx, j-hy) {
				continue
			}
			flat, ok := flats[sector.FloorTexture]
			if !ok || len(flat) == 0 || len(flat[0]) == 0 {
				continue
			}

			originalX := i - offsetX
			originalY := j - offsetY - 1
			if opts.ScaleY != 1 {
				originalY = int(math.Floor(float64(originalY) / opts.ScaleY))
			}
			if opts.Rotate != 0 {
				originalX, originalY = rotatePoint(originalX, originalY, float64(-opts.Rotate))
			}

			raw := flat[pmod(originalY, len(flat))][pmod(originalX, len(flat[0]))]
			lit := conv.lit(lightBand(sector.Light), raw)
			out.SetNRGBA(i-hx, j-hy, color.NRGBA{lit.R, lit.G, lit.B, 255})
			zbuf.set(i-hx, j-hy, j)
		}
	}
}
