package wad2pic

// The blueprint is a scratch raster the size of the output image. Linedefs
// are drawn on it as borders, then each sector is flood filled from a seed
// just off its sidedefs. The companion sectorData grid records which sector
// owns each filled pixel; the renderer's floor pass reads only sectorData.

type cell uint8

const (
	cellEmpty cell = iota
	cellBorder
	cellFilled
	cellSeam // border pixel later claimed by a neighbouring sector
)

// noSector marks an unclaimed sectorData pixel.
const noSector = -1

type blueprint struct {
	w, h       int
	cells      []cell
	sectorData []int16
}

func newBlueprint(w, h int) *blueprint {
	bp := &blueprint{
		w: w, h: h,
		cells:      make([]cell, w*h),
		sectorData: make([]int16, w*h),
	}
	for i := range bp.sectorData {
		bp.sectorData[i] = noSector
	}
	return bp
}

func (bp *blueprint) inBounds(x, y int) bool {
	return x >= 0 && x < bp.w && y >= 0 && y < bp.h
}

func (bp *blueprint) cellAt(x, y int) cell {
	return bp.cells[y*bp.w+x]
}

func (bp *blueprint) setCell(x, y int, c cell) {
	bp.cells[y*bp.w+x] = c
}

// sectorAt returns the owning sector of a pixel, or noSector.
func (bp *blueprint) sectorAt(x, y int) int {
	if !bp.inBounds(x, y) {
		return noSector
	}
	return int(bp.sectorData[y*bp.w+x])
}

// drawBorders traces every linedef onto the blueprint.
func (bp *blueprint) drawBorders(l *Level, offsetX, offsetY int) {
	for _, ld := range l.LineDefs {
		v1, ok1 := l.vertex(ld.V1Num)
		v2, ok2 := l.vertex(ld.V2Num)
		if !ok1 || !ok2 {
			continue
		}
		for _, p := range linePixels(
			point{v1.X + offsetX, v1.Y + offsetY},
			point{v2.X + offsetX, v2.Y + offsetY}) {
			if bp.inBounds(p.x, p.y) {
				bp.setCell(p.x, p.y, cellBorder)
			}
		}
	}
}

// floodPointMiss marks a seed that could not be derived.
const floodPointMiss = -1000000

// findFloodPoint returns a fill seed one pixel sideways from the linedef's
// midpoint. right means the right-hand side when looking from begin to end,
// which is where the front sidedef's sector lies. Segments shorter than a
// few pixels are skipped; their seed would land on a border.
func findFloodPoint(l *Level, ld *LineDef, right bool) (int, int) {
	v1, ok1 := l.vertex(ld.V1Num)
	v2, ok2 := l.vertex(ld.V2Num)
	if !ok1 || !ok2 {
		return floodPointMiss, floodPointMiss
	}
	x := floorDiv(v1.X+v2.X, 2)
	y := floorDiv(v1.Y+v2.Y, 2)

	if abs(v2.X-v1.X) <= 2 && abs(v2.Y-v1.Y) <= 2 {
		return floodPointMiss, floodPointMiss
	}

	d := 1
	if !right {
		d = -1
	}
	if v2.X > v1.X {
		y += d
	}
	if v2.X < v1.X {
		y -= d
	}
	if v2.Y > v1.Y {
		x -= d
	}
	if v2.Y < v1.Y {
		x += d
	}
	return x, y
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// floodFill claims empty pixels for a sector, starting from a seed and
// stopping at borders. Returns false the moment the fill reaches the image
// edge: that means the sector leaks (usually broken geometry) and the
// caller must undo it. erase reruns the same traversal with the colors
// swapped, turning a leaked fill back into empty pixels.
func (bp *blueprint) floodFill(sector int, startX, startY int, erase bool) bool {
	currColor, fillColor := cellEmpty, cellFilled
	if erase {
		currColor, fillColor = cellFilled, cellEmpty
	}

	var toGo []point
	if bp.inBounds(startX, startY) && bp.cellAt(startX, startY) == currColor {
		toGo = append(toGo, point{startX, startY})
	}

	for len(toGo) > 0 {
		p := toGo[len(toGo)-1]
		toGo = toGo[:len(toGo)-1]
		bp.setCell(p.x, p.y, fillColor)
		if erase {
			bp.sectorData[p.y*bp.w+p.x] = noSector
		} else {
			bp.sectorData[p.y*bp.w+p.x] = int16(sector)
		}
		for _, d := range [4]point{{-1, 0}, {0, -1}, {1, 0}, {0, 1}} {
			nx, ny := p.x+d.x, p.y+d.y
			if nx < 0 || nx == bp.w || ny < 0 || ny == bp.h {
				return false
			}
			if bp.cellAt(nx, ny) == currColor {
				toGo = append(toGo, point{nx, ny})
			}
		}
	}
	return true
}

// fillSectors flood fills every valid sector from both sides of its
// linedefs, rolling back any fill that leaks to the image edge.
func (bp *blueprint) fillSectors(l *Level, offsetX, offsetY int) {
	for i := range l.LineDefs {
		ld := &l.LineDefs[i]
		for side, sideNum := range [2]int{ld.FrontNum, ld.BackNum} {
			sideDef, ok := l.sideDef(sideNum)
			if !ok {
				continue
			}
			if sideDef.SectorNum < 0 || sideDef.SectorNum >= len(l.Sectors) {
				continue
			}
			if !l.Sectors[sideDef.SectorNum].Valid {
				continue
			}
			x, y := findFloodPoint(l, ld, side == 0)
			if x == floodPointMiss {
				continue
			}
			if !bp.floodFill(sideDef.SectorNum, x+offsetX, y+offsetY, false) {
				bp.floodFill(sideDef.SectorNum, x+offsetX, y+offsetY, true)
			}
		}
	}
}

// fillSeams hands each leftover border pixel to the highest-numbered
// adjacent sector. Without this pass the linedefs leave one-pixel black
// seams between floors. Repaired pixels are marked so they never donate
// their sector to another border pixel in the same pass.
func (bp *blueprint) fillSeams() {
	for i := 0; i < bp.w; i++ {
		for j := 0; j < bp.h; j++ {
			if bp.cellAt(i, j) != cellBorder {
				continue
			}
			maxNeighbour := noSector
			for _, d := range [4]point{{1, 0}, {0, 1}, {-1, 0}, {0, -1}} {
				ni, nj := i+d.x, j+d.y
				if !bp.inBounds(ni, nj) || bp.cellAt(ni, nj) == cellSeam {
					continue
				}
				maxNeighbour = max(maxNeighbour, bp.sectorAt(ni, nj))
			}
			if maxNeighbour > noSector {
				bp.sectorData[j*bp.w+i] = int16(maxNeighbour)
				bp.setCell(i, j, cellSeam)
			}
		}
	}
}

// buildBlueprint runs the whole rasterization: borders, fills, seam repair.
func buildBlueprint(l *Level, w, h, offsetX, offsetY int) *blueprint {
	bp := newBlueprint(w, h)
	bp.drawBorders(l, offsetX, offsetY)
	bp.fillSectors(l, offsetX, offsetY)
	bp.fillSeams()
	return bp
}
