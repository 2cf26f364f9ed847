package wad2pic

import "strings"

// WallPosition tags where a wall sits on its linedef.
type WallPosition int

const (
	PositionProper WallPosition = iota // one-sided wall, floor to ceiling
	PositionMid                        // floating middle texture between two sectors
	PositionTop                        // ceiling-height step between two sectors
	PositionBottom                     // floor-height step between two sectors
)

// Wall is everything the renderer needs to draw one wall quad. Walls are
// synthesized fresh per render and never mutated afterwards. "Wall" covers
// proper walls and the side faces of floor/ceiling steps alike.
type Wall struct {
	SX, SY int // start coordinate
	EX, EY int // end coordinate

	// bottom and top heights of the quad; for a step these are the two
	// neighbouring floor (or ceiling) heights, not the room's extremes
	Floor, Ceiling int

	Texture          string
	XOffset, YOffset int

	Position WallPosition
	FromTop  bool // texture anchored to the top edge rather than the bottom
	Light    int  // 0-255, from the owning sector
	IsBack   bool // synthesized from the back sidedef
}

// genWalls derives the drawable walls from linedef/sidedef/sector
// adjacency. The result is keyed by draw distance: a weighted sum of the
// segment midpoint under the projection coefficients. Drawing buckets in
// ascending key order paints far geometry first; walls sharing a key keep
// their input order.
func genWalls(l *Level, opts Options) map[float64][]*Wall {
	walls := make(map[float64][]*Wall)
	put := func(distance float64, w *Wall) {
		walls[distance] = append(walls[distance], w)
	}

	for _, ld := range l.LineDefs {
		start, ok1 := l.vertex(ld.V1Num)
		end, ok2 := l.vertex(ld.V2Num)
		if !ok1 || !ok2 {
			continue
		}
		distance := float64(start.X+end.X)/2*opts.CoefX +
			float64(start.Y+end.Y)/2*opts.CoefY
		isBack := false

		// middle part: a proper wall, or a floating mid texture when the
		// linedef is two-sided
		if front, ok := l.sideDef(ld.FrontNum); ok && front.Middle != noTexture {
			if front.SectorNum >= 0 && front.SectorNum < len(l.Sectors) {
				sector := &l.Sectors[front.SectorNum]
				floor := sector.FloorHeight
				ceiling := sector.CeilingHeight
				light := sector.Light
				fromTop := true
				position := PositionProper

				back, hasBack := l.sideDef(ld.BackNum)
				var backSector *Sector
				if hasBack && back.SectorNum >= 0 && back.SectorNum < len(l.Sectors) {
					// a floating wall only spans the opening both sectors share
					backSector = &l.Sectors[back.SectorNum]
					floor = max(floor, backSector.FloorHeight)
					ceiling = min(ceiling, backSector.CeilingHeight)
					position = PositionMid
					fromTop = false
				}

				put(distance, &Wall{
					SX: start.X, SY: start.Y, EX: end.X, EY: end.Y,
					Floor: floor, Ceiling: ceiling,
					Texture: front.Middle,
					XOffset: front.XOffset, YOffset: front.YOffset,
					FromTop: fromTop, Position: position,
					Light: light, IsBack: isBack,
				})
				// mid walls get a twin facing the other way, so each side is
				// only ever visible from its own half-space
				if position == PositionMid {
					put(distance, &Wall{
						SX: end.X, SY: end.Y, EX: start.X, EY: start.Y,
						Floor: floor, Ceiling: ceiling,
						Texture: back.Middle,
						XOffset: back.XOffset, YOffset: back.YOffset,
						FromTop: fromTop, Position: position,
						Light: backSector.Light, IsBack: isBack,
					})
				}
			}
		}

		// bottom and top parts exist only between two resolvable sides
		front, okF := l.sideDef(ld.FrontNum)
		back, okB := l.sideDef(ld.BackNum)
		if !okF || !okB {
			continue
		}
		if front.SectorNum < 0 || front.SectorNum >= len(l.Sectors) ||
			back.SectorNum < 0 || back.SectorNum >= len(l.Sectors) {
			continue
		}
		frontSector := &l.Sectors[front.SectorNum]
		backSector := &l.Sectors[back.SectorNum]

		// both ceilings sky means outdoors; no top geometry there
		isSky := strings.Contains(backSector.CeilingTexture, skyFlatName) &&
			strings.Contains(frontSector.CeilingTexture, skyFlatName)

		// bottom part: the side of a floor-height step
		if frontSector.FloorHeight != backSector.FloorHeight {
			fromTop := !ld.BottomUnpegged
			top := max(frontSector.FloorHeight, backSector.FloorHeight)
			bottom := min(frontSector.FloorHeight, backSector.FloorHeight)

			side := front
			if bottom != frontSector.FloorHeight {
				side = back
				isBack = true
			}
			light := 0
			if side.SectorNum >= 0 && side.SectorNum < len(l.Sectors) {
				light = l.Sectors[side.SectorNum].Light
			}
			put(distance, &Wall{
				SX: start.X, SY: start.Y, EX: end.X, EY: end.Y,
				Floor: bottom, Ceiling: top,
				Texture: side.Lower,
				XOffset: side.XOffset, YOffset: side.YOffset,
				FromTop: fromTop, Position: PositionBottom,
				Light: light, IsBack: isBack,
			})
		}

		// top part: the side of a ceiling-height step
		if frontSector.CeilingHeight != backSector.CeilingHeight && !isSky {
			fromTop := ld.TopUnpegged
			top := max(frontSector.CeilingHeight, backSector.CeilingHeight)
			bottom := min(frontSector.CeilingHeight, backSector.CeilingHeight)

			side := front
			if top != frontSector.CeilingHeight {
				side = back
				isBack = true
			}
			light := 0
			if side.SectorNum >= 0 && side.SectorNum < len(l.Sectors) {
				light = l.Sectors[side.SectorNum].Light
			}
			put(distance, &Wall{
				SX: start.X, SY: start.Y, EX: end.X, EY: end.Y,
				Floor: bottom, Ceiling: top,
				Texture: side.Upper,
				XOffset: side.XOffset, YOffset: side.YOffset,
				FromTop: fromTop, Position: PositionTop,
				Light: light, IsBack: isBack,
			})
		}
	}
	return walls
}
