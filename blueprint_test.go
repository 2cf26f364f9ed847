package wad2pic

import (
	"testing"
)

func TestFindFloodPoint(t *testing.T) {
	l := &Level{Vertexes: []Vertex{{0, 0}, {100, 0}}}
	ld := &LineDef{V1Num: 0, V2Num: 1}

	// looking from (0,0) to (100,0), right is downward (raster Y grows down)
	x, y := findFloodPoint(l, ld, true)
	if x != 50 || y != 1 {
		t.Errorf("right seed = (%v, %v), want (50, 1)", x, y)
	}
	x, y = findFloodPoint(l, ld, false)
	if x != 50 || y != -1 {
		t.Errorf("left seed = (%v, %v), want (50, -1)", x, y)
	}

	// short segments give no seed
	short := &Level{Vertexes: []Vertex{{0, 0}, {2, 2}}}
	if x, _ := findFloodPoint(short, &LineDef{V1Num: 0, V2Num: 1}, true); x != floodPointMiss {
		t.Errorf("short segment seed x = %v", x)
	}

	// dangling vertex index gives no seed
	if x, _ := findFloodPoint(l, &LineDef{V1Num: 0, V2Num: 9}, true); x != floodPointMiss {
		t.Errorf("bad vertex seed x = %v", x)
	}
}

// ring draws a square border on a fresh blueprint.
func ring(bp *blueprint, x0, y0, x1, y1 int) {
	for x := x0; x <= x1; x++ {
		bp.setCell(x, y0, cellBorder)
		bp.setCell(x, y1, cellBorder)
	}
	for y := y0; y <= y1; y++ {
		bp.setCell(x0, y, cellBorder)
		bp.setCell(x1, y, cellBorder)
	}
}

func TestFloodFillBounded(t *testing.T) {
	bp := newBlueprint(20, 20)
	ring(bp, 2, 2, 12, 12)

	if !bp.floodFill(7, 5, 5, false) {
		t.Fatal("bounded fill reported overflow")
	}
	if bp.sectorAt(5, 5) != 7 {
		t.Errorf("seed pixel sector = %v", bp.sectorAt(5, 5))
	}
	if bp.sectorAt(11, 11) != 7 {
		t.Error("fill did not reach the far corner")
	}
	// outside the ring stays unclaimed
	if bp.sectorAt(15, 15) != noSector {
		t.Error("fill escaped the ring")
	}
	if bp.cellAt(2, 2) != cellBorder {
		t.Error("border overwritten")
	}
}

func TestFloodFillOverflowAndErase(t *testing.T) {
	bp := newBlueprint(10, 10)
	// no border at all: the fill must hit the edge and report it
	if bp.floodFill(3, 5, 5, false) {
		t.Fatal("unbounded fill did not report overflow")
	}
	// the compensating erase clears everything the fill claimed
	bp.floodFill(3, 5, 5, true)
	for y := 0; y < bp.h; y++ {
		for x := 0; x < bp.w; x++ {
			if bp.sectorAt(x, y) != noSector {
				t.Fatalf("pixel (%v,%v) still claimed after erase", x, y)
			}
			if bp.cellAt(x, y) == cellFilled {
				t.Fatalf("pixel (%v,%v) still filled after erase", x, y)
			}
		}
	}
}

func TestFloodFillSeedOnBorder(t *testing.T) {
	bp := newBlueprint(10, 10)
	ring(bp, 1, 1, 8, 8)
	// seeding on a border pixel is a no-op, not a fill
	if !bp.floodFill(1, 1, 1, false) {
		t.Error("border seed reported overflow")
	}
	if bp.sectorAt(4, 4) != noSector {
		t.Error("border seed filled the interior")
	}
}

func TestFillSeams(t *testing.T) {
	bp := newBlueprint(10, 10)
	ring(bp, 1, 1, 8, 8)
	if !bp.floodFill(4, 3, 3, false) {
		t.Fatal("fill failed")
	}

	bp.fillSeams()
	// border pixels adjacent to the filled area now belong to the sector
	if bp.sectorAt(1, 4) != 4 {
		t.Errorf("seam pixel sector = %v", bp.sectorAt(1, 4))
	}
	if bp.cellAt(1, 4) != cellSeam {
		t.Error("repaired pixel not marked")
	}
	// a border pixel with no claimed neighbour stays unclaimed
	bp2 := newBlueprint(10, 10)
	bp2.setCell(5, 5, cellBorder)
	bp2.fillSeams()
	if bp2.sectorAt(5, 5) != noSector {
		t.Error("lone border pixel claimed by nobody")
	}
}

func TestBuildBlueprint(t *testing.T) {
	l := square(8)
	checkSectors(l)
	bp := buildBlueprint(l, 20, 20, 5, 5)

	// the square spans (5,5)-(13,13) after the offset; its center is inside
	if bp.sectorAt(9, 9) != 0 {
		t.Errorf("center sector = %v, want 0", bp.sectorAt(9, 9))
	}
	// far away from the square nothing is claimed
	if bp.sectorAt(18, 18) != noSector {
		t.Error("claimed pixel outside the level")
	}
}
