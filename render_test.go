package wad2pic

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func TestLinePixels(t *testing.T) {
	if got := linePixels(point{3, 4}, point{3, 4}); len(got) != 1 || got[0] != (point{3, 4}) {
		t.Errorf("degenerate line = %v", got)
	}

	line := linePixels(point{0, 0}, point{4, 0})
	if len(line) != 5 || line[0] != (point{0, 0}) || line[4] != (point{4, 0}) {
		t.Errorf("horizontal line = %v", line)
	}

	line = linePixels(point{0, 0}, point{0, -3})
	if len(line) != 4 || line[3] != (point{0, -3}) {
		t.Errorf("vertical line = %v", line)
	}
}

func TestLinePixelsNoDiagonalGaps(t *testing.T) {
	cases := []struct{ beg, end point }{
		{point{0, 0}, point{7, 3}},
		{point{0, 0}, point{3, 7}},
		{point{5, 5}, point{-4, 2}},
		{point{0, 0}, point{6, 6}},
		{point{10, -3}, point{-7, 11}},
	}
	for _, tc := range cases {
		line := linePixels(tc.beg, tc.end)
		if line[0] != tc.beg || line[len(line)-1] != tc.end {
			t.Errorf("%v -> %v: endpoints wrong: %v", tc.beg, tc.end, line)
		}
		for i := 1; i < len(line); i++ {
			dx := abs(line[i].x - line[i-1].x)
			dy := abs(line[i].y - line[i-1].y)
			if dx+dy != 1 {
				t.Errorf("%v -> %v: diagonal or repeated step at %v: %v -> %v",
					tc.beg, tc.end, i, line[i-1], line[i])
			}
		}
	}
}

func TestZBuffer(t *testing.T) {
	zb := newZBuffer(4, 4)
	if zb.at(0, 0) != zEmpty {
		t.Errorf("fresh buffer = %v", zb.at(0, 0))
	}
	zb.set(1, 2, -5)
	if zb.at(1, 2) != -5 {
		t.Errorf("at(1,2) = %v", zb.at(1, 2))
	}
	if zb.inBounds(4, 0) || zb.inBounds(0, -1) {
		t.Error("out-of-range reported in bounds")
	}
}

func TestImageSizeOffset(t *testing.T) {
	l := square(64)
	opts := DefaultOptions()
	opts.Margins = 10

	w, h, offsetX, offsetY := imageSizeOffset(l, opts)
	// geometry spans 0..64 on both axes, plus the ceiling lift on Y
	// (CoefY 0.8 * height 128 = 102), plus a margin on each side
	if w != 64+20 {
		t.Errorf("w = %v", w)
	}
	wantH := 64 + int(opts.CoefY*128) + 20
	if h != wantH {
		t.Errorf("h = %v, want %v", h, wantH)
	}
	if offsetX != 10 {
		t.Errorf("offsetX = %v", offsetX)
	}
	// Y offset accounts for walls reaching above the top edge
	if offsetY != 10+int(opts.CoefY*128) {
		t.Errorf("offsetY = %v", offsetY)
	}
}

func TestLightImage(t *testing.T) {
	playpal, colormap := grayPaletteLumps()
	c := &testContainer{lumps: map[string][]byte{"PLAYPAL": playpal, "COLORMAP": colormap}}
	pal, _ := readPalette(c)
	cm, _ := readColorMaps(c)
	conv := newColorConversion(pal, cm)

	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{100, 100, 100, 123})
	lightImage(img, 3, conv)
	got := img.NRGBAAt(0, 0)
	if got.R != 50 {
		t.Errorf("lit pixel = %v", got)
	}
	if got.A != 123 {
		t.Errorf("alpha changed: %v", got.A)
	}
}

func TestWallImage(t *testing.T) {
	playpal, colormap := grayPaletteLumps()
	c := &testContainer{lumps: map[string][]byte{"PLAYPAL": playpal, "COLORMAP": colormap}}
	pal, _ := readPalette(c)
	cm, _ := readColorMaps(c)
	conv := newColorConversion(pal, cm)

	tex := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			tex.SetNRGBA(x, y, color.NRGBA{200, 200, 200, 255})
		}
	}
	textures := map[string]*image.NRGBA{padName("STARTAN3"): tex}

	wall := &Wall{
		SX: 0, SY: 0, EX: 40, EY: 0,
		Floor: 0, Ceiling: 32,
		Texture: padName("STARTAN3"),
		FromTop: true, Position: PositionProper, Light: 255,
	}
	img := wallImage(wall, textures, conv, 0.8, 1)
	if img == nil {
		t.Fatal("no wall image")
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 32 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	// fully lit band 0 still halves in this colormap
	if got := img.NRGBAAt(5, 5); got.R != 100 {
		t.Errorf("pixel = %v", got)
	}

	// no texture name means nothing to draw
	none := &Wall{Texture: noTexture, Floor: 0, Ceiling: 32, EX: 40}
	if wallImage(none, textures, conv, 0.8, 1) != nil {
		t.Error("image for the no-texture marker")
	}

	// inverted heights are a mapping error, not a panic
	bad := &Wall{Texture: padName("STARTAN3"), Floor: 50, Ceiling: 10, EX: 40}
	if wallImage(bad, textures, conv, 0.8, 1) != nil {
		t.Error("image for negative-height wall")
	}
}

func TestWallImageYScaleWidens(t *testing.T) {
	playpal, colormap := grayPaletteLumps()
	c := &testContainer{lumps: map[string][]byte{"PLAYPAL": playpal, "COLORMAP": colormap}}
	pal, _ := readPalette(c)
	cm, _ := readColorMaps(c)
	conv := newColorConversion(pal, cm)

	tex := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	textures := map[string]*image.NRGBA{padName("T"): tex}

	// a wall running along Y: its squeezed screen length must be divided
	// back out to recover the texture span
	wall := &Wall{
		SX: 0, SY: 0, EX: 0, EY: 40,
		Floor: 0, Ceiling: 16,
		Texture: padName("T"), FromTop: true, Position: PositionProper,
	}
	img := wallImage(wall, textures, conv, 0.5, 1)
	if img == nil {
		t.Fatal("no wall image")
	}
	if img.Bounds().Dx() != 80 {
		t.Errorf("width = %v, want 80", img.Bounds().Dx())
	}
}

func TestDrawMapSingleRoom(t *testing.T) {
	playpal, colormap := grayPaletteLumps()
	c := &testContainer{lumps: map[string][]byte{"PLAYPAL": playpal, "COLORMAP": colormap}}
	pal, _ := readPalette(c)
	cm, _ := readColorMaps(c)
	conv := newColorConversion(pal, cm)

	opts := DefaultOptions()
	opts.Margins = 30
	opts.Rotate = 0
	opts.ScaleY = 1

	l := square(40)
	checkSectors(l)
	walls := genWalls(l, opts)

	flat := make(Flat, flatSide)
	for i := range flat {
		flat[i] = make([]RGB, flatSide)
		for j := range flat[i] {
			flat[i][j] = RGB{160, 160, 160}
		}
	}
	flats := map[string]Flat{padName("FLOOR4_8"): flat}

	tex := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			tex.SetNRGBA(x, y, color.NRGBA{220, 220, 220, 255})
		}
	}
	textures := map[string]*image.NRGBA{padName("STARTAN3"): tex}

	img := drawMap(l, flats, walls, textures, nil, nil, conv, opts)
	if img == nil {
		t.Fatal("no image")
	}

	// the floor inside the room is painted with the lit flat
	_, _, offsetX, offsetY := imageSizeOffset(l, opts)
	center := img.NRGBAAt(20+offsetX, 20+offsetY)
	if center.R == 0 {
		t.Error("room floor not painted")
	}
	// well outside the level everything stays black
	if got := img.NRGBAAt(2, 2); got.R != 0 || got.G != 0 || got.B != 0 {
		t.Errorf("background painted: %v", got)
	}
}

func TestPasteWallDepthTest(t *testing.T) {
	playpal, colormap := grayPaletteLumps()
	c := &testContainer{lumps: map[string][]byte{"PLAYPAL": playpal, "COLORMAP": colormap}}
	pal, _ := readPalette(c)
	cm, _ := readColorMaps(c)
	conv := newColorConversion(pal, cm)

	tex := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			tex.SetNRGBA(x, y, color.NRGBA{200, 200, 200, 255})
		}
	}
	textures := map[string]*image.NRGBA{padName("T"): tex}

	opts := DefaultOptions()
	const offsetY = 30

	// two front-facing walls along X at different depths; their projected
	// quads overlap
	makeWall := func(sy int) (*Wall, [8]int) {
		w := &Wall{
			SX: 0, SY: sy, EX: 20, EY: sy,
			Floor: 0, Ceiling: 16,
			Texture: padName("T"), FromTop: true,
			Position: PositionProper, Light: 255,
		}
		height := w.Ceiling - w.Floor
		x1, y1 := w.SX, w.SY+offsetY
		x2, y2 := w.EX, w.EY+offsetY
		coords := [8]int{
			x1, y1, x2, y2,
			int(float64(x2) - float64(height)*opts.CoefX),
			int(float64(y2) - float64(height)*opts.CoefY),
			int(float64(x1) - float64(height)*opts.CoefX),
			int(float64(y1) - float64(height)*opts.CoefY),
		}
		return w, coords
	}
	far, farCoords := makeWall(0)
	near, nearCoords := makeWall(4)

	out := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	zbuf := newZBuffer(40, 40)
	pasteWall(out, farCoords, far, textures, zbuf, 0, offsetY, conv, opts)
	pasteWall(out, nearCoords, near, textures, zbuf, 0, offsetY, conv, opts)

	// a pixel both quads cover holds the nearer wall's depth
	px, py := 10, 25
	if zbuf.at(px, py) != 4+offsetY {
		t.Errorf("zbuffer = %v, want the nearer wall's Y %v", zbuf.at(px, py), 4+offsetY)
	}

	// drawn in the other order, the farther wall must lose
	out2 := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	zbuf2 := newZBuffer(40, 40)
	pasteWall(out2, nearCoords, near, textures, zbuf2, 0, offsetY, conv, opts)
	pasteWall(out2, farCoords, far, textures, zbuf2, 0, offsetY, conv, opts)
	if zbuf2.at(px, py) != 4+offsetY {
		t.Errorf("reversed order: zbuffer = %v, want %v", zbuf2.at(px, py), 4+offsetY)
	}
}

func TestPasteWallBackFacing(t *testing.T) {
	playpal, colormap := grayPaletteLumps()
	c := &testContainer{lumps: map[string][]byte{"PLAYPAL": playpal, "COLORMAP": colormap}}
	pal, _ := readPalette(c)
	cm, _ := readColorMaps(c)
	conv := newColorConversion(pal, cm)

	tex := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			tex.SetNRGBA(x, y, color.NRGBA{200, 200, 200, 255})
		}
	}
	textures := map[string]*image.NRGBA{padName("T"): tex}

	opts := DefaultOptions()
	const offsetY = 20

	// end-to-start direction: the wall faces away from the viewer
	wall := &Wall{
		SX: 20, SY: 0, EX: 0, EY: 0,
		Floor: 0, Ceiling: 16,
		Texture: padName("T"), FromTop: true,
		Position: PositionProper, Light: 255,
	}
	ceilY := int(float64(offsetY) - 16*opts.CoefY)
	coords := [8]int{
		20, offsetY, 0, offsetY,
		int(0 - 16*opts.CoefX), ceilY,
		int(20 - 16*opts.CoefX), ceilY,
	}

	out := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	zbuf := newZBuffer(40, 40)
	pasteWall(out, coords, wall, textures, zbuf, 0, offsetY, conv, opts)

	// the lit texture value 100 blends over black at the ghost alpha 80
	got := out.NRGBAAt(10, 15)
	want := uint8(100 * 80 / 255)
	if got.R != want || got.G != want || got.B != want {
		t.Errorf("ghost pixel = %v, want uniform %v", got, want)
	}
	// a ghost face still claims depth at its own Y
	if zbuf.at(10, 15) != offsetY {
		t.Errorf("zbuffer = %v, want %v", zbuf.at(10, 15), offsetY)
	}
}

func TestPasteWallMidPairSingleFace(t *testing.T) {
	playpal, colormap := grayPaletteLumps()
	c := &testContainer{lumps: map[string][]byte{"PLAYPAL": playpal, "COLORMAP": colormap}}
	pal, _ := readPalette(c)
	cm, _ := readColorMaps(c)
	conv := newColorConversion(pal, cm)

	// texture as tall as the wall: the single mid hang covers the whole
	// quad with no soft edge
	tex := image.NewNRGBA(image.Rect(0, 0, 8, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 8; x++ {
			tex.SetNRGBA(x, y, color.NRGBA{200, 200, 200, 255})
		}
	}
	textures := map[string]*image.NRGBA{padName("MID"): tex}

	opts := DefaultOptions()
	const offsetY = 20

	mk := func(sx, ex int, isBack bool) (*Wall, [8]int) {
		w := &Wall{
			SX: sx, SY: 0, EX: ex, EY: 0,
			Floor: 0, Ceiling: 16,
			Texture: padName("MID"), YOffset: -1,
			Position: PositionMid, IsBack: isBack, Light: 255,
		}
		ceilY := int(float64(offsetY) - 16*opts.CoefY)
		coords := [8]int{
			sx, offsetY, ex, offsetY,
			int(float64(ex) - 16*opts.CoefX), ceilY,
			int(float64(sx) - 16*opts.CoefX), ceilY,
		}
		return w, coords
	}
	front, frontCoords := mk(20, 0, false)
	back, backCoords := mk(0, 20, true)

	out := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	zbuf := newZBuffer(40, 40)
	pasteWall(out, frontCoords, front, textures, zbuf, 0, offsetY, conv, opts)

	// the winning face paints fully opaque, never ghosted
	if got := out.NRGBAAt(10, 13); got.R != 100 {
		t.Fatalf("mid face pixel = %v, want lit opaque 100", got)
	}
	if zbuf.at(10, 13) != offsetY {
		t.Errorf("zbuffer = %v, want %v", zbuf.at(10, 13), offsetY)
	}

	// its twin must change nothing: one face per frame
	snapshot := make([]byte, len(out.Pix))
	copy(snapshot, out.Pix)
	pasteWall(out, backCoords, back, textures, zbuf, 0, offsetY, conv, opts)
	if !bytes.Equal(snapshot, out.Pix) {
		t.Error("both faces of a mid pair painted in one frame")
	}
}

func TestPasteThingSpectre(t *testing.T) {
	playpal, colormap := grayPaletteLumps()
	c := &testContainer{lumps: map[string][]byte{"PLAYPAL": playpal, "COLORMAP": colormap}}
	pal, _ := readPalette(c)
	cm, _ := readColorMaps(c)
	conv := newColorConversion(pal, cm)

	// the sprite bitmap is green; the background is red
	sprite := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			sprite.SetNRGBA(x, y, color.NRGBA{0, 200, 0, 255})
		}
	}
	sprites := map[string]*image.NRGBA{padName("SARGA1"): sprite}

	out := image.NewNRGBA(image.Rect(0, 0, 12, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			out.SetNRGBA(x, y, color.NRGBA{200, 0, 0, 255})
		}
	}
	zbuf := newZBuffer(12, 12)

	thing := &Thing{X: 5, Y: 5, Type: spectreType, Sprite: padName("SARGA1")}
	pasteThing(out, 6, 8, 255, thing, sprites, zbuf, 0, conv)

	// a spectre repaints distorted background, not its own bitmap: the
	// result stays in the red family, darkened, with no green anywhere
	got := out.NRGBAAt(5, 5)
	if got.G != 0 || got.B != 0 {
		t.Fatalf("spectre pixel = %v, want background hue only", got)
	}
	if got.R == 0 || got.R >= 200 {
		t.Errorf("spectre pixel R = %v, want darkened background", got.R)
	}
	if zbuf.at(5, 5) != 5 {
		t.Errorf("zbuffer = %v, want the thing's Y", zbuf.at(5, 5))
	}
}

func TestWallImageLargeShrink(t *testing.T) {
	playpal, colormap := grayPaletteLumps()
	c := &testContainer{lumps: map[string][]byte{"PLAYPAL": playpal, "COLORMAP": colormap}}
	pal, _ := readPalette(c)
	cm, _ := readColorMaps(c)
	conv := newColorConversion(pal, cm)

	tex := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	textures := map[string]*image.NRGBA{padName("T"): tex}

	// a shrink past 128 must not blow up the bottom-peg wrap
	wall := &Wall{
		SX: 0, SY: 0, EX: 40, EY: 0,
		Floor: 10, Ceiling: 26,
		Texture: padName("T"), FromTop: false,
		Position: PositionBottom, Light: 255,
	}
	if img := wallImage(wall, textures, conv, 0.8, 256); img == nil {
		t.Fatal("no wall image at large shrink")
	}
}

func TestPasteWallDepthSlanted(t *testing.T) {
	playpal, colormap := grayPaletteLumps()
	c := &testContainer{lumps: map[string][]byte{"PLAYPAL": playpal, "COLORMAP": colormap}}
	pal, _ := readPalette(c)
	cm, _ := readColorMaps(c)
	conv := newColorConversion(pal, cm)

	tex := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			tex.SetNRGBA(x, y, color.NRGBA{200, 200, 200, 255})
		}
	}
	textures := map[string]*image.NRGBA{padName("T"): tex}

	opts := DefaultOptions()
	const offsetY = 30

	// a wall sloping toward the viewer: the interpolated depth carries a
	// negative fraction, which truncates as part of the whole sum
	wall := &Wall{
		SX: 0, SY: 10, EX: 20, EY: 0,
		Floor: 0, Ceiling: 16,
		Texture: padName("T"), FromTop: true,
		Position: PositionProper, Light: 255,
	}
	coords := [8]int{
		0, 10 + offsetY, 20, offsetY,
		int(20 - 16*opts.CoefX), int(float64(offsetY) - 16*opts.CoefY),
		int(0 - 16*opts.CoefX), int(float64(10+offsetY) - 16*opts.CoefY),
	}

	out := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	zbuf := newZBuffer(50, 50)
	pasteWall(out, coords, wall, textures, zbuf, 0, offsetY, conv, opts)

	// the bottom edge spans 31 pixels after gap filling; pixel column x=1
	// belongs to line index 2, whose depth is floor(40 - 20/31) = 39,
	// not 0 + 40
	if zbuf.at(1, 30) != 39 {
		t.Errorf("zbuffer = %v, want 39", zbuf.at(1, 30))
	}
}

func TestPasteThingDepthTest(t *testing.T) {
	playpal, colormap := grayPaletteLumps()
	c := &testContainer{lumps: map[string][]byte{"PLAYPAL": playpal, "COLORMAP": colormap}}
	pal, _ := readPalette(c)
	cm, _ := readColorMaps(c)
	conv := newColorConversion(pal, cm)

	sprite := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			sprite.SetNRGBA(x, y, color.NRGBA{100, 100, 100, 255})
		}
	}
	sprites := map[string]*image.NRGBA{padName("BON1A0"): sprite}

	out := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	zbuf := newZBuffer(10, 10)

	thing := &Thing{X: 5, Y: 5, Sprite: padName("BON1A0")}
	pasteThing(out, 5, 5, 255, thing, sprites, zbuf, 0, conv)

	// sprite is anchored at its bottom center: pixels land above (5,5)
	if out.NRGBAAt(4, 3).R == 0 {
		t.Error("sprite not drawn")
	}
	if zbuf.at(4, 3) != 5 {
		t.Errorf("zbuffer = %v, want the thing's Y", zbuf.at(4, 3))
	}

	// something closer already there: the sprite must lose
	out2 := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	zbuf2 := newZBuffer(10, 10)
	zbuf2.set(4, 3, 100)
	pasteThing(out2, 5, 5, 255, thing, sprites, zbuf2, 0, conv)
	if out2.NRGBAAt(4, 3).R != 0 {
		t.Error("occluded sprite drawn anyway")
	}

	// unresolvable sprite names draw nothing
	ghost := &Thing{X: 5, Y: 5, Sprite: ""}
	pasteThing(out, 5, 5, 255, ghost, sprites, zbuf, 0, conv)
}
