package wad2pic

import (
	"image"
	"image/color"
	"testing"
)

// grayPalette is a simple test palette: entry i is (i, i, i).
func grayPalette() *Palette {
	var pal Palette
	for i := range pal {
		pal[i] = RGB{uint8(i), uint8(i), uint8(i)}
	}
	return &pal
}

// grayPaletteLumps returns PLAYPAL and COLORMAP lump bytes for the gray
// palette, with every colormap row mapping index i to i/2 (half light).
func grayPaletteLumps() (playpal, colormap []byte) {
	playpal = make([]byte, 256*3)
	for i := 0; i < 256; i++ {
		playpal[i*3], playpal[i*3+1], playpal[i*3+2] = uint8(i), uint8(i), uint8(i)
	}
	colormap = make([]byte, numLightBands*256)
	for band := 0; band < numLightBands; band++ {
		for i := 0; i < 256; i++ {
			colormap[band*256+i] = uint8(i / 2)
		}
	}
	return playpal, colormap
}

func TestReadPalette(t *testing.T) {
	playpal, colormap := grayPaletteLumps()
	c := &testContainer{lumps: map[string][]byte{
		"PLAYPAL":  playpal,
		"COLORMAP": colormap,
	}}
	pal, ok := readPalette(c)
	if !ok {
		t.Fatal("readPalette failed")
	}
	if pal[200] != (RGB{200, 200, 200}) {
		t.Errorf("pal[200] = %v", pal[200])
	}
	cm, ok := readColorMaps(c)
	if !ok {
		t.Fatal("readColorMaps failed")
	}
	if cm[5][100] != 50 {
		t.Errorf("cm[5][100] = %v", cm[5][100])
	}

	// too-short lumps are rejected
	short := &testContainer{lumps: map[string][]byte{"PLAYPAL": {1, 2, 3}}}
	if _, ok := readPalette(short); ok {
		t.Error("accepted a truncated PLAYPAL")
	}
}

func TestSnap(t *testing.T) {
	pal := grayPalette()
	cache := paletteCache{}

	// exact palette colors snap to themselves
	if got := pal.snap(RGB{77, 77, 77}, cache); got != (RGB{77, 77, 77}) {
		t.Errorf("snap of exact color = %v", got)
	}
	// off-palette colors go to the closest by channel-difference sum
	if got := pal.snap(RGB{10, 20, 30}, cache); got != (RGB{20, 20, 20}) {
		t.Errorf("snap(10,20,30) = %v", got)
	}
	// memoized result is stable
	if got := pal.snap(RGB{10, 20, 30}, cache); got != (RGB{20, 20, 20}) {
		t.Errorf("cached snap = %v", got)
	}
}

func TestPalettize(t *testing.T) {
	pal := grayPalette()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{10, 20, 30, 200})
	img.SetNRGBA(1, 0, color.NRGBA{50, 50, 50, 100})
	palettize(img, pal, paletteCache{})

	got := img.NRGBAAt(0, 0)
	if got.A != 255 {
		t.Errorf("alpha 200 not binarized up: %v", got.A)
	}
	if got.R != got.G || got.G != got.B {
		t.Errorf("pixel not snapped to palette: %v", got)
	}
	if img.NRGBAAt(1, 0).A != 0 {
		t.Errorf("alpha 100 not binarized down: %v", img.NRGBAAt(1, 0).A)
	}
}

func TestColorConversion(t *testing.T) {
	playpal, colormap := grayPaletteLumps()
	c := &testContainer{lumps: map[string][]byte{
		"PLAYPAL":  playpal,
		"COLORMAP": colormap,
	}}
	pal, _ := readPalette(c)
	cm, _ := readColorMaps(c)
	conv := newColorConversion(pal, cm)

	if got := conv.lit(3, RGB{100, 100, 100}); got != (RGB{50, 50, 50}) {
		t.Errorf("lit(100) = %v, want half", got)
	}
	// colors outside the palette pass through untouched
	odd := RGB{1, 2, 3}
	if got := conv.lit(3, odd); got != odd {
		t.Errorf("off-palette color remapped: %v", got)
	}
}

func TestLightBand(t *testing.T) {
	tests := []struct {
		light, want int
	}{
		{255, 0},
		{0, 31},
		{128, 15},
		{160, 11},
	}
	for _, tc := range tests {
		if got := lightBand(tc.light); got != tc.want {
			t.Errorf("lightBand(%v) = %v, want %v", tc.light, got, tc.want)
		}
	}
}

func TestGammaCorrect(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{128, 128, 128, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 0, 0, 255})

	before := img.NRGBAAt(0, 0)
	gammaCorrect(img, 1)
	if img.NRGBAAt(0, 0) != before {
		t.Error("gamma 1 changed pixels")
	}

	gammaCorrect(img, 0.7)
	after := img.NRGBAAt(0, 0)
	if after.R <= 128 {
		t.Errorf("gamma 0.7 did not lighten: %v", after.R)
	}
	// pure black stays black
	if img.NRGBAAt(1, 0) != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("black changed: %v", img.NRGBAAt(1, 0))
	}
}
