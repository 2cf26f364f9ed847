package wad2pic

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

// MapStats collects the figures printed in the image's corner: geometry
// counts, the monster census, source file names. Keys carry a two-digit
// prefix that fixes the print order and is stripped on output. Values are
// strings or counters.
type MapStats map[string]any

// inc bumps a counter key, creating it at 1.
func (s MapStats) inc(key string) {
	n, _ := s[key].(int)
	s[key] = n + 1
}

const titlePicHeight = 200

// drawText writes one line in the overlay face. x, y is the top-left
// corner, like the rest of the raster code expects.
func drawText(img *image.NRGBA, x, y int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: inconsolata.Regular8x16,
		Dot:  fixed.P(x, y+13),
	}
	d.DrawString(text)
}

// drawStats prints the statistics block in the bottom left corner, with
// the title picture (if any) beside it.
func drawStats(img *image.NRGBA, titlePic *image.NRGBA, stats MapStats) {
	stats["00Statistics:"] = ""
	stats["20Monsters:"] = ""
	stats["99Generated with wad2pic, github.com/neilforshaw/wad2pic"] = ""

	curX := 50
	curY := img.Bounds().Dy() - 50 - titlePicHeight

	if titlePic != nil {
		if titlePic.Bounds().Dy() != titlePicHeight {
			resized := image.NewNRGBA(image.Rect(0, 0, 320, titlePicHeight))
			xdraw.CatmullRom.Scale(resized, resized.Bounds(), titlePic, titlePic.Bounds(), xdraw.Src, nil)
			titlePic = resized
		}
		rect := titlePic.Bounds().Add(image.Pt(curX, curY))
		xdraw.Draw(img, rect, titlePic, titlePic.Bounds().Min, xdraw.Over)
		curX += titlePic.Bounds().Dx() + 50
	}
	curY += 20

	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	height := img.Bounds().Dy()
	for _, key := range keys {
		label := key[2:]
		value := stats[key]

		// the credit line goes along the very bottom
		if strings.HasPrefix(key, "99") {
			drawText(img, 50, height-25, label)
			continue
		}

		// new column near the bottom edge, and for the monster census
		if height-curY < 70 || strings.Contains(label, "Monsters") {
			curX += 250
			curY = height - 30 - titlePicHeight
		}

		drawText(img, curX, curY, strings.ToUpper(label))
		drawText(img, curX+110, curY, fmt.Sprint(value))
		curY += 20
	}
}
