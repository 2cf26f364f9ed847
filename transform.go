package wad2pic

import (
	"math"

	"golang.org/x/exp/constraints"
)

// The transform pipeline mutates coordinates in place and must run before
// wall synthesis and rasterization, in this order: shrink, rotate, Y scale.
// Every step truncates to integers before the next one runs; the renderer's
// wall-width recovery divides by the same scale factor to undo the
// distortion, so the truncation order is part of the output contract.

func degToRad[T constraints.Integer | constraints.Float](n T) float64 {
	return float64(n) * (math.Pi / 180)
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// rotatePoint rotates one coordinate pair around the origin by polar
// reconstruction: recover angle and radius, add the rotation, rebuild x/y.
// Truncates the result to integers.
func rotatePoint(x, y int, deg float64) (int, int) {
	rad := degToRad(deg)
	angle := math.Atan2(float64(y), float64(x))
	dist := math.Hypot(float64(x), float64(y))
	angle += rad
	return int(math.Cos(angle) * dist), int(math.Sin(angle) * dist)
}

// applyRotation rotates every vertex and thing position. Thing facing
// angles rotate by the negative amount so objects keep facing the same way
// relative to the rotated geometry.
func applyRotation(l *Level, rotate int) {
	for i := range l.Vertexes {
		v := &l.Vertexes[i]
		v.X, v.Y = rotatePoint(v.X, v.Y, float64(rotate))
	}
	for i := range l.Things {
		t := &l.Things[i]
		t.X, t.Y = rotatePoint(t.X, t.Y, float64(rotate))
		t.Angle -= rotate
		if t.Angle < 0 {
			t.Angle += 360
		}
	}
}

// applyScaleY compresses the Y axis to fake an oblique viewing angle.
func applyScaleY(l *Level, scaleY float64) {
	for i := range l.Vertexes {
		l.Vertexes[i].Y = int(float64(l.Vertexes[i].Y) * scaleY)
	}
	for i := range l.Things {
		l.Things[i].Y = int(float64(l.Things[i].Y) * scaleY)
	}
}

// floorDiv divides rounding toward negative infinity, so negative
// coordinates shrink the same direction positive ones do.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// applyShrink divides every coordinate, texture offset and sector height by
// the shrink factor.
func applyShrink(l *Level, shrink int) {
	for i := range l.Vertexes {
		l.Vertexes[i].X = floorDiv(l.Vertexes[i].X, shrink)
		l.Vertexes[i].Y = floorDiv(l.Vertexes[i].Y, shrink)
	}
	for i := range l.Things {
		l.Things[i].X = floorDiv(l.Things[i].X, shrink)
		l.Things[i].Y = floorDiv(l.Things[i].Y, shrink)
	}
	for i := range l.SideDefs {
		l.SideDefs[i].XOffset = floorDiv(l.SideDefs[i].XOffset, shrink)
		l.SideDefs[i].YOffset = floorDiv(l.SideDefs[i].YOffset, shrink)
	}
	for i := range l.Sectors {
		l.Sectors[i].FloorHeight = floorDiv(l.Sectors[i].FloorHeight, shrink)
		l.Sectors[i].CeilingHeight = floorDiv(l.Sectors[i].CeilingHeight, shrink)
	}
}

// applyTransforms runs the full pipeline in its required order.
func applyTransforms(l *Level, opts Options) {
	if opts.Shrink != 1 {
		applyShrink(l, opts.Shrink)
	}
	if opts.Rotate != 0 {
		applyRotation(l, opts.Rotate)
	}
	if opts.ScaleY != 1 {
		applyScaleY(l, opts.ScaleY)
	}
}
