// Package hpwl provides the half-perimeter wirelength metric and small
// numeric helpers (bounding box, clamping) shared by the global placer,
// detailed placer, and timing net-delay models. Kept as its own package
// the way the teacher's hpwl_calculator.h is its own standalone unit,
// rather than re-derived inline by every caller.
package hpwl

import (
	"math"

	"github.com/minieda/minieda/geom"
)

// BBox returns the axis-aligned bounding box of pts. The zero Rect is
// returned for an empty slice.
func BBox(pts []geom.Point) geom.Rect {
	if len(pts) == 0 {
		return geom.Rect{}
	}
	r := geom.Rect{XMin: pts[0].X, XMax: pts[0].X, YMin: pts[0].Y, YMax: pts[0].Y}
	for _, p := range pts[1:] {
		r.XMin = math.Min(r.XMin, p.X)
		r.XMax = math.Max(r.XMax, p.X)
		r.YMin = math.Min(r.YMin, p.Y)
		r.YMax = math.Max(r.YMax, p.Y)
	}
	return r
}

// Of returns the half-perimeter wirelength of a net's pin centres:
// (x_max - x_min) + (y_max - y_min). Zero or one pins yield 0.
func Of(pts []geom.Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	b := BBox(pts)
	return b.Width() + b.Height()
}

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
