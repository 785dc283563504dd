package geom_test

import (
	"testing"

	"github.com/minieda/minieda/geom"
	"github.com/stretchr/testify/assert"
)

func TestPointArithmetic(t *testing.T) {
	a := geom.Point{X: 1, Y: 2}
	b := geom.Point{X: 3, Y: -1}

	assert.Equal(t, geom.Point{X: 4, Y: 1}, a.Add(b))
	assert.Equal(t, geom.Point{X: -2, Y: 3}, a.Sub(b))
	assert.Equal(t, geom.Point{X: 2, Y: 4}, a.Scale(2))
	assert.Equal(t, 5.0, a.ManhattanDist(b))
}

func TestRectGeometry(t *testing.T) {
	r := geom.Rect{XMin: 0, YMin: 0, XMax: 4, YMax: 2}

	assert.Equal(t, 4.0, r.Width())
	assert.Equal(t, 2.0, r.Height())
	assert.Equal(t, geom.Point{X: 2, Y: 1}, r.Center())
	assert.Equal(t, 8.0, r.Area())
}

func TestRectOverlapsAndIntersect(t *testing.T) {
	a := geom.Rect{XMin: 0, YMin: 0, XMax: 4, YMax: 4}
	b := geom.Rect{XMin: 2, YMin: 2, XMax: 6, YMax: 6}
	c := geom.Rect{XMin: 10, YMin: 10, XMax: 12, YMax: 12}

	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c))

	i := a.Intersect(b)
	assert.Equal(t, geom.Rect{XMin: 2, YMin: 2, XMax: 4, YMax: 4}, i)
}

func TestRectContains(t *testing.T) {
	outer := geom.Rect{XMin: 0, YMin: 0, XMax: 10, YMax: 10}
	inner := geom.Rect{XMin: 1, YMin: 1, XMax: 9, YMax: 9}
	outside := geom.Rect{XMin: -1, YMin: 0, XMax: 5, YMax: 5}

	assert.True(t, outer.Contains(inner, 0))
	assert.False(t, outer.Contains(outside, 0))
	assert.True(t, outer.Contains(outside, 1))
}

func TestClamp(t *testing.T) {
	r := geom.Rect{XMin: 0, YMin: 0, XMax: 10, YMax: 10}
	assert.Equal(t, geom.Point{X: 10, Y: 0}, geom.Clamp(geom.Point{X: 20, Y: -5}, r))
	assert.Equal(t, geom.Point{X: 5, Y: 5}, geom.Clamp(geom.Point{X: 5, Y: 5}, r))
}
