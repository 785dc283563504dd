package hpwl_test

import (
	"testing"

	"github.com/minieda/minieda/geom"
	"github.com/minieda/minieda/hpwl"
	"github.com/stretchr/testify/assert"
)

func TestOfEmptyOrSinglePinIsZero(t *testing.T) {
	assert.Equal(t, 0.0, hpwl.Of(nil))
	assert.Equal(t, 0.0, hpwl.Of([]geom.Point{{X: 1, Y: 2}}))
}

func TestOfComputesHalfPerimeter(t *testing.T) {
	pts := []geom.Point{{X: 0, Y: 0}, {X: 4, Y: 3}, {X: 2, Y: -1}}
	// bbox: x in [0,4], y in [-1,3] -> width 4 + height 4 = 8
	assert.Equal(t, 8.0, hpwl.Of(pts))
}

func TestBBoxEmpty(t *testing.T) {
	assert.Equal(t, geom.Rect{}, hpwl.BBox(nil))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, hpwl.Clamp(-5, 0, 10))
	assert.Equal(t, 10.0, hpwl.Clamp(15, 0, 10))
	assert.Equal(t, 5.0, hpwl.Clamp(5, 0, 10))
}
