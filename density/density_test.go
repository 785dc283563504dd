package density_test

import (
	"testing"

	"github.com/minieda/minieda/density"
	"github.com/minieda/minieda/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRejectsBadInputs(t *testing.T) {
	_, err := density.Init(geom.Rect{XMax: 10, YMax: 10}, 0, 4)
	assert.ErrorIs(t, err, density.ErrBadDims)

	_, err = density.Init(geom.Rect{}, 4, 4)
	assert.ErrorIs(t, err, density.ErrEmptyCore)
}

func TestInitCentersBins(t *testing.T) {
	g, err := density.Init(geom.Rect{XMin: 0, YMin: 0, XMax: 10, YMax: 10}, 2, 2)
	require.NoError(t, err)

	b, err := g.At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, geom.Point{X: 2.5, Y: 2.5}, b.Center)

	_, err = g.At(5, 5)
	assert.ErrorIs(t, err, density.ErrOutOfBounds)
}

func TestBinOfClampsToGrid(t *testing.T) {
	g, _ := density.Init(geom.Rect{XMin: 0, YMin: 0, XMax: 10, YMax: 10}, 2, 2)
	x, y := g.BinOf(geom.Point{X: -5, Y: 50})
	assert.Equal(t, 0, x)
	assert.Equal(t, 1, y)
}

func TestUpdateDensityFullyCoveredBinIsOne(t *testing.T) {
	g, _ := density.Init(geom.Rect{XMin: 0, YMin: 0, XMax: 10, YMax: 10}, 2, 2)
	g.UpdateDensity([]density.CellRect{
		{ID: 1, Rect: geom.Rect{XMin: 0, YMin: 0, XMax: 5, YMax: 5}},
	})

	b, _ := g.At(0, 0)
	assert.InDelta(t, 1.0, b.Density, 1e-9)

	other, _ := g.At(1, 1)
	assert.Equal(t, 0.0, other.Density)
}

func TestOverflowSumsExcessAboveTarget(t *testing.T) {
	g, _ := density.Init(geom.Rect{XMin: 0, YMin: 0, XMax: 10, YMax: 10}, 2, 2)
	g.UpdateDensity([]density.CellRect{
		{ID: 1, Rect: geom.Rect{XMin: 0, YMin: 0, XMax: 5, YMax: 5}},
	})
	binArea := g.BinW * g.BinH
	assert.InDelta(t, (1.0-0.5)*binArea, g.Overflow(0.5), 1e-9)
	assert.Equal(t, 0.0, g.Overflow(1.0))
}

func TestMaxDensity(t *testing.T) {
	g, _ := density.Init(geom.Rect{XMin: 0, YMin: 0, XMax: 10, YMax: 10}, 2, 2)
	g.UpdateDensity([]density.CellRect{
		{ID: 1, Rect: geom.Rect{XMin: 0, YMin: 0, XMax: 5, YMax: 5}},
	})
	assert.InDelta(t, 1.0, g.MaxDensity(), 1e-9)
}

func TestSetPotentialAndForceRejectsLengthMismatch(t *testing.T) {
	g, _ := density.Init(geom.Rect{XMin: 0, YMin: 0, XMax: 10, YMax: 10}, 2, 2)
	err := g.SetPotentialAndForce([]float64{1, 2}, nil, nil)
	assert.Error(t, err)
}

func TestSetPotentialAndForceWritesBack(t *testing.T) {
	g, _ := density.Init(geom.Rect{XMin: 0, YMin: 0, XMax: 10, YMax: 10}, 2, 2)
	n := len(g.Bins)
	pot := make([]float64, n)
	fx := make([]float64, n)
	fy := make([]float64, n)
	for i := range pot {
		pot[i], fx[i], fy[i] = float64(i), float64(i)*2, float64(i)*3
	}
	require.NoError(t, g.SetPotentialAndForce(pot, fx, fy))

	b, _ := g.At(1, 1)
	idx := 1*g.Nx + 1
	assert.Equal(t, float64(idx), b.Potential)
	assert.Equal(t, float64(idx)*2, b.ForceX)
	assert.Equal(t, float64(idx)*3, b.ForceY)
}

func TestDensityFieldMatchesBinOrder(t *testing.T) {
	g, _ := density.Init(geom.Rect{XMin: 0, YMin: 0, XMax: 10, YMax: 10}, 2, 2)
	g.UpdateDensity([]density.CellRect{
		{ID: 1, Rect: geom.Rect{XMin: 0, YMin: 0, XMax: 5, YMax: 5}},
	})
	field := g.DensityField()
	require.Len(t, field, len(g.Bins))
	for i, b := range g.Bins {
		assert.Equal(t, b.Density, field[i])
	}
}
