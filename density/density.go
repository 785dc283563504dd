// Package density implements the electrostatic placer's bin grid: a
// uniform array of bins over the core area, each tracking the overlap
// area contributed by every cell that intersects it.
//
// The grid/neighbor-offset shape follows the teacher's gridgraph package
// (InBounds, precomputed row/col indexing) generalized from a discrete
// land/water raster to a continuous-overlap density raster.
package density

import (
	"errors"
	"fmt"

	"github.com/minieda/minieda/geom"
)

// Sentinel errors.
var (
	ErrBadDims      = errors.New("density: Nx and Ny must be > 0")
	ErrEmptyCore    = errors.New("density: core has non-positive width or height")
	ErrOutOfBounds  = errors.New("density: bin index out of range")
)

// Bin is one density-grid cell.
type Bin struct {
	Center            geom.Point
	Density           float64
	Potential         float64
	ForceX, ForceY    float64
}

// Grid is a uniform Nx x Ny array of Bins covering a core rectangle.
type Grid struct {
	Core       geom.Rect
	Nx, Ny     int
	BinW, BinH float64
	Bins       []Bin // row-major, index = y*Nx + x
}

// Init builds a uniform Nx x Ny bin array covering core.
func Init(core geom.Rect, nx, ny int) (*Grid, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("%w: got (%d,%d)", ErrBadDims, nx, ny)
	}
	if core.Width() <= 0 || core.Height() <= 0 {
		return nil, ErrEmptyCore
	}
	g := &Grid{
		Core: core,
		Nx:   nx,
		Ny:   ny,
		BinW: core.Width() / float64(nx),
		BinH: core.Height() / float64(ny),
		Bins: make([]Bin, nx*ny),
	}
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			g.Bins[g.index(x, y)].Center = geom.Point{
				X: core.XMin + (float64(x)+0.5)*g.BinW,
				Y: core.YMin + (float64(y)+0.5)*g.BinH,
			}
		}
	}
	return g, nil
}

// InBounds reports whether (x,y) is a valid bin index.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Nx && y >= 0 && y < g.Ny
}

func (g *Grid) index(x, y int) int { return y*g.Nx + x }

// At returns the bin at (x,y).
func (g *Grid) At(x, y int) (Bin, error) {
	if !g.InBounds(x, y) {
		return Bin{}, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, x, y)
	}
	return g.Bins[g.index(x, y)], nil
}

// BinRect returns the rectangle covered by bin (x,y).
func (g *Grid) BinRect(x, y int) geom.Rect {
	x0 := g.Core.XMin + float64(x)*g.BinW
	y0 := g.Core.YMin + float64(y)*g.BinH
	return geom.Rect{XMin: x0, YMin: y0, XMax: x0 + g.BinW, YMax: y0 + g.BinH}
}

// BinOf returns the bin index containing point p, clamped to grid bounds.
func (g *Grid) BinOf(p geom.Point) (int, int) {
	x := int((p.X - g.Core.XMin) / g.BinW)
	y := int((p.Y - g.Core.YMin) / g.BinH)
	if x < 0 {
		x = 0
	}
	if x >= g.Nx {
		x = g.Nx - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= g.Ny {
		y = g.Ny - 1
	}
	return x, y
}

// CellRect describes one cell's footprint for UpdateDensity.
type CellRect struct {
	ID   geom.CellID
	Rect geom.Rect
}

// UpdateDensity zeroes every bin's density, then for each cell
// accumulates clipped-overlap-area / bin-area into every bin it
// intersects. Complexity: O(cells x average covered bins).
func (g *Grid) UpdateDensity(cells []CellRect) {
	for i := range g.Bins {
		g.Bins[i].Density = 0
	}
	binArea := g.BinW * g.BinH
	if binArea <= 0 {
		return
	}
	for _, c := range cells {
		x0 := int((c.Rect.XMin - g.Core.XMin) / g.BinW)
		x1 := int((c.Rect.XMax - g.Core.XMin) / g.BinW)
		y0 := int((c.Rect.YMin - g.Core.YMin) / g.BinH)
		y1 := int((c.Rect.YMax - g.Core.YMin) / g.BinH)
		x0, x1 = clampRange(x0-0, x1+0, g.Nx)
		y0, y1 = clampRange(y0-0, y1+0, g.Ny)
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				overlap := c.Rect.Intersect(g.BinRect(x, y))
				area := overlap.Area()
				if area <= 0 {
					continue
				}
				g.Bins[g.index(x, y)].Density += area / binArea
			}
		}
	}
}

func clampRange(lo, hi, n int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Overflow returns sum(max(0, density - target) * bin_area) over all bins.
func (g *Grid) Overflow(target float64) float64 {
	binArea := g.BinW * g.BinH
	var total float64
	for _, b := range g.Bins {
		if d := b.Density - target; d > 0 {
			total += d * binArea
		}
	}
	return total
}

// MaxDensity returns the maximum bin density in the grid.
func (g *Grid) MaxDensity() float64 {
	max := 0.0
	for _, b := range g.Bins {
		if b.Density > max {
			max = b.Density
		}
	}
	return max
}

// DensityField returns the density values as a row-major W*H slice, the
// layout the fft package's Poisson solver consumes directly.
func (g *Grid) DensityField() []float64 {
	out := make([]float64, len(g.Bins))
	for i, b := range g.Bins {
		out[i] = b.Density
	}
	return out
}

// SetPotentialAndForce writes solved potential/force fields back into the
// bins (row-major W*H slices, as produced by fft.Solve).
func (g *Grid) SetPotentialAndForce(potential, forceX, forceY []float64) error {
	if len(potential) != len(g.Bins) || len(forceX) != len(g.Bins) || len(forceY) != len(g.Bins) {
		return fmt.Errorf("density: field length mismatch with grid size %d", len(g.Bins))
	}
	for i := range g.Bins {
		g.Bins[i].Potential = potential[i]
		g.Bins[i].ForceX = forceX[i]
		g.Bins[i].ForceY = forceY[i]
	}
	return nil
}
