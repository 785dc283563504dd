// Package routegrid implements the 3-D (x, y, layer) routing grid: a
// dense array of cells with obstacle/route state, the HV layer
// discipline (M1 horizontal, M2 vertical), and phys<->grid coordinate
// conversions.
//
// The neighbor-offset/InBounds shape generalizes the teacher's gridgraph
// package from a single 2-D plane with uniform connectivity to two
// stacked planes whose connectivity differs per layer, plus a same-(x,y)
// via link between them.
package routegrid

import (
	"errors"
	"fmt"
	"math"

	"github.com/minieda/minieda/geom"
)

// Sentinel errors.
var (
	ErrBadDims     = errors.New("routegrid: grid dimensions must be > 0")
	ErrBadPitch    = errors.New("routegrid: pitch must be > 0")
	ErrOutOfBounds = errors.New("routegrid: cell index out of range")
	ErrBadLayer    = errors.New("routegrid: layer must be 0 or 1")
)

// Layer identifies one of the two fixed metal layers (spec.md §3).
type Layer int

const (
	// LayerM1 runs horizontal (only +-x neighbors within a layer).
	LayerM1 Layer = 0
	// LayerM2 runs vertical (only +-y neighbors within a layer).
	LayerM2 Layer = 1
)

// State is a grid cell's occupancy state.
type State int

const (
	Free State = iota
	Obstacle
	Routed
	Via
	PinState
)

// Cell is one (x, y, layer) grid location's mutable state.
type Cell struct {
	State       State
	NetID       int // owning net id if Routed/Via/PinState; -1 otherwise
	HistoryCost float64
	PresentUse  int
}

// Grid is the 3-D routing grid: Nx * Ny * 2 cells.
type Grid struct {
	Core           geom.Rect
	Nx, Ny         int
	PitchX, PitchY float64
	cells          [2][]Cell // one slice per layer, row-major (y*Nx+x)
}

// Init builds a routing grid covering core at the given pitch.
func Init(core geom.Rect, pitchX, pitchY float64) (*Grid, error) {
	if pitchX <= 0 || pitchY <= 0 {
		return nil, ErrBadPitch
	}
	if core.Width() <= 0 || core.Height() <= 0 {
		return nil, ErrBadDims
	}
	nx := int(math.Ceil(core.Width() / pitchX))
	ny := int(math.Ceil(core.Height() / pitchY))
	if nx <= 0 || ny <= 0 {
		return nil, ErrBadDims
	}
	g := &Grid{Core: core, Nx: nx, Ny: ny, PitchX: pitchX, PitchY: pitchY}
	for l := 0; l < 2; l++ {
		g.cells[l] = make([]Cell, nx*ny)
		for i := range g.cells[l] {
			g.cells[l][i].NetID = -1
		}
	}
	return g, nil
}

func (g *Grid) index(x, y int) int { return y*g.Nx + x }

// InBounds reports whether (x,y,layer) is a valid grid location.
func (g *Grid) InBounds(x, y int, layer Layer) bool {
	return x >= 0 && x < g.Nx && y >= 0 && y < g.Ny && (layer == LayerM1 || layer == LayerM2)
}

// At returns a copy of the cell at (x,y,layer).
func (g *Grid) At(x, y int, layer Layer) (Cell, error) {
	if !g.InBounds(x, y, layer) {
		return Cell{}, fmt.Errorf("%w: (%d,%d,%d)", ErrOutOfBounds, x, y, layer)
	}
	return g.cells[layer][g.index(x, y)], nil
}

// Set writes the cell at (x,y,layer).
func (g *Grid) Set(x, y int, layer Layer, c Cell) error {
	if !g.InBounds(x, y, layer) {
		return fmt.Errorf("%w: (%d,%d,%d)", ErrOutOfBounds, x, y, layer)
	}
	g.cells[layer][g.index(x, y)] = c
	return nil
}

// PhysToGrid converts a physical point to a grid (x,y) index, clamped to
// bounds.
func (g *Grid) PhysToGrid(p geom.Point) (int, int) {
	x := int(math.Round((p.X - g.Core.XMin) / g.PitchX))
	y := int(math.Round((p.Y - g.Core.YMin) / g.PitchY))
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

// GridToPhys returns the physical centre of grid cell (x,y).
func (g *Grid) GridToPhys(x, y int) geom.Point {
	return geom.Point{
		X: g.Core.XMin + (float64(x)+0.5)*g.PitchX,
		Y: g.Core.YMin + (float64(y)+0.5)*g.PitchY,
	}
}

// AddObstacle marks every grid cell fully or partially covered by rect as
// Obstacle, on the given layer (or both layers if layer < 0).
func (g *Grid) AddObstacle(rect geom.Rect, layer int) {
	x0, y0 := g.PhysToGrid(geom.Point{X: rect.XMin, Y: rect.YMin})
	x1, y1 := g.PhysToGrid(geom.Point{X: rect.XMax, Y: rect.YMax})
	layers := []Layer{LayerM1, LayerM2}
	if layer == 0 || layer == 1 {
		layers = []Layer{Layer(layer)}
	}
	for _, l := range layers {
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				if !g.InBounds(x, y, l) {
					continue
				}
				c, _ := g.At(x, y, l)
				c.State = Obstacle
				g.Set(x, y, l, c)
			}
		}
	}
}

// Node is one addressable grid location across both layers: (x, y, layer).
type Node struct {
	X, Y  int
	Layer Layer
}

// Neighbors returns n's legal neighbors per the HV layer discipline
// (spec.md §4.7): M1 only moves in x, M2 only moves in y, plus a
// same-(x,y) via link to the other layer.
func (g *Grid) Neighbors(n Node) []Node {
	var out []Node
	switch n.Layer {
	case LayerM1:
		for _, dx := range [2]int{-1, 1} {
			nx := n.X + dx
			if g.InBounds(nx, n.Y, n.Layer) {
				out = append(out, Node{X: nx, Y: n.Y, Layer: n.Layer})
			}
		}
	case LayerM2:
		for _, dy := range [2]int{-1, 1} {
			ny := n.Y + dy
			if g.InBounds(n.X, ny, n.Layer) {
				out = append(out, Node{X: n.X, Y: ny, Layer: n.Layer})
			}
		}
	}
	other := LayerM1
	if n.Layer == LayerM1 {
		other = LayerM2
	}
	if g.InBounds(n.X, n.Y, other) {
		out = append(out, Node{X: n.X, Y: n.Y, Layer: other})
	}
	return out
}

// IsVia reports whether moving from a to b crosses layers.
func IsVia(a, b Node) bool { return a.Layer != b.Layer }

// Snapshot returns a deep copy of the grid's per-layer cell state, for the
// PathFinder outer loop to save and later restore its best-seen pass
// (spec.md §4.8: "track the best solution ... and restore it at the end").
func (g *Grid) Snapshot() [2][]Cell {
	var snap [2][]Cell
	for l := 0; l < 2; l++ {
		snap[l] = append([]Cell{}, g.cells[l]...)
	}
	return snap
}

// Restore overwrites the grid's cell state with a previously taken
// Snapshot.
func (g *Grid) Restore(snap [2][]Cell) {
	for l := 0; l < 2; l++ {
		copy(g.cells[l], snap[l])
	}
}

// ConnectedComponent returns the set of grid cells (across both layers)
// reachable from start that carry the given net id, following only
// Routed/Via/PinState cells owned by netID — used by the router
// connectivity property test (spec.md §8 property 5).
func (g *Grid) ConnectedComponent(start Node, netID int) map[Node]bool {
	visited := make(map[Node]bool)
	if c, err := g.At(start.X, start.Y, start.Layer); err != nil || c.NetID != netID {
		return visited
	}
	stack := []Node{start}
	visited[start] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, nb := range g.Neighbors(cur) {
			if visited[nb] {
				continue
			}
			c, err := g.At(nb.X, nb.Y, nb.Layer)
			if err != nil || c.NetID != netID {
				continue
			}
			if c.State != Routed && c.State != Via && c.State != PinState {
				continue
			}
			visited[nb] = true
			stack = append(stack, nb)
		}
	}
	return visited
}
