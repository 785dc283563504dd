// Package placerdb owns the physical placement state: per-cell position
// and dimensions, the core area, and the row/site grid derived from it.
// Exactly one owner mutates a PlacerDB at a time (spec.md §5); it carries
// no locking of its own, unlike the teacher's core.Graph, which is built
// for concurrent callers. That divergence is deliberate — see DESIGN.md.
package placerdb

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/minieda/minieda/geom"
	"github.com/minieda/minieda/netlist"
	"github.com/minieda/minieda/rngutil"
)

// Sentinel errors.
var (
	ErrNonPositiveDims = errors.New("placerdb: width and height must be > 0")
	ErrCellNotFound    = errors.New("placerdb: cell not registered")
	ErrAlreadyAdded    = errors.New("placerdb: cell already registered")
)

// CellInfo is the physical state of one cell: lower-left position,
// footprint, and whether it is fixed (I/O ports/pads) or movable.
type CellInfo struct {
	X, Y          float64
	Width, Height float64
	Fixed         bool
}

// PlacerDB maps cells to CellInfo and holds the core/row/site geometry.
type PlacerDB struct {
	design *netlist.Design
	info   map[geom.CellID]*CellInfo

	Core      geom.Rect
	RowHeight float64
	SiteWidth float64
}

// New returns a PlacerDB bound to design, with the given core rectangle
// and row/site quanta. Core.Height() must be an integral number of rows;
// callers size Core via SizeCoreForUtilization before calling New, or
// supply an already-correct rectangle directly.
func New(design *netlist.Design, core geom.Rect, rowHeight, siteWidth float64) *PlacerDB {
	return &PlacerDB{
		design:    design,
		info:      make(map[geom.CellID]*CellInfo),
		Core:      core,
		RowHeight: rowHeight,
		SiteWidth: siteWidth,
	}
}

// SizeCoreForUtilization returns a square-ish core rectangle, anchored at
// (0,0), sized so that total cell area / utilization equals its area and
// its height is an integral multiple of rowHeight (spec.md §3/§6).
func SizeCoreForUtilization(totalCellArea, utilization, rowHeight float64) geom.Rect {
	if utilization <= 0 {
		utilization = 1
	}
	coreArea := totalCellArea / utilization
	if coreArea <= 0 {
		return geom.Rect{}
	}
	side := math.Sqrt(coreArea)
	rows := math.Max(1, math.Ceil(side/rowHeight))
	height := rows * rowHeight
	width := coreArea / height
	return geom.Rect{XMin: 0, YMin: 0, XMax: width, YMax: height}
}

// AddCell registers id at the core's origin with the given footprint.
// Fails with ErrNonPositiveDims if width or height is <= 0, or
// ErrAlreadyAdded if id is already registered.
func (p *PlacerDB) AddCell(id geom.CellID, width, height float64, fixed bool) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: cell=%d w=%v h=%v", ErrNonPositiveDims, id, width, height)
	}
	if _, exists := p.info[id]; exists {
		return fmt.Errorf("%w: cell=%d", ErrAlreadyAdded, id)
	}
	p.info[id] = &CellInfo{X: p.Core.XMin, Y: p.Core.YMin, Width: width, Height: height, Fixed: fixed}
	return nil
}

// PlaceCell sets id's lower-left corner to (x,y).
func (p *PlacerDB) PlaceCell(id geom.CellID, x, y float64) error {
	info, ok := p.info[id]
	if !ok {
		return fmt.Errorf("%w: cell=%d", ErrCellNotFound, id)
	}
	info.X, info.Y = x, y
	return nil
}

// Info returns the CellInfo for id.
func (p *PlacerDB) Info(id geom.CellID) (CellInfo, error) {
	info, ok := p.info[id]
	if !ok {
		return CellInfo{}, fmt.Errorf("%w: cell=%d", ErrCellNotFound, id)
	}
	return *info, nil
}

// GetCellCenter returns (x + w/2, y + h/2) for id.
func (p *PlacerDB) GetCellCenter(id geom.CellID) (geom.Point, error) {
	info, err := p.Info(id)
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Point{X: info.X + info.Width/2, Y: info.Y + info.Height/2}, nil
}

// MovableCellIDs returns every registered cell ID that is not Fixed, in
// ascending ID order (deterministic iteration over the info map).
func (p *PlacerDB) MovableCellIDs() []geom.CellID {
	ids := make([]geom.CellID, 0, len(p.info))
	for id, info := range p.info {
		if !info.Fixed {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PlacePortsOnPerimeter places every id in ids (assumed Fixed, i.e. I/O
// ports/pads) evenly spaced around the core's boundary, walking clockwise
// from the bottom-left corner in the given order — spec.md §9's open
// question on I/O port placement, resolved to a trivial boundary ring
// rather than a placement-optimized position.
func (p *PlacerDB) PlacePortsOnPerimeter(ids []geom.CellID) {
	n := len(ids)
	if n == 0 {
		return
	}
	perimeter := 2 * (p.Core.Width() + p.Core.Height())
	if perimeter <= 0 {
		return
	}
	step := perimeter / float64(n)
	for i, id := range ids {
		x, y := pointOnPerimeter(p.Core, step*float64(i), p.info[id])
		p.PlaceCell(id, x, y)
	}
}

// pointOnPerimeter walks distance d clockwise along r's boundary starting
// at the bottom-left corner, returning the lower-left corner a cell of
// info's footprint should occupy so its body stays on the boundary.
func pointOnPerimeter(r geom.Rect, d float64, info *CellInfo) (x, y float64) {
	w, h := r.Width(), r.Height()
	switch {
	case d < w: // bottom edge, left to right
		return r.XMin + d, r.YMin
	case d < w+h: // right edge, bottom to top
		return r.XMax - info.Width, r.YMin + (d - w)
	case d < 2*w+h: // top edge, right to left
		return r.XMax - (d - w - h) - info.Width, r.YMax - info.Height
	default: // left edge, top to bottom
		return r.XMin, r.YMax - (d - 2*w - h) - info.Height
	}
}

// AllCellIDs returns every registered cell ID in ascending order.
func (p *PlacerDB) AllCellIDs() []geom.CellID {
	ids := make([]geom.CellID, 0, len(p.info))
	for id := range p.info {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CommitPlacement has no separate netlist-side position field to push to
// in this arena design (Cell carries no X/Y of its own — PlacerDB.info is
// the single source of truth), so it is a deliberate no-op retained for
// interface parity with spec.md §4.1's commit_placement contract: calling
// it twice in a row is trivially idempotent (testable property #3).
func (p *PlacerDB) CommitPlacement() {}

// NumRows returns the number of rows the core area contains.
func (p *PlacerDB) NumRows() int {
	if p.RowHeight <= 0 {
		return 0
	}
	return int(math.Round(p.Core.Height() / p.RowHeight))
}

// RowY returns the y-coordinate of row k (0-based from Core.YMin).
func (p *PlacerDB) RowY(k geom.RowID) float64 {
	return p.Core.YMin + float64(k)*p.RowHeight
}

// RowOf quantizes a y-coordinate to the nearest row index, clamped to
// [0, NumRows()-1].
func (p *PlacerDB) RowOf(y float64) geom.RowID {
	k := int(math.Round((y - p.Core.YMin) / p.RowHeight))
	if k < 0 {
		k = 0
	}
	if max := p.NumRows() - 1; k > max {
		k = max
	}
	return geom.RowID(k)
}

// RoundToSite rounds x to the nearest multiple of SiteWidth measured from
// Core.XMin.
func (p *PlacerDB) RoundToSite(x float64) float64 {
	if p.SiteWidth <= 0 {
		return x
	}
	n := math.Round((x - p.Core.XMin) / p.SiteWidth)
	return p.Core.XMin + n*p.SiteWidth
}

// CellsByRow groups movable cells by their current row (quantized by
// (y - core.YMin)/RowHeight) with each row's cells sorted by X ascending,
// per spec.md §4.1's ordering helper.
func (p *PlacerDB) CellsByRow() map[geom.RowID][]geom.CellID {
	rows := make(map[geom.RowID][]geom.CellID)
	for _, id := range p.MovableCellIDs() {
		info := p.info[id]
		row := p.RowOf(info.Y)
		rows[row] = append(rows[row], id)
	}
	for row := range rows {
		ids := rows[row]
		sort.Slice(ids, func(i, j int) bool {
			return p.info[ids[i]].X < p.info[ids[j]].X
		})
		rows[row] = ids
	}
	return rows
}

// InitializeRandom places every movable cell uniformly at random within
// the core, leaving enough room for its own footprint. Deterministic
// given rng (use rngutil.FromSeed(seed)).
func (p *PlacerDB) InitializeRandom(rng rngRand) {
	for _, id := range p.MovableCellIDs() {
		info := p.info[id]
		maxX := p.Core.XMax - info.Width
		maxY := p.Core.YMax - info.Height
		if maxX < p.Core.XMin {
			maxX = p.Core.XMin
		}
		if maxY < p.Core.YMin {
			maxY = p.Core.YMin
		}
		info.X = p.Core.XMin + rng.Float64()*(maxX-p.Core.XMin)
		info.Y = p.Core.YMin + rng.Float64()*(maxY-p.Core.YMin)
	}
}

// rngRand is the minimal surface InitializeRandom needs from *rand.Rand,
// kept as an interface so callers must thread rngutil-sourced RNGs
// through explicitly rather than reaching for math/rand's global source.
type rngRand interface {
	Float64() float64
}

// NewDeterministicRNG is a convenience wrapper so callers of
// InitializeRandom don't need to import rngutil directly.
func NewDeterministicRNG(seed int64) rngRand { return rngutil.FromSeed(seed) }
