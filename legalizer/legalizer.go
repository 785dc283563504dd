// Package legalizer turns an overlapping placement into a legal one:
// row-aligned, non-overlapping, site-snapped, with minimum displacement.
// It implements the Abacus cluster-merge algorithm (spec.md §4.5) and a
// simpler greedy "tetris" alternate used for debugging.
//
// Abacus's left-to-right cluster-merge sweep follows the same
// grow-and-merge shape as the teacher's prim_kruskal.Prim MST growth
// (maintain a running aggregate, merge neighbors while a local condition
// holds) adapted from a heap-driven graph growth to a sorted-sweep
// interval merge.
package legalizer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/minieda/minieda/geom"
	"github.com/minieda/minieda/placerdb"
)

// Sentinel errors.
var (
	ErrRowOverflow   = errors.New("legalizer: rows saturated, cannot legalize all cells")
	ErrNoRows        = errors.New("legalizer: core area has zero rows")
)

// cluster aggregates consecutive cells in Abacus's row sweep.
type cluster struct {
	cells []geom.CellID
	xC    float64 // current start position
	wC    float64 // total width
	eC    float64 // total weight
	qC    float64 // sum of weighted ideal starts
}

func (c *cluster) recompute(rowXMin, rowXMax float64) {
	if c.eC == 0 {
		c.xC = rowXMin
		return
	}
	x := c.qC / c.eC
	if x > rowXMax-c.wC {
		x = rowXMax - c.wC
	}
	if x < rowXMin {
		x = rowXMin
	}
	c.xC = x
}

// Abacus legalizes every movable cell in pdb in place, following spec.md
// §4.5's three phases: row projection, per-row cluster-merge, site snap.
// Returns ErrRowOverflow if, after attempting overflow to subsequent
// rows, some row remains over capacity.
func Abacus(pdb *placerdb.PlacerDB) error {
	numRows := pdb.NumRows()
	if numRows <= 0 {
		return ErrNoRows
	}

	// Phase 1: project each movable cell onto its nearest row.
	rowOf := make(map[geom.CellID]geom.RowID)
	for _, id := range pdb.MovableCellIDs() {
		info, _ := pdb.Info(id)
		rowOf[id] = pdb.RowOf(info.Y)
	}

	rows := make(map[geom.RowID][]geom.CellID)
	for id, row := range rowOf {
		rows[row] = append(rows[row], id)
	}

	// Phase 2: legalize each row independently, overflowing excess cells
	// to the next row when a row cannot hold its assigned cells.
	for r := 0; r < numRows; r++ {
		row := geom.RowID(r)
		cells := rows[row]
		if len(cells) == 0 {
			continue
		}
		sort.Slice(cells, func(i, j int) bool {
			xi, _ := pdb.Info(cells[i])
			xj, _ := pdb.Info(cells[j])
			return xi.X < xj.X
		})

		rowXMin, rowXMax := pdb.Core.XMin, pdb.Core.XMax
		legalized, overflow := legalizeRow(pdb, cells, rowXMin, rowXMax)
		for id, x := range legalized {
			pdb.PlaceCell(id, x, pdb.RowY(row))
		}
		if len(overflow) > 0 {
			if int(row)+1 >= numRows {
				return fmt.Errorf("%w: row %d has %d cell(s) left over", ErrRowOverflow, row, len(overflow))
			}
			next := row + 1
			rows[next] = append(rows[next], overflow...)
		}
	}

	// Phase 3: site snap, never back into the previous cell.
	for r := 0; r < numRows; r++ {
		row := geom.RowID(r)
		cells := pdb.CellsByRow()[row]
		prevRight := pdb.Core.XMin
		for _, id := range cells {
			info, _ := pdb.Info(id)
			snapped := pdb.RoundToSite(info.X)
			if snapped < prevRight {
				snapped = prevRight
			}
			pdb.PlaceCell(id, snapped, info.Y)
			prevRight = snapped + info.Width
		}
	}

	return nil
}

// legalizeRow runs Abacus phase 2 on one row's cells (already sorted by
// ideal x). Returns the legal x for every cell that fits and the list of
// cells that overflowed the row's right boundary.
func legalizeRow(pdb *placerdb.PlacerDB, cells []geom.CellID, rowXMin, rowXMax float64) (map[geom.CellID]float64, []geom.CellID) {
	var clusters []*cluster

	for _, id := range cells {
		info, _ := pdb.Info(id)
		idealX := info.X
		c := &cluster{cells: []geom.CellID{id}, xC: idealX, wC: info.Width, eC: 1, qC: idealX}
		clusters = append(clusters, c)

		for len(clusters) >= 2 {
			last := clusters[len(clusters)-1]
			prev := clusters[len(clusters)-2]
			overlap := prev.xC+prev.wC > last.xC
			wouldExceed := last.xC+last.wC > rowXMax
			if !overlap && !wouldExceed {
				break
			}
			merged := &cluster{
				cells: append(append([]geom.CellID{}, prev.cells...), last.cells...),
				wC:    prev.wC + last.wC,
				eC:    prev.eC + last.eC,
				qC:    prev.qC + (last.qC - last.eC*prev.wC),
			}
			merged.recompute(rowXMin, rowXMax)
			clusters = clusters[:len(clusters)-2]
			clusters = append(clusters, merged)
		}
	}

	result := make(map[geom.CellID]float64)
	var overflowCells []geom.CellID
	for _, c := range clusters {
		x := c.xC
		for _, id := range c.cells {
			info, _ := pdb.Info(id)
			if x+info.Width > rowXMax+1e-9 {
				overflowCells = append(overflowCells, id)
				continue
			}
			result[id] = x
			x += info.Width
		}
	}
	return result, overflowCells
}

// Greedy packs every movable cell left-to-right, row by row ("tetris"),
// sorted by (y, x). Simple, higher displacement, no cross-row ordering
// guarantee; used for debugging per spec.md §4.5.
func Greedy(pdb *placerdb.PlacerDB) error {
	numRows := pdb.NumRows()
	if numRows <= 0 {
		return ErrNoRows
	}
	ids := pdb.MovableCellIDs()
	sort.Slice(ids, func(i, j int) bool {
		a, _ := pdb.Info(ids[i])
		b, _ := pdb.Info(ids[j])
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	row := 0
	x := pdb.Core.XMin
	for _, id := range ids {
		info, _ := pdb.Info(id)
		for row < numRows && x+info.Width > pdb.Core.XMax+1e-9 {
			row++
			x = pdb.Core.XMin
		}
		if row >= numRows {
			return fmt.Errorf("%w: ran out of rows while packing cell %d", ErrRowOverflow, id)
		}
		snapped := pdb.RoundToSite(x)
		pdb.PlaceCell(id, snapped, pdb.RowY(geom.RowID(row)))
		x = snapped + info.Width
	}
	return nil
}
