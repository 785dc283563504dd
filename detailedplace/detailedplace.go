// Package detailedplace implements the sliding-window detailed placer:
// for each row, enumerate contiguous 3-cell windows and try every
// width-preserving permutation, keeping whichever has the lowest HPWL.
//
// The bounded-permutation local search (enumerate all k! orderings of a
// small window, evaluate a cost, keep the best) follows the same shape
// as the teacher's tsp/three_opt.go, which enumerates small segment
// reorderings of a tour rather than attempting every permutation of the
// whole instance.
package detailedplace

import (
	"github.com/minieda/minieda/geom"
	"github.com/minieda/minieda/hpwl"
	"github.com/minieda/minieda/netlist"
	"github.com/minieda/minieda/placerdb"
)

// windowSize is the fixed number of cells considered together, per
// spec.md §4.6.
const windowSize = 3

// gapTolerance is the maximum gap between two cells' abutting edges for
// them to be considered contiguous (spec.md §4.6).
const gapTolerance = 1e-4

// rightEdgeSlack guards the repacked window's final right edge against
// floating-point overshoot past the window's original right edge.
const rightEdgeSlack = 1e-9

// permutations of {0,1,2}, the six orderings of a 3-cell window.
var permutations = [][3]int{
	{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
}

// Run performs iterations passes of the sliding-window optimization over
// every row of pdb, mutating pdb's movable cell positions in place, and
// returns the final total HPWL over design's nets.
func Run(design *netlist.Design, pdb *placerdb.PlacerDB, iterations int) float64 {
	if iterations <= 0 {
		iterations = 3
	}
	for pass := 0; pass < iterations; pass++ {
		improvePass(design, pdb)
	}
	return totalHPWL(design, pdb)
}

func improvePass(design *netlist.Design, pdb *placerdb.PlacerDB) {
	for _, row := range pdb.CellsByRow() {
		if len(row) < windowSize {
			continue
		}
		for start := 0; start+windowSize <= len(row); start++ {
			window := row[start : start+windowSize]
			if !contiguous(pdb, window) {
				continue
			}
			tryImproveWindow(design, pdb, window)
		}
	}
}

// contiguous reports whether consecutive cells in window abut within
// gapTolerance (no gap between them).
func contiguous(pdb *placerdb.PlacerDB, window []geom.CellID) bool {
	for i := 0; i+1 < len(window); i++ {
		a, _ := pdb.Info(window[i])
		b, _ := pdb.Info(window[i+1])
		gap := b.X - (a.X + a.Width)
		if gap < -gapTolerance || gap > gapTolerance {
			return false
		}
	}
	return true
}

// tryImproveWindow evaluates all 6 permutations of window, keeping
// whichever yields the lowest HPWL over the nets touching any window
// cell; restores the original arrangement if none improves.
func tryImproveWindow(design *netlist.Design, pdb *placerdb.PlacerDB, window []geom.CellID) {
	type original struct {
		x, y, w, h float64
	}
	origs := make([]original, len(window))
	widths := make([]float64, len(window))
	y := 0.0
	for i, id := range window {
		info, _ := pdb.Info(id)
		origs[i] = original{x: info.X, y: info.Y, w: info.Width, h: info.Height}
		widths[i] = info.Width
		y = info.Y
	}
	x0 := origs[0].x
	totalWidth := 0.0
	for _, w := range widths {
		totalWidth += w
	}
	rightEdge := x0 + totalWidth

	touchedNets := netsTouching(design, window)
	bestHPWL := windowHPWL(design, pdb, touchedNets)
	bestPerm := -1
	bestPositions := make([]float64, len(window))

	for permIdx, perm := range permutations {
		positions := make([]float64, len(window))
		cursor := pdb.RoundToSite(x0)
		ok := true
		for slot, srcIdx := range perm {
			positions[slot] = cursor
			cursor += widths[srcIdx]
			_ = slot
		}
		if pdb.RoundToSite(cursor) > rightEdge+rightEdgeSlack {
			ok = false
		}
		if !ok {
			continue
		}
		// Apply permutation: position perm[slot] is where window[srcIdx] goes.
		for slot, srcIdx := range perm {
			id := window[srcIdx]
			pdb.PlaceCell(id, positions[slot], y)
		}
		h := windowHPWL(design, pdb, touchedNets)
		if h < bestHPWL-1e-12 {
			bestHPWL = h
			bestPerm = permIdx
			copy(bestPositions, positions)
		}
		// Restore originals before trying the next permutation.
		for i, id := range window {
			pdb.PlaceCell(id, origs[i].x, origs[i].y)
		}
	}

	if bestPerm >= 0 {
		perm := permutations[bestPerm]
		for slot, srcIdx := range perm {
			id := window[srcIdx]
			pdb.PlaceCell(id, bestPositions[slot], y)
		}
	}
}

func netsTouching(design *netlist.Design, window []geom.CellID) []geom.NetID {
	seen := make(map[geom.NetID]bool)
	var nets []geom.NetID
	for _, id := range window {
		cell, err := design.Cell(id)
		if err != nil {
			continue
		}
		for _, pinID := range cell.Pins {
			pin, err := design.Pin(pinID)
			if err != nil || pin.Net == geom.InvalidID || seen[pin.Net] {
				continue
			}
			seen[pin.Net] = true
			nets = append(nets, pin.Net)
		}
	}
	return nets
}

func windowHPWL(design *netlist.Design, pdb *placerdb.PlacerDB, nets []geom.NetID) float64 {
	var total float64
	for _, netID := range nets {
		pins, err := design.NetPins(netID)
		if err != nil || len(pins) < 2 {
			continue
		}
		pts := make([]geom.Point, 0, len(pins))
		for _, pinID := range pins {
			pin, err := design.Pin(pinID)
			if err != nil {
				continue
			}
			center, err := pdb.GetCellCenter(pin.Cell)
			if err != nil {
				continue
			}
			pts = append(pts, center)
		}
		total += hpwl.Of(pts)
	}
	return total
}

func totalHPWL(design *netlist.Design, pdb *placerdb.PlacerDB) float64 {
	return windowHPWL(design, pdb, design.NetIDs())
}
