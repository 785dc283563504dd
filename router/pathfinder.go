// pathfinder.go implements the iterative rip-up-and-reroute outer loop:
// route every net, count cells claimed by more than one net, raise
// history cost and collision penalty where conflicts occurred, reshuffle
// net order, and retry — tracking and finally restoring the best
// solution seen, per spec.md §4.8.
//
// The seeded reshuffle-and-retry shape follows the teacher's
// tsp/rng.go-backed local search: a deterministic RNG stream derived per
// pass (rngutil.Derive) stands in for the spec's "time-seeded RNG",
// keeping two runs of the same seed byte-identical (spec.md §5).
package router

import (
	"math/rand"
	"sort"

	"github.com/minieda/minieda/geom"
	"github.com/minieda/minieda/hpwl"
	"github.com/minieda/minieda/netlist"
	"github.com/minieda/minieda/placerdb"
	"github.com/minieda/minieda/rngutil"
	"github.com/minieda/minieda/routegrid"
)

const (
	maxOuterIterations   = 30
	stagnationLimit      = 7
	divergenceMargin     = 10
	initialHistoryIncr   = 1.0
	historyIncrStep      = 0.25
	historyIncrCap       = 20.0
	initialCollisionPen  = 50.0
	collisionPenGrowth   = 1.5
	collisionPenCap      = 100000.0
)

// Progress is emitted synchronously once per PathFinder pass (spec.md §5).
type Progress struct {
	Iteration int
	Conflicts int
	Best      int
}

// NetResult is one net's outcome for the final routing report.
type NetResult struct {
	NetID     geom.NetID
	Routed    bool
	Path      [][]routegrid.Node // one sub-slice per MST segment
}

// Result is the outcome of a full PathFinder run.
type Result struct {
	Nets          []NetResult
	ConflictCells int
	Iterations    int
}

// Route routes every routable net of design over grid, using pdb for pin
// positions, following spec.md §4.8's PathFinder outer loop. progress, if
// non-nil, is invoked once per outer pass.
func Route(design *netlist.Design, pdb *placerdb.PlacerDB, grid *routegrid.Grid, p CostParams, seed int64, progress func(Progress)) Result {
	netIDs := design.RoutableNetIDs()
	order := initialOrder(design, pdb, netIDs)

	baseRNG := rngutil.FromSeed(seed)
	historyIncr := initialHistoryIncr
	collisionPen := initialCollisionPen
	p.CollisionPenalty = collisionPen

	var best Result
	var bestGridSnapshot [2][]routegrid.Cell
	bestConflicts := int(^uint(0) >> 1) // max int
	stagnation := 0

	for iter := 0; iter < maxOuterIterations; iter++ {
		clearRoutedKeepHistory(grid)
		result := routeAllNets(design, pdb, grid, order, netIDs, p)
		conflicts := countConflicts(grid)

		if progress != nil {
			progress(Progress{Iteration: iter, Conflicts: conflicts, Best: bestConflicts})
		}

		if conflicts < bestConflicts {
			bestConflicts = conflicts
			best = result
			best.ConflictCells = conflicts
			best.Iterations = iter + 1
			bestGridSnapshot = grid.Snapshot()
			stagnation = 0
		} else {
			stagnation++
		}

		if conflicts == 0 {
			break
		}
		if stagnation >= stagnationLimit {
			break
		}
		if conflicts > bestConflicts+divergenceMargin {
			break
		}

		raiseHistoryOnConflicts(grid, historyIncr)
		historyIncr = min(historyIncr+historyIncrStep, historyIncrCap)
		collisionPen = min(collisionPen*collisionPenGrowth, collisionPenCap)
		p.CollisionPenalty = collisionPen

		passRNG := rngutil.Derive(baseRNG, uint64(iter))
		order = reshuffle(order, passRNG)
	}

	if bestGridSnapshot[0] != nil {
		grid.Restore(bestGridSnapshot)
	}
	return best
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// initialOrder sorts routable nets by ascending HPWL (spec.md §4.8).
func initialOrder(design *netlist.Design, pdb *placerdb.PlacerDB, netIDs []geom.NetID) []geom.NetID {
	order := append([]geom.NetID{}, netIDs...)
	weight := make(map[geom.NetID]float64, len(order))
	for _, id := range order {
		weight[id] = netHPWL(design, pdb, id)
	}
	sort.Slice(order, func(i, j int) bool { return weight[order[i]] < weight[order[j]] })
	return order
}

func netHPWL(design *netlist.Design, pdb *placerdb.PlacerDB, netID geom.NetID) float64 {
	pins, err := design.NetPins(netID)
	if err != nil {
		return 0
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
	return hpwl.Of(pts)
}

func reshuffle(order []geom.NetID, rng *rand.Rand) []geom.NetID {
	idx := make([]int, len(order))
	for i := range idx {
		idx[i] = i
	}
	rngutil.ShuffleInts(idx, rng)
	out := make([]geom.NetID, len(order))
	for i, j := range idx {
		out[i] = order[j]
	}
	return out
}

// routeAllNets routes every net in order over grid, marking cells Routed
// (or Via) with the net's id; collisions across nets are permitted within
// one pass and resolved by the outer loop.
func routeAllNets(design *netlist.Design, pdb *placerdb.PlacerDB, grid *routegrid.Grid, order, allNets []geom.NetID, p CostParams) Result {
	results := make(map[geom.NetID]NetResult, len(allNets))
	for _, id := range allNets {
		results[id] = NetResult{NetID: id, Routed: false}
	}

	for _, netID := range order {
		pins, err := design.NetPins(netID)
		if err != nil || len(pins) == 0 {
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
		if len(pts) < 2 {
			results[netID] = NetResult{NetID: netID, Routed: true}
			continue
		}
		segments := ManhattanMST(pts)
		allOK := true
		var allPaths [][]routegrid.Node
		for _, seg := range segments {
			startX, startY := grid.PhysToGrid(seg.From)
			goalX, goalY := grid.PhysToGrid(seg.To)
			start := routegrid.Node{X: startX, Y: startY, Layer: routegrid.LayerM1}
			goal := routegrid.Node{X: goalX, Y: goalY, Layer: routegrid.LayerM1}
			path, _, err := AStar(grid, start, goal, int(netID), p)
			if err != nil {
				allOK = false
				continue
			}
			markPath(grid, path, int(netID))
			allPaths = append(allPaths, path)
		}
		results[netID] = NetResult{NetID: netID, Routed: allOK, Path: allPaths}
	}

	out := Result{Nets: make([]NetResult, 0, len(allNets))}
	for _, id := range allNets {
		out.Nets = append(out.Nets, results[id])
	}
	return out
}

func markPath(grid *routegrid.Grid, path []routegrid.Node, netID int) {
	for i, n := range path {
		cell, err := grid.At(n.X, n.Y, n.Layer)
		if err != nil {
			continue
		}
		if i > 0 && routegrid.IsVia(path[i-1], n) {
			cell.State = routegrid.Via
		} else if cell.State != routegrid.Obstacle {
			cell.State = routegrid.Routed
		}
		cell.NetID = netID
		cell.PresentUse++
		grid.Set(n.X, n.Y, n.Layer, cell)
	}
}

// clearRoutedKeepHistory resets Routed/Via/PinState cells to Free and
// clears PresentUse/NetID, but preserves HistoryCost across passes
// (spec.md §4.8/§9: "PathFinder history is persistent across iterations
// inside a single routing call but is reset between calls").
func clearRoutedKeepHistory(grid *routegrid.Grid) {
	for y := 0; y < grid.Ny; y++ {
		for x := 0; x < grid.Nx; x++ {
			for _, l := range []routegrid.Layer{routegrid.LayerM1, routegrid.LayerM2} {
				cell, err := grid.At(x, y, l)
				if err != nil || cell.State == routegrid.Obstacle {
					continue
				}
				cell.State = routegrid.Free
				cell.NetID = -1
				cell.PresentUse = 0
				grid.Set(x, y, l, cell)
			}
		}
	}
}

func countConflicts(grid *routegrid.Grid) int {
	count := 0
	for y := 0; y < grid.Ny; y++ {
		for x := 0; x < grid.Nx; x++ {
			for _, l := range []routegrid.Layer{routegrid.LayerM1, routegrid.LayerM2} {
				cell, err := grid.At(x, y, l)
				if err != nil {
					continue
				}
				if cell.PresentUse > 1 {
					count++
				}
			}
		}
	}
	return count
}

func raiseHistoryOnConflicts(grid *routegrid.Grid, increment float64) {
	for y := 0; y < grid.Ny; y++ {
		for x := 0; x < grid.Nx; x++ {
			for _, l := range []routegrid.Layer{routegrid.LayerM1, routegrid.LayerM2} {
				cell, err := grid.At(x, y, l)
				if err != nil {
					continue
				}
				if cell.PresentUse > 1 {
					cell.HistoryCost += increment
					grid.Set(x, y, l, cell)
				}
			}
		}
	}
}
