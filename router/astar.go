// astar.go implements A* search for one 2-pin segment over a
// routegrid.Grid, grounded on the teacher's dijkstra.go: a lazy
// decrease-key min-heap (push duplicates, ignore stale pops), an
// impassable-edge sentinel (InfEdgeThreshold there, math.Inf(1)
// present-penalty here), and functional governance knobs.
package router

import (
	"container/heap"
	"errors"
	"math"

	"github.com/minieda/minieda/routegrid"
)

// Sentinel errors.
var (
	ErrNoPath       = errors.New("router: no path found between segment endpoints")
	ErrNilGrid      = errors.New("router: grid is nil")
)

// CostParams bundles the A* cost-model weights from spec.md §4.8.
type CostParams struct {
	WireCostPerUnit   float64
	ViaCost           float64
	CollisionPenalty  float64
	LayerPenalty      float64
}

// astarEntry is one priority-queue entry: lazy decrease-key, stale
// entries are skipped on pop by comparing against bestG.
type astarEntry struct {
	node routegrid.Node
	g, f float64
}

type astarHeap []astarEntry

func (h astarHeap) Len() int { return len(h) }
func (h astarHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].g < h[j].g // tie-break: prefer lower g when h ties
}
func (h astarHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *astarHeap) Push(x interface{}) { *h = append(*h, x.(astarEntry)) }
func (h *astarHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// stepCost returns the cost of moving onto `to`, per spec.md §4.8: wire
// cost plus layer penalty plus history plus present-penalty*collision,
// or math.Inf for obstacles/self-net cells already claimed in this pass.
func stepCost(grid *routegrid.Grid, to routegrid.Node, netID int, p CostParams) float64 {
	cell, err := grid.At(to.X, to.Y, to.Layer)
	if err != nil {
		return math.Inf(1)
	}
	var presentPenalty float64
	switch cell.State {
	case routegrid.Obstacle:
		return math.Inf(1)
	case routegrid.Routed, routegrid.PinState, routegrid.Via:
		if cell.NetID == netID {
			return math.Inf(1) // already chosen by this same segment's own path
		}
		presentPenalty = 1
	default:
		presentPenalty = 0
	}
	pitch := p.WireCostPerUnit
	return pitch + p.LayerPenalty + cell.HistoryCost + presentPenalty*p.CollisionPenalty
}

// heuristic estimates remaining cost to goal: Manhattan distance in grid
// units times wire cost, plus one via penalty if start/goal sit on
// differently-preferred layers.
func heuristic(from, goal routegrid.Node, p CostParams) float64 {
	dx := math.Abs(float64(from.X - goal.X))
	dy := math.Abs(float64(from.Y - goal.Y))
	h := (dx + dy) * p.WireCostPerUnit
	if from.Layer != goal.Layer {
		h += p.ViaCost
	}
	return h
}

// AStar searches grid for the lowest-cost path from start to goal for
// net netID, honoring the HV layer discipline via grid.Neighbors.
// Returns ErrNoPath if goal is unreachable.
func AStar(grid *routegrid.Grid, start, goal routegrid.Node, netID int, p CostParams) ([]routegrid.Node, float64, error) {
	if grid == nil {
		return nil, 0, ErrNilGrid
	}
	bestG := map[routegrid.Node]float64{start: 0}
	cameFrom := map[routegrid.Node]routegrid.Node{}

	pq := &astarHeap{{node: start, g: 0, f: heuristic(start, goal, p)}}
	heap.Init(pq)
	closed := map[routegrid.Node]bool{}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(astarEntry)
		if cur.g > bestG[cur.node]+1e-12 {
			continue // stale lazy-decrease-key entry
		}
		if cur.node == goal {
			return reconstructPath(cameFrom, start, goal), cur.g, nil
		}
		if closed[cur.node] {
			continue
		}
		closed[cur.node] = true

		for _, nb := range grid.Neighbors(cur.node) {
			cost := stepCost(grid, nb, netID, p)
			if routegrid.IsVia(cur.node, nb) {
				cost += p.ViaCost
			}
			if math.IsInf(cost, 1) {
				continue
			}
			g := cur.g + cost
			if existing, ok := bestG[nb]; !ok || g < existing-1e-12 {
				bestG[nb] = g
				cameFrom[nb] = cur.node
				heap.Push(pq, astarEntry{node: nb, g: g, f: g + heuristic(nb, goal, p)})
			}
		}
	}
	return nil, 0, ErrNoPath
}

func reconstructPath(cameFrom map[routegrid.Node]routegrid.Node, start, goal routegrid.Node) []routegrid.Node {
	path := []routegrid.Node{goal}
	cur := goal
	for cur != start {
		prev, ok := cameFrom[cur]
		if !ok {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	// Reverse into start->goal order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
