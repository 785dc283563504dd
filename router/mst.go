// Package router implements the maze router: per-net decomposition into
// 2-pin segments via a Manhattan-distance minimum spanning tree (Prim's
// algorithm), A* search per segment over a routegrid.Grid, and the
// PathFinder outer loop that resolves congestion across iterative
// rip-up-and-reroute passes.
//
// mst.go grounds its MST growth directly on the teacher's
// prim_kruskal.Prim: a min-heap of candidate edges grown outward from a
// single starting vertex, swapped here from core.Graph edges to
// Manhattan-distance edges between a net's pin positions.
package router

import (
	"container/heap"

	"github.com/minieda/minieda/geom"
)

// mstEdge is one candidate edge in the pin-to-pin Manhattan MST.
type mstEdge struct {
	from, to int // indices into the pin-position slice
	weight   float64
}

// edgeHeap is a min-heap of mstEdge ordered by weight, mirroring the
// teacher's edgePQ in prim_kruskal/prim.go.
type edgeHeap []mstEdge

func (h edgeHeap) Len() int            { return len(h) }
func (h edgeHeap) Less(i, j int) bool  { return h[i].weight < h[j].weight }
func (h edgeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *edgeHeap) Push(x interface{}) { *h = append(*h, x.(mstEdge)) }
func (h *edgeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Segment is one MST edge realized as a pair of pin positions to route.
type Segment struct {
	From, To geom.Point
}

// ManhattanMST decomposes a net's pin positions into len(pins)-1 2-pin
// segments via Prim's algorithm over the complete Manhattan-distance
// graph, per spec.md §4.8. A net with 0 or 1 pins yields no segments.
func ManhattanMST(pins []geom.Point) []Segment {
	n := len(pins)
	if n < 2 {
		return nil
	}

	visited := make([]bool, n)
	visited[0] = true
	pq := &edgeHeap{}
	heap.Init(pq)
	pushFrontierEdges(pq, pins, visited, 0)

	var segments []Segment
	for pq.Len() > 0 && len(segments) < n-1 {
		e := heap.Pop(pq).(mstEdge)
		if visited[e.to] {
			continue
		}
		visited[e.to] = true
		segments = append(segments, Segment{From: pins[e.from], To: pins[e.to]})
		pushFrontierEdges(pq, pins, visited, e.to)
	}
	return segments
}

// pushFrontierEdges pushes edges from the newly-visited vertex v to every
// unvisited vertex.
func pushFrontierEdges(pq *edgeHeap, pins []geom.Point, visited []bool, v int) {
	for u := range pins {
		if visited[u] {
			continue
		}
		heap.Push(pq, mstEdge{from: v, to: u, weight: pins[v].ManhattanDist(pins[u])})
	}
}
