// Package timinggraph builds the static-timing DAG: one node per pin,
// CELL_ARC edges for combinational input->output pairs, and NET_ARC edges
// from each net's driver to its loads. Nodes and arcs live in arenas
// indexed by typed IDs (NodeID, ArcID), per spec.md §9's recommended
// re-architecture away from node/arc pointer graphs.
package timinggraph

import (
	"errors"
	"fmt"
	"math"

	"github.com/minieda/minieda/geom"
	"github.com/minieda/minieda/libcell"
	"github.com/minieda/minieda/netlist"
)

// NodeID indexes a timing node (one per pin) in the graph's node arena.
type NodeID int

// ArcID indexes a timing arc in the graph's arc arena.
type ArcID int

// ArcKind distinguishes cell-internal arcs from net-crossing arcs.
type ArcKind int

const (
	CellArc ArcKind = iota
	NetArc
)

// Sentinel errors.
var (
	ErrCycleDetected   = errors.New("timinggraph: cycle detected")
	ErrNeighborFetch   = errors.New("timinggraph: failed to fetch arc neighbors")
	ErrUnknownLibArc   = errors.New("timinggraph: no Liberty timing data for cell pin pair")
)

// Node is one timing node, one per pin.
type Node struct {
	PinID           geom.PinID
	Name            string
	ATMax, ATMin    float64
	RATMax, RATMin  float64
	SlewMax, SlewMin float64
	PinCap          float64
	SetupSlack      float64
	HoldSlack       float64
	Out             []ArcID // outgoing arcs
	In              []ArcID // incoming arcs
}

// Arc is a directed timing edge between two nodes.
type Arc struct {
	From, To   NodeID
	Kind       ArcKind
	CellArcRef libcell.ArcKey // valid only for CellArc
	DelayMax   float64
	DelayMin   float64
	SlewOut    float64
}

// Graph is the arena-owned timing DAG.
type Graph struct {
	design   *netlist.Design
	nodes    []Node
	arcs     []Arc
	pinToNode map[geom.PinID]NodeID
}

// Build constructs a timing graph for design: one node per pin, CELL_ARC
// edges for every combinational input->output pair named in cellTimings
// (keyed by cell type), and NET_ARC edges from each net's driver to its
// loads. Build has no special case for sequential cells: it creates a
// CELL_ARC only for an arc listed in cellTimings, so a sequential cell's
// data-to-output pair gets no arc when that pair is not listed.
func Build(design *netlist.Design, cellTimings map[string]libcell.CellTiming) (*Graph, error) {
	g := &Graph{design: design, pinToNode: make(map[geom.PinID]NodeID)}

	for _, cellID := range design.CellIDs() {
		cell, err := design.Cell(cellID)
		if err != nil {
			return nil, err
		}
		for _, pinID := range cell.Pins {
			pin, err := design.Pin(pinID)
			if err != nil {
				return nil, err
			}
			id := NodeID(len(g.nodes))
			g.nodes = append(g.nodes, Node{
				PinID:  pinID,
				Name:   fmt.Sprintf("%s/%s", cell.Name, pin.Name),
				ATMax:  math.Inf(-1), ATMin: math.Inf(-1),
				RATMax: math.Inf(1), RATMin: math.Inf(1),
			})
			g.pinToNode[pinID] = id
		}
	}

	// CELL_ARCs: for each cell whose type has Liberty timing, connect
	// every combinational input pin to every output pin named in the
	// library arc set.
	for _, cellID := range design.CellIDs() {
		cell, err := design.Cell(cellID)
		if err != nil {
			return nil, err
		}
		timing, ok := cellTimings[cell.Type]
		if !ok {
			continue // unknown Liberty cell type: skipped silently, no warning is emitted
		}
		for arcKey := range timing.Arcs {
			fromPinID, ok1 := findPin(design, cell, arcKey.FromPin)
			toPinID, ok2 := findPin(design, cell, arcKey.ToPin)
			if !ok1 || !ok2 {
				continue
			}
			if err := g.addArc(g.pinToNode[fromPinID], g.pinToNode[toPinID], CellArc, arcKey); err != nil {
				return nil, err
			}
		}
	}

	// NET_ARCs: driver -> every load pin of the net.
	for _, netID := range design.NetIDs() {
		net, err := design.Net(netID)
		if err != nil {
			return nil, err
		}
		if net.Driver == geom.InvalidID {
			continue
		}
		for _, loadPin := range net.Loads {
			if err := g.addArc(g.pinToNode[net.Driver], g.pinToNode[loadPin], NetArc, libcell.ArcKey{}); err != nil {
				return nil, err
			}
		}
	}

	if _, err := g.TopologicalSort(); err != nil {
		return nil, err
	}
	return g, nil
}

func findPin(design *netlist.Design, cell netlist.Cell, name string) (geom.PinID, bool) {
	for _, pinID := range cell.Pins {
		pin, err := design.Pin(pinID)
		if err == nil && pin.Name == name {
			return pinID, true
		}
		for _, alias := range libcell.HeuristicPinAlias(name) {
			if err == nil && pin.Name == alias {
				return pinID, true
			}
		}
	}
	return geom.InvalidID, false
}

func (g *Graph) addArc(from, to NodeID, kind ArcKind, ref libcell.ArcKey) error {
	id := ArcID(len(g.arcs))
	g.arcs = append(g.arcs, Arc{From: from, To: to, Kind: kind, CellArcRef: ref})
	g.nodes[from].Out = append(g.nodes[from].Out, id)
	g.nodes[to].In = append(g.nodes[to].In, id)
	return nil
}

// Node returns a copy of the node at id.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// SetNode overwrites the node at id.
func (g *Graph) SetNode(id NodeID, n Node) { g.nodes[id] = n }

// Arc returns a copy of the arc at id.
func (g *Graph) Arc(id ArcID) Arc { return g.arcs[id] }

// SetArc overwrites the arc at id.
func (g *Graph) SetArc(id ArcID, a Arc) { g.arcs[id] = a }

// NumNodes returns the number of timing nodes (== number of pins).
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NodeOf returns the timing node id for a given pin, if any.
func (g *Graph) NodeOf(pinID geom.PinID) (NodeID, bool) {
	id, ok := g.pinToNode[pinID]
	return id, ok
}

// color states for DFS-based topological sort, mirroring the teacher's
// dfs/topological.go White/Gray/Black scheme.
const (
	white = 0
	gray  = 1
	black = 2
)

// TopologicalSort returns node IDs in topological order (every arc's
// source before its destination). Returns ErrCycleDetected if the graph
// is not acyclic, per spec.md §4.9/§8 property 7.
func (g *Graph) TopologicalSort() ([]NodeID, error) {
	state := make([]int, len(g.nodes))
	order := make([]NodeID, 0, len(g.nodes))

	var visit func(NodeID) error
	visit = func(id NodeID) error {
		if state[id] == gray {
			return fmt.Errorf("%w: at node %q", ErrCycleDetected, g.nodes[id].Name)
		}
		if state[id] == black {
			return nil
		}
		state[id] = gray
		for _, arcID := range g.nodes[id].Out {
			if err := visit(g.arcs[arcID].To); err != nil {
				return err
			}
		}
		state[id] = black
		order = append(order, id)
		return nil
	}

	for i := range g.nodes {
		if state[i] == white {
			if err := visit(NodeID(i)); err != nil {
				return nil, err
			}
		}
	}

	// Reverse post-order -> topological order (source before dest).
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}
