package timinggraph_test

import (
	"testing"

	"github.com/minieda/minieda/libcell"
	"github.com/minieda/minieda/netlist"
	"github.com/minieda/minieda/timinggraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invTiming() libcell.CellTiming {
	table := libcell.NLDMTable{
		Index1: []float64{0, 1},
		Index2: []float64{0, 1},
		Values: [][]float64{{0.1, 0.2}, {0.2, 0.3}},
	}
	return libcell.CellTiming{
		CellType: "INV_X1",
		Arcs: map[libcell.ArcKey]libcell.ArcTiming{
			{FromPin: "A", ToPin: "Y"}: {
				DelayRise: table, DelayFall: table,
				TransRise: table, TransFall: table,
			},
		},
	}
}

func buildInverterDesign(t *testing.T) *netlist.Design {
	t.Helper()
	d := netlist.NewDesign()
	u1, err := d.AddCell("U1", "INV_X1", []netlist.PinSpec{
		{Name: "A", Dir: netlist.DirIn},
		{Name: "Y", Dir: netlist.DirOut},
	})
	require.NoError(t, err)
	in, _ := d.AddNet("IN1")
	out, _ := d.AddNet("OUT1")
	cell, _ := d.Cell(u1)
	require.NoError(t, d.Connect(cell.Pins[0], in))
	require.NoError(t, d.Connect(cell.Pins[1], out))
	return d
}

func TestBuildCreatesCellArc(t *testing.T) {
	d := buildInverterDesign(t)
	g, err := timinggraph.Build(d, map[string]libcell.CellTiming{"INV_X1": invTiming()})
	require.NoError(t, err)

	assert.Equal(t, 2, g.NumNodes())

	cell, _ := d.Cell(0)
	aNode, ok := g.NodeOf(cell.Pins[0])
	require.True(t, ok)
	yNode, ok := g.NodeOf(cell.Pins[1])
	require.True(t, ok)

	assert.Len(t, g.Node(aNode).Out, 1)
	arc := g.Arc(g.Node(aNode).Out[0])
	assert.Equal(t, yNode, arc.To)
	assert.Equal(t, timinggraph.CellArc, arc.Kind)
}

func TestBuildSkipsCellsWithUnknownLibrary(t *testing.T) {
	d := buildInverterDesign(t)
	g, err := timinggraph.Build(d, nil)
	require.NoError(t, err)
	// No CELL_ARCs should exist; only the two pin nodes.
	assert.Equal(t, 2, g.NumNodes())
	for i := 0; i < g.NumNodes(); i++ {
		for _, arcID := range g.Node(timinggraph.NodeID(i)).Out {
			assert.NotEqual(t, timinggraph.CellArc, g.Arc(arcID).Kind)
		}
	}
}

func TestBuildDetectsCombinationalCycle(t *testing.T) {
	d := netlist.NewDesign()
	u1, _ := d.AddCell("U1", "INV_X1", []netlist.PinSpec{
		{Name: "A", Dir: netlist.DirIn}, {Name: "Y", Dir: netlist.DirOut},
	})
	u2, _ := d.AddCell("U2", "INV_X1", []netlist.PinSpec{
		{Name: "A", Dir: netlist.DirIn}, {Name: "Y", Dir: netlist.DirOut},
	})
	n1, _ := d.AddNet("N1")
	n2, _ := d.AddNet("N2")
	c1, _ := d.Cell(u1)
	c2, _ := d.Cell(u2)
	require.NoError(t, d.Connect(c1.Pins[1], n1)) // U1.Y drives N1
	require.NoError(t, d.Connect(c2.Pins[0], n1)) // N1 -> U2.A
	require.NoError(t, d.Connect(c2.Pins[1], n2)) // U2.Y drives N2
	require.NoError(t, d.Connect(c1.Pins[0], n2)) // N2 -> U1.A (cycle)

	_, err := timinggraph.Build(d, map[string]libcell.CellTiming{"INV_X1": invTiming()})
	assert.ErrorIs(t, err, timinggraph.ErrCycleDetected)
}

func TestTopologicalSortOrdersSourceBeforeDest(t *testing.T) {
	d := buildInverterDesign(t)
	g, err := timinggraph.Build(d, map[string]libcell.CellTiming{"INV_X1": invTiming()})
	require.NoError(t, err)

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Len(t, order, g.NumNodes())

	pos := make(map[timinggraph.NodeID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for i := 0; i < g.NumNodes(); i++ {
		id := timinggraph.NodeID(i)
		for _, arcID := range g.Node(id).Out {
			arc := g.Arc(arcID)
			assert.Less(t, pos[id], pos[arc.To])
		}
	}
}
