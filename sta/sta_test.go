package sta_test

import (
	"testing"

	"github.com/minieda/minieda/geom"
	"github.com/minieda/minieda/libcell"
	"github.com/minieda/minieda/netlist"
	"github.com/minieda/minieda/sta"
	"github.com/minieda/minieda/timinggraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildInverterGraph mirrors spec.md §8 scenario S2: IN1 -> U1 (inverter) ->
// OUT1. Zero input slew and zero load sit below the NLDM table's first
// breakpoints, so the lookup clamps to Values[0][0] and delay arithmetic
// is exact.
func buildInverterGraph(t *testing.T) (*timinggraph.Graph, *netlist.Design, map[string]libcell.CellTiming, geom.PinID, geom.PinID) {
	t.Helper()
	d := netlist.NewDesign()

	inPort, _ := d.AddCell("IN1", "PORT_IN", []netlist.PinSpec{{Name: "Y", Dir: netlist.DirOut}})
	outPort, _ := d.AddCell("OUT1", "PORT_OUT", []netlist.PinSpec{{Name: "A", Dir: netlist.DirIn}})
	u1, _ := d.AddCell("U1", "INV_X1", []netlist.PinSpec{
		{Name: "A", Dir: netlist.DirIn},
		{Name: "Y", Dir: netlist.DirOut},
	})

	netIn, _ := d.AddNet("IN1")
	netOut, _ := d.AddNet("OUT1")

	inCell, _ := d.Cell(inPort)
	outCell, _ := d.Cell(outPort)
	u1Cell, _ := d.Cell(u1)
	require.NoError(t, d.Connect(inCell.Pins[0], netIn))
	require.NoError(t, d.Connect(u1Cell.Pins[0], netIn))
	require.NoError(t, d.Connect(u1Cell.Pins[1], netOut))
	require.NoError(t, d.Connect(outCell.Pins[0], netOut))

	table := libcell.NLDMTable{
		Index1: []float64{0.01, 0.1},
		Index2: []float64{0.001, 0.01},
		Values: [][]float64{{0.02, 0.05}, {0.04, 0.09}},
	}
	timing := map[string]libcell.CellTiming{
		"INV_X1": {
			CellType: "INV_X1",
			Arcs: map[libcell.ArcKey]libcell.ArcTiming{
				{FromPin: "A", ToPin: "Y"}: {DelayRise: table, DelayFall: table, TransRise: table, TransFall: table},
			},
		},
	}

	g, err := timinggraph.Build(d, timing)
	require.NoError(t, err)
	return g, d, timing, inCell.Pins[0], outCell.Pins[0]
}

func TestRunComputesExpectedEndpointSlack(t *testing.T) {
	g, d, timing, inPin, outPin := buildInverterGraph(t)

	in := sta.Inputs{
		CellTimings:    timing,
		PinCaps:        map[geom.PinID]float64{},
		NetHPWL:        map[geom.NetID]float64{},
		PrimaryInputs:  map[geom.PinID]bool{inPin: true},
		PrimaryOutputs: map[geom.PinID]bool{outPin: true},
		SeqDataInputs:  map[geom.PinID]sta.SeqEndpoint{},
	}

	opts := sta.Options{ClockPeriodNs: 10}
	res, err := sta.Run(g, d, in, opts)
	require.NoError(t, err)

	require.Len(t, res.Endpoints, 1)
	ep := res.Endpoints[0]
	assert.InDelta(t, 0.02, ep.ATMax, 1e-9)
	assert.InDelta(t, 10.0, ep.RATMax, 1e-9)
	assert.InDelta(t, 9.98, ep.SetupSlack, 1e-9)
	assert.InDelta(t, 9.98, res.WNS, 1e-9)
	assert.Equal(t, 0.0, res.TNS)

	require.Len(t, ep.CriticalPath, 3)
	assert.Equal(t, "IN1/Y", ep.CriticalPath[0].FromNode)
	assert.Equal(t, "U1/A", ep.CriticalPath[0].ToNode)
	assert.Equal(t, "U1/A", ep.CriticalPath[1].FromNode)
	assert.Equal(t, "U1/Y", ep.CriticalPath[1].ToNode)
	assert.InDelta(t, 0.02, ep.CriticalPath[1].DelayMax, 1e-9)
	assert.Equal(t, "U1/Y", ep.CriticalPath[2].FromNode)
	assert.Equal(t, "OUT1/A", ep.CriticalPath[2].ToNode)
}

func TestRunNegativeSlackContributesToTNS(t *testing.T) {
	g, d, timing, inPin, outPin := buildInverterGraph(t)
	in := sta.Inputs{
		CellTimings:    timing,
		PinCaps:        map[geom.PinID]float64{},
		NetHPWL:        map[geom.NetID]float64{},
		PrimaryInputs:  map[geom.PinID]bool{inPin: true},
		PrimaryOutputs: map[geom.PinID]bool{outPin: true},
		SeqDataInputs:  map[geom.PinID]sta.SeqEndpoint{},
	}
	// A clock period shorter than the combinational delay forces negative slack.
	opts := sta.Options{ClockPeriodNs: 0.001}
	res, err := sta.Run(g, d, in, opts)
	require.NoError(t, err)

	require.Len(t, res.Endpoints, 1)
	assert.Less(t, res.Endpoints[0].SetupSlack, 0.0)
	assert.Less(t, res.TNS, 0.0)
	assert.Equal(t, res.WNS, res.Endpoints[0].SetupSlack)
}

func TestRunEmptyGraphHasZeroWNSAndNoEndpoints(t *testing.T) {
	d := netlist.NewDesign()
	g, err := timinggraph.Build(d, nil)
	require.NoError(t, err)

	res, err := sta.Run(g, d, sta.Inputs{
		PrimaryInputs:  map[geom.PinID]bool{},
		PrimaryOutputs: map[geom.PinID]bool{},
		SeqDataInputs:  map[geom.PinID]sta.SeqEndpoint{},
	}, sta.Options{ClockPeriodNs: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Endpoints)
	assert.Equal(t, 0.0, res.WNS)
	assert.Equal(t, 0.0, res.TNS)
}
