// Package sta performs static timing analysis over a timinggraph.Graph:
// forward arrival-time propagation in topological order, reverse
// required-time propagation, NLDM-interpolated cell delay, a lumped
// Elmore net-delay approximation, and setup/hold slack with WNS/TNS
// aggregation, per spec.md §4.9.
//
// The two-pass topological-then-reverse-topological sweep mirrors the
// teacher's dfs-ordered traversal discipline; the NLDM lookups delegate
// to libcell.NLDMTable.Interpolate, reusing its clamp-at-the-edges
// behaviour rather than re-deriving bilinear interpolation here.
package sta

import (
	"math"

	"github.com/minieda/minieda/config"
	"github.com/minieda/minieda/geom"
	"github.com/minieda/minieda/libcell"
	"github.com/minieda/minieda/netlist"
	"github.com/minieda/minieda/timinggraph"
)

// Options carries the subset of config.Config the timing engine needs.
type Options struct {
	ClockPeriodNs        float64
	ClockUncertaintyNs   float64
	DefaultInputDelayNs  float64
	DefaultOutputDelayNs float64
	SetupMarginNs        float64
	WireCapPerUnitFF     float64
	WireResPerUnitOhm    float64
}

// FromConfig extracts Options from a resolved config.Config.
func FromConfig(c config.Config) Options {
	return Options{
		ClockPeriodNs:        c.ClockPeriodNs,
		ClockUncertaintyNs:   c.ClockUncertaintyNs,
		DefaultInputDelayNs:  c.DefaultInputDelayNs,
		DefaultOutputDelayNs: c.DefaultOutputDelayNs,
		SetupMarginNs:        c.SetupMarginNs,
		WireCapPerUnitFF:     c.WireCapPerUnitFF,
		WireResPerUnitOhm:    c.WireResPerUnitOhm,
	}
}

// SeqEndpoint bundles the Liberty setup/hold check tables for a
// sequential cell's data input pin.
type SeqEndpoint struct {
	SetupTable libcell.NLDMTable
	HoldTable  libcell.NLDMTable
}

// Inputs bundles every external fact Run needs beyond the graph itself:
// per-pin capacitance, per-net HPWL (already computed by the placer or a
// post-route extraction), and the port/endpoint classification that the
// graph alone cannot recover.
type Inputs struct {
	CellTimings    map[string]libcell.CellTiming
	PinCaps        map[geom.PinID]float64
	NetHPWL        map[geom.NetID]float64
	PrimaryInputs  map[geom.PinID]bool
	PrimaryOutputs map[geom.PinID]bool
	SeqDataInputs  map[geom.PinID]SeqEndpoint
}

// PathStep is one arc along a reconstructed max-delay path.
type PathStep struct {
	FromNode string
	ToNode   string
	DelayMax float64
}

// EndpointReport is one endpoint's timing summary for report.TimingReport.
type EndpointReport struct {
	NodeName     string
	ATMax        float64
	RATMax       float64
	SetupSlack   float64
	HoldSlack    float64
	CriticalPath []PathStep
}

// Result is the outcome of a full STA run.
type Result struct {
	Endpoints []EndpointReport
	WNS       float64
	TNS       float64
}

// Run performs the full AT/RAT sweep over g and returns endpoint slacks
// plus WNS/TNS. design resolves pin->net->fanout relationships that the
// graph's arcs alone don't carry (pin capacitance summation, net HPWL).
func Run(g *timinggraph.Graph, design *netlist.Design, in Inputs, opts Options) (Result, error) {
	order, err := g.TopologicalSort()
	if err != nil {
		return Result{}, err
	}

	critArc := make(map[timinggraph.NodeID]timinggraph.ArcID, len(order))

	seedInputs(g, order, in, opts)
	propagateArrival(g, order, design, in, opts, critArc)
	propagateRequired(g, order, design, in, opts)

	return collectResult(g, in, opts, critArc), nil
}

func seedInputs(g *timinggraph.Graph, order []timinggraph.NodeID, in Inputs, opts Options) {
	for _, id := range order {
		n := g.Node(id)
		if !in.PrimaryInputs[n.PinID] {
			continue
		}
		n.ATMax = opts.DefaultInputDelayNs
		n.ATMin = opts.DefaultInputDelayNs
		n.SlewMax = 0
		n.SlewMin = 0
		g.SetNode(id, n)
	}
}

// propagateArrival walks nodes in topological order. For each node it
// first folds in AT/slew from already-computed incoming arcs, then
// computes the delay+slew of its own outgoing arcs (which the
// topologically-later destination node will consume in its own turn).
func propagateArrival(g *timinggraph.Graph, order []timinggraph.NodeID, design *netlist.Design, in Inputs, opts Options, critArc map[timinggraph.NodeID]timinggraph.ArcID) {
	for _, id := range order {
		n := g.Node(id)
		if !in.PrimaryInputs[n.PinID] && len(n.In) > 0 {
			atMax, slewAtMax := math.Inf(-1), 0.0
			atMin, slewAtMin := math.Inf(1), 0.0
			for _, arcID := range n.In {
				a := g.Arc(arcID)
				src := g.Node(a.From)
				if v := src.ATMax + a.DelayMax; v > atMax {
					atMax, slewAtMax = v, a.SlewOut
					critArc[id] = arcID
				}
				if v := src.ATMin + a.DelayMin; v < atMin {
					atMin, slewAtMin = v, a.SlewOut
				}
			}
			n.ATMax, n.SlewMax = atMax, slewAtMax
			n.ATMin, n.SlewMin = atMin, slewAtMin
			g.SetNode(id, n)
		}

		for _, arcID := range n.Out {
			a := g.Arc(arcID)
			computeArcDelay(g, design, in, opts, &a, n)
			g.SetArc(arcID, a)
		}
	}
}

// computeArcDelay fills in a.DelayMax/DelayMin/SlewOut given the arc's
// source node n (whose AT/slew have already been finalized this pass).
func computeArcDelay(g *timinggraph.Graph, design *netlist.Design, in Inputs, opts Options, a *timinggraph.Arc, n timinggraph.Node) {
	to := g.Node(a.To)

	switch a.Kind {
	case timinggraph.CellArc:
		timing, ok := findArcTiming(in.CellTimings, design, to.PinID, a.CellArcRef)
		if !ok {
			a.DelayMax, a.DelayMin, a.SlewOut = 0, 0, n.SlewMax
			return
		}
		cLoad := loadCapacitance(design, in, opts, to.PinID)
		rise := timing.DelayRise.Interpolate(n.SlewMax, cLoad)
		fall := timing.DelayFall.Interpolate(n.SlewMax, cLoad)
		a.DelayMax, a.DelayMin = math.Max(rise, fall), math.Min(rise, fall)
		riseT := timing.TransRise.Interpolate(n.SlewMax, cLoad)
		fallT := timing.TransFall.Interpolate(n.SlewMax, cLoad)
		a.SlewOut = math.Max(riseT, fallT)

	case timinggraph.NetArc:
		delay := elmoreDelay(design, in, opts, n.PinID)
		a.DelayMax, a.DelayMin = delay, delay
		a.SlewOut = n.SlewMax
	}
}

func findArcTiming(cellTimings map[string]libcell.CellTiming, design *netlist.Design, outPinID geom.PinID, ref libcell.ArcKey) (libcell.ArcTiming, bool) {
	outPin, err := design.Pin(outPinID)
	if err != nil {
		return libcell.ArcTiming{}, false
	}
	cell, err := design.Cell(outPin.Cell)
	if err != nil {
		return libcell.ArcTiming{}, false
	}
	timing, ok := cellTimings[cell.Type]
	if !ok {
		return libcell.ArcTiming{}, false
	}
	arc, ok := timing.Arcs[ref]
	return arc, ok
}

// loadCapacitance returns C_load for a CELL_ARC: sum of pin capacitances
// of the output pin's net's fanout pins plus wire_cap_per_unit * HPWL.
func loadCapacitance(design *netlist.Design, in Inputs, opts Options, outPinID geom.PinID) float64 {
	pin, err := design.Pin(outPinID)
	if err != nil || pin.Net == geom.InvalidID {
		return 0
	}
	net, err := design.Net(pin.Net)
	if err != nil {
		return 0
	}
	var cap float64
	for _, load := range net.Loads {
		cap += in.PinCaps[load]
	}
	cap += opts.WireCapPerUnitFF * in.NetHPWL[pin.Net]
	return cap
}

// elmoreDelay returns the lumped Elmore NET_ARC delay for the net driven
// by driverPinID: 0.69 * R_wire * C_load, R_wire = res_per_unit *
// hpwl/n_loads (spec.md §4.9).
func elmoreDelay(design *netlist.Design, in Inputs, opts Options, driverPinID geom.PinID) float64 {
	pin, err := design.Pin(driverPinID)
	if err != nil || pin.Net == geom.InvalidID {
		return 0
	}
	net, err := design.Net(pin.Net)
	if err != nil || len(net.Loads) == 0 {
		return 0
	}
	hpwlLen := in.NetHPWL[pin.Net]
	rWire := opts.WireResPerUnitOhm * hpwlLen / float64(len(net.Loads))
	var cLoad float64
	for _, load := range net.Loads {
		cLoad += in.PinCaps[load]
	}
	cLoad += opts.WireCapPerUnitFF * hpwlLen
	return 0.69 * rWire * cLoad
}

// propagateRequired walks nodes in reverse topological order, seeding
// endpoints first and then pulling RAT back through each node's outgoing
// arcs.
func propagateRequired(g *timinggraph.Graph, order []timinggraph.NodeID, design *netlist.Design, in Inputs, opts Options) {
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		n := g.Node(id)

		ep, isSeqEndpoint := in.SeqDataInputs[n.PinID]

		switch {
		case in.PrimaryOutputs[n.PinID]:
			n.RATMax = opts.ClockPeriodNs - opts.DefaultOutputDelayNs - opts.SetupMarginNs - opts.ClockUncertaintyNs
			n.RATMin = opts.DefaultOutputDelayNs + opts.ClockUncertaintyNs

		case isSeqEndpoint:
			setup := ep.SetupTable.Interpolate(n.SlewMax, 0)
			hold := ep.HoldTable.Interpolate(n.SlewMin, 0)
			n.RATMax = opts.ClockPeriodNs - setup - opts.SetupMarginNs - opts.ClockUncertaintyNs
			n.RATMin = hold

		case len(n.Out) > 0:
			ratMax := math.Inf(1)
			ratMin := math.Inf(-1)
			for _, arcID := range n.Out {
				a := g.Arc(arcID)
				dst := g.Node(a.To)
				if v := dst.RATMax - a.DelayMax; v < ratMax {
					ratMax = v
				}
				if v := dst.RATMin - a.DelayMin; v > ratMin {
					ratMin = v
				}
			}
			n.RATMax, n.RATMin = ratMax, ratMin

		default:
			continue // dangling node, keep +/-inf defaults
		}

		n.SetupSlack = n.RATMax - n.ATMax
		n.HoldSlack = n.ATMin - n.RATMin
		g.SetNode(id, n)
	}
}

func collectResult(g *timinggraph.Graph, in Inputs, opts Options, critArc map[timinggraph.NodeID]timinggraph.ArcID) Result {
	var res Result
	wns := math.Inf(1)
	var tns float64

	for i := 0; i < g.NumNodes(); i++ {
		id := timinggraph.NodeID(i)
		n := g.Node(id)
		isEndpoint := in.PrimaryOutputs[n.PinID]
		if _, ok := in.SeqDataInputs[n.PinID]; ok {
			isEndpoint = true
		}
		if !isEndpoint {
			continue
		}
		res.Endpoints = append(res.Endpoints, EndpointReport{
			NodeName:     n.Name,
			ATMax:        n.ATMax,
			RATMax:       n.RATMax,
			SetupSlack:   n.SetupSlack,
			HoldSlack:    n.HoldSlack,
			CriticalPath: buildCriticalPath(g, critArc, id),
		})
		if n.SetupSlack < wns {
			wns = n.SetupSlack
		}
		if n.SetupSlack < 0 {
			tns += n.SetupSlack
		}
	}

	if len(res.Endpoints) == 0 {
		wns = 0
	}
	res.WNS, res.TNS = wns, tns
	return res
}

// buildCriticalPath walks the max-AT predecessor arc recorded for
// endpoint back to the primary input that feeds it, then reverses the
// walk into source-to-endpoint order.
func buildCriticalPath(g *timinggraph.Graph, critArc map[timinggraph.NodeID]timinggraph.ArcID, endpoint timinggraph.NodeID) []PathStep {
	var steps []PathStep
	cur := endpoint
	for {
		arcID, ok := critArc[cur]
		if !ok {
			break
		}
		a := g.Arc(arcID)
		steps = append(steps, PathStep{
			FromNode: g.Node(a.From).Name,
			ToNode:   g.Node(a.To).Name,
			DelayMax: a.DelayMax,
		})
		cur = a.From
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}
