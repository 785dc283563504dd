// Command minieda is the CLI entry point for the placement/routing/STA
// flow: it assembles config.Config from flags named after spec.md §6's
// table, honors the 0/1 exit-code contract of spec.md §7, and drives
// pipeline.Run.
//
// Verilog/Liberty/LEF parsing is out of this repository's scope (spec.md
// §1's Non-goals), so this binary builds its netlist.Design and
// libcell/sta library facts in-process rather than from -verilog_file /
// -liberty_file on disk. The file flags are accepted, but only the
// presence of -verilog_file is checked; the files are not opened. The
// flags cover a subset of config's options; the rest keep their defaults.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/minieda/minieda/config"
	"github.com/minieda/minieda/geom"
	"github.com/minieda/minieda/globalplace"
	"github.com/minieda/minieda/libcell"
	"github.com/minieda/minieda/netlist"
	"github.com/minieda/minieda/pipeline"
	"github.com/minieda/minieda/report"
	"github.com/minieda/minieda/sta"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("minieda", flag.ContinueOnError)
	fs.SetOutput(stderr)

	verilogFile := fs.String("verilog_file", "", "structural netlist input (required)")
	libertyFile := fs.String("liberty_file", "", "NLDM timing tables")
	lefFile := fs.String("lef_file", "", "physical cell library")
	utilization := fs.Float64("utilization", 0.7, "core area = total cell area / utilization")
	clockPeriod := fs.Float64("clock_period_ns", 10.0, "clock period in nanoseconds")
	convergenceThreshold := fs.Float64("convergence_threshold", 1e-4, "movement-to-core-diagonal ratio")
	seed := fs.Int64("seed", 1, "deterministic RNG seed")
	strategy := fs.String("strategy", "electrostatic", "global placer strategy: basic|electrostatic|hybrid")
	legalizerFlag := fs.String("legalizer", "abacus", "legalization algorithm: abacus|greedy")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *verilogFile == "" {
		fmt.Fprintln(stderr, "minieda: -verilog_file is required")
		return 1
	}

	kind, err := parseStrategy(*strategy)
	if err != nil {
		fmt.Fprintln(stderr, "minieda:", err)
		return 1
	}
	legalizerKind, err := parseLegalizer(*legalizerFlag)
	if err != nil {
		fmt.Fprintln(stderr, "minieda:", err)
		return 1
	}

	cfg, err := config.New(
		config.WithVerilogFile(*verilogFile),
		config.WithLibertyFile(*libertyFile),
		config.WithLEFFile(*lefFile),
		config.WithUtilization(*utilization),
		config.WithClockPeriodNs(*clockPeriod),
		config.WithConvergenceThreshold(*convergenceThreshold),
		config.WithSeed(*seed),
	)
	if err != nil {
		fmt.Fprintln(stderr, "minieda: config:", err)
		return 1
	}

	design, lib := demoDesign()
	result, err := pipeline.RunWithLegalizer(design, lib, cfg, kind, legalizerKind, func(stage string) {
		fmt.Fprintln(stderr, "minieda:", stage)
	})
	if err != nil {
		fmt.Fprintln(stderr, "minieda:", err)
		return 1
	}

	report.RenderTimingReport(stdout, result.TimingReport)
	report.RenderRoutingReport(stdout, result.RoutingReport)
	fmt.Fprintf(stdout, "HPWL: %v\n", result.HPWL)

	if result.TimingReport.WNS < 0 {
		return 1
	}
	return 0
}

func parseStrategy(s string) (globalplace.Kind, error) {
	switch s {
	case "basic":
		return globalplace.Basic, nil
	case "electrostatic":
		return globalplace.Electrostatic, nil
	case "hybrid":
		return globalplace.Hybrid, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q", s)
	}
}

func parseLegalizer(s string) (pipeline.LegalizerKind, error) {
	switch s {
	case "abacus":
		return pipeline.AbacusLegalizer, nil
	case "greedy":
		return pipeline.GreedyLegalizer, nil
	default:
		return 0, fmt.Errorf("unknown legalizer %q", s)
	}
}

// demoDesign builds spec.md §8 scenario S2 (a single inverter) in-process,
// standing in for a parsed Verilog/Liberty/LEF front end.
func demoDesign() (*netlist.Design, pipeline.Library) {
	d := netlist.NewDesign()

	inPort, _ := d.AddCell("IN1", "PORT_IN", []netlist.PinSpec{{Name: "Y", Dir: netlist.DirOut}})
	d.SetFixed(inPort, true)
	outPort, _ := d.AddCell("OUT1", "PORT_OUT", []netlist.PinSpec{{Name: "A", Dir: netlist.DirIn}})
	d.SetFixed(outPort, true)
	u1, _ := d.AddCell("U1", "INV_X1", []netlist.PinSpec{
		{Name: "A", Dir: netlist.DirIn},
		{Name: "Y", Dir: netlist.DirOut},
	})

	netIn, _ := d.AddNet("IN1")
	netOut, _ := d.AddNet("OUT1")

	inCell, _ := d.Cell(inPort)
	d.Connect(inCell.Pins[0], netIn)
	u1Cell, _ := d.Cell(u1)
	d.Connect(u1Cell.Pins[0], netIn)
	d.Connect(u1Cell.Pins[1], netOut)
	outCell, _ := d.Cell(outPort)
	d.Connect(outCell.Pins[0], netOut)

	table := libcell.NLDMTable{
		Index1: []float64{0.01, 0.1},
		Index2: []float64{0.001, 0.01},
		Values: [][]float64{{0.02, 0.05}, {0.04, 0.09}},
	}
	timing := libcell.CellTiming{
		CellType: "INV_X1",
		Arcs: map[libcell.ArcKey]libcell.ArcTiming{
			{FromPin: "A", ToPin: "Y"}: {DelayRise: table, DelayFall: table, TransRise: table, TransFall: table},
		},
	}

	lib := pipeline.Library{
		Physical: map[string]pipeline.CellPhysical{
			"PORT_IN":  {AreaUM2: 1},
			"PORT_OUT": {AreaUM2: 1},
			"INV_X1":   {AreaUM2: 1},
		},
		CellTimings: map[string]libcell.CellTiming{"INV_X1": timing},
		PinCaps:     map[geom.PinID]float64{},
		PrimaryInputs: map[geom.PinID]bool{
			inCell.Pins[0]: true,
		},
		PrimaryOutputs: map[geom.PinID]bool{
			outCell.Pins[0]: true,
		},
		SeqDataInputs: map[geom.PinID]sta.SeqEndpoint{},
	}
	return d, lib
}
