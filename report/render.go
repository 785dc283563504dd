package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTimingReport writes r as an aligned endpoint table with WNS and
// TNS footer rows, the way a terminal-facing EDA report prints. go-pretty is the
// rest of the example pack's answer to exactly this problem
// (sarchlab/zeonica renders simulation statistics the same way); reused
// here rather than hand-rolling column alignment with text/tabwriter.
func RenderTimingReport(w io.Writer, r TimingReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Endpoint", "AT_max", "RAT_max", "Setup Slack", "Hold Slack"})
	for _, ep := range r.Endpoints {
		t.AppendRow(table.Row{ep.NodeName, ep.ATMax, ep.RATMax, ep.SetupSlack, ep.HoldSlack})
	}
	t.AppendFooter(table.Row{"WNS", "", "", r.WNS, ""})
	t.AppendFooter(table.Row{"TNS", "", "", r.TNS, ""})
	t.Render()

	if len(r.WorstPaths) == 0 || len(r.WorstPaths[0]) == 0 {
		return
	}
	pt := table.NewWriter()
	pt.SetOutputMirror(w)
	pt.AppendHeader(table.Row{"From", "To", "Delay"})
	for _, step := range r.WorstPaths[0] {
		pt.AppendRow(table.Row{step.FromNode, step.ToNode, step.DelayMax})
	}
	pt.Render()
}

// RenderRoutingReport writes r as a per-net status table followed by the
// aggregate conflict-cell count.
func RenderRoutingReport(w io.Writer, r RoutingReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Net", "Status"})
	for _, n := range r.Nets {
		t.AppendRow(table.Row{int(n.NetID), n.Status.String()})
	}
	t.AppendFooter(table.Row{"Conflict cells", r.ConflictCells})
	t.Render()
}
