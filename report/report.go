// Package report aggregates the two human-facing outputs spec.md §7
// names: a timing report (per-endpoint slack plus WNS/TNS and an
// optional top-K worst-path breakdown) and a routing report (per-net
// ROUTED/PARTIAL/FAILED status plus an aggregate conflict count).
//
// Kept as its own package the way the teacher keeps cross-cutting
// concerns (e.g. matrix/errors.go's shared error vocabulary) separate
// from the algorithms that produce the data, rather than inlined into
// sta/router call sites.
package report

import (
	"sort"

	"github.com/minieda/minieda/geom"
	"github.com/minieda/minieda/router"
	"github.com/minieda/minieda/sta"
)

// NetStatus classifies one net's routing outcome.
type NetStatus int

const (
	Routed NetStatus = iota
	Partial
	Failed
)

func (s NetStatus) String() string {
	switch s {
	case Routed:
		return "ROUTED"
	case Partial:
		return "PARTIAL"
	default:
		return "FAILED"
	}
}

// NetRouteStatus is one net's entry in a RoutingReport.
type NetRouteStatus struct {
	NetID  geom.NetID
	Status NetStatus
}

// RoutingReport is the aggregate routing outcome (spec.md §7).
type RoutingReport struct {
	Nets          []NetRouteStatus
	ConflictCells int
}

// BuildRoutingReport classifies every net result from a router.Result: a
// net the router marks as routed is ROUTED, a net with some recorded
// segment path but not all is PARTIAL, and a net with no recorded path at
// all is FAILED.
func BuildRoutingReport(res router.Result) RoutingReport {
	rr := RoutingReport{ConflictCells: res.ConflictCells}
	for _, n := range res.Nets {
		status := Failed
		switch {
		case n.Routed:
			status = Routed
		case len(n.Path) > 0:
			status = Partial
		}
		rr.Nets = append(rr.Nets, NetRouteStatus{NetID: n.NetID, Status: status})
	}
	return rr
}

// PathBreakdown describes one arc along a reported worst path.
type PathBreakdown struct {
	FromNode string
	ToNode   string
	DelayMax float64
}

// TimingReport is the aggregate timing outcome: every endpoint's slack,
// WNS/TNS, and an optional top-K worst-path breakdown (spec.md §7).
type TimingReport struct {
	Endpoints  []sta.EndpointReport
	WNS        float64
	TNS        float64
	WorstPaths [][]PathBreakdown
}

// BuildTimingReport wraps an sta.Result as a TimingReport, sorted by
// ascending setup slack (most critical first) so that the first topK
// endpoints are the worst ones. WorstPaths is parallel to Endpoints: one
// arc-by-arc breakdown of the reported AT_max path per endpoint.
func BuildTimingReport(res sta.Result) TimingReport {
	endpoints := append([]sta.EndpointReport{}, res.Endpoints...)
	sort.Slice(endpoints, func(i, j int) bool {
		return endpoints[i].SetupSlack < endpoints[j].SetupSlack
	})
	tr := TimingReport{Endpoints: endpoints, WNS: res.WNS, TNS: res.TNS}
	for _, ep := range endpoints {
		var path []PathBreakdown
		for _, step := range ep.CriticalPath {
			path = append(path, PathBreakdown{FromNode: step.FromNode, ToNode: step.ToNode, DelayMax: step.DelayMax})
		}
		tr.WorstPaths = append(tr.WorstPaths, path)
	}
	return tr
}

// WorstEndpoints returns the k most critical endpoints by ascending
// setup slack (assumes BuildTimingReport has already sorted Endpoints).
func (r TimingReport) WorstEndpoints(k int) []sta.EndpointReport {
	if k > len(r.Endpoints) {
		k = len(r.Endpoints)
	}
	return r.Endpoints[:k]
}
