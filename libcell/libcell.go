// Package libcell models the slice of Liberty (.lib) NLDM timing data the
// STA engine needs: a 2-D lookup table of delay (or slew) as a function
// of input transition and output load capacitance, interpolated
// bilinearly with out-of-range indices clamped to the table's edges.
//
// It also carries the cell/pin physical-dimension fallback chain and the
// pin-name-alias heuristic spec.md §7 names as a "warning + fallback"
// library-mapping error policy — both are modeled here as pure functions
// so that policy is testable code, not only prose, per SPEC_FULL.md §D.
package libcell

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrEmptyTable      = errors.New("libcell: NLDM table has no index values")
	ErrRaggedTable     = errors.New("libcell: NLDM values matrix shape does not match index lengths")
	ErrNonPositiveArea = errors.New("libcell: fallback area must be > 0")
)

// DefaultFallbackAreaUM2 is the synthesized-square area used when a cell
// type appears in neither LEF nor Liberty (spec.md §7).
const DefaultFallbackAreaUM2 = 10.0

// NLDMTable is a 2-D lookup table: values[i][j] at (index1[i], index2[j]),
// matching Liberty's index_1 (input transition), index_2 (output
// capacitance), and values matrix.
type NLDMTable struct {
	Index1 []float64 // input slew breakpoints
	Index2 []float64 // output capacitance breakpoints
	Values [][]float64
}

// Validate checks the table's shape invariants.
func (t NLDMTable) Validate() error {
	if len(t.Index1) == 0 || len(t.Index2) == 0 {
		return ErrEmptyTable
	}
	if len(t.Values) != len(t.Index1) {
		return fmt.Errorf("%w: rows=%d want=%d", ErrRaggedTable, len(t.Values), len(t.Index1))
	}
	for i, row := range t.Values {
		if len(row) != len(t.Index2) {
			return fmt.Errorf("%w: row %d has %d cols, want %d", ErrRaggedTable, i, len(row), len(t.Index2))
		}
	}
	return nil
}

// Interpolate returns the bilinearly-interpolated value at (slewIn,
// cLoad), clamping both axes to the table's range when out of bounds
// (spec.md §4.9). Callers should Validate the table once at load time;
// Interpolate does not re-validate on every call.
func (t NLDMTable) Interpolate(slewIn, cLoad float64) float64 {
	i0, i1, fi := locate(t.Index1, slewIn)
	j0, j1, fj := locate(t.Index2, cLoad)

	v00 := t.Values[i0][j0]
	v01 := t.Values[i0][j1]
	v10 := t.Values[i1][j0]
	v11 := t.Values[i1][j1]

	v0 := v00 + (v01-v00)*fj
	v1 := v10 + (v11-v10)*fj
	return v0 + (v1-v0)*fi
}

// locate finds the bracketing breakpoint indices (i0,i1) for x in axis,
// clamped to [0, len-1], and the fractional position fi in [0,1] between
// them (0 if axis has a single breakpoint or x is out of range and
// clamped).
func locate(axis []float64, x float64) (i0, i1 int, fi float64) {
	n := len(axis)
	if n == 1 {
		return 0, 0, 0
	}
	if x <= axis[0] {
		return 0, 1, 0
	}
	if x >= axis[n-1] {
		return n - 2, n - 1, 1
	}
	for k := 0; k < n-1; k++ {
		if x >= axis[k] && x <= axis[k+1] {
			span := axis[k+1] - axis[k]
			if span <= 0 {
				return k, k + 1, 0
			}
			return k, k + 1, (x - axis[k]) / span
		}
	}
	return n - 2, n - 1, 1
}

// CellTiming is the subset of a Liberty cell's timing arcs this engine
// needs: one NLDM pair (delay, slew) per combinational input->output arc.
type CellTiming struct {
	CellType string
	Arcs     map[ArcKey]ArcTiming
}

// ArcKey identifies one combinational timing arc by pin names.
type ArcKey struct {
	FromPin, ToPin string
}

// ArcTiming bundles the rise/fall delay and transition tables for one arc.
type ArcTiming struct {
	DelayRise, DelayFall     NLDMTable
	TransRise, TransFall     NLDMTable
}

// pinAliasTable lists known Liberty/LEF pin-name synonym pairs, used by
// HeuristicPinAlias when an exact pin name match fails (spec.md §7).
var pinAliasTable = map[string][]string{
	"Y":  {"ZN", "Z", "Q"},
	"ZN": {"Y", "Z"},
	"A":  {"A1", "I", "IN"},
	"A1": {"A"},
	"B":  {"A2"},
	"A2": {"B"},
}

// HeuristicPinAlias returns candidate alternate pin names for name, for
// use when a library lookup by exact name fails (spec.md §7's
// "pin name not matched -> try heuristic" policy).
func HeuristicPinAlias(name string) []string {
	if aliases, ok := pinAliasTable[name]; ok {
		return aliases
	}
	return nil
}

// ResolveCellArea implements the dimension fallback chain (spec.md §7):
// a LEF area, if positive, wins outright; otherwise a Liberty-derived
// area; otherwise DefaultFallbackAreaUM2.
func ResolveCellArea(lefAreaUM2, libertyAreaUM2 float64) float64 {
	if lefAreaUM2 > 0 {
		return lefAreaUM2
	}
	if libertyAreaUM2 > 0 {
		return libertyAreaUM2
	}
	return DefaultFallbackAreaUM2
}

// ResolveCellDims turns an area into (width, height) given the row
// height: height = row_height, width = area / row_height, per spec.md
// §3's LEF/Liberty-area fallback rule.
func ResolveCellDims(areaUM2, rowHeight float64) (width, height float64, err error) {
	if areaUM2 <= 0 {
		return 0, 0, ErrNonPositiveArea
	}
	if rowHeight <= 0 {
		return 0, 0, fmt.Errorf("libcell: row height must be > 0, got %v", rowHeight)
	}
	return areaUM2 / rowHeight, rowHeight, nil
}
