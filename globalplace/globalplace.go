// Package globalplace implements the Nesterov-momentum electrostatic
// global placer: wirelength-plus-density gradient descent over a
// PlacerDB's movable cells, dispatched through one of three strategies
// (Basic, Electrostatic, Hybrid), per spec.md §4.4.
//
// The iterate-until-converged shape (soft iteration cap, deterministic
// per-iteration bookkeeping, no RNG in the hot loop) follows the
// teacher's tsp/two_opt.go local-search loop; the three-strategy
// dispatch follows spec.md §9's recommendation to use one tagged
// variant dispatched in a single place, rather than virtual calls.
package globalplace

import (
	"errors"
	"fmt"
	"math"

	"github.com/minieda/minieda/density"
	"github.com/minieda/minieda/fft"
	"github.com/minieda/minieda/geom"
	"github.com/minieda/minieda/hpwl"
	"github.com/minieda/minieda/netlist"
	"github.com/minieda/minieda/placerdb"
)

// Sentinel errors.
var (
	ErrNilDesign     = errors.New("globalplace: design is nil")
	ErrNilPlacerDB   = errors.New("globalplace: placerdb is nil")
	ErrBadGridDims   = errors.New("globalplace: bin grid dimensions must be > 0")
	ErrNaNGradient   = errors.New("globalplace: NaN or Inf produced in gradient")
	ErrUnknownStrategy = errors.New("globalplace: unknown strategy kind")
)

// Kind selects one of the three placement strategies (spec.md §4.4, §9).
type Kind int

const (
	// Basic is the force-directed fixed-point warm-up pass: no density term.
	Basic Kind = iota
	// Electrostatic is the full Nesterov wirelength+density descent.
	Electrostatic
	// Hybrid runs Basic until early-stop, commits, then runs Electrostatic
	// with tempered lambda growth.
	Hybrid
)

// Params bundles the Nesterov/strategy knobs a Strategy needs. Typically
// built once from config.Config.
type Params struct {
	TargetDensity        float64
	InitialLambda        float64
	LambdaGrowthRate     float64
	LambdaMax            float64
	LearningRate         float64
	Momentum             float64
	ConvergenceThreshold float64
	MaxIterations        int
	WarmupLambdaFactor   float64
	GradientClipFraction float64
	BinsX, BinsY         int
	// BasicWarmupMaxIters and BasicEarlyStopRatio govern Hybrid's Basic
	// warm-up phase per spec.md §4.4 ("N <= 30 iterations... until HPWL
	// ratio drops below 0.3").
	BasicWarmupMaxIters int
	BasicEarlyStopRatio float64
}

// Strategy is the tagged variant dispatched by Run, per spec.md §9.
type Strategy struct {
	Kind Kind
}

// Progress is emitted synchronously to an optional callback once per
// outer iteration (spec.md §5's design-level progress hook).
type Progress struct {
	Iteration int
	HPWL      float64
	MaxDensity float64
	Lambda    float64
	Movement  float64
	Converged bool
}

// cellState tracks per-movable-cell Nesterov state.
type cellState struct {
	id             geom.CellID
	pos            geom.Point
	vel            geom.Point
}

// Run executes strategy over design/pdb in place, mutating pdb's movable
// cell positions, and returns the final HPWL. progress, if non-nil, is
// invoked once per outer iteration.
func Run(design *netlist.Design, pdb *placerdb.PlacerDB, p Params, strategy Strategy, progress func(Progress)) (float64, error) {
	if design == nil {
		return 0, ErrNilDesign
	}
	if pdb == nil {
		return 0, ErrNilPlacerDB
	}
	if p.BinsX <= 0 || p.BinsY <= 0 {
		return 0, ErrBadGridDims
	}

	switch strategy.Kind {
	case Basic:
		maxIters := p.MaxIterations
		return runBasic(design, pdb, maxIters, progress)
	case Electrostatic:
		return runElectrostatic(design, pdb, p, 0, progress)
	case Hybrid:
		warmupIters := p.BasicWarmupMaxIters
		if warmupIters <= 0 {
			warmupIters = 30
		}
		ratio := p.BasicEarlyStopRatio
		if ratio <= 0 {
			ratio = 0.3
		}
		if _, err := runBasicEarlyStop(design, pdb, warmupIters, ratio, progress); err != nil {
			return 0, err
		}
		pdb.CommitPlacement()
		return runElectrostatic(design, pdb, p, p.WarmupLambdaFactor, progress)
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownStrategy, strategy.Kind)
	}
}

// currentHPWL sums HPWL over every net with >= 2 pins.
func currentHPWL(design *netlist.Design, pdb *placerdb.PlacerDB) float64 {
	var total float64
	for _, netID := range design.NetIDs() {
		pins, err := design.NetPins(netID)
		if err != nil || len(pins) < 2 {
			continue
		}
		pts := make([]geom.Point, 0, len(pins))
		for _, pinID := range pins {
			pin, err := design.Pin(pinID)
			if err != nil {
				continue
			}
			center, err := pdb.GetCellCenter(pin.Cell)
			if err != nil {
				continue
			}
			pts = append(pts, center)
		}
		total += hpwl.Of(pts)
	}
	return total
}

// runBasic performs maxIters of force-directed fixed-point iteration: each
// movable cell moves to the weighted average of the positions of cells it
// shares a net with (no density term), per spec.md §4.4's Basic strategy.
func runBasic(design *netlist.Design, pdb *placerdb.PlacerDB, maxIters int, progress func(Progress)) (float64, error) {
	for it := 0; it < maxIters; it++ {
		movement := basicStep(design, pdb)
		h := currentHPWL(design, pdb)
		if progress != nil {
			progress(Progress{Iteration: it, HPWL: h, Movement: movement})
		}
		if movement < 1e-9 {
			break
		}
	}
	return currentHPWL(design, pdb), nil
}

// runBasicEarlyStop runs Basic iterations until HPWL drops below
// ratio*startHPWL or warmupIters is reached.
func runBasicEarlyStop(design *netlist.Design, pdb *placerdb.PlacerDB, warmupIters int, ratio float64, progress func(Progress)) (float64, error) {
	start := currentHPWL(design, pdb)
	h := start
	for it := 0; it < warmupIters; it++ {
		basicStep(design, pdb)
		h = currentHPWL(design, pdb)
		if progress != nil {
			progress(Progress{Iteration: it, HPWL: h})
		}
		if start > 0 && h/start < ratio {
			break
		}
	}
	return h, nil
}

// basicStep moves every movable cell, in ascending ID order, to the
// centroid of the other pins on the nets it touches (using positions
// already updated earlier in the same step), and returns the total
// movement distance.
func basicStep(design *netlist.Design, pdb *placerdb.PlacerDB) float64 {
	movable := pdb.MovableCellIDs()
	var movement float64
	for _, id := range movable {
		sumX, sumY, n := 0.0, 0.0, 0.0
		cell, err := design.Cell(id)
		if err != nil {
			continue
		}
		for _, pinID := range cell.Pins {
			pin, err := design.Pin(pinID)
			if err != nil || pin.Net == geom.InvalidID {
				continue
			}
			netPins, err := design.NetPins(pin.Net)
			if err != nil {
				continue
			}
			for _, otherPinID := range netPins {
				otherPin, err := design.Pin(otherPinID)
				if err != nil || otherPin.Cell == id {
					continue
				}
				center, err := pdb.GetCellCenter(otherPin.Cell)
				if err != nil {
					continue
				}
				sumX += center.X
				sumY += center.Y
				n++
			}
		}
		if n == 0 {
			continue
		}
		info, _ := pdb.Info(id)
		cog := geom.Point{X: sumX / n, Y: sumY / n}
		pos := geom.Point{X: cog.X - info.Width/2, Y: cog.Y - info.Height/2}
		clamped := geom.Clamp(pos, geom.Rect{
			XMin: pdb.Core.XMin, YMin: pdb.Core.YMin,
			XMax: pdb.Core.XMax - info.Width, YMax: pdb.Core.YMax - info.Height,
		})
		movement += math.Hypot(clamped.X-info.X, clamped.Y-info.Y)
		pdb.PlaceCell(id, clamped.X, clamped.Y)
	}
	return movement
}

// runElectrostatic runs the full Nesterov loop described in spec.md §4.4.
// warmupFactor, if > 0, tempers the lambda growth rate (Hybrid's warm-up
// mode).
func runElectrostatic(design *netlist.Design, pdb *placerdb.PlacerDB, p Params, warmupFactor float64, progress func(Progress)) (float64, error) {
	movable := pdb.MovableCellIDs()
	states := make([]*cellState, len(movable))
	for i, id := range movable {
		info, err := pdb.Info(id)
		if err != nil {
			return 0, err
		}
		states[i] = &cellState{id: id, pos: geom.Point{X: info.X, Y: info.Y}}
	}
	if len(states) == 0 {
		return currentHPWL(design, pdb), nil
	}

	lambda := p.InitialLambda
	growth := p.LambdaGrowthRate
	if warmupFactor > 0 {
		growth = 1 + (growth-1)*warmupFactor
	}

	diag := math.Hypot(pdb.Core.Width(), pdb.Core.Height())
	maxGradX := p.GradientClipFraction * pdb.Core.Width()
	maxGradY := p.GradientClipFraction * pdb.Core.Height()

	consecutiveSmall := 0
	var lastHPWL float64

	for it := 0; it < p.MaxIterations; it++ {
		grid, err := density.Init(pdb.Core, p.BinsX, p.BinsY)
		if err != nil {
			return 0, err
		}

		// Look-ahead positions for gradient evaluation (Nesterov).
		lookahead := make(map[geom.CellID]geom.Point, len(states))
		for _, s := range states {
			lookahead[s.id] = s.pos.Add(s.vel.Scale(p.Momentum))
		}
		pushLookahead(pdb, lookahead)

		allIDs := pdb.AllCellIDs()
		cellRects := make([]density.CellRect, 0, len(allIDs))
		for _, id := range allIDs {
			info, _ := pdb.Info(id)
			cellRects = append(cellRects, density.CellRect{
				ID:   id,
				Rect: geom.Rect{XMin: info.X, YMin: info.Y, XMax: info.X + info.Width, YMax: info.Y + info.Height},
			})
		}
		grid.UpdateDensity(cellRects)

		w, h := fft.NextPowerOfTwo(p.BinsX), fft.NextPowerOfTwo(p.BinsY)
		densityField := padField(grid.DensityField(), p.BinsX, p.BinsY, w, h)
		solved, err := fft.Solve(densityField, w, h, grid.BinW, grid.BinH)
		if err != nil {
			return 0, err
		}

		wireGrad := wirelengthGradient(design, pdb, it, p.MaxIterations)

		var movement float64
		for _, s := range states {
			info, _ := pdb.Info(s.id)
			center := lookahead[s.id].Add(geom.Point{X: info.Width / 2, Y: info.Height / 2})
			bx, by := grid.BinOf(center)
			fx, fy := solvedForce(solved, w, h, bx, by)

			// fx/fy are already -grad(potential) (fft.Solve's force field);
			// negating again here recovers the ascending-density gradient so
			// the descent step below pushes cells out of overfull bins, not
			// into them. Do not drop the negation to match spec §4.4's literal
			// "g = g_wire + lambda*g_density" — that g_density is the force,
			// and this is the sign that makes the step a descent.
			wg := wireGrad[s.id]
			gx := wg.X + lambda*(-fx)
			gy := wg.Y + lambda*(-fy)

			if math.IsNaN(gx) || math.IsNaN(gy) || math.IsInf(gx, 0) || math.IsInf(gy, 0) {
				return 0, ErrNaNGradient
			}

			gx = hpwl.Clamp(gx, -maxGradX, maxGradX)
			gy = hpwl.Clamp(gy, -maxGradY, maxGradY)

			s.vel = geom.Point{
				X: p.Momentum*s.vel.X - p.LearningRate*gx,
				Y: p.Momentum*s.vel.Y - p.LearningRate*gy,
			}
			newPos := s.pos.Add(s.vel)
			newPos = geom.Clamp(newPos, geom.Rect{
				XMin: pdb.Core.XMin, YMin: pdb.Core.YMin,
				XMax: pdb.Core.XMax - info.Width, YMax: pdb.Core.YMax - info.Height,
			})
			movement += math.Hypot(newPos.X-s.pos.X, newPos.Y-s.pos.Y)
			s.pos = newPos
			pdb.PlaceCell(s.id, newPos.X, newPos.Y)
		}

		lambda = math.Min(lambda*growth, p.LambdaMax)
		lastHPWL = currentHPWL(design, pdb)

		if progress != nil {
			progress(Progress{
				Iteration:  it,
				HPWL:       lastHPWL,
				MaxDensity: grid.MaxDensity(),
				Lambda:     lambda,
				Movement:   movement,
			})
		}

		if movement < p.ConvergenceThreshold*diag {
			consecutiveSmall++
			if consecutiveSmall >= 2 {
				if progress != nil {
					progress(Progress{Iteration: it, HPWL: lastHPWL, Converged: true})
				}
				break
			}
		} else {
			consecutiveSmall = 0
		}
	}

	return lastHPWL, nil
}

func pushLookahead(pdb *placerdb.PlacerDB, lookahead map[geom.CellID]geom.Point) {
	for id, pos := range lookahead {
		pdb.PlaceCell(id, pos.X, pos.Y)
	}
}

// wirelengthGradient computes, per movable cell, the star-model gradient
// contribution w_net*(pin_pos - cog) summed over every net touching the
// cell (spec.md §4.4 step 2). Only movable cells receive a gradient. The
// I/O-port ramp weight (0 to 1 over the first half of iterations) is
// applied only to fixed-cell contributions, which are then dropped, so it
// does not change the result; fixed ports enter each net's centre of
// gravity at full weight from the first iteration.
func wirelengthGradient(design *netlist.Design, pdb *placerdb.PlacerDB, iter, maxIters int) map[geom.CellID]geom.Point {
	grad := make(map[geom.CellID]geom.Point)
	ioWeight := 1.0
	if maxIters > 0 {
		half := maxIters / 2
		if half > 0 && iter < half {
			ioWeight = float64(iter) / float64(half)
		}
	}

	for _, netID := range design.NetIDs() {
		pins, err := design.NetPins(netID)
		if err != nil || len(pins) < 2 {
			continue
		}
		n := float64(len(pins))
		var cogX, cogY float64
		type pinPos struct {
			cell   geom.CellID
			pos    geom.Point
			fixed  bool
		}
		positions := make([]pinPos, 0, len(pins))
		for _, pinID := range pins {
			pin, err := design.Pin(pinID)
			if err != nil {
				continue
			}
			center, err := pdb.GetCellCenter(pin.Cell)
			if err != nil {
				continue
			}
			info, _ := pdb.Info(pin.Cell)
			positions = append(positions, pinPos{cell: pin.Cell, pos: center, fixed: info.Fixed})
			cogX += center.X
			cogY += center.Y
		}
		if len(positions) == 0 {
			continue
		}
		cog := geom.Point{X: cogX / n, Y: cogY / n}
		w := 1.0 / (n - 1)
		for _, pp := range positions {
			weight := w
			if pp.fixed {
				weight *= ioWeight
			}
			contrib := pp.pos.Sub(cog).Scale(weight)
			if pp.fixed {
				continue // fixed cells are never moved by the placer
			}
			existing := grad[pp.cell]
			grad[pp.cell] = existing.Add(contrib)
		}
	}
	return grad
}

// padField embeds a Nx x Ny density field into a zero-padded W x H
// (power-of-two) buffer so fft.Solve's power-of-two requirement is met
// without forcing the bin grid itself to be a power of two size.
func padField(field []float64, nx, ny, w, h int) []float64 {
	if nx == w && ny == h {
		return field
	}
	out := make([]float64, w*h)
	for y := 0; y < ny; y++ {
		copy(out[y*w:y*w+nx], field[y*nx:(y+1)*nx])
	}
	return out
}

// solvedForce looks up the force vector at logical bin (bx,by) within a
// (possibly zero-padded) W x H solved field.
func solvedForce(r fft.Result, w, h, bx, by int) (float64, float64) {
	if bx >= w {
		bx = w - 1
	}
	if by >= h {
		by = h - 1
	}
	idx := by*w + bx
	if idx < 0 || idx >= len(r.ForceX) {
		return 0, 0
	}
	return r.ForceX[idx], r.ForceY[idx]
}
