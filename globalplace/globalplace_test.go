package globalplace_test

import (
	"testing"

	"github.com/minieda/minieda/geom"
	"github.com/minieda/minieda/globalplace"
	"github.com/minieda/minieda/netlist"
	"github.com/minieda/minieda/placerdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoCellDesign(t *testing.T) (*netlist.Design, *placerdb.PlacerDB) {
	t.Helper()
	d := netlist.NewDesign()
	a, _ := d.AddCell("A", "BUF", []netlist.PinSpec{{Name: "Y", Dir: netlist.DirOut}})
	b, _ := d.AddCell("B", "BUF", []netlist.PinSpec{{Name: "A", Dir: netlist.DirIn}})
	n, _ := d.AddNet("N1")
	ca, _ := d.Cell(a)
	cb, _ := d.Cell(b)
	require.NoError(t, d.Connect(ca.Pins[0], n))
	require.NoError(t, d.Connect(cb.Pins[0], n))

	pdb := placerdb.New(d, geom.Rect{XMin: 0, YMin: 0, XMax: 20, YMax: 20}, 2, 0.5)
	require.NoError(t, pdb.AddCell(a, 2, 2, false))
	require.NoError(t, pdb.AddCell(b, 2, 2, false))
	require.NoError(t, pdb.PlaceCell(a, 0, 0))
	require.NoError(t, pdb.PlaceCell(b, 18, 18))
	return d, pdb
}

func TestRunRejectsNilInputsAndBadDims(t *testing.T) {
	d, pdb := twoCellDesign(t)
	params := globalplace.Params{BinsX: 4, BinsY: 4, MaxIterations: 1}

	_, err := globalplace.Run(nil, pdb, params, globalplace.Strategy{Kind: globalplace.Basic}, nil)
	assert.ErrorIs(t, err, globalplace.ErrNilDesign)

	_, err = globalplace.Run(d, nil, params, globalplace.Strategy{Kind: globalplace.Basic}, nil)
	assert.ErrorIs(t, err, globalplace.ErrNilPlacerDB)

	badParams := params
	badParams.BinsX = 0
	_, err = globalplace.Run(d, pdb, badParams, globalplace.Strategy{Kind: globalplace.Basic}, nil)
	assert.ErrorIs(t, err, globalplace.ErrBadGridDims)
}

func TestRunUnknownStrategy(t *testing.T) {
	d, pdb := twoCellDesign(t)
	_, err := globalplace.Run(d, pdb, globalplace.Params{BinsX: 4, BinsY: 4}, globalplace.Strategy{Kind: 99}, nil)
	assert.ErrorIs(t, err, globalplace.ErrUnknownStrategy)
}

func TestRunBasicPullsConnectedCellsCloser(t *testing.T) {
	d, pdb := twoCellDesign(t)
	before, _ := pdb.GetCellCenter(firstMovable(pdb))

	_, err := globalplace.Run(d, pdb, globalplace.Params{BinsX: 4, BinsY: 4, MaxIterations: 20}, globalplace.Strategy{Kind: globalplace.Basic}, nil)
	require.NoError(t, err)

	after, _ := pdb.GetCellCenter(firstMovable(pdb))
	assert.NotEqual(t, before, after)
}

func TestRunElectrostaticConvergesAndReportsProgress(t *testing.T) {
	d, pdb := twoCellDesign(t)
	params := globalplace.Params{
		TargetDensity:        0.7,
		InitialLambda:        0.01,
		LambdaGrowthRate:     1.1,
		LambdaMax:            10,
		LearningRate:         0.5,
		Momentum:             0.9,
		ConvergenceThreshold: 1e-3,
		MaxIterations:        50,
		GradientClipFraction: 0.1,
		BinsX:                4,
		BinsY:                4,
	}
	var calls int
	hpwlFinal, err := globalplace.Run(d, pdb, params, globalplace.Strategy{Kind: globalplace.Electrostatic}, func(p globalplace.Progress) {
		calls++
	})
	require.NoError(t, err)
	assert.Greater(t, calls, 0)
	assert.GreaterOrEqual(t, hpwlFinal, 0.0)
}

func firstMovable(pdb *placerdb.PlacerDB) geom.CellID {
	ids := pdb.MovableCellIDs()
	if len(ids) == 0 {
		return geom.InvalidID
	}
	return ids[0]
}
