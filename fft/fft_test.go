package fft_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/minieda/minieda/fft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFFT1DRejectsNonPowerOfTwo(t *testing.T) {
	a := make([]complex128, 3)
	assert.ErrorIs(t, fft.FFT1D(a, false), fft.ErrNotPowerOfTwo)
}

func TestFFT1DForwardThenInverseIsIdentity(t *testing.T) {
	orig := []complex128{1, 2, 3, 4, 5, 6, 7, 8}
	a := append([]complex128{}, orig...)

	require.NoError(t, fft.FFT1D(a, false))
	require.NoError(t, fft.FFT1D(a, true))

	for i := range orig {
		assert.InDelta(t, real(orig[i]), real(a[i]), 1e-9)
		assert.InDelta(t, imag(orig[i]), imag(a[i]), 1e-9)
	}
}

func TestFFT1DDCComponent(t *testing.T) {
	a := []complex128{1, 1, 1, 1}
	require.NoError(t, fft.FFT1D(a, false))
	assert.InDelta(t, 4, cmplx.Abs(a[0]), 1e-9)
	for _, v := range a[1:] {
		assert.InDelta(t, 0, cmplx.Abs(v), 1e-9)
	}
}

func TestFFT2DRejectsLengthMismatch(t *testing.T) {
	buf := make([]complex128, 3)
	assert.ErrorIs(t, fft.FFT2D(buf, 2, 2, false), fft.ErrLengthMismatch)
}

func TestFFT2DRejectsNonPowerOfTwo(t *testing.T) {
	buf := make([]complex128, 6)
	assert.ErrorIs(t, fft.FFT2D(buf, 3, 2, false), fft.ErrNotPowerOfTwo)
}

func TestFFT2DForwardThenInverseIsIdentity(t *testing.T) {
	orig := make([]complex128, 16)
	for i := range orig {
		orig[i] = complex(float64(i), 0)
	}
	buf := append([]complex128{}, orig...)

	require.NoError(t, fft.FFT2D(buf, 4, 4, false))
	require.NoError(t, fft.FFT2D(buf, 4, 4, true))

	for i := range orig {
		assert.InDelta(t, real(orig[i]), real(buf[i]), 1e-6)
	}
}

func TestSolveRejectsBadDims(t *testing.T) {
	_, err := fft.Solve(make([]float64, 5), 2, 2, 1, 1)
	assert.ErrorIs(t, err, fft.ErrLengthMismatch)

	_, err = fft.Solve(make([]float64, 6), 3, 2, 1, 1)
	assert.ErrorIs(t, err, fft.ErrNotPowerOfTwo)
}

func TestSolveUniformDensityYieldsNoForce(t *testing.T) {
	density := make([]float64, 16)
	for i := range density {
		density[i] = 1.0
	}
	res, err := fft.Solve(density, 4, 4, 1, 1)
	require.NoError(t, err)

	for i := range res.ForceX {
		assert.InDelta(t, 0, res.ForceX[i], 1e-6)
		assert.InDelta(t, 0, res.ForceY[i], 1e-6)
	}
	assert.False(t, math.IsNaN(res.MaxPotential))
}

func TestSolveNonUniformDensityProducesForce(t *testing.T) {
	density := make([]float64, 16)
	density[0] = 10.0
	res, err := fft.Solve(density, 4, 4, 1, 1)
	require.NoError(t, err)
	assert.Greater(t, res.MaxForceMag, 0.0)
}

func TestSolvePoissonLinearity(t *testing.T) {
	density := make([]float64, 16)
	density[0], density[3], density[9] = 4.0, 1.5, 2.25
	res1, err := fft.Solve(density, 4, 4, 1, 1)
	require.NoError(t, err)

	doubled := make([]float64, 16)
	for i, d := range density {
		doubled[i] = 2 * d
	}
	res2, err := fft.Solve(doubled, 4, 4, 1, 1)
	require.NoError(t, err)

	for i := range res1.Potential {
		assert.InDelta(t, 2*res1.Potential[i], res2.Potential[i], 1e-8)
		assert.InDelta(t, 2*res1.ForceX[i], res2.ForceX[i], 1e-8)
		assert.InDelta(t, 2*res1.ForceY[i], res2.ForceY[i], 1e-8)
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 5: 8, 8: 8, 9: 16, 32: 32, 33: 64}
	for in, want := range cases {
		assert.Equal(t, want, fft.NextPowerOfTwo(in))
	}
}
