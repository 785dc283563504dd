// Package fft implements the radix-2 Cooley-Tukey FFT and the spectral
// Poisson solver the electrostatic placer uses to turn a density field
// into a potential field and its gradient (force).
//
// The explicit non-power-of-two and NaN/Inf guards follow the teacher's
// matrix/ops numeric kernels (ops/eigen.go's ErrMatrixEigenFailed / NaN
// guards): a numeric routine here never silently returns garbage, it
// returns a sentinel error instead.
package fft

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// Sentinel errors.
var (
	ErrNotPowerOfTwo = errors.New("fft: dimension is not a power of two")
	ErrLengthMismatch = errors.New("fft: input length does not match declared dimension")
	ErrNaN           = errors.New("fft: NaN or Inf produced during transform")
)

// isPowerOfTwo reports whether n is a power of two (n >= 1).
func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }

// FFT1D computes the in-place radix-2 Cooley-Tukey FFT of a, whose length
// must be a power of two. If inverse is true, computes the inverse
// transform (conjugate-twiddle + 1/N scaling).
func FFT1D(a []complex128, inverse bool) error {
	n := len(a)
	if !isPowerOfTwo(n) {
		return fmt.Errorf("%w: len=%d", ErrNotPowerOfTwo, n)
	}
	if n <= 1 {
		return nil
	}
	// Bit-reversal permutation.
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			a[i], a[j] = a[j], a[i]
		}
	}
	sign := -1.0
	if inverse {
		sign = 1.0
	}
	for length := 2; length <= n; length <<= 1 {
		angle := sign * 2 * math.Pi / float64(length)
		wLen := cmplx.Rect(1, angle)
		for start := 0; start < n; start += length {
			w := complex(1, 0)
			half := length / 2
			for k := 0; k < half; k++ {
				u := a[start+k]
				v := a[start+k+half] * w
				a[start+k] = u + v
				a[start+k+half] = u - v
				w *= wLen
			}
		}
	}
	if inverse {
		for i := range a {
			a[i] /= complex(float64(n), 0)
		}
	}
	return nil
}

// FFT2D computes the 2-D FFT of a W x H row-major complex buffer: a
// row-wise pass followed by a column-wise pass, per spec.md §4.3. Both W
// and H must be powers of two.
func FFT2D(buf []complex128, w, h int, inverse bool) error {
	if len(buf) != w*h {
		return fmt.Errorf("%w: len=%d want=%d", ErrLengthMismatch, len(buf), w*h)
	}
	if !isPowerOfTwo(w) || !isPowerOfTwo(h) {
		return fmt.Errorf("%w: w=%d h=%d", ErrNotPowerOfTwo, w, h)
	}
	row := make([]complex128, w)
	for y := 0; y < h; y++ {
		copy(row, buf[y*w:(y+1)*w])
		if err := FFT1D(row, inverse); err != nil {
			return err
		}
		copy(buf[y*w:(y+1)*w], row)
	}
	col := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = buf[y*w+x]
		}
		if err := FFT1D(col, inverse); err != nil {
			return err
		}
		for y := 0; y < h; y++ {
			buf[y*w+x] = col[y]
		}
	}
	return nil
}

// Result holds a Poisson solve's potential and force fields, plus the
// statistics spec.md §4.3 asks the solver to record (max potential,
// mean/max force magnitude).
type Result struct {
	Potential      []float64 // row-major W*H
	ForceX, ForceY []float64 // row-major W*H
	MaxPotential   float64
	MeanForceMag   float64
	MaxForceMag    float64
}

// Solve runs the spectral Poisson filter over a W x H density field:
// forward FFT, divide by |k|^2 = kx^2 + ky^2 in frequency domain (DC bin forced to
// zero), inverse FFT for potential, then central-difference gradients
// with periodic wraparound for force. W and H must both be powers of two
// (ErrNotPowerOfTwo otherwise). Solve is pure except for the Result it
// returns — no hidden state carries between calls.
func Solve(density []float64, w, h int, binW, binH float64) (Result, error) {
	if len(density) != w*h {
		return Result{}, fmt.Errorf("%w: len=%d want=%d", ErrLengthMismatch, len(density), w*h)
	}
	if !isPowerOfTwo(w) || !isPowerOfTwo(h) {
		return Result{}, fmt.Errorf("%w: w=%d h=%d", ErrNotPowerOfTwo, w, h)
	}

	buf := make([]complex128, w*h)
	for i, d := range density {
		buf[i] = complex(d, 0)
	}
	if err := FFT2D(buf, w, h, false); err != nil {
		return Result{}, err
	}

	kxScale := 2 * math.Pi / (float64(w) * binW)
	kyScale := 2 * math.Pi / (float64(h) * binH)
	for v := 0; v < h; v++ {
		ky := signedFreq(v, h) * kyScale
		for u := 0; u < w; u++ {
			kx := signedFreq(u, w) * kxScale
			idx := v*w + u
			if u == 0 && v == 0 {
				buf[idx] = 0
				continue
			}
			denom := kx*kx + ky*ky
			buf[idx] = buf[idx] / complex(denom, 0)
		}
	}

	if err := FFT2D(buf, w, h, true); err != nil {
		return Result{}, err
	}

	potential := make([]float64, w*h)
	for i, c := range buf {
		re := real(c)
		if math.IsNaN(re) || math.IsInf(re, 0) {
			return Result{}, ErrNaN
		}
		potential[i] = re
	}

	fx := make([]float64, w*h)
	fy := make([]float64, w*h)
	var sumMag, maxMag, maxPot float64
	idxOf := func(x, y int) int { return y*w + x }
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			xp, xm := (x+1)%w, (x-1+w)%w
			yp, ym := (y+1)%h, (y-1+h)%h
			dPhiDx := (potential[idxOf(xp, y)] - potential[idxOf(xm, y)]) / (2 * binW)
			dPhiDy := (potential[idxOf(x, yp)] - potential[idxOf(x, ym)]) / (2 * binH)
			i := idxOf(x, y)
			fx[i] = -dPhiDx
			fy[i] = -dPhiDy
			mag := math.Hypot(fx[i], fy[i])
			sumMag += mag
			if mag > maxMag {
				maxMag = mag
			}
			if pv := potential[i]; pv > maxPot {
				maxPot = pv
			}
		}
	}

	return Result{
		Potential:    potential,
		ForceX:       fx,
		ForceY:       fy,
		MaxPotential: maxPot,
		MeanForceMag: sumMag / float64(w*h),
		MaxForceMag:  maxMag,
	}, nil
}

// signedFreq maps a raw FFT bin index i in [0,n) to its signed frequency
// index in (-n/2, n/2].
func signedFreq(i, n int) float64 {
	if i <= n/2 {
		return float64(i)
	}
	return float64(i - n)
}

// NextPowerOfTwo returns the smallest power of two >= n (n >= 1).
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
