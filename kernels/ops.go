// Package kernels provides the complex-array operations behind the SSB
// transfer-function estimator.
//
// All kernels operate on row-major n×n complex128 slices with periodic
// boundaries, matching the unshifted FFT layout used by package core.
// They never allocate; callers supply destination and scratch buffers,
// optionally taken from a Pool.
//
// Available operations:
//   - Shifts: Roll (numpy/torch roll semantics)
//   - Elementwise: Conj, Scale
//   - Reductions: AbsSum, OverlapSum
package kernels

import (
	"math/cmplx"
)

// wrap reduces i into [0, n).
func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Roll circularly shifts src by (sx, sy) into dst so that
// dst[i,j] = src[(i-sx) mod n, (j-sy) mod n]. dst and src must not overlap.
func Roll(dst, src []complex128, n, sx, sy int) {
	if len(dst) < n*n || len(src) < n*n {
		panic("kernels: roll buffer shorter than n*n")
	}
	sx, sy = wrap(sx, n), wrap(sy, n)
	for i := 0; i < n; i++ {
		si := i - sx
		if si < 0 {
			si += n
		}
		d := dst[i*n : (i+1)*n]
		s := src[si*n : (si+1)*n]
		// a row roll is two contiguous copies
		copy(d[sy:], s[:n-sy])
		copy(d[:sy], s[n-sy:])
	}
}

// Conj writes the complex conjugate of src into dst.
func Conj(dst, src []complex128) {
	if len(dst) != len(src) {
		panic("kernels: vector length mismatch")
	}
	for i, v := range src {
		dst[i] = cmplx.Conj(v)
	}
}

// Scale multiplies every element of data by alpha in place.
func Scale(alpha complex128, data []complex128) {
	for i := range data {
		data[i] *= alpha
	}
}

// AbsSum returns Σ|v|.
func AbsSum(data []complex128) float64 {
	var sum float64
	for _, v := range data {
		sum += cmplx.Abs(v)
	}
	return sum
}

// OverlapSum evaluates the SSB double-overlap magnitude for shift (sx, sy):
//
//	Σ_{i,j} | conj(p[i,j])·p[i-sx,j-sy] − p[i,j]·conj(p[i+sx,j+sy]) |
//
// with periodic indices. It is equivalent to building both rolled copies
// of p and summing the magnitude of the combined cross terms, without the
// two n×n temporaries.
func OverlapSum(p []complex128, n, sx, sy int) float64 {
	if len(p) < n*n {
		panic("kernels: overlap buffer shorter than n*n")
	}
	sx, sy = wrap(sx, n), wrap(sy, n)

	var sum float64
	for i := 0; i < n; i++ {
		im := i - sx
		if im < 0 {
			im += n
		}
		ip := i + sx
		if ip >= n {
			ip -= n
		}
		row := p[i*n : (i+1)*n]
		minus := p[im*n : (im+1)*n]
		plus := p[ip*n : (ip+1)*n]

		for j, v := range row {
			if v == 0 {
				continue
			}
			jm := j - sy
			if jm < 0 {
				jm += n
			}
			jp := j + sy
			if jp >= n {
				jp -= n
			}
			gamma := cmplx.Conj(v)*minus[jm] - v*cmplx.Conj(plus[jp])
			sum += cmplx.Abs(gamma)
		}
	}
	return sum
}
