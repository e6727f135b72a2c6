// Package core provides the sampling primitives shared by every ssbctf
// computation.
//
// A Grid describes a square N×N reciprocal-space sampling derived from a
// real-space pixel size, and a Field holds a complex wavefunction sampled on
// that grid. Both use the unshifted FFT ordering: index 0 is zero frequency,
// positive frequencies follow, and the negative half wraps around from the
// end of each axis.
//
// Key components:
//   - Grid: size, sampling and spatial-frequency generation
//   - Field: row-major complex128 storage with axis 0 as the x axis
//   - Binary persistence of fields for reuse between CLI invocations
package core

import (
	"errors"
	"fmt"
	"math"
)

// Grid is an N×N sampling with real-space pixel size Sampling (Å).
type Grid struct {
	N        int
	Sampling float64
}

// ErrInvalidGrid is returned for grids that cannot be sampled.
var ErrInvalidGrid = errors.New("invalid grid")

// Validate checks that the grid has at least one pixel and a finite,
// positive sampling.
func (g Grid) Validate() error {
	if g.N < 1 {
		return fmt.Errorf("%w: size %d", ErrInvalidGrid, g.N)
	}
	if !(g.Sampling > 0) || math.IsInf(g.Sampling, 0) {
		return fmt.Errorf("%w: sampling %v", ErrInvalidGrid, g.Sampling)
	}
	return nil
}

// Size returns the number of grid points.
func (g Grid) Size() int {
	return g.N * g.N
}

// ReciprocalSampling returns the spacing of the frequency grid in Å⁻¹.
func (g Grid) ReciprocalSampling() float64 {
	return 1 / (float64(g.N) * g.Sampling)
}

// Frequencies returns the spatial frequencies of one axis in FFT order.
func (g Grid) Frequencies() []float64 {
	freqs := make([]float64, g.N)
	dq := g.ReciprocalSampling()
	half := (g.N + 1) / 2
	for i := range freqs {
		k := i
		if i >= half {
			k = i - g.N
		}
		freqs[i] = float64(k) * dq
	}
	return freqs
}

// Q returns |q| for every grid point, row-major with kx along axis 0.
func (g Grid) Q() []float64 {
	freqs := g.Frequencies()
	q := make([]float64, g.Size())
	for x, kx := range freqs {
		row := q[x*g.N : (x+1)*g.N]
		for y, ky := range freqs {
			row[y] = math.Hypot(kx, ky)
		}
	}
	return q
}
