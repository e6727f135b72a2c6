package optics

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"

	"github.com/sbl8/ssbctf/core"
	"github.com/sbl8/ssbctf/kernels"
)

// ProbeParams describes the illumination.
type ProbeParams struct {
	Wavelength  float64 // Å
	Aberrations Aberrations
	QProbe      float64 // aperture radius, Å⁻¹
}

// Validate rejects parameters that cannot produce a probe.
func (p ProbeParams) Validate() error {
	if !(p.Wavelength > 0) || math.IsInf(p.Wavelength, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidWavelength, p.Wavelength)
	}
	if !(p.QProbe > 0) || math.IsInf(p.QProbe, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidAperture, p.QProbe)
	}
	return nil
}

// ApertureAmplitude returns the normalised soft-edged aperture amplitude.
// The edge ramps linearly in intensity over one reciprocal pixel centred
// on QProbe, and the result satisfies Σ|A|² = 1.
func ApertureAmplitude(g core.Grid, qProbe float64) ([]float64, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	dq := g.ReciprocalSampling()
	q := g.Q()

	amp := make([]float64, len(q))
	intensity := make([]float64, len(q))
	for i, v := range q {
		w := (qProbe-v)/dq + 0.5
		w = math.Max(0, math.Min(1, w))
		amp[i] = math.Sqrt(w)
		intensity[i] = w
	}

	total := floats.Sum(intensity)
	if total == 0 {
		return nil, ErrEmptyAperture
	}
	floats.Scale(1/math.Sqrt(total), amp)
	return amp, nil
}

// ComplexProbe builds the reciprocal-space probe A(q)·exp(-iχ(q)).
func ComplexProbe(g core.Grid, p ProbeParams) (core.Field, error) {
	if err := p.Validate(); err != nil {
		return core.Field{}, err
	}
	amp, err := ApertureAmplitude(g, p.QProbe)
	if err != nil {
		return core.Field{}, err
	}

	chi := ChiGrid(g.Q(), p.Wavelength, p.Aberrations)
	field := core.NewField(g)
	for i, a := range amp {
		if a == 0 {
			continue
		}
		field.Data[i] = complex(a, 0) * cmplx.Exp(complex(0, -chi[i]))
	}
	return field, nil
}

// RealSpaceProbe returns the inverse 2-D Fourier transform of a reciprocal
// probe, scaled by 1/N so that total intensity is preserved, and rolled so
// that the probe centre sits at (N/2, N/2).
func RealSpaceProbe(f core.Field) (core.Field, error) {
	if err := f.Validate(); err != nil {
		return core.Field{}, err
	}
	n := f.N
	fft := fourier.NewCmplxFFT(n)
	work := f.Clone()

	// rows
	for x := 0; x < n; x++ {
		row := work.Data[x*n : (x+1)*n]
		fft.Sequence(row, row)
	}

	// columns through pooled scratch
	col := columnPool.Get(n)
	defer columnPool.Put(col)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			col[x] = work.Data[x*n+y]
		}
		fft.Sequence(col, col)
		for x := 0; x < n; x++ {
			work.Data[x*n+y] = col[x] / complex(float64(n), 0)
		}
	}

	out := core.NewField(f.Grid())
	kernels.Roll(out.Data, work.Data, n, n/2, n/2)
	return out, nil
}

var columnPool = kernels.NewPool(8)
