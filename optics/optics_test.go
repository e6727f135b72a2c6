package optics

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbl8/ssbctf/core"
)

func TestElectronWavelength(t *testing.T) {
	tests := []struct {
		energy float64
		want   float64 // Å
	}{
		{energy: 80e3, want: 0.041757},
		{energy: 200e3, want: 0.025079},
		{energy: 300e3, want: 0.019687},
	}
	for _, tt := range tests {
		got, err := ElectronWavelength(tt.energy)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 5e-6, "energy %v", tt.energy)
	}

	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := ElectronWavelength(bad)
		assert.ErrorIs(t, err, ErrInvalidEnergy)
	}
}

func TestChiZeroAtOrigin(t *testing.T) {
	assert.Equal(t, 0.0, Chi(0, 0.0197, Aberrations{C10: 123, C30: 4e6}))
}

func TestChiTerms(t *testing.T) {
	const (
		wavelength = 0.025
		q          = 0.8
	)
	alpha := q * wavelength
	prefactor := 2 * math.Pi / wavelength

	assert.InDelta(t, prefactor*alpha*alpha/2*100, Chi(q, wavelength, Aberrations{C10: 100}), 1e-12)
	assert.InDelta(t, prefactor*math.Pow(alpha, 4)/4*1e6, Chi(q, wavelength, Aberrations{C30: 1e6}), 1e-12)

	// linear in the coefficients
	a := Aberrations{C10: -40, C30: 2e5}
	b := Aberrations{C10: 15, C30: -7e4}
	sum := Aberrations{C10: a.C10 + b.C10, C30: a.C30 + b.C30}
	assert.InDelta(t, Chi(q, wavelength, a)+Chi(q, wavelength, b), Chi(q, wavelength, sum), 1e-9)

	// even in q
	assert.Equal(t, Chi(q, wavelength, a), Chi(-q, wavelength, a))
}

func TestChiGrid(t *testing.T) {
	q := []float64{0, 0.5, 1}
	ab := Aberrations{C10: 10}
	got := ChiGrid(q, 0.02, ab)
	require.Len(t, got, 3)
	for i, v := range q {
		assert.Equal(t, Chi(v, 0.02, ab), got[i])
	}
}

func TestQProbeFromSemiangle(t *testing.T) {
	assert.InDelta(t, 1.0, QProbeFromSemiangle(25, 0.025), 1e-12)
}

func TestProbeParamsValidate(t *testing.T) {
	ok := ProbeParams{Wavelength: 0.02, QProbe: 1}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Wavelength = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidWavelength)

	bad = ok
	bad.QProbe = math.NaN()
	assert.ErrorIs(t, bad.Validate(), ErrInvalidAperture)
}

func TestApertureAmplitude(t *testing.T) {
	g := core.Grid{N: 32, Sampling: 0.2}
	amp, err := ApertureAmplitude(g, 1.0)
	require.NoError(t, err)

	var total float64
	q := g.Q()
	dq := g.ReciprocalSampling()
	for i, a := range amp {
		total += a * a
		if q[i] >= 1.0+0.5*dq {
			assert.Equal(t, 0.0, a, "outside aperture at q=%v", q[i])
		}
	}
	assert.InDelta(t, 1.0, total, 1e-12)
	assert.Greater(t, amp[0], 0.0)

	_, err = ApertureAmplitude(g, -10)
	assert.ErrorIs(t, err, ErrEmptyAperture)

	_, err = ApertureAmplitude(core.Grid{}, 1)
	assert.ErrorIs(t, err, core.ErrInvalidGrid)
}

func TestComplexProbe(t *testing.T) {
	g := core.Grid{N: 24, Sampling: 0.25}
	params := ProbeParams{
		Wavelength:  0.0197,
		Aberrations: Aberrations{C10: -80, C30: 3e4},
		QProbe:      1.2,
	}
	probe, err := ComplexProbe(g, params)
	require.NoError(t, err)
	require.NoError(t, probe.Validate())

	amp, err := ApertureAmplitude(g, params.QProbe)
	require.NoError(t, err)
	chi := ChiGrid(g.Q(), params.Wavelength, params.Aberrations)

	var intensity float64
	for i, v := range probe.Data {
		intensity += real(v)*real(v) + imag(v)*imag(v)
		assert.InDelta(t, amp[i], cmplx.Abs(v), 1e-12)
		if amp[i] > 0 {
			want := cmplx.Exp(complex(0, -chi[i]))
			got := v / complex(amp[i], 0)
			assert.InDelta(t, 0.0, cmplx.Abs(got-want), 1e-9)
		}
	}
	assert.InDelta(t, 1.0, intensity, 1e-12)

	_, err = ComplexProbe(g, ProbeParams{QProbe: 1})
	assert.ErrorIs(t, err, ErrInvalidWavelength)
}

func TestRealSpaceProbe(t *testing.T) {
	g := core.Grid{N: 16, Sampling: 0.3}
	probe, err := ComplexProbe(g, ProbeParams{Wavelength: 0.0251, QProbe: 0.8})
	require.NoError(t, err)

	rs, err := RealSpaceProbe(probe)
	require.NoError(t, err)
	require.Len(t, rs.Data, g.Size())

	var before, after float64
	for _, v := range probe.Intensity() {
		before += v
	}
	peak, peakAt := 0.0, -1
	for i, v := range rs.Intensity() {
		after += v
		if v > peak {
			peak, peakAt = v, i
		}
	}
	assert.InDelta(t, before, after, 1e-12, "intensity preserved")
	assert.Equal(t, rs.Index(g.N/2, g.N/2), peakAt, "aberration-free probe is centred")

	_, err = RealSpaceProbe(core.Field{N: 2, Sampling: 1})
	assert.ErrorIs(t, err, core.ErrInvalidField)
}
