// Package optics models the electron probe used by the SSB transfer-function
// estimator.
//
// Units follow the usual microscopy conventions: lengths and aberration
// coefficients in Ångström, spatial frequencies in Å⁻¹, beam energy in eV.
//
// The probe is built in reciprocal space as a soft-edged circular aperture
// whose amplitude is normalised to unit total intensity, multiplied by the
// phase factor exp(-iχ(q)) of a rotationally symmetric aberration function
// with defocus (C10) and spherical aberration (C30) terms.
package optics

import (
	"errors"
	"fmt"
	"math"
)

// Physical constants (CODATA 2018, exact where defined).
const (
	planck        = 6.62607015e-34   // J·s
	electronMass  = 9.1093837015e-31 // kg
	electronVolt  = 1.602176634e-19  // C
	speedOfLight  = 299792458.0      // m/s
	metreToAngstr = 1e10
)

// Parameter errors. Callers match them with errors.Is.
var (
	ErrInvalidEnergy     = errors.New("beam energy must be positive")
	ErrInvalidWavelength = errors.New("wavelength must be positive")
	ErrInvalidAperture   = errors.New("probe aperture must be positive")
	ErrEmptyAperture     = errors.New("probe aperture covers no grid point")
)

// ElectronWavelength returns the relativistic de Broglie wavelength in Å
// for electrons accelerated through energyEV.
func ElectronWavelength(energyEV float64) (float64, error) {
	if !(energyEV > 0) || math.IsInf(energyEV, 0) {
		return 0, fmt.Errorf("%w: %v eV", ErrInvalidEnergy, energyEV)
	}
	eE := electronVolt * energyEV
	p := math.Sqrt(2 * electronMass * eE * (1 + eE/(2*electronMass*speedOfLight*speedOfLight)))
	return planck / p * metreToAngstr, nil
}

// Aberrations holds the rotationally symmetric aberration coefficients in Å.
type Aberrations struct {
	C10 float64 `yaml:"c10"` // defocus
	C30 float64 `yaml:"c30"` // spherical aberration
}

// Chi evaluates the aberration phase at spatial frequency q:
//
//	χ(q) = 2π/λ · ((qλ)²/2 · C10 + (qλ)⁴/4 · C30)
func Chi(q, wavelength float64, ab Aberrations) float64 {
	alpha := q * wavelength
	alpha2 := alpha * alpha
	order2 := alpha2 / 2 * ab.C10
	order4 := alpha2 * alpha2 / 4 * ab.C30
	return (order2 + order4) * 2 * math.Pi / wavelength
}

// ChiGrid evaluates Chi for every entry of q.
func ChiGrid(q []float64, wavelength float64, ab Aberrations) []float64 {
	out := make([]float64, len(q))
	for i, v := range q {
		out[i] = Chi(v, wavelength, ab)
	}
	return out
}

// QProbeFromSemiangle converts a convergence semiangle in mrad to the
// aperture radius in Å⁻¹.
func QProbeFromSemiangle(mrad, wavelength float64) float64 {
	return mrad * 1e-3 / wavelength
}
