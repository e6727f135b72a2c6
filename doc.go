// Package ssbctf computes single-sideband (SSB) ptychographic contrast
// transfer functions for aberrated electron probes.
//
// A probe is modelled in reciprocal space as a soft-edged circular aperture
// multiplied by exp(-iχ(q)), where χ is a rotationally symmetric aberration
// phase with defocus (C10) and spherical-aberration (C30) terms. For every
// spatial frequency below a cutoff, the SSB weighting is half the summed
// magnitude of the overlap between the probe and its copies shifted by ±q.
//
// # Basic Usage
//
//	grid := core.Grid{N: 64, Sampling: 0.2}
//	wavelength, _ := optics.ElectronWavelength(300e3)
//	params := optics.ProbeParams{
//	    Wavelength:  wavelength,
//	    Aberrations: optics.Aberrations{C10: -100},
//	    QProbe:      optics.QProbeFromSemiangle(20, wavelength),
//	}
//	probe, err := optics.ComplexProbe(grid, params)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctf, err := ssb.CTF(ctx, probe, grid.Q(), 2*params.QProbe, ssb.Options{})
//
// # Package Structure
//
//   - core: sampling grids, complex fields and their binary file format
//   - optics: electron wavelength, aberration phase, probe construction
//   - kernels: periodic complex-array kernels (roll, overlap sums)
//   - ssb: the transfer-function estimator and radial profiles
//   - engine: concurrent parameter sweeps
//   - config: YAML simulation files
//   - export: CSV, PNG and field writers
//   - cmd: command-line tools (ssbctf, ssbperf)
package ssbctf
