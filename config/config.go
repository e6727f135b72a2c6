// Package config loads the YAML description of a simulation: microscope,
// aberrations, sampling grid, SSB cutoff, optional parameter sweep, output
// and logging settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sbl8/ssbctf/core"
	"github.com/sbl8/ssbctf/optics"
)

// Config is the root of a simulation file.
type Config struct {
	Microscope  MicroscopeConfig   `yaml:"microscope"`
	Aberrations optics.Aberrations `yaml:"aberrations"`
	Grid        GridConfig         `yaml:"grid"`
	SSB         SSBConfig          `yaml:"ssb"`
	Sweep       SweepConfig        `yaml:"sweep"`
	Output      OutputConfig       `yaml:"output"`
	Logging     LoggingConfig      `yaml:"logging"`
}

// MicroscopeConfig sets the illumination. Wavelength wins over EnergyEV,
// QProbe wins over SemiangleMrad.
type MicroscopeConfig struct {
	EnergyEV      float64 `yaml:"energy_ev"`
	Wavelength    float64 `yaml:"wavelength"` // Å
	SemiangleMrad float64 `yaml:"semiangle_mrad"`
	QProbe        float64 `yaml:"q_probe"` // Å⁻¹
}

// GridConfig is the square simulation grid: N pixels per side at Sampling Å.
type GridConfig struct {
	N        int     `yaml:"n"`
	Sampling float64 `yaml:"sampling"` // Å per pixel
}

// SSBConfig controls CTF evaluation. A zero QMax means twice the aperture.
type SSBConfig struct {
	QMax       float64 `yaml:"q_max"`
	Workers    int     `yaml:"workers"`
	ProfileBin float64 `yaml:"profile_bin"` // Å⁻¹, 0 = one reciprocal pixel
}

// SweepConfig lists aberration values to scan. An empty list keeps the
// base value from Aberrations.
type SweepConfig struct {
	C10     []float64 `yaml:"c10"`
	C30     []float64 `yaml:"c30"`
	Workers int       `yaml:"workers"`
}

// OutputConfig names the result directory and the export formats to write.
type OutputConfig struct {
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Formats understood by the export package.
var knownFormats = map[string]bool{
	"csv":     true,
	"png":     true,
	"profile": true,
	"field":   true,
}

// Default returns a 300 kV, 20 mrad configuration on a 64×64 grid.
func Default() Config {
	return Config{
		Microscope: MicroscopeConfig{
			EnergyEV:      300e3,
			SemiangleMrad: 20,
		},
		Grid: GridConfig{
			N:        64,
			Sampling: 0.2,
		},
		Output: OutputConfig{
			Dir:     "out",
			Formats: []string{"csv", "png"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads and validates the config at path, layered over Default and
// followed by environment overrides.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		kind := KindExecution
		if errors.Is(err, os.ErrNotExist) {
			kind = KindNotFound
		}
		return Config{}, &OpError{Op: "config.load", Kind: kind, Path: path, Err: err}
	}
	return Parse(b, path)
}

// Parse decodes YAML bytes; path is only used for error context.
func Parse(b []byte, path string) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &OpError{Op: "config.parse", Kind: KindInvalidConfig, Path: path, Err: err}
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return Config{}, &OpError{Op: "config.env", Kind: KindInvalidConfig, Path: path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		var oe *OpError
		if errors.As(err, &oe) {
			oe.Path = path
		}
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies SSBCTF_* environment variables.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("SSBCTF_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SSBCTF_WORKERS: %w", err)
		}
		c.SSB.Workers = n
	}
	if v := os.Getenv("SSBCTF_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SSBCTF_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	return nil
}

func invalid(format string, args ...any) error {
	return &OpError{Op: "config.validate", Kind: KindInvalidConfig, Err: fmt.Errorf(format, args...)}
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(name string, vs []float64) error {
	for i, v := range vs {
		if !finite(v) {
			return invalid("sweep: %s[%d] = %v must be finite", name, i, v)
		}
	}
	return nil
}

// Validate checks that the configuration describes a computable probe.
func (c Config) Validate() error {
	m := c.Microscope
	if m.Wavelength == 0 && !positive(m.EnergyEV) {
		return invalid("microscope: energy_ev or wavelength must be positive")
	}
	if m.Wavelength != 0 && !positive(m.Wavelength) {
		return invalid("microscope: wavelength %v must be positive", m.Wavelength)
	}
	if m.QProbe == 0 && !positive(m.SemiangleMrad) {
		return invalid("microscope: semiangle_mrad or q_probe must be positive")
	}
	if m.QProbe != 0 && !positive(m.QProbe) {
		return invalid("microscope: q_probe %v must be positive", m.QProbe)
	}
	if !finite(c.Aberrations.C10) || !finite(c.Aberrations.C30) {
		return invalid("aberrations: c10 %v and c30 %v must be finite", c.Aberrations.C10, c.Aberrations.C30)
	}
	if err := allFinite("c10", c.Sweep.C10); err != nil {
		return err
	}
	if err := allFinite("c30", c.Sweep.C30); err != nil {
		return err
	}
	if err := c.SamplingGrid().Validate(); err != nil {
		return invalid("grid: %v", err)
	}
	if c.SSB.QMax < 0 || math.IsNaN(c.SSB.QMax) {
		return invalid("ssb: q_max %v must not be negative", c.SSB.QMax)
	}
	if c.SSB.ProfileBin < 0 || !finite(c.SSB.ProfileBin) {
		return invalid("ssb: profile_bin %v must be finite and not negative", c.SSB.ProfileBin)
	}
	// The largest |q| on the grid is the corner, sqrt(2)/(2·sampling).
	// Allow at most one profile ring per grid point.
	if bin := c.SSB.ProfileBin; bin > 0 {
		corner := math.Sqrt2 / (2 * c.Grid.Sampling)
		if corner/bin >= float64(c.Grid.N*c.Grid.N) {
			return invalid("ssb: profile_bin %v is too fine for a %dx%d grid", bin, c.Grid.N, c.Grid.N)
		}
	}
	if c.SSB.Workers < 0 || c.Sweep.Workers < 0 {
		return invalid("workers must not be negative")
	}
	for _, f := range c.Output.Formats {
		if !knownFormats[strings.ToLower(f)] {
			return invalid("output: unknown format %q", f)
		}
	}
	return nil
}

// Wavelength returns the electron wavelength in Å.
func (c Config) Wavelength() (float64, error) {
	if c.Microscope.Wavelength != 0 {
		return c.Microscope.Wavelength, nil
	}
	return optics.ElectronWavelength(c.Microscope.EnergyEV)
}

// QProbe returns the aperture radius in Å⁻¹.
func (c Config) QProbe() (float64, error) {
	if c.Microscope.QProbe != 0 {
		return c.Microscope.QProbe, nil
	}
	wavelength, err := c.Wavelength()
	if err != nil {
		return 0, err
	}
	return optics.QProbeFromSemiangle(c.Microscope.SemiangleMrad, wavelength), nil
}

// QMax returns the SSB cutoff, defaulting to twice the aperture radius.
func (c Config) QMax() (float64, error) {
	if c.SSB.QMax > 0 {
		return c.SSB.QMax, nil
	}
	qProbe, err := c.QProbe()
	if err != nil {
		return 0, err
	}
	return 2 * qProbe, nil
}

// SamplingGrid returns the core grid described by the grid section.
func (c Config) SamplingGrid() core.Grid {
	return core.Grid{N: c.Grid.N, Sampling: c.Grid.Sampling}
}

// ProbeParams resolves the microscope and aberration sections.
func (c Config) ProbeParams() (optics.ProbeParams, error) {
	wavelength, err := c.Wavelength()
	if err != nil {
		return optics.ProbeParams{}, err
	}
	qProbe, err := c.QProbe()
	if err != nil {
		return optics.ProbeParams{}, err
	}
	return optics.ProbeParams{
		Wavelength:  wavelength,
		Aberrations: c.Aberrations,
		QProbe:      qProbe,
	}, nil
}
