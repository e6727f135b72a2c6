package core

import (
	"errors"
	"fmt"
)

// Field is a complex wavefunction sampled on a Grid.
// Data is row-major: element (x, y) lives at x*N+y.
type Field struct {
	N        int
	Sampling float64
	Data     []complex128
}

// ErrInvalidField is returned when a field's storage does not match its size.
var ErrInvalidField = errors.New("invalid field")

// NewField allocates a zeroed field on grid g.
func NewField(g Grid) Field {
	return Field{
		N:        g.N,
		Sampling: g.Sampling,
		Data:     make([]complex128, g.Size()),
	}
}

// Grid returns the sampling the field lives on.
func (f Field) Grid() Grid {
	return Grid{N: f.N, Sampling: f.Sampling}
}

// Validate checks the grid and that Data holds exactly N² samples.
func (f Field) Validate() error {
	if err := f.Grid().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	if len(f.Data) != f.N*f.N {
		return fmt.Errorf("%w: %d samples for %dx%d grid", ErrInvalidField, len(f.Data), f.N, f.N)
	}
	return nil
}

// Index maps (x, y) to the flat offset in Data.
func (f Field) Index(x, y int) int {
	return x*f.N + y
}

// At returns the sample at (x, y).
func (f Field) At(x, y int) complex128 {
	return f.Data[x*f.N+y]
}

// Set stores v at (x, y).
func (f Field) Set(x, y int, v complex128) {
	f.Data[x*f.N+y] = v
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := Field{N: f.N, Sampling: f.Sampling, Data: make([]complex128, len(f.Data))}
	copy(out.Data, f.Data)
	return out
}

// Intensity returns |f|² per sample.
func (f Field) Intensity() []float64 {
	out := make([]float64, len(f.Data))
	for i, v := range f.Data {
		re, im := real(v), imag(v)
		out[i] = re*re + im*im
	}
	return out
}
