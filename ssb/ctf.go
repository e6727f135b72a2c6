// Package ssb computes the single-sideband (SSB) ptychographic contrast
// transfer function of an electron probe.
//
// For every spatial frequency s below the cutoff, the SSB weighting is half
// the summed magnitude of the double-overlap term formed by the probe and
// its copies shifted by +s and -s:
//
//	CTF(s) = ½ Σ_q | ψ*(q)·ψ(q−s) − ψ(q)·ψ*(q+s) |
//
// Frequencies at or above the cutoff are zero. The computation is a pure,
// deterministic function of its inputs; rows of the output are independent
// and may be distributed across goroutines without changing the result.
package ssb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/sbl8/ssbctf/core"
	"github.com/sbl8/ssbctf/kernels"
)

// Errors returned for malformed inputs. Callers match them with errors.Is.
var (
	ErrGridMismatch = errors.New("frequency grid does not match probe")
	ErrInvalidQMax  = errors.New("cutoff frequency must be positive")
	ErrInvalidBins  = errors.New("invalid radial profile binning")
)

// Options tunes CTF evaluation. The zero value uses one worker per CPU.
type Options struct {
	Workers int
}

func (o Options) workers(rows int) int {
	w := o.Workers
	if w <= 0 {
		w = runtime.NumCPU()
	}
	if w > rows {
		w = rows
	}
	return w
}

func validateInputs(probe core.Field, q []float64, qMax float64) error {
	if err := probe.Validate(); err != nil {
		return err
	}
	if len(q) != len(probe.Data) {
		return fmt.Errorf("%w: %d frequencies for %d samples", ErrGridMismatch, len(q), len(probe.Data))
	}
	if !(qMax > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidQMax, qMax)
	}
	return nil
}

// CTF evaluates the SSB transfer function of probe on the frequency
// magnitudes q (same layout as probe.Data). The result is an N×N matrix
// indexed by shift (sx, sy).
func CTF(ctx context.Context, probe core.Field, q []float64, qMax float64, opts Options) (*mat.Dense, error) {
	if err := validateInputs(probe, q, qMax); err != nil {
		return nil, err
	}

	n := probe.N
	out := mat.NewDense(n, n, nil)
	rows := make(chan int, n)
	for sx := 0; sx < n; sx++ {
		rows <- sx
	}
	close(rows)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < opts.workers(n); w++ {
		g.Go(func() error {
			for sx := range rows {
				if err := gctx.Err(); err != nil {
					return err
				}
				// each worker owns whole rows; mat.Dense.Set on distinct rows is race free
				for sy := 0; sy < n; sy++ {
					if q[sx*n+sy] < qMax {
						out.Set(sx, sy, kernels.OverlapSum(probe.Data, n, sx, sy)/2)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CTFReference is the literal shifted-copy formulation of CTF. It is slow
// and single threaded; it exists as an oracle for tests and benchmarks.
func CTFReference(probe core.Field, q []float64, qMax float64) (*mat.Dense, error) {
	if err := validateInputs(probe, q, qMax); err != nil {
		return nil, err
	}

	n := probe.N
	size := n * n
	conj := kernels.GetScratch(size)
	plus := kernels.GetScratch(size)
	minus := kernels.GetScratch(size)
	gamma := kernels.GetScratch(size)
	defer func() {
		kernels.PutScratch(conj)
		kernels.PutScratch(plus)
		kernels.PutScratch(minus)
		kernels.PutScratch(gamma)
	}()
	kernels.Conj(conj, probe.Data)

	out := mat.NewDense(n, n, nil)
	for sx := 0; sx < n; sx++ {
		for sy := 0; sy < n; sy++ {
			if !(q[sx*n+sy] < qMax) {
				continue
			}
			kernels.Roll(plus, probe.Data, n, -sx, -sy)
			kernels.Roll(minus, probe.Data, n, sx, sy)
			kernels.Conj(plus, plus)
			for i := range gamma {
				gamma[i] = conj[i]*minus[i] - probe.Data[i]*plus[i]
			}
			out.Set(sx, sy, kernels.AbsSum(gamma)/2)
		}
	}
	return out, nil
}

// Bin is one ring of a radial profile.
type Bin struct {
	Q     float64 // ring centre, Å⁻¹
	Mean  float64
	Count int
}

// RadialProfile averages m over rings of width binWidth in |q|.
// Rings that contain no grid point are omitted. Frequencies must be finite
// and non-negative, and there may be at most one ring per grid point.
func RadialProfile(m mat.Matrix, q []float64, binWidth float64) ([]Bin, error) {
	r, c := m.Dims()
	if r*c != len(q) {
		return nil, fmt.Errorf("%w: %d frequencies for %dx%d matrix", ErrGridMismatch, len(q), r, c)
	}
	if !(binWidth > 0) || math.IsInf(binWidth, 0) {
		return nil, fmt.Errorf("%w: bin width must be positive: %v", ErrInvalidBins, binWidth)
	}

	var qMax float64
	for i, v := range q {
		if !(v >= 0) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: frequency %d is %v", ErrInvalidBins, i, v)
		}
		qMax = math.Max(qMax, v)
	}
	if qMax/binWidth >= float64(len(q)) {
		return nil, fmt.Errorf("%w: bin width %v gives more rings than the %d grid points",
			ErrInvalidBins, binWidth, len(q))
	}
	nbins := int(qMax/binWidth) + 1
	sums := make([]float64, nbins)
	counts := make([]int, nbins)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			b := int(q[i*c+j] / binWidth)
			sums[b] += m.At(i, j)
			counts[b]++
		}
	}

	bins := make([]Bin, 0, nbins)
	for b, cnt := range counts {
		if cnt == 0 {
			continue
		}
		bins = append(bins, Bin{
			Q:     (float64(b) + 0.5) * binWidth,
			Mean:  sums[b] / float64(cnt),
			Count: cnt,
		})
	}
	return bins, nil
}
