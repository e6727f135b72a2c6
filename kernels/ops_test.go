package kernels

import (
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

// randomField returns a reproducible n×n complex slice.
func randomField(n int, seed int64) []complex128 {
	r := rand.New(rand.NewSource(seed))
	out := make([]complex128, n*n)
	for i := range out {
		out[i] = complex(r.Float64()*2-1, r.Float64()*2-1)
	}
	return out
}

// rollGo is the modulo-indexed reference for Roll.
func rollGo(src []complex128, n, sx, sy int) []complex128 {
	out := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			si := ((i-sx)%n + n) % n
			sj := ((j-sy)%n + n) % n
			out[i*n+j] = src[si*n+sj]
		}
	}
	return out
}

// overlapGo mirrors the roll-based formulation literally.
func overlapGo(p []complex128, n, sx, sy int) float64 {
	minus := rollGo(p, n, sx, sy)
	plus := rollGo(p, n, -sx, -sy)
	var sum float64
	for i := range p {
		gamma := cmplx.Conj(p[i])*minus[i] - p[i]*cmplx.Conj(plus[i])
		sum += cmplx.Abs(gamma)
	}
	return sum
}

func TestRoll(t *testing.T) {
	// 3x3 with values 0..8
	src := make([]complex128, 9)
	for i := range src {
		src[i] = complex(float64(i), 0)
	}
	dst := make([]complex128, 9)

	Roll(dst, src, 3, 1, 0)
	assert.Equal(t, []complex128{6, 7, 8, 0, 1, 2, 3, 4, 5}, dst)

	Roll(dst, src, 3, 0, 1)
	assert.Equal(t, []complex128{2, 0, 1, 5, 3, 4, 8, 6, 7}, dst)

	Roll(dst, src, 3, -1, -1)
	assert.Equal(t, []complex128{4, 5, 3, 7, 8, 6, 1, 2, 0}, dst)
}

func TestRollMatchesReference(t *testing.T) {
	for _, n := range []int{1, 2, 5, 8} {
		src := randomField(n, int64(n))
		dst := make([]complex128, n*n)
		for _, shift := range [][2]int{{0, 0}, {1, 2}, {-3, 1}, {n, -n}, {2*n + 1, -1}} {
			Roll(dst, src, n, shift[0], shift[1])
			assert.Equal(t, rollGo(src, n, shift[0], shift[1]), dst, "n=%d shift=%v", n, shift)
		}
	}
}

func TestRollPanicsOnShortBuffer(t *testing.T) {
	assert.Panics(t, func() {
		Roll(make([]complex128, 3), make([]complex128, 4), 2, 1, 1)
	})
}

func TestConjAndScale(t *testing.T) {
	src := []complex128{1 + 2i, -3i, 4}
	dst := make([]complex128, 3)
	Conj(dst, src)
	assert.Equal(t, []complex128{1 - 2i, 3i, 4}, dst)

	Scale(2i, dst)
	assert.Equal(t, []complex128{4 + 2i, -6, 8i}, dst)

	assert.Panics(t, func() { Conj(dst[:1], src) })
}

func TestAbsSum(t *testing.T) {
	assert.InDelta(t, 5+2+0, AbsSum([]complex128{3 + 4i, -2i, 0}), tolerance)
	assert.Equal(t, 0.0, AbsSum(nil))
}

func TestOverlapSumMatchesRollFormulation(t *testing.T) {
	for _, n := range []int{1, 3, 4, 7} {
		p := randomField(n, 42+int64(n))
		for sx := 0; sx < n; sx++ {
			for sy := 0; sy < n; sy++ {
				want := overlapGo(p, n, sx, sy)
				got := OverlapSum(p, n, sx, sy)
				require.InDelta(t, want, got, tolerance*float64(n*n), "n=%d shift=(%d,%d)", n, sx, sy)
			}
		}
	}
}

func TestOverlapSumZeroShiftCancels(t *testing.T) {
	// At zero shift both cross terms equal |p|², so gamma vanishes.
	p := randomField(6, 7)
	assert.InDelta(t, 0.0, OverlapSum(p, 6, 0, 0), tolerance)
}

func TestOverlapSumNegativeShiftWraps(t *testing.T) {
	p := randomField(5, 11)
	assert.InDelta(t, OverlapSum(p, 5, 3, 4), OverlapSum(p, 5, -2, -1), tolerance)
}

func TestPool(t *testing.T) {
	p := NewPool(1)
	buf := p.Get(4)
	require.Len(t, buf, 4)
	buf[0] = 1
	p.Put(buf)

	again := p.Get(3)
	assert.Len(t, again, 3)
	assert.Equal(t, complex128(0), again[0], "recycled buffer must be cleared")

	big := p.Get(16)
	assert.Len(t, big, 16)

	// full pool drops extras silently
	p.Put(again)
	p.Put(big)
	p.Put(nil)
}
