package problem_test

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/tundr-bench/internal/problem"
)

// assertFloat64SlicesEqual checks if two float64 slices are approximately equal
func assertFloat64SlicesEqual(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("at index %d: got %v, want %v (tolerance %v)", i, got[i], want[i], tol)
		}
	}
}

// assertMatEqual checks if two matrices are approximately equal
func assertMatEqual(t *testing.T, got, want mat.Matrix, tol float64) {
	t.Helper()

	rg, cg := got.Dims()
	rw, cw := want.Dims()
	if rg != rw || cg != cw {
		t.Fatalf("matrix dimensions mismatch: got %dx%d, want %dx%d", rg, cg, rw, cw)
	}

	for i := 0; i < rg; i++ {
		for j := 0; j < cg; j++ {
			if g, w := got.At(i, j), want.At(i, j); math.Abs(g-w) > tol {
				t.Fatalf("at (%d,%d): got %v, want %v (tolerance %v)", i, j, g, w, tol)
			}
		}
	}
}

// invertibleMatrix returns a random diagonally dominant n×n matrix.
func invertibleMatrix(rng *rand.Rand, n int) []float64 {
	m := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m[i*n+j] = rng.Float64()*2 - 1
		}
		m[i*n+i] += float64(n) + 1
	}
	return m
}

func randomVector(rng *rand.Rand, n int, min, max float64) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = min + rng.Float64()*(max-min)
	}
	return v
}

// recoverPanic runs f and returns the value it panicked with, or nil.
func recoverPanic(f func()) (v interface{}) {
	defer func() {
		v = recover()
	}()
	f()
	return nil
}

// shiftedParabola is f(x) = Σ (x_i - 1)² with a deliberately wrong best
// parameter at the origin, so its recorded best value is n instead of 0.
func shiftedParabola(n int) *problem.Base {
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := range lower {
		lower[i], upper[i] = -5, 5
	}
	return problem.NewBase("shifted parabola", "parabola", lower, upper, make([]float64, n),
		func(_ problem.Problem, x, y []float64) {
			y[0] = 0
			for _, v := range x {
				y[0] += (v - 1) * (v - 1)
			}
		})
}
