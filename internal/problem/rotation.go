package problem

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Rotation returns a random n×n orthogonal matrix in row-major order. The
// matrix is the Q factor of a Gaussian matrix drawn from seed, with column
// signs fixed so that the result only depends on n and seed.
//
// Used with Affine and a zero offset it turns a separable problem into a
// rotated one with the same optimum.
func Rotation(n int, seed int64) []float64 {
	if n < 1 {
		preconditionf("rotation", "Rotation", "dimension must be positive, got %d", n)
	}
	rng := rand.New(rand.NewSource(seed))
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, rng.NormFloat64())
		}
	}

	var qr mat.QR
	qr.Factorize(a)
	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)

	out := make([]float64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := q.At(i, j)
			if r.At(j, j) < 0 {
				v = -v
			}
			out = append(out, v)
		}
	}
	return out
}

// Identity returns the n×n identity matrix in row-major order.
func Identity(n int) []float64 {
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		out[i*n+i] = 1
	}
	return out
}
