package problem

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type affineData struct {
	m *mat.Dense // rows: inner variables, cols: outer variables
	b []float64
	x []float64 // scratch for the transformed input
}

// Affine wraps inner with the variable transformation
//
//	x |-> M x + b
//
// M is given in row-major order with inner.NumVariables() rows and n
// columns; b has inner.NumVariables() entries. Both are copied.
//
// The outer problem keeps the inner name, ID and best value. When n equals
// the inner dimension the bounds are inherited unchanged; otherwise every
// outer variable gets the hull of the inner bounds. The best parameter is
// the solution of M x = x* - b (least squares or minimum norm when M is not
// square). If M is singular the inner best parameter is kept when the
// dimensions agree, and the origin is used otherwise.
func Affine(inner Problem, M, b []float64, n int) *Transformed {
	const component, op = "transform_vars_affine", "Affine"
	if inner == nil {
		preconditionf(component, op, "inner problem is nil")
	}
	if n < 1 {
		preconditionf(component, op, "number of variables must be positive, got %d", n)
	}
	rows := inner.NumVariables()
	if len(M) != rows*n {
		preconditionf(component, op, "matrix has %d entries, want %d×%d", len(M), rows, n)
	}
	if len(b) != rows {
		preconditionf(component, op, "offset has %d entries, inner problem has %d variables", len(b), rows)
	}

	data := &affineData{
		m: mat.NewDense(rows, n, duplicate(M)),
		b: duplicate(b),
		x: make([]float64, rows),
	}

	t := newTransformed(component, inner, n)
	if best, ok := data.preimage(inner.BestParameter(), n); ok {
		copy(t.best, best)
	} else if n != rows {
		for i := range t.best {
			t.best[i] = 0
		}
	}

	t.eval = func(x, y []float64) {
		for i := range data.x {
			data.x[i] = data.b[i] + floats.Dot(data.m.RawRowView(i), x)
		}
		inner.Evaluate(data.x, y)
		checkNotBelowBest(t.id, y[0], inner.BestValue())
	}
	t.release = func() {
		data.m, data.b, data.x = nil, nil, nil
	}
	return t
}

// preimage solves M x = target - b.
func (d *affineData) preimage(target []float64, n int) ([]float64, bool) {
	rhs := mat.NewVecDense(len(target), nil)
	for i, v := range target {
		rhs.SetVec(i, v-d.b[i])
	}
	var sol mat.VecDense
	if err := sol.SolveVec(d.m, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, false
		}
	}
	x := make([]float64, n)
	for i := range x {
		x[i] = sol.AtVec(i)
	}
	if floats.HasNaN(x) || math.IsInf(floats.Max(x), 1) || math.IsInf(floats.Min(x), -1) {
		return nil, false
	}
	return x, true
}
