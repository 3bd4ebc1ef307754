package problem

import (
	"fmt"
	"math"
)

// Transformed is a problem that wraps an inner problem and delegates to it
// after transforming the input or before returning the output.
//
// A Transformed problem exclusively owns its inner problem. The inner problem
// must not be evaluated, closed, or wrapped again by the caller once it has
// been handed to a transformation.
type Transformed struct {
	meta
	inner Problem

	// eval is the transformation-specific evaluation. Dimensions are checked
	// before it is called.
	eval func(x, y []float64)
	// release drops the transformation's private buffers.
	release func()
}

// newTransformed allocates an outer problem with nVars variables around inner.
// Objective and constraint counts, name, ID and best value are inherited.
// Bounds and best parameter are copied when the dimensions agree; otherwise
// the caller is expected to fill them in.
func newTransformed(component string, inner Problem, nVars int) *Transformed {
	if inner == nil {
		preconditionf(component, "wrap", "inner problem is nil")
	}
	t := &Transformed{inner: inner}
	t.init(component, nVars, inner.NumObjectives(), inner.NumConstraints())
	t.name = inner.Name()
	t.id = inner.ID()
	t.bestValue = inner.BestValue()
	if nVars == inner.NumVariables() {
		copy(t.lower, inner.LowerBounds())
		copy(t.upper, inner.UpperBounds())
		copy(t.best, inner.BestParameter())
	} else {
		t.widenBounds(inner.LowerBounds(), inner.UpperBounds())
	}
	return t
}

// widenBounds sets every outer variable to the hull of the inner bounds.
func (t *Transformed) widenBounds(lower, upper []float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range lower {
		lo = math.Min(lo, lower[i])
		hi = math.Max(hi, upper[i])
	}
	for i := 0; i < t.nVars; i++ {
		t.lower[i] = lo
		t.upper[i] = hi
	}
}

// Inner returns the wrapped problem.
func (t *Transformed) Inner() Problem {
	return t.inner
}

// Evaluate implements Problem.
func (t *Transformed) Evaluate(x, y []float64) {
	t.checkCall(x, y)
	t.eval(x, y)
}

// Close releases the transformation's buffers and then closes the inner
// problem.
func (t *Transformed) Close() error {
	if !t.markClosed() {
		return ErrClosed
	}
	if t.release != nil {
		t.release()
	}
	if err := t.inner.Close(); err != nil {
		return fmt.Errorf("closing inner problem of %s: %w", t.id, err)
	}
	return nil
}

// Depth returns the number of transformations between p and its base problem.
func Depth(p Problem) int {
	depth := 0
	for {
		t, ok := p.(*Transformed)
		if !ok {
			return depth
		}
		depth++
		p = t.inner
	}
}
