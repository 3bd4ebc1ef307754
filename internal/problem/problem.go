// Package problem implements benchmark objective functions with a known
// optimum and the decorators that transform them.
//
// A Problem is either a Base problem with a closed-form evaluation, or a
// Transformed problem that maps its input (or output) and delegates to an
// inner Problem. Transformed problems own their inner problem: closing the
// outermost problem tears down the whole chain.
//
// Problems are not safe for concurrent Evaluate calls. Use one instance per
// goroutine or serialize access externally.
package problem

import "sync/atomic"

// Problem is an evaluable single-objective function with fixed
// dimensionality, search-space bounds and a known optimum.
type Problem interface {
	// Evaluate writes the objective values at x into y. len(x) must equal
	// NumVariables and len(y) must be at least NumObjectives.
	Evaluate(x, y []float64)

	NumVariables() int
	NumObjectives() int
	NumConstraints() int

	// LowerBounds and UpperBounds return copies of the region of interest.
	LowerBounds() []float64
	UpperBounds() []float64

	// BestParameter returns a copy of the known optimum.
	BestParameter() []float64
	// BestValue returns the objective value at BestParameter.
	BestValue() float64

	Name() string
	ID() string

	// Close releases the problem and, for transformed problems, the inner
	// problem. A second call returns ErrClosed.
	Close() error
}

// EvalFunc computes the objective values of p at x into y.
type EvalFunc func(p Problem, x, y []float64)

// meta holds the attributes shared by every problem variant.
type meta struct {
	nVars, nObjs, nCons int

	lower, upper []float64
	best         []float64
	bestValue    float64

	name, id string

	closed atomic.Bool
}

func (m *meta) init(component string, nVars, nObjs, nCons int) {
	if nVars < 1 {
		preconditionf(component, "allocate", "number of variables must be positive, got %d", nVars)
	}
	if nObjs != 1 {
		preconditionf(component, "allocate", "exactly one objective is supported, got %d", nObjs)
	}
	if nCons != 0 {
		preconditionf(component, "allocate", "constraints are not supported, got %d", nCons)
	}
	m.nVars, m.nObjs, m.nCons = nVars, nObjs, nCons
	m.lower = make([]float64, nVars)
	m.upper = make([]float64, nVars)
	m.best = make([]float64, nVars)
}

func (m *meta) NumVariables() int   { return m.nVars }
func (m *meta) NumObjectives() int  { return m.nObjs }
func (m *meta) NumConstraints() int { return m.nCons }

func (m *meta) LowerBounds() []float64   { return duplicate(m.lower) }
func (m *meta) UpperBounds() []float64   { return duplicate(m.upper) }
func (m *meta) BestParameter() []float64 { return duplicate(m.best) }
func (m *meta) BestValue() float64       { return m.bestValue }

func (m *meta) Name() string { return m.name }
func (m *meta) ID() string   { return m.id }

// checkCall panics when the problem was closed or the buffers do not match
// the problem's dimensions.
func (m *meta) checkCall(x, y []float64) {
	if m.closed.Load() {
		panic(ErrClosed)
	}
	if len(x) != m.nVars {
		preconditionf(m.id, "evaluate", "input has %d entries, problem has %d variables", len(x), m.nVars)
	}
	if len(y) < m.nObjs {
		preconditionf(m.id, "evaluate", "output has %d slots, problem has %d objectives", len(y), m.nObjs)
	}
}

// markClosed reports whether this call moved the problem into its terminal state.
func (m *meta) markClosed() bool {
	return m.closed.CompareAndSwap(false, true)
}

// Base is a leaf problem with a closed-form evaluation.
type Base struct {
	meta
	eval EvalFunc
}

// NewBase creates a base problem over the box [lower, upper] whose optimum
// is at best. The best value is computed by evaluating eval at best, so
// Evaluate(BestParameter()) reproduces BestValue exactly.
//
// NewBase panics if the slices are empty, have different lengths, or
// describe an empty box.
func NewBase(name, id string, lower, upper, best []float64, eval EvalFunc) *Base {
	const op = "NewBase"
	n := len(best)
	if len(lower) != n || len(upper) != n {
		preconditionf(id, op, "bounds have %d/%d entries, best parameter has %d", len(lower), len(upper), n)
	}
	if eval == nil {
		preconditionf(id, op, "evaluation function is nil")
	}
	p := &Base{eval: eval}
	p.init(id, n, 1, 0)
	for i := 0; i < n; i++ {
		if !(lower[i] < upper[i]) {
			preconditionf(id, op, "empty interval [%v, %v] for variable %d", lower[i], upper[i], i)
		}
	}
	copy(p.lower, lower)
	copy(p.upper, upper)
	copy(p.best, best)
	p.name = name
	p.id = id

	y := make([]float64, p.nObjs)
	p.eval(p, p.best, y)
	p.bestValue = y[0]
	return p
}

// Evaluate implements Problem.
func (p *Base) Evaluate(x, y []float64) {
	p.checkCall(x, y)
	p.eval(p, x, y)
}

// Close implements Problem.
func (p *Base) Close() error {
	if !p.markClosed() {
		return ErrClosed
	}
	return nil
}

// Value evaluates p at x and returns the first objective.
func Value(p Problem, x []float64) float64 {
	y := make([]float64, p.NumObjectives())
	p.Evaluate(x, y)
	return y[0]
}

func duplicate(v []float64) []float64 {
	return append([]float64(nil), v...)
}
