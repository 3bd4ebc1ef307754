package problem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/tundr-bench/internal/problem"
	"github.com/copyleftdev/tundr-bench/internal/problem/functions"
)

func TestNewBase(t *testing.T) {
	p := shiftedParabola(3)

	assert.Equal(t, 3, p.NumVariables())
	assert.Equal(t, 1, p.NumObjectives())
	assert.Equal(t, 0, p.NumConstraints())
	assert.Equal(t, "shifted parabola", p.Name())
	assert.Equal(t, "parabola", p.ID())
	assert.Equal(t, []float64{0, 0, 0}, p.BestParameter())
	assert.Equal(t, 3.0, p.BestValue())
}

func TestNewBasePreconditions(t *testing.T) {
	eval := func(_ problem.Problem, x, y []float64) { y[0] = 0 }

	tests := []struct {
		name               string
		lower, upper, best []float64
		eval               problem.EvalFunc
	}{
		{"no variables", nil, nil, nil, eval},
		{"short bounds", []float64{-1}, []float64{1, 1}, []float64{0, 0}, eval},
		{"empty interval", []float64{1}, []float64{1}, []float64{1}, eval},
		{"nil evaluator", []float64{-1}, []float64{1}, []float64{0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := recoverPanic(func() {
				problem.NewBase("bad", "bad", tt.lower, tt.upper, tt.best, tt.eval)
			})
			_, ok := problem.IsPrecondition(v)
			assert.True(t, ok, "expected a precondition panic, got %v", v)
		})
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	p := functions.Ellipsoid(2)

	lower := p.LowerBounds()
	lower[0] = 100
	best := p.BestParameter()
	best[1] = 100

	assert.Equal(t, -5.0, p.LowerBounds()[0])
	assert.Equal(t, 0.0, p.BestParameter()[1])
}

func TestEvaluateDimensionMismatch(t *testing.T) {
	p := functions.Ellipsoid(2)

	v := recoverPanic(func() { problem.Value(p, []float64{1, 2, 3}) })
	_, ok := problem.IsPrecondition(v)
	assert.True(t, ok)

	v = recoverPanic(func() { p.Evaluate([]float64{1, 2}, nil) })
	_, ok = problem.IsPrecondition(v)
	assert.True(t, ok)
}

func TestBaseClose(t *testing.T) {
	p := functions.Sphere(2)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Close(), problem.ErrClosed)
	assert.Equal(t, problem.ErrClosed, recoverPanic(func() { problem.Value(p, []float64{0, 0}) }))
}

func TestTransformedCloseIsRecursive(t *testing.T) {
	inner := functions.Ellipsoid(2)
	mid := problem.ShiftVariables(inner, []float64{1, 1})
	outer := problem.Affine(mid, problem.Identity(2), []float64{0, 0}, 2)

	assert.Equal(t, 2, problem.Depth(outer))
	assert.Same(t, mid, outer.Inner())

	require.NoError(t, outer.Close())
	assert.ErrorIs(t, inner.Close(), problem.ErrClosed, "base problem should be closed by the chain")
	assert.ErrorIs(t, mid.Close(), problem.ErrClosed)
	assert.ErrorIs(t, outer.Close(), problem.ErrClosed)
}

func TestCloseReportsInnerAlreadyClosed(t *testing.T) {
	inner := functions.Sphere(2)
	outer := problem.ShiftObjective(inner, 1)

	require.NoError(t, inner.Close())
	err := outer.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, problem.ErrClosed)
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		err  *problem.Error
		want string
	}{
		{problem.NewErrorf("bad %d", 1), "bad 1"},
		{problem.NewErrorf("bad").WithOperation("op"), "op: bad"},
		{problem.NewErrorf("bad").WithComponent("affine"), "affine: bad"},
		{problem.NewErrorf("bad").WithOperation("op").WithComponent("affine"), "affine: op: bad"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}
