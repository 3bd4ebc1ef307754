package suite

import (
	"fmt"
	"math/rand"

	"github.com/copyleftdev/tundr-bench/internal/errors"
	"github.com/copyleftdev/tundr-bench/internal/problem"
	"github.com/copyleftdev/tundr-bench/internal/problem/functions"
)

// Sentinel errors returned by the suite. Callers match them with errors.Is.
var (
	ErrInvalidDefinition = errors.New("invalid suite definition")
	ErrUnknownProblem    = errors.New("unknown problem")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrNonFinite         = errors.New("objective value is not finite")
	ErrPoolClosed        = errors.New("instance pool closed")
)

// offsetRange bounds the random variable shifts so that the moved optimum
// stays inside the default [-5, 5] region of interest.
const offsetRange = 4.0

// InstanceKey names the n-dimensional instance of an entry.
func InstanceKey(key string, n int) string {
	return fmt.Sprintf("%s_d%02d", key, n)
}

// build creates the n-dimensional problem of e. Precondition panics raised
// by the problem package are returned as errors and any partially built
// chain is closed.
func (e Entry) build(n int) (p problem.Problem, err error) {
	gen, ok := functions.Lookup(e.Family)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidDefinition, "unknown family %q", e.Family).WithComponent("suite")
	}

	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		perr, ok := problem.IsPrecondition(rec)
		if !ok {
			panic(rec)
		}
		if p != nil {
			_ = p.Close()
		}
		p = nil
		err = errors.Wrapf(perr, "building %s", InstanceKey(e.Key, n)).WithComponent("suite")
	}()

	p = gen(n)
	for i, t := range e.Transforms {
		next, terr := t.apply(p)
		if terr != nil {
			_ = p.Close()
			return nil, errors.Wrapf(terr, "building %s: transform %d", InstanceKey(e.Key, n), i).WithComponent("suite")
		}
		p = next
	}
	return p, nil
}

// apply wraps inner with the transformation. On success the returned
// problem owns inner.
func (t Transform) apply(inner problem.Problem) (problem.Problem, error) {
	n := inner.NumVariables()
	switch t.Type {
	case TransformRotate:
		return problem.Affine(inner, problem.Rotation(n, t.Seed), make([]float64, n), n), nil

	case TransformAffine:
		if len(t.Matrix) != n {
			return nil, errors.Errorf("affine matrix has %d rows, problem has %d variables", len(t.Matrix), n)
		}
		cols := len(t.Matrix[0])
		m := make([]float64, 0, n*cols)
		for _, row := range t.Matrix {
			m = append(m, row...)
		}
		b := t.Offset
		if b == nil {
			b = make([]float64, n)
		}
		return problem.Affine(inner, m, b, cols), nil

	case TransformShiftVariables:
		offset := t.Offset
		if offset == nil {
			offset = randomOffset(n, t.Seed)
		} else if len(offset) != n {
			return nil, errors.Errorf("offset has %d entries, problem has %d variables", len(offset), n)
		}
		return problem.ShiftVariables(inner, offset), nil

	case TransformShiftObjective:
		return problem.ShiftObjective(inner, t.Value), nil
	}
	return nil, errors.Errorf("unknown transform type %q", t.Type)
}

func randomOffset(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	offset := make([]float64, n)
	for i := range offset {
		offset[i] = (2*rng.Float64() - 1) * offsetRange
	}
	return offset
}
