package suite

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/copyleftdev/tundr-bench/internal/errors"
	"github.com/copyleftdev/tundr-bench/internal/problem"
	"github.com/copyleftdev/tundr-bench/internal/problem/functions"
)

func TestLoadFile(t *testing.T) {
	def, err := LoadFile("testdata/suite.yaml")
	require.NoError(t, err)

	want := &Definition{
		Problems: []Entry{
			{Key: "sphere", Family: "sphere", Dimensions: []int{2, 5}},
			{
				Key:        "rotated_ellipsoid",
				Family:     "ellipsoid",
				Dimensions: []int{3},
				Transforms: []Transform{
					{Type: TransformRotate, Seed: 7},
					{Type: TransformShiftVariables, Offset: []float64{1, -2, 0.5}},
					{Type: TransformShiftObjective, Value: -12.5},
				},
			},
			{
				Key:        "projected_sphere",
				Family:     "sphere",
				Dimensions: []int{2},
				Transforms: []Transform{{
					Type:   TransformAffine,
					Matrix: [][]float64{{1, 0, 1}, {0, 1, 0}},
					Offset: []float64{0, 1},
				}},
			},
		},
	}
	if diff := cmp.Diff(want, def); diff != "" {
		t.Errorf("LoadFile() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}

func TestParseRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "", "empty"},
		{"unknown field", "problems:\n  - key: a\n    family: sphere\n    dims: [2]\n", "dims"},
		{"no problems", "problems: []\n", "no problems"},
		{"missing key", "problems:\n  - family: sphere\n    dimensions: [2]\n", "no key"},
		{"duplicate key", "problems:\n  - {key: a, family: sphere, dimensions: [2]}\n  - {key: a, family: sphere, dimensions: [3]}\n", "duplicate"},
		{"unknown family", "problems:\n  - {key: a, family: rastrigin, dimensions: [2]}\n", "unknown family"},
		{"no dimensions", "problems:\n  - {key: a, family: sphere}\n", "no dimensions"},
		{"zero dimension", "problems:\n  - {key: a, family: sphere, dimensions: [0]}\n", "out of range"},
		{"unknown transform", "problems:\n  - {key: a, family: sphere, dimensions: [2], transforms: [{type: scale}]}\n", "unknown transform"},
		{"ragged matrix", "problems:\n  - {key: a, family: sphere, dimensions: [2], transforms: [{type: affine, matrix: [[1, 0], [1]]}]}\n", "differ"},
		{"affine without matrix", "problems:\n  - {key: a, family: sphere, dimensions: [2], transforms: [{type: affine}]}\n", "needs a matrix"},
		{"offset length", "problems:\n  - {key: a, family: sphere, dimensions: [2], transforms: [{type: affine, matrix: [[1, 0], [0, 1]], offset: [1]}]}\n", "offset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateMaxDimension(t *testing.T) {
	def := &Definition{Problems: []Entry{{Key: "a", Family: "sphere", Dimensions: []int{2, 50}}}}
	assert.NoError(t, def.Validate(0))
	assert.NoError(t, def.Validate(50))

	err := def.Validate(40)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDefinition))
}

func newTestSuite(t *testing.T, def *Definition, poolSize int) *Suite {
	t.Helper()
	s, err := New(def, Options{PoolSize: poolSize, MaxDimension: 640}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSuiteFromFile(t *testing.T) {
	def, err := LoadFile("testdata/suite.yaml")
	require.NoError(t, err)
	s := newTestSuite(t, def, 2)

	assert.Equal(t, []string{"projected_sphere_d02", "rotated_ellipsoid_d03", "sphere_d02", "sphere_d05"}, s.Keys())

	y, err := s.Evaluate("sphere_d02", []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, y)

	// x' = [x0 + x2, x1 + 1]
	info, err := s.Describe("projected_sphere_d02")
	require.NoError(t, err)
	assert.Equal(t, 3, info.Dimension)
	assert.Equal(t, 1, info.Depth)
	assert.Equal(t, "sphere_02", info.ID)
	assert.Equal(t, []float64{-5, -5, -5}, info.LowerBounds)
	y, err = s.Evaluate("projected_sphere_d02", []float64{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{8}, y)

	info, err = s.Describe("rotated_ellipsoid_d03")
	require.NoError(t, err)
	assert.Equal(t, 3, info.Depth)
	assert.Equal(t, "ellipsoid function", info.Name)
	assert.Equal(t, -12.5, info.BestValue)
	assert.InDeltaSlice(t, []float64{1, -2, 0.5}, info.BestParameter, 1e-12)

	y, err = s.Evaluate("rotated_ellipsoid_d03", info.BestParameter)
	require.NoError(t, err)
	assert.InDelta(t, info.BestValue, y[0], 1e-9)
}

func TestDefaultSuite(t *testing.T) {
	s := newTestSuite(t, DefaultDefinition(), 1)
	assert.Len(t, s.Keys(), 18)

	for _, info := range s.Infos() {
		y, err := s.Evaluate(info.Key, info.BestParameter)
		require.NoError(t, err, info.Key)
		assert.InDelta(t, info.BestValue, y[0], 1e-9, info.Key)

		// any other point of the region is no better than the optimum
		y, err = s.Evaluate(info.Key, info.UpperBounds)
		require.NoError(t, err, info.Key)
		assert.GreaterOrEqual(t, y[0]+problem.Tolerance, info.BestValue, info.Key)
	}

	info, err := s.Describe("ellipsoid_d02")
	require.NoError(t, err)
	y, err := s.Evaluate(info.Key, []float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 1000001.0, y[0])
}

func TestSuiteErrors(t *testing.T) {
	s := newTestSuite(t, DefaultDefinition(), 1)

	_, err := s.Describe("rastrigin_d02")
	assert.True(t, errors.Is(err, ErrUnknownProblem))

	_, err = s.Evaluate("rastrigin_d02", []float64{0, 0})
	assert.True(t, errors.Is(err, ErrUnknownProblem))

	_, err = s.Evaluate("sphere_d02", []float64{0, 0, 0})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	assert.Contains(t, err.Error(), "expects 2 variables, got 3")

	y, err := s.Evaluate("sphere_d02", []float64{1e200, 0})
	assert.True(t, errors.Is(err, ErrNonFinite))
	assert.True(t, math.IsInf(y[0], 1))

	require.NoError(t, s.Close())
	_, err = s.Evaluate("sphere_d02", []float64{0, 0})
	assert.True(t, errors.Is(err, ErrPoolClosed))
}

func TestNewRejectsUnbuildableEntries(t *testing.T) {
	tests := []struct {
		name string
		def  *Definition
		want string
	}{
		{"nil", nil, "nil"},
		{"duplicate dimension", &Definition{Problems: []Entry{
			{Key: "a", Family: "sphere", Dimensions: []int{2, 2}},
		}}, "defined twice"},
		{"matrix rows", &Definition{Problems: []Entry{
			{Key: "a", Family: "sphere", Dimensions: []int{3}, Transforms: []Transform{
				{Type: TransformAffine, Matrix: [][]float64{{1, 0}, {0, 1}}},
			}},
		}}, "2 rows"},
		{"offset length", &Definition{Problems: []Entry{
			{Key: "a", Family: "sphere", Dimensions: []int{2}, Transforms: []Transform{
				{Type: TransformShiftVariables, Offset: []float64{1, 2, 3}},
			}},
		}}, "3 entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.def, Options{PoolSize: 1}, zaptest.NewLogger(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildRecoversPreconditions(t *testing.T) {
	family := fmt.Sprintf("zz_broken_%d", time.Now().UnixNano())
	functions.Register(family, func(n int) problem.Problem {
		panic(problem.NewErrorf("cannot generate %d variables", n).WithOperation("generate").WithComponent(family))
	})

	_, err := New(&Definition{Problems: []Entry{{Key: "broken", Family: family, Dimensions: []int{2}}}},
		Options{PoolSize: 1}, zaptest.NewLogger(t))
	require.Error(t, err)

	var perr *problem.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "generate", perr.Op)
	assert.Contains(t, err.Error(), "building broken_d02")
}

func TestEvaluateDropsInstanceAfterInvariantViolation(t *testing.T) {
	if !problem.ChecksEnabled {
		t.Skip("invariant checks are compiled out")
	}

	// Claims its optimum at 1 although f(0) = 0.
	family := fmt.Sprintf("zz_unsound_%d", time.Now().UnixNano())
	functions.Register(family, func(n int) problem.Problem {
		return problem.NewBase("unsound", "unsound_01", []float64{-5}, []float64{5}, []float64{1},
			func(_ problem.Problem, x, y []float64) { y[0] = x[0] * x[0] })
	})
	s := newTestSuite(t, &Definition{Problems: []Entry{{
		Key: "unsound", Family: family, Dimensions: []int{1},
		Transforms: []Transform{{Type: TransformShiftVariables, Offset: []float64{0}}},
	}}}, 1)

	y, err := s.Evaluate("unsound_d01", []float64{2})
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, y)

	func() {
		defer func() {
			rec := recover()
			_, ok := problem.IsInvariant(rec)
			assert.True(t, ok, "expected invariant violation, got %v", rec)
		}()
		_, _ = s.Evaluate("unsound_d01", []float64{0})
	}()

	// the broken instance was dropped and a fresh one is built
	y, err = s.Evaluate("unsound_d01", []float64{3})
	require.NoError(t, err)
	assert.Equal(t, []float64{9}, y)
	assert.Equal(t, 2, s.instances["unsound_d01"].pool.Created())
}

func TestSuiteConcurrentEvaluate(t *testing.T) {
	s := newTestSuite(t, DefaultDefinition(), 4)
	info, err := s.Describe("rotated_ellipsoid_d10")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				y, err := s.Evaluate(info.Key, info.BestParameter)
				if err != nil {
					errs <- err
					return
				}
				if math.Abs(y[0]-info.BestValue) > 1e-9 {
					errs <- fmt.Errorf("got %v, want %v", y[0], info.BestValue)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	assert.LessOrEqual(t, s.instances[info.Key].pool.Idle(), 4)
}
