package suite

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/copyleftdev/tundr-bench/internal/errors"
	"github.com/copyleftdev/tundr-bench/internal/problem"
)

// Options control how a suite is instantiated.
type Options struct {
	// PoolSize is the number of idle instances kept per problem.
	PoolSize int
	// MaxDimension rejects entries with more variables when positive.
	MaxDimension int
}

// Info describes one problem instance of a suite.
type Info struct {
	Key           string    `json:"key" yaml:"key"`
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	Family        string    `json:"family" yaml:"family"`
	Dimension     int       `json:"dimension" yaml:"dimension"`
	Objectives    int       `json:"objectives" yaml:"objectives"`
	Constraints   int       `json:"constraints" yaml:"constraints"`
	Depth         int       `json:"depth" yaml:"depth"`
	LowerBounds   []float64 `json:"lower_bounds" yaml:"lower_bounds"`
	UpperBounds   []float64 `json:"upper_bounds" yaml:"upper_bounds"`
	BestParameter []float64 `json:"best_parameter" yaml:"best_parameter"`
	BestValue     float64   `json:"best_value" yaml:"best_value"`
}

func describe(key, family string, p problem.Problem) Info {
	return Info{
		Key:           key,
		ID:            p.ID(),
		Name:          p.Name(),
		Family:        family,
		Dimension:     p.NumVariables(),
		Objectives:    p.NumObjectives(),
		Constraints:   p.NumConstraints(),
		Depth:         problem.Depth(p),
		LowerBounds:   p.LowerBounds(),
		UpperBounds:   p.UpperBounds(),
		BestParameter: p.BestParameter(),
		BestValue:     p.BestValue(),
	}
}

type instance struct {
	info Info
	pool *Pool
}

// Suite is a fixed set of problem instances addressed by key. It is safe for
// concurrent use: every evaluation runs on an instance checked out of that
// problem's pool.
type Suite struct {
	logger    *zap.Logger
	keys      []string
	instances map[string]*instance
}

// New validates def and builds one instance of every entry and dimension.
func New(def *Definition, opts Options, logger *zap.Logger) (*Suite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if def == nil {
		return nil, errors.Wrap(ErrInvalidDefinition, "definition is nil").WithComponent("suite")
	}
	if err := def.Validate(opts.MaxDimension); err != nil {
		return nil, err
	}

	s := &Suite{
		logger:    logger.Named("suite"),
		instances: make(map[string]*instance),
	}
	for _, e := range def.Problems {
		for _, n := range e.Dimensions {
			key := InstanceKey(e.Key, n)
			if _, dup := s.instances[key]; dup {
				_ = s.Close()
				return nil, errors.Wrapf(ErrInvalidDefinition, "instance %s defined twice", key).WithComponent("suite")
			}

			pool := NewPool(opts.PoolSize, func() (problem.Problem, error) {
				return e.build(n)
			})
			p, err := pool.Get()
			if err != nil {
				_ = s.Close()
				return nil, err
			}
			info := describe(key, e.Family, p)
			pool.Put(p)

			s.instances[key] = &instance{info: info, pool: pool}
			s.keys = append(s.keys, key)
			s.logger.Debug("built problem",
				zap.String("key", key),
				zap.String("id", info.ID),
				zap.Int("depth", info.Depth),
				zap.Float64("best_value", info.BestValue),
			)
		}
	}
	sort.Strings(s.keys)

	s.logger.Info("suite ready", zap.Int("problems", len(s.keys)), zap.Int("pool_size", opts.PoolSize))
	return s, nil
}

// Keys returns the instance keys in sorted order.
func (s *Suite) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Infos returns the description of every instance in key order.
func (s *Suite) Infos() []Info {
	infos := make([]Info, 0, len(s.keys))
	for _, key := range s.keys {
		infos = append(infos, s.instances[key].info)
	}
	return infos
}

// Describe returns the description of the instance registered under key.
func (s *Suite) Describe(key string) (Info, error) {
	inst, ok := s.instances[key]
	if !ok {
		return Info{}, errors.Wrapf(ErrUnknownProblem, "problem %q", key).WithOperation("describe").WithComponent("suite")
	}
	return inst.info, nil
}

// Evaluate computes the objective values of the instance key at x.
//
// The input length is checked before the problem is touched, so a mismatch
// is reported as ErrDimensionMismatch instead of a panic. A panic raised
// during evaluation propagates to the caller after the instance has been
// closed.
func (s *Suite) Evaluate(key string, x []float64) ([]float64, error) {
	const op = "evaluate"
	inst, ok := s.instances[key]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProblem, "problem %q", key).WithOperation(op).WithComponent("suite")
	}
	if len(x) != inst.info.Dimension {
		return nil, errors.Wrapf(ErrDimensionMismatch, "%s expects %d variables, got %d",
			key, inst.info.Dimension, len(x)).WithOperation(op).WithComponent("suite")
	}

	p, err := inst.pool.Get()
	if err != nil {
		return nil, errors.Wrapf(err, "checking out %s", key).WithOperation(op).WithComponent("suite")
	}
	defer func() {
		if rec := recover(); rec != nil {
			_ = p.Close()
			s.logger.Error("dropped problem instance after panic", zap.String("key", key), zap.Any("panic", rec))
			panic(rec)
		}
	}()

	y := make([]float64, p.NumObjectives())
	p.Evaluate(x, y)
	inst.pool.Put(p)

	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return y, errors.Wrapf(ErrNonFinite, "%s", key).WithOperation(op).WithComponent("suite")
		}
	}
	return y, nil
}

// Close closes every pool. Evaluate fails with ErrPoolClosed afterwards.
func (s *Suite) Close() error {
	var errs []error
	for _, inst := range s.instances {
		if err := inst.pool.Close(); err != nil && !errors.Is(err, ErrPoolClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
