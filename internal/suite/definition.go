// Package suite assembles benchmark problems from declarative definitions
// and serves exclusive problem instances to concurrent callers.
package suite

import (
	"bytes"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/tundr-bench/internal/errors"
	"github.com/copyleftdev/tundr-bench/internal/problem/functions"
)

// Transformation kinds accepted in a definition.
const (
	TransformRotate         = "rotate"
	TransformAffine         = "affine"
	TransformShiftVariables = "shift_variables"
	TransformShiftObjective = "shift_objective"
)

// Definition describes a suite: a list of entries, each expanded over its
// dimensions.
type Definition struct {
	Problems []Entry `yaml:"problems"`
}

// Entry is one problem family instantiated over several dimensions, with
// transformations applied in order from the base problem outwards.
type Entry struct {
	Key        string      `yaml:"key"`
	Family     string      `yaml:"family"`
	Dimensions []int       `yaml:"dimensions"`
	Transforms []Transform `yaml:"transforms,omitempty"`
}

// Transform is a single transformation step.
//
//	rotate:          Seed
//	affine:          Matrix (rows = current dimension), Offset (optional)
//	shift_variables: Offset, or Seed for a random offset in [-4, 4]
//	shift_objective: Value
type Transform struct {
	Type   string      `yaml:"type"`
	Seed   int64       `yaml:"seed,omitempty"`
	Matrix [][]float64 `yaml:"matrix,omitempty"`
	Offset []float64   `yaml:"offset,omitempty"`
	Value  float64     `yaml:"value,omitempty"`
}

// DefaultDefinition is the suite served when no file is configured.
func DefaultDefinition() *Definition {
	dims := []int{2, 3, 5, 10, 20, 40}
	return &Definition{
		Problems: []Entry{
			{Key: "sphere", Family: "sphere", Dimensions: dims},
			{Key: "ellipsoid", Family: "ellipsoid", Dimensions: dims},
			{
				Key:        "rotated_ellipsoid",
				Family:     "ellipsoid",
				Dimensions: dims,
				Transforms: []Transform{
					{Type: TransformRotate, Seed: 10},
					{Type: TransformShiftVariables, Seed: 10},
					{Type: TransformShiftObjective, Value: 79.48},
				},
			},
		},
	}
}

// Parse decodes and validates a YAML suite definition. Unknown fields are
// rejected.
func Parse(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if err == io.EOF {
			return nil, errors.New("suite definition is empty").WithOperation("parse").WithComponent("suite")
		}
		return nil, errors.Wrap(err, "decoding suite definition").WithComponent("suite")
	}
	if err := def.Validate(0); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadFile reads a suite definition from path.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading suite file %s", path).WithComponent("suite")
	}
	return Parse(bytes.NewReader(data))
}

// Validate checks the definition without building any problem. maxDim limits
// the dimensions when positive.
func (d *Definition) Validate(maxDim int) error {
	if len(d.Problems) == 0 {
		return invalid("definition has no problems")
	}
	seen := make(map[string]bool, len(d.Problems))
	for i, e := range d.Problems {
		if e.Key == "" {
			return invalid("entry %d has no key", i)
		}
		if seen[e.Key] {
			return invalid("duplicate key %q", e.Key)
		}
		seen[e.Key] = true

		if _, ok := functions.Lookup(e.Family); !ok {
			return invalid("entry %q: unknown family %q", e.Key, e.Family)
		}
		if len(e.Dimensions) == 0 {
			return invalid("entry %q has no dimensions", e.Key)
		}
		for _, n := range e.Dimensions {
			if n < 1 || (maxDim > 0 && n > maxDim) {
				return invalid("entry %q: dimension %d out of range", e.Key, n)
			}
		}
		for j, t := range e.Transforms {
			if err := t.validate(); err != nil {
				return invalid("entry %q transform %d: %v", e.Key, j, err)
			}
		}
	}
	return nil
}

func (t Transform) validate() error {
	switch t.Type {
	case TransformRotate, TransformShiftVariables, TransformShiftObjective:
		return nil
	case TransformAffine:
		if len(t.Matrix) == 0 || len(t.Matrix[0]) == 0 {
			return errors.New("affine transform needs a matrix")
		}
		cols := len(t.Matrix[0])
		for _, row := range t.Matrix {
			if len(row) != cols {
				return errors.New("affine matrix rows differ in length")
			}
		}
		if t.Offset != nil && len(t.Offset) != len(t.Matrix) {
			return errors.Errorf("affine offset has %d entries, matrix has %d rows", len(t.Offset), len(t.Matrix))
		}
		return nil
	default:
		return errors.Errorf("unknown transform type %q", t.Type)
	}
}

func invalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidDefinition, format, args...).WithComponent("suite")
}
