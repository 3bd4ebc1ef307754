// Package functions provides the base benchmark problems and a registry of
// problem families keyed by name.
package functions

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/copyleftdev/tundr-bench/internal/problem"
)

// Generator builds an n-dimensional base problem.
type Generator func(n int) problem.Problem

const (
	lowerBound = -5.0
	upperBound = 5.0

	ellipsoidCondition = 1.0e6
)

var (
	familiesMu sync.RWMutex
	families   = map[string]Generator{
		"ellipsoid": func(n int) problem.Problem { return Ellipsoid(n) },
		"sphere":    func(n int) problem.Problem { return Sphere(n) },
	}
)

// Register adds a family. It panics if the name is already taken.
func Register(name string, gen Generator) {
	familiesMu.Lock()
	defer familiesMu.Unlock()
	if _, dup := families[name]; dup {
		panic(fmt.Sprintf("functions: family %q registered twice", name))
	}
	families[name] = gen
}

// Lookup returns the generator registered under name.
func Lookup(name string) (Generator, bool) {
	familiesMu.RLock()
	defer familiesMu.RUnlock()
	gen, ok := families[name]
	return gen, ok
}

// Families returns the registered family names in sorted order.
func Families() []string {
	familiesMu.RLock()
	defer familiesMu.RUnlock()
	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ellipsoid returns the separable ellipsoid function
//
//	f(x) = Σ_i 1e6^(i/(n-1)) x_i²
//
// on [-5, 5]^n with its optimum f(0) = 0. It panics if n < 1.
func Ellipsoid(n int) *problem.Base {
	return newBase("ellipsoid function", "ellipsoid", n, evalEllipsoid)
}

func evalEllipsoid(p problem.Problem, x, y []float64) {
	n := p.NumVariables()
	if p.NumObjectives() != 1 || n < 1 {
		panic("ellipsoid: needs one objective and at least one variable")
	}
	y[0] = x[0] * x[0]
	for i := 1; i < n; i++ {
		exponent := float64(i) / (float64(n) - 1)
		y[0] += math.Pow(ellipsoidCondition, exponent) * x[i] * x[i]
	}
}

// Sphere returns f(x) = Σ x_i² on [-5, 5]^n. It panics if n < 1.
func Sphere(n int) *problem.Base {
	return newBase("sphere function", "sphere", n, evalSphere)
}

func evalSphere(p problem.Problem, x, y []float64) {
	if p.NumObjectives() != 1 || p.NumVariables() < 1 {
		panic("sphere: needs one objective and at least one variable")
	}
	y[0] = 0
	for _, v := range x {
		y[0] += v * v
	}
}

func newBase(name, family string, n int, eval problem.EvalFunc) *problem.Base {
	if n < 1 {
		panic(problem.NewErrorf("number of variables must be positive, got %d", n).
			WithOperation("generate").WithComponent(family))
	}
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := range lower {
		lower[i] = lowerBound
		upper[i] = upperBound
	}
	return problem.NewBase(name, fmt.Sprintf("%s_%02d", family, n), lower, upper, make([]float64, n), eval)
}
