//go:build !nocheck

package problem

// ChecksEnabled reports whether transformed problems verify their results
// against the inner problem's best value. Build with -tags nocheck to drop
// the check from the evaluation path.
const ChecksEnabled = true

// Tolerance is the slack allowed when comparing an objective value against a
// known best value.
const Tolerance = 1e-13

func checkNotBelowBest(id string, value, best float64) {
	if value+Tolerance < best {
		panic(&InvariantError{ID: id, Value: value, Best: best, Tolerance: Tolerance})
	}
}
