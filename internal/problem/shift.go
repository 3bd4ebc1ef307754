package problem

// ShiftVariables wraps inner with the variable transformation x |-> x - offset,
// which moves the optimum to inner.BestParameter() + offset. Bounds are
// inherited unchanged. offset is copied.
func ShiftVariables(inner Problem, offset []float64) *Transformed {
	const component, op = "transform_vars_shift", "ShiftVariables"
	if inner == nil {
		preconditionf(component, op, "inner problem is nil")
	}
	n := inner.NumVariables()
	if len(offset) != n {
		preconditionf(component, op, "offset has %d entries, inner problem has %d variables", len(offset), n)
	}
	offset = duplicate(offset)
	shifted := make([]float64, n)

	t := newTransformed(component, inner, n)
	for i := range t.best {
		t.best[i] += offset[i]
	}
	t.eval = func(x, y []float64) {
		for i := range shifted {
			shifted[i] = x[i] - offset[i]
		}
		inner.Evaluate(shifted, y)
		checkNotBelowBest(t.id, y[0], inner.BestValue())
	}
	t.release = func() {
		offset, shifted = nil, nil
	}
	return t
}

// ShiftObjective wraps inner with the objective transformation y |-> y + offset.
// The best value moves by the same amount.
func ShiftObjective(inner Problem, offset float64) *Transformed {
	const component = "transform_obj_shift"
	if inner == nil {
		preconditionf(component, "ShiftObjective", "inner problem is nil")
	}
	t := newTransformed(component, inner, inner.NumVariables())
	t.bestValue += offset
	t.eval = func(x, y []float64) {
		inner.Evaluate(x, y)
		y[0] += offset
		checkNotBelowBest(t.id, y[0], t.bestValue)
	}
	return t
}
