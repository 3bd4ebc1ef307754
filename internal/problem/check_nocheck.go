//go:build nocheck

package problem

const ChecksEnabled = false

const Tolerance = 1e-13

func checkNotBelowBest(string, float64, float64) {}
