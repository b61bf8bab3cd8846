//go:build !noz3

package main

import (
	"github.com/ajalab/tse/solver"
	"github.com/ajalab/tse/solver/z3"
)

func init() {
	solvers["z3"] = func(*options) solver.Factory {
		return z3.Factory
	}
}
