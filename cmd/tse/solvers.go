package main

import (
	"sort"

	"github.com/ajalab/tse/solver"
	"github.com/ajalab/tse/solver/sat"
	"github.com/pkg/errors"
)

// solvers maps --solver names to oracle factories.
var solvers = map[string]func(opts *options) solver.Factory{
	"sat": func(opts *options) solver.Factory {
		return sat.Factory(sat.Options{MaxWidth: opts.maxWidth})
	},
}

// defaultSolver is z3 when it is linked in and sat otherwise.
func defaultSolver() string {
	if _, ok := solvers["z3"]; ok {
		return "z3"
	}
	return "sat"
}

func solverNames() []string {
	var names []string
	for name := range solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newSolverFactory(opts *options) (solver.Factory, error) {
	f, ok := solvers[opts.solver]
	if !ok {
		return nil, errors.Errorf("unknown solver %q (available: %v)", opts.solver, solverNames())
	}
	return f(opts), nil
}
