// Package solver defines the satisfiability oracle used by the CEGAR loop.
// Implementations live in the z3 and sat sub-packages.
package solver

import (
	"context"

	"github.com/ajalab/tse/formula"
	"github.com/pkg/errors"
)

// ErrInconclusive is the cause of errors reporting that the oracle could
// not decide the constraint set.
var ErrInconclusive = errors.New("solver returned unknown")

// Status is the result of a satisfiability check.
type Status int

const (
	// Unsat means the constraints are unsatisfiable.
	Unsat Status = -1
	// Unknown means the solver could not decide.
	Unknown Status = 0
	// Sat means the constraints are satisfiable.
	Sat Status = 1
)

func (s Status) String() string {
	switch s {
	case Unsat:
		return "unsat"
	case Sat:
		return "sat"
	}
	return "unknown"
}

// Solver is an incremental solver for linear integer arithmetic over
// nonnegative variables. Asserted constraints are never retracted.
type Solver interface {
	// Assert adds constraints to the solver.
	Assert(cs ...formula.Constraint) error

	// Check decides the conjunction of all asserted constraints.
	// Canceling ctx interrupts the check; the context error is returned.
	Check(ctx context.Context) (Status, error)

	// Eval evaluates l in the model of the last Sat check.
	Eval(l formula.Linear) (uint64, error)

	// Close releases the resources of the solver.
	Close() error
}

// Factory creates a fresh solver.
type Factory func() (Solver, error)
