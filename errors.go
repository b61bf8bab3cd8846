package tse

import (
	"context"

	"github.com/ajalab/tse/solver"
	"github.com/ajalab/tse/trace"
	"github.com/ajalab/tse/ttd"
	"github.com/pkg/errors"
)

// ErrBudget is the cause of errors reporting that Config.MaxIterations
// CEGAR iterations ran without a verdict.
var ErrBudget = errors.New("iteration budget exhausted")

// Kind names the class of an analysis error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ttd.ErrMalformed):
		return "MalformedInput"
	case errors.Is(err, solver.ErrInconclusive):
		return "OracleInconclusive"
	case errors.Is(err, trace.ErrInvariant):
		return "InternalInvariantViolation"
	case errors.Is(err, ErrBudget):
		return "BudgetExhausted"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Canceled"
	}
	return "Unknown"
}
