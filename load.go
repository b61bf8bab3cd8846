package tse

import (
	"github.com/ajalab/tse/formula"
	"github.com/ajalab/tse/solver"
	"github.com/ajalab/tse/ttd"
	"github.com/pkg/errors"
)

// Config specifies the (optional) parameters of an analysis.
// Options are ignored when a field has the zero value.
type Config struct {
	// NewSolver creates the oracle of an analysis. The pure-Go SAT backend
	// is used by default.
	NewSolver solver.Factory
	// MaxIterations is the maximum number of CEGAR iterations allowed.
	MaxIterations uint
	// KeepSelfLoops keeps transitions from a thread state to itself when
	// loading a TTD.
	KeepSelfLoops bool
}

// Problem is a reachability question: can Target threads simultaneously
// be in Final, starting from any positive number of threads in Initial?
type Problem struct {
	TTD     *ttd.TTD
	Initial ttd.ThreadState
	Final   ttd.ThreadState
	Target  int
}

// NewProblem checks that initial and final are thread states of t.
func NewProblem(t *ttd.TTD, initial, final ttd.ThreadState, target int) (*Problem, error) {
	for _, ts := range []ttd.ThreadState{initial, final} {
		if !t.Contains(ts) {
			return nil, errors.Wrapf(ttd.ErrMalformed, "thread state %v out of range for S=%d, L=%d", ts, t.S(), t.L())
		}
	}
	if target < 1 {
		return nil, errors.Wrapf(ttd.ErrMalformed, "target multiplicity %d is not positive", target)
	}
	return &Problem{TTD: t, Initial: initial, Final: final, Target: target}, nil
}

// Load reads a TTD file and the initial and final thread states, each
// given inline as shared|local[,local...] or as a file holding it on its
// first line. The number of final locals is the target multiplicity.
func Load(config *Config, path, initial, final string) (*Problem, error) {
	if config == nil {
		config = &Config{}
	}
	t, err := ttd.ParseFile(path, ttd.Options{KeepSelfLoops: config.KeepSelfLoops})
	if err != nil {
		return nil, err
	}
	from, _, err := ttd.ReadThreadState(initial)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the initial thread state")
	}
	to, target, err := ttd.ReadThreadState(final)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the final thread state")
	}
	return NewProblem(t, from, to, target)
}

// Equation returns the thread-state equation of p.
func (p *Problem) Equation() []formula.Constraint {
	return formula.ThreadStateEquation(p.TTD, p.Initial, p.Final, p.Target)
}
