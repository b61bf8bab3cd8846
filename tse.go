// Package tse decides coverability of a thread state in thread-transition
// diagrams with an unbounded number of threads. The thread-state equation
// is checked by a solver inside a CEGAR loop and every abstract witness is
// validated by a bounded search over counter-abstracted configurations.
package tse

import (
	"context"
	"math"

	"github.com/ajalab/tse/explore"
	"github.com/ajalab/tse/formula"
	"github.com/ajalab/tse/log"
	"github.com/ajalab/tse/solver"
	"github.com/ajalab/tse/solver/sat"
	"github.com/ajalab/tse/trace"
	"github.com/pkg/errors"
)

// Verdict is the answer to a reachability question.
type Verdict int

const (
	// Unreachable means no number of initial threads covers the final
	// thread state.
	Unreachable Verdict = iota
	// Reachable means some configuration covers the final thread state.
	Reachable
)

func (v Verdict) String() string {
	if v == Reachable {
		return "reachable"
	}
	return "unreachable"
}

// Result is the outcome of Analyze.
type Result struct {
	Verdict Verdict
	// Witness is a covering path when Verdict is Reachable.
	Witness *trace.Trace
	// Iterations is the number of solver checks.
	Iterations int
	// N and Z are the initial population and spawn budget of the
	// confirming search when Verdict is Reachable.
	N, Z int
	// Explored is the number of configurations visited by all searches.
	Explored int
}

// maxPopulation bounds the populations the explorer is asked to search.
const maxPopulation = math.MaxInt32

// oracle keeps the thread-state equation of one analysis in a solver and
// strengthens it after every refuted model.
type oracle struct {
	s        solver.Solver
	hasSpawn bool
	spawnSum formula.Linear
}

func newOracle(s solver.Solver, p *Problem) (*oracle, error) {
	o := &oracle{
		s:        s,
		hasSpawn: p.TTD.HasSpawn(),
		spawnSum: formula.SpawnSum(p.TTD),
	}
	if err := s.Assert(p.Equation()...); err != nil {
		return nil, errors.Wrap(err, "failed to assert the thread-state equation")
	}
	return o, nil
}

// check returns whether the current constraints are satisfiable.
func (o *oracle) check(ctx context.Context) (bool, error) {
	st, err := o.s.Check(ctx)
	if err != nil {
		return false, err
	}
	switch st {
	case solver.Sat:
		return true, nil
	case solver.Unsat:
		return false, nil
	}
	return false, errors.WithStack(solver.ErrInconclusive)
}

// extract returns the values of n0 and of the spawn sum in the model.
func (o *oracle) extract() (n, z int, err error) {
	nv, err := o.s.Eval(formula.Sum(formula.N0))
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to read n0")
	}
	var zv uint64
	if o.hasSpawn {
		zv, err = o.s.Eval(o.spawnSum)
		if err != nil {
			return 0, 0, errors.Wrap(err, "failed to read the spawn sum")
		}
	}
	if nv > maxPopulation || zv > maxPopulation {
		return 0, 0, errors.Wrapf(ErrBudget, "model n0=%d sum_z=%d is too large to explore", nv, zv)
	}
	return int(nv), int(zv), nil
}

// refine excludes every model with n0 <= n, and with a spawn sum <= z if
// the TTD spawns.
func (o *oracle) refine(n, z int) error {
	cs := []formula.Constraint{formula.Greater(formula.Sum(formula.N0), formula.Const(int64(n)))}
	if o.hasSpawn {
		cs = append(cs, formula.Greater(o.spawnSum, formula.Const(int64(z))))
	}
	return o.s.Assert(cs...)
}

// Analyze decides p. Canceling ctx aborts the analysis before the next
// solver check or configuration dequeue.
func Analyze(ctx context.Context, p *Problem, config *Config) (*Result, error) {
	if config == nil {
		config = &Config{}
	}
	newSolver := config.NewSolver
	if newSolver == nil {
		newSolver = sat.Factory(sat.Options{})
	}
	s, err := newSolver()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a solver")
	}
	defer s.Close()

	o, err := newOracle(s, p)
	if err != nil {
		return nil, err
	}
	ex := explore.New(p.TTD, p.Final, p.Target)
	// rejected[k] is the largest spawn budget refuted for k initial threads.
	rejected := make(map[int]int)
	res := &Result{}

	for {
		if config.MaxIterations > 0 && uint(res.Iterations) >= config.MaxIterations {
			return nil, errors.Wrapf(ErrBudget, "no verdict after %d iterations", res.Iterations)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Iterations++
		ok, err := o.check(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "iteration %d", res.Iterations)
		}
		if !ok {
			log.Info.Printf("iteration %d: unsat", res.Iterations)
			res.Verdict = Unreachable
			return res, nil
		}
		n, z, err := o.extract()
		if err != nil {
			return nil, err
		}
		log.Info.Printf("iteration %d: n0=%d sum_z=%d", res.Iterations, n, z)

		for k := 1; k <= n; k++ {
			if zr, ok := rejected[k]; ok && zr >= z {
				continue
			}
			r, err := ex.Explore(ctx, p.Initial, k, z)
			res.Explored += r.Explored
			if err != nil {
				return nil, errors.Wrapf(err, "iteration %d", res.Iterations)
			}
			if r.Covered {
				res.Verdict = Reachable
				res.Witness = r.Witness
				res.N, res.Z = k, z
				log.Info.Printf("iteration %d: covered with %d threads and %d spawns", res.Iterations, k, z)
				return res, nil
			}
			rejected[k] = z
		}
		if err := o.refine(n, z); err != nil {
			return nil, errors.Wrap(err, "failed to refine")
		}
	}
}
