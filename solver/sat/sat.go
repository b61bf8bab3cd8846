// Package sat implements solver.Solver with the gini SAT solver by
// bit-blasting linear constraints over the naturals.
//
// A system of m rows over n columns (slack columns included) with
// coefficients bounded by a in absolute value has, if it is satisfiable, a
// solution whose components are all at most n*(m*a)^(2m+1). Check tries
// increasing bit widths up to the width of that bound; a model found at any
// width is a model of the system, and unsatisfiability at the bound width
// is conclusive. Every variable of a model found at width w is below 2^w.
package sat

import (
	"context"
	"math/big"
	"time"

	"github.com/ajalab/tse/formula"
	"github.com/ajalab/tse/log"
	"github.com/ajalab/tse/solver"
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
)

// DefaultMaxWidth is the default bound on the number of bits per variable.
const DefaultMaxWidth = 1024

const pollInterval = 10 * time.Millisecond

var _ solver.Solver = (*Solver)(nil)

// Options configures a Solver.
type Options struct {
	// MaxWidth bounds the bit width of every variable. Checks that would
	// need a wider encoding to be conclusive return solver.Unknown.
	MaxWidth int
}

// Solver is a solver.Solver backed by gini.
type Solver struct {
	maxWidth int
	cs       []formula.Constraint
	model    map[formula.Var]*big.Int
}

// New returns a new solver.
func New(opts Options) *Solver {
	w := opts.MaxWidth
	if w <= 0 {
		w = DefaultMaxWidth
	}
	return &Solver{maxWidth: w}
}

// Factory returns a solver.Factory creating solvers with opts.
func Factory(opts Options) solver.Factory {
	return func() (solver.Solver, error) {
		return New(opts), nil
	}
}

// Assert adds constraints to the solver.
func (s *Solver) Assert(cs ...formula.Constraint) error {
	for _, c := range cs {
		if c.Op != formula.Ge && c.Op != formula.Gt && c.Op != formula.Eq {
			return errors.Errorf("failed to assert %v: unsupported operator", c)
		}
		log.Debug.Printf("sat: assert %v", c)
	}
	s.cs = append(s.cs, cs...)
	return nil
}

// Close releases the asserted constraints.
func (s *Solver) Close() error {
	s.cs = nil
	s.model = nil
	return nil
}

// row is a constraint in the form d >= 0 or d = 0.
type row struct {
	d  formula.Linear
	eq bool
}

// rows rewrites cs into rows over the naturals, dropping rows that hold
// for every valuation. ok is false if some row holds for none.
func rows(cs []formula.Constraint) (rs []row, ok bool) {
	for _, c := range cs {
		d := c.Diff()
		if c.Op == formula.Gt {
			d.Const--
		}
		r := row{d: d, eq: c.Op == formula.Eq}
		if len(d.Terms) == 0 {
			if r.eq && d.Const != 0 || !r.eq && d.Const < 0 {
				return nil, false
			}
			continue
		}
		if !r.eq && d.Const >= 0 && nonNegative(d) {
			continue
		}
		rs = append(rs, r)
	}
	return rs, true
}

func nonNegative(d formula.Linear) bool {
	for _, t := range d.Terms {
		if t.Coef < 0 {
			return false
		}
	}
	return true
}

// boundWidth returns the bit width of the small-solution bound of rs.
func boundWidth(rs []row) int {
	vars := make(map[formula.Var]bool)
	a := big.NewInt(1)
	cols := 0
	abs := new(big.Int)
	for _, r := range rs {
		if !r.eq {
			cols++
		}
		for _, t := range r.d.Terms {
			vars[t.Var] = true
			if abs.Abs(big.NewInt(t.Coef)).Cmp(a) > 0 {
				a.Set(abs)
			}
		}
		if abs.Abs(big.NewInt(r.d.Const)).Cmp(a) > 0 {
			a.Set(abs)
		}
	}
	cols += len(vars)
	m := int64(len(rs))
	bound := new(big.Int).Mul(big.NewInt(m), a)
	bound.Exp(bound, big.NewInt(2*m+1), nil)
	bound.Mul(bound, big.NewInt(int64(cols)))
	return bound.BitLen()
}

// linearWidths is the width up to which widths grows one bit at a time.
const linearWidths = 16

// widths returns the bit widths to try: every width up to linearWidths,
// then powers of two, then limit itself. Models found at small widths have
// small values.
func widths(limit int) []int {
	var ws []int
	w := 1
	for ; w < limit && w <= linearWidths; w++ {
		ws = append(ws, w)
	}
	for w = 2 * linearWidths; w < limit; w *= 2 {
		ws = append(ws, w)
	}
	return append(ws, limit)
}

// Check decides the asserted constraints. Canceling ctx stops gini.
func (s *Solver) Check(ctx context.Context) (solver.Status, error) {
	if err := ctx.Err(); err != nil {
		return solver.Unknown, err
	}
	s.model = nil

	rs, ok := rows(s.cs)
	if !ok {
		return solver.Unsat, nil
	}
	if len(rs) == 0 {
		s.model = make(map[formula.Var]*big.Int)
		return solver.Sat, nil
	}
	limit := boundWidth(rs)
	capped := limit > s.maxWidth
	if capped {
		log.Info.Printf("sat: %d constraints need %d bits per variable, searching up to %d", len(rs), limit, s.maxWidth)
		limit = s.maxWidth
	}

	for _, w := range widths(limit) {
		st, model, err := check(ctx, rs, w)
		if err != nil {
			return solver.Unknown, err
		}
		log.Debug.Printf("sat: width %d: %v", w, st)
		if st == solver.Sat {
			s.model = model
			return solver.Sat, nil
		}
	}
	if capped {
		// No model below the width limit proves nothing.
		return solver.Unknown, nil
	}
	return solver.Unsat, nil
}

// check decides rs with every variable encoded in w bits.
func check(ctx context.Context, rs []row, w int) (solver.Status, map[formula.Var]*big.Int, error) {
	b := builder{c: logic.NewC()}
	vars := make(map[formula.Var]word)
	roots := make([]z.Lit, 0, len(rs))
	for _, r := range rs {
		var pos, neg []word
		for _, t := range r.d.Terms {
			x, ok := vars[t.Var]
			if !ok {
				x = b.input(w)
				vars[t.Var] = x
			}
			if t.Coef > 0 {
				pos = append(pos, b.mulConst(x, uint64(t.Coef)))
			} else {
				neg = append(neg, b.mulConst(x, uint64(-t.Coef)))
			}
		}
		k := big.NewInt(r.d.Const)
		if k.Sign() > 0 {
			pos = append(pos, b.constant(k))
		} else {
			neg = append(neg, b.constant(k.Neg(k)))
		}
		p, n := b.sum(pos), b.sum(neg)
		if r.eq {
			roots = append(roots, b.eq(p, n))
		} else {
			roots = append(roots, b.ge(p, n))
		}
	}

	g := gini.New()
	g.Add(b.c.T)
	g.Add(0)
	b.c.ToCnf(g)
	for _, m := range roots {
		g.Add(m)
		g.Add(0)
	}

	res, err := solve(ctx, g)
	if err != nil || res != 1 {
		return status(res), nil, err
	}
	model := make(map[formula.Var]*big.Int, len(vars))
	for v, x := range vars {
		n := new(big.Int)
		for i, m := range x {
			if g.Value(m) {
				n.SetBit(n, i, 1)
			}
		}
		model[v] = n
	}
	return solver.Sat, model, nil
}

func solve(ctx context.Context, g *gini.Gini) (int, error) {
	if ctx.Done() == nil {
		return g.Solve(), nil
	}
	run := g.GoSolve()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if res, done := run.Test(); done {
			return res, nil
		}
		select {
		case <-ctx.Done():
			run.Stop()
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

func status(res int) solver.Status {
	switch res {
	case 1:
		return solver.Sat
	case -1:
		return solver.Unsat
	}
	return solver.Unknown
}

// Eval evaluates l in the model of the last Sat check. Variables absent
// from the model are zero.
func (s *Solver) Eval(l formula.Linear) (uint64, error) {
	if s.model == nil {
		return 0, errors.New("no model available")
	}
	sum := big.NewInt(l.Const)
	term := new(big.Int)
	for _, t := range l.Terms {
		v, ok := s.model[t.Var]
		if !ok {
			continue
		}
		term.Mul(big.NewInt(t.Coef), v)
		sum.Add(sum, term)
	}
	if !sum.IsUint64() {
		return 0, errors.Errorf("value of %v is out of range: %s", l, sum)
	}
	return sum.Uint64(), nil
}
