package sat

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ajalab/tse/formula"
	"github.com/ajalab/tse/solver"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
)

func TestCheck(t *testing.T) {
	x, y, n := formula.Sum("x"), formula.Sum("y"), formula.Sum(formula.N0)
	testCases := []struct {
		name string
		cs   []formula.Constraint
		want solver.Status
	}{
		{
			"empty",
			nil,
			solver.Sat,
		},
		{
			"lower bounds",
			[]formula.Constraint{
				formula.AtLeast(x, y.Plus(formula.Const(3))),
				formula.Greater(y, formula.Const(1)),
			},
			solver.Sat,
		},
		{
			"equality",
			[]formula.Constraint{
				formula.Equal(x.Scale(3), y.Scale(2).Plus(formula.Const(7))),
				formula.Greater(y, formula.Const(4)),
			},
			solver.Sat,
		},
		{
			"contradiction",
			[]formula.Constraint{
				formula.Equal(x.Plus(y), formula.Const(1)),
				formula.Greater(x, formula.Const(1)),
			},
			solver.Unsat,
		},
		{
			"constant",
			[]formula.Constraint{
				formula.AtLeast(n, formula.Const(1)),
				formula.AtLeast(formula.Const(0), formula.Const(1)),
			},
			solver.Unsat,
		},
		{
			"naturals",
			[]formula.Constraint{
				formula.Equal(x.Plus(formula.Const(1)), formula.Const(0)),
			},
			solver.Unsat,
		},
		{
			"parity",
			[]formula.Constraint{
				formula.Equal(x.Scale(2), y.Scale(2).Plus(formula.Const(1))),
			},
			solver.Unsat,
		},
		{
			"thread-state equation",
			[]formula.Constraint{
				formula.AtLeast(n, formula.Const(1)),
				formula.AtLeast(formula.Sum(formula.X(0)), formula.Const(0)),
				formula.AtLeast(n, formula.Sum(formula.X(0))),
				formula.AtLeast(formula.Sum(formula.X(0)), formula.Const(1)),
			},
			solver.Sat,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(Options{})
			defer s.Close()

			if err := s.Assert(tc.cs...); err != nil {
				t.Fatalf("Assert: %v", err)
			}
			got, err := s.Check(context.Background())
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			if got != solver.Sat {
				return
			}
			val := func(v formula.Var) int64 {
				u, err := s.Eval(formula.Sum(v))
				if err != nil {
					t.Fatalf("Eval(%s): %v", v, err)
				}
				return int64(u)
			}
			for _, c := range tc.cs {
				if !c.Holds(val) {
					t.Errorf("model violates %v", c)
				}
			}
		})
	}
}

func TestRefinement(t *testing.T) {
	s := New(Options{})
	n := formula.Sum(formula.N0)
	if err := s.Assert(formula.AtLeast(n, formula.Const(1)), formula.AtLeast(formula.Const(5), n)); err != nil {
		t.Fatal(err)
	}
	var seen []uint64
	for {
		st, err := s.Check(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if st == solver.Unsat {
			break
		}
		if len(seen) > 5 {
			t.Fatalf("refinement did not converge: %v", seen)
		}
		v, err := s.Eval(n)
		if err != nil {
			t.Fatal(err)
		}
		seen = append(seen, v)
		if err := s.Assert(formula.Greater(n, formula.Const(int64(v)))); err != nil {
			t.Fatal(err)
		}
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Errorf("models are not increasing: %v", seen)
		}
	}
	if len(seen) == 0 || seen[len(seen)-1] != 5 {
		t.Errorf("expected the last model to be 5, got %v", seen)
	}
}

func TestMaxWidth(t *testing.T) {
	s := New(Options{MaxWidth: 4})
	x := formula.Sum("x")
	if err := s.Assert(formula.AtLeast(x, formula.Const(1000))); err != nil {
		t.Fatal(err)
	}
	got, err := s.Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != solver.Unknown {
		t.Errorf("expected %v, got %v", solver.Unknown, got)
	}
	if _, err := s.Eval(x); err == nil {
		t.Errorf("expected Eval to fail without a model")
	}
}

func TestSmallModelAboveBound(t *testing.T) {
	chain := func(n int) []formula.Constraint {
		cs := []formula.Constraint{formula.AtLeast(formula.Sum(formula.X(0)), formula.Const(1))}
		for i := 1; i < n; i++ {
			cs = append(cs, formula.AtLeast(formula.Sum(formula.X(i)), formula.Sum(formula.X(i-1))))
		}
		return cs
	}
	testCases := []struct {
		name     string
		maxWidth int
		cs       []formula.Constraint
	}{
		{"constant", 2, []formula.Constraint{formula.AtLeast(formula.Sum("x"), formula.Const(2))}},
		{"chain", 8, chain(80)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(Options{MaxWidth: tc.maxWidth})
			for _, c := range tc.cs {
				if err := s.Assert(c); err != nil {
					t.Fatal(err)
				}
			}
			got, err := s.Check(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if got != solver.Sat {
				t.Fatalf("expected %v, got %v", solver.Sat, got)
			}
			for _, c := range tc.cs {
				ok := c.Holds(func(v formula.Var) int64 {
					u, err := s.Eval(formula.Sum(v))
					if err != nil {
						t.Fatalf("Eval(%s): %v", v, err)
					}
					return int64(u)
				})
				if !ok {
					t.Errorf("model violates %v", c)
				}
			}
		})
	}
}

func TestCanceled(t *testing.T) {
	s := New(Options{})
	if err := s.Assert(formula.AtLeast(formula.Sum("x"), formula.Const(1))); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	if _, err := s.Check(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected %v, got %v", context.DeadlineExceeded, err)
	}
}

func TestBuilder(t *testing.T) {
	c := logic.NewC()
	b := builder{c: c}
	x := b.input(4)
	sum := b.add(b.mulConst(x, 3), b.constant(big.NewInt(5)))
	ge := b.ge(sum, b.constant(big.NewInt(20)))
	eq := b.eq(sum, b.constant(big.NewInt(20)))

	vs := make([]bool, c.Len())
	vs[c.T.Var()] = c.T.IsPos()
	for v := uint64(0); v < 16; v++ {
		for i, m := range x {
			vs[m.Var()] = v&(1<<i) != 0
		}
		c.Eval(vs)
		got := uint64(0)
		for i, m := range sum {
			if value(vs, m) {
				got |= 1 << i
			}
		}
		if want := 3*v + 5; got != want {
			t.Errorf("3*%d+5: expected %d, got %d", v, want, got)
		}
		if want := 3*v+5 >= 20; value(vs, ge) != want {
			t.Errorf("3*%d+5 >= 20: expected %v", v, want)
		}
		if want := 3*v+5 == 20; value(vs, eq) != want {
			t.Errorf("3*%d+5 = 20: expected %v", v, want)
		}
	}
}

func value(vs []bool, m z.Lit) bool {
	v := vs[m.Var()]
	if !m.IsPos() {
		return !v
	}
	return v
}
