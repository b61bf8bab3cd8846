package formula

import (
	"github.com/ajalab/tse/ttd"
)

// ThreadStateEquation builds the coverability constraints of t for reaching
// target copies of final from any number n0 >= 1 of threads in initial.
//
// For every local state l:
//
//	[n0 if l = initial.local] + sum(in x) >= sum(out x) + [target if l = final.local]
//
// For every shared state s touched by a shared-changing transition, and
// for the initial and final shared states when they differ:
//
//	[1 if s = initial.shared] + sum(in x) = sum(out x) + [1 if s = final.shared]
//
// plus n0 >= 1 and x >= 0 for every transition.
func ThreadStateEquation(t *ttd.TTD, initial, final ttd.ThreadState, target int) []Constraint {
	var cs []Constraint
	cs = append(cs, AtLeast(Sum(N0), Const(1)))
	for id := 0; id < t.NumTransitions(); id++ {
		cs = append(cs, AtLeast(Sum(X(id)), Const(0)))
	}
	cs = append(cs, LocalConstraints(t, initial, final, target)...)
	cs = append(cs, SharedConstraints(t, initial, final)...)
	return cs
}

// LocalConstraints returns the local-state part of the thread-state
// equation. Local states no transition touches and that are neither
// initial nor final yield the trivial 0 >= 0 and are omitted.
func LocalConstraints(t *ttd.TTD, initial, final ttd.ThreadState, target int) []Constraint {
	var cs []Constraint
	for l := 0; l < t.L(); l++ {
		inc := t.Local(l)
		if inc.Empty() && l != initial.Local && l != final.Local {
			continue
		}
		lhs := sumOf(inc.In)
		if l == initial.Local {
			lhs = Sum(N0).Plus(lhs)
		}
		rhs := sumOf(inc.Out)
		if l == final.Local {
			rhs = rhs.Plus(Const(int64(target)))
		}
		cs = append(cs, AtLeast(lhs, rhs))
	}
	return cs
}

// SharedConstraints returns the shared-state part of the thread-state
// equation. Exactly one shared-state token moves from initial.shared to
// final.shared.
func SharedConstraints(t *ttd.TTD, initial, final ttd.ThreadState) []Constraint {
	var cs []Constraint
	moves := initial.Shared != final.Shared
	for s := 0; s < t.S(); s++ {
		inc := t.Shared(s)
		endpoint := moves && (s == initial.Shared || s == final.Shared)
		if inc.Empty() && !endpoint {
			continue
		}
		lhs := sumOf(inc.In)
		rhs := sumOf(inc.Out)
		if moves && s == initial.Shared {
			lhs = lhs.Plus(Const(1))
		}
		if moves && s == final.Shared {
			rhs = rhs.Plus(Const(1))
		}
		cs = append(cs, Equal(lhs, rhs))
	}
	return cs
}

// SpawnSum returns the sum of the firing counts of the spawn transitions.
func SpawnSum(t *ttd.TTD) Linear {
	return sumOf(t.Spawns())
}

func sumOf(ids []int) Linear {
	vs := make([]Var, len(ids))
	for i, id := range ids {
		vs[i] = X(id)
	}
	return Sum(vs...)
}
