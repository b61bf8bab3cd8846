// Package ttd models thread-transition diagrams: the shared and local
// states of a thread template, its ordinary and spawn transitions, and the
// text format they are read from.
package ttd

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// ErrMalformed is the cause of every error reported for ill-formed input:
// syntax violations, out-of-range state indices and unreadable thread-state
// specifications.
var ErrMalformed = errors.New("malformed input")

// ThreadState is a pair of a shared state and a local state.
type ThreadState struct {
	Shared int
	Local  int
}

func (t ThreadState) String() string {
	return fmt.Sprintf("(%d|%d)", t.Shared, t.Local)
}

// Less orders thread states by (shared, local).
func (t ThreadState) Less(u ThreadState) bool {
	if t.Shared == u.Shared {
		return t.Local < u.Local
	}
	return t.Shared < u.Shared
}

// Edge is a transition record before an id is assigned to it.
type Edge struct {
	Src   ThreadState
	Dst   ThreadState
	Spawn bool
}

// Transition is an edge of the thread-transition diagram.
// ID indexes the firing-count vector of the thread-state equation.
type Transition struct {
	ID    int
	Src   ThreadState
	Dst   ThreadState
	Spawn bool
}

func (t Transition) String() string {
	sep := "->"
	if t.Spawn {
		sep = "+>"
	}
	return fmt.Sprintf("%d %d %s %d %d", t.Src.Shared, t.Src.Local, sep, t.Dst.Shared, t.Dst.Local)
}

// Incidence lists the ids of the transitions entering and leaving a state.
type Incidence struct {
	In  []int
	Out []int
}

// Empty reports whether no transition touches the state.
func (inc Incidence) Empty() bool {
	return len(inc.In) == 0 && len(inc.Out) == 0
}

// Options controls how a TTD is built.
type Options struct {
	// KeepSelfLoops keeps transitions whose source and destination are
	// the same thread state. They are dropped by default.
	KeepSelfLoops bool
}

// TTD is a thread-transition diagram. It is immutable once built.
type TTD struct {
	s, l   int
	trans  []Transition
	local  []Incidence
	shared []Incidence
	succ   map[ThreadState][]int
	spawns []int
}

// New builds a TTD over s shared and l local states from edges, assigning
// ids in input order.
func New(s, l int, edges []Edge, opts Options) (*TTD, error) {
	if s <= 0 || l <= 0 {
		return nil, errors.Wrapf(ErrMalformed, "state counts must be positive: S=%d L=%d", s, l)
	}
	t := &TTD{
		s:      s,
		l:      l,
		local:  make([]Incidence, l),
		shared: make([]Incidence, s),
		succ:   make(map[ThreadState][]int),
	}
	for i, e := range edges {
		if err := t.check(e.Src); err != nil {
			return nil, errors.Wrapf(err, "transition %d source", i)
		}
		if err := t.check(e.Dst); err != nil {
			return nil, errors.Wrapf(err, "transition %d destination", i)
		}
		if e.Src == e.Dst && !opts.KeepSelfLoops {
			continue
		}
		t.add(e)
	}
	return t, nil
}

func (t *TTD) check(ts ThreadState) error {
	if ts.Shared < 0 || ts.Shared >= t.s {
		return errors.Wrapf(ErrMalformed, "shared state %d out of range [0,%d)", ts.Shared, t.s)
	}
	if ts.Local < 0 || ts.Local >= t.l {
		return errors.Wrapf(ErrMalformed, "local state %d out of range [0,%d)", ts.Local, t.l)
	}
	return nil
}

func (t *TTD) add(e Edge) {
	id := len(t.trans)
	t.trans = append(t.trans, Transition{ID: id, Src: e.Src, Dst: e.Dst, Spawn: e.Spawn})

	// A spawning thread stays where it is, so a spawn only feeds its
	// destination local state.
	if !e.Spawn {
		t.local[e.Src.Local].Out = append(t.local[e.Src.Local].Out, id)
	}
	t.local[e.Dst.Local].In = append(t.local[e.Dst.Local].In, id)

	if e.Src.Shared != e.Dst.Shared {
		t.shared[e.Src.Shared].Out = append(t.shared[e.Src.Shared].Out, id)
		t.shared[e.Dst.Shared].In = append(t.shared[e.Dst.Shared].In, id)
	}

	if e.Spawn {
		t.spawns = append(t.spawns, id)
	}
	t.succ[e.Src] = append(t.succ[e.Src], id)
}

// S returns the number of shared states.
func (t *TTD) S() int { return t.s }

// L returns the number of local states.
func (t *TTD) L() int { return t.l }

// NumTransitions returns the number of transitions R. Ids range over [0,R).
func (t *TTD) NumTransitions() int { return len(t.trans) }

// Transition returns the transition with the given id.
func (t *TTD) Transition(id int) Transition { return t.trans[id] }

// Transitions returns all transitions in id order.
func (t *TTD) Transitions() []Transition {
	return append([]Transition(nil), t.trans...)
}

// Local returns the incidence of local state l.
func (t *TTD) Local(l int) Incidence { return t.local[l] }

// Shared returns the incidence of shared state s, counting only
// transitions that change the shared state.
func (t *TTD) Shared(s int) Incidence { return t.shared[s] }

// Successors returns the ids of the transitions leaving src, in input order.
// The returned slice must not be modified.
func (t *TTD) Successors(src ThreadState) []int { return t.succ[src] }

// Spawns returns the ids of the spawn transitions.
func (t *TTD) Spawns() []int { return t.spawns }

// HasSpawn reports whether the TTD has at least one spawn transition.
func (t *TTD) HasSpawn() bool { return len(t.spawns) > 0 }

// Contains reports whether ts is a valid thread state of t.
func (t *TTD) Contains(ts ThreadState) bool {
	return t.check(ts) == nil
}

// Sources returns the thread states with outgoing transitions, ordered.
func (t *TTD) Sources() []ThreadState {
	srcs := make([]ThreadState, 0, len(t.succ))
	for ts := range t.succ {
		srcs = append(srcs, ts)
	}
	sort.Slice(srcs, func(i, j int) bool { return srcs[i].Less(srcs[j]) })
	return srcs
}
