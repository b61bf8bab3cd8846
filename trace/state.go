// Package trace represents counter-abstracted global configurations of a
// thread population and the paths between them.
package trace

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ajalab/tse/ttd"
	"github.com/pkg/errors"
)

// ErrInvariant is the cause of errors reporting a transition fired from a
// local state with no thread in it.
var ErrInvariant = errors.New("internal invariant violated")

// Local is the number of threads in a local state.
type Local struct {
	State int
	Count int
}

// GlobalState is a shared state and the population count of every
// occupied local state. Locals is ordered by State and every Count is
// positive. GlobalState values are never modified in place.
type GlobalState struct {
	Shared int
	Locals []Local
}

// Initial returns the configuration with n threads in ts.
func Initial(ts ttd.ThreadState, n int) GlobalState {
	g := GlobalState{Shared: ts.Shared}
	if n > 0 {
		g.Locals = []Local{{State: ts.Local, Count: n}}
	}
	return g
}

// Count returns the number of threads in local state l.
func (g GlobalState) Count(l int) int {
	i, ok := g.find(l)
	if !ok {
		return 0
	}
	return g.Locals[i].Count
}

// Population returns the total number of threads.
func (g GlobalState) Population() int {
	n := 0
	for _, l := range g.Locals {
		n += l.Count
	}
	return n
}

// Covers reports whether at least k threads are in thread state ts.
func (g GlobalState) Covers(ts ttd.ThreadState, k int) bool {
	return g.Shared == ts.Shared && g.Count(ts.Local) >= k
}

func (g GlobalState) find(l int) (int, bool) {
	i := sort.Search(len(g.Locals), func(i int) bool { return g.Locals[i].State >= l })
	return i, i < len(g.Locals) && g.Locals[i].State == l
}

func (g GlobalState) clone() GlobalState {
	locals := make([]Local, len(g.Locals), len(g.Locals)+1)
	copy(locals, g.Locals)
	return GlobalState{Shared: g.Shared, Locals: locals}
}

func (g *GlobalState) inc(l int) {
	i, ok := g.find(l)
	if ok {
		g.Locals[i].Count++
		return
	}
	g.Locals = append(g.Locals, Local{})
	copy(g.Locals[i+1:], g.Locals[i:])
	g.Locals[i] = Local{State: l, Count: 1}
}

func (g *GlobalState) dec(l int) error {
	i, ok := g.find(l)
	if !ok {
		return errors.Wrapf(ErrInvariant, "no thread in local state %d of %v", l, *g)
	}
	g.Locals[i].Count--
	if g.Locals[i].Count == 0 {
		g.Locals = append(g.Locals[:i], g.Locals[i+1:]...)
	}
	return nil
}

// Fire returns the configuration reached by firing tr once. An ordinary
// transition moves one thread from the source to the destination local
// state. A spawn transition adds a thread in the destination local state
// and keeps the firing thread where it is. Both set the shared state to
// the destination's.
func (g GlobalState) Fire(tr ttd.Transition) (GlobalState, error) {
	next := g.clone()
	if !tr.Spawn {
		if err := next.dec(tr.Src.Local); err != nil {
			return GlobalState{}, errors.Wrapf(err, "failed to fire %v", tr)
		}
	}
	next.inc(tr.Dst.Local)
	next.Shared = tr.Dst.Shared
	return next, nil
}

// Key returns a string identifying g by value: two configurations have the
// same key iff they have the same shared state and populations.
func (g GlobalState) Key() string {
	b := make([]byte, 0, 8+8*len(g.Locals))
	b = strconv.AppendInt(b, int64(g.Shared), 10)
	for _, l := range g.Locals {
		b = append(b, ';')
		b = strconv.AppendInt(b, int64(l.State), 10)
		b = append(b, ':')
		b = strconv.AppendInt(b, int64(l.Count), 10)
	}
	return string(b)
}

// String formats g as (shared|local^count,...).
func (g GlobalState) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(strconv.Itoa(g.Shared))
	sb.WriteString("|")
	for i, l := range g.Locals {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(strconv.Itoa(l.State))
		sb.WriteString("^")
		sb.WriteString(strconv.Itoa(l.Count))
	}
	sb.WriteString(")")
	return sb.String()
}
