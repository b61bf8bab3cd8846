// Package explore implements the bounded breadth-first search over
// counter-abstracted configurations used to validate abstract witnesses.
package explore

import (
	"context"

	"github.com/ajalab/tse/log"
	"github.com/ajalab/tse/trace"
	"github.com/ajalab/tse/ttd"
	"github.com/pkg/errors"
)

// Explorer searches for configurations covering a final thread state.
type Explorer struct {
	ttd    *ttd.TTD
	final  ttd.ThreadState
	target int
}

// New returns an Explorer looking for target threads in final.
func New(t *ttd.TTD, final ttd.ThreadState, target int) *Explorer {
	if target < 1 {
		target = 1
	}
	return &Explorer{ttd: t, final: final, target: target}
}

// Result is the outcome of one bounded search.
type Result struct {
	// Covered reports whether a covering configuration was found.
	Covered bool
	// Witness is the path from the initial configuration to the covering
	// one. It is nil when Covered is false.
	Witness *trace.Trace
	// Explored is the number of distinct configurations visited.
	Explored int
}

// node is an arena entry. parent and via are -1 for the root.
type node struct {
	state  trace.GlobalState
	parent int
	via    int
}

// Explore searches the configurations reachable from n threads in initial
// with at most z spawn firings along any path. The context is checked
// before every dequeue.
func (e *Explorer) Explore(ctx context.Context, initial ttd.ThreadState, n, z int) (Result, error) {
	root := trace.Initial(initial, n)
	arena := []node{{state: root, parent: -1, via: -1}}
	visited := map[string]int{root.Key(): 0}

	for head := 0; head < len(arena); head++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		cur := arena[head].state
		if cur.Covers(e.final, e.target) {
			log.Debug.Printf("explore: n=%d z=%d: %v covers %v after %d configurations", n, z, cur, e.final, len(arena))
			return Result{Covered: true, Witness: witness(arena, head), Explored: len(arena)}, nil
		}
		spawned := cur.Population() - n
		for _, l := range cur.Locals {
			src := ttd.ThreadState{Shared: cur.Shared, Local: l.State}
			for _, id := range e.ttd.Successors(src) {
				tr := e.ttd.Transition(id)
				if tr.Spawn && spawned >= z {
					continue
				}
				next, err := cur.Fire(tr)
				if err != nil {
					return Result{}, errors.Wrapf(err, "exploring from %v", cur)
				}
				key := next.Key()
				if _, ok := visited[key]; ok {
					continue
				}
				visited[key] = len(arena)
				arena = append(arena, node{state: next, parent: head, via: id})
			}
		}
	}
	log.Debug.Printf("explore: n=%d z=%d: %v not covered, %d configurations", n, z, e.final, len(arena))
	return Result{Explored: len(arena)}, nil
}

func witness(arena []node, i int) *trace.Trace {
	var steps []trace.Step
	for ; i >= 0; i = arena[i].parent {
		steps = append(steps, trace.Step{State: arena[i].state, Via: arena[i].via})
	}
	for l, r := 0, len(steps)-1; l < r; l, r = l+1, r-1 {
		steps[l], steps[r] = steps[r], steps[l]
	}
	return &trace.Trace{Steps: steps}
}
