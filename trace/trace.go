package trace

import (
	"strings"

	"github.com/ajalab/tse/ttd"
	"github.com/pkg/errors"
)

// Step is one configuration of a trace together with the transition that
// produced it. Via is -1 for the first step.
type Step struct {
	State GlobalState
	Via   int
}

// Trace is a sequence of configurations, each obtained from the previous
// one by firing a single transition.
type Trace struct {
	Steps []Step
}

// Len returns the number of transitions fired along the trace.
func (t *Trace) Len() int {
	if len(t.Steps) == 0 {
		return 0
	}
	return len(t.Steps) - 1
}

// Last returns the final configuration of the trace.
func (t *Trace) Last() GlobalState {
	return t.Steps[len(t.Steps)-1].State
}

// Transitions returns the ids of the fired transitions in order.
func (t *Trace) Transitions() []int {
	var ids []int
	for _, s := range t.Steps[1:] {
		ids = append(ids, s.Via)
	}
	return ids
}

// Replay checks that every step of t follows from its predecessor by
// firing the recorded transition of g.
func (t *Trace) Replay(g *ttd.TTD) error {
	for i := 1; i < len(t.Steps); i++ {
		prev, cur := t.Steps[i-1].State, t.Steps[i]
		if cur.Via < 0 || cur.Via >= g.NumTransitions() {
			return errors.Errorf("step %d: unknown transition %d", i, cur.Via)
		}
		tr := g.Transition(cur.Via)
		if prev.Shared != tr.Src.Shared || prev.Count(tr.Src.Local) == 0 {
			return errors.Errorf("step %d: %v is not enabled in %v", i, tr, prev)
		}
		next, err := prev.Fire(tr)
		if err != nil {
			return errors.Wrapf(err, "step %d", i)
		}
		if next.Key() != cur.State.Key() {
			return errors.Errorf("step %d: firing %v in %v gives %v, not %v", i, tr, prev, next, cur.State)
		}
	}
	return nil
}

// Format writes one configuration per line, each followed by the
// transition leading to the next one.
func (t *Trace) Format(g *ttd.TTD) string {
	var sb strings.Builder
	for i, s := range t.Steps {
		if i > 0 {
			sb.WriteString("  ")
			sb.WriteString(g.Transition(s.Via).String())
			sb.WriteString("\n")
		}
		sb.WriteString(s.State.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
