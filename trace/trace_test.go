package trace

import (
	"strings"
	"testing"

	"github.com/ajalab/tse/ttd"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func ts(s, l int) ttd.ThreadState {
	return ttd.ThreadState{Shared: s, Local: l}
}

func TestFire(t *testing.T) {
	testCases := []struct {
		name  string
		state GlobalState
		tr    ttd.Transition
		want  string
	}{
		{
			"ordinary",
			Initial(ts(0, 0), 2),
			ttd.Transition{Src: ts(0, 0), Dst: ts(1, 1)},
			"(1|0^1,1^1)",
		},
		{
			"ordinary empties source",
			Initial(ts(0, 2), 1),
			ttd.Transition{Src: ts(0, 2), Dst: ts(0, 0)},
			"(0|0^1)",
		},
		{
			"spawn",
			Initial(ts(0, 0), 1),
			ttd.Transition{Src: ts(0, 0), Dst: ts(0, 1), Spawn: true},
			"(0|0^1,1^1)",
		},
		{
			"spawn into occupied",
			GlobalState{Shared: 0, Locals: []Local{{0, 1}, {1, 2}}},
			ttd.Transition{Src: ts(0, 0), Dst: ts(2, 1), Spawn: true},
			"(2|0^1,1^3)",
		},
		{
			"vertical",
			Initial(ts(0, 1), 1),
			ttd.Transition{Src: ts(0, 1), Dst: ts(1, 1)},
			"(1|1^1)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.state.String()
			got, err := tc.state.Fire(tc.tr)
			if err != nil {
				t.Fatalf("Fire: %v", err)
			}
			if got.String() != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
			if tc.state.String() != before {
				t.Errorf("Fire modified its receiver: %s became %s", before, tc.state)
			}
			wantPop := tc.state.Population()
			if tc.tr.Spawn {
				wantPop++
			}
			if got.Population() != wantPop {
				t.Errorf("expected population %d, got %d", wantPop, got.Population())
			}
		})
	}
}

func TestFireMissingThread(t *testing.T) {
	g := Initial(ts(0, 0), 1)
	_, err := g.Fire(ttd.Transition{Src: ts(0, 1), Dst: ts(0, 0)})
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected %v, got %v", ErrInvariant, err)
	}
}

func TestKey(t *testing.T) {
	a := GlobalState{Shared: 1, Locals: []Local{{0, 1}, {2, 3}}}
	b, err := GlobalState{Shared: 0, Locals: []Local{{0, 1}, {1, 1}, {2, 2}}}.Fire(
		ttd.Transition{Src: ts(0, 1), Dst: ts(1, 2)})
	if err != nil {
		t.Fatal(err)
	}
	if a.Key() != b.Key() {
		t.Errorf("expected equal keys, got %q and %q", a.Key(), b.Key())
	}
	if a.Key() == Initial(ts(1, 0), 4).Key() {
		t.Errorf("distinct configurations share key %q", a.Key())
	}
	if !a.Covers(ts(1, 2), 3) || a.Covers(ts(1, 2), 4) || a.Covers(ts(0, 2), 1) {
		t.Errorf("unexpected coverage of %v", a)
	}
}

func TestReplay(t *testing.T) {
	g, err := ttd.Parse(strings.NewReader("2 2\n0 0 +> 1 1\n1 1 -> 0 1\n"), ttd.Options{})
	if err != nil {
		t.Fatal(err)
	}
	s0 := Initial(ts(0, 0), 1)
	s1, _ := s0.Fire(g.Transition(0))
	s2, _ := s1.Fire(g.Transition(1))
	tr := &Trace{Steps: []Step{{s0, -1}, {s1, 0}, {s2, 1}}}

	if err := tr.Replay(g); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1}, tr.Transitions()); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
	want := "(0|0^1)\n  0 0 +> 1 1\n(1|0^1,1^1)\n  1 1 -> 0 1\n(0|0^1,1^1)\n"
	if got := tr.Format(g); got != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}

	bad := &Trace{Steps: []Step{{s0, -1}, {s2, 1}}}
	if err := bad.Replay(g); err == nil {
		t.Errorf("expected Replay to reject a disabled transition")
	}
}
