package ttd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestParse(t *testing.T) {
	src := `# two shared states, three locals
2 3
0 0 -> 0 1   # ordinary
0 1 +> 1 2
1 2 -> 0 0

0 0 -> 0 0   # self-loop
`
	g, err := Parse(strings.NewReader(src), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if g.S() != 2 || g.L() != 3 {
		t.Fatalf("expected S=2 L=3, got S=%d L=%d", g.S(), g.L())
	}

	want := []Transition{
		{ID: 0, Src: ThreadState{0, 0}, Dst: ThreadState{0, 1}},
		{ID: 1, Src: ThreadState{0, 1}, Dst: ThreadState{1, 2}, Spawn: true},
		{ID: 2, Src: ThreadState{1, 2}, Dst: ThreadState{0, 0}},
	}
	if diff := cmp.Diff(want, g.Transitions()); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}

	locals := []Incidence{
		{In: []int{2}, Out: []int{0}},
		{In: []int{0}},
		{In: []int{1}, Out: []int{2}},
	}
	for l, inc := range locals {
		if diff := cmp.Diff(inc, g.Local(l)); diff != "" {
			t.Errorf("local %d incidence mismatch (-want +got):\n%s", l, diff)
		}
	}

	shareds := []Incidence{
		{In: []int{2}, Out: []int{1}},
		{In: []int{1}, Out: []int{2}},
	}
	for s, inc := range shareds {
		if diff := cmp.Diff(inc, g.Shared(s)); diff != "" {
			t.Errorf("shared %d incidence mismatch (-want +got):\n%s", s, diff)
		}
	}

	if !g.HasSpawn() {
		t.Errorf("expected a spawn transition")
	}
	if diff := cmp.Diff([]int{1}, g.Spawns()); diff != "" {
		t.Errorf("spawns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0}, g.Successors(ThreadState{0, 0})); diff != "" {
		t.Errorf("successors mismatch (-want +got):\n%s", diff)
	}
}

func TestSelfLoops(t *testing.T) {
	src := "1 2\n0 0 -> 0 0\n0 0 -> 0 1\n"
	testCases := []struct {
		keep bool
		n    int
	}{
		{false, 1},
		{true, 2},
	}
	for _, tc := range testCases {
		g, err := Parse(strings.NewReader(src), Options{KeepSelfLoops: tc.keep})
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if g.NumTransitions() != tc.n {
			t.Errorf("keep=%v: expected %d transitions, got %d", tc.keep, tc.n, g.NumTransitions())
		}
		if !tc.keep && len(g.Successors(ThreadState{0, 0})) != 1 {
			t.Errorf("self-loop must not appear in the successor map")
		}
	}
}

func TestParseMalformed(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{"empty", "# nothing\n"},
		{"header", "1\n"},
		{"separator", "1 2\n0 0 => 0 1\n"},
		{"fields", "1 2\n0 0 -> 0\n"},
		{"shared range", "1 2\n0 0 -> 1 1\n"},
		{"local range", "1 2\n0 0 -> 0 2\n"},
		{"negative", "1 2\n0 -1 -> 0 1\n"},
		{"not a number", "1 2\n0 a -> 0 1\n"},
		{"zero states", "0 2\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.src), Options{})
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestParseThreadState(t *testing.T) {
	testCases := []struct {
		in   string
		ts   ThreadState
		n    int
		fail bool
	}{
		{in: "0|0", ts: ThreadState{0, 0}, n: 1},
		{in: " 2|3 ", ts: ThreadState{2, 3}, n: 1},
		{in: "0|1,1", ts: ThreadState{0, 1}, n: 2},
		{in: "1|4,4,4", ts: ThreadState{1, 4}, n: 3},
		{in: "0|1,2", fail: true},
		{in: "0", fail: true},
		{in: "0|", fail: true},
		{in: "x|1", fail: true},
	}
	for _, tc := range testCases {
		ts, n, err := ParseThreadState(tc.in)
		if tc.fail {
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("%q: expected ErrMalformed, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tc.in, err)
			continue
		}
		if ts != tc.ts || n != tc.n {
			t.Errorf("%q: expected %v x%d, got %v x%d", tc.in, tc.ts, tc.n, ts, n)
		}
	}
}

func TestReadThreadStateFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "final.ts")
	if err := os.WriteFile(name, []byte("1|2,2\nignored\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ts, n, err := ReadThreadState(name)
	if err != nil {
		t.Fatalf("ReadThreadState: %v", err)
	}
	if ts != (ThreadState{1, 2}) || n != 2 {
		t.Errorf("expected (1|2) x2, got %v x%d", ts, n)
	}

	if _, _, err := ReadThreadState(filepath.Join(dir, "missing")); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for a missing file, got %v", err)
	}
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadThreadState(empty); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for an empty file, got %v", err)
	}
}

func TestWriteAdjacency(t *testing.T) {
	g, err := Parse(strings.NewReader("2 2\n1 0 -> 0 1\n0 0 +> 0 1\n"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := g.WriteAdjacency(&buf); err != nil {
		t.Fatal(err)
	}
	want := "2 2\n(0|0) +> (0|1)\n(1|0) -> (0|1)\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("adjacency mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	if err := g.WriteDOT(&buf); err != nil {
		t.Fatal(err)
	}
	dot := buf.String()
	for _, s := range []string{
		"digraph TTD {",
		`"1|0" -> "0|1" [label="x0"];`,
		`"0|0" -> "0|1" [label="x1", style=dashed];`,
	} {
		if !strings.Contains(dot, s) {
			t.Errorf("DOT output lacks %q:\n%s", s, dot)
		}
	}
}
