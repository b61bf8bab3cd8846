package ttd

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CommentPrefix starts a comment that runs to the end of the line.
const CommentPrefix = "#"

// StripComments removes comments from every line read from r and returns
// the remaining lines. Line numbering is preserved.
func StripComments(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, CommentPrefix); i >= 0 {
			line = line[:i]
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read TTD")
	}
	return lines, nil
}

// Parse reads a TTD in the text format:
//
//	S L
//	s1 l1 -> s2 l2
//	s1 l1 +> s2 l2
//
// where "->" is an ordinary transition and "+>" spawns a thread.
func Parse(r io.Reader, opts Options) (*TTD, error) {
	lines, err := StripComments(r)
	if err != nil {
		return nil, err
	}

	header := true
	var s, l int
	var edges []Edge
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		lineno := i + 1
		if header {
			if len(fields) != 2 {
				return nil, errors.Wrapf(ErrMalformed, "line %d: expected \"S L\", got %q", lineno, strings.TrimSpace(line))
			}
			if s, err = atoi(fields[0]); err != nil {
				return nil, errors.Wrapf(err, "line %d: shared state count", lineno)
			}
			if l, err = atoi(fields[1]); err != nil {
				return nil, errors.Wrapf(err, "line %d: local state count", lineno)
			}
			header = false
			continue
		}
		e, err := parseEdge(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineno)
		}
		edges = append(edges, e)
	}
	if header {
		return nil, errors.Wrap(ErrMalformed, "missing \"S L\" header")
	}
	return New(s, l, edges, opts)
}

// ParseFile parses the TTD stored in the named file.
func ParseFile(name string, opts Options) (*TTD, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "cannot open TTD: %v", err)
	}
	defer f.Close()
	t, err := Parse(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", name)
	}
	return t, nil
}

func parseEdge(fields []string) (Edge, error) {
	if len(fields) != 5 {
		return Edge{}, errors.Wrapf(ErrMalformed, "expected \"s1 l1 -> s2 l2\", got %q", strings.Join(fields, " "))
	}
	var e Edge
	switch fields[2] {
	case "->":
	case "+>":
		e.Spawn = true
	default:
		return Edge{}, errors.Wrapf(ErrMalformed, "illegal transition separator %q", fields[2])
	}
	var ns [4]int
	for i, f := range []string{fields[0], fields[1], fields[3], fields[4]} {
		n, err := atoi(f)
		if err != nil {
			return Edge{}, err
		}
		ns[i] = n
	}
	e.Src = ThreadState{Shared: ns[0], Local: ns[1]}
	e.Dst = ThreadState{Shared: ns[2], Local: ns[3]}
	return e, nil
}

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.Wrapf(ErrMalformed, "not a state index: %q", s)
	}
	return n, nil
}

// ParseThreadState parses "shared|local[,local...]". The number of
// comma-separated locals is returned as the multiplicity; all of them must
// name the same local state.
func ParseThreadState(s string) (ThreadState, int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "|")
	if len(parts) != 2 {
		return ThreadState{}, 0, errors.Wrapf(ErrMalformed, "thread state %q: expected \"shared|local\"", s)
	}
	shared, err := atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return ThreadState{}, 0, errors.Wrapf(err, "thread state %q", s)
	}
	locals := strings.Split(parts[1], ",")
	local := -1
	for _, ls := range locals {
		l, err := atoi(strings.TrimSpace(ls))
		if err != nil {
			return ThreadState{}, 0, errors.Wrapf(err, "thread state %q", s)
		}
		if local >= 0 && l != local {
			return ThreadState{}, 0, errors.Wrapf(ErrMalformed, "thread state %q: locals must coincide", s)
		}
		local = l
	}
	return ThreadState{Shared: shared, Local: local}, len(locals), nil
}

// ReadThreadState accepts either an inline "shared|local" literal or the
// name of a file whose first line holds one.
func ReadThreadState(arg string) (ThreadState, int, error) {
	if strings.Contains(arg, "|") {
		return ParseThreadState(arg)
	}
	f, err := os.Open(arg)
	if err != nil {
		return ThreadState{}, 0, errors.Wrapf(ErrMalformed, "cannot read thread state: %v", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return ThreadState{}, 0, errors.Wrapf(ErrMalformed, "%s: %v", arg, err)
		}
		return ThreadState{}, 0, errors.Wrapf(ErrMalformed, "%s: empty thread state file", arg)
	}
	ts, n, err := ParseThreadState(sc.Text())
	if err != nil {
		return ThreadState{}, 0, errors.Wrapf(err, "%s", arg)
	}
	return ts, n, nil
}
