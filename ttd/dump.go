package ttd

import (
	"bufio"
	"fmt"
	"io"
)

// WriteAdjacency prints the header and every transition of t, grouped by
// source thread state.
func (t *TTD) WriteAdjacency(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", t.s, t.l)
	for _, src := range t.Sources() {
		for _, id := range t.succ[src] {
			tr := t.trans[id]
			sep := "->"
			if tr.Spawn {
				sep = "+>"
			}
			fmt.Fprintf(bw, "%v %s %v\n", tr.Src, sep, tr.Dst)
		}
	}
	return bw.Flush()
}

// WriteDOT writes t as a Graphviz digraph. Spawn edges are dashed.
func (t *TTD) WriteDOT(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph TTD {")
	fmt.Fprintln(bw, "  rankdir=LR;")
	fmt.Fprintln(bw, "  node [shape=box];")
	for _, tr := range t.trans {
		attrs := fmt.Sprintf("label=\"x%d\"", tr.ID)
		if tr.Spawn {
			attrs += ", style=dashed"
		}
		fmt.Fprintf(bw, "  \"%d|%d\" -> \"%d|%d\" [%s];\n",
			tr.Src.Shared, tr.Src.Local, tr.Dst.Shared, tr.Dst.Local, attrs)
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
