package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ajalab/tse"
	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

type report struct {
	Input      string        `yaml:"input"`
	Initial    string        `yaml:"initial"`
	Final      string        `yaml:"final"`
	Solver     string        `yaml:"solver"`
	Verdict    string        `yaml:"verdict"`
	Iterations int           `yaml:"iterations"`
	Threads    int           `yaml:"threads,omitempty"`
	Spawns     int           `yaml:"spawns,omitempty"`
	Explored   int           `yaml:"explored"`
	Elapsed    string        `yaml:"elapsed"`
	Witness    []witnessStep `yaml:"witness,omitempty"`
}

type witnessStep struct {
	Transition string `yaml:"transition,omitempty"`
	State      string `yaml:"state"`
}

func newReport(opts *options, p *tse.Problem, res *tse.Result, elapsed time.Duration) *report {
	r := &report{
		Input:      opts.input,
		Initial:    threadStateSpec(p.Initial.Shared, p.Initial.Local, 1),
		Final:      threadStateSpec(p.Final.Shared, p.Final.Local, p.Target),
		Solver:     opts.solver,
		Verdict:    res.Verdict.String(),
		Iterations: res.Iterations,
		Explored:   res.Explored,
		Elapsed:    elapsed.Round(time.Microsecond).String(),
	}
	if res.Witness == nil {
		return r
	}
	r.Threads, r.Spawns = res.N, res.Z
	for _, s := range res.Witness.Steps {
		step := witnessStep{State: s.State.String()}
		if s.Via >= 0 {
			step.Transition = p.TTD.Transition(s.Via).String()
		}
		r.Witness = append(r.Witness, step)
	}
	return r
}

func writeReport(path string, r *report) error {
	b, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "failed to encode the report")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrap(err, "failed to write the report")
	}
	return nil
}

// threadStateSpec formats a thread state in the input syntax, repeating
// the local state k times.
func threadStateSpec(shared, local, k int) string {
	locals := make([]string, k)
	for i := range locals {
		locals[i] = strconv.Itoa(local)
	}
	return strconv.Itoa(shared) + "|" + strings.Join(locals, ",")
}

func colorEnabled(w io.Writer, want bool) bool {
	f, ok := w.(*os.File)
	return want && ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func printVerdict(w io.Writer, p *tse.Problem, res *tse.Result, useColor bool) {
	final := "(" + threadStateSpec(p.Final.Shared, p.Final.Local, p.Target) + ")"
	var c *color.Color
	var msg string
	if res.Verdict == tse.Reachable {
		c = color.New(color.FgRed, color.Bold)
		msg = final + " is reachable: verification failed!"
	} else {
		c = color.New(color.FgGreen, color.Bold)
		msg = final + " is unreachable: verification successful!"
	}
	if colorEnabled(w, useColor) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	fmt.Fprintln(w, c.Sprint(msg))
}
