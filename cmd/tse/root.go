package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/ajalab/tse"
	"github.com/ajalab/tse/log"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	exitUnreachable = 0
	exitReachable   = 1
	exitError       = 2
)

type options struct {
	input   string
	initial string
	final   string

	selfLoop   bool
	adjList    bool
	dot        bool
	constraint bool
	all        bool
	witness    bool

	solver        string
	maxWidth      int
	maxIterations uint
	timeout       time.Duration
	logLevel      string

	config  string
	report  string
	noColor bool
}

func newRootCmd(stdout, stderr io.Writer, code *int) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "tse -f TTD -i INITIAL -t FINAL",
		Short: "Decide thread-state coverability with the thread-state equation",
		Long: `tse decides whether the final thread state of a thread-transition diagram
can be covered from any number of threads starting in the initial thread state.

The thread-state equation is checked by a solver; every model is validated
by a bounded search over counter-abstracted configurations, and refuted
models are excluded until the solver reports unsat or a search succeeds.

Thread states are given inline as shared|local[,local...] or as a file whose
first line holds one. Repeating the local state of the final thread state
asks for that many threads in it at once.

Examples:
  tse -f lock.ttd -i 0|0 -t 0|3            # is local state 3 reachable?
  tse -f spawn.ttd -i 0|0 -t 0|1,1 --witness
  tse -f lock.ttd -i init.txt -t final.txt --report out.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfigFile(cmd, opts); err != nil {
				return err
			}
			c, err := run(cmd.Context(), opts, stdout, stderr)
			*code = c
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input-file", "f", "", "TTD file")
	f.StringVarP(&opts.initial, "initial", "i", "", "initial thread state or a file holding it")
	f.StringVarP(&opts.final, "target", "t", "", "final thread state or a file holding it")
	f.BoolVar(&opts.selfLoop, "self-loop", false, "keep transitions from a thread state to itself")
	f.BoolVar(&opts.adjList, "adj-list", false, "print the adjacency list of the TTD")
	f.BoolVar(&opts.dot, "dot", false, "print the TTD in Graphviz DOT format")
	f.BoolVar(&opts.constraint, "constraint", false, "print the thread-state equation")
	f.BoolVar(&opts.all, "all", false, "print all diagnostics")
	f.BoolVar(&opts.witness, "witness", false, "print a covering path when the final thread state is reachable")
	f.StringVar(&opts.solver, "solver", defaultSolver(), fmt.Sprintf("constraint solver %v", solverNames()))
	f.IntVar(&opts.maxWidth, "max-width", 0, "bit width limit of the sat solver (0 for the default)")
	f.UintVar(&opts.maxIterations, "max-iterations", 0, "CEGAR iteration limit (0 for none)")
	f.DurationVar(&opts.timeout, "timeout", 0, "wall-clock limit of the analysis (0 for none)")
	f.StringVar(&opts.logLevel, "log-level", "error", "log level: debug, info, error or disabled")
	f.StringVar(&opts.config, "config", "", "TOML configuration file")
	f.StringVar(&opts.report, "report", "", "write a YAML report to this file")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	for _, name := range []string{"input-file", "initial", "target"} {
		_ = cmd.MarkFlagRequired(name)
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

func execute(args []string, stdout, stderr io.Writer) int {
	code := exitError
	cmd := newRootCmd(stdout, stderr, &code)
	cmd.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if kind := tse.Kind(err); kind != "Unknown" {
			fmt.Fprintf(stderr, "tse: %s: %v\n", kind, err)
		} else {
			fmt.Fprintf(stderr, "tse: %v\n", err)
		}
		return exitError
	}
	return code
}

func run(ctx context.Context, opts *options, stdout, stderr io.Writer) (int, error) {
	log.SetOutput(stderr)
	if !colorEnabled(stderr, !opts.noColor) {
		color.NoColor = true
	}
	if err := log.SetLevelByName(opts.logLevel); err != nil {
		return exitError, err
	}
	newSolver, err := newSolverFactory(opts)
	if err != nil {
		return exitError, err
	}
	config := &tse.Config{
		NewSolver:     newSolver,
		MaxIterations: opts.maxIterations,
		KeepSelfLoops: opts.selfLoop,
	}

	p, err := tse.Load(config, opts.input, opts.initial, opts.final)
	if err != nil {
		return exitError, err
	}
	if err := printDiagnostics(stdout, p, opts); err != nil {
		return exitError, err
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}
	start := time.Now()
	res, err := tse.Analyze(ctx, p, config)
	elapsed := time.Since(start)
	if err != nil {
		log.Error.Printf("%s: analysis stopped after %v with %s", opts.input, elapsed.Round(time.Millisecond), tse.Kind(err))
		return exitError, errors.Wrapf(err, "failed to analyze %s", opts.input)
	}

	printVerdict(stdout, p, res, !opts.noColor)
	if res.Witness != nil && (opts.witness || opts.all) {
		fmt.Fprintf(stdout, "witness (%d threads, %d transitions):\n", res.N, res.Witness.Len())
		fmt.Fprint(stdout, res.Witness.Format(p.TTD))
	}
	if opts.report != "" {
		if err := writeReport(opts.report, newReport(opts, p, res, elapsed)); err != nil {
			return exitError, err
		}
	}

	if res.Verdict == tse.Reachable {
		return exitReachable, nil
	}
	return exitUnreachable, nil
}

func printDiagnostics(w io.Writer, p *tse.Problem, opts *options) error {
	if opts.adjList || opts.all {
		if err := p.TTD.WriteAdjacency(w); err != nil {
			return errors.Wrap(err, "failed to print the adjacency list")
		}
	}
	if opts.dot || opts.all {
		if err := p.TTD.WriteDOT(w); err != nil {
			return errors.Wrap(err, "failed to print the DOT graph")
		}
	}
	if opts.constraint || opts.all {
		fmt.Fprintln(w, "thread-state equation:")
		for _, c := range p.Equation() {
			fmt.Fprintf(w, "  %v\n", c)
		}
	}
	return nil
}
