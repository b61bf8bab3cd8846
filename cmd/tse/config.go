package main

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// fileConfig is the TOML configuration file. Keys left out keep the flag
// defaults, and flags given on the command line override the file.
type fileConfig struct {
	Solver        string `toml:"solver"`
	LogLevel      string `toml:"log_level"`
	MaxIterations uint   `toml:"max_iterations"`
	MaxWidth      int    `toml:"max_width"`
	Timeout       string `toml:"timeout"`
	SelfLoop      bool   `toml:"self_loop"`
}

func applyConfigFile(cmd *cobra.Command, opts *options) error {
	if opts.config == "" {
		return nil
	}
	var fc fileConfig
	md, err := toml.DecodeFile(opts.config, &fc)
	if err != nil {
		return errors.Wrapf(err, "failed to read config %s", opts.config)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.Errorf("config %s: unknown keys %v", opts.config, undecoded)
	}

	use := func(key, flag string) bool {
		return md.IsDefined(key) && !cmd.Flags().Changed(flag)
	}
	if use("solver", "solver") {
		opts.solver = fc.Solver
	}
	if use("log_level", "log-level") {
		opts.logLevel = fc.LogLevel
	}
	if use("max_iterations", "max-iterations") {
		opts.maxIterations = fc.MaxIterations
	}
	if use("max_width", "max-width") {
		opts.maxWidth = fc.MaxWidth
	}
	if use("self_loop", "self-loop") {
		opts.selfLoop = fc.SelfLoop
	}
	if use("timeout", "timeout") {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return errors.Wrapf(err, "config %s: timeout", opts.config)
		}
		opts.timeout = d
	}
	return nil
}
