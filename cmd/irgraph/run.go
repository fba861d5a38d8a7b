package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kolkov/irgraph/cmd/irgraph/instrument"
	"github.com/kolkov/irgraph/cmd/irgraph/runtime"
	"github.com/kolkov/irgraph/internal/interp"
	"github.com/kolkov/irgraph/internal/ir"
	"github.com/kolkov/irgraph/rtlog"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Entry      string // function to call
	Times      int    // executions within one process
	Instrument bool   // instrument before running
	StepLimit  int    // instruction budget per execution
}

// NewRunCommand creates the run command.
//
// The module is executed by the interpreter with the runtime logger bound
// to its initLogFile/logInstruction declarations. Counters live in the
// interpreter's globals, so with --times N they keep counting across the N
// executions exactly as repeated calls inside one native process would.
//
// Flow:
//  1. Parse the module (instrumenting it first with --instrument)
//  2. Bind the runtime to the configured log file
//  3. Call the entry function N times, printing each result
//  4. Close the log
//
// Example:
//
//	irgraph run demo.inst.ir
//	irgraph run --instrument --times 2 demo.ir
//	irgraph run --entry fib demo.inst.ir 10
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <file.ir> [args...]",
		Short: "Execute a module with the runtime logger bound",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Entry, "entry", "main", "entry function")
	cmd.Flags().IntVar(&opts.Times, "times", 1, "number of executions in one process")
	cmd.Flags().BoolVar(&opts.Instrument, "instrument", false, "instrument the module (and write the graph) before running")
	cmd.Flags().IntVar(&opts.StepLimit, "step-limit", interp.DefaultStepLimit, "instructions allowed per execution (0 for no limit)")

	return cmd
}

func runRun(opts *RunOptions, path string, rawArgs []string, cmd *cobra.Command) (err error) {
	if opts.Times < 1 {
		return errors.Errorf("--times must be at least 1, got %d", opts.Times)
	}
	args, err := parseIntArgs(rawArgs)
	if err != nil {
		return err
	}
	mod, err := loadModule(opts, path)
	if err != nil {
		return err
	}

	cfg := opts.Config
	if dir := filepath.Dir(cfg.LogPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating log directory %s", dir)
		}
	}
	logger := rtlog.New(cfg.LogPath, rtlog.WithFallback(cmd.ErrOrStderr()))
	defer func() {
		err = multierr.Append(err, logger.Close())
	}()

	mach := interp.New(mod, interp.WithStepLimit(opts.StepLimit), interp.WithLogger(opts.Logger))
	if err := runtime.Link(mach, logger, runtime.Symbols{
		Logger: cfg.LoggerSymbol,
		Init:   cfg.InitSymbol,
	}); err != nil {
		return err
	}

	for i := 0; i < opts.Times; i++ {
		ret, err := mach.Run(opts.Entry, args...)
		if err != nil {
			return errors.Wrapf(err, "execution %d", i+1)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ret.I)
		opts.Logger.Debug("execution finished",
			zap.Int("execution", i+1),
			zap.Int("steps", mach.Steps()))
	}
	if lerr := logger.Err(); lerr != nil {
		opts.Logger.Warn("dynamic log written to stderr", zap.Error(lerr))
	}
	opts.Logger.Info("run complete",
		zap.String("entry", opts.Entry),
		zap.Int("times", opts.Times),
		zap.String("log", cfg.LogPath))
	return nil
}

func loadModule(opts *RunOptions, path string) (*ir.Module, error) {
	if !opts.Instrument {
		return ir.ParseFile(path)
	}
	passOpts := opts.Config.PassOptions()
	passOpts.Logger = opts.Logger
	res, err := instrument.InstrumentFile(path, nil, instrument.Options{
		GraphPath: opts.Config.GraphPath,
		Pass:      passOpts,
	})
	if err != nil {
		return nil, err
	}
	return res.Module, nil
}

func parseIntArgs(raw []string) ([]int64, error) {
	args := make([]int64, len(raw))
	for i, s := range raw {
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, errors.Errorf("argument %d: %q is not an integer", i+1, s)
		}
		args[i] = v
	}
	return args, nil
}
