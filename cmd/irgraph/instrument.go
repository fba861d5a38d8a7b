package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kolkov/irgraph/cmd/irgraph/instrument"
	"github.com/kolkov/irgraph/internal/pass"
)

// InstrumentOptions holds flags for the instrument command.
type InstrumentOptions struct {
	*RootOptions
	Output string // instrumented IR path, stdout if empty
	Stats  bool   // print pass statistics
}

// NewInstrumentCommand creates the instrument command.
//
// Flow:
//  1. Parse the IR file
//  2. Run the pass, writing the graph
//  3. Write the instrumented IR
//  4. Optionally print statistics
//
// Example:
//
//	irgraph instrument demo.ir -o demo.inst.ir --stats
//	irgraph instrument --graph out/demo.dot demo.ir > demo.inst.ir
func NewInstrumentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InstrumentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "instrument <file.ir>",
		Short: "Write the static graph and instrument a module",
		Long: `Instrument inserts a runtime logger call before every instruction of
every defined function, and writes the module's operand-to-instruction
graph to the graph file. The instrumented module is written to the output
file, or to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstrument(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "instrumented IR file (default stdout)")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "print instrumentation statistics")

	return cmd
}

func runInstrument(opts *InstrumentOptions, path string, cmd *cobra.Command) error {
	passOpts := opts.Config.PassOptions()
	passOpts.Logger = opts.Logger

	res, err := instrument.InstrumentFile(path, nil, instrument.Options{
		GraphPath: opts.Config.GraphPath,
		Pass:      passOpts,
	})
	if err != nil {
		return err
	}

	if opts.Output == "" {
		if _, err := io.WriteString(cmd.OutOrStdout(), res.Code); err != nil {
			return errors.Wrap(err, "writing instrumented module")
		}
	} else {
		if err := writeFile(opts.Output, []byte(res.Code)); err != nil {
			return err
		}
		opts.Logger.Info("module instrumented",
			zap.String("input", path),
			zap.String("output", opts.Output))
	}

	if opts.Stats {
		// Keep stdout clean when it carries the module.
		w := cmd.OutOrStdout()
		if opts.Output == "" {
			w = cmd.ErrOrStderr()
		}
		return printStats(w, opts.Format, res.Stats)
	}
	return nil
}

// printStats writes stats as text or YAML.
func printStats(w io.Writer, format string, s pass.Stats) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return errors.Wrap(err, "encoding stats")
		}
		return errors.Wrap(enc.Close(), "encoding stats")
	}
	return instrument.WriteStats(w, s)
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating directory %s", dir)
		}
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}
