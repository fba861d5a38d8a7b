package main

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kolkov/irgraph/internal/heat"
)

// DefaultHeatOutput is where the coloured graph goes by default.
const DefaultHeatOutput = "assets/colored_graph.dot"

// HeatOptions holds flags for the heat command.
type HeatOptions struct {
	*RootOptions
	Output  string // coloured graph path
	Summary string // YAML summary path, "-" for stdout
	Top     int    // sites listed in the summary
}

// NewHeatCommand creates the heat command.
//
// Example:
//
//	irgraph heat
//	irgraph heat --graph out/g.dot --log out/d.log -o out/hot.dot --summary -
func NewHeatCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HeatOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "heat",
		Short: "Colour the static graph by execution count",
		Long: `Heat reads the dynamic log, keeps the highest counter seen for each node
id and fills every instruction node of the static graph with a colour
from green (never executed) to red (most executed).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeat(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", DefaultHeatOutput, "coloured graph file")
	cmd.Flags().StringVar(&opts.Summary, "summary", "", "write a YAML summary of the hottest sites (\"-\" for stdout)")
	cmd.Flags().IntVar(&opts.Top, "top", 10, "sites listed in the summary (0 for all)")

	return cmd
}

func runHeat(opts *HeatOptions, cmd *cobra.Command) error {
	cfg := opts.Config

	logFile, err := os.Open(cfg.LogPath)
	if err != nil {
		return errors.Wrap(err, "opening dynamic log")
	}
	defer logFile.Close()
	profile, err := heat.ParseLog(logFile)
	if err != nil {
		return err
	}

	graph, err := os.ReadFile(cfg.GraphPath)
	if err != nil {
		return errors.Wrap(err, "reading graph")
	}
	colored, painted, err := heat.Colorize(graph, profile)
	if err != nil {
		return errors.Wrapf(err, "colouring %s", cfg.GraphPath)
	}
	if err := writeFile(opts.Output, colored); err != nil {
		return err
	}
	opts.Logger.Info("graph coloured",
		zap.String("output", opts.Output),
		zap.Int("nodes", painted),
		zap.Int("sites", len(profile.Sites)),
		zap.Int64("peak", profile.Max()))

	if opts.Summary == "" {
		return nil
	}
	labels, err := heat.Labels(graph)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := heat.Summarize(profile, labels, opts.Top).WriteYAML(&buf); err != nil {
		return err
	}
	if opts.Summary == "-" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return errors.Wrap(err, "writing summary")
	}
	return writeFile(opts.Summary, buf.Bytes())
}
