package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kolkov/irgraph/cmd/irgraph/runtime"
	"github.com/kolkov/irgraph/internal/ir"
	"github.com/kolkov/irgraph/rtlog"
)

const version = "1.0.0"

// NewVersionCommand creates the version command.
func NewVersionCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// No configuration needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			info := rtlog.GetInfo()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "irgraph version %s\n", version)
			fmt.Fprintf(out, "IR format %s\n", ir.FormatVersion)
			fmt.Fprintf(out, "runtime %s (%s)\n", info.Version, runtime.GetRuntimePackagePath())
		},
	}
}
