package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kolkov/irgraph/internal/config"
	"github.com/kolkov/irgraph/internal/logging"
)

// RootOptions holds global flags and the state every command shares.
type RootOptions struct {
	ConfigFile string
	Format     string // "text" | "yaml"

	viper  *viper.Viper
	Config *config.Config
	Logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "yaml"}

// NewRootCommand creates the root command for the irgraph CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{viper: config.New()}

	cmd := &cobra.Command{
		Use:   "irgraph",
		Short: "irgraph - static IR graphs with dynamic execution counts",
		Long: `irgraph instruments IR modules so that every executed instruction is
logged, writes the module's operand graph in DOT format, and colours that
graph with the execution counts recorded at run time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "YAML configuration file")
	flags.StringVar(&opts.Format, "format", "text", "output format (text|yaml)")
	flags.String("graph", config.DefaultGraphPath, "static graph file")
	flags.String("log", config.DefaultLogPath, "dynamic log file")
	flags.String("entry-init", "per-function", "functions that get the log initializer (per-function|first-function)")
	flags.String("log-level", "info", "diagnostics level (debug|info|warn|error)")
	flags.String("log-format", "console", "diagnostics format (console|json|logfmt)")
	bind(opts.viper, cmd, map[string]string{
		config.KeyGraphPath: "graph",
		config.KeyLogPath:   "log",
		config.KeyEntryInit: "entry-init",
		config.KeyLogLevel:  "log-level",
		config.KeyLogFormat: "log-format",
	})

	// Add subcommands
	cmd.AddCommand(NewInstrumentCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewHeatCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// bind ties config keys to persistent flags. Flags only take precedence
// when set on the command line.
func bind(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		// BindPFlag only fails for a nil flag.
		_ = v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag))
	}
}

func (o *RootOptions) setup(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return errors.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}
	cfg, err := config.Load(o.viper, o.ConfigFile)
	if err != nil {
		return err
	}
	log, err := logging.New(logging.Config{
		Format: cfg.LogFormat,
		Level:  cfg.LogLevel,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	o.Config = cfg
	o.Logger = log
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
