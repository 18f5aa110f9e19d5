package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/tmplpatch/cmd/tmplpatch/commands"
	"github.com/walteh/tmplpatch/cmd/tmplpatch/opts"
)

// newRootCmd builds the command tree around shared options
func newRootCmd(o *opts.RootOpts) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tmplpatch",
		Short: "Patch EJS templates in place, idempotently",
		Long: `tmplpatch applies find/replace rules to every template in a directory.
Files that already carry the change are skipped, files that fail to read are
reported and left alone, and every write is atomic.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := setupLogging(o.Stderr, o.Debug)
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
	}

	addRootFlags(rootCmd, o)

	rootCmd.AddCommand(
		commands.NewApplyCmd(o),
		commands.NewReplaceCmd(o),
		commands.NewCheckCmd(o),
		commands.NewExtractCmd(o),
		newVersionCmd(o),
	)

	return rootCmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", "", "config file path (default: tmplpatch.{hcl,yaml,yml,json})")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringArrayVar(&o.Vars, "var", nil, "set an HCL variable, key=value")
	cmd.PersistentFlags().BoolVarP(&o.Yes, "yes", "y", false, "do not ask for confirmation")
}

// setupLogging builds the structured logger; console output goes to stdout separately
func setupLogging(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).Level(level).With().Timestamp().Logger()
}

func newVersionCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(o.Stdout, FormatVersion())
			return err
		},
	}
}
