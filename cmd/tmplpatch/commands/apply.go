package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/tmplpatch/cmd/tmplpatch/opts"
	"github.com/walteh/tmplpatch/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// NewApplyCmd creates the apply command
func NewApplyCmd(o *opts.RootOpts) *cobra.Command {
	var (
		dryRun  bool
		diff    bool
		patches []string
	)

	cmd := &cobra.Command{
		Use:   "apply [directory]",
		Short: "Apply the configured patches to a template directory",
		Long: `Apply runs every patch from the config file over the template directory.
It will:
1. Resolve the directory from the argument, the config, or a prompt
2. Resolve and validate the shared markup
3. Ask for confirmation when files would change (skip with --yes)
4. Rewrite each file atomically and print a summary`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			root := ""
			if len(args) == 1 {
				root = args[0]
			}

			cfg, err := o.LoadConfig(ctx, root)
			if err != nil {
				return errors.Errorf("loading config: %w", err)
			}

			jobs, err := cfg.Jobs(ctx, config.JobOptions{DryRun: dryRun, Diff: diff, Only: patches})
			if err != nil {
				return errors.Errorf("building jobs: %w", err)
			}

			o.Console(ctx).Header("patching " + cfg.Root)
			return runJobs(ctx, o, jobs, diff)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().BoolVar(&diff, "diff", false, "print a diff for every patched file")
	cmd.Flags().StringSliceVarP(&patches, "patch", "p", nil, "only run the named patches")

	return cmd
}
