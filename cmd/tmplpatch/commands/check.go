package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/tmplpatch/cmd/tmplpatch/opts"
	"github.com/walteh/tmplpatch/pkg/config"
	"github.com/walteh/tmplpatch/pkg/patch"
	"gitlab.com/tozd/go/errors"
)

// NewCheckCmd creates the check command
func NewCheckCmd(o *opts.RootOpts) *cobra.Command {
	var diff bool

	cmd := &cobra.Command{
		Use:   "check [directory]",
		Short: "Report which templates still need patching",
		Long: `Check reads every candidate file without writing anything and exits
non-zero when at least one file would be patched.`,
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

			jobs, err := cfg.Jobs(ctx, config.JobOptions{DryRun: true, Diff: diff})
			if err != nil {
				return errors.Errorf("building jobs: %w", err)
			}

			console := o.Console(ctx).WithDiff(diff)
			console.Header("checking " + cfg.Root)

			patcher := patch.New(patch.Options{Observer: console})
			pending := 0
			for _, job := range jobs {
				console.StartJob(ctx, job)
				report, err := patcher.Plan(ctx, job)
				if err != nil {
					return errors.Errorf("checking %s: %w", job.Name, err)
				}
				if err := console.Summary(ctx, report); err != nil {
					return errors.Errorf("printing summary: %w", err)
				}
				pending += report.Summary.Modified
			}

			if pending > 0 {
				return errors.Errorf("%w: %d file(s)", ErrPendingChanges, pending)
			}
			console.Success("All templates are up to date")
			return nil
		},
	}

	cmd.Flags().BoolVar(&diff, "diff", false, "print a diff for every file that would change")

	return cmd
}
