package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/walteh/tmplpatch/cmd/tmplpatch/opts"
	"github.com/walteh/tmplpatch/pkg/config"
	"github.com/walteh/tmplpatch/pkg/walk"
	"gitlab.com/tozd/go/errors"
)

type replaceFlags struct {
	match       string
	replace     string
	replaceFile string
	regex       bool
	dotAll      bool
	expand      bool
	first       bool
	markers     []string
	extensions  []string
	exclude     []string
	noRecursive bool
	dryRun      bool
	diff        bool
}

// NewReplaceCmd creates the replace command, a single rule run without a config file
func NewReplaceCmd(o *opts.RootOpts) *cobra.Command {
	f := &replaceFlags{}

	cmd := &cobra.Command{
		Use:   "replace [directory]",
		Short: "Replace text in every template of a directory",
		Long: `Replace runs one find/replace rule over a template directory without a
config file. Files that already contain the replacement are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			root := ""
			if len(args) == 1 {
				root = args[0]
			} else {
				dir, err := o.AskDirectory(ctx, ".")
				if err != nil {
					return err
				}
				root = dir
			}

			cfg, err := f.config(root, cmd.Flags().Changed("replace"))
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return errors.Errorf("invalid rule: %w", err)
			}

			jobs, err := cfg.Jobs(ctx, config.JobOptions{DryRun: f.dryRun, Diff: f.diff})
			if err != nil {
				return errors.Errorf("building jobs: %w", err)
			}

			o.Console(ctx).Header("replacing in " + cfg.Root)
			return runJobs(ctx, o, jobs, f.diff)
		},
	}

	cmd.Flags().StringVarP(&f.match, "match", "m", "", "text or pattern to find")
	cmd.Flags().StringVarP(&f.replace, "replace", "r", "", "replacement text")
	cmd.Flags().StringVar(&f.replaceFile, "replace-file", "", "read the replacement markup from a file")
	cmd.Flags().BoolVar(&f.regex, "regex", false, "treat --match as a regular expression")
	cmd.Flags().BoolVar(&f.dotAll, "dotall", false, "let . match newlines")
	cmd.Flags().BoolVar(&f.expand, "expand", false, "expand $1 and ${name} in the replacement")
	cmd.Flags().BoolVar(&f.first, "first", false, "replace only the first match in each file")
	cmd.Flags().StringSliceVar(&f.markers, "marker", nil, "text whose presence means the file is already patched")
	cmd.Flags().StringSliceVar(&f.extensions, "ext", walk.DefaultExtensions, "file extensions to patch")
	cmd.Flags().StringSliceVarP(&f.exclude, "exclude", "x", nil, "file names or globs to leave untouched")
	cmd.Flags().BoolVar(&f.noRecursive, "no-recursive", false, "only patch files directly in the directory")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().BoolVar(&f.diff, "diff", false, "print a diff for every patched file")
	_ = cmd.MarkFlagRequired("match")
	cmd.MarkFlagsMutuallyExclusive("replace", "replace-file")
	cmd.MarkFlagsOneRequired("replace", "replace-file")

	return cmd
}

func (f *replaceFlags) config(root string, hasReplace bool) (*config.Config, error) {
	recursive := !f.noRecursive
	mode := ""
	if f.first {
		mode = "first"
	}

	rule := config.Rule{
		Name:           "replace",
		Match:          f.match,
		Regex:          f.regex,
		DotAll:         f.dotAll,
		Expand:         f.expand,
		Mode:           mode,
		AlreadyPatched: f.markers,
	}

	cfg := &config.Config{
		Root:       root,
		Extensions: f.extensions,
		Exclude:    f.exclude,
		Recursive:  &recursive,
	}

	switch {
	case hasReplace:
		replace := f.replace
		rule.Replace = &replace
	case f.replaceFile != "":
		abs, err := filepath.Abs(f.replaceFile)
		if err != nil {
			return nil, errors.Errorf("resolving %s: %w", f.replaceFile, err)
		}
		cfg.Markup = map[string]config.MarkupSource{"replacement": {File: abs}}
		rule.ReplaceMarkup = "replacement"
	}

	cfg.Patches = []config.Patch{{Name: "replace", Rules: []config.Rule{rule}}}
	return cfg, nil
}
