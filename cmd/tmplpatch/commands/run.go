package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/walteh/tmplpatch/cmd/tmplpatch/opts"
	"github.com/walteh/tmplpatch/pkg/patch"
	"github.com/walteh/tmplpatch/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// ErrPendingChanges is returned by check when at least one file would change
var ErrPendingChanges = errors.Base("templates need patching")

// ErrAborted is returned when the operator declines the confirmation
var ErrAborted = errors.Base("aborted by user")

// runJobs plans every job, asks once for confirmation when something would
// change, then applies the jobs one after another
func runJobs(ctx context.Context, o *opts.RootOpts, jobs []patch.Job, diff bool) error {
	console := o.Console(ctx).WithDiff(diff)

	dryRun := len(jobs) > 0 && jobs[0].DryRun
	if !dryRun {
		pending, err := pendingFiles(ctx, jobs)
		if err != nil {
			return err
		}
		if pending > 0 {
			ok, err := o.Prompt().Confirm(ctx, fmt.Sprintf("Patch %d file(s)?", pending))
			if err != nil {
				return errors.Errorf("confirming: %w", err)
			}
			if !ok {
				console.Warning("No files were modified")
				return ErrAborted
			}
		}
	}

	patcher := patch.New(patch.Options{Observer: console})
	for _, job := range jobs {
		console.StartJob(ctx, job)
		report, err := patcher.Run(ctx, job)
		if report != nil {
			if serr := console.Summary(ctx, report); serr != nil {
				return errors.Errorf("printing summary: %w", serr)
			}
		}
		if err != nil {
			return errors.Errorf("running %s: %w", job.Name, err)
		}
		console.LogNewline()
	}
	return nil
}

// pendingFiles counts the distinct files the jobs would rewrite when applied
// in order
func pendingFiles(ctx context.Context, jobs []patch.Job) (int, error) {
	reports, err := patch.New(patch.Options{}).PlanJobs(ctx, jobs)
	if err != nil {
		return 0, errors.Errorf("planning: %w", err)
	}
	pending := map[string]bool{}
	for _, report := range reports {
		for _, rel := range report.Paths(status.StatusPatched) {
			pending[filepath.Join(report.Root, filepath.FromSlash(rel))] = true
		}
	}
	return len(pending), nil
}
