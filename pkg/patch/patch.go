// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package patch applies replacement rules to every template selected by a filter.
package patch

import (
	"bytes"
	"context"
	"path"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/walteh/tmplpatch/pkg/markup"
	"github.com/walteh/tmplpatch/pkg/status"
	"github.com/walteh/tmplpatch/pkg/text"
	"github.com/walteh/tmplpatch/pkg/walk"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// ErrDecode is reported for files that are not valid UTF-8
var ErrDecode = errors.Base("decoding file")

// DefaultPlanConcurrency bounds the readers used by Plan
const DefaultPlanConcurrency = 8

const diffContext = 2

// 📋 Job is one patch pass over a directory
type Job struct {
	Name   string
	Filter walk.Filter
	Rules  []text.ReplacementRule

	// ActiveLinks maps a relative path or base name to the href that is
	// marked active in every markup replacement for that file
	ActiveLinks map[string]string

	DryRun bool // Compute outcomes without writing
	Diff   bool // Attach a line diff to patched files
}

// 👀 Observer is notified once per file, in processing order
type Observer interface {
	FileProcessed(ctx context.Context, info status.FileInfo)
}

// 📊 Report is the outcome of a Job
type Report struct {
	Job     string
	Root    string
	DryRun  bool
	Files   []status.FileInfo
	Summary status.Summary
}

// Paths returns the paths of the files with the given status
func (r *Report) Paths(s status.FileStatus) []string {
	var out []string
	for _, f := range r.Files {
		if f.Status == s {
			out = append(out, f.Path)
		}
	}
	return out
}

// 🔧 Options configures a Patcher
type Options struct {
	Replacer    text.TextReplacer // SimpleTextReplacer when nil
	Observer    Observer          // Optional
	Concurrency int               // Plan readers, DefaultPlanConcurrency when zero
}

// 🩹 Patcher runs jobs
type Patcher struct {
	replacer    text.TextReplacer
	observer    Observer
	concurrency int
}

// 🏭 New creates a Patcher
func New(opts Options) *Patcher {
	p := &Patcher{
		replacer:    opts.Replacer,
		observer:    opts.Observer,
		concurrency: opts.Concurrency,
	}
	if p.replacer == nil {
		p.replacer = text.NewSimpleTextReplacer()
	}
	if p.concurrency <= 0 {
		p.concurrency = DefaultPlanConcurrency
	}
	return p
}

func (p *Patcher) prepare(ctx context.Context, job Job) ([]walk.Candidate, error) {
	if err := p.replacer.ValidateRules(job.Rules); err != nil {
		return nil, errors.Errorf("validating rules for %s: %w", job.Name, err)
	}
	candidates, err := walk.Enumerate(ctx, job.Filter)
	if err != nil {
		return nil, errors.Errorf("enumerating files: %w", err)
	}
	return candidates, nil
}

// 🚀 Run processes every candidate file one after another. Per-file failures
// are recorded in the report; only an invalid root, invalid rules or
// cancellation abort the run.
func (p *Patcher) Run(ctx context.Context, job Job) (*Report, error) {
	logger := zerolog.Ctx(ctx).With().Str("job", job.Name).Logger()
	ctx = logger.WithContext(ctx)

	candidates, err := p.prepare(ctx, job)
	if err != nil {
		return nil, err
	}

	mgr := status.New(job.Filter.Root)
	report := &Report{Job: job.Name, Root: job.Filter.Root, DryRun: job.DryRun}

	logger.Debug().Int("candidates", len(candidates)).Bool("dry_run", job.DryRun).Msg("running job")

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			p.finish(ctx, report, mgr)
			return report, errors.Errorf("run interrupted after %d file(s): %w", len(report.Files), err)
		}

		info := p.processFile(ctx, mgr, job, c, !job.DryRun)
		p.track(ctx, mgr, info)
	}

	p.finish(ctx, report, mgr)
	return report, nil
}

// 🔍 Plan computes what Run would do without writing anything. Files are read
// concurrently; outcomes are reported in candidate order.
func (p *Patcher) Plan(ctx context.Context, job Job) (*Report, error) {
	return p.plan(ctx, job, nil)
}

// 🔍 PlanJobs plans jobs in order as Run would apply them: each job sees the
// content earlier jobs would have written. Nothing reaches the disk.
func (p *Patcher) PlanJobs(ctx context.Context, jobs []Job) ([]*Report, error) {
	mem := newOverlay()
	reports := make([]*Report, 0, len(jobs))
	for _, job := range jobs {
		report, err := p.plan(ctx, job, mem)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (p *Patcher) plan(ctx context.Context, job Job, mem *overlay) (*Report, error) {
	logger := zerolog.Ctx(ctx).With().Str("job", job.Name).Logger()
	ctx = logger.WithContext(ctx)

	candidates, err := p.prepare(ctx, job)
	if err != nil {
		return nil, err
	}

	mgr := status.New(job.Filter.Root)
	var files status.FileManager = mgr
	if mem != nil {
		files = mem.view(mgr)
	}
	infos := make([]status.FileInfo, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			infos[i] = p.processFile(gctx, files, job, c, mem != nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Errorf("planning %s: %w", job.Name, err)
	}

	report := &Report{Job: job.Name, Root: job.Filter.Root, DryRun: true}
	for _, info := range infos {
		p.track(ctx, mgr, info)
	}
	p.finish(ctx, report, mgr)
	return report, nil
}

func (p *Patcher) track(ctx context.Context, mgr *status.Manager, info status.FileInfo) {
	mgr.TrackFile(ctx, info)
	if p.observer != nil {
		p.observer.FileProcessed(ctx, info)
	}
}

func (p *Patcher) finish(ctx context.Context, report *Report, mgr *status.Manager) {
	report.Files = mgr.ListFiles(ctx)
	report.Summary = mgr.Summary()
}

func (p *Patcher) processFile(ctx context.Context, files status.FileManager, job Job, c walk.Candidate, write bool) status.FileInfo {
	logger := zerolog.Ctx(ctx).With().Str("file", c.Rel).Logger()
	info := status.FileInfo{Path: c.Rel}

	fail := func(err error) status.FileInfo {
		logger.Debug().Err(err).Msg("file failed")
		info.Status = status.StatusError
		info.Error = err
		return info
	}

	if c.Excluded {
		info.Status = status.StatusSkipped
		info.Reason = status.ReasonExcluded
		return info
	}

	content, err := files.ReadFile(ctx, c.Rel)
	if err != nil {
		return fail(err)
	}
	if !utf8.Valid(content) {
		return fail(errors.Errorf("%w: %s is not valid UTF-8", ErrDecode, c.Rel))
	}

	rules, err := rulesFor(job, c.Rel)
	if err != nil {
		return fail(err)
	}

	result, err := p.replacer.ReplaceText(ctx, bytes.NewReader(content), rules)
	if err != nil {
		return fail(errors.Errorf("replacing text: %w", err))
	}

	if !result.WasModified {
		info.Status = status.StatusSkipped
		switch {
		case result.AlreadyPatched():
			info.Reason = status.ReasonAlreadyPatched
		case result.ReplacementCount > 0:
			info.Reason = status.ReasonUnchanged
		default:
			info.Reason = status.ReasonNoMatch
		}
		return info
	}

	if job.Diff {
		info.Diff = unifiedLines(c.Rel, string(result.OriginalContent), string(result.ModifiedContent), diffContext)
	}

	if write {
		if err := files.WriteFileAtomic(ctx, c.Rel, result.ModifiedContent); err != nil {
			return fail(err)
		}
	}

	logger.Debug().Int("replacements", result.ReplacementCount).Strs("rules", result.Applied()).Bool("written", write).Msg("file patched")

	info.Status = status.StatusPatched
	info.Replacements = result.ReplacementCount
	info.Rules = result.Applied()
	return info
}

// rulesFor activates the configured link inside markup replacements
func rulesFor(job Job, rel string) ([]text.ReplacementRule, error) {
	href, ok := job.ActiveLinks[rel]
	if !ok {
		href, ok = job.ActiveLinks[path.Base(rel)]
	}
	if !ok {
		return job.Rules, nil
	}

	rules := make([]text.ReplacementRule, len(job.Rules))
	copy(rules, job.Rules)
	for i, r := range rules {
		if !r.Markup {
			continue
		}
		activated, err := markup.SetActiveLink(r.Replacement, href)
		if err != nil {
			return nil, errors.Errorf("activating %s in rule %s: %w", href, r.Name, err)
		}
		rules[i].Replacement = activated
	}
	return rules, nil
}
