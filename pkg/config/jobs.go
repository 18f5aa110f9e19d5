package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/tmplpatch/pkg/markup"
	"github.com/walteh/tmplpatch/pkg/patch"
	"github.com/walteh/tmplpatch/pkg/text"
	"github.com/walteh/tmplpatch/pkg/walk"
	"gitlab.com/tozd/go/errors"
)

// JobOptions are run-time switches copied onto every job
type JobOptions struct {
	DryRun bool
	Diff   bool
	Only   []string // Patch names to keep, all when empty
}

// 🏗️ Jobs resolves every markup fragment and turns patches into jobs.
// Markup is read and validated before any job is returned.
func (cfg *Config) Jobs(ctx context.Context, opts JobOptions) ([]patch.Job, error) {
	resolved, err := cfg.ResolveMarkup(ctx)
	if err != nil {
		return nil, err
	}

	only := make(map[string]bool, len(opts.Only))
	for _, name := range opts.Only {
		only[name] = true
	}

	var jobs []patch.Job
	for _, p := range cfg.Patches {
		if len(only) > 0 && !only[p.Name] {
			continue
		}
		delete(only, p.Name)

		rules := make([]text.ReplacementRule, 0, len(p.Rules))
		for _, r := range p.Rules {
			rules = append(rules, r.toReplacementRule(resolved[r.ReplaceMarkup]))
		}

		jobs = append(jobs, patch.Job{
			Name: p.Name,
			Filter: walk.Filter{
				Root:       cfg.Root,
				Extensions: cfg.Extensions,
				Include:    p.Files,
				Exclude:    append(append([]string{}, cfg.Exclude...), p.Exclude...),
				SkipDirs:   cfg.SkipDirs,
				Recursive:  cfg.Recursive == nil || *cfg.Recursive,
			},
			Rules:       rules,
			ActiveLinks: p.ActiveLinks,
			DryRun:      opts.DryRun,
			Diff:        opts.Diff,
		})
	}

	for name := range only {
		return nil, errors.Errorf("unknown patch %q", name)
	}

	return jobs, nil
}

// ResolveMarkup reads every named fragment and checks it is balanced markup
func (cfg *Config) ResolveMarkup(ctx context.Context) (map[string]string, error) {
	logger := zerolog.Ctx(ctx)

	resolved := make(map[string]string, len(cfg.Markup))
	for name, src := range cfg.Markup {
		fragment, err := cfg.readMarkup(src)
		if err != nil {
			return nil, errors.Errorf("markup %q: %w", name, err)
		}
		if err := markup.Validate(fragment); err != nil {
			return nil, errors.Errorf("markup %q: %w", name, err)
		}
		logger.Debug().Str("markup", name).Int("bytes", len(fragment)).Msg("resolved markup")
		resolved[name] = fragment
	}
	return resolved, nil
}

func (cfg *Config) readMarkup(src MarkupSource) (string, error) {
	switch {
	case src.Text != "":
		return src.Text, nil
	case src.File != "":
		p := src.File
		if !filepath.IsAbs(p) {
			p = filepath.Join(cfg.Dir(), p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return "", errors.Errorf("reading markup file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	case src.Extract != nil:
		p := src.Extract.File
		if !filepath.IsAbs(p) {
			p = filepath.Join(cfg.Root, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return "", errors.Errorf("reading reference template: %w", err)
		}
		return markup.ExtractElement(string(data), src.Extract.Tag, src.Extract.Class)
	default:
		return "", errors.Errorf("empty markup source")
	}
}
