package config

import (
	"fmt"
	"path/filepath"

	"github.com/walteh/tmplpatch/pkg/text"
	"github.com/walteh/tmplpatch/pkg/walk"
	"gitlab.com/tozd/go/errors"
)

// ✅ Validate fills defaults and rejects configs that cannot produce jobs
func (cfg *Config) Validate() error {
	if cfg.Root == "" {
		return errors.Errorf("root is required")
	}
	cfg.Root = filepath.Clean(cfg.Root)

	if len(cfg.Extensions) == 0 {
		cfg.Extensions = append([]string{}, walk.DefaultExtensions...)
	}
	if cfg.SkipDirs == nil {
		cfg.SkipDirs = append([]string{}, walk.DefaultSkipDirs...)
	}
	if cfg.Recursive == nil {
		recursive := true
		cfg.Recursive = &recursive
	}

	for name, m := range cfg.Markup {
		if err := m.validate(); err != nil {
			return errors.Errorf("markup %q: %w", name, err)
		}
	}

	if len(cfg.Patches) == 0 {
		return errors.Errorf("at least one patch is required")
	}

	seen := make(map[string]bool, len(cfg.Patches))
	for i := range cfg.Patches {
		p := &cfg.Patches[i]
		if p.Name == "" {
			p.Name = fmt.Sprintf("patch-%d", i+1)
		}
		if seen[p.Name] {
			return errors.Errorf("duplicate patch name %q", p.Name)
		}
		seen[p.Name] = true

		if err := cfg.validatePatch(p); err != nil {
			return errors.Errorf("patch %q: %w", p.Name, err)
		}
	}

	return nil
}

func (m MarkupSource) validate() error {
	set := 0
	if m.Text != "" {
		set++
	}
	if m.File != "" {
		set++
	}
	if m.Extract != nil {
		set++
		if m.Extract.File == "" || m.Extract.Tag == "" {
			return errors.Errorf("extract requires file and tag")
		}
	}
	if set != 1 {
		return errors.Errorf("exactly one of text, file or extract is required")
	}
	return nil
}

func (cfg *Config) validatePatch(p *Patch) error {
	if len(p.Rules) == 0 {
		return errors.Errorf("at least one rule is required")
	}

	filter := walk.Filter{Include: p.Files, Exclude: append(append([]string{}, cfg.Exclude...), p.Exclude...)}
	if err := filter.Validate(); err != nil {
		return err
	}

	for i, r := range p.Rules {
		if r.Match == "" {
			return errors.Errorf("rule %d: match is required", i+1)
		}
		if (r.Replace == nil) == (r.ReplaceMarkup == "") {
			return errors.Errorf("rule %d: exactly one of replace or replace_markup is required", i+1)
		}
		if r.ReplaceMarkup != "" {
			if _, ok := cfg.Markup[r.ReplaceMarkup]; !ok {
				return errors.Errorf("rule %d: unknown markup %q", i+1, r.ReplaceMarkup)
			}
		}
	}

	if len(p.ActiveLinks) > 0 && !p.usesMarkup() {
		return errors.Errorf("active_links needs at least one replace_markup rule")
	}

	rules := make([]text.ReplacementRule, 0, len(p.Rules))
	for _, r := range p.Rules {
		rules = append(rules, r.toReplacementRule(""))
	}
	if err := text.NewSimpleTextReplacer().ValidateRules(rules); err != nil {
		return err
	}

	return nil
}

func (p *Patch) usesMarkup() bool {
	for _, r := range p.Rules {
		if r.ReplaceMarkup != "" {
			return true
		}
	}
	return false
}

func (r Rule) toReplacementRule(markupText string) text.ReplacementRule {
	rr := text.ReplacementRule{
		Name:           r.Name,
		Match:          r.Match,
		Kind:           text.MatchLiteral,
		DotAll:         r.DotAll,
		Expand:         r.Expand,
		Mode:           text.WriteMode(r.Mode),
		AlreadyPatched: r.AlreadyPatched,
	}
	if r.Regex {
		rr.Kind = text.MatchRegex
	}
	if r.ReplaceMarkup != "" {
		rr.Replacement = markupText
		rr.Markup = true
	} else if r.Replace != nil {
		rr.Replacement = *r.Replace
	}
	return rr
}
