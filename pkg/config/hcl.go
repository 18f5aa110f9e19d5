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

package config

import (
	"context"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(filename)), ".hcl")
}

type hclConfig struct {
	Root       string      `hcl:"root,optional"`
	Extensions []string    `hcl:"extensions,optional"`
	Exclude    []string    `hcl:"exclude,optional"`
	SkipDirs   []string    `hcl:"skip_dirs,optional"`
	Recursive  *bool       `hcl:"recursive,optional"`
	Markup     []hclMarkup `hcl:"markup,block"`
	Patches    []hclPatch  `hcl:"patch,block"`
}

type hclMarkup struct {
	Name    string   `hcl:"name,label"`
	Text    *string  `hcl:"text,optional"`
	File    *string  `hcl:"file,optional"`
	Extract *Extract `hcl:"extract,block"`
}

type hclPatch struct {
	Name        string            `hcl:"name,label"`
	Files       []string          `hcl:"files,optional"`
	Exclude     []string          `hcl:"exclude,optional"`
	ActiveLinks map[string]string `hcl:"active_links,optional"`
	Rules       []hclRule         `hcl:"rule,block"`
}

type hclRule struct {
	Name           string   `hcl:"name,label"`
	Match          string   `hcl:"match"`
	Regex          bool     `hcl:"regex,optional"`
	DotAll         bool     `hcl:"dotall,optional"`
	Expand         bool     `hcl:"expand,optional"`
	Replace        *string  `hcl:"replace,optional"`
	ReplaceMarkup  *string  `hcl:"replace_markup,optional"`
	Mode           *string  `hcl:"mode,optional"`
	AlreadyPatched []string `hcl:"already_patched,optional"`
}

// evalContext exposes variables as var.<name> and a few string functions
func evalContext(vars map[string]string) *hcl.EvalContext {
	values := make(map[string]cty.Value, len(vars))
	for k, v := range vars {
		values[k] = cty.StringVal(v)
	}
	varVal := cty.EmptyObjectVal
	if len(values) > 0 {
		varVal = cty.ObjectVal(values)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": varVal,
		},
		Functions: map[string]function.Function{
			"upper":     stdlib.UpperFunc,
			"lower":     stdlib.LowerFunc,
			"join":      stdlib.JoinFunc,
			"trimspace": stdlib.TrimSpaceFunc,
			"replace":   stdlib.ReplaceFunc,
		},
	}
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte, opts ParseOptions) (*Config, error) {
	filename := opts.Filename
	if filename == "" {
		filename = "tmplpatch.hcl"
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(opts.Vars), &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{
		Root:       hclCfg.Root,
		Extensions: hclCfg.Extensions,
		Exclude:    hclCfg.Exclude,
		SkipDirs:   hclCfg.SkipDirs,
		Recursive:  hclCfg.Recursive,
	}

	if len(hclCfg.Markup) > 0 {
		cfg.Markup = make(map[string]MarkupSource, len(hclCfg.Markup))
	}
	for _, m := range hclCfg.Markup {
		if _, dup := cfg.Markup[m.Name]; dup {
			return nil, errors.Errorf("duplicate markup block %q", m.Name)
		}
		cfg.Markup[m.Name] = MarkupSource{
			Text:    deref(m.Text),
			File:    deref(m.File),
			Extract: m.Extract,
		}
	}

	for _, hp := range hclCfg.Patches {
		patch := Patch{
			Name:        hp.Name,
			Files:       hp.Files,
			Exclude:     hp.Exclude,
			ActiveLinks: hp.ActiveLinks,
		}
		for _, hr := range hp.Rules {
			patch.Rules = append(patch.Rules, Rule{
				Name:           hr.Name,
				Match:          hr.Match,
				Regex:          hr.Regex,
				DotAll:         hr.DotAll,
				Expand:         hr.Expand,
				Replace:        hr.Replace,
				ReplaceMarkup:  deref(hr.ReplaceMarkup),
				Mode:           deref(hr.Mode),
				AlreadyPatched: hr.AlreadyPatched,
			})
		}
		cfg.Patches = append(cfg.Patches, patch)
	}

	return cfg, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
