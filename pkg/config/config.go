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
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte, opts ParseOptions) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

// ParseOptions carries what a parser may need beyond the raw bytes
type ParseOptions struct {
	Filename string            // Used in diagnostics
	Vars     map[string]string // Exposed to HCL as var.<name>
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📋 Config describes every patch pass over one template directory
type Config struct {
	Root       string                  `json:"root" yaml:"root"`
	Extensions []string                `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Exclude    []string                `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	SkipDirs   []string                `json:"skip_dirs,omitempty" yaml:"skip_dirs,omitempty"`
	Recursive  *bool                   `json:"recursive,omitempty" yaml:"recursive,omitempty"`
	Markup     map[string]MarkupSource `json:"markup,omitempty" yaml:"markup,omitempty"`
	Patches    []Patch                 `json:"patches" yaml:"patches"`

	// location is the config file path, empty for configs built in code
	location string
}

// 🧩 MarkupSource names a fragment shared by several rules. Exactly one of
// the fields is set.
type MarkupSource struct {
	Text    string   `json:"text,omitempty" yaml:"text,omitempty"`
	File    string   `json:"file,omitempty" yaml:"file,omitempty"`       // Relative to the config file
	Extract *Extract `json:"extract,omitempty" yaml:"extract,omitempty"` // Lifted from a reference template
}

// ✂️ Extract takes the first <Tag class="...Class..."> element of a template
type Extract struct {
	File  string `json:"file" yaml:"file" hcl:"file"` // Relative to the root
	Tag   string `json:"tag" yaml:"tag" hcl:"tag"`
	Class string `json:"class,omitempty" yaml:"class,omitempty" hcl:"class,optional"`
}

// 🩹 Patch is one named pass of rules
type Patch struct {
	Name        string            `json:"name" yaml:"name"`
	Files       []string          `json:"files,omitempty" yaml:"files,omitempty"`     // Include globs
	Exclude     []string          `json:"exclude,omitempty" yaml:"exclude,omitempty"` // Added to the top-level excludes
	ActiveLinks map[string]string `json:"active_links,omitempty" yaml:"active_links,omitempty"`
	Rules       []Rule            `json:"rules" yaml:"rules"`
}

// 🔁 Rule is a single find/replace
type Rule struct {
	Name           string   `json:"name,omitempty" yaml:"name,omitempty"`
	Match          string   `json:"match" yaml:"match"`
	Regex          bool     `json:"regex,omitempty" yaml:"regex,omitempty"`
	DotAll         bool     `json:"dotall,omitempty" yaml:"dotall,omitempty"`
	Expand         bool     `json:"expand,omitempty" yaml:"expand,omitempty"`
	Replace        *string  `json:"replace,omitempty" yaml:"replace,omitempty"`
	ReplaceMarkup  string   `json:"replace_markup,omitempty" yaml:"replace_markup,omitempty"`
	Mode           string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AlreadyPatched []string `json:"already_patched,omitempty" yaml:"already_patched,omitempty"`
}

// LoadOptions tune Load
type LoadOptions struct {
	Vars map[string]string
	Root string // Overrides the configured root when set

	// RootFallback supplies the root when neither Root nor the file sets one
	RootFallback func() (string, error)
}

// 📥 Load reads, parses and validates a config file
func Load(ctx context.Context, path string, opts LoadOptions) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data, ParseOptions{Filename: path, Vars: opts.Vars})
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	cfg.location = path

	switch {
	case opts.Root != "":
		cfg.Root = opts.Root
	case cfg.Root != "" && !filepath.IsAbs(cfg.Root):
		cfg.Root = filepath.Join(cfg.Dir(), cfg.Root)
	case cfg.Root == "" && opts.RootFallback != nil:
		root, err := opts.RootFallback()
		if err != nil {
			return nil, err
		}
		cfg.Root = root
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Dir is the directory markup files are resolved against
func (cfg *Config) Dir() string {
	if cfg.location == "" {
		return "."
	}
	return filepath.Dir(cfg.location)
}

// ParseVars turns key=value pairs into a variable map
func ParseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.Errorf("invalid variable %q, expected key=value", pair)
		}
		vars[k] = v
	}
	return vars, nil
}
