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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const headerInclude = `<%- include('partials/header') %>`

const navbar = `<nav class="navbar">
    <div class="nav-links">
        <a href="/" class="active">Dashboard</a>
        <a href="/messages">Messages</a>
    </div>
</nav>`

type fixture struct {
	dir    string
	views  string
	config string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	color.NoColor = true
	pterm.DisableStyling()
	t.Cleanup(func() {
		color.NoColor = false
		pterm.EnableStyling()
	})

	dir := t.TempDir()
	f := &fixture{
		dir:    dir,
		views:  filepath.Join(dir, "views"),
		config: filepath.Join(dir, "tmplpatch.yaml"),
	}

	require.NoError(t, os.MkdirAll(filepath.Join(f.views, "partials"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "navbar.html"), []byte(navbar+"\n"), 0644))
	f.write(t, "dashboard.ejs", "<body>\n"+headerInclude+"\n</body>\n")
	f.write(t, "messages.ejs", "<body>\n"+headerInclude+"\n</body>\n")
	f.write(t, "login.ejs", "<body>\n"+headerInclude+"\n</body>\n")
	f.write(t, "partials/header.ejs", "<header></header>\n")

	require.NoError(t, os.WriteFile(f.config, []byte(`
root: views
exclude: [login.ejs]
markup:
  navbar:
    file: navbar.html
patches:
  - name: navbar
    active_links:
      messages.ejs: /messages
    rules:
      - name: header-include
        match: "<%- include('partials/header') %>"
        replace_markup: navbar
`), 0644))

	return f
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.views, filepath.FromSlash(name)), []byte(content), 0644))
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(f.views, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(b)
}

func stdinWith(t *testing.T, input string) *os.File {
	t.Helper()
	p := filepath.Join(t.TempDir(), "stdin")
	require.NoError(t, os.WriteFile(p, []byte(input), 0644))
	f, err := os.Open(p)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func execute(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(context.Background(), args, stdinWith(t, stdin), stdout, stderr)
	return code, stdout.String(), stderr.String()
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		args     func(f *fixture) []string
		wantCode int
		check    func(t *testing.T, f *fixture, stdout, stderr string)
	}{
		{
			name:  "yes_flag",
			args:  func(f *fixture) []string { return []string{"apply", "-c", f.config, "--yes"} },
			check: checkPatched,
		},
		{
			name:  "confirmed_on_stdin",
			stdin: "y\n",
			args:  func(f *fixture) []string { return []string{"apply", "-c", f.config} },
			check: func(t *testing.T, f *fixture, stdout, stderr string) {
				assert.Contains(t, stdout, "Patch 2 file(s)? (y/N)")
				checkPatched(t, f, stdout, stderr)
			},
		},
		{
			name:     "declined_on_stdin",
			stdin:    "n\n",
			args:     func(f *fixture) []string { return []string{"apply", "-c", f.config} },
			wantCode: 1,
			check: func(t *testing.T, f *fixture, stdout, stderr string) {
				assert.Contains(t, stderr, "aborted by user")
				assert.Contains(t, f.read(t, "dashboard.ejs"), headerInclude, "nothing should be written")
			},
		},
		{
			name: "dry_run_with_diff",
			args: func(f *fixture) []string { return []string{"apply", "-c", f.config, "--dry-run", "--diff"} },
			check: func(t *testing.T, f *fixture, stdout, stderr string) {
				assert.Contains(t, stdout, "Would modify")
				assert.Contains(t, stdout, "-"+headerInclude)
				assert.Contains(t, f.read(t, "dashboard.ejs"), headerInclude, "dry run should not write")
			},
		},
		{
			name: "directory_argument_overrides_config",
			args: func(f *fixture) []string {
				return []string{"apply", "-c", f.config, "--yes", filepath.Join(f.views, "partials")}
			},
			check: func(t *testing.T, f *fixture, stdout, stderr string) {
				assert.Contains(t, f.read(t, "dashboard.ejs"), headerInclude, "files outside the argument should be untouched")
				assert.Contains(t, stdout, "header.ejs")
			},
		},
		{
			name:     "invalid_root",
			args:     func(f *fixture) []string { return []string{"apply", "-c", f.config, "--yes", filepath.Join(f.dir, "missing")} },
			wantCode: 1,
			check: func(t *testing.T, f *fixture, stdout, stderr string) {
				assert.Contains(t, stderr, "invalid root directory")
			},
		},
		{
			name:     "unknown_patch",
			args:     func(f *fixture) []string { return []string{"apply", "-c", f.config, "--yes", "-p", "footer"} },
			wantCode: 1,
			check: func(t *testing.T, f *fixture, stdout, stderr string) {
				assert.Contains(t, stderr, `unknown patch "footer"`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			code, stdout, stderr := execute(t, tt.stdin, tt.args(f)...)
			assert.Equal(t, tt.wantCode, code, "stderr: %s", stderr)
			if tt.check != nil {
				tt.check(t, f, stdout, stderr)
			}
		})
	}
}

func checkPatched(t *testing.T, f *fixture, stdout, stderr string) {
	t.Helper()

	dashboard := f.read(t, "dashboard.ejs")
	assert.NotContains(t, dashboard, headerInclude)
	assert.Contains(t, dashboard, `<a href="/" class="active">Dashboard</a>`)

	messages := f.read(t, "messages.ejs")
	assert.Contains(t, messages, `<a href="/messages" class="active">Messages</a>`)
	assert.Contains(t, messages, `<a href="/">Dashboard</a>`)

	assert.Contains(t, f.read(t, "login.ejs"), headerInclude, "excluded file should be untouched")

	assert.Contains(t, stdout, "Checked")
	assert.Contains(t, stdout, "dashboard.ejs")
	assert.Contains(t, stdout, "excluded")
}

func TestApplyIsIdempotent(t *testing.T) {
	f := newFixture(t)

	code, _, stderr := execute(t, "", "apply", "-c", f.config, "--yes")
	require.Equal(t, 0, code, stderr)
	first := f.read(t, "messages.ejs")

	code, stdout, stderr := execute(t, "", "apply", "-c", f.config)
	require.Equal(t, 0, code, stderr)
	assert.NotContains(t, stdout, "(y/N)", "nothing pending should mean no prompt")
	assert.Contains(t, stdout, "already patched")
	assert.Equal(t, first, f.read(t, "messages.ejs"))
}

func TestApplyPromptsForDirectory(t *testing.T) {
	f := newFixture(t)
	cfg := filepath.Join(f.dir, "noroot.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
patches:
  - rules:
      - match: "<header></header>"
        replace: "<header class=\"site\"></header>"
`), 0644))

	code, stdout, stderr := execute(t, filepath.Join(f.views, "partials")+"\ny\n", "apply", "-c", cfg)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Template directory")
	assert.Equal(t, "<header class=\"site\"></header>\n", f.read(t, "partials/header.ejs"))
}

func TestCheck(t *testing.T) {
	f := newFixture(t)

	code, stdout, stderr := execute(t, "", "check", "-c", f.config)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "templates need patching: 2 file(s)")
	assert.Contains(t, stdout, "Would modify")
	assert.Contains(t, f.read(t, "dashboard.ejs"), headerInclude, "check should not write")

	code, _, stderr = execute(t, "", "apply", "-c", f.config, "--yes")
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr = execute(t, "", "check", "-c", f.config)
	assert.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "All templates are up to date")
}

func TestReplace(t *testing.T) {
	tests := []struct {
		name     string
		args     func(f *fixture) []string
		wantCode int
		check    func(t *testing.T, f *fixture, stderr string)
	}{
		{
			name: "literal",
			args: func(f *fixture) []string {
				return []string{"replace", f.views, "--yes", "-m", "<body>", "-r", "<body class=\"app\">", "-x", "login.ejs"}
			},
			check: func(t *testing.T, f *fixture, stderr string) {
				assert.Contains(t, f.read(t, "dashboard.ejs"), `<body class="app">`)
				assert.NotContains(t, f.read(t, "login.ejs"), `<body class="app">`)
			},
		},
		{
			name: "regex_with_expand",
			args: func(f *fixture) []string {
				return []string{"replace", f.views, "--yes", "--regex", "--expand", "-m", `<(header)></header>`, "-r", `<$1 id="top"></$1>`}
			},
			check: func(t *testing.T, f *fixture, stderr string) {
				assert.Equal(t, "<header id=\"top\"></header>\n", f.read(t, "partials/header.ejs"))
			},
		},
		{
			name: "replace_file_not_recursive",
			args: func(f *fixture) []string {
				return []string{"replace", f.views, "--yes", "--no-recursive", "-m", headerInclude, "--replace-file", filepath.Join(f.dir, "navbar.html")}
			},
			check: func(t *testing.T, f *fixture, stderr string) {
				assert.Contains(t, f.read(t, "login.ejs"), navbar)
				assert.Equal(t, "<header></header>\n", f.read(t, "partials/header.ejs"))
			},
		},
		{
			name:     "missing_replacement",
			args:     func(f *fixture) []string { return []string{"replace", f.views, "-m", "x"} },
			wantCode: 1,
		},
		{
			name: "invalid_root",
			args: func(f *fixture) []string {
				return []string{"replace", filepath.Join(f.dir, "nope"), "--yes", "-m", "a", "-r", "b"}
			},
			wantCode: 1,
			check: func(t *testing.T, f *fixture, stderr string) {
				assert.Contains(t, stderr, "invalid root directory")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			code, _, stderr := execute(t, "", tt.args(f)...)
			assert.Equal(t, tt.wantCode, code, "stderr: %s", stderr)
			if tt.check != nil {
				tt.check(t, f, stderr)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	f := newFixture(t)
	f.write(t, "reference.ejs", "<html><body>\n"+navbar+"\n<main></main></body></html>\n")

	code, stdout, stderr := execute(t, "", "extract", filepath.Join(f.views, "reference.ejs"))
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, navbar+"\n", stdout)

	out := filepath.Join(f.dir, "extracted.html")
	code, _, stderr = execute(t, "", "extract", filepath.Join(f.views, "reference.ejs"), "-o", out)
	require.Equal(t, 0, code, stderr)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, navbar+"\n", string(b))

	code, stdout, stderr = execute(t, "", "extract", filepath.Join(f.views, "reference.ejs"), "--active", "/messages")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `<a href="/">Dashboard</a>`)
	assert.Contains(t, stdout, `<a href="/messages" class="active">Messages</a>`)

	code, _, stderr = execute(t, "", "extract", filepath.Join(f.views, "dashboard.ejs"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "element not found")
}

func TestVersion(t *testing.T) {
	code, stdout, _ := execute(t, "", "version")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "tmplpatch version info")
	assert.Contains(t, stdout, "Go:")
}

func TestApplyCountsEachFileOnce(t *testing.T) {
	f := newFixture(t)
	cfg := filepath.Join(f.dir, "two.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
root: views
exclude: [login.ejs, partials/**]
markup:
  navbar:
    file: navbar.html
patches:
  - name: navbar
    rules:
      - match: "<%- include('partials/header') %>"
        replace_markup: navbar
  - name: layout
    rules:
      - match: '<body>'
        replace: '<body class="app">'
      - match: '<div class="nav-links">'
        replace: '<div class="nav-links sticky">'
`), 0644))

	code, stdout, stderr := execute(t, "y\n", "apply", "-c", cfg)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Patch 2 file(s)? (y/N)")
	assert.Contains(t, f.read(t, "dashboard.ejs"), `<div class="nav-links sticky">`)
	assert.Contains(t, f.read(t, "messages.ejs"), `<body class="app">`)
}
