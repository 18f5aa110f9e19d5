package opts

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/tmplpatch/pkg/config"
	"github.com/walteh/tmplpatch/pkg/log"
	"github.com/walteh/tmplpatch/pkg/prompt"
	"gitlab.com/tozd/go/errors"
)

// DefaultConfigNames are tried in order when --config is not set
var DefaultConfigNames = []string{"tmplpatch.hcl", "tmplpatch.yaml", "tmplpatch.yml", "tmplpatch.json"}

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string
	Debug      bool
	Vars       []string
	Yes        bool

	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer

	// Prompter defaults to prompt.ForStdio(Stdin, Stdout); --yes bypasses it
	Prompter prompt.Prompter
}

// Prompt returns the prompter honoring --yes. The stdio prompter is built once
// so buffered answers are not lost between questions.
func (o *RootOpts) Prompt() prompt.Prompter {
	if o.Yes {
		return prompt.Static{Answer: true}
	}
	if o.Prompter == nil {
		o.Prompter = prompt.ForStdio(o.Stdin, o.Stdout)
	}
	return o.Prompter
}

// Console builds the console logger over the structured logger in ctx
func (o *RootOpts) Console(ctx context.Context) *log.Logger {
	return log.New(o.Stdout, *zerolog.Ctx(ctx))
}

// FindConfig returns --config, or the first default config name found in dir
func (o *RootOpts) FindConfig(dir string) (string, error) {
	if o.ConfigFile != "" {
		return o.ConfigFile, nil
	}
	for _, name := range DefaultConfigNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.Errorf("no config file found in %s (tried %v), use --config", dir, DefaultConfigNames)
}

// LoadConfig finds and loads the config. root overrides the configured root;
// when both are empty the operator is asked for a directory.
func (o *RootOpts) LoadConfig(ctx context.Context, root string) (*config.Config, error) {
	path, err := o.FindConfig(".")
	if err != nil {
		return nil, err
	}

	vars, err := config.ParseVars(o.Vars)
	if err != nil {
		return nil, err
	}

	return config.Load(ctx, path, config.LoadOptions{
		Vars: vars,
		Root: root,
		RootFallback: func() (string, error) {
			return o.AskDirectory(ctx, ".")
		},
	})
}

// AskDirectory prompts for the template directory
func (o *RootOpts) AskDirectory(ctx context.Context, def string) (string, error) {
	if o.Yes {
		return "", errors.Errorf("template directory is required with --yes")
	}
	dir, err := o.Prompt().Input(ctx, "Template directory", def)
	if err != nil {
		return "", errors.Errorf("asking for directory: %w", err)
	}
	if dir == "" {
		return "", errors.Errorf("template directory is required")
	}
	return dir, nil
}
