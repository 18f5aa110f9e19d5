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

package log

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/tmplpatch/pkg/patch"
	"github.com/walteh/tmplpatch/pkg/status"
)

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	formatter status.FileFormatter
	plain     status.FileFormatter // Messages of structured events
	showDiff  bool
	mu        sync.Mutex
}

var _ patch.Observer = (*Logger)(nil)

// 🏭 New creates a new logger writing human output to console and
// structured events to zlog
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:      zlog,
		console:   console,
		formatter: status.ColumnFormatter{},
		plain:     status.NewDefaultFileFormatter(),
	}
}

// WithDiff makes FileProcessed print the diff attached to patched files
func (l *Logger) WithDiff(show bool) *Logger {
	l.showDiff = show
	return l
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

func (l *Logger) printer(base pterm.PrefixPrinter, prefix string) *pterm.PrefixPrinter {
	return base.WithPrefix(pterm.Prefix{Text: prefix, Style: base.Prefix.Style}).WithWriter(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("tmplpatch")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 StartJob prints the job banner
func (l *Logger) StartJob(ctx context.Context, job patch.Job) {
	l.mu.Lock()
	defer l.mu.Unlock()

	mode := "apply"
	if job.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(job.Name),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprintf("%s (%s)", job.Filter.Root, mode))

	l.zlog.Info().
		Str("job", job.Name).
		Str("root", job.Filter.Root).
		Int("rules", len(job.Rules)).
		Bool("dry_run", job.DryRun).
		Msg("starting job")
}

// 📝 FileProcessed prints one outcome line
func (l *Logger) FileProcessed(ctx context.Context, info status.FileInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, l.formatter.FormatFileOperation(info))
	if l.showDiff && info.Diff != "" {
		l.printDiff(info.Diff)
	}

	event := l.zlog.Info()
	if info.Status == status.StatusError {
		event = l.zlog.Warn().Err(info.Error)
	}
	event.
		Str("file", info.Path).
		Str("status", info.Status.String()).
		Str("reason", string(info.Reason)).
		Int("replacements", info.Replacements).
		Strs("rules", info.Rules).
		Msg(l.plain.FormatFileOperation(info))
}

func (l *Logger) printDiff(diff string) {
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			line = color.New(color.Bold).Sprint(line)
		case strings.HasPrefix(line, "+"):
			line = color.GreenString("%s", line)
		case strings.HasPrefix(line, "-"):
			line = color.RedString("%s", line)
		case strings.HasPrefix(line, "@@"):
			line = color.CyanString("%s", line)
		}
		fmt.Fprintf(l.console, "%*s%s\n", 6, "", line)
	}
}

// 📊 Summary prints the totals table and the lists of patched and failed files
func (l *Logger) Summary(ctx context.Context, report *patch.Report) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := report.Summary
	modifiedLabel := "Modified"
	if report.DryRun {
		modifiedLabel = "Would modify"
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData([][]string{
		{"Checked", modifiedLabel, "Skipped", "Errored"},
		{strconv.Itoa(s.Checked), strconv.Itoa(s.Modified), strconv.Itoa(s.Skipped), strconv.Itoa(s.Errored)},
	}).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(l.console)
	fmt.Fprintln(l.console, table)

	if patched := report.Paths(status.StatusPatched); len(patched) > 0 {
		l.printer(pterm.Success, "✅").Println(modifiedLabel + ": " + strings.Join(patched, ", "))
	}
	if failed := report.Paths(status.StatusError); len(failed) > 0 {
		l.printer(pterm.Error, "❌").Println("Errored: " + strings.Join(failed, ", "))
	}

	l.zlog.Info().
		Str("job", report.Job).
		Int("checked", s.Checked).
		Int("modified", s.Modified).
		Int("skipped", s.Skipped).
		Int("errored", s.Errored).
		Bool("dry_run", report.DryRun).
		Msg(l.plain.FormatSummary(s))

	return nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.printer(pterm.Success, "✅").Println(msg)
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.printer(pterm.Warning, "⚠️").Println(msg)
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.printer(pterm.Error, "❌").Println(msg)
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.printer(pterm.Info, "ℹ️").Println(msg)
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
