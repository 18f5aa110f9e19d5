// Package prompt asks the operator for the target directory and for
// confirmation before files are rewritten.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"
)

// ErrNotInteractive is returned by Terminal when stdin is not a terminal
var ErrNotInteractive = errors.Base("stdin is not a terminal")

// ❓ Prompter asks questions
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
	Input(ctx context.Context, question, def string) (string, error)
}

// 🖥️ Terminal prompts through pterm interactive printers. pterm always reads
// keys from the process terminal; in only decides whether prompting is
// possible at all.
type Terminal struct {
	in *os.File
}

// NewTerminal returns a Terminal that prompts when in is a terminal
func NewTerminal(in *os.File) *Terminal {
	return &Terminal{in: in}
}

func (t *Terminal) interactive() bool {
	fd := t.in.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (t *Terminal) Confirm(ctx context.Context, question string) (bool, error) {
	if !t.interactive() {
		return false, ErrNotInteractive
	}
	ok, err := pterm.DefaultInteractiveConfirm.WithDefaultValue(false).Show(question)
	if err != nil {
		return false, errors.Errorf("confirm: %w", err)
	}
	return ok, nil
}

func (t *Terminal) Input(ctx context.Context, question, def string) (string, error) {
	if !t.interactive() {
		return "", ErrNotInteractive
	}
	answer, err := pterm.DefaultInteractiveTextInput.WithDefaultValue(def).Show(question)
	if err != nil {
		return "", errors.Errorf("input: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// 📜 Line prompts with plain text, one answer per line. Used for piped stdin.
type Line struct {
	r   *bufio.Reader
	out io.Writer
}

// NewLine returns a Line prompter
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{r: bufio.NewReader(in), out: out}
}

func (l *Line) readLine() (string, error) {
	s, err := l.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", errors.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(s), nil
}

// Confirm accepts y or yes, case-insensitive. Anything else is a no.
func (l *Line) Confirm(ctx context.Context, question string) (bool, error) {
	fmt.Fprintf(l.out, "%s (y/N): ", question)
	answer, err := l.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (l *Line) Input(ctx context.Context, question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(l.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(l.out, "%s: ", question)
	}
	answer, err := l.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// 🤖 Static answers every question the same way
type Static struct {
	Answer bool
	Text   string
}

func (s Static) Confirm(ctx context.Context, question string) (bool, error) {
	return s.Answer, nil
}

func (s Static) Input(ctx context.Context, question, def string) (string, error) {
	if s.Text == "" {
		return def, nil
	}
	return s.Text, nil
}

// 🎯 ForStdio picks Terminal when in is a terminal and Line otherwise
func ForStdio(in *os.File, out io.Writer) Prompter {
	t := NewTerminal(in)
	if t.interactive() {
		return t
	}
	return NewLine(in, out)
}
