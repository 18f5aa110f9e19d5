package patch

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// unifiedLines renders a line-level diff, keeping `context` unchanged lines
// around each change
func unifiedLines(name, before, after string, context int) string {
	enc := lineEncoder{index: map[string]rune{}}
	a := enc.encode(before)
	b := enc.encode(after)
	diffs := diffmatchpatch.New().DiffMainRunes(a, b, false)

	type line struct {
		op   diffmatchpatch.Operation
		text string
	}
	var all []line
	for _, d := range diffs {
		for _, r := range d.Text {
			all = append(all, line{op: d.Type, text: enc.lines[enc.slot(r)]})
		}
	}

	keep := make([]bool, len(all))
	for i, l := range all {
		if l.op == diffmatchpatch.DiffEqual {
			continue
		}
		for j := max(0, i-context); j <= min(len(all)-1, i+context); j++ {
			keep[j] = true
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", name, name)
	gap := false
	for i, l := range all {
		if !keep[i] {
			gap = true
			continue
		}
		if gap {
			sb.WriteString("@@\n")
			gap = false
		}
		switch l.op {
		case diffmatchpatch.DiffInsert:
			sb.WriteString("+")
		case diffmatchpatch.DiffDelete:
			sb.WriteString("-")
		default:
			sb.WriteString(" ")
		}
		sb.WriteString(l.text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// private-use ranges lines are mapped into, one rune per distinct line
const (
	bmpPrivateFirst = 0xE000
	bmpPrivateLast  = 0xF8FF
	supPrivateFirst = 0xF0000
)

// lineEncoder maps every distinct line to its own rune so the character
// diff works line by line
type lineEncoder struct {
	index map[string]rune
	lines []string
}

func (e *lineEncoder) encode(s string) []rune {
	var out []rune
	for _, l := range strings.SplitAfter(s, "\n") {
		if l == "" {
			continue
		}
		l = strings.TrimSuffix(l, "\n")
		r, ok := e.index[l]
		if !ok {
			r = e.rune(len(e.lines))
			e.index[l] = r
			e.lines = append(e.lines, l)
		}
		out = append(out, r)
	}
	return out
}

func (e *lineEncoder) rune(n int) rune {
	if n <= bmpPrivateLast-bmpPrivateFirst {
		return rune(bmpPrivateFirst + n)
	}
	return rune(supPrivateFirst + n - (bmpPrivateLast - bmpPrivateFirst + 1))
}

func (e *lineEncoder) slot(r rune) int {
	if r >= supPrivateFirst {
		return int(r-supPrivateFirst) + bmpPrivateLast - bmpPrivateFirst + 1
	}
	return int(r - bmpPrivateFirst)
}
