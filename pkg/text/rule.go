package text

import (
	"context"
	"io"
)

// MatchKind selects how ReplacementRule.Match is interpreted
type MatchKind string

const (
	MatchLiteral MatchKind = "literal"
	MatchRegex   MatchKind = "regex"
)

// WriteMode selects how many occurrences a rule rewrites
type WriteMode string

const (
	ReplaceAll   WriteMode = "all"
	ReplaceFirst WriteMode = "first"
)

// RuleState is the outcome of a single rule against a single content
type RuleState string

const (
	RuleApplied        RuleState = "applied"
	RuleAlreadyPatched RuleState = "already_patched"
	RuleNoMatch        RuleState = "no_match"
)

// ReplacementRule defines a single text replacement operation
type ReplacementRule struct {
	// Name identifies the rule in reports
	Name string

	// Match is the literal text or regular expression to look for
	Match string

	// Kind selects literal or regex matching, literal when empty
	Kind MatchKind

	// DotAll lets "." match newlines so a regex can span several lines
	DotAll bool

	// Expand enables $1 / ${name} expansion in Replacement (regex only)
	Expand bool

	// Replacement is the text written in place of each match
	Replacement string

	// Mode is ReplaceAll when empty
	Mode WriteMode

	// AlreadyPatched lists markers whose presence means the rule was applied
	// before. When empty the replacement itself is the marker, unless it is
	// empty or an expansion template.
	AlreadyPatched []string

	// Markup marks the replacement as an HTML fragment, eligible for
	// per-file link activation
	Markup bool
}

// RuleResult reports what one rule did
type RuleResult struct {
	Name  string
	State RuleState
	Count int
}

// ReplacementResult contains the results of a text replacement operation
type ReplacementResult struct {
	// WasModified indicates if the content changed
	WasModified bool

	// ReplacementCount is the number of replacements made
	ReplacementCount int

	// OriginalContent is the content before replacements
	OriginalContent []byte

	// ModifiedContent is the content after replacements
	ModifiedContent []byte

	// Rules holds one entry per rule, in rule order
	Rules []RuleResult
}

// Applied returns the names of the rules that rewrote something
func (r *ReplacementResult) Applied() []string {
	var names []string
	for _, rr := range r.Rules {
		if rr.State == RuleApplied {
			names = append(names, rr.Name)
		}
	}
	return names
}

// AlreadyPatched reports whether at least one rule found its marker
func (r *ReplacementResult) AlreadyPatched() bool {
	for _, rr := range r.Rules {
		if rr.State == RuleAlreadyPatched {
			return true
		}
	}
	return false
}

// TextReplacer defines the interface for text replacement operations
type TextReplacer interface {
	// ReplaceText applies a set of replacement rules to the content
	ReplaceText(ctx context.Context, content io.Reader, rules []ReplacementRule) (*ReplacementResult, error)

	// ValidateRules checks that all rules are valid
	ValidateRules(rules []ReplacementRule) error
}

func (r ReplacementRule) kind() MatchKind {
	if r.Kind == "" {
		return MatchLiteral
	}
	return r.Kind
}

func (r ReplacementRule) mode() WriteMode {
	if r.Mode == "" {
		return ReplaceAll
	}
	return r.Mode
}

// Markers returns the strings that mark the rule as already applied
func (r ReplacementRule) Markers() []string {
	if len(r.AlreadyPatched) > 0 {
		return r.AlreadyPatched
	}
	if r.Replacement == "" {
		return nil
	}
	if r.kind() == MatchRegex && r.Expand {
		return nil
	}
	return []string{r.Replacement}
}
