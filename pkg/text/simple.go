package text

import (
	"context"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// SimpleTextReplacer implements TextReplacer with literal and regex rules
type SimpleTextReplacer struct {
	mu    sync.Mutex
	cache map[string]*regexp.Regexp
}

// NewSimpleTextReplacer creates a new SimpleTextReplacer
func NewSimpleTextReplacer() *SimpleTextReplacer {
	return &SimpleTextReplacer{
		cache: make(map[string]*regexp.Regexp),
	}
}

// ReplaceText implements TextReplacer.ReplaceText
func (r *SimpleTextReplacer) ReplaceText(ctx context.Context, content io.Reader, rules []ReplacementRule) (*ReplacementResult, error) {
	originalContent, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}

	result := &ReplacementResult{
		OriginalContent: originalContent,
		ModifiedContent: originalContent,
		Rules:           make([]RuleResult, 0, len(rules)),
	}

	currentContent := string(originalContent)
	for i, rule := range rules {
		name := rule.Name
		if name == "" {
			name = strings.TrimSpace(firstLine(rule.Match))
		}

		if rule.Match == "" {
			return nil, errors.Errorf("rule %d: match is required", i)
		}

		if containsAny(currentContent, rule.Markers()) {
			result.Rules = append(result.Rules, RuleResult{Name: name, State: RuleAlreadyPatched})
			continue
		}

		newContent, count, err := r.apply(currentContent, rule)
		if err != nil {
			return nil, errors.Errorf("rule %q: %w", name, err)
		}

		if count == 0 {
			result.Rules = append(result.Rules, RuleResult{Name: name, State: RuleNoMatch})
			continue
		}

		zerolog.Ctx(ctx).Trace().Str("rule", name).Int("count", count).Msg("rule matched")

		result.Rules = append(result.Rules, RuleResult{Name: name, State: RuleApplied, Count: count})
		result.ReplacementCount += count
		currentContent = newContent
	}

	if currentContent != string(originalContent) {
		result.WasModified = true
		result.ModifiedContent = []byte(currentContent)
	}

	return result, nil
}

// apply runs one rule and returns the new content and the number of rewrites
func (r *SimpleTextReplacer) apply(content string, rule ReplacementRule) (string, int, error) {
	if rule.kind() == MatchLiteral {
		count := strings.Count(content, rule.Match)
		if count == 0 {
			return content, 0, nil
		}
		if rule.mode() == ReplaceFirst {
			return strings.Replace(content, rule.Match, rule.Replacement, 1), 1, nil
		}
		return strings.ReplaceAll(content, rule.Match, rule.Replacement), count, nil
	}

	re, err := r.compile(rule)
	if err != nil {
		return "", 0, err
	}

	if rule.mode() == ReplaceFirst {
		loc := re.FindStringSubmatchIndex(content)
		if loc == nil {
			return content, 0, nil
		}
		var dst string
		if rule.Expand {
			dst = string(re.ExpandString(nil, rule.Replacement, content, loc))
		} else {
			dst = rule.Replacement
		}
		return content[:loc[0]] + dst + content[loc[1]:], 1, nil
	}

	count := len(re.FindAllStringIndex(content, -1))
	if count == 0 {
		return content, 0, nil
	}
	if rule.Expand {
		return re.ReplaceAllString(content, rule.Replacement), count, nil
	}
	return re.ReplaceAllLiteralString(content, rule.Replacement), count, nil
}

// compile returns the cached regexp for a rule
func (r *SimpleTextReplacer) compile(rule ReplacementRule) (*regexp.Regexp, error) {
	expr := rule.Match
	if rule.DotAll {
		expr = "(?s)" + expr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if re, ok := r.cache[expr]; ok {
		return re, nil
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Errorf("compiling pattern: %w", err)
	}
	r.cache[expr] = re
	return re, nil
}

// ValidateRules implements TextReplacer.ValidateRules
func (r *SimpleTextReplacer) ValidateRules(rules []ReplacementRule) error {
	for i, rule := range rules {
		if rule.Match == "" {
			return errors.Errorf("rule %d: match is required", i)
		}
		switch rule.kind() {
		case MatchLiteral:
			if rule.Expand {
				return errors.Errorf("rule %d: expand requires a regex match", i)
			}
		case MatchRegex:
			if _, err := r.compile(rule); err != nil {
				return errors.Errorf("rule %d: %w", i, err)
			}
		default:
			return errors.Errorf("rule %d: unknown match kind %q", i, rule.Kind)
		}
		switch rule.mode() {
		case ReplaceAll, ReplaceFirst:
		default:
			return errors.Errorf("rule %d: unknown mode %q", i, rule.Mode)
		}
	}
	return nil
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
