package status

import (
	"fmt"
	"strings"
)

// FileFormatter defines how file outcomes and summaries should be formatted
type FileFormatter interface {
	// FormatFileOperation formats a single file outcome
	FormatFileOperation(info FileInfo) string

	// FormatSummary formats the totals of a run
	FormatSummary(s Summary) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatFileOperation formats a file outcome with emojis
func (f *DefaultFileFormatter) FormatFileOperation(info FileInfo) string {
	switch info.Status {
	case StatusPatched:
		msg := fmt.Sprintf("✅ Patched %s", info.Path)
		if len(info.Rules) > 0 {
			msg += fmt.Sprintf(" (%s)", strings.Join(info.Rules, ", "))
		}
		return msg
	case StatusSkipped:
		if info.Reason == ReasonExcluded {
			return fmt.Sprintf("⊘ Skipped %s (%s)", info.Path, info.Reason)
		}
		return fmt.Sprintf("⏭️  Skipped %s (%s)", info.Path, info.Reason)
	case StatusError:
		return fmt.Sprintf("❌ Failed %s: %v", info.Path, info.Error)
	default:
		return fmt.Sprintf("❔ Unknown %s", info.Path)
	}
}

// FormatSummary formats the run totals
func (f *DefaultFileFormatter) FormatSummary(s Summary) string {
	return fmt.Sprintf("📊 Files checked: %d, modified: %d, skipped: %d, errored: %d",
		s.Checked, s.Modified, s.Skipped, s.Errored)
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}
