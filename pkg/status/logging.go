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

package status

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	statusWidth = 9  // Width for status text
)

// 🎨 ColumnFormatter renders outcomes as aligned, colored columns
type ColumnFormatter struct{}

var _ FileFormatter = ColumnFormatter{}

// 🎯 FormatFileOperation formats a file outcome for display
func (ColumnFormatter) FormatFileOperation(info FileInfo) string {
	var prefix, detail string
	switch info.Status {
	case StatusPatched:
		prefix = color.GreenString("✓")
		detail = fmt.Sprintf("%d replacement(s)", info.Replacements)
		if len(info.Rules) > 0 {
			detail += " " + color.HiBlackString("[%s]", strings.Join(info.Rules, ", "))
		}
	case StatusSkipped:
		prefix = color.HiBlackString("-")
		detail = color.HiBlackString("%s", info.Reason)
	case StatusError:
		prefix = color.RedString("✗")
		detail = color.RedString("%v", info.Error)
	default:
		prefix = color.HiBlackString("?")
	}

	namePart := fmt.Sprintf("%-*s", nameWidth, info.Path)
	statusPart := fmt.Sprintf("%-*s", statusWidth, info.Status.String())

	return strings.TrimRight(fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", fileIndent),
		prefix,
		namePart,
		statusPart,
		detail,
	), " ")
}

// FormatSummary formats the run totals, highlighting errors
func (ColumnFormatter) FormatSummary(s Summary) string {
	errored := fmt.Sprintf("%d", s.Errored)
	if s.Errored > 0 {
		errored = color.RedString("%d", s.Errored)
	}
	return fmt.Sprintf("%schecked %d, modified %s, skipped %d, errored %s",
		strings.Repeat(" ", fileIndent),
		s.Checked,
		color.GreenString("%d", s.Modified),
		s.Skipped,
		errored,
	)
}

func (ColumnFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return color.RedString("✗ %v", err)
}
