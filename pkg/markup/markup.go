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

package markup

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"gitlab.com/tozd/go/errors"
)

const fragmentRoot = "tmplpatch-fragment"

var (
	// <% ... %>, <%= ... %>, <%- ... %> and friends
	directiveRe = regexp.MustCompile(`(?s)<%.*?%>`)
	placeholder = regexp.MustCompile(`__TMPL_DIRECTIVE_(\d+)__`)

	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)

	// raw text bodies the tree must not see
	scriptRe = regexp.MustCompile(`(?is)(<script\b[^>]*>)(.*?)(</script\s*>)`)
	styleRe  = regexp.MustCompile(`(?is)(<style\b[^>]*>)(.*?)(</style\s*>)`)

	// entity references and bare ampersands
	ampRe = regexp.MustCompile(`&(?:#[0-9]+;|#[xX][0-9a-fA-F]+;|[A-Za-z][A-Za-z0-9]*;)?`)

	startTagRe = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9:_-]*)((?:\s+[^\s=/>]+(?:\s*=\s*(?:"[^"]*"|'[^']*'|[^\s"'=<>` + "`" + `]+))?)*)\s*(/?)>`)
	attrRe     = regexp.MustCompile(`([^\s=/>]+)(?:\s*=\s*("[^"]*"|'[^']*'|[^\s"'=<>` + "`" + `]+))?`)

	voidElements = map[string]bool{
		"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
		"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
	}
)

// 🎭 Masked holds a fragment whose template directives were swapped for placeholders
type Masked struct {
	Text       string
	Directives []string
}

// 🎭 Mask replaces every template directive with an inert placeholder
func Mask(s string) *Masked {
	m := &Masked{}
	m.Text = directiveRe.ReplaceAllStringFunc(s, m.keep)
	return m
}

func (m *Masked) keep(s string) string {
	m.Directives = append(m.Directives, s)
	return fmt.Sprintf("__TMPL_DIRECTIVE_%d__", len(m.Directives)-1)
}

// 🎭 Unmask restores the directives removed by Mask
func (m *Masked) Unmask(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(p string) string {
		idx, err := strconv.Atoi(placeholder.FindStringSubmatch(p)[1])
		if err != nil || idx >= len(m.Directives) {
			return p
		}
		return m.Directives[idx]
	})
}

// protect masks directives, comments, script and style bodies and every
// ampersand so the rest of the fragment is plain markup
func protect(fragment string) *Masked {
	m := Mask(fragment)
	m.Text = commentRe.ReplaceAllStringFunc(m.Text, m.keep)
	for _, re := range []*regexp.Regexp{scriptRe, styleRe} {
		m.Text = re.ReplaceAllStringFunc(m.Text, func(block string) string {
			sub := re.FindStringSubmatch(block)
			if sub[2] == "" {
				return block
			}
			return sub[1] + m.keep(sub[2]) + sub[3]
		})
	}
	m.Text = ampRe.ReplaceAllStringFunc(m.Text, m.keep)
	return m
}

// normalizeTags rewrites start tags into XML form: every attribute quoted
// with a value, void elements self-closed. Tag count and order are kept.
func normalizeTags(s string) string {
	return startTagRe.ReplaceAllStringFunc(s, func(tag string) string {
		sub := startTagRe.FindStringSubmatch(tag)
		name := sub[1]

		var sb strings.Builder
		sb.WriteString("<" + name)
		for _, a := range attrRe.FindAllStringSubmatch(sub[2], -1) {
			value := a[2]
			switch {
			case value == "":
				value = `""`
			case value[0] != '"' && value[0] != '\'':
				value = `"` + value + `"`
			}
			sb.WriteString(" " + a[1] + "=" + value)
		}
		if sub[3] == "/" || voidElements[strings.ToLower(name)] {
			sb.WriteString("/")
		}
		sb.WriteString(">")
		return sb.String()
	})
}

// 🌳 Parse reads a fragment into an element tree under a synthetic root. The
// returned Masked text is the fragment with directives, raw text and
// entities replaced by placeholders; attribute values in the tree carry the
// same placeholders.
func Parse(fragment string) (*etree.Document, *Masked, error) {
	masked := protect(fragment)

	doc := etree.NewDocument()
	if err := doc.ReadFromString("<" + fragmentRoot + ">" + normalizeTags(masked.Text) + "</" + fragmentRoot + ">"); err != nil {
		return nil, nil, errors.Errorf("parsing markup: %w", err)
	}

	return doc, masked, nil
}

// ✅ Validate checks that a fragment is balanced markup
func Validate(fragment string) error {
	_, _, err := Parse(fragment)
	return err
}
