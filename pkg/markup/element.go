package markup

import (
	"regexp"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrElementNotFound = errors.Base("element not found")
	ErrUnclosedElement = errors.Base("element is not closed")
	ErrLinkNotFound    = errors.Base("link not found")
)

var classAttrRe = regexp.MustCompile(`(?i)\bclass\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// ExtractElement returns the first <tag> block whose class list contains class,
// including nested blocks of the same tag. An empty class matches any element.
func ExtractElement(content, tag, class string) (string, error) {
	if tag == "" {
		return "", errors.New("tag is required")
	}

	masked := Mask(content)
	text := masked.Text

	tokenRe := regexp.MustCompile(`(?i)<(/?)` + regexp.QuoteMeta(tag) + `\b[^>]*>`)

	start := -1
	for _, loc := range tokenRe.FindAllStringSubmatchIndex(text, -1) {
		if loc[3] > loc[2] {
			continue
		}
		if class == "" || hasClass(text[loc[0]:loc[1]], class) {
			start = loc[0]
			break
		}
	}
	if start < 0 {
		return "", errors.Errorf("%w: <%s class=%q>", ErrElementNotFound, tag, class)
	}

	depth := 0
	for _, loc := range tokenRe.FindAllStringSubmatchIndex(text[start:], -1) {
		openTag := text[start+loc[0] : start+loc[1]]
		switch {
		case loc[3] > loc[2]:
			depth--
		case strings.HasSuffix(openTag, "/>"):
		default:
			depth++
		}
		if depth == 0 {
			return masked.Unmask(text[start : start+loc[1]]), nil
		}
	}

	return "", errors.Errorf("%w: <%s class=%q>", ErrUnclosedElement, tag, class)
}

func hasClass(openTag, class string) bool {
	m := classAttrRe.FindStringSubmatch(openTag)
	if m == nil {
		return false
	}
	value := m[1]
	if value == "" {
		value = m[2]
	}
	for _, c := range strings.Fields(value) {
		if c == class {
			return true
		}
	}
	return false
}

// SetActiveLink marks the <a> whose href equals href as the only active link.
// Only the class attributes of links whose classes change are rewritten; the
// rest of the fragment is returned as written.
func SetActiveLink(fragment, href string) (string, error) {
	doc, masked, err := Parse(fragment)
	if err != nil {
		return "", err
	}

	links := anchors(doc.Root(), nil)
	classes := make([]string, len(links))
	changed := make([]bool, len(links))
	found := false
	for i, a := range links {
		current := strings.Fields(a.SelectAttrValue("class", ""))

		var next []string
		for _, c := range current {
			if c != "active" {
				next = append(next, c)
			}
		}
		if masked.Unmask(a.SelectAttrValue("href", "")) == href {
			next = append(next, "active")
			found = true
		}

		classes[i] = strings.Join(next, " ")
		changed[i] = !slices.Equal(current, next)
	}

	if !found {
		return "", errors.Errorf("%w: href=%q", ErrLinkNotFound, href)
	}

	n := 0
	out := startTagRe.ReplaceAllStringFunc(masked.Text, func(tag string) string {
		if startTagRe.FindStringSubmatch(tag)[1] != "a" {
			return tag
		}
		i := n
		n++
		if i >= len(links) || !changed[i] {
			return tag
		}
		return setClass(tag, classes[i])
	})
	if n != len(links) {
		return "", errors.Errorf("locating links: %d tags for %d elements", n, len(links))
	}

	return masked.Unmask(out), nil
}

// anchors collects <a> elements in document order
func anchors(e *etree.Element, out []*etree.Element) []*etree.Element {
	for _, c := range e.ChildElements() {
		if c.Space == "" && c.Tag == "a" {
			out = append(out, c)
		}
		out = anchors(c, out)
	}
	return out
}

// setClass rewrites the class attribute of one start tag, removing it when
// value is empty
func setClass(tag, value string) string {
	loc := startTagRe.FindStringSubmatchIndex(tag)
	attrsStart, attrsEnd := loc[4], loc[5]
	attrs := tag[attrsStart:attrsEnd]

	for _, m := range attrRe.FindAllStringSubmatchIndex(attrs, -1) {
		if !strings.EqualFold(attrs[m[2]:m[3]], "class") {
			continue
		}

		start, end := attrsStart+m[0], attrsStart+m[1]
		if value == "" {
			for start > attrsStart && isSpace(tag[start-1]) {
				start--
			}
			return tag[:start] + tag[end:]
		}

		quote := `"`
		if m[4] >= 0 && attrs[m[4]] == '\'' {
			quote = "'"
		}
		return tag[:start] + attrs[m[2]:m[3]] + "=" + quote + value + quote + tag[end:]
	}

	if value == "" {
		return tag
	}
	return tag[:attrsEnd] + ` class="` + value + `"` + tag[attrsEnd:]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}
