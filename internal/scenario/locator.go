package scenario

import (
	"fmt"
	"strings"
)

// Syntax tells a backend how to interpret a compiled query.
type Syntax int

const (
	SyntaxCSS Syntax = iota
	SyntaxXPath
)

func (s Syntax) String() string {
	if s == SyntaxXPath {
		return "xpath"
	}
	return "css"
}

// Locator identifies one element on the page. Exactly one of CSS, Text,
// Placeholder or Last is used; Tag narrows Text and Placeholder lookups and
// names the element kind for Last.
type Locator struct {
	CSS         string
	Text        string
	Placeholder string
	Tag         string
	Last        bool
}

// CSS locates the first element matching selector.
func CSS(selector string) Locator { return Locator{CSS: selector} }

// Text locates the first element whose own text contains s.
func Text(s string) Locator { return Locator{Text: s} }

// TagText locates the first tag element whose text content contains s.
func TagText(tag, s string) Locator { return Locator{Tag: tag, Text: s} }

// Placeholder locates the first input or textarea with the given placeholder.
func Placeholder(s string) Locator { return Locator{Placeholder: s} }

// LastOf locates the last tag element in document order.
func LastOf(tag string) Locator { return Locator{Tag: tag, Last: true} }

// IsZero reports whether the locator identifies nothing.
func (l Locator) IsZero() bool {
	return l.CSS == "" && l.Text == "" && l.Placeholder == "" && !(l.Last && l.Tag != "")
}

// Query compiles the locator into a selector for the browser. Raw CSS
// selectors pass through; text, placeholder and position lookups become XPath.
func (l Locator) Query() (string, Syntax) {
	switch {
	case l.CSS != "":
		return l.CSS, SyntaxCSS
	case l.Text != "":
		if l.Tag != "" {
			return fmt.Sprintf("//%s[contains(normalize-space(.), %s)]", l.Tag, xpathLiteral(l.Text)), SyntaxXPath
		}
		return fmt.Sprintf("//*[contains(normalize-space(text()), %s)]", xpathLiteral(l.Text)), SyntaxXPath
	case l.Placeholder != "":
		if l.Tag != "" {
			return fmt.Sprintf("//%s[@placeholder=%s]", l.Tag, xpathLiteral(l.Placeholder)), SyntaxXPath
		}
		return fmt.Sprintf("//*[(self::input or self::textarea) and @placeholder=%s]", xpathLiteral(l.Placeholder)), SyntaxXPath
	case l.Last && l.Tag != "":
		return fmt.Sprintf("(//%s)[last()]", l.Tag), SyntaxXPath
	}
	return "", SyntaxCSS
}

func (l Locator) String() string {
	switch {
	case l.CSS != "":
		return l.CSS
	case l.Text != "" && l.Tag != "":
		return fmt.Sprintf("%s with text %q", l.Tag, l.Text)
	case l.Text != "":
		return fmt.Sprintf("text %q", l.Text)
	case l.Placeholder != "":
		return fmt.Sprintf("placeholder %q", l.Placeholder)
	case l.Last && l.Tag != "":
		return fmt.Sprintf("last %s", l.Tag)
	}
	return "<empty locator>"
}

// xpathLiteral quotes s for use inside an XPath 1.0 expression, which has no
// escape sequences: strings holding both quote kinds are built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, '"', `)
		}
		b.WriteString(`"` + p + `"`)
	}
	b.WriteString(")")
	return b.String()
}
