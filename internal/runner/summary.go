package runner

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageSummary is the one-line description printed after each navigation.
type PageSummary struct {
	Title   string
	Heading string
}

func (s PageSummary) String() string {
	switch {
	case s.Title == "" && s.Heading == "":
		return "(empty page)"
	case s.Heading == "":
		return fmt.Sprintf("title=%q", s.Title)
	case s.Title == "":
		return fmt.Sprintf("heading=%q", s.Heading)
	default:
		return fmt.Sprintf("title=%q heading=%q", s.Title, s.Heading)
	}
}

// Summarize extracts the document title and the first h1 (falling back to
// h2) from a rendered page.
func Summarize(html string) (PageSummary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return PageSummary{}, fmt.Errorf("parse page: %w", err)
	}
	heading := doc.Find("h1").First()
	if heading.Length() == 0 {
		heading = doc.Find("h2").First()
	}
	return PageSummary{
		Title:   squash(doc.Find("title").First().Text()),
		Heading: squash(heading.Text()),
	}, nil
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
