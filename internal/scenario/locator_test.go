package scenario

import "testing"

func TestLocator_Query(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		loc    Locator
		query  string
		syntax Syntax
	}{
		{"css", CSS("input[placeholder='e.g. Dark Mode']"), "input[placeholder='e.g. Dark Mode']", SyntaxCSS},
		{"tag text", TagText("h1", "Feature Roadmap"), `//h1[contains(normalize-space(.), "Feature Roadmap")]`, SyntaxXPath},
		{"text", Text("Add New Feature"), `//*[contains(normalize-space(text()), "Add New Feature")]`, SyntaxXPath},
		{"placeholder", Placeholder("Type your answer..."), `//*[(self::input or self::textarea) and @placeholder="Type your answer..."]`, SyntaxXPath},
		{"tag placeholder", Locator{Tag: "textarea", Placeholder: "Notes"}, `//textarea[@placeholder="Notes"]`, SyntaxXPath},
		{"last", LastOf("button"), "(//button)[last()]", SyntaxXPath},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			q, s := tc.loc.Query()
			if q != tc.query || s != tc.syntax {
				t.Errorf("got (%s, %s), want (%s, %s)", q, s, tc.query, tc.syntax)
			}
		})
	}
}

func TestLocator_IsZero(t *testing.T) {
	t.Parallel()
	if !(Locator{}).IsZero() {
		t.Error("empty locator should be zero")
	}
	if !(Locator{Last: true}).IsZero() {
		t.Error("Last without a tag should be zero")
	}
	if LastOf("button").IsZero() {
		t.Error("LastOf should not be zero")
	}
}

func TestXPathLiteral(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		`plain`:         `"plain"`,
		`say "hi"`:      `'say "hi"'`,
		`it's "quoted"`: `concat("it's ", '"', "quoted", '"', "")`,
	}
	for in, want := range cases {
		if got := xpathLiteral(in); got != want {
			t.Errorf("xpathLiteral(%q) = %s, want %s", in, got, want)
		}
	}
}
