package scenario

import "testing"

func TestGlobMatch(t *testing.T) {
	t.Parallel()
	cases := []struct {
		pattern, url string
		want         bool
	}{
		{"**/api/chat", "http://localhost:3000/api/chat", true},
		{"**/api/chat", "https://example.com/v1/api/chat", true},
		{"**/api/chat", "http://localhost:3000/api/chat/history", false},
		{"**/api/chat", "http://localhost:3000/api/chat?x=1", false},
		{"**/api/*", "http://localhost:3000/api/roadmap", true},
		{"**/api/*", "http://localhost:3000/api/roadmap/1", false},
		{"http://localhost:3000/api/chat", "http://localhost:3000/api/chat", true},
		{"**/a.b", "http://h/axb", false},
		{"**/api/{chat,assessment}", "http://h/api/assessment", true},
		{"**/api/{chat,assessment}", "http://h/api/roadmap", false},
	}
	for _, tc := range cases {
		set, err := NewMockSet(MockRoute{Pattern: tc.pattern})
		if err != nil {
			t.Fatalf("NewMockSet(%q): %v", tc.pattern, err)
		}
		if _, got := set.Match(tc.url); got != tc.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tc.pattern, tc.url, got, tc.want)
		}
	}
}

func TestInterceptPattern(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"**/api/chat":              "*/api/chat",
		"**/api/*":                 "*/api/*",
		"**/search?q=*":            "*/search?q=*",
		"****/x":                   "*/x",
		"**/api/{chat,assessment}": "*",
	}
	for in, want := range cases {
		if got := (MockRoute{Pattern: in}).InterceptPattern(); got != want {
			t.Errorf("InterceptPattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMockSet_FirstAddedWins(t *testing.T) {
	t.Parallel()
	var set MockSet
	if err := set.Add(MockRoute{Pattern: "**/api/*", Body: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := set.Add(MockRoute{Pattern: "**/api/chat", Body: "second"}); err != nil {
		t.Fatal(err)
	}
	m, ok := set.Match("http://localhost:3000/api/chat")
	if !ok || m.Body != "first" {
		t.Errorf("expected first mock, got %+v (ok=%v)", m, ok)
	}
	if _, ok := set.Match("http://localhost:3000/index.html"); ok {
		t.Error("expected no match")
	}
	if set.Len() != 2 || set.Routes()[1].Body != "second" {
		t.Errorf("unexpected routes %+v", set.Routes())
	}
}

func TestMockSet_InvalidPatternAddsNothing(t *testing.T) {
	t.Parallel()
	var set MockSet
	err := set.Add(MockRoute{Pattern: "**/ok"}, MockRoute{Pattern: "**/[broken"})
	if err == nil {
		t.Fatal("expected an error for an unterminated class")
	}
	if set.Len() != 0 {
		t.Errorf("partial add: %+v", set.Routes())
	}
	if (MockRoute{Pattern: "**/[broken"}).Validate() == nil {
		t.Error("Validate should reject the pattern")
	}
}

func TestMockRoute_StatusCodeDefault(t *testing.T) {
	t.Parallel()
	if (MockRoute{}).StatusCode() != 200 {
		t.Error("expected default status 200")
	}
	if (MockRoute{Status: 404}).StatusCode() != 404 {
		t.Error("expected explicit status")
	}
}
