package runner

import "testing"

func TestSummarize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "title and h1",
			html: `<html><head><title> Roadmap </title></head><body><h1>Feature
				Roadmap</h1><h2>Later</h2></body></html>`,
			want: `title="Roadmap" heading="Feature Roadmap"`,
		},
		{
			name: "h2 fallback",
			html: `<title>Sign in</title><h2>Welcome back</h2>`,
			want: `title="Sign in" heading="Welcome back"`,
		},
		{
			name: "heading only",
			html: `<h1>Master Your Product Strategy.</h1>`,
			want: `heading="Master Your Product Strategy."`,
		},
		{
			name: "empty",
			html: ``,
			want: `(empty page)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Summarize(tt.html)
			if err != nil {
				t.Fatalf("Summarize: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
