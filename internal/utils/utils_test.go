package utils

import (
	"errors"
	"net/url"
	"testing"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		opts BaseURLOptions
		want string
	}{
		{
			in:   "http://localhost:3000",
			want: "http://localhost:3000",
		},
		{
			in:   "localhost:3000",
			opts: BaseURLOptions{DefaultScheme: "http"},
			want: "http://localhost:3000",
		},
		{
			in:   "HTTP://LocalHost:80/app/?x=1#frag",
			want: "http://localhost/app",
		},
		{
			in:   "https://user:pw@example.com:443/",
			want: "https://example.com",
		},
		{
			in:   "https://例え.テスト/a",
			want: "https://xn--r8jz45g.xn--zckzah/a", // punycode-encoded host
		},
	}

	for _, tt := range tests {
		got, err := NormalizeBaseURL(tt.in, tt.opts)
		if err != nil {
			t.Fatalf("NormalizeBaseURL(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeBaseURL_Errors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrEmptyURL},
		{"   ", ErrEmptyURL},
		{"localhost:3000/path", ErrMissingHost},
		{"ftp://example.com", ErrUnsupportedScheme},
		{"http://", ErrMissingHost},
	}

	for _, tt := range tests {
		_, err := NormalizeBaseURL(tt.in, BaseURLOptions{})
		if err == nil {
			t.Errorf("NormalizeBaseURL(%q): expected error", tt.in)
			continue
		}
		var uerr *url.Error
		if errors.As(err, &uerr) && !errors.Is(uerr.Err, tt.want) {
			t.Errorf("NormalizeBaseURL(%q) = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, target, want string
	}{
		{"http://localhost:3000", "", "http://localhost:3000/"},
		{"http://localhost:3000", "/", "http://localhost:3000/"},
		{"http://localhost:3000", "/admin", "http://localhost:3000/admin"},
		{"http://localhost:3000", "dashboard/roadmap", "http://localhost:3000/dashboard/roadmap"},
		{"http://localhost:3000/app", "/admin", "http://localhost:3000/app/admin"},
		{"http://localhost:3000", "/sign-in?redirect_url=%2Fadmin", "http://localhost:3000/sign-in?redirect_url=%2Fadmin"},
		{"http://localhost:3000", "https://example.com/x", "https://example.com/x"},
	}

	for _, tt := range tests {
		got, err := ResolveURL(tt.base, tt.target)
		if err != nil {
			t.Fatalf("ResolveURL(%q, %q) error: %v", tt.base, tt.target, err)
		}
		if got != tt.want {
			t.Errorf("ResolveURL(%q, %q) = %q, want %q", tt.base, tt.target, got, tt.want)
		}
	}
}

func TestResolveURL_RequiresHost(t *testing.T) {
	if _, err := ResolveURL("/relative", "/admin"); err == nil {
		t.Fatal("expected error for base without host")
	}
}

func TestContainsMarker(t *testing.T) {
	if !ContainsMarker("http://localhost:3000/sign-in?redirect_url=x", "sign-in") {
		t.Error("expected marker match")
	}
	if ContainsMarker("http://localhost:3000/dashboard", "sign-in") {
		t.Error("unexpected marker match")
	}
	if ContainsMarker("http://localhost:3000/sign-in", "") {
		t.Error("empty marker must never match")
	}
}
