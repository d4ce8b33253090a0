package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/raysh454/pagecheck/internal/logging"
)

func TestParseFlags_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := parseFlags(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if !cfg.RequireAuth || cfg.ListenAddr != ":3000" || cfg.Logger == nil {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestParseFlags_NoAuthAndJSON(t *testing.T) {
	t.Parallel()
	cfg, err := parseFlags([]string{"-no-auth", "-log-format", "JSON", "-addr", ":4000"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.RequireAuth || cfg.ListenAddr != ":4000" {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestParseFlags_UnknownLogFormat(t *testing.T) {
	t.Parallel()
	_, err := parseFlags([]string{"-log-format", "xml"}, &bytes.Buffer{})
	if !errors.Is(err, logging.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestRun_BadFlagsExitBeforeListening(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-log-format", "xml"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("server must not start: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "xml") {
		t.Errorf("error should name the bad value: %q", stderr.String())
	}
}
