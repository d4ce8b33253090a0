package browser_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/raysh454/pagecheck/internal/browser"
	"github.com/raysh454/pagecheck/internal/logging"
)

// TestNewDriver_Default verifies that an empty name selects chromedp
func TestNewDriver_Default(t *testing.T) {
	t.Parallel()
	d, err := browser.NewDriver("", logging.NewStdoutLogger("test"))
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	if d.Name() != "chromedp" {
		t.Errorf("expected chromedp, got %s", d.Name())
	}
}

// TestNewDriver_Registered verifies every built-in backend can be constructed
func TestNewDriver_Registered(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"chromedp", "rod", "playwright", " ROD "} {
		d, err := browser.NewDriver(name, nil)
		if err != nil {
			t.Errorf("NewDriver(%q): %v", name, err)
			continue
		}
		if d.Name() != strings.ToLower(strings.TrimSpace(name)) {
			t.Errorf("NewDriver(%q) returned %s", name, d.Name())
		}
	}
}

// TestNewDriver_Unknown verifies unknown names return ErrUnknownDriver
func TestNewDriver_Unknown(t *testing.T) {
	t.Parallel()
	d, err := browser.NewDriver("firefox", nil)
	if !errors.Is(err, browser.ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
	if d != nil {
		t.Fatal("expected nil driver")
	}
	if !strings.Contains(err.Error(), "chromedp") {
		t.Errorf("error should list available drivers: %v", err)
	}
}

type stubDriver struct{}

func (stubDriver) Name() string { return "stub" }
func (stubDriver) Launch(context.Context, browser.LaunchOptions) (browser.Session, error) {
	return nil, errors.New("not implemented")
}

// TestRegisterDriver_Overwrite verifies custom backends are listed and constructible
func TestRegisterDriver_Overwrite(t *testing.T) {
	browser.RegisterDriver("stub-test", func(logging.Logger) (browser.Driver, error) { return stubDriver{}, nil })
	browser.RegisterDriver("", nil) // ignored

	found := false
	for _, n := range browser.ListDrivers() {
		if n == "stub-test" {
			found = true
		}
	}
	if !found {
		t.Fatalf("stub-test missing from %v", browser.ListDrivers())
	}
	d, err := browser.NewDriver("stub-test", nil)
	if err != nil || d.Name() != "stub" {
		t.Fatalf("unexpected driver %v, err %v", d, err)
	}
}

// TestNewDriver_ConstructorError verifies constructor errors are wrapped
func TestNewDriver_ConstructorError(t *testing.T) {
	boom := errors.New("boom")
	browser.RegisterDriver("broken-test", func(logging.Logger) (browser.Driver, error) { return nil, boom })
	_, err := browser.NewDriver("broken-test", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped constructor error, got %v", err)
	}
}
