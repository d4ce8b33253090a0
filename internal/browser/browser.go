// Package browser drives a real Chromium instance for verification runs.
// A Driver launches a Session (one browser process), a Session opens Pages,
// and a Page performs the navigation, input and capture a scenario needs.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raysh454/pagecheck/internal/scenario"
)

var (
	// ErrNavigation is returned when a page cannot be loaded.
	ErrNavigation = errors.New("navigation failed")
	// ErrElementNotFound is returned when a locator matches nothing visible in time.
	ErrElementNotFound = errors.New("element not found")
	// ErrUnknownDriver is returned by NewDriver for unregistered backend names.
	ErrUnknownDriver = errors.New("unknown browser driver")
	// ErrUnsupportedKey is returned by Press for key names the drivers do not map.
	ErrUnsupportedKey = errors.New("unsupported key")
)

// DefaultIdleWindow is how long the network must stay quiet to count as idle.
const DefaultIdleWindow = 500 * time.Millisecond

// LaunchOptions configures the browser process.
type LaunchOptions struct {
	Headless  bool
	ExecPath  string // empty uses the driver's own lookup
	NoSandbox bool
	UserAgent string

	// WindowWidth and WindowHeight size the browser window; zero keeps the default.
	WindowWidth  int
	WindowHeight int
}

// PageOptions configures a new page.
type PageOptions struct {
	Viewport *scenario.Viewport

	// IdleWindow overrides DefaultIdleWindow for WaitIdle and networkidle navigations.
	IdleWindow time.Duration
}

func (o PageOptions) idleWindow() time.Duration {
	if o.IdleWindow > 0 {
		return o.IdleWindow
	}
	return DefaultIdleWindow
}

// ConsoleMessage is one console API call or uncaught exception seen on a page.
type ConsoleMessage struct {
	Level string // log, info, warning, error, debug, exception
	Text  string
	Time  time.Time
}

func (m ConsoleMessage) String() string {
	return fmt.Sprintf("[%s] %s", m.Level, m.Text)
}

// Driver launches browser sessions.
type Driver interface {
	Name() string
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Session is one running browser. Close must release the process on every path.
type Session interface {
	NewPage(ctx context.Context, opts PageOptions) (Page, error)
	Close() error
}

// Page is a single tab. Waits are bounded by the context deadline.
type Page interface {
	// Route fulfills every request matching one of the mocks with its
	// canned response. The first matching mock wins.
	Route(ctx context.Context, mocks []scenario.MockRoute) error

	Navigate(ctx context.Context, url string, wait scenario.WaitUntil) error
	URL(ctx context.Context) (string, error)

	WaitVisible(ctx context.Context, loc scenario.Locator) error
	Fill(ctx context.Context, loc scenario.Locator, text string) error
	Press(ctx context.Context, loc scenario.Locator, key string) error
	Click(ctx context.Context, loc scenario.Locator) error

	// WaitIdle returns once no request has been in flight for the idle window,
	// or once max has elapsed, whichever is first. Reaching max is not an error.
	WaitIdle(ctx context.Context, max time.Duration) error

	// Screenshot returns PNG bytes for the page, the full scrollable page, or
	// the element named by shot.Element.
	Screenshot(ctx context.Context, shot scenario.Shot) ([]byte, error)

	HTML(ctx context.Context) (string, error)
	Console() []ConsoleMessage
	Close() error
}

// ─── helpers shared by the drivers ─────────────────────────────────────

// elementErr maps a failed element wait to ErrElementNotFound when the wait
// ran out of time.
func elementErr(loc scenario.Locator, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %v", ErrElementNotFound, loc, err)
	}
	return fmt.Errorf("%s: %w", loc, err)
}

func navigationErr(url string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
}

// knownKeys lists the key names Press accepts.
var knownKeys = map[string]bool{
	"Enter":      true,
	"Tab":        true,
	"Escape":     true,
	"Backspace":  true,
	"ArrowUp":    true,
	"ArrowDown":  true,
	"ArrowLeft":  true,
	"ArrowRight": true,
}

func checkKey(key string) error {
	if !knownKeys[key] {
		return fmt.Errorf("%w %q", ErrUnsupportedKey, key)
	}
	return nil
}

const maxConsoleMessages = 200

// consoleBuffer collects console output from driver goroutines.
type consoleBuffer struct {
	mu   sync.Mutex
	msgs []ConsoleMessage
}

func (b *consoleBuffer) add(level, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.msgs) >= maxConsoleMessages {
		return
	}
	b.msgs = append(b.msgs, ConsoleMessage{Level: level, Text: text, Time: time.Now()})
}

func (b *consoleBuffer) snapshot() []ConsoleMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ConsoleMessage(nil), b.msgs...)
}
