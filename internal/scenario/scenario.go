// Package scenario describes verification flows: where to go, what to wait
// for, what to type and click, and where to save the screenshots.
package scenario

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// WaitUntil is the readiness condition a navigation waits for.
type WaitUntil string

const (
	// WaitLoad waits for the load event.
	WaitLoad WaitUntil = "load"
	// WaitNetworkIdle waits for the load event and then for the network to go quiet.
	WaitNetworkIdle WaitUntil = "networkidle"
)

// Action is the kind of a Step.
type Action string

const (
	ActionNavigate    Action = "navigate"
	ActionWaitVisible Action = "wait_visible"
	ActionFill        Action = "fill"
	ActionPress       Action = "press"
	ActionClick       Action = "click"
	ActionSettle      Action = "settle"
	ActionScreenshot  Action = "screenshot"
)

// Viewport is the page size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// Shot describes one screenshot. With a zero Element the page is captured,
// either the whole scrollable page (FullPage) or just the viewport.
type Shot struct {
	Path     string
	FullPage bool
	Element  Locator
}

// Step is one action of a scenario. Only the fields relevant to Action are used.
type Step struct {
	Action Action

	// Note is printed before the step runs.
	Note string

	// navigate
	Path      string
	WaitUntil WaitUntil

	// wait_visible, fill, press, click
	Target  Locator
	Value   string
	Timeout time.Duration

	// settle: upper bound on how long to wait for the page to go quiet
	Duration time.Duration

	// screenshot
	Shot Shot
}

// WithNote returns a copy of the step that prints note before running.
func (s Step) WithNote(note string) Step {
	s.Note = note
	return s
}

// WithTimeout returns a copy of the step with a bounded wait.
func (s Step) WithTimeout(d time.Duration) Step {
	s.Timeout = d
	return s
}

func (s Step) String() string {
	switch s.Action {
	case ActionNavigate:
		return fmt.Sprintf("navigate %s (%s)", s.Path, s.waitUntil())
	case ActionWaitVisible:
		return fmt.Sprintf("wait for %s", s.Target)
	case ActionFill:
		return fmt.Sprintf("fill %s with %q", s.Target, s.Value)
	case ActionPress:
		return fmt.Sprintf("press %s on %s", s.Value, s.Target)
	case ActionClick:
		return fmt.Sprintf("click %s", s.Target)
	case ActionSettle:
		return fmt.Sprintf("settle up to %s", s.Duration)
	case ActionScreenshot:
		return fmt.Sprintf("screenshot %s", s.Shot.Path)
	default:
		return string(s.Action)
	}
}

func (s Step) waitUntil() WaitUntil {
	if s.WaitUntil == "" {
		return WaitLoad
	}
	return s.WaitUntil
}

// Scenario is one fixed verification flow.
type Scenario struct {
	Name        string
	Description string

	// BaseURL overrides the configured target server for this scenario.
	BaseURL string

	// Viewport is applied to the page when set; otherwise the browser default is used.
	Viewport *Viewport

	// Mocks are registered on the page before the first navigation.
	Mocks []MockRoute

	Steps []Step

	// SignInMarker ends the scenario early, without error, when the URL after
	// a navigation contains it. SignInScreenshot is captured before stopping.
	SignInMarker     string
	SignInScreenshot string

	// FailureScreenshot receives the page state when a step fails. When empty
	// the last declared screenshot path is used.
	FailureScreenshot string

	// WaitForServer checks the target server over plain HTTP before the first step.
	WaitForServer bool
}

// ScreenshotPaths lists every screenshot path the scenario declares, in step order.
func (sc *Scenario) ScreenshotPaths() []string {
	var out []string
	for _, st := range sc.Steps {
		if st.Action == ActionScreenshot {
			out = append(out, st.Shot.Path)
		}
	}
	return out
}

// FailurePath is where the best-effort screenshot goes when a step fails.
func (sc *Scenario) FailurePath() string {
	if sc.FailureScreenshot != "" {
		return sc.FailureScreenshot
	}
	paths := sc.ScreenshotPaths()
	if len(paths) == 0 {
		return ""
	}
	return paths[len(paths)-1]
}

// Validate checks that the scenario is runnable.
func (sc *Scenario) Validate() error {
	var errs []error
	if strings.TrimSpace(sc.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if len(sc.Steps) == 0 {
		errs = append(errs, errors.New("at least one step is required"))
	}
	if sc.Viewport != nil && (sc.Viewport.Width <= 0 || sc.Viewport.Height <= 0) {
		errs = append(errs, fmt.Errorf("viewport %dx%d must be positive", sc.Viewport.Width, sc.Viewport.Height))
	}
	if sc.SignInMarker != "" && sc.SignInScreenshot == "" {
		errs = append(errs, errors.New("sign-in marker set without a sign-in screenshot path"))
	}
	for i, m := range sc.Mocks {
		if err := m.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("mock %d: %w", i, err))
		}
	}
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			errs = append(errs, fmt.Errorf("step %d (%s): %w", i, st.Action, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	return nil
}

func (s Step) validate() error {
	switch s.Action {
	case ActionNavigate:
		if s.WaitUntil != "" && s.WaitUntil != WaitLoad && s.WaitUntil != WaitNetworkIdle {
			return fmt.Errorf("unknown wait condition %q", s.WaitUntil)
		}
	case ActionWaitVisible, ActionClick:
		if s.Target.IsZero() {
			return errors.New("target locator is required")
		}
	case ActionFill:
		if s.Target.IsZero() {
			return errors.New("target locator is required")
		}
	case ActionPress:
		if s.Target.IsZero() || s.Value == "" {
			return errors.New("target locator and key are required")
		}
	case ActionSettle:
		if s.Duration <= 0 {
			return errors.New("duration must be positive")
		}
	case ActionScreenshot:
		if strings.TrimSpace(s.Shot.Path) == "" {
			return errors.New("screenshot path is required")
		}
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
	if s.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// ─── Step constructors ─────────────────────────────────────────────────

func Navigate(path string, wait WaitUntil) Step {
	return Step{Action: ActionNavigate, Path: path, WaitUntil: wait}
}

func WaitVisible(target Locator) Step {
	return Step{Action: ActionWaitVisible, Target: target}
}

func Fill(target Locator, text string) Step {
	return Step{Action: ActionFill, Target: target, Value: text}
}

// Press sends a named key ("Enter", "Tab", "Escape") to the target.
func Press(target Locator, key string) Step {
	return Step{Action: ActionPress, Target: target, Value: key}
}

func Click(target Locator) Step {
	return Step{Action: ActionClick, Target: target}
}

// Settle waits for network activity to stop, for at most d.
func Settle(d time.Duration) Step {
	return Step{Action: ActionSettle, Duration: d}
}

func PageShot(path string, fullPage bool) Step {
	return Step{Action: ActionScreenshot, Shot: Shot{Path: path, FullPage: fullPage}}
}

func ElementShot(path string, target Locator) Step {
	return Step{Action: ActionScreenshot, Shot: Shot{Path: path, Element: target}}
}
