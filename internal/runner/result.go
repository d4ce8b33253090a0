package runner

import (
	"fmt"
	"time"

	"github.com/raysh454/pagecheck/internal/browser"
)

// Result is the outcome of one scenario run. Err holds the error caught by
// the run's recovery boundary; it is nil when every step completed or the
// scenario stopped at its sign-in marker.
type Result struct {
	RunID    string
	Scenario string

	// FinalURL is the page URL after the last navigation.
	FinalURL string
	// SignInHit reports that the scenario stopped at its sign-in marker.
	SignInHit bool

	// Screenshots lists the files written, in order, including any
	// failure screenshot.
	Screenshots []string
	// FailureScreenshot is set when a failure screenshot was written.
	FailureScreenshot string

	Console []browser.ConsoleMessage
	Err     error

	StartedAt  time.Time
	FinishedAt time.Time
}

// OK reports whether the run finished without a caught error.
func (r *Result) OK() bool { return r.Err == nil }

func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Result) String() string {
	status := "ok"
	switch {
	case r.Err != nil:
		status = "failed: " + r.Err.Error()
	case r.SignInHit:
		status = "stopped at sign-in"
	}
	return fmt.Sprintf("%s [%s] %s in %s, %d screenshot(s)",
		r.Scenario, r.RunID, status, r.Duration().Round(time.Millisecond), len(r.Screenshots))
}
