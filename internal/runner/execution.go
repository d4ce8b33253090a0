package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/raysh454/pagecheck/internal/browser"
	"github.com/raysh454/pagecheck/internal/logging"
	"github.com/raysh454/pagecheck/internal/scenario"
	"github.com/raysh454/pagecheck/internal/utils"
	"github.com/raysh454/pagecheck/internal/webclient"
)

// execution is the state of one scenario run between page setup and teardown.
type execution struct {
	r      *Runner
	sc     *scenario.Scenario
	page   browser.Page
	base   string
	res    *Result
	logger logging.Logger
}

// run is the recovery boundary: step errors and panics come back as the
// returned error.
func (ex *execution) run(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrStepPanic, p)
		}
	}()

	if ex.sc.WaitForServer {
		if err := ex.waitForServer(ctx); err != nil {
			return err
		}
	}

	for i, st := range ex.sc.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if st.Note != "" {
			ex.r.printf("%s\n", st.Note)
		}
		ex.logger.Debug("running step",
			logging.Field{Key: "index", Value: i + 1},
			logging.Field{Key: "step", Value: st.String()})

		stop, err := ex.step(ctx, st)
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st, err)
		}
		if stop {
			return nil
		}
	}
	return nil
}

func (ex *execution) waitForServer(ctx context.Context) error {
	if ex.r.probe == nil {
		ex.logger.Warn("no readiness probe configured; skipping server wait")
		return nil
	}
	return webclient.WaitReady(ctx, ex.r.probe, ex.base, webclient.ProbeOptions{Timeout: ex.r.opts.ReadyTimeout}, ex.logger)
}

// step runs one step. stop reports that the scenario ended early.
func (ex *execution) step(ctx context.Context, st scenario.Step) (stop bool, err error) {
	switch st.Action {
	case scenario.ActionNavigate:
		return ex.navigate(ctx, st)
	case scenario.ActionWaitVisible:
		return false, ex.withElementTimeout(ctx, st, func(ctx context.Context) error {
			return ex.page.WaitVisible(ctx, st.Target)
		})
	case scenario.ActionFill:
		return false, ex.withElementTimeout(ctx, st, func(ctx context.Context) error {
			return ex.page.Fill(ctx, st.Target, st.Value)
		})
	case scenario.ActionPress:
		return false, ex.withElementTimeout(ctx, st, func(ctx context.Context) error {
			return ex.page.Press(ctx, st.Target, st.Value)
		})
	case scenario.ActionClick:
		return false, ex.withElementTimeout(ctx, st, func(ctx context.Context) error {
			return ex.page.Click(ctx, st.Target)
		})
	case scenario.ActionSettle:
		return false, ex.settle(ctx, st.Duration)
	case scenario.ActionScreenshot:
		return false, ex.capture(ctx, st.Shot)
	default:
		return false, fmt.Errorf("unknown action %q", st.Action)
	}
}

func (ex *execution) withElementTimeout(ctx context.Context, st scenario.Step, fn func(context.Context) error) error {
	timeout := st.Timeout
	if timeout <= 0 {
		timeout = ex.r.opts.ElementTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

func (ex *execution) navigate(ctx context.Context, st scenario.Step) (bool, error) {
	target, err := utils.ResolveURL(ex.base, st.Path)
	if err != nil {
		return false, fmt.Errorf("resolve %q: %w", st.Path, err)
	}

	nctx, cancel := context.WithTimeout(ctx, ex.r.opts.NavigationTimeout)
	err = ex.page.Navigate(nctx, target, st.WaitUntil)
	cancel()
	if err != nil {
		return false, err
	}

	final, err := ex.page.URL(ctx)
	if err != nil {
		return false, fmt.Errorf("read url: %w", err)
	}
	ex.res.FinalURL = final
	ex.r.printf("Current URL: %s\n", final)
	if final != target {
		ex.logger.Info("navigation redirected",
			logging.Field{Key: "requested", Value: target},
			logging.Field{Key: "final", Value: final})
	}
	ex.summarize(ctx)

	if utils.ContainsMarker(final, ex.sc.SignInMarker) {
		ex.r.printf("Redirected to sign-in page.\n")
		ex.res.SignInHit = true
		if err := ex.capture(ctx, scenario.Shot{Path: ex.sc.SignInScreenshot}); err != nil {
			return true, err
		}
		return true, nil
	}
	return false, nil
}

// recordFinalURL reads the page URL once the steps are over, so redirects
// that land while the page settles are reported. Runs that never navigated
// have nothing to report.
func (ex *execution) recordFinalURL(ctx context.Context) {
	if ex.res.FinalURL == "" {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			ex.logger.Warn("reading final url panicked", logging.Field{Key: "panic", Value: fmt.Sprint(p)})
		}
	}()

	uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ex.r.opts.NavigationTimeout)
	defer cancel()
	final, err := ex.page.URL(uctx)
	if err != nil {
		ex.logger.Warn("final url unavailable", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	if final != ex.res.FinalURL {
		ex.logger.Info("page moved after navigation",
			logging.Field{Key: "from", Value: ex.res.FinalURL},
			logging.Field{Key: "to", Value: final})
	}
	ex.res.FinalURL = final
	ex.r.printf("Final URL: %s\n", final)
}

// summarize prints the page title and first heading. A page that cannot be
// read does not fail the step.
func (ex *execution) summarize(ctx context.Context) {
	html, err := ex.page.HTML(ctx)
	if err != nil {
		ex.logger.Debug("page html unavailable", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	summary, err := Summarize(html)
	if err != nil {
		ex.logger.Debug("page summary failed", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	ex.r.printf("Page: %s\n", summary)
}

func (ex *execution) settle(ctx context.Context, d time.Duration) error {
	if ex.r.opts.FixedDelays {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return ex.page.WaitIdle(ctx, d)
}

func (ex *execution) capture(ctx context.Context, shot scenario.Shot) error {
	sctx, cancel := context.WithTimeout(ctx, ex.r.opts.ScreenshotTimeout)
	defer cancel()

	data, err := ex.page.Screenshot(sctx, shot)
	if err != nil {
		return fmt.Errorf("screenshot %s: %w", shot.Path, err)
	}
	path, err := ex.r.writer.Write(shot.Path, data)
	if err != nil {
		return err
	}
	ex.res.Screenshots = append(ex.res.Screenshots, path)
	ex.r.printf("Screenshot saved to %s\n", path)
	ex.logger.Debug("screenshot written",
		logging.Field{Key: "path", Value: path},
		logging.Field{Key: "bytes", Value: len(data)})
	return nil
}

// captureFailure saves the page as it was when the run failed. It runs on a
// context detached from cancellation so a timed-out run still gets its
// screenshot, and it never panics.
func (ex *execution) captureFailure(ctx context.Context) {
	path := ex.sc.FailurePath()
	if path == "" {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			ex.logger.Warn("failure screenshot panicked", logging.Field{Key: "panic", Value: fmt.Sprint(p)})
		}
	}()

	before := len(ex.res.Screenshots)
	if err := ex.capture(context.WithoutCancel(ctx), scenario.Shot{Path: path}); err != nil {
		ex.logger.Warn("failure screenshot not saved",
			logging.Field{Key: "path", Value: path},
			logging.Field{Key: "error", Value: err.Error()})
		return
	}
	if len(ex.res.Screenshots) > before {
		ex.res.FailureScreenshot = ex.res.Screenshots[len(ex.res.Screenshots)-1]
	}
}
