// Package runner executes verification scenarios against a target server
// with one browser session and one page per run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raysh454/pagecheck/internal/artifact"
	"github.com/raysh454/pagecheck/internal/browser"
	"github.com/raysh454/pagecheck/internal/config"
	"github.com/raysh454/pagecheck/internal/logging"
	"github.com/raysh454/pagecheck/internal/scenario"
	"github.com/raysh454/pagecheck/internal/utils"
	"github.com/raysh454/pagecheck/internal/webclient"
)

// ErrStepPanic wraps a panic recovered while a scenario step was running.
var ErrStepPanic = errors.New("step panicked")

// Override adjusts one named scenario.
type Override struct {
	BaseURL string
	// Timeout bounds the whole run, setup included; zero means unbounded.
	Timeout time.Duration
}

// Options configures a Runner.
type Options struct {
	BaseURL   string
	OutputDir string
	Launch    browser.LaunchOptions

	IdleWindow        time.Duration
	ElementTimeout    time.Duration
	NavigationTimeout time.Duration
	ScreenshotTimeout time.Duration
	ReadyTimeout      time.Duration

	// FixedDelays makes settle steps sleep for their whole duration.
	FixedDelays bool

	// Overrides are keyed by scenario name, matched case-insensitively.
	Overrides map[string]Override

	// Progress receives the human-readable progress lines; nil means stdout.
	Progress io.Writer
}

// OptionsFromConfig maps a validated Config onto runner Options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		BaseURL:   cfg.BaseURL,
		OutputDir: cfg.OutputDir,
		Launch: browser.LaunchOptions{
			Headless:     cfg.Browser.Headless,
			ExecPath:     cfg.Browser.ExecPath,
			NoSandbox:    cfg.Browser.NoSandbox,
			UserAgent:    cfg.Browser.UserAgent,
			WindowWidth:  cfg.Browser.Width,
			WindowHeight: cfg.Browser.Height,
		},
		IdleWindow:        cfg.Timeouts.IdleWindow,
		ElementTimeout:    cfg.Timeouts.Element,
		NavigationTimeout: cfg.Timeouts.Navigation,
		ScreenshotTimeout: cfg.Timeouts.Screenshot,
		ReadyTimeout:      cfg.Timeouts.Ready,
		FixedDelays:       cfg.FixedDelays,
	}
	if len(cfg.Scenarios) > 0 {
		opts.Overrides = make(map[string]Override, len(cfg.Scenarios))
		for name, sc := range cfg.Scenarios {
			opts.Overrides[name] = Override{BaseURL: sc.BaseURL, Timeout: sc.Timeout}
		}
	}
	return opts
}

func (o *Options) setDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = "http://localhost:3000"
	}
	if o.ElementTimeout <= 0 {
		o.ElementTimeout = 30 * time.Second
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 30 * time.Second
	}
	if o.ScreenshotTimeout <= 0 {
		o.ScreenshotTimeout = 30 * time.Second
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = 30 * time.Second
	}
	if o.Progress == nil {
		o.Progress = os.Stdout
	}
}

// Runner executes scenarios one at a time.
type Runner struct {
	driver browser.Driver
	probe  webclient.WebClient
	writer *artifact.Writer
	opts   Options
	logger logging.Logger
}

// New creates a Runner. probe is used for scenarios that wait for the server
// and may be nil when none do.
func New(driver browser.Driver, probe webclient.WebClient, opts Options, logger logging.Logger) (*Runner, error) {
	if driver == nil {
		return nil, errors.New("runner: nil driver")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	opts.setDefaults()
	base, err := utils.NormalizeBaseURL(opts.BaseURL, utils.BaseURLOptions{DefaultScheme: "http"})
	if err != nil {
		return nil, fmt.Errorf("runner: base url: %w", err)
	}
	opts.BaseURL = base
	if len(opts.Overrides) > 0 {
		overrides := make(map[string]Override, len(opts.Overrides))
		for name, ov := range opts.Overrides {
			overrides[strings.ToLower(name)] = ov
		}
		opts.Overrides = overrides
	}

	return &Runner{
		driver: driver,
		probe:  probe,
		writer: artifact.NewWriter(opts.OutputDir),
		opts:   opts,
		logger: logger.With(logging.Field{Key: "component", Value: "runner"}),
	}, nil
}

// RunAll runs the scenarios in order, each in its own browser session. It
// stops at the first error that escapes a run's recovery boundary and
// returns the results gathered so far.
func (r *Runner) RunAll(ctx context.Context, scenarios []*scenario.Scenario) ([]*Result, error) {
	results := make([]*Result, 0, len(scenarios))
	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := r.Run(ctx, sc)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Run executes one scenario. Failures to launch the browser, open the page
// or register mocks are returned as the error. Anything that goes wrong
// afterwards is caught, recorded in Result.Err and answered with a
// best-effort failure screenshot.
func (r *Runner) Run(ctx context.Context, sc *scenario.Scenario) (*Result, error) {
	if sc == nil {
		return nil, errors.New("runner: nil scenario")
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	override := r.override(sc.Name)
	if override.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, override.Timeout)
		defer cancel()
	}
	base, err := r.baseURL(sc, override)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     uuid.NewString(),
		Scenario:  sc.Name,
		StartedAt: time.Now(),
	}
	logger := r.logger.With(
		logging.Field{Key: "run_id", Value: res.RunID},
		logging.Field{Key: "scenario", Value: sc.Name})
	logger.Info("starting scenario",
		logging.Field{Key: "driver", Value: r.driver.Name()},
		logging.Field{Key: "base_url", Value: base})

	session, err := r.driver.Launch(ctx, r.opts.Launch)
	if err != nil {
		return nil, fmt.Errorf("launch %s browser: %w", r.driver.Name(), err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close browser", logging.Field{Key: "error", Value: err.Error()})
		}
	}()

	page, err := session.NewPage(ctx, browser.PageOptions{Viewport: sc.Viewport, IdleWindow: r.opts.IdleWindow})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if len(sc.Mocks) > 0 {
		if err := page.Route(ctx, sc.Mocks); err != nil {
			return nil, fmt.Errorf("register mocks: %w", err)
		}
		logger.Debug("mocks registered", logging.Field{Key: "count", Value: len(sc.Mocks)})
	}

	ex := &execution{r: r, sc: sc, page: page, base: base, res: res, logger: logger}
	err = ex.run(ctx)
	ex.recordFinalURL(ctx)
	if err != nil {
		res.Err = err
		r.printf("Error: %v\n", err)
		logger.Error("scenario failed", logging.Field{Key: "error", Value: err.Error()})
		ex.captureFailure(ctx)
	}

	res.Console = page.Console()
	for _, m := range res.Console {
		r.printf("Console %s\n", m)
	}

	res.FinishedAt = time.Now()
	logger.Info("scenario finished",
		logging.Field{Key: "ok", Value: res.OK()},
		logging.Field{Key: "sign_in", Value: res.SignInHit},
		logging.Field{Key: "screenshots", Value: len(res.Screenshots)},
		logging.Field{Key: "elapsed", Value: res.Duration().Round(time.Millisecond).String()})
	return res, nil
}

// override returns the per-scenario settings for name. Names match
// case-insensitively.
func (r *Runner) override(name string) Override {
	return r.opts.Overrides[strings.ToLower(name)]
}

func (r *Runner) baseURL(sc *scenario.Scenario, ov Override) (string, error) {
	raw := r.opts.BaseURL
	switch {
	case ov.BaseURL != "":
		raw = ov.BaseURL
	case sc.BaseURL != "":
		raw = sc.BaseURL
	default:
		return raw, nil
	}
	base, err := utils.NormalizeBaseURL(raw, utils.BaseURLOptions{DefaultScheme: "http"})
	if err != nil {
		return "", fmt.Errorf("scenario %q base url: %w", sc.Name, err)
	}
	return base, nil
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.opts.Progress, format, args...)
}
