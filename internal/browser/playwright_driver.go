package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/raysh454/pagecheck/internal/logging"
	"github.com/raysh454/pagecheck/internal/scenario"
)

// PlaywrightDriver runs Chromium through the Playwright driver. The driver
// and browsers must already be installed (playwright install chromium).
type PlaywrightDriver struct {
	logger logging.Logger
}

func NewPlaywrightDriver(logger logging.Logger) *PlaywrightDriver {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &PlaywrightDriver{logger: logger.With(logging.Field{Key: "component", Value: "playwright"})}
}

func (d *PlaywrightDriver) Name() string { return "playwright" }

func (d *PlaywrightDriver) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Timeout:  pwTimeout(ctx),
	}
	if opts.ExecPath != "" {
		launch.ExecutablePath = playwright.String(opts.ExecPath)
	}
	if opts.NoSandbox {
		launch.ChromiumSandbox = playwright.Bool(false)
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		launch.Args = append(launch.Args, fmt.Sprintf("--window-size=%d,%d", opts.WindowWidth, opts.WindowHeight))
	}

	b, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	d.logger.Debug("browser launched", logging.Field{Key: "version", Value: b.Version()})

	return &playwrightSession{pw: pw, browser: b, userAgent: opts.UserAgent, logger: d.logger}, nil
}

type playwrightSession struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	userAgent string
	logger    logging.Logger

	closeOnce sync.Once
	closeErr  error
}

func (s *playwrightSession) NewPage(ctx context.Context, opts PageOptions) (Page, error) {
	var ctxOpts playwright.BrowserNewContextOptions
	if opts.Viewport != nil {
		ctxOpts.Viewport = &playwright.Size{Width: opts.Viewport.Width, Height: opts.Viewport.Height}
	}
	if s.userAgent != "" {
		ctxOpts.UserAgent = playwright.String(s.userAgent)
	}

	bctx, err := s.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("open browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	p := &playwrightPage{
		bctx:   bctx,
		page:   page,
		idle:   newIdleTracker(),
		window: opts.idleWindow(),
		logger: s.logger,
	}

	page.OnRequest(func(r playwright.Request) { p.idle.started(fmt.Sprintf("%p", r)) })
	page.OnRequestFinished(func(r playwright.Request) { p.idle.finished(fmt.Sprintf("%p", r)) })
	page.OnRequestFailed(func(r playwright.Request) { p.idle.finished(fmt.Sprintf("%p", r)) })
	page.OnConsole(func(m playwright.ConsoleMessage) { p.console.add(m.Type(), m.Text()) })
	page.OnPageError(func(err error) { p.console.add("exception", err.Error()) })

	return p, nil
}

func (s *playwrightSession) Close() error {
	s.closeOnce.Do(func() {
		if err := s.browser.Close(); err != nil {
			s.closeErr = fmt.Errorf("close browser: %w", err)
		}
		if err := s.pw.Stop(); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("stop playwright: %w", err)
		}
	})
	return s.closeErr
}

type playwrightPage struct {
	bctx   playwright.BrowserContext
	page   playwright.Page
	idle   *idleTracker
	window time.Duration
	logger logging.Logger

	console consoleBuffer

	mu    sync.Mutex
	mocks scenario.MockSet
	route bool

	closeOnce sync.Once
}

// pwTimeout converts the context deadline into a Playwright timeout in
// milliseconds. Nil keeps Playwright's default.
func pwTimeout(ctx context.Context) *float64 {
	dl, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	remaining := time.Until(dl)
	if remaining < time.Millisecond {
		remaining = time.Millisecond
	}
	return playwright.Float(float64(remaining.Milliseconds()))
}

func isPlaywrightTimeout(err error) bool {
	return errors.Is(err, playwright.ErrTimeout)
}

func pwElementErr(loc scenario.Locator, err error) error {
	if err != nil && isPlaywrightTimeout(err) {
		return fmt.Errorf("%w: %s: %v", ErrElementNotFound, loc, err)
	}
	return elementErr(loc, err)
}

func (p *playwrightPage) Route(ctx context.Context, mocks []scenario.MockRoute) error {
	if len(mocks) == 0 {
		return nil
	}
	if err := p.mocks.Add(mocks...); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.route {
		return nil
	}

	err := p.page.Route("**/*", func(route playwright.Route) {
		u := route.Request().URL()

		m, ok := p.mocks.Match(u)
		if !ok {
			if err := route.Continue(); err != nil {
				p.logger.Debug("continue request failed", logging.Field{Key: "url", Value: u}, logging.Field{Key: "error", Value: err})
			}
			return
		}

		opts := playwright.RouteFulfillOptions{
			Status: playwright.Int(m.StatusCode()),
			Body:   m.Body,
		}
		if m.ContentType != "" {
			opts.ContentType = playwright.String(m.ContentType)
		}
		if err := route.Fulfill(opts); err != nil {
			p.logger.Warn("mock fulfill failed", logging.Field{Key: "url", Value: u}, logging.Field{Key: "error", Value: err})
			return
		}
		p.logger.Debug("request mocked", logging.Field{Key: "url", Value: u}, logging.Field{Key: "pattern", Value: m.Pattern})
	})
	if err != nil {
		return fmt.Errorf("enable request interception: %w", err)
	}
	p.route = true
	return nil
}

func (p *playwrightPage) Navigate(ctx context.Context, url string, wait scenario.WaitUntil) error {
	p.idle.reset()
	state := playwright.WaitUntilStateLoad
	if wait == scenario.WaitNetworkIdle {
		state = playwright.WaitUntilStateNetworkidle
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: state,
		Timeout:   pwTimeout(ctx),
	})
	return navigationErr(url, err)
}

func (p *playwrightPage) URL(ctx context.Context) (string, error) {
	return p.page.URL(), nil
}

func (p *playwrightPage) locator(loc scenario.Locator) playwright.Locator {
	q, syntax := loc.Query()
	return p.page.Locator(syntax.String() + "=" + q).First()
}

func (p *playwrightPage) WaitVisible(ctx context.Context, loc scenario.Locator) error {
	err := p.locator(loc).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: pwTimeout(ctx),
	})
	return pwElementErr(loc, err)
}

func (p *playwrightPage) Fill(ctx context.Context, loc scenario.Locator, text string) error {
	err := p.locator(loc).Fill(text, playwright.LocatorFillOptions{Timeout: pwTimeout(ctx)})
	return pwElementErr(loc, err)
}

func (p *playwrightPage) Press(ctx context.Context, loc scenario.Locator, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := p.locator(loc).Press(key, playwright.LocatorPressOptions{Timeout: pwTimeout(ctx)})
	return pwElementErr(loc, err)
}

func (p *playwrightPage) Click(ctx context.Context, loc scenario.Locator) error {
	err := p.locator(loc).Click(playwright.LocatorClickOptions{Timeout: pwTimeout(ctx)})
	return pwElementErr(loc, err)
}

func (p *playwrightPage) WaitIdle(ctx context.Context, max time.Duration) error {
	_, err := p.idle.wait(ctx, p.window, max)
	return err
}

func (p *playwrightPage) Screenshot(ctx context.Context, shot scenario.Shot) ([]byte, error) {
	if !shot.Element.IsZero() {
		buf, err := p.locator(shot.Element).Screenshot(playwright.LocatorScreenshotOptions{
			Type:    playwright.ScreenshotTypePng,
			Timeout: pwTimeout(ctx),
		})
		if err != nil {
			return nil, pwElementErr(shot.Element, err)
		}
		return buf, nil
	}
	buf, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(shot.FullPage),
		Type:     playwright.ScreenshotTypePng,
		Timeout:  pwTimeout(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

func (p *playwrightPage) HTML(ctx context.Context) (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Console() []ConsoleMessage {
	return p.console.snapshot()
}

func (p *playwrightPage) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if cerr := p.page.Close(); cerr != nil {
			err = cerr
		}
		if cerr := p.bctx.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}
