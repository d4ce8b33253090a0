package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/raysh454/pagecheck/internal/logging"
	"github.com/raysh454/pagecheck/internal/scenario"
)

// RodDriver launches Chromium through rod's launcher.
type RodDriver struct {
	logger logging.Logger
}

func NewRodDriver(logger logging.Logger) *RodDriver {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &RodDriver{logger: logger.With(logging.Field{Key: "component", Value: "rod"})}
}

func (d *RodDriver) Name() string { return "rod" }

func (d *RodDriver) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	l := launcher.New().Context(ctx).Headless(opts.Headless)
	if opts.ExecPath != "" {
		l = l.Bin(opts.ExecPath)
	}
	if opts.NoSandbox {
		l = l.NoSandbox(true)
	}
	if opts.UserAgent != "" {
		l = l.Set("user-agent", opts.UserAgent)
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight))
	}

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect to chromium: %w", err)
	}
	d.logger.Debug("browser launched", logging.Field{Key: "control_url", Value: controlURL})

	return &rodSession{browser: b, launcher: l, logger: d.logger}, nil
}

type rodSession struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	logger   logging.Logger

	closeOnce sync.Once
	closeErr  error
}

func (s *rodSession) NewPage(ctx context.Context, opts PageOptions) (Page, error) {
	page, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	// detach from the launch context; calls rebind per operation
	page = page.Context(context.Background())

	if opts.Viewport != nil {
		err := page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Viewport.Width,
			Height:            opts.Viewport.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			_ = page.Close()
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}

	evCtx, cancel := context.WithCancel(context.Background())
	p := &rodPage{page: page, window: opts.idleWindow(), logger: s.logger, stopEvents: cancel}

	go page.Context(evCtx).EachEvent(func(e *proto.RuntimeConsoleAPICalled) {
		p.console.add(string(e.Type), rodConsoleText(e.Args))
	}, func(e *proto.RuntimeExceptionThrown) {
		p.console.add("exception", rodExceptionText(e.ExceptionDetails))
	})()

	return p, nil
}

func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		if err := s.browser.Close(); err != nil {
			s.closeErr = fmt.Errorf("close browser: %w", err)
		}
		s.launcher.Kill()
		s.launcher.Cleanup()
	})
	return s.closeErr
}

type rodPage struct {
	page   *rod.Page
	window time.Duration
	logger logging.Logger

	console    consoleBuffer
	stopEvents context.CancelFunc

	mu     sync.Mutex
	mocks  scenario.MockSet
	router *rod.HijackRouter

	closeOnce sync.Once
}

func (p *rodPage) Route(ctx context.Context, mocks []scenario.MockRoute) error {
	if len(mocks) == 0 {
		return nil
	}
	if err := p.mocks.Add(mocks...); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.router != nil {
		return nil
	}

	router := p.page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		u := h.Request.URL().String()

		m, ok := p.mocks.Match(u)
		if !ok {
			h.ContinueRequest(&proto.FetchContinueRequest{})
			return
		}

		h.Response.Payload().ResponseCode = m.StatusCode()
		if m.ContentType != "" {
			h.Response.SetHeader("Content-Type", m.ContentType)
		}
		h.Response.SetBody(m.Body)
		p.logger.Debug("request mocked", logging.Field{Key: "url", Value: u}, logging.Field{Key: "pattern", Value: m.Pattern})
	})
	if err != nil {
		_ = router.Stop()
		return fmt.Errorf("enable request interception: %w", err)
	}
	go router.Run()
	p.router = router
	return nil
}

func (p *rodPage) Navigate(ctx context.Context, url string, wait scenario.WaitUntil) error {
	pg := p.page.Context(ctx)

	var waitIdle func()
	if wait == scenario.WaitNetworkIdle {
		waitIdle = pg.WaitRequestIdle(p.window, nil, nil, nil)
	}

	if err := pg.Navigate(url); err != nil {
		return navigationErr(url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return navigationErr(url, err)
	}
	if waitIdle != nil {
		waitIdle()
		if err := ctx.Err(); err != nil {
			return navigationErr(url, fmt.Errorf("waiting for network idle: %w", err))
		}
	}
	return nil
}

func (p *rodPage) URL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (p *rodPage) element(ctx context.Context, loc scenario.Locator) (*rod.Element, error) {
	pg := p.page.Context(ctx)
	q, syntax := loc.Query()
	var (
		el  *rod.Element
		err error
	)
	if syntax == scenario.SyntaxXPath {
		el, err = pg.ElementX(q)
	} else {
		el, err = pg.Element(q)
	}
	if err != nil {
		return nil, elementErr(loc, err)
	}
	if err := el.WaitVisible(); err != nil {
		return nil, elementErr(loc, err)
	}
	return el, nil
}

func (p *rodPage) WaitVisible(ctx context.Context, loc scenario.Locator) error {
	_, err := p.element(ctx, loc)
	return err
}

func (p *rodPage) Fill(ctx context.Context, loc scenario.Locator, text string) error {
	el, err := p.element(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return elementErr(loc, err)
	}
	return elementErr(loc, el.Input(text))
}

var rodKeys = map[string]input.Key{
	"Enter":      input.Enter,
	"Tab":        input.Tab,
	"Escape":     input.Escape,
	"Backspace":  input.Backspace,
	"ArrowUp":    input.ArrowUp,
	"ArrowDown":  input.ArrowDown,
	"ArrowLeft":  input.ArrowLeft,
	"ArrowRight": input.ArrowRight,
}

func (p *rodPage) Press(ctx context.Context, loc scenario.Locator, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	el, err := p.element(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.Focus(); err != nil {
		return elementErr(loc, err)
	}
	return elementErr(loc, el.Type(rodKeys[key]))
}

func (p *rodPage) Click(ctx context.Context, loc scenario.Locator) error {
	el, err := p.element(ctx, loc)
	if err != nil {
		return err
	}
	return elementErr(loc, el.Click(proto.InputMouseButtonLeft, 1))
}

func (p *rodPage) WaitIdle(ctx context.Context, max time.Duration) error {
	pg := p.page.Context(ctx)
	if max > 0 {
		pg = pg.Timeout(max)
		defer pg.CancelTimeout()
	}
	pg.WaitRequestIdle(p.window, nil, nil, nil)()
	return ctx.Err()
}

func (p *rodPage) Screenshot(ctx context.Context, shot scenario.Shot) ([]byte, error) {
	if !shot.Element.IsZero() {
		el, err := p.element(ctx, shot.Element)
		if err != nil {
			return nil, err
		}
		buf, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
		if err != nil {
			return nil, elementErr(shot.Element, err)
		}
		return buf, nil
	}

	buf, err := p.page.Context(ctx).Screenshot(shot.FullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *rodPage) Console() []ConsoleMessage {
	return p.console.snapshot()
}

func (p *rodPage) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.stopEvents()
		p.mu.Lock()
		if p.router != nil {
			_ = p.router.Stop()
		}
		p.mu.Unlock()
		err = p.page.Close()
	})
	return err
}

func rodConsoleText(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if !a.Value.Nil() {
			parts = append(parts, a.Value.String())
			continue
		}
		if a.Description != "" {
			parts = append(parts, a.Description)
		}
	}
	return strings.Join(parts, " ")
}

func rodExceptionText(d *proto.RuntimeExceptionDetails) string {
	if d == nil {
		return ""
	}
	if d.Exception != nil && d.Exception.Description != "" {
		return d.Exception.Description
	}
	return d.Text
}
