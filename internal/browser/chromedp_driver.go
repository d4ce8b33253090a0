package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/raysh454/pagecheck/internal/logging"
	"github.com/raysh454/pagecheck/internal/scenario"
)

// ChromedpDriver launches Chromium through chromedp's exec allocator.
type ChromedpDriver struct {
	logger logging.Logger
}

func NewChromedpDriver(logger logging.Logger) *ChromedpDriver {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &ChromedpDriver{logger: logger.With(logging.Field{Key: "component", Value: "chromedp"})}
}

func (d *ChromedpDriver) Name() string { return "chromedp" }

func (d *ChromedpDriver) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), AllocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			d.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	// the first Run starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	d.logger.Debug("browser launched", logging.Field{Key: "headless", Value: opts.Headless})

	return &chromedpSession{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		logger:      d.logger,
	}, nil
}

type chromedpSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      logging.Logger

	closeOnce sync.Once
	closeErr  error
}

func (s *chromedpSession) NewPage(ctx context.Context, opts PageOptions) (Page, error) {
	pctx, cancel := chromedp.NewContext(s.ctx)
	p := &chromedpPage{
		ctx:    pctx,
		cancel: cancel,
		idle:   newIdleTracker(),
		window: opts.idleWindow(),
		logger: s.logger,
	}
	chromedp.ListenTarget(pctx, p.onEvent)

	// the first Run attaches the tab and ties its event loop to the context it
	// is given, so it must be the page context itself
	if err := chromedp.Run(pctx); err != nil {
		cancel()
		return nil, fmt.Errorf("open page: %w", err)
	}
	if opts.Viewport != nil {
		err := p.run(ctx, chromedp.EmulateViewport(int64(opts.Viewport.Width), int64(opts.Viewport.Height)))
		if err != nil {
			cancel()
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}
	return p, nil
}

func (s *chromedpSession) Close() error {
	s.closeOnce.Do(func() {
		if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = fmt.Errorf("close browser: %w", err)
		}
		s.cancel()
		s.allocCancel()
	})
	return s.closeErr
}

type chromedpPage struct {
	ctx    context.Context
	cancel context.CancelFunc
	idle   *idleTracker
	window time.Duration
	logger logging.Logger

	console consoleBuffer

	mocks scenario.MockSet

	closeOnce sync.Once
}

// run executes actions on the page target, bounded by the caller's context.
func (p *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	rctx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if dl, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		rctx, cancelDeadline = context.WithDeadline(rctx, dl)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(rctx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *chromedpPage) onEvent(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		p.idle.started(string(e.RequestID))
	case *network.EventLoadingFinished:
		p.idle.finished(string(e.RequestID))
	case *network.EventLoadingFailed:
		p.idle.finished(string(e.RequestID))
	case *runtime.EventConsoleAPICalled:
		p.console.add(string(e.Type), consoleArgsText(e.Args))
	case *runtime.EventExceptionThrown:
		p.console.add("exception", exceptionText(e.ExceptionDetails))
	case *fetch.EventRequestPaused:
		// listeners must not block the event loop
		go p.fulfill(e)
	}
}

func (p *chromedpPage) fulfill(ev *fetch.EventRequestPaused) {
	c := chromedp.FromContext(p.ctx)
	if c == nil || c.Target == nil {
		return
	}
	ctx := cdp.WithExecutor(p.ctx, c.Target)

	reqURL := ""
	if ev.Request != nil {
		reqURL = ev.Request.URL
	}

	m, ok := p.mocks.Match(reqURL)
	if !ok {
		if err := fetch.ContinueRequest(ev.RequestID).Do(ctx); err != nil {
			p.logger.Debug("continue request failed", logging.Field{Key: "url", Value: reqURL}, logging.Field{Key: "error", Value: err})
		}
		return
	}

	var headers []*fetch.HeaderEntry
	if m.ContentType != "" {
		headers = append(headers, &fetch.HeaderEntry{Name: "Content-Type", Value: m.ContentType})
	}
	err := fetch.FulfillRequest(ev.RequestID, int64(m.StatusCode())).
		WithResponseHeaders(headers).
		WithBody(base64.StdEncoding.EncodeToString([]byte(m.Body))).
		Do(ctx)
	if err != nil {
		p.logger.Warn("mock fulfill failed", logging.Field{Key: "url", Value: reqURL}, logging.Field{Key: "error", Value: err})
		return
	}
	p.logger.Debug("request mocked", logging.Field{Key: "url", Value: reqURL}, logging.Field{Key: "pattern", Value: m.Pattern})
}

func (p *chromedpPage) Route(ctx context.Context, mocks []scenario.MockRoute) error {
	if len(mocks) == 0 {
		return nil
	}
	if err := p.mocks.Add(mocks...); err != nil {
		return err
	}
	all := p.mocks.Routes()

	patterns := make([]*fetch.RequestPattern, 0, len(all))
	for _, m := range all {
		patterns = append(patterns, &fetch.RequestPattern{
			URLPattern:   m.InterceptPattern(),
			RequestStage: fetch.RequestStageRequest,
		})
	}
	if err := p.run(ctx, fetch.Enable().WithPatterns(patterns)); err != nil {
		return fmt.Errorf("enable request interception: %w", err)
	}
	return nil
}

func (p *chromedpPage) Navigate(ctx context.Context, url string, wait scenario.WaitUntil) error {
	p.idle.reset()
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return navigationErr(url, err)
	}
	if wait == scenario.WaitNetworkIdle {
		if _, err := p.idle.wait(ctx, p.window, 0); err != nil {
			return navigationErr(url, fmt.Errorf("waiting for network idle: %w", err))
		}
	}
	return nil
}

func (p *chromedpPage) URL(ctx context.Context) (string, error) {
	var u string
	if err := p.run(ctx, chromedp.Location(&u)); err != nil {
		return "", err
	}
	return u, nil
}

func chromedpQuery(loc scenario.Locator) (string, chromedp.QueryOption) {
	q, syntax := loc.Query()
	if syntax == scenario.SyntaxXPath {
		return q, chromedp.BySearch
	}
	return q, chromedp.ByQuery
}

func (p *chromedpPage) WaitVisible(ctx context.Context, loc scenario.Locator) error {
	q, by := chromedpQuery(loc)
	return elementErr(loc, p.run(ctx, chromedp.WaitVisible(q, by)))
}

func (p *chromedpPage) Fill(ctx context.Context, loc scenario.Locator, text string) error {
	q, by := chromedpQuery(loc)
	return elementErr(loc, p.run(ctx,
		chromedp.WaitVisible(q, by),
		chromedp.Clear(q, by),
		chromedp.SendKeys(q, text, by),
	))
}

var chromedpKeys = map[string]string{
	"Enter":      kb.Enter,
	"Tab":        kb.Tab,
	"Escape":     kb.Escape,
	"Backspace":  kb.Backspace,
	"ArrowUp":    kb.ArrowUp,
	"ArrowDown":  kb.ArrowDown,
	"ArrowLeft":  kb.ArrowLeft,
	"ArrowRight": kb.ArrowRight,
}

func (p *chromedpPage) Press(ctx context.Context, loc scenario.Locator, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	q, by := chromedpQuery(loc)
	return elementErr(loc, p.run(ctx, chromedp.SendKeys(q, chromedpKeys[key], by, chromedp.NodeVisible)))
}

func (p *chromedpPage) Click(ctx context.Context, loc scenario.Locator) error {
	q, by := chromedpQuery(loc)
	return elementErr(loc, p.run(ctx, chromedp.Click(q, by, chromedp.NodeVisible)))
}

func (p *chromedpPage) WaitIdle(ctx context.Context, max time.Duration) error {
	_, err := p.idle.wait(ctx, p.window, max)
	return err
}

func (p *chromedpPage) Screenshot(ctx context.Context, shot scenario.Shot) ([]byte, error) {
	var buf []byte
	switch {
	case !shot.Element.IsZero():
		q, by := chromedpQuery(shot.Element)
		if err := p.run(ctx, chromedp.Screenshot(q, &buf, by)); err != nil {
			return nil, elementErr(shot.Element, err)
		}
	case shot.FullPage:
		// quality 100 selects PNG
		if err := p.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
			return nil, fmt.Errorf("full page screenshot: %w", err)
		}
	default:
		if err := p.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
			return nil, fmt.Errorf("screenshot: %w", err)
		}
	}
	return buf, nil
}

func (p *chromedpPage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (p *chromedpPage) Console() []ConsoleMessage {
	return p.console.snapshot()
}

func (p *chromedpPage) Close() error {
	p.closeOnce.Do(p.cancel)
	return nil
}

// consoleArgsText joins console call arguments the way devtools prints them.
func consoleArgsText(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, remoteObjectText(a))
	}
	return strings.Join(parts, " ")
}

func remoteObjectText(o *runtime.RemoteObject) string {
	if o == nil {
		return ""
	}
	if len(o.Value) > 0 {
		var s string
		if err := json.Unmarshal(o.Value, &s); err == nil {
			return s
		}
		return string(o.Value)
	}
	if o.UnserializableValue != "" {
		return o.UnserializableValue.String()
	}
	if o.Description != "" {
		return o.Description
	}
	return string(o.Type)
}

func exceptionText(d *runtime.ExceptionDetails) string {
	if d == nil {
		return ""
	}
	if d.Exception != nil && d.Exception.Description != "" {
		return d.Exception.Description
	}
	return d.Text
}
