// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without a browser or network.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/pagecheck/internal/browser"
	"github.com/raysh454/pagecheck/internal/logging"
	"github.com/raysh454/pagecheck/internal/scenario"
	"github.com/raysh454/pagecheck/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ErrorCount returns how many errors were logged so far.
func (l *DummyLogger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Errors)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// By default it answers every check with status 200.
// Set FailURLs[url] = true to force an error for a specific URL, or Status to
// answer with another code.
type DummyWebClient struct {
	ResponseDelay time.Duration
	FailURLs      map[string]bool
	Status        int
	mu            sync.Mutex
	URLs          []string
}

func (d *DummyWebClient) Check(ctx context.Context, url string) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.URLs = append(d.URLs, url)
	d.mu.Unlock()

	if d.FailURLs != nil && d.FailURLs[url] {
		return nil, &errString{"dummy check fail for " + url}
	}

	status := d.Status
	if status == 0 {
		status = http.StatusOK
	}
	return &webclient.Response{URL: url, StatusCode: status}, nil
}

func (d *DummyWebClient) Close() error { return nil }

// CheckedURLs returns a copy of the URLs checked so far.
func (d *DummyWebClient) CheckedURLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.URLs...)
}

// ─── Browser ───────────────────────────────────────────────────────────

// FakeDriver implements browser.Driver and hands out FakeSessions.
// Each Launch returns a fresh session whose page is built by NewPage, or a
// default FakePage when NewPage is nil.
type FakeDriver struct {
	LaunchErr error
	NewPage   func() *FakePage

	mu       sync.Mutex
	Sessions []*FakeSession
}

func (d *FakeDriver) Name() string { return "fake" }

func (d *FakeDriver) Launch(ctx context.Context, _ browser.LaunchOptions) (browser.Session, error) {
	if d.LaunchErr != nil {
		return nil, d.LaunchErr
	}
	page := &FakePage{}
	if d.NewPage != nil {
		page = d.NewPage()
	}
	s := &FakeSession{Page: page}
	d.mu.Lock()
	d.Sessions = append(d.Sessions, s)
	d.mu.Unlock()
	return s, nil
}

// LastSession returns the most recently launched session, or nil.
func (d *FakeDriver) LastSession() *FakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Sessions) == 0 {
		return nil
	}
	return d.Sessions[len(d.Sessions)-1]
}

// FakeSession implements browser.Session with a single FakePage.
type FakeSession struct {
	Page       *FakePage
	NewPageErr error

	mu       sync.Mutex
	PageOpts []browser.PageOptions
	closed   bool
}

func (s *FakeSession) NewPage(_ context.Context, opts browser.PageOptions) (browser.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PageOpts = append(s.PageOpts, opts)
	if s.NewPageErr != nil {
		return nil, s.NewPageErr
	}
	return s.Page, nil
}

func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FakeSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// FakePage implements browser.Page by recording every call.
//
// Navigate sets the current URL to Redirects[url] when present, else to url.
// WaitIdle moves the current URL to SettleTo when it is set, which stands in
// for a client-side redirect that lands while the page settles.
// Errs[action] makes that action fail; Panics[action] makes it panic. The
// action names are the scenario.Action values plus "route", "url" and "html".
type FakePage struct {
	Redirects   map[string]string
	SettleTo    string
	Errs        map[string]error
	Panics      map[string]string
	Body        string
	PNG         []byte
	ConsoleMsgs []browser.ConsoleMessage

	mu      sync.Mutex
	current string
	Calls   []string
	Mocks   []scenario.MockRoute
	Shots   []scenario.Shot
	Idle    []time.Duration
	closed  bool
}

func (p *FakePage) record(action scenario.Action, detail string) error {
	p.mu.Lock()
	p.Calls = append(p.Calls, strings.TrimSpace(string(action)+" "+detail))
	msg, panics := p.Panics[string(action)]
	err := p.Errs[string(action)]
	p.mu.Unlock()
	if panics {
		panic(msg)
	}
	return err
}

func (p *FakePage) Route(_ context.Context, mocks []scenario.MockRoute) error {
	if err := p.record("route", fmt.Sprint(len(mocks))); err != nil {
		return err
	}
	p.mu.Lock()
	p.Mocks = append(p.Mocks, mocks...)
	p.mu.Unlock()
	return nil
}

func (p *FakePage) Navigate(ctx context.Context, url string, wait scenario.WaitUntil) error {
	if err := p.record(scenario.ActionNavigate, url); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = url
	if to, ok := p.Redirects[url]; ok {
		p.current = to
	}
	return nil
}

func (p *FakePage) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.Errs["url"]; err != nil {
		return "", err
	}
	return p.current, nil
}

func (p *FakePage) WaitVisible(ctx context.Context, loc scenario.Locator) error {
	return p.record(scenario.ActionWaitVisible, loc.String())
}

func (p *FakePage) Fill(_ context.Context, loc scenario.Locator, text string) error {
	return p.record(scenario.ActionFill, loc.String()+"="+text)
}

func (p *FakePage) Press(_ context.Context, loc scenario.Locator, key string) error {
	return p.record(scenario.ActionPress, loc.String()+" "+key)
}

func (p *FakePage) Click(_ context.Context, loc scenario.Locator) error {
	return p.record(scenario.ActionClick, loc.String())
}

func (p *FakePage) WaitIdle(_ context.Context, max time.Duration) error {
	if err := p.record(scenario.ActionSettle, max.String()); err != nil {
		return err
	}
	p.mu.Lock()
	p.Idle = append(p.Idle, max)
	if p.SettleTo != "" {
		p.current = p.SettleTo
	}
	p.mu.Unlock()
	return nil
}

func (p *FakePage) Screenshot(_ context.Context, shot scenario.Shot) ([]byte, error) {
	if err := p.record(scenario.ActionScreenshot, shot.Path); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Shots = append(p.Shots, shot)
	if p.PNG != nil {
		return p.PNG, nil
	}
	return []byte("png:" + shot.Path), nil
}

func (p *FakePage) HTML(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.Errs["html"]; err != nil {
		return "", err
	}
	return p.Body, nil
}

func (p *FakePage) Console() []browser.ConsoleMessage {
	return append([]browser.ConsoleMessage(nil), p.ConsoleMsgs...)
}

func (p *FakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *FakePage) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// CallLog returns a copy of the recorded calls.
func (p *FakePage) CallLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Calls...)
}

// ─── helpers ───────────────────────────────────────────────────────────

type errString struct{ s string }

func (e *errString) Error() string { return e.s }
