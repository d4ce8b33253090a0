package browser_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raysh454/pagecheck/internal/browser"
	"github.com/raysh454/pagecheck/internal/scenario"
)

// Every backend runs the same page checks against a local fixture server.
// openPage skips the test when the backend cannot start a browser here.

const fixturePage = `<!doctype html>
<html><head><title>Fixture</title></head>
<body>
<h1>Master Your Product Strategy.</h1>
<input placeholder="Type your answer..." />
<button>First</button><button id="send">Send</button>
<pre id="out"></pre>
<script>
console.log("fixture ready", 42);
fetch("/api/chat").then(r => r.text()).then(t => { document.getElementById("out").textContent = t; });
</script>
</body></html>`

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func newFixtureServer(t *testing.T, apiHits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fixturePage))
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(apiHits, 1)
		_, _ = w.Write([]byte("from network"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// openPage launches a headless browser through the named driver or skips.
func openPage(t *testing.T, driver string) browser.Page {
	t.Helper()
	if testing.Short() {
		t.Skipf("Skipping %s browser test in short mode", driver)
	}
	d, err := browser.NewDriver(driver, nil)
	if err != nil {
		t.Fatalf("NewDriver(%s): %v", driver, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sess, err := d.Launch(ctx, browser.LaunchOptions{Headless: true, NoSandbox: true})
	if err != nil {
		t.Skipf("Skipping %s test (environment does not support chromium): %v", driver, err)
	}
	t.Cleanup(func() { _ = sess.Close() })

	page, err := sess.NewPage(ctx, browser.PageOptions{Viewport: &scenario.Viewport{Width: 800, Height: 600}})
	if err != nil {
		t.Skipf("Skipping %s test (cannot open page): %v", driver, err)
	}
	t.Cleanup(func() { _ = page.Close() })
	return page
}

// ─── Shared page checks ─────────────────────────────────────────────────

func checkMockNavigateFillShot(t *testing.T, driver string) {
	var hits int32
	srv := newFixtureServer(t, &hits)
	page := openPage(t, driver)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := page.Route(ctx, []scenario.MockRoute{{Pattern: "**/api/chat", Status: 200, Body: "Chat response mocked"}})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if err := page.Navigate(ctx, srv.URL+"/", scenario.WaitNetworkIdle); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if u, err := page.URL(ctx); err != nil || u != srv.URL+"/" {
		t.Errorf("URL() = %q, %v", u, err)
	}

	if err := page.WaitVisible(ctx, scenario.TagText("h1", "Master Your Product Strategy.")); err != nil {
		t.Fatalf("WaitVisible: %v", err)
	}
	if err := page.WaitVisible(ctx, scenario.Text("Chat response mocked")); err != nil {
		t.Fatalf("mocked body not rendered: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("mocked request reached the server %d times", n)
	}

	if err := page.Fill(ctx, scenario.Placeholder("Type your answer..."), "My Company Name"); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if err := page.Press(ctx, scenario.Placeholder("Type your answer..."), "Enter"); err != nil {
		t.Fatalf("Press: %v", err)
	}
	if err := page.Click(ctx, scenario.LastOf("button")); err != nil {
		t.Fatalf("Click: %v", err)
	}

	html, err := page.HTML(ctx)
	if err != nil || !strings.Contains(html, "<h1>") {
		t.Fatalf("HTML: %v", err)
	}

	buf, err := page.Screenshot(ctx, scenario.Shot{FullPage: true})
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if !bytes.HasPrefix(buf, pngMagic) {
		t.Error("full page screenshot is not a PNG")
	}
	buf, err = page.Screenshot(ctx, scenario.Shot{Element: scenario.CSS("h1")})
	if err != nil || !bytes.HasPrefix(buf, pngMagic) {
		t.Fatalf("element screenshot failed: %v", err)
	}

	found := false
	for _, m := range page.Console() {
		if m.Level == "log" && m.Text == "fixture ready 42" {
			found = true
		}
	}
	if !found {
		t.Errorf("console message not captured: %v", page.Console())
	}
}

func checkWaitVisibleTimesOut(t *testing.T, driver string) {
	var hits int32
	srv := newFixtureServer(t, &hits)
	page := openPage(t, driver)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := page.Navigate(ctx, srv.URL+"/", scenario.WaitLoad); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer waitCancel()
	start := time.Now()
	err := page.WaitVisible(waitCtx, scenario.TagText("h2", "Not there"))
	if !errors.Is(err, browser.ErrElementNotFound) {
		t.Fatalf("expected ErrElementNotFound, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("wait overran its timeout: %s", elapsed)
	}
}

func checkWaitIdleBounded(t *testing.T, driver string) {
	var hits int32
	srv := newFixtureServer(t, &hits)
	page := openPage(t, driver)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := page.Navigate(ctx, srv.URL+"/", scenario.WaitLoad); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	start := time.Now()
	if err := page.WaitIdle(ctx, 3*time.Second); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("idle wait overran its ceiling: %s", elapsed)
	}
	if err := page.WaitVisible(ctx, scenario.Text("from network")); err != nil {
		t.Errorf("page not settled after idle wait: %v", err)
	}
}

func checkNavigateUnreachable(t *testing.T, driver string) {
	page := openPage(t, driver)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := page.Navigate(ctx, "http://127.0.0.1:1/", scenario.WaitLoad)
	if !errors.Is(err, browser.ErrNavigation) {
		t.Fatalf("expected ErrNavigation, got %v", err)
	}
}

func checkPressUnsupportedKey(t *testing.T, driver string) {
	var hits int32
	srv := newFixtureServer(t, &hits)
	page := openPage(t, driver)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := page.Navigate(ctx, srv.URL+"/", scenario.WaitLoad); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	err := page.Press(ctx, scenario.Placeholder("Type your answer..."), "F13")
	if !errors.Is(err, browser.ErrUnsupportedKey) {
		t.Fatalf("expected ErrUnsupportedKey, got %v", err)
	}
}
