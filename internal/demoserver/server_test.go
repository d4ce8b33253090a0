package demoserver_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/pagecheck/internal/demoserver"
	"github.com/raysh454/pagecheck/internal/testutil"
)

func newTestServer(t *testing.T, requireAuth bool) *httptest.Server {
	t.Helper()
	cfg := demoserver.DefaultConfig()
	cfg.RequireAuth = requireAuth
	cfg.Logger = &testutil.DummyLogger{}
	ts := httptest.NewServer(demoserver.NewDemoServer(cfg))
	t.Cleanup(ts.Close)
	return ts
}

// noRedirects returns a client that reports redirects instead of following them.
func noRedirects(ts *httptest.Server) *http.Client {
	c := ts.Client()
	c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return c
}

func getDoc(t *testing.T, client *http.Client, rawURL string) *goquery.Document {
	t.Helper()
	resp, err := client.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s: %v", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parse %s: %v", rawURL, err)
	}
	return doc
}

// ─── Pages ─────────────────────────────────────────────────────────────

func TestHome_HeroAndFeatures(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, true)
	doc := getDoc(t, ts.Client(), ts.URL+"/")

	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "Master Your Product Strategy." {
		t.Errorf("unexpected hero heading %q", h1)
	}
	section := doc.Find("section").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), "Strategic Alignment Made Easy")
	})
	if section.Length() != 1 {
		t.Errorf("expected one features section, found %d", section.Length())
	}
	if !strings.Contains(doc.Find("title").Text(), "Home") {
		t.Errorf("unexpected title %q", doc.Find("title").Text())
	}
}

func TestPages_ServedFromDefinitions(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, true)
	client := noRedirects(ts)

	for _, page := range demoserver.GetAllPages() {
		resp, err := client.Get(ts.URL + page.Path)
		if err != nil {
			t.Fatalf("GET %s: %v", page.Path, err)
		}
		if page.Protected {
			resp.Body.Close()
			loc, _ := url.Parse(resp.Header.Get("Location"))
			if resp.StatusCode != http.StatusFound || loc == nil || loc.Path != "/sign-in" {
				t.Errorf("%s: protected page served without a session (%d %q)", page.Path, resp.StatusCode, resp.Header.Get("Location"))
			}
			continue
		}
		doc, err := goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("parse %s: %v", page.Path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status %d", page.Path, resp.StatusCode)
		}
		if got, _ := doc.Find(`meta[name="description"]`).Attr("content"); got != page.Description {
			t.Errorf("%s: meta description %q, want %q", page.Path, got, page.Description)
		}
	}
}

func TestPages_ProtectedServedWithoutAuth(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, false)
	for _, page := range demoserver.GetAllPages() {
		if !page.Protected {
			continue
		}
		doc := getDoc(t, noRedirects(ts), ts.URL+page.Path)
		if !strings.Contains(doc.Find("title").Text(), page.Title) {
			t.Errorf("%s: unexpected title %q", page.Path, doc.Find("title").Text())
		}
	}
}

func TestAdmin_RedirectsToSignIn(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, true)
	resp, err := noRedirects(ts).Get(ts.URL + "/admin")
	if err != nil {
		t.Fatalf("GET /admin: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/sign-in" {
		t.Fatalf("expected 302 to /sign-in, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestDashboard_RequiresSession(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, true)
	resp, err := noRedirects(ts).Get(ts.URL + "/dashboard/assessment")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect, got %d", resp.StatusCode)
	}
	loc, _ := url.Parse(resp.Header.Get("Location"))
	if loc.Path != "/sign-in" || loc.Query().Get("redirect_url") != "/dashboard/assessment" {
		t.Errorf("unexpected redirect target %q", resp.Header.Get("Location"))
	}
}

func TestSignIn_StartsSessionAndReturns(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, true)
	jar, _ := cookiejar.New(nil)
	client := ts.Client()
	client.Jar = jar

	doc := getDoc(t, client, ts.URL+"/sign-in?redirect_url=%2Fdashboard%2Froadmap")
	if v, _ := doc.Find(`input[name="redirect_url"]`).Attr("value"); v != "/dashboard/roadmap" {
		t.Errorf("redirect_url not carried into the form: %q", v)
	}

	resp, err := client.PostForm(ts.URL+"/sign-in", url.Values{"redirect_url": {"/dashboard/roadmap"}})
	if err != nil {
		t.Fatalf("POST /sign-in: %v", err)
	}
	defer resp.Body.Close()
	if resp.Request.URL.Path != "/dashboard/roadmap" || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected to land on the roadmap, got %s (%d)", resp.Request.URL, resp.StatusCode)
	}
}

func TestSignIn_RejectsOffsiteRedirect(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, true)
	resp, err := noRedirects(ts).PostForm(ts.URL+"/sign-in", url.Values{"redirect_url": {"//evil.example/x"}})
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if loc := resp.Header.Get("Location"); loc != "/dashboard/assessment" {
		t.Errorf("offsite redirect must be dropped, got %q", loc)
	}
}

func TestAssessmentPage_ChatControls(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, false)
	doc := getDoc(t, ts.Client(), ts.URL+"/dashboard/assessment")

	if doc.Find(`input[placeholder="Type your answer..."]`).Length() != 1 {
		t.Error("answer input missing")
	}
	if last := strings.TrimSpace(doc.Find("button").Last().Text()); last != "Send" {
		t.Errorf("last button should send the answer, got %q", last)
	}
}

func TestRoadmapPage_ModalControls(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, false)
	doc := getDoc(t, ts.Client(), ts.URL+"/dashboard/roadmap")

	if h1 := strings.TrimSpace(doc.Find("h1").Text()); h1 != "Feature Roadmap" {
		t.Errorf("unexpected heading %q", h1)
	}
	for _, sel := range []string{
		`input[placeholder='e.g. Dark Mode']`,
		`textarea[placeholder='Describe the feature...']`,
		`input[placeholder='Type and press Enter to add tags']`,
	} {
		if doc.Find(sel).Length() != 1 {
			t.Errorf("missing %s", sel)
		}
	}
	var labels []string
	doc.Find("button").Each(func(_ int, s *goquery.Selection) {
		labels = append(labels, strings.TrimSpace(s.Text()))
	})
	joined := strings.Join(labels, "|")
	if !strings.Contains(joined, "Add Feature") || !strings.Contains(joined, "Create Feature") {
		t.Errorf("unexpected buttons %v", labels)
	}
	if !strings.Contains(doc.Find(".modal h2").Text(), "Add New Feature") {
		t.Error("modal heading missing")
	}
}

// ─── API ───────────────────────────────────────────────────────────────

func TestAPI_AssessmentAndChat(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, true)
	client := ts.Client()

	var st demoserver.AssessmentState
	resp, err := client.Get(ts.URL + "/api/assessment")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = json.NewDecoder(resp.Body).Decode(&st)
	resp.Body.Close()
	if st.CurrentQuestionIndex != 0 || st.Question == "" {
		t.Fatalf("unexpected initial state %+v", st)
	}

	resp, err = client.Post(ts.URL+"/api/chat", "application/json", strings.NewReader(`{"message":"My Company Name"}`))
	if err != nil {
		t.Fatalf("POST chat: %v", err)
	}
	reply, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.HasPrefix(string(reply), "Thanks! Who is your primary customer?") {
		t.Errorf("unexpected chat reply %q", reply)
	}

	resp, _ = client.Get(ts.URL + "/api/assessment")
	_ = json.NewDecoder(resp.Body).Decode(&st)
	resp.Body.Close()
	if st.CurrentQuestionIndex != 1 || st.Answers["q1"] != "My Company Name" {
		t.Errorf("answer not recorded: %+v", st)
	}
}

func TestAPI_ChatRejectsEmpty(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, true)
	resp, err := ts.Client().Post(ts.URL+"/api/chat", "application/json", strings.NewReader(`{"message":"  "}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAPI_RoadmapCreateAndList(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, true)
	client := ts.Client()

	resp, err := client.Post(ts.URL+"/api/roadmap", "application/json",
		strings.NewReader(`{"title":"Test Feature","description":"This is a test feature description.","tags":["Frontend"]}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	resp, err = client.Get(ts.URL + "/api/roadmap")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var features []demoserver.Feature
	if err := json.NewDecoder(resp.Body).Decode(&features); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(features) != 1 || features[0].Title != "Test Feature" || len(features[0].Tags) != 1 || features[0].Tags[0] != "Frontend" {
		t.Errorf("unexpected features %+v", features)
	}
}

func TestAPI_RoadmapRequiresTitle(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, true)
	resp, err := ts.Client().Post(ts.URL+"/api/roadmap", "application/json", strings.NewReader(`{"title":""}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}
