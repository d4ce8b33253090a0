// Package demoserver serves a small imitation of the product-strategy web
// application the built-in scenarios check: a landing page, a sign-in page,
// a chat-style assessment and a feature roadmap, plus the JSON endpoints
// their pages call.
package demoserver

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/raysh454/pagecheck/internal/logging"
)

// assessmentQuestions is the fixed interview the assessment walks through.
var assessmentQuestions = []string{
	"What is the name of your company?",
	"Who is your primary customer?",
	"What is the one outcome you want this quarter?",
}

// Feature is one row of the roadmap table.
type Feature struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}

// AssessmentState is returned by GET /api/assessment.
type AssessmentState struct {
	CurrentQuestionIndex int               `json:"currentQuestionIndex"`
	Question             string            `json:"question,omitempty"`
	Answers              map[string]string `json:"answers"`
}

// DemoServer is the fixture application.
type DemoServer struct {
	cfg       Config
	pages     map[string]PageDefinition
	templates map[string]*template.Template
	router    chi.Router
	logger    logging.Logger

	mu       sync.RWMutex
	answers  []string
	features []Feature
	nextID   int
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config) *DemoServer {
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = DefaultConfig().SessionCookie
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop{}
	}

	pages := GetAllPages()
	pageMap := make(map[string]PageDefinition, len(pages))
	for _, p := range pages {
		pageMap[p.Path] = p
	}

	s := &DemoServer{
		cfg:       cfg,
		pages:     pageMap,
		templates: parsePages(pages),
		router:    chi.NewRouter(),
		logger:    logger.With(logging.Field{Key: "component", Value: "demoserver"}),
		nextID:    1,
	}
	s.routes()
	return s
}

func (s *DemoServer) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	for _, page := range GetAllPages() {
		var h http.Handler = s.pageHandler(page.Path)
		if page.Protected {
			h = s.requireSession(h)
		}
		r.Method(http.MethodGet, page.Path, h)
	}
	r.Post("/sign-in", s.handleSignIn)
	r.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/sign-in", http.StatusFound)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/assessment", s.handleGetAssessment)
		r.Post("/assessment", s.handleAnswer)
		r.Post("/chat", s.handleChat)
		r.Get("/roadmap", s.handleListFeatures)
		r.Post("/roadmap", s.handleCreateFeature)
	})
}

// ServeHTTP implements http.Handler.
func (s *DemoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *DemoServer) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *DemoServer) Start(ctx context.Context) error {
	srv := s.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("demo server listening", logging.Field{Key: "addr", Value: srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// --- middleware ---

func (s *DemoServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http_request",
			logging.Field{Key: "request_id", Value: middleware.GetReqID(r.Context())},
			logging.Field{Key: "method", Value: r.Method},
			logging.Field{Key: "path", Value: r.URL.Path},
			logging.Field{Key: "status", Value: ww.Status()},
			logging.Field{Key: "elapsed", Value: time.Since(start).Round(time.Microsecond).String()})
	})
}

func (s *DemoServer) signedIn(r *http.Request) bool {
	c, err := r.Cookie(s.cfg.SessionCookie)
	return err == nil && c.Value != ""
}

// requireSession sends visitors without a session to the sign-in page,
// remembering where they were going.
func (s *DemoServer) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RequireAuth && !s.signedIn(r) {
			target := "/sign-in?redirect_url=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- pages ---

func (s *DemoServer) pageHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := s.pages[path]
		tmpl := s.templates[path]
		if !ok || tmpl == nil {
			http.NotFound(w, r)
			return
		}
		data := pageData{
			Title:       page.Title,
			Description: page.Description,
			RedirectURL: safeRedirect(r.URL.Query().Get("redirect_url")),
			SignedIn:    s.signedIn(r),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
			s.logger.Warn("rendering page",
				logging.Field{Key: "path", Value: path},
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

func (s *DemoServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    "demo",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	target := safeRedirect(r.PostForm.Get("redirect_url"))
	if target == "" {
		target = "/dashboard/assessment"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// safeRedirect keeps only same-site absolute paths.
func safeRedirect(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return ""
	}
	return raw
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- API handlers ---

func (s *DemoServer) assessmentState() AssessmentState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := AssessmentState{
		CurrentQuestionIndex: len(s.answers),
		Answers:              make(map[string]string, len(s.answers)),
	}
	for i, a := range s.answers {
		st.Answers["q"+strconv.Itoa(i+1)] = a
	}
	if st.CurrentQuestionIndex < len(assessmentQuestions) {
		st.Question = assessmentQuestions[st.CurrentQuestionIndex]
	}
	return st
}

func (s *DemoServer) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.assessmentState())
}

func (s *DemoServer) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Answer) == "" {
		writeError(w, http.StatusBadRequest, "answer is required")
		return
	}
	if !s.recordAnswer(body.Answer) {
		writeError(w, http.StatusConflict, "assessment already complete")
		return
	}
	writeJSON(w, http.StatusOK, s.assessmentState())
}

func (s *DemoServer) recordAnswer(answer string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.answers) >= len(assessmentQuestions) {
		return false
	}
	s.answers = append(s.answers, strings.TrimSpace(answer))
	return true
}

// handleChat answers the current question with the message and replies in
// plain text with the next question.
func (s *DemoServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply := "Thanks, that completes the assessment."
	if s.recordAnswer(body.Message) {
		if st := s.assessmentState(); st.Question != "" {
			reply = "Thanks! " + st.Question
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(reply))
}

func (s *DemoServer) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	out := append([]Feature{}, s.features...)
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *DemoServer) handleCreateFeature(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if body.Tags == nil {
		body.Tags = []string{}
	}

	s.mu.Lock()
	f := Feature{
		ID:          s.nextID,
		Title:       strings.TrimSpace(body.Title),
		Description: strings.TrimSpace(body.Description),
		Tags:        body.Tags,
		CreatedAt:   time.Now().UTC(),
	}
	s.nextID++
	s.features = append(s.features, f)
	s.mu.Unlock()

	s.logger.Info("created feature",
		logging.Field{Key: "id", Value: f.ID},
		logging.Field{Key: "title", Value: f.Title})
	writeJSON(w, http.StatusCreated, f)
}
