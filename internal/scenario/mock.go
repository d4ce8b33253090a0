package scenario

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// MockRoute answers every request whose URL matches Pattern with a fixed
// response, so the request never reaches the network.
//
// Pattern is a URL glob with "/" as the separator: "**" matches any run of
// characters, "*" matches any run that does not cross a "/", "?" matches one
// character other than "/", and "[...]", "{a,b}" and "\" follow the usual glob
// rules. The glob must match the whole URL, so "**/api/chat" matches
// "http://localhost:3000/api/chat" but not "http://localhost:3000/api/chat/history".
type MockRoute struct {
	Pattern     string
	Status      int
	ContentType string
	Body        string
}

// StatusCode returns Status, or 200 when unset.
func (m MockRoute) StatusCode() int {
	if m.Status == 0 {
		return http.StatusOK
	}
	return m.Status
}

// Validate checks the pattern and status.
func (m MockRoute) Validate() error {
	if strings.TrimSpace(m.Pattern) == "" {
		return errors.New("pattern is required")
	}
	if _, err := compileGlob(m.Pattern); err != nil {
		return err
	}
	if m.Status != 0 && (m.Status < 100 || m.Status > 599) {
		return errors.New("status must be a valid HTTP status code")
	}
	return nil
}

func compileGlob(pattern string) (glob.Glob, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return g, nil
}

// InterceptPattern converts the glob to a DevTools request pattern, where "*"
// crosses "/" freely. The result matches a superset of the glob, so callers
// still match against a MockSet before fulfilling. Globs using classes or
// alternatives have no DevTools form and intercept every request.
func (m MockRoute) InterceptPattern() string {
	if strings.ContainsAny(m.Pattern, "[{") {
		return "*"
	}
	p := m.Pattern
	for strings.Contains(p, "**") {
		p = strings.ReplaceAll(p, "**", "*")
	}
	return p
}

// MockSet is an ordered list of mocks with their globs compiled. The zero
// value is empty and ready to use; it is safe for concurrent use.
type MockSet struct {
	mu     sync.RWMutex
	routes []MockRoute
	globs  []glob.Glob
}

// NewMockSet compiles mocks in order.
func NewMockSet(mocks ...MockRoute) (*MockSet, error) {
	s := &MockSet{}
	if err := s.Add(mocks...); err != nil {
		return nil, err
	}
	return s, nil
}

// Add compiles and appends mocks. Nothing is added when any pattern is invalid.
func (s *MockSet) Add(mocks ...MockRoute) error {
	globs := make([]glob.Glob, 0, len(mocks))
	for _, m := range mocks {
		g, err := compileGlob(m.Pattern)
		if err != nil {
			return err
		}
		globs = append(globs, g)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, mocks...)
	s.globs = append(s.globs, globs...)
	return nil
}

// Match returns the first mock in order whose glob covers rawURL.
func (s *MockSet) Match(rawURL string) (MockRoute, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, g := range s.globs {
		if g.Match(rawURL) {
			return s.routes[i], true
		}
	}
	return MockRoute{}, false
}

// Routes returns a copy of the mocks in order.
func (s *MockSet) Routes() []MockRoute {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]MockRoute(nil), s.routes...)
}

// Len returns the number of mocks.
func (s *MockSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.routes)
}
