package demoserver

import "github.com/raysh454/pagecheck/internal/logging"

// Config holds configuration for the demo server.
type Config struct {
	// ListenAddr is the address the demo server listens on.
	ListenAddr string

	// RequireAuth sends unauthenticated dashboard visits to /sign-in.
	RequireAuth bool

	// SessionCookie names the cookie that marks a signed-in browser.
	SessionCookie string

	Logger logging.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:    ":3000",
		RequireAuth:   true,
		SessionCookie: "pagecheck_session",
	}
}
