// Package webclient is the plain net/http client pagecheck uses before a
// browser is involved, to find out whether the target server is up.
package webclient

import "context"

// WebClient sends readiness checks.
type WebClient interface {
	// Check requests url once and reports how the server answered.
	// Redirects are reported, not followed.
	Check(ctx context.Context, url string) (*Response, error)

	Close() error
}
