package webclient

import (
	"net/http"
	"time"
)

// Response is how a server answered one readiness check. The body is
// drained and discarded.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	// Location is the redirect target when the server redirected.
	Location string
	Elapsed  time.Duration
}

// Ready reports whether the server is up. Anything short of a 5xx counts,
// so a redirect to a sign-in page is a live server.
func (r *Response) Ready() bool {
	return r != nil && r.StatusCode > 0 && r.StatusCode < http.StatusInternalServerError
}
