package webclient

import "time"

// Config configures NewNetHTTPClient when no *http.Client is supplied.
type Config struct {
	Timeout   time.Duration // per request; 0 means 5s
	UserAgent string
}
