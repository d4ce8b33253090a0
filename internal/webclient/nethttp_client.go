package webclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/raysh454/pagecheck/internal/logging"
)

const defaultTimeout = 5 * time.Second

// maxDrainBytes caps how much of a response body is read so the connection
// can be reused.
const maxDrainBytes = 64 << 10

// acceptHTML is the Accept header a browser sends for a page load.
const acceptHTML = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"

// net/http backed implementation of webclient.
type NetHTTPClient struct {
	client    *http.Client
	userAgent string
	logger    logging.Logger
}

// NewNetHTTPClient builds a client from cfg, or wraps httpClient when one is
// given. The wrapped client is copied so that redirects are never followed;
// the caller's value is left untouched.
func NewNetHTTPClient(cfg Config, logger logging.Logger, httpClient *http.Client) (*NetHTTPClient, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	componentLogger := logger.With(logging.Field{Key: "backend", Value: "nethttp"})

	var c http.Client
	if httpClient != nil {
		c = *httpClient
	} else {
		c.Timeout = cfg.Timeout
		if c.Timeout <= 0 {
			c.Timeout = defaultTimeout
		}
	}
	c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	componentLogger.Debug("created nethttp webclient",
		logging.Field{Key: "timeout", Value: c.Timeout.String()})

	return &NetHTTPClient{
		client:    &c,
		userAgent: cfg.UserAgent,
		logger:    componentLogger,
	}, nil
}

// Check sends a GET for url the way a browser asks for a page.
func (nhc *NetHTTPClient) Check(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", acceptHTML)
	if nhc.userAgent != "" {
		req.Header.Set("User-Agent", nhc.userAgent)
	}

	start := time.Now()
	resp, err := nhc.client.Do(req)
	if err != nil {
		nhc.logger.Debug("readiness check failed",
			logging.Field{Key: "url", Value: url},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	out := &Response{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Location:    resp.Header.Get("Location"),
		Elapsed:     time.Since(start),
	}
	nhc.logger.Debug("readiness check",
		logging.Field{Key: "url", Value: url},
		logging.Field{Key: "status", Value: out.StatusCode},
		logging.Field{Key: "elapsed", Value: out.Elapsed.Round(time.Millisecond).String()})
	return out, nil
}

func (nhc *NetHTTPClient) Close() error {
	nhc.client.CloseIdleConnections()
	return nil
}
