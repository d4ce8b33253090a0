package utils

import (
	"net"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/idna"
)

// BaseURLOptions controls how a target base URL is normalized.
type BaseURLOptions struct {
	DefaultScheme string // assumed for schemeless input such as "localhost:3000"; empty means scheme is required
}

// NormalizeBaseURL returns the canonical form of a target server base URL:
// lowercase scheme and host, IDN hosts converted to punycode, default ports
// dropped, no credentials, no fragment or query, and no trailing slash.
//
// Examples:
//
//	"localhost:3000"            → "http://localhost:3000"  (DefaultScheme "http")
//	"HTTP://LocalHost:80/app/"  → "http://localhost/app"
func NormalizeBaseURL(raw string, opts BaseURLOptions) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &url.Error{Op: "parse", URL: raw, Err: ErrEmptyURL}
	}

	if opts.DefaultScheme != "" && !strings.Contains(raw, "://") {
		raw = opts.DefaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", &url.Error{Op: "parse", URL: raw, Err: ErrMissingHost}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &url.Error{Op: "parse", URL: raw, Err: ErrUnsupportedScheme}
	}

	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}

	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") || port == "" {
		u.Host = host
	} else {
		u.Host = net.JoinHostPort(host, port)
	}

	u.User = nil
	u.Fragment = ""
	u.RawQuery = ""

	cleanPath := path.Clean("/" + u.Path)
	if cleanPath == "/" {
		cleanPath = ""
	}
	u.Path = cleanPath
	u.RawPath = ""

	return u.String(), nil
}

// ResolveURL resolves target against base. Absolute http(s) targets are
// returned unchanged; anything else is treated as a path below base, so
// base "http://localhost:3000/app" and target "/admin" give
// "http://localhost:3000/app/admin". An empty target resolves to the base root.
func ResolveURL(base, target string) (string, error) {
	target = strings.TrimSpace(target)
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		if _, err := url.Parse(target); err != nil {
			return "", err
		}
		return target, nil
	}

	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if b.Host == "" {
		return "", &url.Error{Op: "resolve", URL: base, Err: ErrMissingHost}
	}

	rel, err := url.Parse(target)
	if err != nil {
		return "", err
	}

	b.Path = strings.TrimRight(b.Path, "/") + "/" + strings.TrimLeft(rel.Path, "/")
	b.RawPath = ""
	b.RawQuery = rel.RawQuery
	b.Fragment = rel.Fragment
	return b.String(), nil
}

// ContainsMarker reports whether the URL contains marker. An empty marker
// never matches.
func ContainsMarker(rawURL, marker string) bool {
	if marker == "" {
		return false
	}
	return strings.Contains(rawURL, marker)
}

// Errors
var (
	ErrEmptyURL          = &errStr{"empty url"}
	ErrMissingHost       = &errStr{"missing host"}
	ErrUnsupportedScheme = &errStr{"unsupported scheme (want http or https)"}
)

type errStr struct{ s string }

func (e *errStr) Error() string { return e.s }
