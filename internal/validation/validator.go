// Package validation checks URLs before any shortening mutation happens.
package validation

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// DefaultMaxURLLength bounds accepted URLs. Matches the storage column intent
// of at most 2048 characters.
const DefaultMaxURLLength = 2048

// ErrInvalidURL is returned for any URL that must be rejected before mutation.
// The wrapped message carries the specific reason.
var ErrInvalidURL = errors.New("invalid url")

// URLValidator rejects malformed, oversized and unsafe URLs. Only absolute
// http(s) URLs pointing at public hosts pass; loopback, private and
// link-local targets are refused to keep shortened links from being used for
// server-side request forgery.
type URLValidator struct {
	maxLength int
}

type Option func(*URLValidator)

func WithMaxLength(n int) Option {
	return func(v *URLValidator) {
		v.maxLength = n
	}
}

func New(opts ...Option) *URLValidator {
	v := &URLValidator{
		maxLength: DefaultMaxURLLength,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Validate returns nil for acceptable URLs, or an error wrapping ErrInvalidURL.
// Surrounding whitespace is ignored.
func (v *URLValidator) Validate(rawURL string) error {
	const op = "validation.URLValidator.Validate"

	rawURL = strings.TrimSpace(rawURL)

	if rawURL == "" {
		return fmt.Errorf("%s: %w: empty url", op, ErrInvalidURL)
	}
	if len(rawURL) > v.maxLength {
		return fmt.Errorf("%s: %w: url exceeds %d characters", op, ErrInvalidURL, v.maxLength)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: %w: scheme %q is not allowed", op, ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: %w: missing host", op, ErrInvalidURL)
	}

	if blockedHost(u.Hostname()) {
		return fmt.Errorf("%s: %w: host %q is not allowed", op, ErrInvalidURL, u.Hostname())
	}

	return nil
}

// blockedHost reports whether the host resolves trivially to a non-public
// address class. Only literal addresses and the localhost name are checked;
// DNS resolution stays out of the request path.
func blockedHost(host string) bool {
	host = strings.ToLower(host)

	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}

	addr, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		// Not an IP literal; hostnames pass.
		return false
	}

	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified()
}
