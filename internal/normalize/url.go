package normalize

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when a URL cannot be canonicalized.
var ErrInvalidURL = errors.New("invalid url")

// CanonicalizeURL cleans a user-supplied link: markup is stripped, a missing
// scheme defaults to http, scheme and host are lowercased. Only http and https
// are accepted. An empty input yields an empty result.
func CanonicalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(StripMarkup(raw))
	if s == "" {
		return "", nil
	}
	if !strings.Contains(s, "://") {
		s = "http://" + strings.TrimPrefix(s, "//")
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", ErrInvalidURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if u.Host == "" {
		return "", ErrInvalidURL
	}
	u.Host = strings.ToLower(u.Host)
	u.User = nil

	return u.String(), nil
}
