package util

import (
	"errors"
	"net/url"
	"strings"
)

var (
	ErrRedirectURIEmpty    = errors.New("redirect URI is empty")
	ErrRedirectURIRelative = errors.New("redirect URI must be absolute")
	ErrRedirectURIFragment = errors.New("redirect URI must not contain a fragment")
	ErrRedirectURIScheme   = errors.New("redirect URI scheme is not allowed")
)

// ValidateRedirectURI checks a URI before it is registered for a client
// (RFC 6749 §3.1.2). Custom schemes are accepted for native apps; script-like
// schemes are not.
func ValidateRedirectURI(raw string) error {
	if raw == "" {
		return ErrRedirectURIEmpty
	}
	if strings.ContainsAny(raw, "\r\n") {
		return ErrRedirectURIScheme
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return ErrRedirectURIRelative
	}
	if u.Fragment != "" || strings.Contains(raw, "#") {
		return ErrRedirectURIFragment
	}

	switch strings.ToLower(u.Scheme) {
	case "javascript", "data", "vbscript", "file":
		return ErrRedirectURIScheme
	case "http", "https":
		if u.Host == "" {
			return ErrRedirectURIRelative
		}
	}
	return nil
}

// AppendQuery adds params to the query of an already validated redirect URI.
func AppendQuery(redirectURI string, params url.Values) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			if v != "" {
				q.Add(key, v)
			}
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
