package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrMissingClientCredentials means the request identified no client at all.
	ErrMissingClientCredentials = errors.New("client credentials are required")
	// ErrMalformedClientCredentials means Basic credentials were not valid
	// form-urlencoded values.
	ErrMalformedClientCredentials = errors.New("client credentials are not properly encoded")
)

// ClientCredentials identifies the calling client. Secret is empty for public
// clients.
type ClientCredentials struct {
	ID     string
	Secret string
}

// ExtractClientCredentials reads client credentials from, in order: HTTP Basic
// auth (each part form-urlencoded), a Bearer header carrying base64url(id:secret), or a client_id request
// parameter (with client_secret in the form body, RFC 6749 §2.3.1).
func ExtractClientCredentials(r *http.Request) (ClientCredentials, error) {
	if id, secret, ok := r.BasicAuth(); ok && id != "" {
		return decodeBasicCredentials(id, secret)
	}

	if raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		if creds, ok := decodeBearerCredentials(strings.TrimSpace(raw)); ok {
			return creds, nil
		}
	}

	if id := strings.TrimSpace(r.FormValue("client_id")); id != "" {
		return ClientCredentials{ID: id, Secret: r.PostFormValue("client_secret")}, nil
	}

	return ClientCredentials{}, ErrMissingClientCredentials
}

func decodeBasicCredentials(id, secret string) (ClientCredentials, error) {
	id, err := url.QueryUnescape(id)
	if err != nil {
		return ClientCredentials{}, ErrMalformedClientCredentials
	}
	secret, err = url.QueryUnescape(secret)
	if err != nil {
		return ClientCredentials{}, ErrMalformedClientCredentials
	}
	return ClientCredentials{ID: id, Secret: secret}, nil
}

func decodeBearerCredentials(raw string) (ClientCredentials, bool) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if err != nil {
		return ClientCredentials{}, false
	}
	id, secret, ok := strings.Cut(string(decoded), ":")
	if !ok || id == "" {
		return ClientCredentials{}, false
	}
	return ClientCredentials{ID: id, Secret: secret}, true
}
