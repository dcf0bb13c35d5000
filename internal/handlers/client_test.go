package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRegistry(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "alice")
	s.createUser(t, "bob")
	alice := s.signIn(t, "alice")
	bob := s.signIn(t, "bob")

	w := s.sendJSON(http.MethodPost, "/api/clients",
		`{"name":"CLI","redirect_uris":["`+testRedirectURI+`"]}`, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created clientView
	decode(t, w, &created)
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.ClientSecret)
	require.Len(t, created.RedirectURIs, 1)

	path := "/api/clients/" + created.ID

	w = s.do(httptest.NewRequest(http.MethodGet, path, nil), alice)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched clientView
	decode(t, w, &fetched)
	assert.Empty(t, fetched.ClientSecret)
	assert.NotContains(t, w.Body.String(), "secret_hash")

	// Other users cannot see it.
	w = s.do(httptest.NewRequest(http.MethodGet, path, nil), bob)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/clients", nil), bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"clients":[]}`, w.Body.String())

	w = s.sendJSON(http.MethodPut, path, `{"name":"CLI v2","description":"command line"}`, alice)
	require.Equal(t, http.StatusOK, w.Code)
	var updated clientView
	decode(t, w, &updated)
	assert.Equal(t, "CLI v2", updated.Name)

	// The last redirect URI is protected.
	firstURI := fmt.Sprintf("%s/redirect_uris/%d", path, created.RedirectURIs[0].ID)
	w = s.do(httptest.NewRequest(http.MethodDelete, firstURI, nil), alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.sendJSON(http.MethodPost, path+"/redirect_uris", `{"uri":"http://localhost:9000/cb"}`, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodDelete, firstURI, nil), alice)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(httptest.NewRequest(http.MethodDelete, path+"/redirect_uris/abc", nil), alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(httptest.NewRequest(http.MethodDelete, path, nil), alice)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(httptest.NewRequest(http.MethodGet, path, nil), alice)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClientRegistry_Validation(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "alice")
	alice := s.signIn(t, "alice")

	tests := []struct {
		name string
		body string
	}{
		{"no redirect uris", `{"name":"x","redirect_uris":[]}`},
		{"no name", `{"redirect_uris":["` + testRedirectURI + `"]}`},
		{"fragment in uri", `{"name":"x","redirect_uris":["https://app.example.com/cb#frag"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.sendJSON(http.MethodPost, "/api/clients", tt.body, alice)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "invalid_request", errorCode(t, w))
		})
	}

	w := s.sendJSON(http.MethodPost, "/api/clients", `{"name":"x","redirect_uris":["`+testRedirectURI+`"]}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","checks":{"database":"healthy","redis":"healthy"}}`, w.Body.String())
}
