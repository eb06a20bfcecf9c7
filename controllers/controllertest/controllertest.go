// Package controllertest drives handlers in tests as an already signed-in user.
package controllertest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"careerhub-backend/controllers/authentication"
)

// Protect stands in for RequireAuth. Requests built by Do already carry claims.
func Protect(fn http.HandlerFunc) http.Handler { return fn }

// Do sends a JSON request as user to h. A zero user sends no claims.
func Do(t testing.TB, h http.Handler, user uint, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return Serve(h, user, req)
}

// Serve sends req as user to h.
func Serve(h http.Handler, user uint, req *http.Request) *httptest.ResponseRecorder {
	if user != 0 {
		claims := &authentication.Claims{UserID: user, Email: "user@example.com"}
		req = req.WithContext(authentication.WithClaims(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// Decode unmarshals the recorded body into v.
func Decode(t testing.TB, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
