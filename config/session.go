package config

import (
	"crypto/rand"
	"net/http"

	"github.com/gorilla/sessions"
)

// NewSessionStore returns the cookie store used for OAuth state. A random key
// is generated when no secret is configured, which invalidates sessions on
// restart.
func NewSessionStore(c SessionConfig) *sessions.CookieStore {
	key := []byte(c.Secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
