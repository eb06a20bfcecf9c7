package authentication

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"careerhub-backend/controllers/respond"
	"careerhub-backend/errors"
	"careerhub-backend/logger"
	"careerhub-backend/models/users"
)

func bearer(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.Wrap(errors.ErrUnauthorized, "authorization header required")
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || strings.TrimSpace(token) == "" {
		return "", errors.WithHint(errors.Wrap(errors.ErrUnauthorized, "malformed authorization header"),
			"send Authorization: Bearer <token>")
	}
	return token, nil
}

// RequireAuth rejects requests without a valid, unrevoked bearer token.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearer(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		claims, err := h.Parse(raw)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		var u users.User
		err = h.db.WithContext(r.Context()).Select("id", "token_version").First(&u, claims.UserID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			respond.Error(w, r, errors.Wrap(errors.ErrUnauthorized, "user no longer exists"))
			return
		case err != nil:
			respond.Error(w, r, errors.Wrap(err, "load user"))
			return
		case u.TokenVersion != claims.TokenVersion:
			respond.Error(w, r, errors.Wrap(errors.ErrUnauthorized, "token revoked"))
			return
		}

		ctx := WithClaims(r.Context(), claims)
		ctx = logger.WithUserID(ctx, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Protect wraps a handler func with RequireAuth.
func (h *Handler) Protect(fn http.HandlerFunc) http.Handler {
	return h.RequireAuth(fn)
}
