package authentication

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"

	"careerhub-backend/errors"
	"careerhub-backend/models/users"
)

// Claims is the payload of every access token. TokenVersion must match the
// user's row, so bumping it revokes all outstanding tokens.
type Claims struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	UserID       uint   `json:"user_id"`
	TokenVersion int    `json:"token_version"`
	jwt.StandardClaims
}

// Issue signs an HS256 token for u.
func (h *Handler) Issue(u *users.User) (string, time.Time, error) {
	now := h.now()
	expires := now.Add(h.expiry)
	claims := &Claims{
		Email:        u.Email,
		Role:         u.Role,
		UserID:       u.ID,
		TokenVersion: u.TokenVersion,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: expires.Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return token, expires, nil
}

// Parse verifies signature and expiry of tokenString.
func (h *Handler) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Newf("unexpected signing method %v", t.Header["alg"])
		}
		return h.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

type claimsKey struct{}

// WithClaims stores verified claims in ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFrom returns the claims RequireAuth placed in ctx.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

// UserID returns the authenticated user's id, or 0.
func UserID(ctx context.Context) uint {
	if c, ok := ClaimsFrom(ctx); ok {
		return c.UserID
	}
	return 0
}
