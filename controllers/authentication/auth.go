// Package authentication issues and verifies access tokens and serves the
// account endpoints: register, login, session, logout, password, profile and
// OAuth sign-in with Google or LinkedIn.
package authentication

import (
	"crypto/rand"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"careerhub-backend/config"
	"careerhub-backend/controllers/respond"
	"careerhub-backend/errors"
	"careerhub-backend/logger"
	"careerhub-backend/models/users"
)

// Password bounds for registration and password changes. bcrypt only
// accepts up to 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

func checkPassword(field, pw string) error {
	if len(pw) < MinPasswordLength {
		return errors.Invalidf("%s must be at least %d characters", field, MinPasswordLength)
	}
	if len(pw) > MaxPasswordBytes {
		return errors.Invalidf("%s must be at most %d bytes", field, MaxPasswordBytes)
	}
	return nil
}

type Handler struct {
	db        *gorm.DB
	secret    []byte
	expiry    time.Duration
	sessions  sessions.Store
	providers map[string]*provider
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewHandler builds the auth handlers from cfg. A random signing key is used
// when jwt.secret is empty, so tokens do not survive a restart.
func NewHandler(db *gorm.DB, cfg *config.Config, store sessions.Store) *Handler {
	log := logger.ComponentLogger("auth")
	secret := []byte(cfg.JWT.Secret)
	if len(secret) == 0 {
		log.Warn("jwt.secret is empty, using an ephemeral signing key")
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
	}
	expiry := cfg.JWT.Expiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Handler{
		db:        db,
		secret:    secret,
		expiry:    expiry,
		sessions:  store,
		providers: newProviders(cfg),
		logger:    log,
		now:       time.Now,
	}
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by every sign-in path.
type TokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *users.User `json:"user"`
}

func normalizeEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", errors.Invalidf("email is required")
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return "", errors.Invalidf("email %q is not valid", s)
	}
	return s, nil
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, status int, u *users.User) {
	token, expires, err := h.Issue(u)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, status, TokenResponse{Token: token, ExpiresAt: expires, User: u})
}

// Register creates a local account and signs it in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := checkPassword("password", in.Password); err != nil {
		respond.Error(w, r, err)
		return
	}

	var count int64
	if err := h.db.WithContext(r.Context()).Model(&users.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		respond.Error(w, r, errors.Wrap(err, "check email"))
		return
	}
	if count > 0 {
		respond.Error(w, r, errors.Wrap(errors.ErrConflict, "email already registered"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		respond.Error(w, r, errors.Wrap(err, "hash password"))
		return
	}
	u := &users.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: string(hash),
		Role:     users.RoleUser,
		Provider: users.ProviderLocal,
	}
	if err := h.db.WithContext(r.Context()).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = errors.Wrap(errors.ErrConflict, "email already registered")
		}
		respond.Error(w, r, errors.Wrap(err, "create user"))
		return
	}
	logger.FromContext(r.Context(), h.logger).Infow("user registered", logger.FieldUserID, u.ID)
	h.signIn(w, r, http.StatusCreated, u)
}

// Login checks a local password and returns a fresh token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	invalid := errors.Wrap(errors.ErrUnauthorized, "invalid email or password")

	var u users.User
	err := h.db.WithContext(r.Context()).Where("email = ?", strings.ToLower(strings.TrimSpace(in.Email))).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respond.Error(w, r, invalid)
		return
	}
	if err != nil {
		respond.Error(w, r, errors.Wrap(err, "load user"))
		return
	}
	if u.Password == "" {
		respond.Error(w, r, errors.WithHintf(invalid, "this account signs in with %s", u.Provider))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)) != nil {
		respond.Error(w, r, invalid)
		return
	}
	h.signIn(w, r, http.StatusOK, &u)
}

// SessionResponse describes the current token.
type SessionResponse struct {
	User      *users.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (h *Handler) currentUser(r *http.Request) (*users.User, error) {
	var u users.User
	err := h.db.WithContext(r.Context()).Preload("Skills").First(&u, UserID(r.Context())).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "user no longer exists")
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	return &u, nil
}

// Session returns the signed-in user and when the token expires.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	u, err := h.currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, SessionResponse{User: u, ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC()})
}

func (h *Handler) revoke(r *http.Request, userID uint) error {
	err := h.db.WithContext(r.Context()).Model(&users.User{}).Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + 1")).Error
	return errors.Wrap(err, "revoke tokens")
}

// Logout revokes every token issued to the user so far.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.revoke(r, UserID(r.Context())); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Message(w, http.StatusOK, "logged out")
}
