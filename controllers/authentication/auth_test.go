package authentication

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"careerhub-backend/config"
	"careerhub-backend/models/users"
	"careerhub-backend/store/storetest"
)

type harness struct {
	h   *Handler
	db  *gorm.DB
	mux *http.ServeMux
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	cfg.JWT = config.JWTConfig{Secret: "test-secret", Expiry: time.Hour}
	db := storetest.Open(t)
	h := NewHandler(db, cfg, config.NewSessionStore(config.SessionConfig{Secret: "0123456789abcdef0123456789abcdef"}))
	mux := http.NewServeMux()
	h.Mount(mux)
	return &harness{h: h, db: db, mux: mux}
}

func (hs *harness) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	hs.mux.ServeHTTP(rec, req)
	return rec
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) TokenResponse {
	t.Helper()
	var out TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out
}

func (hs *harness) register(t *testing.T, email, password string) TokenResponse {
	t.Helper()
	rec := hs.do(t, http.MethodPost, "/auth/register", "", credentials{Name: "Ada", Email: email, Password: password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeToken(t, rec)
}

func TestRegisterAndLogin(t *testing.T) {
	hs := newHarness(t, nil)

	reg := hs.register(t, " Ada@Example.com ", "correct horse")
	assert.Equal(t, "ada@example.com", reg.User.Email)
	assert.Equal(t, users.ProviderLocal, reg.User.Provider)
	assert.NotContains(t, hs.do(t, http.MethodGet, "/auth/session", reg.Token, nil).Body.String(), "password")

	rec := hs.do(t, http.MethodPost, "/auth/register", "", credentials{Email: "ada@example.com", Password: "another one"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = hs.do(t, http.MethodPost, "/auth/login", "", credentials{Email: "ADA@example.com", Password: "correct horse"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeToken(t, rec)
	assert.Equal(t, reg.User.ID, login.User.ID)

	rec = hs.do(t, http.MethodPost, "/auth/login", "", credentials{Email: "ada@example.com", Password: "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = hs.do(t, http.MethodPost, "/auth/login", "", credentials{Email: "nobody@example.com", Password: "whatever1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	hs := newHarness(t, nil)

	for name, body := range map[string]interface{}{
		"short password": credentials{Email: "a@example.com", Password: "short"},
		"long password":  credentials{Email: "a@example.com", Password: strings.Repeat("p", MaxPasswordBytes+8)},
		"missing email":  credentials{Password: "long enough"},
		"bad email":      credentials{Email: "not-an-email", Password: "long enough"},
		"not json":       "plain string",
	} {
		rec := hs.do(t, http.MethodPost, "/auth/register", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestRegisterAcceptsLongestPassword(t *testing.T) {
	hs := newHarness(t, nil)
	pw := strings.Repeat("p", MaxPasswordBytes)
	hs.register(t, "ada@example.com", pw)

	rec := hs.do(t, http.MethodPost, "/auth/login", "", credentials{Email: "ada@example.com", Password: pw})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	hs := newHarness(t, nil)
	reg := hs.register(t, "ada@example.com", "correct horse")

	rec := hs.do(t, http.MethodGet, "/auth/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Token "+reg.Token)
	rec = httptest.NewRecorder()
	hs.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bearer")

	rec = hs.do(t, http.MethodGet, "/auth/session", "garbage.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = hs.do(t, http.MethodGet, "/auth/session", reg.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var session SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "ada@example.com", session.User.Email)
	assert.WithinDuration(t, reg.ExpiresAt, session.ExpiresAt, time.Second)
}

func TestRequireAuthRejectsOtherSigningMethods(t *testing.T) {
	hs := newHarness(t, nil)
	reg := hs.register(t, "ada@example.com", "correct horse")

	claims := &Claims{UserID: reg.User.ID, Email: reg.User.Email, StandardClaims: jwt.StandardClaims{
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	rec := hs.do(t, http.MethodGet, "/auth/session", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredToken(t *testing.T) {
	hs := newHarness(t, nil)
	reg := hs.register(t, "ada@example.com", "correct horse")

	hs.h.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	stale, _, err := hs.h.Issue(reg.User)
	require.NoError(t, err)

	rec := hs.do(t, http.MethodGet, "/auth/session", stale, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesTokens(t *testing.T) {
	hs := newHarness(t, nil)
	reg := hs.register(t, "ada@example.com", "correct horse")

	rec := hs.do(t, http.MethodPost, "/auth/logout", reg.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = hs.do(t, http.MethodGet, "/auth/session", reg.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "revoked")

	rec = hs.do(t, http.MethodPost, "/auth/login", "", credentials{Email: "ada@example.com", Password: "correct horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	fresh := decodeToken(t, rec)
	assert.Equal(t, http.StatusOK, hs.do(t, http.MethodGet, "/auth/session", fresh.Token, nil).Code)
}

func TestChangePassword(t *testing.T) {
	hs := newHarness(t, nil)
	reg := hs.register(t, "ada@example.com", "correct horse")

	rec := hs.do(t, http.MethodPost, "/auth/password", reg.Token, passwordChange{CurrentPassword: "nope nope", NewPassword: "battery staple"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = hs.do(t, http.MethodPost, "/auth/password", reg.Token, passwordChange{CurrentPassword: "correct horse", NewPassword: "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hs.do(t, http.MethodPost, "/auth/password", reg.Token, passwordChange{CurrentPassword: "correct horse", NewPassword: strings.Repeat("p", 80)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = hs.do(t, http.MethodPost, "/auth/password", reg.Token, passwordChange{CurrentPassword: "correct horse", NewPassword: "battery staple"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	changed := decodeToken(t, rec)

	assert.Equal(t, http.StatusUnauthorized, hs.do(t, http.MethodGet, "/auth/session", reg.Token, nil).Code)
	assert.Equal(t, http.StatusOK, hs.do(t, http.MethodGet, "/auth/session", changed.Token, nil).Code)

	rec = hs.do(t, http.MethodPost, "/auth/login", "", credentials{Email: "ada@example.com", Password: "battery staple"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = hs.do(t, http.MethodPost, "/auth/login", "", credentials{Email: "ada@example.com", Password: "correct horse"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateProfileSkills(t *testing.T) {
	hs := newHarness(t, nil)
	ada := hs.register(t, "ada@example.com", "correct horse")
	bob := hs.register(t, "bob@example.com", "correct horse")

	rec := hs.do(t, http.MethodPut, "/auth/profile", ada.Token, map[string]interface{}{
		"headline": "  Engineer ",
		"skills":   []string{"Go", "go", " SQL ", ""},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var u users.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "Engineer", u.Headline)
	assert.Equal(t, "Ada", u.Name)
	assert.ElementsMatch(t, []string{"Go", "SQL"}, u.SkillNames())

	rec = hs.do(t, http.MethodPut, "/auth/profile", bob.Token, map[string]interface{}{"skills": []string{"GO"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var skills int64
	require.NoError(t, hs.db.Model(&users.Skill{}).Count(&skills).Error)
	assert.EqualValues(t, 2, skills)

	rec = hs.do(t, http.MethodPut, "/auth/profile", ada.Token, map[string]interface{}{"location": "London"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = hs.do(t, http.MethodGet, "/auth/profile", ada.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	u = users.User{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "London", u.Location)
	assert.Len(t, u.Skills, 2, "omitting skills keeps them")

	rec = hs.do(t, http.MethodPut, "/auth/profile", ada.Token, map[string]interface{}{"skills": []string{}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = hs.do(t, http.MethodGet, "/auth/profile", ada.Token, nil)
	u = users.User{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Empty(t, u.Skills)
}

func TestUpdateProfileKeepsConcurrentRevocation(t *testing.T) {
	hs := newHarness(t, nil)
	ada := hs.register(t, "ada@example.com", "correct horse")

	// Bump token_version inside the profile transaction, after the user was
	// loaded, as a logout racing the edit would.
	fired := false
	require.NoError(t, hs.db.Callback().Update().Before("gorm:update").Register("test:concurrent_logout", func(db *gorm.DB) {
		if fired || db.Statement.Table != "users" {
			return
		}
		fired = true
		_, err := db.Statement.ConnPool.ExecContext(db.Statement.Context,
			"UPDATE users SET token_version = token_version + 1, password = ? WHERE id = ?", "rotated", ada.User.ID)
		require.NoError(t, err)
	}))

	rec := hs.do(t, http.MethodPut, "/auth/profile", ada.Token, map[string]interface{}{"headline": "Engineer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, fired)

	var stored users.User
	require.NoError(t, hs.db.First(&stored, ada.User.ID).Error)
	assert.Equal(t, "Engineer", stored.Headline)
	assert.Equal(t, 1, stored.TokenVersion)
	assert.Equal(t, "rotated", stored.Password)

	rec = hs.do(t, http.MethodGet, "/auth/session", ada.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
