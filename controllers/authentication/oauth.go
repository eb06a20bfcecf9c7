package authentication

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/linkedin"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"careerhub-backend/config"
	"careerhub-backend/controllers/respond"
	"careerhub-backend/errors"
	"careerhub-backend/logger"
	"careerhub-backend/models/users"
)

const (
	oauthSession = "careerhub-oauth"
	stateKey     = "state"

	linkedinUserinfoURL = "https://api.linkedin.com/v2/userinfo"
)

type identity struct {
	Email     string
	Name      string
	AvatarURL string
}

type provider struct {
	name   string
	config *oauth2.Config
	// apiBase overrides the profile API location.
	apiBase  string
	identify func(ctx context.Context, p *provider, client *http.Client) (identity, error)
}

func newProviders(cfg *config.Config) map[string]*provider {
	out := map[string]*provider{}
	if cfg.Google.Enabled() {
		out[users.ProviderGoogle] = &provider{
			name: users.ProviderGoogle,
			config: &oauth2.Config{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				RedirectURL:  cfg.Google.RedirectURL,
				Scopes:       []string{googleoauth.UserinfoEmailScope, googleoauth.UserinfoProfileScope},
				Endpoint:     google.Endpoint,
			},
			identify: googleIdentity,
		}
	}
	if cfg.LinkedIn.Enabled() {
		out[users.ProviderLinkedIn] = &provider{
			name: users.ProviderLinkedIn,
			config: &oauth2.Config{
				ClientID:     cfg.LinkedIn.ClientID,
				ClientSecret: cfg.LinkedIn.ClientSecret,
				RedirectURL:  cfg.LinkedIn.RedirectURL,
				Scopes:       []string{"openid", "profile", "email"},
				Endpoint:     linkedin.Endpoint,
			},
			apiBase:  linkedinUserinfoURL,
			identify: linkedinIdentity,
		}
	}
	return out
}

func googleIdentity(ctx context.Context, p *provider, client *http.Client) (identity, error) {
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if p.apiBase != "" {
		opts = append(opts, option.WithEndpoint(p.apiBase))
	}
	svc, err := googleoauth.NewService(ctx, opts...)
	if err != nil {
		return identity{}, errors.Wrap(err, "create google oauth2 service")
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return identity{}, errors.Wrap(err, "fetch google userinfo")
	}
	return identity{Email: info.Email, Name: info.Name, AvatarURL: info.Picture}, nil
}

type linkedinUserinfo struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

func linkedinIdentity(ctx context.Context, p *provider, client *http.Client) (identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase, nil)
	if err != nil {
		return identity{}, errors.Wrap(err, "build linkedin userinfo request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return identity{}, errors.Wrap(err, "fetch linkedin userinfo")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return identity{}, errors.Newf("linkedin userinfo returned %s", resp.Status)
	}

	var info linkedinUserinfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return identity{}, errors.Wrap(err, "decode linkedin userinfo")
	}
	name := info.Name
	if name == "" {
		name = strings.TrimSpace(info.GivenName + " " + info.FamilyName)
	}
	return identity{Email: info.Email, Name: name, AvatarURL: info.Picture}, nil
}

func (h *Handler) provider(r *http.Request) (*provider, error) {
	name := r.PathValue("provider")
	p, ok := h.providers[name]
	if !ok {
		return nil, errors.WithHint(errors.Wrapf(errors.ErrServiceUnavailable, "sign-in with %q is not configured", name),
			"set client_id and client_secret for google or linkedin")
	}
	return p, nil
}

// OAuthLogin redirects to the provider's consent page with a random state
// remembered in a short-lived cookie session.
func (h *Handler) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	p, err := h.provider(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	session, _ := h.sessions.Get(r, oauthSession)
	state := uuid.NewString()
	session.Values[stateKey] = p.name + ":" + state
	if err := session.Save(r, w); err != nil {
		respond.Error(w, r, errors.Wrap(err, "save oauth session"))
		return
	}
	http.Redirect(w, r, p.config.AuthCodeURL(state, oauth2.AccessTypeOffline), http.StatusTemporaryRedirect)
}

// OAuthCallback checks the state, exchanges the code and signs in the user
// with the provider's email, creating the account on first sign-in.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	p, err := h.provider(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	session, _ := h.sessions.Get(r, oauthSession)
	want, _ := session.Values[stateKey].(string)
	state := r.URL.Query().Get("state")
	if state == "" || want != p.name+":"+state {
		respond.Error(w, r, errors.Wrap(errors.ErrUnauthorized, "oauth state mismatch"))
		return
	}
	delete(session.Values, stateKey)
	if err := session.Save(r, w); err != nil {
		respond.Error(w, r, errors.Wrap(err, "save oauth session"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respond.Error(w, r, errors.Invalidf("authorization code is missing"))
		return
	}
	token, err := p.config.Exchange(r.Context(), code)
	if err != nil {
		respond.Error(w, r, errors.Wrap(errors.ErrUnauthorized, "code exchange failed: "+err.Error()))
		return
	}
	id, err := p.identify(r.Context(), p, p.config.Client(r.Context(), token))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	email, err := normalizeEmail(id.Email)
	if err != nil {
		respond.Error(w, r, errors.Wrapf(err, "%s returned no usable email", p.name))
		return
	}

	u, created, err := h.findOrCreate(r.Context(), p.name, email, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if created {
		logger.FromContext(r.Context(), h.logger).Infow("user registered", logger.FieldUserID, u.ID, "provider", p.name)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.signIn(w, r, status, u)
}

func (h *Handler) findOrCreate(ctx context.Context, providerName, email string, id identity) (*users.User, bool, error) {
	var u users.User
	err := h.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err == nil {
		if u.AvatarURL == "" && id.AvatarURL != "" {
			u.AvatarURL = id.AvatarURL
			if err := h.db.WithContext(ctx).Model(&u).Update("avatar_url", id.AvatarURL).Error; err != nil {
				return nil, false, errors.Wrap(err, "update avatar")
			}
		}
		return &u, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, errors.Wrap(err, "load user")
	}

	u = users.User{
		Name:      id.Name,
		Email:     email,
		AvatarURL: id.AvatarURL,
		Role:      users.RoleUser,
		Provider:  providerName,
	}
	if err := h.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, false, errors.Wrap(err, "create user")
	}
	return &u, true, nil
}
