package authentication

import "net/http"

// Mount registers the account routes on mux.
func (h *Handler) Mount(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.Handle("GET /auth/session", h.Protect(h.Session))
	mux.Handle("POST /auth/logout", h.Protect(h.Logout))
	mux.Handle("POST /auth/password", h.Protect(h.ChangePassword))
	mux.Handle("GET /auth/profile", h.Protect(h.GetProfile))
	mux.Handle("PUT /auth/profile", h.Protect(h.UpdateProfile))
	mux.HandleFunc("GET /auth/{provider}/login", h.OAuthLogin)
	mux.HandleFunc("GET /auth/{provider}/callback", h.OAuthCallback)
}
