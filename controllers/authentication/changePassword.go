package authentication

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"careerhub-backend/controllers/respond"
	"careerhub-backend/errors"
)

type passwordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword replaces the local password. Older tokens are revoked and a
// new one is returned.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in passwordChange
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := checkPassword("new password", in.NewPassword); err != nil {
		respond.Error(w, r, err)
		return
	}

	u, err := h.currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if u.Password == "" {
		respond.Error(w, r, errors.WithHintf(errors.Wrap(errors.ErrForbidden, "account has no local password"),
			"this account signs in with %s", u.Provider))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.CurrentPassword)) != nil {
		respond.Error(w, r, errors.Wrap(errors.ErrUnauthorized, "current password is incorrect"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respond.Error(w, r, errors.Wrap(err, "hash password"))
		return
	}
	u.Password = string(hash)
	u.TokenVersion++
	if err := h.db.WithContext(r.Context()).Model(u).Select("password", "token_version").Updates(u).Error; err != nil {
		respond.Error(w, r, errors.Wrap(err, "update password"))
		return
	}
	h.signIn(w, r, http.StatusOK, u)
}
