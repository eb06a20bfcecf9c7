package authentication

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"careerhub-backend/controllers/respond"
	"careerhub-backend/errors"
	"careerhub-backend/models/users"
)

// profileUpdate carries the editable profile fields. Nil fields are left alone.
type profileUpdate struct {
	Name        *string  `json:"name"`
	Headline    *string  `json:"headline"`
	Location    *string  `json:"location"`
	Phone       *string  `json:"phone"`
	Summary     *string  `json:"summary"`
	LinkedInURL *string  `json:"linkedin_url"`
	WebsiteURL  *string  `json:"website_url"`
	AvatarURL   *string  `json:"avatar_url"`
	Skills      []string `json:"skills"`
}

func (p *profileUpdate) apply(u *users.User) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&u.Name, p.Name)
	set(&u.Headline, p.Headline)
	set(&u.Location, p.Location)
	set(&u.Phone, p.Phone)
	set(&u.Summary, p.Summary)
	set(&u.LinkedInURL, p.LinkedInURL)
	set(&u.WebsiteURL, p.WebsiteURL)
	set(&u.AvatarURL, p.AvatarURL)
}

// GetProfile returns the signed-in user with skills.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// findOrCreateSkills resolves skill names to rows, creating missing ones.
// Names are trimmed and deduplicated case-insensitively.
func findOrCreateSkills(tx *gorm.DB, names []string) ([]users.Skill, error) {
	seen := map[string]bool{}
	skills := make([]users.Skill, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		var s users.Skill
		if err := tx.Where("LOWER(name) = ?", key).First(&s).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.Wrapf(err, "find skill %q", name)
			}
			s = users.Skill{Name: name}
			if err := tx.Create(&s).Error; err != nil {
				return nil, errors.Wrapf(err, "create skill %q", name)
			}
		}
		skills = append(skills, s)
	}
	return skills, nil
}

// UpdateProfile edits profile fields. When skills is present it replaces the
// user's skill list.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in profileUpdate
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	u, err := h.currentUser(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	in.apply(u)

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		// Only profile columns: a concurrent logout or password change
		// must not be overwritten.
		if err := tx.Model(u).Select(users.ProfileColumns).Updates(u).Error; err != nil {
			return errors.Wrap(err, "save profile")
		}
		if in.Skills == nil {
			return nil
		}
		skills, err := findOrCreateSkills(tx, in.Skills)
		if err != nil {
			return err
		}
		assoc := tx.Model(u).Association("Skills")
		if len(skills) == 0 {
			err = assoc.Clear()
		} else {
			err = assoc.Replace(skills)
		}
		if err != nil {
			return errors.Wrap(err, "replace skills")
		}
		u.Skills = skills
		return nil
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}
