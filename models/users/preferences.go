package users

import (
	"time"

	"careerhub-backend/errors"
)

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"

	TextSmall  = "small"
	TextMedium = "medium"
	TextLarge  = "large"
)

// Preferences is the per-user application state: theme, text size and the
// sidebar. One row per user.
type Preferences struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	UserID           uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Theme            string    `json:"theme" gorm:"not null;default:system"`
	TextSize         string    `json:"text_size" gorm:"not null;default:medium"`
	SidebarCollapsed bool      `json:"sidebar_collapsed"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DefaultPreferences is returned for users who never saved any.
func DefaultPreferences(userID uint) Preferences {
	return Preferences{UserID: userID, Theme: ThemeSystem, TextSize: TextMedium}
}

func (p *Preferences) Validate() error {
	switch p.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return errors.Invalidf("theme must be one of light, dark, system")
	}
	switch p.TextSize {
	case TextSmall, TextMedium, TextLarge:
	default:
		return errors.Invalidf("text_size must be one of small, medium, large")
	}
	return nil
}
