package users

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderLinkedIn = "linkedin"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email" gorm:"uniqueIndex;not null"`
	Password     string         `json:"-"`
	Headline     string         `json:"headline"`
	Location     string         `json:"location"`
	Phone        string         `json:"phone"`
	Summary      string         `json:"summary" gorm:"type:text"`
	LinkedInURL  string         `json:"linkedin_url"`
	WebsiteURL   string         `json:"website_url"`
	AvatarURL    string         `json:"avatar_url"`
	Role         string         `json:"role" gorm:"not null;default:user"`
	Provider     string         `json:"provider" gorm:"not null;default:local"`
	TokenVersion int            `json:"-" gorm:"not null;default:0"`
	Skills       []Skill        `json:"skills" gorm:"many2many:user_skills"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// ProfileColumns are the columns a profile edit may write.
var ProfileColumns = []string{
	"name", "headline", "location", "phone", "summary", "linkedin_url", "website_url", "avatar_url",
}

type Skill struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// SkillNames flattens the user's skills.
func (u *User) SkillNames() []string {
	names := make([]string, 0, len(u.Skills))
	for _, s := range u.Skills {
		names = append(names, s.Name)
	}
	return names
}
