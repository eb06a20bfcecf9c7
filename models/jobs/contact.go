package jobs

import (
	"strings"
	"time"

	"careerhub-backend/errors"
	"careerhub-backend/models"
)

// Contact is a person in the user's professional network.
type Contact struct {
	models.Base
	Name            string     `json:"name" gorm:"not null"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Company         string     `json:"company" gorm:"index"`
	Role            string     `json:"role"`
	LinkedInURL     string     `json:"linkedin_url"`
	Relationship    string     `json:"relationship"`
	Notes           string     `json:"notes" gorm:"type:text"`
	LastContactedAt *time.Time `json:"last_contacted_at"`
	FollowUpAt      *time.Time `json:"follow_up_at"`
	JobID           *uint      `json:"job_id" gorm:"index"`
}

func (c *Contact) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return errors.Invalidf("name is required")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return errors.Invalidf("email %q is not valid", c.Email)
	}
	return nil
}
