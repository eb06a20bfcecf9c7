package career

import (
	"strings"
	"time"

	"careerhub-backend/errors"
	"careerhub-backend/models"
)

type Certification struct {
	models.Base
	Name          string     `json:"name" gorm:"not null"`
	Issuer        string     `json:"issuer"`
	IssuedOn      *time.Time `json:"issued_on"`
	ExpiresOn     *time.Time `json:"expires_on"`
	CredentialID  string     `json:"credential_id"`
	CredentialURL string     `json:"credential_url"`
}

func (c *Certification) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return errors.Invalidf("name is required")
	}
	if c.IssuedOn != nil && c.ExpiresOn != nil && !c.ExpiresOn.After(*c.IssuedOn) {
		return errors.Invalidf("expires_on must be after issued_on")
	}
	return nil
}

// Expired reports whether the certification lapsed before now.
func (c *Certification) Expired(now time.Time) bool {
	return c.ExpiresOn != nil && c.ExpiresOn.Before(now)
}
