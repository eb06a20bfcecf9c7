package documents

import (
	"strings"
	"unicode/utf8"

	"careerhub-backend/errors"
	"careerhub-backend/models"
)

const MaxCoverLetterLength = 10000

type CoverLetter struct {
	models.Base
	Title     string `json:"title" gorm:"not null"`
	JobID     *uint  `json:"job_id" gorm:"index"`
	ResumeID  *uint  `json:"resume_id"`
	Company   string `json:"company"`
	Position  string `json:"position"`
	Recipient string `json:"recipient"`
	Tone      string `json:"tone"`
	Content   string `json:"content" gorm:"type:text"`
}

func (c *CoverLetter) Validate() error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return errors.Invalidf("title is required")
	}
	if n := utf8.RuneCountInString(c.Content); n > MaxCoverLetterLength {
		return errors.Invalidf("content is %d characters, the limit is %d", n, MaxCoverLetterLength)
	}
	return nil
}
