package interview

import (
	"strings"

	"careerhub-backend/errors"
	"careerhub-backend/models"
)

const (
	CategoryBehavioral  = "behavioral"
	CategoryTechnical   = "technical"
	CategorySituational = "situational"
	CategoryGeneral     = "general"
)

// ResponseEntry is a prepared answer in the user's response library.
type ResponseEntry struct {
	models.Base
	Question string   `json:"question" gorm:"type:text;not null"`
	Answer   string   `json:"answer" gorm:"type:text;not null"`
	Category string   `json:"category" gorm:"index"`
	Tags     []string `json:"tags" gorm:"serializer:json;type:text"`
	Favorite bool     `json:"favorite"`
}

func (ResponseEntry) TableName() string { return "response_library" }

func (r *ResponseEntry) Validate() error {
	if strings.TrimSpace(r.Question) == "" || strings.TrimSpace(r.Answer) == "" {
		return errors.Invalidf("question and answer are required")
	}
	if r.Category == "" {
		r.Category = CategoryGeneral
	}
	switch r.Category {
	case CategoryBehavioral, CategoryTechnical, CategorySituational, CategoryGeneral:
	default:
		return errors.Invalidf("unknown category %q", r.Category)
	}
	return nil
}
