package interview

import (
	"strings"

	"careerhub-backend/errors"
	"careerhub-backend/models"
)

const (
	SourceAI   = "ai"
	SourceBank = "bank"
)

// Challenge is a generated interview exercise.
type Challenge struct {
	models.Base
	Role       string   `json:"role"`
	Difficulty string   `json:"difficulty"`
	Topic      string   `json:"topic"`
	Prompt     string   `json:"prompt" gorm:"type:text"`
	Hints      []string `json:"hints" gorm:"serializer:json;type:text"`
	Rubric     string   `json:"rubric" gorm:"type:text"`
	Source     string   `json:"source"`
	Completed  bool     `json:"completed"`
}

func (Challenge) TableName() string { return "interview_challenges" }

func (c *Challenge) Validate() error {
	if strings.TrimSpace(c.Prompt) == "" {
		return errors.Invalidf("prompt is required")
	}
	return nil
}
