package career

import (
	"strings"

	"careerhub-backend/errors"
	"careerhub-backend/models"
)

type PlanCareer struct {
	models.Base
	ShortTermGoals string `json:"short_term_goals" gorm:"type:text"`
	LongTermGoals  string `json:"long_term_goals" gorm:"type:text"`
	Steps          string `json:"steps" gorm:"type:text"`
	Source         string `json:"source"`
}

func (PlanCareer) TableName() string { return "career_plans" }

func (p *PlanCareer) Validate() error {
	if strings.TrimSpace(p.ShortTermGoals) == "" && strings.TrimSpace(p.LongTermGoals) == "" {
		return errors.Invalidf("at least one of short_term_goals or long_term_goals is required")
	}
	return nil
}
