package interview

import (
	"strings"

	"careerhub-backend/errors"
	"careerhub-backend/models"
)

// Prediction is the user's guess about an interview before it happens. Once
// ActualOutcome is filled the prediction counts toward accuracy.
type Prediction struct {
	models.Base
	JobID            *uint  `json:"job_id" gorm:"index"`
	Company          string `json:"company"`
	Category         string `json:"category" gorm:"index"`
	Question         string `json:"question" gorm:"type:text"`
	PredictedOutcome string `json:"predicted_outcome" gorm:"not null"`
	Confidence       int    `json:"confidence"`
	ActualOutcome    string `json:"actual_outcome"`
	Notes            string `json:"notes" gorm:"type:text"`
}

func (Prediction) TableName() string { return "interview_predictions" }

func (p *Prediction) Validate() error {
	if strings.TrimSpace(p.PredictedOutcome) == "" {
		return errors.Invalidf("predicted_outcome is required")
	}
	if p.Confidence < 0 || p.Confidence > 100 {
		return errors.Invalidf("confidence must be between 0 and 100")
	}
	return nil
}

// Resolved reports whether the actual outcome is known.
func (p *Prediction) Resolved() bool {
	return strings.TrimSpace(p.ActualOutcome) != ""
}

// Correct reports whether a resolved prediction matched the outcome, ignoring
// case and surrounding space.
func (p *Prediction) Correct() bool {
	return p.Resolved() && strings.EqualFold(strings.TrimSpace(p.PredictedOutcome), strings.TrimSpace(p.ActualOutcome))
}
