package career

import (
	"strings"
	"time"

	"careerhub-backend/errors"
	"careerhub-backend/models"
)

// Employment is one entry of the user's work history.
type Employment struct {
	models.Base
	Company     string     `json:"company" gorm:"not null"`
	Title       string     `json:"title" gorm:"not null"`
	Location    string     `json:"location"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Current     bool       `json:"current"`
	Description string     `json:"description" gorm:"type:text"`
}

func (Employment) TableName() string { return "employment_history" }

func (e *Employment) Validate() error {
	e.Company = strings.TrimSpace(e.Company)
	e.Title = strings.TrimSpace(e.Title)
	if e.Company == "" || e.Title == "" {
		return errors.Invalidf("company and title are required")
	}
	if e.StartDate.IsZero() {
		return errors.Invalidf("start_date is required")
	}
	if e.Current && e.EndDate != nil {
		return errors.WithHint(errors.Invalidf("a current position has no end_date"),
			"clear end_date or set current to false")
	}
	if e.EndDate != nil && e.EndDate.Before(e.StartDate) {
		return errors.Invalidf("end_date is before start_date")
	}
	return nil
}
