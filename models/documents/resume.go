package documents

import (
	"strings"
	"time"

	"careerhub-backend/errors"
	"careerhub-backend/models"
)

type ExperienceEntry struct {
	Company     string     `json:"company"`
	Title       string     `json:"title"`
	Location    string     `json:"location,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Current     bool       `json:"current,omitempty"`
	Description string     `json:"description,omitempty"`
	Highlights  []string   `json:"highlights,omitempty"`
}

type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartYear   int    `json:"start_year,omitempty"`
	EndYear     int    `json:"end_year,omitempty"`
}

type CertificationEntry struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Year   int    `json:"year,omitempty"`
}

type Resume struct {
	models.Base
	Title          string               `json:"title" gorm:"not null"`
	FullName       string               `json:"full_name"`
	Email          string               `json:"email"`
	Phone          string               `json:"phone"`
	Location       string               `json:"location"`
	Website        string               `json:"website"`
	Summary        string               `json:"summary" gorm:"type:text"`
	Skills         []string             `json:"skills" gorm:"serializer:json;type:text"`
	Experience     []ExperienceEntry    `json:"experience" gorm:"serializer:json;type:text"`
	Education      []EducationEntry     `json:"education" gorm:"serializer:json;type:text"`
	Certifications []CertificationEntry `json:"certifications" gorm:"serializer:json;type:text"`
	Template       string               `json:"template"`
	SourceText     string               `json:"source_text,omitempty" gorm:"type:text"`
}

func (r *Resume) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return errors.Invalidf("title is required")
	}
	for i, e := range r.Experience {
		if strings.TrimSpace(e.Company) == "" || strings.TrimSpace(e.Title) == "" {
			return errors.Invalidf("experience[%d]: company and title are required", i)
		}
		if e.StartDate != nil && e.EndDate != nil && e.EndDate.Before(*e.StartDate) {
			return errors.Invalidf("experience[%d]: end_date is before start_date", i)
		}
		if e.Current && e.EndDate != nil {
			return errors.Invalidf("experience[%d]: a current role has no end_date", i)
		}
	}
	for i, e := range r.Education {
		if strings.TrimSpace(e.Institution) == "" {
			return errors.Invalidf("education[%d]: institution is required", i)
		}
		if e.StartYear != 0 && e.EndYear != 0 && e.EndYear < e.StartYear {
			return errors.Invalidf("education[%d]: end_year is before start_year", i)
		}
	}
	return nil
}
