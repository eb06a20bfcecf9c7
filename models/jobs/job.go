package jobs

import (
	"strings"
	"time"

	"careerhub-backend/errors"
	"careerhub-backend/models"
)

// Application pipeline stages.
const (
	StatusSaved        = "saved"
	StatusApplied      = "applied"
	StatusScreening    = "screening"
	StatusInterviewing = "interviewing"
	StatusOffer        = "offer"
	StatusRejected     = "rejected"
	StatusAccepted     = "accepted"
	StatusWithdrawn    = "withdrawn"
)

// Statuses in pipeline order.
var Statuses = []string{
	StatusSaved, StatusApplied, StatusScreening, StatusInterviewing,
	StatusOffer, StatusRejected, StatusAccepted, StatusWithdrawn,
}

// Work modes.
const (
	WorkRemote = "remote"
	WorkHybrid = "hybrid"
	WorkOnsite = "onsite"
)

type Job struct {
	models.Base
	Title        string     `json:"title" gorm:"not null"`
	Company      string     `json:"company" gorm:"not null;index"`
	Location     string     `json:"location"`
	URL          string     `json:"url"`
	WorkMode     string     `json:"work_mode"`
	Salary       string     `json:"salary"`
	Description  string     `json:"description" gorm:"type:text"`
	Status       string     `json:"status" gorm:"not null;default:saved;index"`
	AppliedAt    *time.Time `json:"applied_at"`
	RespondedAt  *time.Time `json:"responded_at"`
	Deadline     *time.Time `json:"deadline"`
	Notes        string     `json:"notes" gorm:"type:text"`
	ExternalID   string     `json:"external_id" gorm:"index"`
	NotionPageID string     `json:"notion_page_id"`
}

// IsKnownStatus reports whether s is a pipeline stage.
func IsKnownStatus(s string) bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// IsResponse reports whether the employer has answered at this stage.
func IsResponse(status string) bool {
	switch status {
	case StatusScreening, StatusInterviewing, StatusOffer, StatusRejected, StatusAccepted:
		return true
	}
	return false
}

func (j *Job) Validate() error {
	j.Title = strings.TrimSpace(j.Title)
	j.Company = strings.TrimSpace(j.Company)
	if j.Title == "" || j.Company == "" {
		return errors.Invalidf("title and company are required")
	}
	if j.Status == "" {
		j.Status = StatusSaved
	}
	if !IsKnownStatus(j.Status) {
		return errors.WithHintf(errors.Invalidf("unknown status %q", j.Status),
			"use one of %s", strings.Join(Statuses, ", "))
	}
	switch j.WorkMode {
	case "", WorkRemote, WorkHybrid, WorkOnsite:
	default:
		return errors.Invalidf("work_mode must be remote, hybrid or onsite")
	}
	if j.AppliedAt != nil && j.RespondedAt != nil && j.RespondedAt.Before(*j.AppliedAt) {
		return errors.Invalidf("responded_at is before applied_at")
	}
	return nil
}

// Stamp fills the pipeline timestamps implied by a status change. prev is
// nil for a new job.
func (j *Job) Stamp(prev *Job, now time.Time) {
	prevStatus := ""
	if prev != nil {
		prevStatus = prev.Status
	}
	if j.Status == prevStatus {
		return
	}
	if j.Status != StatusSaved && j.AppliedAt == nil {
		t := now
		j.AppliedAt = &t
	}
	if IsResponse(j.Status) && j.RespondedAt == nil {
		t := now
		j.RespondedAt = &t
	}
}
