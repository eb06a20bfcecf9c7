package resources

import (
	"context"

	"careerhub-backend/logger"
	"careerhub-backend/models/jobs"
	"careerhub-backend/services/events"
)

// StatusChange is the payload of a job.status_changed event.
type StatusChange struct {
	JobID   uint   `json:"job_id"`
	Title   string `json:"title"`
	Company string `json:"company"`
	From    string `json:"from"`
	To      string `json:"to"`
}

func (j *JobHooks) beforeWrite(_ context.Context, _ uint, row, prev *jobs.Job) error {
	row.Stamp(prev, j.now())
	return nil
}

// afterWrite runs after the row is stored. Event and Notion failures are
// logged and never fail the request.
func (j *JobHooks) afterWrite(ctx context.Context, owner uint, row, prev *jobs.Job) {
	log := logger.FromContext(ctx, logger.ComponentLogger("jobs"))

	if prev != nil && prev.Status != row.Status {
		ev := events.Event{
			Type:      events.JobStatusChanged,
			UserID:    owner,
			Timestamp: j.now().UTC(),
			Data: StatusChange{
				JobID: row.ID, Title: row.Title, Company: row.Company,
				From: prev.Status, To: row.Status,
			},
		}
		if err := j.broker.Publish(ctx, ev); err != nil {
			log.Warnw("publish status change", "job_id", row.ID, logger.FieldError, err)
		}
	}

	if !j.notion.Enabled() {
		return
	}
	if row.NotionPageID != "" {
		if err := j.notion.UpdateJobPage(ctx, row); err != nil {
			log.Warnw("notion update failed", "job_id", row.ID, logger.FieldError, err)
		}
		return
	}
	pageID, err := j.notion.CreateJobPage(ctx, row)
	if err != nil {
		log.Warnw("notion create failed", "job_id", row.ID, logger.FieldError, err)
		return
	}
	if err := j.db.WithContext(ctx).Model(row).UpdateColumn("notion_page_id", pageID).Error; err != nil {
		log.Warnw("store notion page id", "job_id", row.ID, logger.FieldError, err)
		return
	}
	row.NotionPageID = pageID
}
