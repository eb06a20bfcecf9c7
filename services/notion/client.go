// Package notion mirrors tracked jobs into a Notion database.
package notion

import (
	"context"
	"strings"

	gnt "github.com/dstotijn/go-notion"

	"careerhub-backend/config"
	"careerhub-backend/errors"
	"careerhub-backend/models/jobs"
)

// Syncer writes job pages. Implementations are best effort; callers log
// failures and carry on.
type Syncer interface {
	CreateJobPage(ctx context.Context, job *jobs.Job) (string, error)
	UpdateJobPage(ctx context.Context, job *jobs.Job) error
	Enabled() bool
}

// Disabled is the Syncer used when no Notion token is configured.
type Disabled struct{}

func (Disabled) CreateJobPage(context.Context, *jobs.Job) (string, error) { return "", nil }
func (Disabled) UpdateJobPage(context.Context, *jobs.Job) error           { return nil }
func (Disabled) Enabled() bool                                            { return false }

type Client struct {
	api        *gnt.Client
	databaseID string
}

// New returns a Client, or Disabled when token or database id is missing.
func New(cfg config.NotionConfig, opts ...gnt.ClientOption) Syncer {
	if cfg.Token == "" || cfg.DatabaseID == "" {
		return Disabled{}
	}
	return &Client{api: gnt.NewClient(cfg.Token, opts...), databaseID: cfg.DatabaseID}
}

func (c *Client) Enabled() bool { return true }

// Ping runs a one-row query to check the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.QueryDatabase(ctx, c.databaseID, &gnt.DatabaseQuery{PageSize: 1})
	return errors.Wrap(err, "query notion database")
}

func richText(s string) []gnt.RichText {
	if s == "" {
		return nil
	}
	return []gnt.RichText{{Text: &gnt.Text{Content: s}}}
}

func selectOption(s string) *gnt.SelectOptions {
	return &gnt.SelectOptions{Name: s}
}

// truncate keeps text under the rich text content limit.
func truncate(s string) string {
	const limit = 2000
	if len(s) <= limit {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func jobProperties(job *jobs.Job) gnt.DatabasePageProperties {
	props := gnt.DatabasePageProperties{}

	if job.Title != "" {
		props["Position"] = gnt.DatabasePageProperty{Title: richText(job.Title)}
	}
	if job.Company != "" {
		props["Company"] = gnt.DatabasePageProperty{RichText: richText(job.Company)}
	}
	if job.URL != "" {
		u := job.URL
		props["Job Posting"] = gnt.DatabasePageProperty{URL: &u}
	}
	if job.WorkMode != "" {
		props["Work Mode"] = gnt.DatabasePageProperty{Select: selectOption(capitalize(job.WorkMode))}
	}
	if job.Location != "" {
		props["Location"] = gnt.DatabasePageProperty{RichText: richText(job.Location)}
	}
	if job.Salary != "" {
		props["Salary"] = gnt.DatabasePageProperty{RichText: richText(job.Salary)}
	}
	if job.Status != "" {
		props["Stage"] = gnt.DatabasePageProperty{Select: selectOption(job.Status)}
	}
	if job.Notes != "" {
		props["Notes"] = gnt.DatabasePageProperty{RichText: richText(truncate(job.Notes))}
	}
	if job.AppliedAt != nil {
		props["Applied"] = gnt.DatabasePageProperty{Date: &gnt.Date{Start: gnt.NewDateTime(*job.AppliedAt, false)}}
	}
	if job.Deadline != nil {
		props["Deadline"] = gnt.DatabasePageProperty{Date: &gnt.Date{Start: gnt.NewDateTime(*job.Deadline, false)}}
	}
	return props
}

// CreateJobPage adds a row for job and returns the new page id.
func (c *Client) CreateJobPage(ctx context.Context, job *jobs.Job) (string, error) {
	props := jobProperties(job)
	page, err := c.api.CreatePage(ctx, gnt.CreatePageParams{
		ParentType:             gnt.ParentTypeDatabase,
		ParentID:               c.databaseID,
		DatabasePageProperties: &props,
	})
	if err != nil {
		return "", errors.Wrap(err, "create notion page")
	}
	return page.ID, nil
}

// UpdateJobPage rewrites the properties of a page created earlier.
func (c *Client) UpdateJobPage(ctx context.Context, job *jobs.Job) error {
	if job.NotionPageID == "" {
		return nil
	}
	_, err := c.api.UpdatePage(ctx, job.NotionPageID, gnt.UpdatePageParams{
		DatabasePageProperties: jobProperties(job),
	})
	return errors.Wrap(err, "update notion page")
}
