// Package securitycheck runs a shallow, read-only review of one page: its
// response headers, cookies and markup. It does not probe or attack the
// target.
package securitycheck

import (
	"context"
	"net/http"
	"time"

	"careerhub-backend/config"
	"careerhub-backend/services/stats"
)

// Result is the outcome of one check.
type Result struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Passed   bool   `json:"passed"`
	Detail   string `json:"detail"`
}

type Report struct {
	URL       string    `json:"url"`
	Status    int       `json:"status"`
	CheckedAt time.Time `json:"checked_at"`
	Results   []Result  `json:"results"`
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
	Score     float64   `json:"score"`
}

type Checker struct {
	client *http.Client
	checks []Check
	now    func() time.Time
}

func New(cfg config.SecurityConfig) *Checker {
	return &Checker{client: NewClient(cfg.Timeout, cfg.AllowPrivate), checks: Checks, now: time.Now}
}

// Evaluate runs every check against an already fetched target.
func (c *Checker) Evaluate(t *Target) *Report {
	r := &Report{
		URL:       t.URL.String(),
		Status:    t.Status,
		CheckedAt: c.now().UTC(),
		Results:   make([]Result, 0, len(c.checks)),
	}
	for _, chk := range c.checks {
		passed, detail := chk.Run(t)
		r.Results = append(r.Results, Result{ID: chk.ID, Name: chk.Name, Severity: chk.Severity, Passed: passed, Detail: detail})
		if passed {
			r.Passed++
		} else {
			r.Failed++
		}
	}
	r.Score = stats.Percent(r.Passed, len(c.checks))
	return r
}

// Run fetches rawURL once and evaluates it.
func (c *Checker) Run(ctx context.Context, rawURL string) (*Report, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	t, err := Fetch(ctx, c.client, u)
	if err != nil {
		return nil, err
	}
	return c.Evaluate(t), nil
}
