// Package stats computes the derived statistics shown on dashboards:
// profile completeness, prediction accuracy and job-search response rates.
// Every function is a single pass over rows the caller already loaded.
package stats

import (
	"math"
	"sort"
	"strings"

	"careerhub-backend/models/interview"
	"careerhub-backend/models/jobs"
	"careerhub-backend/models/users"
)

// Percent returns part/whole as a percentage rounded to one decimal. A zero
// whole yields 0.
func Percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return round1(float64(part) * 100 / float64(whole))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ProfileSnapshot is what completeness looks at.
type ProfileSnapshot struct {
	User            users.User
	ResumeCount     int64
	EmploymentCount int64
}

// CompletenessItem is one weighted checklist entry.
type CompletenessItem struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Weight int    `json:"weight"`
	Done   bool   `json:"done"`
}

type Completeness struct {
	Percent float64            `json:"percent"`
	Items   []CompletenessItem `json:"items"`
	Missing []string           `json:"missing"`
}

type check struct {
	key, label string
	weight     int
	done       func(ProfileSnapshot) bool
}

func filled(s string) bool { return strings.TrimSpace(s) != "" }

var completenessChecks = []check{
	{"name", "Full name", 10, func(p ProfileSnapshot) bool { return filled(p.User.Name) }},
	{"email", "Email address", 10, func(p ProfileSnapshot) bool { return filled(p.User.Email) }},
	{"headline", "Professional headline", 10, func(p ProfileSnapshot) bool { return filled(p.User.Headline) }},
	{"location", "Location", 5, func(p ProfileSnapshot) bool { return filled(p.User.Location) }},
	{"phone", "Phone number", 5, func(p ProfileSnapshot) bool { return filled(p.User.Phone) }},
	{"summary", "Profile summary", 15, func(p ProfileSnapshot) bool { return filled(p.User.Summary) }},
	{"linkedin", "LinkedIn profile", 5, func(p ProfileSnapshot) bool { return filled(p.User.LinkedInURL) }},
	{"website", "Personal website", 5, func(p ProfileSnapshot) bool { return filled(p.User.WebsiteURL) }},
	{"skills", "At least one skill", 10, func(p ProfileSnapshot) bool { return len(p.User.Skills) > 0 }},
	{"resume", "At least one resume", 15, func(p ProfileSnapshot) bool { return p.ResumeCount > 0 }},
	{"employment", "Employment history", 10, func(p ProfileSnapshot) bool { return p.EmploymentCount > 0 }},
}

// ProfileCompleteness scores a profile against the weighted checklist. The
// weights add up to 100.
func ProfileCompleteness(p ProfileSnapshot) Completeness {
	out := Completeness{Items: make([]CompletenessItem, 0, len(completenessChecks)), Missing: []string{}}
	total, earned := 0, 0
	for _, c := range completenessChecks {
		done := c.done(p)
		total += c.weight
		if done {
			earned += c.weight
		} else {
			out.Missing = append(out.Missing, c.key)
		}
		out.Items = append(out.Items, CompletenessItem{Key: c.key, Label: c.label, Weight: c.weight, Done: done})
	}
	out.Percent = Percent(earned, total)
	return out
}

// CategoryAccuracy is accuracy restricted to one prediction category.
type CategoryAccuracy struct {
	Category string  `json:"category"`
	Resolved int     `json:"resolved"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

type PredictionAccuracy struct {
	Total             int                `json:"total"`
	Resolved          int                `json:"resolved"`
	Pending           int                `json:"pending"`
	Correct           int                `json:"correct"`
	Accuracy          float64            `json:"accuracy"`
	AverageConfidence float64            `json:"average_confidence"`
	ByCategory        []CategoryAccuracy `json:"by_category"`
}

// PredictionStats aggregates accuracy over resolved predictions. Unresolved
// predictions only count toward Total, Pending and AverageConfidence.
func PredictionStats(preds []interview.Prediction) PredictionAccuracy {
	out := PredictionAccuracy{Total: len(preds), ByCategory: []CategoryAccuracy{}}
	cats := map[string]*CategoryAccuracy{}
	confidence := 0

	for i := range preds {
		p := &preds[i]
		confidence += p.Confidence
		if !p.Resolved() {
			out.Pending++
			continue
		}
		out.Resolved++

		name := strings.ToLower(strings.TrimSpace(p.Category))
		if name == "" {
			name = "uncategorized"
		}
		c, ok := cats[name]
		if !ok {
			c = &CategoryAccuracy{Category: name}
			cats[name] = c
		}
		c.Resolved++
		if p.Correct() {
			out.Correct++
			c.Correct++
		}
	}

	out.Accuracy = Percent(out.Correct, out.Resolved)
	if out.Total > 0 {
		out.AverageConfidence = round1(float64(confidence) / float64(out.Total))
	}
	for _, c := range cats {
		c.Accuracy = Percent(c.Correct, c.Resolved)
		out.ByCategory = append(out.ByCategory, *c)
	}
	sort.Slice(out.ByCategory, func(i, j int) bool { return out.ByCategory[i].Category < out.ByCategory[j].Category })
	return out
}

type JobSearch struct {
	Total                 int            `json:"total"`
	StatusCounts          map[string]int `json:"status_counts"`
	Applied               int            `json:"applied"`
	Responded             int            `json:"responded"`
	Interviews            int            `json:"interviews"`
	Offers                int            `json:"offers"`
	ResponseRate          float64        `json:"response_rate"`
	InterviewRate         float64        `json:"interview_rate"`
	OfferRate             float64        `json:"offer_rate"`
	AverageDaysToResponse float64        `json:"average_days_to_response"`
}

// JobSearchStats summarizes the application pipeline. A job counts as applied
// once it moved past "saved"; it counts as responded when its status is an
// employer answer or a response date is recorded.
func JobSearchStats(rows []jobs.Job) JobSearch {
	out := JobSearch{Total: len(rows), StatusCounts: map[string]int{}}
	for _, s := range jobs.Statuses {
		out.StatusCounts[s] = 0
	}

	var days float64
	timed := 0
	for i := range rows {
		j := &rows[i]
		out.StatusCounts[j.Status]++
		if j.Status == jobs.StatusSaved && j.AppliedAt == nil {
			continue
		}
		out.Applied++

		if jobs.IsResponse(j.Status) || j.RespondedAt != nil {
			out.Responded++
		}
		switch j.Status {
		case jobs.StatusInterviewing:
			out.Interviews++
		case jobs.StatusOffer, jobs.StatusAccepted:
			out.Interviews++
			out.Offers++
		}
		if j.AppliedAt != nil && j.RespondedAt != nil {
			days += j.RespondedAt.Sub(*j.AppliedAt).Hours() / 24
			timed++
		}
	}

	out.ResponseRate = Percent(out.Responded, out.Applied)
	out.InterviewRate = Percent(out.Interviews, out.Applied)
	out.OfferRate = Percent(out.Offers, out.Applied)
	if timed > 0 {
		out.AverageDaysToResponse = round1(days / float64(timed))
	}
	return out
}
