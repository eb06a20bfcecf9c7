// Package resources wires every owned table to its REST routes and the
// column whitelist its list endpoint accepts.
package resources

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"careerhub-backend/controllers/rest"
	"careerhub-backend/models/career"
	"careerhub-backend/models/documents"
	"careerhub-backend/models/interview"
	"careerhub-backend/models/jobs"
	"careerhub-backend/services/events"
	"careerhub-backend/services/notion"
	"careerhub-backend/store"
)

var (
	JobSpec = store.Spec{
		Filters: []string{"status", "company", "work_mode", "external_id"},
		Sorts:   []string{"created_at", "updated_at", "company", "title", "status", "applied_at", "deadline"},
		Search:  []string{"title", "company", "location", "notes"},
	}
	ContactSpec = store.Spec{
		Filters: []string{"company", "relationship", "job_id"},
		Sorts:   []string{"created_at", "name", "company", "last_contacted_at", "follow_up_at"},
		Search:  []string{"name", "company", "role", "email"},
	}
	ResumeSpec = store.Spec{
		Filters: []string{"template"},
		Sorts:   []string{"created_at", "updated_at", "title"},
		Search:  []string{"title", "full_name", "summary"},
	}
	CoverLetterSpec = store.Spec{
		Filters: []string{"job_id", "resume_id", "tone", "company"},
		Sorts:   []string{"created_at", "updated_at", "title", "company"},
		Search:  []string{"title", "company", "position"},
	}
	CertificationSpec = store.Spec{
		Filters: []string{"issuer"},
		Sorts:   []string{"created_at", "name", "issued_on", "expires_on"},
		Search:  []string{"name", "issuer"},
	}
	EmploymentSpec = store.Spec{
		Filters:      []string{"company"},
		Bools:        []string{"current"},
		Sorts:        []string{"start_date", "end_date", "company"},
		Search:       []string{"company", "title", "description"},
		DefaultOrder: "start_date desc",
	}
	CareerPlanSpec = store.Spec{
		Filters: []string{"source"},
		Sorts:   []string{"created_at", "updated_at"},
		Search:  []string{"short_term_goals", "long_term_goals"},
	}
	PredictionSpec = store.Spec{
		Filters: []string{"job_id", "category", "company", "actual_outcome"},
		Sorts:   []string{"created_at", "confidence", "category"},
		Search:  []string{"question", "company", "notes"},
	}
	ResponseSpec = store.Spec{
		Filters: []string{"category"},
		Bools:   []string{"favorite"},
		Sorts:   []string{"created_at", "updated_at", "category"},
		Search:  []string{"question", "answer"},
	}
	ChallengeSpec = store.Spec{
		Filters: []string{"difficulty", "topic", "role", "source"},
		Bools:   []string{"completed"},
		Sorts:   []string{"created_at", "difficulty"},
		Search:  []string{"prompt", "role", "topic"},
	}
)

// Deps are the collaborators of the job hooks.
type Deps struct {
	DB     *gorm.DB
	Broker events.Broker
	Notion notion.Syncer
}

// Mount registers every resource on mux behind protect.
func Mount(mux *http.ServeMux, protect func(http.HandlerFunc) http.Handler, d Deps) {
	db := d.DB

	jobsRes := rest.NewResource[jobs.Job]("jobs", store.NewTable[jobs.Job](db, JobSpec))
	jobsRes.Hooks = NewJobHooks(d.Broker, d.Notion, db).Hooks()
	jobsRes.Mount(mux, protect)

	rest.NewResource[jobs.Contact]("contacts", store.NewTable[jobs.Contact](db, ContactSpec)).Mount(mux, protect)
	rest.NewResource[documents.Resume]("resumes", store.NewTable[documents.Resume](db, ResumeSpec)).Mount(mux, protect)
	rest.NewResource[documents.CoverLetter]("cover-letters", store.NewTable[documents.CoverLetter](db, CoverLetterSpec)).Mount(mux, protect)
	rest.NewResource[career.Certification]("certifications", store.NewTable[career.Certification](db, CertificationSpec)).Mount(mux, protect)
	rest.NewResource[career.Employment]("employment", store.NewTable[career.Employment](db, EmploymentSpec)).Mount(mux, protect)
	rest.NewResource[career.PlanCareer]("career-plans", store.NewTable[career.PlanCareer](db, CareerPlanSpec)).Mount(mux, protect)
	rest.NewResource[interview.Prediction]("predictions", store.NewTable[interview.Prediction](db, PredictionSpec)).Mount(mux, protect)
	rest.NewResource[interview.ResponseEntry]("responses", store.NewTable[interview.ResponseEntry](db, ResponseSpec)).Mount(mux, protect)

	challenges := rest.NewResource[interview.Challenge]("challenges", store.NewTable[interview.Challenge](db, ChallengeSpec))
	challenges.NoCreate = true
	challenges.Mount(mux, protect)
}

// JobHooks stamps pipeline dates, announces status changes and mirrors jobs
// to Notion.
type JobHooks struct {
	broker events.Broker
	notion notion.Syncer
	db     *gorm.DB
	now    func() time.Time
}

func NewJobHooks(broker events.Broker, syncer notion.Syncer, db *gorm.DB) *JobHooks {
	if syncer == nil {
		syncer = notion.Disabled{}
	}
	if broker == nil {
		broker = events.Noop{}
	}
	return &JobHooks{broker: broker, notion: syncer, db: db, now: time.Now}
}

func (j *JobHooks) Hooks() rest.Hooks[jobs.Job] {
	return rest.Hooks[jobs.Job]{BeforeWrite: j.beforeWrite, AfterWrite: j.afterWrite}
}
