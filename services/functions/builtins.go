package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"careerhub-backend/errors"
	"careerhub-backend/logger"
	"careerhub-backend/models/career"
	"careerhub-backend/models/documents"
	"careerhub-backend/models/interview"
	"careerhub-backend/models/jobs"
	"careerhub-backend/services/ai"
	"careerhub-backend/services/export"
	"careerhub-backend/services/importer"
	"careerhub-backend/services/questionbank"
	"careerhub-backend/services/stats"
	"careerhub-backend/store"
)

// Names of the built-in functions.
const (
	GenerateInterviewChallenge = "generate-interview-challenge"
	CalculatePredictions       = "calculate-predictions"
	GenerateCoverLetter        = "generate-cover-letter"
	EnrichJob                  = "enrich-job"
	AnalyzeResumeMatch         = "analyze-resume-match"
	GenerateCareerPlan         = "generate-career-plan"
	ExportDocument             = "export-document"
	ImportResume               = "import-resume"
)

// Deps are the services the built-in functions run against.
type Deps struct {
	DB      *gorm.DB
	AI      ai.Completer
	Bank    *questionbank.Bank
	Exports *export.Service
	Imports *importer.Service
}

type builtins struct {
	Deps
	jobs        *store.Table[jobs.Job, *jobs.Job]
	resumes     *store.Table[documents.Resume, *documents.Resume]
	letters     *store.Table[documents.CoverLetter, *documents.CoverLetter]
	plans       *store.Table[career.PlanCareer, *career.PlanCareer]
	predictions *store.Table[interview.Prediction, *interview.Prediction]
	challenges  *store.Table[interview.Challenge, *interview.Challenge]
	logger      *zap.SugaredLogger
}

// RegisterBuiltins installs every built-in function on r.
func RegisterBuiltins(r *Registry, d Deps) {
	if d.AI == nil {
		d.AI = ai.Unavailable{}
	}
	if d.Bank == nil {
		d.Bank = questionbank.Default()
	}
	b := &builtins{
		Deps:        d,
		jobs:        store.NewTable[jobs.Job](d.DB, store.Spec{}),
		resumes:     store.NewTable[documents.Resume](d.DB, store.Spec{}),
		letters:     store.NewTable[documents.CoverLetter](d.DB, store.Spec{}),
		plans:       store.NewTable[career.PlanCareer](d.DB, store.Spec{}),
		predictions: store.NewTable[interview.Prediction](d.DB, store.Spec{}),
		challenges:  store.NewTable[interview.Challenge](d.DB, store.Spec{}),
		logger:      logger.ComponentLogger("functions"),
	}
	r.Register(GenerateInterviewChallenge, b.generateChallenge)
	r.Register(CalculatePredictions, b.calculatePredictions)
	r.Register(GenerateCoverLetter, b.generateCoverLetter)
	r.Register(EnrichJob, b.enrichJob)
	r.Register(AnalyzeResumeMatch, b.analyzeResumeMatch)
	r.Register(GenerateCareerPlan, b.generateCareerPlan)
	if d.Exports != nil {
		r.Register(ExportDocument, b.exportDocument)
	}
	if d.Imports != nil {
		r.Register(ImportResume, b.importResume)
	}
}

const (
	challengeSystem = `You write interview practice challenges. Reply with JSON only:
{"prompt": string, "hints": [string], "rubric": string}`
	coverLetterSystem = "You write concise, specific cover letters in plain text without a subject line or placeholders."
	enrichSystem      = `You help a job seeker prepare. Reply with JSON only:
{"summary": string, "talking_points": [string]}`
	careerPlanSystem = "You are a career strategy assistant. Answer with a numbered, step-by-step plan including skills to build and resources."
)

type challengeRequest struct {
	Role       string `json:"role"`
	Difficulty string `json:"difficulty"`
	Topic      string `json:"topic"`
}

type generatedChallenge struct {
	Prompt string   `json:"prompt"`
	Hints  []string `json:"hints"`
	Rubric string   `json:"rubric"`
}

func (b *builtins) generateChallenge(ctx context.Context, call Call) (interface{}, error) {
	req, err := Decode[challengeRequest](call.Body)
	if err != nil {
		return nil, err
	}
	req.Difficulty = strings.ToLower(strings.TrimSpace(req.Difficulty))
	switch req.Difficulty {
	case "":
		req.Difficulty = "medium"
	case "easy", "medium", "hard":
	default:
		return nil, errors.Invalidf("difficulty must be easy, medium or hard")
	}

	ch := &interview.Challenge{Role: req.Role, Difficulty: req.Difficulty, Topic: req.Topic}
	if ai.IsAvailable(b.AI) {
		prompt := fmt.Sprintf("Role: %s\nDifficulty: %s\nTopic: %s\nWrite one challenge.", req.Role, req.Difficulty, req.Topic)
		out, err := b.AI.Complete(ctx, challengeSystem, prompt)
		var g generatedChallenge
		switch {
		case err != nil:
			logger.FromContext(ctx, b.logger).Warnw("AI challenge failed, using question bank", logger.FieldError, err)
		case json.Unmarshal([]byte(ai.CleanJSON(out)), &g) != nil || strings.TrimSpace(g.Prompt) == "":
			logger.FromContext(ctx, b.logger).Warnw("AI challenge unparseable, using question bank")
		default:
			ch.Prompt, ch.Hints, ch.Rubric, ch.Source = g.Prompt, g.Hints, g.Rubric, interview.SourceAI
		}
	}
	if ch.Prompt == "" {
		q := b.Bank.Pick(req.Difficulty, req.Topic, nil)
		ch.Prompt, ch.Hints, ch.Rubric, ch.Source = q.Prompt, q.Hints, q.Rubric, interview.SourceBank
		ch.Difficulty = q.Difficulty
		if ch.Topic == "" {
			ch.Topic = q.Topic
		}
	}
	if err := b.challenges.Create(ctx, call.UserID, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

func (b *builtins) calculatePredictions(ctx context.Context, call Call) (interface{}, error) {
	preds, err := b.predictions.All(ctx, call.UserID)
	if err != nil {
		return nil, err
	}
	return stats.PredictionStats(preds), nil
}

type coverLetterRequest struct {
	JobID    uint   `json:"job_id"`
	ResumeID uint   `json:"resume_id"`
	Tone     string `json:"tone"`
}

func (b *builtins) generateCoverLetter(ctx context.Context, call Call) (interface{}, error) {
	req, err := Decode[coverLetterRequest](call.Body)
	if err != nil {
		return nil, err
	}
	if req.JobID == 0 {
		return nil, errors.Invalidf("job_id is required")
	}
	if req.Tone == "" {
		req.Tone = "professional"
	}
	job, err := b.jobs.Get(ctx, call.UserID, req.JobID)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a %s cover letter for the %s position at %s.\n", req.Tone, job.Title, job.Company)
	if job.Description != "" {
		fmt.Fprintf(&sb, "Job description:\n%s\n", job.Description)
	}
	letter := &documents.CoverLetter{
		Title:    fmt.Sprintf("%s at %s", job.Title, job.Company),
		JobID:    &job.ID,
		Company:  job.Company,
		Position: job.Title,
		Tone:     req.Tone,
	}
	if req.ResumeID != 0 {
		resume, err := b.resumes.Get(ctx, call.UserID, req.ResumeID)
		if err != nil {
			return nil, err
		}
		letter.ResumeID = &resume.ID
		fmt.Fprintf(&sb, "Candidate resume:\n%s\n", export.Text(export.FromResume(resume)))
	}

	out, err := b.AI.Complete(ctx, coverLetterSystem, sb.String())
	if err != nil {
		return nil, err
	}
	letter.Content = strings.TrimSpace(out)
	if err := letter.Validate(); err != nil {
		return nil, err
	}
	if err := b.letters.Create(ctx, call.UserID, letter); err != nil {
		return nil, err
	}
	return letter, nil
}

type jobRequest struct {
	JobID uint `json:"job_id"`
}

type enrichment struct {
	Summary       string   `json:"summary"`
	TalkingPoints []string `json:"talking_points"`
}

func (b *builtins) enrichJob(ctx context.Context, call Call) (interface{}, error) {
	req, err := Decode[jobRequest](call.Body)
	if err != nil {
		return nil, err
	}
	job, err := b.jobs.Get(ctx, call.UserID, req.JobID)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Position: %s\nCompany: %s\nLocation: %s\nDescription:\n%s",
		job.Title, job.Company, job.Location, job.Description)
	out, err := b.AI.Complete(ctx, enrichSystem, prompt)
	if err != nil {
		return nil, err
	}
	var e enrichment
	if json.Unmarshal([]byte(ai.CleanJSON(out)), &e) != nil {
		e = enrichment{Summary: strings.TrimSpace(out)}
	}

	var notes strings.Builder
	notes.WriteString(strings.TrimSpace(job.Notes))
	if notes.Len() > 0 {
		notes.WriteString("\n\n")
	}
	notes.WriteString("Summary: " + e.Summary)
	for _, p := range e.TalkingPoints {
		notes.WriteString("\n- " + p)
	}
	job.Notes = notes.String()
	if err := b.jobs.Save(ctx, call.UserID, job); err != nil {
		return nil, err
	}
	return map[string]interface{}{"job": job, "summary": e.Summary, "talking_points": e.TalkingPoints}, nil
}

type matchRequest struct {
	ResumeID uint `json:"resume_id"`
	JobID    uint `json:"job_id"`
}

func (b *builtins) analyzeResumeMatch(ctx context.Context, call Call) (interface{}, error) {
	req, err := Decode[matchRequest](call.Body)
	if err != nil {
		return nil, err
	}
	resume, err := b.resumes.Get(ctx, call.UserID, req.ResumeID)
	if err != nil {
		return nil, err
	}
	job, err := b.jobs.Get(ctx, call.UserID, req.JobID)
	if err != nil {
		return nil, err
	}
	return Match(resume, job), nil
}

type careerPlanRequest struct {
	ShortTermGoals string `json:"short_term_goals"`
	LongTermGoals  string `json:"long_term_goals"`
}

func (b *builtins) generateCareerPlan(ctx context.Context, call Call) (interface{}, error) {
	req, err := Decode[careerPlanRequest](call.Body)
	if err != nil {
		return nil, err
	}
	plan := &career.PlanCareer{ShortTermGoals: req.ShortTermGoals, LongTermGoals: req.LongTermGoals}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf("Short-term goals: %s\nLong-term goals: %s\nCreate a step-by-step career strategy.",
		req.ShortTermGoals, req.LongTermGoals)
	out, err := b.AI.Complete(ctx, careerPlanSystem, prompt)
	if err != nil {
		return nil, err
	}
	plan.Steps = strings.TrimSpace(out)
	plan.Source = "ai"
	if err := b.plans.Create(ctx, call.UserID, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

type exportRequest struct {
	export.Request
	Async bool `json:"async"`
}

type inlineExport struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
}

type storedExport struct {
	Export      *documents.Export `json:"export"`
	DownloadURL string            `json:"download_url,omitempty"`
}

func (b *builtins) exportDocument(ctx context.Context, call Call) (interface{}, error) {
	req, err := Decode[exportRequest](call.Body)
	if err != nil {
		return nil, err
	}
	if !req.Async && (req.Format == documents.FormatText || req.Format == documents.FormatHTML) {
		f, err := b.Exports.Render(ctx, call.UserID, req.Request)
		if err != nil {
			return nil, err
		}
		return inlineExport{Filename: f.Filename, ContentType: f.ContentType, Content: string(f.Data)}, nil
	}
	exp, err := b.Exports.Start(ctx, call.UserID, req.Request, req.Async)
	if err != nil {
		return nil, err
	}
	return storedExport{Export: exp, DownloadURL: b.Exports.DownloadURL(ctx, exp)}, nil
}

type importRequest struct {
	ObjectKey string `json:"object_key"`
	MIME      string `json:"mime"`
}

func (b *builtins) importResume(ctx context.Context, call Call) (interface{}, error) {
	req, err := Decode[importRequest](call.Body)
	if err != nil {
		return nil, err
	}
	if req.ObjectKey == "" {
		return nil, errors.Invalidf("object_key is required")
	}
	res, err := b.Imports.FromObject(ctx, call.UserID, req.ObjectKey, req.MIME)
	if err != nil {
		return nil, err
	}
	return res, nil
}
