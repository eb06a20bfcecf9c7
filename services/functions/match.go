package functions

import (
	"strings"

	"careerhub-backend/models/documents"
	"careerhub-backend/models/jobs"
	"careerhub-backend/services/stats"
)

// vocabulary is the set of skills recognized in job descriptions in addition
// to the ones listed on the resume itself.
var vocabulary = []string{
	"go", "golang", "python", "java", "javascript", "typescript", "ruby", "rust", "kotlin", "swift",
	"c++", "c#", "php", "scala", "sql", "postgresql", "mysql", "sqlite", "mongodb", "redis",
	"elasticsearch", "kafka", "rabbitmq", "graphql", "rest", "grpc", "docker", "kubernetes",
	"terraform", "ansible", "aws", "gcp", "azure", "linux", "git", "ci/cd", "react", "vue",
	"angular", "node.js", "django", "flask", "spring", "rails", "html", "css", "tailwind",
	"machine learning", "data analysis", "pandas", "tensorflow", "pytorch", "spark", "airflow",
	"tableau", "excel", "figma", "agile", "scrum", "jira", "product management", "project management",
	"communication", "leadership", "mentoring", "microservices", "distributed systems", "security",
	"testing", "observability", "prometheus", "grafana",
}

type MatchResult struct {
	Score    float64  `json:"score"`
	Matching []string `json:"matching"`
	Missing  []string `json:"missing"`
	Summary  string   `json:"summary"`
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// mentions reports whether term occurs in text as a whole word. Both are
// expected lowercase.
func mentions(text, term string) bool {
	for from := 0; ; {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start, end := from+i, from+i+len(term)
		before := start == 0 || !isWordByte(text[start-1])
		after := end == len(text) || !isWordByte(text[end])
		if before && after {
			return true
		}
		from = start + 1
	}
}

func resumeCorpus(r *documents.Resume) string {
	parts := []string{strings.Join(r.Skills, "\n"), r.Summary, r.SourceText}
	for _, e := range r.Experience {
		parts = append(parts, e.Title, e.Description, strings.Join(e.Highlights, "\n"))
	}
	for _, c := range r.Certifications {
		parts = append(parts, c.Name)
	}
	return strings.ToLower(strings.Join(parts, "\n"))
}

// Match scores how much of the skill set a job mentions is covered by a
// resume. The score is the covered share of the skills the job mentions.
func Match(r *documents.Resume, j *jobs.Job) MatchResult {
	jobText := strings.ToLower(strings.Join([]string{j.Title, j.Description, j.Notes}, "\n"))
	resumeText := resumeCorpus(r)

	seen := map[string]bool{}
	out := MatchResult{Matching: []string{}, Missing: []string{}}
	candidates := append(append([]string{}, r.Skills...), vocabulary...)
	for _, s := range candidates {
		term := strings.ToLower(strings.TrimSpace(s))
		if term == "" || seen[term] || !mentions(jobText, term) {
			continue
		}
		seen[term] = true
		if mentions(resumeText, term) {
			out.Matching = append(out.Matching, term)
		} else {
			out.Missing = append(out.Missing, term)
		}
	}

	required := len(out.Matching) + len(out.Missing)
	out.Score = stats.Percent(len(out.Matching), required)
	switch {
	case required == 0:
		out.Summary = "The job description does not mention any recognized skills."
	case len(out.Missing) == 0:
		out.Summary = "The resume covers every skill the job mentions."
	default:
		out.Summary = "Consider adding evidence for: " + strings.Join(out.Missing, ", ") + "."
	}
	return out
}
