// Package export renders resumes and cover letters into downloadable files.
//
// Both kinds are first flattened into a Document, so every output format
// walks the same structure and section order.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"careerhub-backend/models/documents"
)

// Document is the format-neutral shape of an exported file.
type Document struct {
	Title    string
	Name     string
	Contact  []string
	Sections []Section
}

type Section struct {
	Heading string
	Entries []Entry
}

// Entry is one block inside a section. Only Body is set for free text.
type Entry struct {
	Heading string
	Meta    string
	Body    string
	Bullets []string
}

// ContactLine joins the contact fields with a separator.
func (d Document) ContactLine() string {
	return strings.Join(d.Contact, " | ")
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

const monthLayout = "Jan 2006"

func dateRange(start, end *time.Time, current bool) string {
	var from, to string
	if start != nil {
		from = start.Format(monthLayout)
	}
	switch {
	case current:
		to = "Present"
	case end != nil:
		to = end.Format(monthLayout)
	}
	switch {
	case from != "" && to != "":
		return from + " - " + to
	case from != "":
		return from
	default:
		return to
	}
}

func yearRange(start, end int) string {
	switch {
	case start != 0 && end != 0:
		return fmt.Sprintf("%d - %d", start, end)
	case end != 0:
		return strconv.Itoa(end)
	case start != 0:
		return strconv.Itoa(start)
	}
	return ""
}

// FromResume lays a resume out as header, summary, experience, education,
// skills and certifications. Empty sections are left out.
func FromResume(r *documents.Resume) Document {
	name := strings.TrimSpace(r.FullName)
	if name == "" {
		name = r.Title
	}
	doc := Document{
		Title:   r.Title,
		Name:    name,
		Contact: nonEmpty(r.Email, r.Phone, r.Location, r.Website),
	}

	if s := strings.TrimSpace(r.Summary); s != "" {
		doc.Sections = append(doc.Sections, Section{Heading: "Summary", Entries: []Entry{{Body: s}}})
	}

	if len(r.Experience) > 0 {
		sec := Section{Heading: "Experience"}
		for _, e := range r.Experience {
			heading := e.Title
			if e.Company != "" {
				heading += ", " + e.Company
			}
			sec.Entries = append(sec.Entries, Entry{
				Heading: heading,
				Meta:    strings.Join(nonEmpty(dateRange(e.StartDate, e.EndDate, e.Current), e.Location), " | "),
				Body:    strings.TrimSpace(e.Description),
				Bullets: nonEmpty(e.Highlights...),
			})
		}
		doc.Sections = append(doc.Sections, sec)
	}

	if len(r.Education) > 0 {
		sec := Section{Heading: "Education"}
		for _, e := range r.Education {
			degree := strings.Join(nonEmpty(e.Degree, e.Field), ", ")
			heading := e.Institution
			if degree != "" {
				heading = degree + ", " + e.Institution
			}
			sec.Entries = append(sec.Entries, Entry{Heading: heading, Meta: yearRange(e.StartYear, e.EndYear)})
		}
		doc.Sections = append(doc.Sections, sec)
	}

	if skills := nonEmpty(r.Skills...); len(skills) > 0 {
		doc.Sections = append(doc.Sections, Section{Heading: "Skills", Entries: []Entry{{Body: strings.Join(skills, ", ")}}})
	}

	if len(r.Certifications) > 0 {
		sec := Section{Heading: "Certifications"}
		for _, c := range r.Certifications {
			year := ""
			if c.Year != 0 {
				year = strconv.Itoa(c.Year)
			}
			sec.Entries = append(sec.Entries, Entry{Heading: c.Name, Meta: strings.Join(nonEmpty(c.Issuer, year), " | ")})
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc
}

// FromCoverLetter renders a letter as a header followed by its body.
func FromCoverLetter(c *documents.CoverLetter) Document {
	doc := Document{
		Title:   c.Title,
		Name:    c.Title,
		Contact: nonEmpty(c.Recipient, c.Company, c.Position),
	}
	var entries []Entry
	for _, p := range strings.Split(strings.ReplaceAll(c.Content, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			entries = append(entries, Entry{Body: p})
		}
	}
	if len(entries) > 0 {
		doc.Sections = []Section{{Entries: entries}}
	}
	return doc
}

// Filename returns a filesystem-safe name for the rendered document.
func Filename(title, format string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		name = "document"
	}
	return name + "." + format
}
