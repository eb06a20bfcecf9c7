package export

import (
	"strings"
)

// Text renders doc as plain text with underlined section headings.
func Text(doc Document) []byte {
	return []byte(textLines(doc, "\n"))
}

// textBody renders everything below the header, joined with sep.
func textBody(doc Document, sep string) string {
	var lines []string
	for i, sec := range doc.Sections {
		if i > 0 {
			lines = append(lines, "")
		}
		if sec.Heading != "" {
			lines = append(lines, strings.ToUpper(sec.Heading), strings.Repeat("-", len(sec.Heading)))
		}
		for j, e := range sec.Entries {
			if j > 0 && (e.Heading != "" || sec.Heading == "") {
				lines = append(lines, "")
			}
			if e.Heading != "" {
				lines = append(lines, e.Heading)
			}
			if e.Meta != "" {
				lines = append(lines, e.Meta)
			}
			if e.Body != "" {
				lines = append(lines, e.Body)
			}
			for _, b := range e.Bullets {
				lines = append(lines, "  - "+b)
			}
		}
	}
	return strings.Join(lines, sep)
}

func textLines(doc Document, sep string) string {
	var b strings.Builder
	b.WriteString(doc.Name)
	if c := doc.ContactLine(); c != "" {
		b.WriteString(sep)
		b.WriteString(c)
	}
	if body := textBody(doc, sep); body != "" {
		b.WriteString(sep)
		b.WriteString(sep)
		b.WriteString(body)
	}
	b.WriteString(sep)
	return b.String()
}
