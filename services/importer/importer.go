// Package importer extracts plain text from uploaded resumes.
package importer

import (
	"bytes"
	"html"
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"careerhub-backend/errors"
)

const (
	MIMEText = "text/plain"
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// MaxUploadBytes bounds an uploaded resume.
const MaxUploadBytes = 10 << 20

var extensions = map[string]string{
	".txt":  MIMEText,
	".pdf":  MIMEPDF,
	".docx": MIMEDOCX,
}

// Detect resolves the media type of an upload, trusting the declared type
// first and falling back to the file extension.
func Detect(filename, declared string) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		switch mt {
		case MIMEText, MIMEPDF, MIMEDOCX:
			return mt
		}
	}
	return extensions[strings.ToLower(filepath.Ext(filename))]
}

// Supported reports whether ExtractText can handle mimeType.
func Supported(mimeType string) bool {
	switch mimeType {
	case MIMEText, MIMEPDF, MIMEDOCX:
		return true
	}
	return false
}

// ExtractText returns the plain text of a text, PDF or DOCX document.
func ExtractText(mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.Invalidf("empty document")
	}
	switch mimeType {
	case MIMEText:
		return strings.TrimSpace(string(data)), nil
	case MIMEPDF:
		return extractPDF(data)
	case MIMEDOCX:
		return extractDOCX(data)
	default:
		return "", errors.WithHint(errors.Invalidf("unsupported file type %q", mimeType),
			"upload a .txt, .pdf or .docx file")
	}
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(errors.Mark(err, errors.ErrInvalidRequest), "read pdf")
	}
	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

var (
	breakTags = regexp.MustCompile(`(?i)</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	tabTags   = regexp.MustCompile(`(?i)<w:tab\s*/>`)
	anyTag    = regexp.MustCompile(`<[^>]*>`)
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(errors.Mark(err, errors.ErrInvalidRequest), "parse docx")
	}
	defer r.Close()
	return XMLText(r.Editable().GetContent()), nil
}

// XMLText flattens WordprocessingML into text, one line per paragraph.
func XMLText(content string) string {
	s := breakTags.ReplaceAllString(content, "\n")
	s = tabTags.ReplaceAllString(s, "\t")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
