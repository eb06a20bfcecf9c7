package export

import (
	"careerhub-backend/errors"
	"careerhub-backend/models/documents"
)

// Render encodes doc in the given format.
func Render(doc Document, format string) ([]byte, error) {
	switch format {
	case documents.FormatText:
		return Text(doc), nil
	case documents.FormatHTML:
		return HTML(doc)
	case documents.FormatPDF:
		return PDF(doc)
	case documents.FormatDOCX:
		return DOCX(doc)
	default:
		return nil, errors.WithHint(errors.Invalidf("unknown export format %q", format),
			"formats: txt, html, pdf, docx")
	}
}
