package export

import (
	"bytes"

	"github.com/go-pdf/fpdf"

	"careerhub-backend/errors"
)

const (
	pdfMargin     = 18.0
	pdfLineHeight = 5.5
)

// PDF renders doc on Letter pages. Long content flows onto new pages.
func PDF(doc Document) ([]byte, error) {
	p := fpdf.New("P", "mm", "Letter", "")
	p.SetTitle(doc.Title, true)
	p.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	p.SetAutoPageBreak(true, pdfMargin)
	p.AddPage()
	tr := p.UnicodeTranslatorFromDescriptor("")

	p.SetFont("Helvetica", "B", 20)
	p.MultiCell(0, 9, tr(doc.Name), "", "L", false)
	if c := doc.ContactLine(); c != "" {
		p.SetFont("Helvetica", "", 10)
		p.SetTextColor(82, 96, 109)
		p.MultiCell(0, pdfLineHeight, tr(c), "", "L", false)
		p.SetTextColor(0, 0, 0)
	}

	for _, sec := range doc.Sections {
		p.Ln(4)
		if sec.Heading != "" {
			p.SetFont("Helvetica", "B", 12)
			p.CellFormat(0, 7, tr(sec.Heading), "B", 1, "L", false, 0, "")
			p.Ln(1)
		}
		for _, e := range sec.Entries {
			if e.Heading != "" {
				p.SetFont("Helvetica", "B", 11)
				p.MultiCell(0, 6, tr(e.Heading), "", "L", false)
			}
			if e.Meta != "" {
				p.SetFont("Helvetica", "I", 9)
				p.MultiCell(0, pdfLineHeight, tr(e.Meta), "", "L", false)
			}
			p.SetFont("Helvetica", "", 10)
			if e.Body != "" {
				p.MultiCell(0, pdfLineHeight, tr(e.Body), "", "L", false)
			}
			for _, b := range e.Bullets {
				p.SetX(pdfMargin + 4)
				p.MultiCell(0, pdfLineHeight, tr("- "+b), "", "L", false)
			}
			p.Ln(2)
		}
	}

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render pdf")
	}
	return buf.Bytes(), nil
}
