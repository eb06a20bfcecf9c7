package export

import (
	"bytes"
	_ "embed"

	"github.com/nguyenthenguyen/docx"

	"careerhub-backend/errors"
)

//go:embed templates/template.docx
var docxTemplate []byte

// DOCX fills the embedded Word template. Each placeholder sits in a single
// run; "\r\n" in a value becomes a line break.
func DOCX(doc Document) ([]byte, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(docxTemplate), int64(len(docxTemplate)))
	if err != nil {
		return nil, errors.Wrap(err, "open docx template")
	}
	defer r.Close()

	d := r.Editable()
	fields := []struct{ placeholder, value string }{
		{"{{NAME}}", doc.Name},
		{"{{CONTACT}}", doc.ContactLine()},
		{"{{BODY}}", textBody(doc, "\r\n")},
	}
	for _, f := range fields {
		if err := d.Replace(f.placeholder, f.value, -1); err != nil {
			return nil, errors.Wrapf(err, "fill %s", f.placeholder)
		}
	}

	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "write docx")
	}
	return buf.Bytes(), nil
}
