package importer

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerhub-backend/errors"
)

func TestDetect(t *testing.T) {
	assert.Equal(t, MIMEPDF, Detect("cv.bin", "application/pdf"))
	assert.Equal(t, MIMEText, Detect("cv.txt", "text/plain; charset=utf-8"))
	assert.Equal(t, MIMEDOCX, Detect("CV.DOCX", "application/octet-stream"))
	assert.Equal(t, "", Detect("cv.odt", ""))
}

func TestExtractPlainText(t *testing.T) {
	text, err := ExtractText(MIMEText, []byte("  Ada Lovelace\nEngineer \n"))
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace\nEngineer", text)
}

func TestExtractRejectsUnsupported(t *testing.T) {
	_, err := ExtractText("image/png", []byte{0x89, 'P', 'N', 'G'})
	assert.True(t, errors.IsInvalidRequestError(err))
	assert.Contains(t, errors.FlattenHints(err), ".docx")

	_, err = ExtractText(MIMEText, nil)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestExtractCorruptPDF(t *testing.T) {
	_, err := ExtractText(MIMEPDF, []byte("this is definitely not a pdf document"))
	assert.True(t, errors.IsInvalidRequestError(err))
}

func minimalDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	data := minimalDocx(t, `<w:p><w:r><w:t>Ada &amp; Co</w:t></w:r></w:p><w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two</w:t></w:r></w:p>`)
	text, err := ExtractText(MIMEDOCX, data)
	require.NoError(t, err)
	assert.Equal(t, "Ada & Co\nLine one\nLine two", text)
}

func TestXMLText(t *testing.T) {
	assert.Equal(t, "a\tb", XMLText(`<w:p><w:t>a</w:t><w:tab/><w:t>b</w:t></w:p>`))
}
