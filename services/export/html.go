package export

import (
	"bytes"
	"html/template"

	"careerhub-backend/errors"
)

var page = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:Helvetica,Arial,sans-serif;max-width:760px;margin:40px auto;color:#1f2933;line-height:1.45}
h1{margin:0;font-size:28px}h2{font-size:15px;text-transform:uppercase;letter-spacing:.06em;border-bottom:1px solid #cbd2d9;padding-bottom:4px;margin-top:28px}
h3{margin:12px 0 2px;font-size:15px}.meta{color:#616e7c;font-size:13px}.contact{color:#52606d;margin-top:4px}
</style>
</head>
<body>
<header>
<h1>{{.Name}}</h1>
{{- with .ContactLine}}
<div class="contact">{{.}}</div>
{{- end}}
</header>
{{- range .Sections}}
<section>
{{- with .Heading}}
<h2>{{.}}</h2>
{{- end}}
{{- range .Entries}}
{{- with .Heading}}
<h3>{{.}}</h3>
{{- end}}
{{- with .Meta}}
<div class="meta">{{.}}</div>
{{- end}}
{{- with .Body}}
<p>{{.}}</p>
{{- end}}
{{- with .Bullets}}
<ul>
{{- range .}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{- end}}
</section>
{{- end}}
</body>
</html>
`))

// HTML renders doc as a standalone page. All values are escaped.
func HTML(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, doc); err != nil {
		return nil, errors.Wrap(err, "render html")
	}
	return buf.Bytes(), nil
}
