package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

var documentTemplate = template.Must(template.New("document").Funcs(template.FuncMap{
	"lower": strings.ToLower,
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
}).Parse(documentTemplateHTML))

// TemplateData holds data for document template rendering. ContentHTML is
// the document's stored rich-text HTML, trusted as authored content.
type TemplateData struct {
	Title          string
	Author         string
	TeamName       string
	CollectionName string
	UpdatedAt      time.Time
	BannerURL      string
	BannerPosition string // CSS object-position, e.g. "50% 50%"
	ContentHTML    template.HTML
}

// RenderDocumentHTML renders the printable document page.
func RenderDocumentHTML(data TemplateData) (string, error) {
	if data.BannerPosition == "" {
		data.BannerPosition = "50% 50%"
	}
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const documentTemplateHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Georgia, 'Times New Roman', serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; color: #1a1a1a; }
    .banner { width: 100%; height: 240px; overflow: hidden; margin-bottom: 1.5rem; border-radius: 6px; }
    .banner img { width: 100%; height: 100%; object-fit: cover; object-position: {{.BannerPosition}}; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .content img { max-width: 100%; height: auto; }
  </style>
</head>
<body>
  {{if .BannerURL}}<div class="banner"><img src="{{.BannerURL}}" alt=""></div>{{end}}
  <h1>{{.Title}}</h1>
  <div class="meta">{{.TeamName}}{{if .CollectionName}} / {{.CollectionName}}{{end}} | {{.Author}} | {{formatDate .UpdatedAt "Jan 2, 2006"}}</div>
  <div class="content">{{.ContentHTML}}</div>
</body>
</html>`
