// Package views holds the server-rendered HTML pages.
package views

import (
	"embed"
	"html/template"
	"time"
)

// PartnershipsPage is the sponsorship purchase page.
const PartnershipsPage = "partnerships.tmpl"

//go:embed templates/*.tmpl
var files embed.FS

var funcs = template.FuncMap{
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
}

// Templates parses the embedded templates.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(funcs).ParseFS(files, "templates/*.tmpl"))
}
