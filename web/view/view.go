// Package view renders the panel as HTML.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"recpanel/app/panel"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Page struct {
	SplitDuration int
	Snapshot      panel.Snapshot
}

func RenderPage(w io.Writer, page Page) error {
	return templates.ExecuteTemplate(w, "page", page)
}

// RenderFragment renders the live part of the page; equal snapshots give
// equal output.
func RenderFragment(s panel.Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "fragment", s); err != nil {
		return "", err
	}
	return buf.String(), nil
}
