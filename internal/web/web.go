// Package web holds the embedded presentation assets: the HTML
// fragment templates the handlers render, and the region-selection
// script for the image crop view. Everything is baked into the binary
// with go:embed so the server deploys as a single file.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/edit-image.js
var editImageJS string

// Templates parses the embedded fragment templates. Template names are
// the file base names, e.g. "wine_table.html".
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// EditImageJS returns the drag-select script, typed so html/template
// emits it verbatim inside a <script> element.
func EditImageJS() template.JS {
	return template.JS(editImageJS)
}
