// Package fragments names the review UI templates.
package fragments

import "strings"

// Page templates
const (
	LoginPage    = "login.html"
	IndexPage    = "index.html"
	DocumentPage = "document.html"
)

// Partial templates shared by the pages
const (
	Layout      = "layout.html"
	FieldTable  = "field_table.html"
	SampleGrid  = "sample_grid.html"
	Conflicts   = "conflicts.html"
	StatusBadge = "status_badge.html"
)

// Patterns lists the embed globs holding every template.
var Patterns = []string{"templates/pages/*.html", "templates/partials/*.html"}

// GetAllTemplatePaths returns all template names for registration checks
func GetAllTemplatePaths() []string {
	return []string{
		LoginPage,
		IndexPage,
		DocumentPage,
		Layout,
		FieldTable,
		SampleGrid,
		Conflicts,
		StatusBadge,
	}
}

// GetTemplateCategory returns "page" or "partial" for a template name.
func GetTemplateCategory(name string) string {
	switch name {
	case LoginPage, IndexPage, DocumentPage:
		return "page"
	}
	if strings.HasSuffix(name, ".html") {
		return "partial"
	}
	return "unknown"
}
