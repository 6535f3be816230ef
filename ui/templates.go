package ui

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin"

	"cocreview/domain/coc"
	"cocreview/internal/grid"
	"cocreview/internal/stats"
	"cocreview/ui/templates/fragments"
)

var sectionTitles = map[string]string{
	coc.SectionCompanyLocation: "Company / Location",
	coc.SectionContactProject:  "Contact / Project",
	coc.SectionDataDeliverable: "Data Deliverables",
	coc.SectionContainer:       "Containers / Custody",
	coc.SectionSampleData:      "Sample Data",
}

func (s *Server) parseTemplates() error {
	funcMap := template.FuncMap{
		"percent": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
		"lowConfidence": func(f float64) bool {
			return f < stats.DefaultLowConfidence
		},
		"sectionTitle": func(name string) string {
			if t, ok := sectionTitles[name]; ok {
				return t
			}
			return name
		},
		"cellValue":    grid.CellValue,
		"cellEditable": grid.CellEditable,
	}
	t, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, fragments.Patterns...)
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	for _, name := range fragments.GetAllTemplatePaths() {
		if fragments.GetTemplateCategory(name) == "page" && t.Lookup(name) == nil {
			return fmt.Errorf("missing template %s", name)
		}
	}
	s.templates = t
	return nil
}

// renderTemplate executes a template with the given data
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	// render to a buffer first so a failing template never sends a partial page
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.Error("template error for %s: %v", templateName, err)
		c.AbortWithStatusJSON(500, gin.H{"error": "template rendering failed"})
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
