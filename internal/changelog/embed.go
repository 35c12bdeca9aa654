package changelog

import (
	_ "embed"
	"fmt"
	"html/template"
)

//go:embed default.html.tmpl
var embeddedTemplate string

// EmbeddedTemplate returns the source of the built-in HTML template.
func EmbeddedTemplate() string {
	return embeddedTemplate
}

// DefaultTemplate parses the built-in HTML template.
func DefaultTemplate() (*template.Template, error) {
	if embeddedTemplate == "" {
		return nil, fmt.Errorf("embedded template is empty (binary may have been built without embedded content)")
	}
	return template.New("default.html.tmpl").Funcs(templateFuncs).Parse(embeddedTemplate)
}
