package changelog

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format selects how a Document is written.
type Format string

const (
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ValidFormats returns the accepted format names.
func ValidFormats() []string {
	return []string{string(FormatHTML), string(FormatJSON), string(FormatYAML), string(FormatMarkdown)}
}

// ParseFormat validates a format name. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q (valid: %s)", s, strings.Join(ValidFormats(), ", "))
}

// NeedsTemplate reports whether the format renders through an HTML template.
func (f Format) NeedsTemplate() bool {
	return f == FormatHTML
}

// templateFuncs are available to every changelog template.
var templateFuncs = template.FuncMap{
	"date": func(layout string, t time.Time) string {
		return t.Format(layout)
	},
	"isoDate": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
	"title": capitalizeFirst,
}

// LoadTemplate parses the template file at path. An empty path or "-"
// selects the built-in template.
func LoadTemplate(path string) (*template.Template, error) {
	if path == "" || path == "-" {
		return DefaultTemplate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", path, err)
	}
	tmpl, err := template.New(filepath.Base(path)).Funcs(templateFuncs).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", path, err)
	}
	return tmpl, nil
}

// Write renders doc to w in the given format. tmpl is only used for HTML and
// must be non-nil there.
func Write(w io.Writer, doc *Document, format Format, tmpl *template.Template) error {
	switch format {
	case FormatHTML:
		if tmpl == nil {
			return fmt.Errorf("html output needs a template")
		}
		if err := tmpl.Execute(w, doc); err != nil {
			return fmt.Errorf("executing template %s: %w", tmpl.Name(), err)
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case FormatMarkdown:
		return RenderMarkdown(doc, w)
	}
	return fmt.Errorf("unknown format %q", format)
}

// RenderMarkdown writes the document as a Keep a Changelog style markdown
// file: one section per version, one subsection per fragment type, each
// fragment's raw markdown as a list item.
//
// The function is idempotent - given the same input, it produces identical output.
func RenderMarkdown(doc *Document, w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# %s\n", doc.PageName); err != nil {
		return fmt.Errorf("rendering header: %w", err)
	}

	for _, g := range doc.Groups() {
		if err := renderVersion(g, w); err != nil {
			return fmt.Errorf("rendering version %s: %w", g.Key, err)
		}
	}
	return nil
}

// RenderMarkdownString is a convenience function that renders to a string.
func RenderMarkdownString(doc *Document) (string, error) {
	var b strings.Builder
	if err := RenderMarkdown(doc, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderVersion(g *VersionGroup, w io.Writer) error {
	if _, err := w.Write([]byte("\n" + formatVersionHeader(g) + "\n")); err != nil {
		return err
	}
	for _, typ := range g.Types() {
		if err := renderType(typ, g.ByType(typ), w); err != nil {
			return err
		}
	}
	return nil
}

func formatVersionHeader(g *VersionGroup) string {
	if g.Pending {
		return "## [Unreleased]"
	}
	return fmt.Sprintf("## [%s] - %s", g.Key, g.Date.Format("2006-01-02"))
}

func renderType(typ string, changes []*Change, w io.Writer) error {
	if _, err := w.Write([]byte("\n### " + capitalizeFirst(typ) + "\n")); err != nil {
		return err
	}
	for _, c := range changes {
		text := strings.TrimSpace(c.Content)
		text = strings.ReplaceAll(text, "\n", "\n  ")
		if _, err := w.Write([]byte("- " + text + "\n")); err != nil {
			return err
		}
	}
	return nil
}
