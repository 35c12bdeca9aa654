package changelog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    Format
		wantErr bool
	}{
		"empty defaults to html": {input: "", want: FormatHTML},
		"html":                   {input: "html", want: FormatHTML},
		"json uppercase":         {input: "JSON", want: FormatJSON},
		"yml alias":              {input: "yml", want: FormatYAML},
		"md alias":               {input: "md", want: FormatMarkdown},
		"unknown":                {input: "pdf", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "html, json, yaml, markdown")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeTemplate(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestWrite_HTML(t *testing.T) {
	doc := NewDocument("", sampleVersions())
	path := writeTemplate(t, `<h1>{{.PageName}}</h1>
{{- range $key, $v := .Versions}}
<h2>{{$key}} {{isoDate $v.Date}}</h2>
{{- range $name, $c := $v.Changes}}<div data-type="{{$c.Type}}">{{$c.RenderedContent}}</div>{{end}}
{{- end}}`)

	tmpl, err := LoadTemplate(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, FormatHTML, tmpl))
	out := buf.String()

	assert.Contains(t, out, "<h1>Changelog</h1>")
	assert.Contains(t, out, "<h2>v1.0 2024-01-02</h2>")
	assert.Contains(t, out, `<div data-type="feature"><p>content of a.feature.md</p>`)
	assert.NotContains(t, out, "&lt;p&gt;", "rendered markdown must not be escaped")
}

func TestWrite_HTMLEscapesContent(t *testing.T) {
	v := Group([]Result{result("x.fix.md", "fix", 0, tag("v1.0", 1))}, day(10), GroupOptions{})
	v.Groups["v1.0"].Changes["x.fix.md"].Content = "<script>alert(1)</script>"
	path := writeTemplate(t, `{{range .Groups}}{{range .Sorted}}{{.Content}}{{end}}{{end}}`)

	tmpl, err := LoadTemplate(path)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, NewDocument("Notes", v), FormatHTML, tmpl))
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", buf.String())
}

func TestWrite_DefaultTemplate(t *testing.T) {
	tmpl, err := LoadTemplate("-")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, NewDocument("Release Notes", sampleVersions()), FormatHTML, tmpl))
	out := buf.String()

	assert.Contains(t, out, "<title>Release Notes</title>")
	assert.Contains(t, out, `<section class="version pending" id="pending">`)
	assert.Contains(t, out, "<h3>Feature</h3>")
	assert.Contains(t, out, `data-path="changes/b.fix.md"`)
	assert.Less(t, strings.Index(out, `id="pending"`), strings.Index(out, `id="v1.0"`))
	assert.Less(t, strings.Index(out, `id="2.0"`), strings.Index(out, `id="v1.0"`))
}

func TestLoadTemplate_Errors(t *testing.T) {
	tests := map[string]struct {
		path string
	}{
		"missing file":     {path: filepath.Join(t.TempDir(), "nope.html")},
		"invalid syntax":   {path: writeTemplate(t, "{{range .Versions}")},
		"unknown function": {path: writeTemplate(t, "{{shout .PageName}}")},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadTemplate(tt.path)
			assert.Error(t, err)
		})
	}
}

func TestWrite_HTMLWithoutTemplate(t *testing.T) {
	err := Write(&bytes.Buffer{}, NewDocument("", Versions{}), FormatHTML, nil)
	assert.Error(t, err)
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, NewDocument("", sampleVersions()), FormatJSON, nil))

	var got struct {
		PageName string `json:"pagename"`
		Order    []string
		Versions map[string]struct {
			Date    string
			Changes map[string]map[string]any
		}
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "Changelog", got.PageName)
	assert.Equal(t, []string{PendingKey, "2.0", "v1.0"}, got.Order)
	change := got.Versions["v1.0"].Changes["a.feature.md"]
	require.NotNil(t, change)
	assert.Equal(t, "content of a.feature.md", change["content"])
	assert.Equal(t, "<p>content of a.feature.md</p>\n", change["renderedContent"])
	assert.Equal(t, "changes/a.feature.md", change["path"])
	assert.Equal(t, "v1.0", change["tag"])
	assert.Equal(t, "feature", change["type"])
	assert.Equal(t, "2024-01-01T12:00:00Z", change["date"])
	assert.Equal(t, "2024-01-02T12:00:00Z", got.Versions["v1.0"].Date)
}

func TestWrite_EmptyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, NewDocument("", Versions{}), FormatJSON, nil))
	assert.JSONEq(t, `{"pagename":"Changelog","versions":{},"order":[]}`, buf.String())
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, NewDocument("Notes", sampleVersions()), FormatYAML, nil))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Notes", got["pagename"])
	assert.Equal(t, []any{PendingKey, "2.0", "v1.0"}, got["order"])

	versions, ok := got["versions"].(map[string]any)
	require.True(t, ok)
	pending, ok := versions[PendingKey].(map[string]any)
	require.True(t, ok)
	changes, ok := pending["changes"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, changes, "b.fix.md")
}

func TestRenderMarkdownString(t *testing.T) {
	tests := map[string]struct {
		versions    Versions
		contains    []string
		notContains []string
	}{
		"released and pending": {
			versions: sampleVersions(),
			contains: []string{
				"# Changelog",
				"## [Unreleased]",
				"## [v1.0] - 2024-01-02",
				"### Feature",
				"### Fix",
				"- content of a.feature.md",
			},
		},
		"released only": {
			versions: Group([]Result{
				result("a.feature.md", "feature", 0, tag("v1.0", 1)),
			}, day(10), GroupOptions{}),
			contains:    []string{"## [v1.0] - 2024-01-02"},
			notContains: []string{"Unreleased", "### Fix"},
		},
		"empty": {
			versions:    Versions{},
			contains:    []string{"# Changelog"},
			notContains: []string{"##"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := RenderMarkdownString(NewDocument("", tt.versions))
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestRenderMarkdown_Idempotent(t *testing.T) {
	doc := NewDocument("", sampleVersions())
	first, err := RenderMarkdownString(doc)
	require.NoError(t, err)
	second, err := RenderMarkdownString(doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEmbeddedTemplate(t *testing.T) {
	assert.Contains(t, EmbeddedTemplate(), "{{.PageName}}")
	_, err := DefaultTemplate()
	assert.NoError(t, err)
}
