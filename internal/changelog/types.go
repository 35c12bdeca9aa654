package changelog

import (
	"html/template"
	"sort"
	"time"

	"github.com/ariel-frischer/changelog2html/internal/attribution"
	"github.com/ariel-frischer/changelog2html/internal/fragment"
)

// PendingKey is the version key of fragments no tag contains yet.
const PendingKey = "pending"

// pendingTagKey keys the group of a tag literally named "pending", keeping it
// apart from the unreleased changes.
const pendingTagKey = "refs/tags/" + PendingKey

// DefaultPageName is the page title used when none is configured.
const DefaultPageName = "Changelog"

// Result is the outcome of processing one fragment file: its loaded content
// and where it was attributed.
type Result struct {
	File        fragment.File
	Attribution attribution.Attribution
}

// Change is one fragment as it appears in the rendered document.
type Change struct {
	// Name is the fragment file name; it is also the key in VersionGroup.Changes.
	Name            string        `json:"-" yaml:"-"`
	Content         string        `json:"content" yaml:"content"`
	RenderedContent template.HTML `json:"renderedContent" yaml:"renderedContent"`
	Path            string        `json:"path" yaml:"path"`
	Date            time.Time     `json:"date" yaml:"date"`
	Tag             string        `json:"tag" yaml:"tag"`
	Type            string        `json:"type" yaml:"type"`
}

// VersionGroup collects the changes released under one tag, or the pending
// changes.
type VersionGroup struct {
	Key     string             `json:"-" yaml:"-"`
	Date    time.Time          `json:"date" yaml:"date"`
	Pending bool               `json:"-" yaml:"-"`
	Changes map[string]*Change `json:"changes" yaml:"changes"`
}

// Sorted returns the group's changes newest first, ties by file name.
func (g *VersionGroup) Sorted() []*Change {
	out := make([]*Change, 0, len(g.Changes))
	for _, c := range g.Changes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Types returns the distinct fragment types in the group, sorted.
func (g *VersionGroup) Types() []string {
	seen := map[string]bool{}
	var types []string
	for _, c := range g.Changes {
		if !seen[c.Type] {
			seen[c.Type] = true
			types = append(types, c.Type)
		}
	}
	sort.Strings(types)
	return types
}

// ByType returns the group's changes of one type, in Sorted order.
func (g *VersionGroup) ByType(typ string) []*Change {
	var out []*Change
	for _, c := range g.Sorted() {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

// Versions is the grouped result: version key to group, and the display order
// of the keys.
type Versions struct {
	Groups map[string]*VersionGroup
	Order  []string
}

// Document is the data handed to templates and encoders.
type Document struct {
	PageName string                   `json:"pagename" yaml:"pagename"`
	Versions map[string]*VersionGroup `json:"versions" yaml:"versions"`
	Order    []string                 `json:"order" yaml:"order"`
}

// NewDocument wraps grouped versions under a page name. An empty name falls
// back to DefaultPageName.
func NewDocument(pageName string, v Versions) *Document {
	if pageName == "" {
		pageName = DefaultPageName
	}
	groups := v.Groups
	if groups == nil {
		groups = map[string]*VersionGroup{}
	}
	order := v.Order
	if order == nil {
		order = []string{}
	}
	return &Document{PageName: pageName, Versions: groups, Order: order}
}

// Groups returns the version groups in display order.
func (d *Document) Groups() []*VersionGroup {
	out := make([]*VersionGroup, 0, len(d.Order))
	for _, key := range d.Order {
		if g, ok := d.Versions[key]; ok {
			out = append(out, g)
		}
	}
	return out
}
