package changelog

import (
	"html/template"
	"sort"
	"time"
)

// GroupOptions tunes the ordering produced by Group.
type GroupOptions struct {
	// PendingLast moves the pending group to the end of Order. Dates are
	// left untouched.
	PendingLast bool
}

// Group folds per-file results into version groups.
//
// Results without an introducing commit are dropped. Pending results are
// keyed PendingKey and dated now; every other result is keyed by its tag name
// and dated with the tag's target commit time. A tag named "pending" is keyed
// "refs/tags/pending" instead. Order lists keys by group date, newest first,
// ties by key.
func Group(results []Result, now time.Time, opts GroupOptions) Versions {
	groups := make(map[string]*VersionGroup)

	for _, r := range results {
		a := r.Attribution
		if !a.Found {
			continue
		}

		key, date, pending := PendingKey, now, true
		if a.Tag != nil {
			key, date, pending = tagKey(a.Tag.Name), a.Tag.Target.When, false
		}

		g, ok := groups[key]
		if !ok {
			g = &VersionGroup{
				Key:     key,
				Date:    date,
				Pending: pending,
				Changes: make(map[string]*Change),
			}
			groups[key] = g
		}

		g.Changes[r.File.Name] = &Change{
			Name:            r.File.Name,
			Content:         r.File.Content,
			RenderedContent: template.HTML(r.File.Rendered),
			Path:            r.File.Path,
			Date:            a.Commit.When,
			Tag:             key,
			Type:            r.File.Type,
		}
	}

	return Versions{Groups: groups, Order: order(groups, opts)}
}

func tagKey(name string) string {
	if name == PendingKey {
		return pendingTagKey
	}
	return name
}

func order(groups map[string]*VersionGroup, opts GroupOptions) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := groups[keys[i]], groups[keys[j]]
		if opts.PendingLast && a.Pending != b.Pending {
			return b.Pending
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Key < b.Key
	})
	return keys
}
