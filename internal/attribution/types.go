package attribution

import (
	"sort"
	"time"
)

// CommitID is a content-addressed commit hash. It is only ever compared for equality.
type CommitID string

// ObjectID names any object in the repository (commit, tag, tree, blob).
type ObjectID string

// ObjectKind is the type of an object in the repository.
type ObjectKind int

const (
	KindUnknown ObjectKind = iota
	KindCommit
	KindTag
	KindTree
	KindBlob
)

// String returns a human-readable name for the object kind.
func (k ObjectKind) String() string {
	switch k {
	case KindCommit:
		return "commit"
	case KindTag:
		return "tag"
	case KindTree:
		return "tree"
	case KindBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// ObjectInfo describes an object looked up by id.
// Target is only set for tag objects and names the object the tag points at.
type ObjectInfo struct {
	ID     ObjectID
	Kind   ObjectKind
	Target ObjectID
}

// Commit is a read-only snapshot of a single commit.
type Commit struct {
	ID      CommitID
	When    time.Time
	Parents []CommitID
}

// IsZero reports whether c is the zero Commit.
func (c Commit) IsZero() bool {
	return c.ID == ""
}

// before orders commits by time, then by id.
func (c Commit) before(o Commit) bool {
	if !c.When.Equal(o.When) {
		return c.When.Before(o.When)
	}
	return c.ID < o.ID
}

// History is the ancestor list of a commit, inclusive of the commit itself.
// The order is whatever the graph produced.
type History struct {
	commits []Commit
	ids     map[CommitID]struct{}
}

// NewHistory wraps commits in a History with an identity index.
func NewHistory(commits []Commit) History {
	ids := make(map[CommitID]struct{}, len(commits))
	for _, c := range commits {
		ids[c.ID] = struct{}{}
	}
	return History{commits: commits, ids: ids}
}

// Commits returns the commits in graph order. The slice must not be modified.
func (h History) Commits() []Commit {
	return h.commits
}

// Len returns the number of commits in the history.
func (h History) Len() int {
	return len(h.commits)
}

// Contains reports whether the commit with the given id is part of the history.
func (h History) Contains(id CommitID) bool {
	_, ok := h.ids[id]
	return ok
}

// SortedByTime returns a copy of the commits ordered oldest first, ties by id.
func (h History) SortedByTime() []Commit {
	out := make([]Commit, len(h.commits))
	copy(out, h.commits)
	sort.Slice(out, func(i, j int) bool { return out[i].before(out[j]) })
	return out
}

// TagRef is a tag name and the object id its reference points at.
type TagRef struct {
	Name   string
	Target ObjectID
}

// Tag is a resolved tag: its name, the commit it ultimately points at and the
// full ancestor history of that commit.
type Tag struct {
	Name    string
	Target  Commit
	History History
}

// Contains reports whether the tag's history contains the commit.
func (t *Tag) Contains(id CommitID) bool {
	return t.History.Contains(id)
}

// TagIndex holds resolved tags sorted by target commit time, oldest first,
// ties broken by tag name.
type TagIndex []*Tag

// Names returns the tag names in index order.
func (ti TagIndex) Names() []string {
	names := make([]string, len(ti))
	for i, t := range ti {
		names[i] = t.Name
	}
	return names
}

// sortTagIndex orders tags ascending by target time, ties by name.
func sortTagIndex(ti TagIndex) {
	sort.SliceStable(ti, func(i, j int) bool {
		a, b := ti[i].Target.When, ti[j].Target.When
		if !a.Equal(b) {
			return a.Before(b)
		}
		return ti[i].Name < ti[j].Name
	})
}

// Attribution is the outcome of resolving one path.
//
// Found is false when no commit in the searched history contains the path.
// When Found is true and Tag is nil the path is pending: it has an
// introducing commit that no known tag contains yet.
type Attribution struct {
	Found  bool
	Commit Commit
	Tag    *Tag
}

// Pending reports whether the path has history but no covering tag.
func (a Attribution) Pending() bool {
	return a.Found && a.Tag == nil
}
