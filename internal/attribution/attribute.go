package attribution

import "context"

// AttributeToTag returns the oldest tag in index whose history contains the
// commit, or nil when no tag does (the commit is pending release).
func AttributeToTag(commit CommitID, index TagIndex) *Tag {
	for _, t := range index {
		if t.Contains(commit) {
			return t
		}
	}
	return nil
}

// TagLookup is a precomputed commit → earliest tag map.
// It answers exactly what AttributeToTag answers, in constant time.
type TagLookup struct {
	earliest map[CommitID]*Tag
}

// NewTagLookup walks the index oldest first and records, for every commit,
// the first tag whose history reaches it.
func NewTagLookup(index TagIndex) *TagLookup {
	earliest := make(map[CommitID]*Tag)
	for _, t := range index {
		for _, c := range t.History.Commits() {
			if _, seen := earliest[c.ID]; !seen {
				earliest[c.ID] = t
			}
		}
	}
	return &TagLookup{earliest: earliest}
}

// Tag returns the earliest tag containing the commit, or nil.
func (l *TagLookup) Tag(commit CommitID) *Tag {
	return l.earliest[commit]
}

// Resolver attributes paths against a fixed HEAD history and tag index.
// Both are built once and only read afterwards, so a Resolver can be shared
// by concurrent callers.
type Resolver struct {
	graph  Graph
	head   History
	lookup *TagLookup
}

// NewResolver creates a Resolver. head is the history searched for
// introducing commits.
func NewResolver(g Graph, head History, index TagIndex) *Resolver {
	return &Resolver{
		graph:  g,
		head:   head,
		lookup: NewTagLookup(index),
	}
}

// Resolve attributes one repository-relative path.
func (r *Resolver) Resolve(ctx context.Context, path string) (Attribution, error) {
	commit, found, err := FindIntroducingCommit(ctx, r.graph, r.head, path)
	if err != nil {
		return Attribution{}, err
	}
	if !found {
		return Attribution{}, nil
	}
	return Attribution{
		Found:  true,
		Commit: commit,
		Tag:    r.lookup.Tag(commit.ID),
	}, nil
}
