package attribution

import (
	"context"
	"fmt"
	"time"
)

// fakeGraph is an in-memory Graph for algorithm tests.
type fakeGraph struct {
	head    CommitID
	commits map[CommitID]Commit
	paths   map[CommitID]map[string]bool
	objects map[ObjectID]ObjectInfo
	tags    []TagRef
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		commits: make(map[CommitID]Commit),
		paths:   make(map[CommitID]map[string]bool),
		objects: make(map[ObjectID]ObjectInfo),
	}
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// commit adds a commit made day days after baseTime whose tree holds paths.
func (g *fakeGraph) commit(id string, day int, parents []string, paths ...string) CommitID {
	c := Commit{ID: CommitID(id), When: baseTime.AddDate(0, 0, day)}
	for _, p := range parents {
		c.Parents = append(c.Parents, CommitID(p))
	}
	g.commits[c.ID] = c
	g.objects[ObjectID(id)] = ObjectInfo{ID: ObjectID(id), Kind: KindCommit}
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	g.paths[c.ID] = set
	g.head = c.ID
	return c.ID
}

func (g *fakeGraph) lightweightTag(name, target string) {
	g.tags = append(g.tags, TagRef{Name: name, Target: ObjectID(target)})
}

func (g *fakeGraph) annotatedTag(name, objectID, target string) {
	g.objects[ObjectID(objectID)] = ObjectInfo{ID: ObjectID(objectID), Kind: KindTag, Target: ObjectID(target)}
	g.tags = append(g.tags, TagRef{Name: name, Target: ObjectID(objectID)})
}

func (g *fakeGraph) Head(_ context.Context) (CommitID, bool, error) {
	return g.head, g.head != "", nil
}

func (g *fakeGraph) Tags(_ context.Context) ([]TagRef, error) {
	return g.tags, nil
}

func (g *fakeGraph) Object(_ context.Context, id ObjectID) (ObjectInfo, error) {
	info, ok := g.objects[id]
	if !ok {
		return ObjectInfo{}, fmt.Errorf("object %s: %w", id, ErrObjectNotFound)
	}
	return info, nil
}

func (g *fakeGraph) History(_ context.Context, from CommitID) (History, error) {
	if _, ok := g.commits[from]; !ok {
		return History{}, fmt.Errorf("commit %s: %w", from, ErrObjectNotFound)
	}
	seen := make(map[CommitID]bool)
	stack := []CommitID{from}
	var out []Commit
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		c, ok := g.commits[id]
		if !ok {
			continue
		}
		out = append(out, c)
		stack = append(stack, c.Parents...)
	}
	return NewHistory(out), nil
}

func (g *fakeGraph) HasPath(_ context.Context, id CommitID, path string) (bool, error) {
	return g.paths[id][path], nil
}

// releaseGraph builds:
//
//	c1 (day 0) a.feature.md
//	c2 (day 1) a.feature.md              <- v1.0
//	c3 (day 2) a.feature.md c.feature.md <- v2.0
//	c4 (day 3) a.feature.md c.feature.md b.fix.md (HEAD)
func releaseGraph() *fakeGraph {
	g := newFakeGraph()
	g.commit("c1", 0, nil, "changes/a.feature.md")
	g.commit("c2", 1, []string{"c1"}, "changes/a.feature.md")
	g.commit("c3", 2, []string{"c2"}, "changes/a.feature.md", "changes/c.feature.md")
	g.commit("c4", 3, []string{"c3"}, "changes/a.feature.md", "changes/c.feature.md", "changes/b.fix.md")
	g.lightweightTag("v2.0", "c3")
	g.lightweightTag("v1.0", "c2")
	return g
}
