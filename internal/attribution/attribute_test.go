package attribution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headHistory(t *testing.T, g *fakeGraph) History {
	t.Helper()
	h, err := g.History(context.Background(), g.head)
	require.NoError(t, err)
	return h
}

func TestFindIntroducingCommit(t *testing.T) {
	tests := map[string]struct {
		path      string
		wantFound bool
		wantID    CommitID
	}{
		"present since root": {
			path:      "changes/a.feature.md",
			wantFound: true,
			wantID:    "c1",
		},
		"added after first release": {
			path:      "changes/c.feature.md",
			wantFound: true,
			wantID:    "c3",
		},
		"only in HEAD": {
			path:      "changes/b.fix.md",
			wantFound: true,
			wantID:    "c4",
		},
		"never committed": {
			path:      "changes/new.feature.md",
			wantFound: false,
		},
		"no partial matching": {
			path:      "changes/a.feature",
			wantFound: false,
		},
	}

	g := releaseGraph()
	history := headHistory(t, g)

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c, found, err := FindIntroducingCommit(context.Background(), g, history, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.wantID, c.ID)
			} else {
				assert.True(t, c.IsZero())
			}
		})
	}
}

func TestFindIntroducingCommit_TieBrokenByID(t *testing.T) {
	g := newFakeGraph()
	g.commit("bbb", 0, nil, "x.fix.md")
	g.commit("aaa", 0, nil, "x.fix.md")
	g.commit("merge", 1, []string{"bbb", "aaa"}, "x.fix.md")

	for i := 0; i < 5; i++ {
		c, found, err := FindIntroducingCommit(context.Background(), g, headHistory(t, g), "x.fix.md")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, CommitID("aaa"), c.ID)
	}
}

func TestFindIntroducingCommit_DeletedAndReAdded(t *testing.T) {
	g := newFakeGraph()
	g.commit("c1", 0, nil, "f.feature.md")
	g.commit("c2", 1, []string{"c1"})
	g.commit("c3", 2, []string{"c2"}, "f.feature.md")

	c, found, err := FindIntroducingCommit(context.Background(), g, headHistory(t, g), "f.feature.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, CommitID("c1"), c.ID, "earliest appearance wins")
}

func TestAttributeToTag_Scenarios(t *testing.T) {
	g := releaseGraph()
	g.annotatedTag("v3.0", "t3", "c4")
	index, _, err := BuildTagIndex(context.Background(), g, IndexOptions{})
	require.NoError(t, err)

	tests := map[string]struct {
		commit  CommitID
		wantTag string
	}{
		"ancestor of v1.0 target":    {commit: "c1", wantTag: "v1.0"},
		"same commit as v1.0 target": {commit: "c2", wantTag: "v1.0"},
		"between v1.0 and v2.0":      {commit: "c3", wantTag: "v2.0"},
		"annotated tag target":       {commit: "c4", wantTag: "v3.0"},
		"unknown commit":             {commit: "zzz", wantTag: ""},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tag := AttributeToTag(tt.commit, index)
			if tt.wantTag == "" {
				assert.Nil(t, tag)
				return
			}
			require.NotNil(t, tag)
			assert.Equal(t, tt.wantTag, tag.Name)
		})
	}
}

func TestAttributeToTag_Pending(t *testing.T) {
	g := releaseGraph()
	index, _, err := BuildTagIndex(context.Background(), g, IndexOptions{})
	require.NoError(t, err)

	assert.Nil(t, AttributeToTag("c4", index))
	assert.Nil(t, AttributeToTag("c1", nil), "no tags at all means pending")
}

func TestTagHistory_SupersetOfEarlierTags(t *testing.T) {
	g := releaseGraph()
	g.commit("c5", 4, []string{"c4"})
	g.lightweightTag("v3.0", "c5")
	index, _, err := BuildTagIndex(context.Background(), g, IndexOptions{})
	require.NoError(t, err)

	for i := 1; i < len(index); i++ {
		for _, c := range index[i-1].History.Commits() {
			assert.True(t, index[i].Contains(c.ID),
				"%s should contain %s reachable from %s", index[i].Name, c.ID, index[i-1].Name)
		}
	}

	before := AttributeToTag("c2", index[:2])
	after := AttributeToTag("c2", index)
	require.NotNil(t, before)
	require.NotNil(t, after)
	assert.Equal(t, before.Name, after.Name, "adding a later tag must not move attribution")
}

func TestTagLookup_MatchesLinearScan(t *testing.T) {
	g := releaseGraph()
	g.commit("side", 5, []string{"c2"}, "changes/side.fix.md")
	g.lightweightTag("v1.1", "side")
	g.annotatedTag("v3.0", "t3", "c4")
	index, _, err := BuildTagIndex(context.Background(), g, IndexOptions{})
	require.NoError(t, err)

	lookup := NewTagLookup(index)
	for id := range g.commits {
		assert.Equal(t, AttributeToTag(id, index), lookup.Tag(id), "commit %s", id)
	}
	assert.Nil(t, lookup.Tag("missing"))
}

func TestResolver_Resolve(t *testing.T) {
	g := releaseGraph()
	index, _, err := BuildTagIndex(context.Background(), g, IndexOptions{})
	require.NoError(t, err)
	r := NewResolver(g, headHistory(t, g), index)

	a, err := r.Resolve(context.Background(), "changes/a.feature.md")
	require.NoError(t, err)
	assert.True(t, a.Found)
	require.NotNil(t, a.Tag)
	assert.Equal(t, "v1.0", a.Tag.Name)

	b, err := r.Resolve(context.Background(), "changes/b.fix.md")
	require.NoError(t, err)
	assert.True(t, b.Pending())
	assert.Equal(t, CommitID("c4"), b.Commit.ID)

	missing, err := r.Resolve(context.Background(), "changes/none.fix.md")
	require.NoError(t, err)
	assert.False(t, missing.Found)
	assert.False(t, missing.Pending())
}

func TestResolver_Idempotent(t *testing.T) {
	g := releaseGraph()
	index, _, err := BuildTagIndex(context.Background(), g, IndexOptions{Workers: 3})
	require.NoError(t, err)
	r := NewResolver(g, headHistory(t, g), index)

	paths := []string{"changes/a.feature.md", "changes/b.fix.md", "changes/c.feature.md"}
	first := make(map[string]string)
	for _, p := range paths {
		a, err := r.Resolve(context.Background(), p)
		require.NoError(t, err)
		first[p] = tagName(a)
	}
	for _, p := range paths {
		a, err := r.Resolve(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, first[p], tagName(a))
	}
}

func tagName(a Attribution) string {
	if a.Tag == nil {
		return ""
	}
	return a.Tag.Name
}

func TestHistory_SortedByTime(t *testing.T) {
	g := releaseGraph()
	sorted := headHistory(t, g).SortedByTime()
	ids := make([]CommitID, len(sorted))
	for i, c := range sorted {
		ids[i] = c.ID
	}
	assert.Equal(t, []CommitID{"c1", "c2", "c3", "c4"}, ids)
}
