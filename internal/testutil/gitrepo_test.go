package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo(t *testing.T) {
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRepo(t, epoch)

	c1 := r.Commit(0, map[string]string{"changes/a.fix.md": "A"})
	r.Tag("v1.0", c1)
	c2 := r.Commit(3, nil, "changes/a.fix.md")
	tagHash := r.AnnotatedTag("v2.0", c2, 4)
	r.DanglingTag("gone", "3333333333333333333333333333333333333333")

	commit, err := r.Git.CommitObject(c2)
	require.NoError(t, err)
	assert.True(t, commit.Committer.When.Equal(epoch.AddDate(0, 0, 3)))
	assert.Equal(t, []plumbing.Hash{c1}, commit.ParentHashes)

	tagObj, err := r.Git.TagObject(tagHash)
	require.NoError(t, err)
	assert.Equal(t, c2, tagObj.Target)

	_, err = os.Stat(r.Path("changes/a.fix.md"))
	assert.True(t, os.IsNotExist(err))

	ref, err := r.Git.Tag("gone")
	require.NoError(t, err)
	assert.Equal(t, "3333333333333333333333333333333333333333", ref.Hash().String())
}
