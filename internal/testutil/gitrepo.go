// Package testutil provides test helpers shared by changelog2html packages.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// Repo is a throwaway git repository whose commits and tags carry
// deterministic times: day n is Epoch plus n days.
type Repo struct {
	T     *testing.T
	Dir   string
	Git   *git.Repository
	Epoch time.Time
}

// NewRepo initializes an empty repository in a temporary directory.
func NewRepo(t *testing.T, epoch time.Time) *Repo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &Repo{T: t, Dir: dir, Git: repo, Epoch: epoch}
}

// Signature returns the author and committer used for day.
func (r *Repo) Signature(day int) *object.Signature {
	return &object.Signature{
		Name:  "Release Bot",
		Email: "bot@example.com",
		When:  r.Epoch.AddDate(0, 0, day),
	}
}

// Path joins slash-separated p onto the working tree root.
func (r *Repo) Path(p string) string {
	return filepath.Join(r.Dir, filepath.FromSlash(p))
}

// Write creates files in the working tree without staging them.
func (r *Repo) Write(files map[string]string) {
	r.T.Helper()
	for p, content := range files {
		full := r.Path(p)
		require.NoError(r.T, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(r.T, os.WriteFile(full, []byte(content), 0o644))
	}
}

// Commit writes files, removes paths and commits everything on day.
func (r *Repo) Commit(day int, files map[string]string, remove ...string) plumbing.Hash {
	r.T.Helper()
	r.Write(files)
	wt, err := r.Git.Worktree()
	require.NoError(r.T, err)

	for p := range files {
		_, err := wt.Add(p)
		require.NoError(r.T, err)
	}
	for _, p := range remove {
		_, err := wt.Remove(p)
		require.NoError(r.T, err)
	}

	sig := r.Signature(day)
	h, err := wt.Commit(fmt.Sprintf("day %d", day), &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	require.NoError(r.T, err)
	return h
}

// Tag creates a lightweight tag.
func (r *Repo) Tag(name string, target plumbing.Hash) {
	r.T.Helper()
	_, err := r.Git.CreateTag(name, target, nil)
	require.NoError(r.T, err)
}

// AnnotatedTag creates an annotated tag object dated day and returns its hash.
func (r *Repo) AnnotatedTag(name string, target plumbing.Hash, day int) plumbing.Hash {
	r.T.Helper()
	ref, err := r.Git.CreateTag(name, target, &git.CreateTagOptions{
		Tagger:  r.Signature(day),
		Message: "release " + name,
	})
	require.NoError(r.T, err)
	return ref.Hash()
}

// DanglingTag points a tag ref at an object that does not exist.
func (r *Repo) DanglingTag(name, hash string) {
	r.T.Helper()
	require.NoError(r.T, r.Git.Storer.SetReference(plumbing.NewHashReference(
		plumbing.NewTagReferenceName(name),
		plumbing.NewHash(hash),
	)))
}
