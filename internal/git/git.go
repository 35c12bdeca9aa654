// Package git provides read access to a Git repository for changelog2html:
// repository root discovery and an attribution.Graph implementation backed by
// the go-git library, so no git CLI installation is needed.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ariel-frischer/changelog2html/internal/attribution"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// DefaultMaxDiscoveryDepth is how many parent directories DiscoverRoot
// inspects when no explicit depth is configured.
const DefaultMaxDiscoveryDepth = 16

// ErrRepositoryNotFound is returned when no repository marker is found.
var ErrRepositoryNotFound = errors.New("git repository not found")

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

// logDebug logs a debug message if the debug logger is set.
func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// DiscoverRoot walks upward from start looking for a directory that contains
// a ".git" entry (a directory, or a file for worktrees and submodules).
// At most maxDepth parent directories are inspected above start.
func DiscoverRoot(start string, maxDepth int) (string, error) {
	if maxDepth < 0 {
		maxDepth = DefaultMaxDiscoveryDepth
	}

	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	for depth := 0; depth <= maxDepth; depth++ {
		if _, err := os.Stat(filepath.Join(dir, git.GitDirName)); err == nil {
			logDebug("[git] DiscoverRoot: found repository at %s (depth %d)", dir, depth)
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w above %s (searched %d parent directories)", ErrRepositoryNotFound, start, maxDepth)
}

// Repository is an attribution.Graph over a go-git repository.
// Object database reads are serialized; the type is safe for concurrent use.
type Repository struct {
	root string
	mu   sync.Mutex
	repo *git.Repository
}

var _ attribution.Graph = (*Repository)(nil)

// Open opens the repository whose working tree root is root.
func Open(root string) (*Repository, error) {
	logDebug("[git] opening repository at %s", root)

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("opening repository at %s: %w", root, ErrRepositoryNotFound)
		}
		return nil, fmt.Errorf("opening repository at %s: %w", root, err)
	}

	logDebug("[git] repository opened successfully")
	return &Repository{root: root, repo: repo}, nil
}

// Root returns the working tree root the repository was opened at.
func (r *Repository) Root() string {
	return r.root
}

// Head returns the commit HEAD points at. ok is false for a repository
// without commits.
func (r *Repository) Head(ctx context.Context) (attribution.CommitID, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			logDebug("[git] Head: unborn HEAD")
			return "", false, nil
		}
		return "", false, fmt.Errorf("getting HEAD reference: %w", err)
	}
	return attribution.CommitID(head.Hash().String()), true, nil
}

// Tags lists every reference under refs/tags.
func (r *Repository) Tags(ctx context.Context) ([]attribution.TagRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tag references: %w", err)
	}
	defer iter.Close()

	var refs []attribution.TagRef
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		refs = append(refs, attribution.TagRef{
			Name:   ref.Name().Short(),
			Target: attribution.ObjectID(ref.Hash().String()),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating tag references: %w", err)
	}

	logDebug("[git] Tags: found %d tags", len(refs))
	return refs, nil
}

// Object describes the object with the given id.
func (r *Repository) Object(ctx context.Context, id attribution.ObjectID) (attribution.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return attribution.ObjectInfo{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	obj, err := r.repo.Object(plumbing.AnyObject, plumbing.NewHash(string(id)))
	if err != nil {
		return attribution.ObjectInfo{}, objectErr(string(id), err)
	}

	info := attribution.ObjectInfo{ID: id}
	switch o := obj.(type) {
	case *object.Commit:
		info.Kind = attribution.KindCommit
	case *object.Tag:
		info.Kind = attribution.KindTag
		info.Target = attribution.ObjectID(o.Target.String())
	case *object.Tree:
		info.Kind = attribution.KindTree
	case *object.Blob:
		info.Kind = attribution.KindBlob
	}
	return info, nil
}

// History returns every commit reachable from the given commit, itself
// included. Parents missing from the object database (shallow clones) end
// that line of history instead of failing the walk.
func (r *Repository) History(ctx context.Context, from attribution.CommitID) (attribution.History, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := plumbing.NewHash(string(from))
	seen := map[plumbing.Hash]bool{}
	stack := []plumbing.Hash{start}
	var commits []attribution.Commit

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return attribution.History{}, err
		}

		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[h] {
			continue
		}
		seen[h] = true

		c, err := r.repo.CommitObject(h)
		if err != nil {
			if h != start && errors.Is(err, plumbing.ErrObjectNotFound) {
				logDebug("[git] History: parent %s missing, history truncated", h)
				continue
			}
			return attribution.History{}, objectErr(h.String(), err)
		}

		commits = append(commits, toCommit(c))
		stack = append(stack, c.ParentHashes...)
	}

	logDebug("[git] History: %d commits reachable from %s", len(commits), from)
	return attribution.NewHistory(commits), nil
}

// HasPath reports whether the tree of the commit has an entry (file or
// directory) at the slash-separated path.
func (r *Repository) HasPath(ctx context.Context, id attribution.CommitID, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.repo.CommitObject(plumbing.NewHash(string(id)))
	if err != nil {
		return false, objectErr(string(id), err)
	}

	tree, err := c.Tree()
	if err != nil {
		return false, fmt.Errorf("reading tree of %s: %w", id, err)
	}

	_, err = tree.FindEntry(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, object.ErrEntryNotFound), errors.Is(err, object.ErrDirectoryNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("looking up %s in %s: %w", path, id, err)
	}
}

func toCommit(c *object.Commit) attribution.Commit {
	parents := make([]attribution.CommitID, len(c.ParentHashes))
	for i, p := range c.ParentHashes {
		parents[i] = attribution.CommitID(p.String())
	}
	return attribution.Commit{
		ID:      attribution.CommitID(c.Hash.String()),
		When:    c.Committer.When,
		Parents: parents,
	}
}

// objectErr maps go-git's not-found error onto attribution.ErrObjectNotFound.
func objectErr(id string, err error) error {
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return fmt.Errorf("object %s: %w", id, attribution.ErrObjectNotFound)
	}
	return fmt.Errorf("object %s: %w", id, err)
}
