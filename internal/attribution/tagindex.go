package attribution

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blang/semver/v4"
	"golang.org/x/sync/errgroup"
)

// TagResolveError reports a tag that could not be turned into a commit.
// The tag is left out of the index; the build carries on without it.
type TagResolveError struct {
	Name   string
	Reason string
	Err    error
}

func (e *TagResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tag %q: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("tag %q: %s", e.Name, e.Reason)
}

func (e *TagResolveError) Unwrap() error {
	return e.Err
}

// IndexOptions configures BuildTagIndex.
type IndexOptions struct {
	// Workers bounds how many tags are resolved concurrently. Values below 1 mean 1.
	Workers int
	// SemverOnly drops tags whose name is not a semantic version (a leading "v" is allowed).
	SemverOnly bool
	// Skipped, if set, is called with the name of every tag dropped by SemverOnly.
	Skipped func(name string)
}

// BuildTagIndex resolves every tag of the graph to its target commit and the
// full history of that commit, and returns them ordered oldest first.
//
// Annotated tags are dereferenced exactly one level. A tag that points at a
// tag (or at anything but a commit) and a reference that names no object are
// reported in the returned error slice and excluded from the index. Only a
// failure to enumerate tags or a cancelled context aborts the build.
func BuildTagIndex(ctx context.Context, g Graph, opts IndexOptions) (TagIndex, []error, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	refs, err := g.Tags(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing tags: %w", err)
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu        sync.Mutex
		index     TagIndex
		tagErrors []error
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for _, ref := range refs {
		if opts.SemverOnly && !isSemver(ref.Name) {
			if opts.Skipped != nil {
				opts.Skipped(ref.Name)
			}
			continue
		}

		ref := ref
		eg.Go(func() error {
			tag, err := resolveTag(egCtx, g, ref)
			if err != nil {
				var resolveErr *TagResolveError
				if !errors.As(err, &resolveErr) {
					return err
				}
				mu.Lock()
				tagErrors = append(tagErrors, err)
				mu.Unlock()
				return nil
			}
			mu.Lock()
			index = append(index, tag)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	sortTagIndex(index)
	return index, tagErrors, nil
}

// resolveTag turns one reference into a Tag. Per-tag problems come back as
// *TagResolveError; anything else (cancellation, I/O) is returned as is.
func resolveTag(ctx context.Context, g Graph, ref TagRef) (*Tag, error) {
	info, err := g.Object(ctx, ref.Target)
	if err != nil {
		return nil, objectError(ctx, ref.Name, "resolving reference", err)
	}

	commitID, err := peelOnce(ctx, g, ref.Name, info)
	if err != nil {
		return nil, err
	}

	history, err := g.History(ctx, commitID)
	if err != nil {
		return nil, objectError(ctx, ref.Name, "reading history", err)
	}

	target, ok := findCommit(history, commitID)
	if !ok {
		return nil, &TagResolveError{Name: ref.Name, Reason: "target commit missing from its own history"}
	}

	return &Tag{Name: ref.Name, Target: target, History: history}, nil
}

// peelOnce returns the commit a reference resolves to, following at most one
// annotated tag object.
func peelOnce(ctx context.Context, g Graph, name string, info ObjectInfo) (CommitID, error) {
	switch info.Kind {
	case KindCommit:
		return CommitID(info.ID), nil
	case KindTag:
		inner, err := g.Object(ctx, info.Target)
		if err != nil {
			return "", objectError(ctx, name, "resolving annotated tag target", err)
		}
		if inner.Kind != KindCommit {
			return "", &TagResolveError{
				Name:   name,
				Reason: fmt.Sprintf("annotated tag points at a %s, expected a commit", inner.Kind),
			}
		}
		return CommitID(inner.ID), nil
	default:
		return "", &TagResolveError{
			Name:   name,
			Reason: fmt.Sprintf("reference points at a %s, expected a commit or tag", info.Kind),
		}
	}
}

// objectError classifies a graph error: missing objects are per-tag
// failures, cancellation and other errors abort the build.
func objectError(ctx context.Context, name, reason string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, ErrObjectNotFound) {
		return &TagResolveError{Name: name, Reason: reason, Err: err}
	}
	return fmt.Errorf("tag %q: %s: %w", name, reason, err)
}

func findCommit(h History, id CommitID) (Commit, bool) {
	for _, c := range h.Commits() {
		if c.ID == id {
			return c, true
		}
	}
	return Commit{}, false
}

func isSemver(name string) bool {
	_, err := semver.ParseTolerant(name)
	return err == nil
}
