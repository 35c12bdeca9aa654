// Package attribution maps repository paths to the release tag that first
// contained them.
//
// The package works against the Graph interface, a handful of primitive
// queries over an opaque commit graph. BuildTagIndex resolves every tag to a
// commit and its ancestor history, FindIntroducingCommit picks the oldest
// commit whose snapshot contains a path, and AttributeToTag (or the
// precomputed TagLookup) maps that commit to the oldest tag containing it.
//
// Known limitation: the introducing commit is the oldest snapshot that
// already contains the path, not the commit whose diff added it. A file that
// was deleted and later re-added is attributed to its first appearance.
package attribution

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by Graph implementations when an id does not
// name any object in the repository.
var ErrObjectNotFound = errors.New("object not found")

// Graph is the read-only view of a repository needed for attribution.
// Implementations must be safe for concurrent use.
type Graph interface {
	// Head returns the commit HEAD points at. ok is false for an unborn HEAD.
	Head(ctx context.Context) (id CommitID, ok bool, err error)
	// Tags enumerates every tag reference in the repository.
	Tags(ctx context.Context) ([]TagRef, error)
	// Object describes the object with the given id.
	// Returns an error wrapping ErrObjectNotFound for dangling ids.
	Object(ctx context.Context, id ObjectID) (ObjectInfo, error)
	// History returns the ancestors of the commit, inclusive of itself.
	History(ctx context.Context, from CommitID) (History, error)
	// HasPath reports whether the commit's tree has an entry at the
	// slash-separated repository-relative path.
	HasPath(ctx context.Context, id CommitID, path string) (bool, error)
}
