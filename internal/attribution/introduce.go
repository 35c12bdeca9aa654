package attribution

import (
	"context"
	"fmt"
	"sort"
)

// FindIntroducingCommit returns the oldest commit of history whose tree has
// an entry at path. ok is false when no commit contains the path.
//
// Matches are sorted newest first and the last one is taken, so equal
// timestamps fall back to the smallest commit id.
func FindIntroducingCommit(ctx context.Context, g Graph, history History, path string) (Commit, bool, error) {
	var matches []Commit
	for _, c := range history.Commits() {
		if err := ctx.Err(); err != nil {
			return Commit{}, false, err
		}
		has, err := g.HasPath(ctx, c.ID, path)
		if err != nil {
			return Commit{}, false, fmt.Errorf("checking %s at %s: %w", path, c.ID, err)
		}
		if has {
			matches = append(matches, c)
		}
	}

	if len(matches) == 0 {
		return Commit{}, false, nil
	}

	sort.Slice(matches, func(i, j int) bool { return matches[j].before(matches[i]) })
	return matches[len(matches)-1], true, nil
}
