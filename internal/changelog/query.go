package changelog

import (
	"fmt"
	"strings"
)

// VersionNotFoundError is returned when a requested version doesn't exist.
type VersionNotFoundError struct {
	Version           string
	AvailableVersions []string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %q not found (available: %s)",
		e.Version, strings.Join(e.AvailableVersions, ", "))
}

// Get returns the group for a version key. A key that misses is retried with
// its leading "v" toggled, so "1.2.0" finds tag "v1.2.0" and vice versa.
func (v Versions) Get(key string) (*VersionGroup, error) {
	if g, ok := v.Groups[key]; ok {
		return g, nil
	}
	if g, ok := v.Groups[toggleV(key)]; ok {
		return g, nil
	}
	return nil, &VersionNotFoundError{
		Version:           key,
		AvailableVersions: v.Keys(),
	}
}

func toggleV(key string) string {
	if strings.HasPrefix(key, "v") || strings.HasPrefix(key, "V") {
		return key[1:]
	}
	return "v" + key
}

// Only returns a Versions holding just the group for key.
func (v Versions) Only(key string) (Versions, error) {
	g, err := v.Get(key)
	if err != nil {
		return Versions{}, err
	}
	return Versions{
		Groups: map[string]*VersionGroup{g.Key: g},
		Order:  []string{g.Key},
	}, nil
}

// Keys returns the version keys in display order.
func (v Versions) Keys() []string {
	keys := make([]string, len(v.Order))
	copy(keys, v.Order)
	return keys
}

// Pending returns the pending group, or nil when every fragment is released.
func (v Versions) Pending() *VersionGroup {
	return v.Groups[PendingKey]
}

// LatestRelease returns the newest tagged group, or nil.
func (v Versions) LatestRelease() *VersionGroup {
	for _, key := range v.Order {
		if g := v.Groups[key]; g != nil && !g.Pending {
			return g
		}
	}
	return nil
}

// ChangeCount returns the total number of changes across all groups.
func (v Versions) ChangeCount() int {
	count := 0
	for _, g := range v.Groups {
		count += len(g.Changes)
	}
	return count
}
