package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type buildLog struct {
	mu      sync.Mutex
	reports []*Report
	errs    []error
}

func (b *buildLog) record(r *Report, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reports = append(b.reports, r)
	b.errs = append(b.errs, err)
}

func (b *buildLog) last() (*Report, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.reports)
	if n == 0 {
		return nil, 0, nil
	}
	return b.reports[n-1], n, b.errs[n-1]
}

func TestWatch_RebuildsOnChange(t *testing.T) {
	f := releaseRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var builds buildLog
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, f.opts(), WatchOptions{Debounce: 20 * time.Millisecond, OnBuild: builds.record})
	}()

	require.Eventually(t, func() bool {
		_, n, _ := builds.last()
		return n == 1
	}, 5*time.Second, 10*time.Millisecond)

	// Give the watcher time to register before changing files.
	time.Sleep(100 * time.Millisecond)
	f.Commit(3, map[string]string{"changes/e.feature.md": "E"})

	require.Eventually(t, func() bool {
		r, n, err := builds.last()
		if n < 2 || err != nil || r.Versions.Pending() == nil {
			return false
		}
		_, ok := r.Versions.Pending().Changes["e.feature.md"]
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	r, _, _ := builds.last()
	assert.Equal(t, 4, r.Total)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

func TestWatch_FirstBuildErrorIsReturned(t *testing.T) {
	f := releaseRepo(t)
	opts := f.opts()
	opts.FragmentsDir = filepath.Join(f.Dir, "missing")

	err := Watch(context.Background(), opts, WatchOptions{})
	assert.ErrorIs(t, err, ErrFragmentsNotDirectory)
}

func TestWatchDirs(t *testing.T) {
	f := releaseRepo(t)
	report, err := Run(context.Background(), f.opts())
	require.NoError(t, err)

	dirs := watchDirs(report)
	assert.Equal(t, filepath.Join(f.Dir, "changes"), dirs[0])
	assert.Contains(t, dirs, filepath.Join(f.Dir, ".git", "refs", "tags"))
}
