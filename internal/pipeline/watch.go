package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long Watch waits after the last file event before
// rebuilding.
const DefaultDebounce = 300 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Debounce time.Duration
	// OnBuild receives the outcome of every build, the initial one included.
	// It runs on the watch goroutine; builds do not overlap.
	OnBuild func(report *Report, err error)
}

// Watch builds once, then rebuilds whenever the fragments folder or the
// repository's refs change, until ctx is cancelled. A failing rebuild is
// reported through OnBuild and the watch continues; only a failing first
// build or a watcher setup error is returned.
func Watch(ctx context.Context, opts Options, wopts WatchOptions) error {
	opts.setDefaults()
	log := opts.Logger
	if wopts.Debounce <= 0 {
		wopts.Debounce = DefaultDebounce
	}
	onBuild := wopts.OnBuild
	if onBuild == nil {
		onBuild = func(*Report, error) {}
	}

	report, err := Run(ctx, opts)
	if err != nil {
		return err
	}
	onBuild(report, nil)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range watchDirs(report) {
		if err := watcher.Add(dir); err != nil {
			log.Debug("not watching", zap.String("dir", dir), zap.Error(err))
			continue
		}
		log.Debug("watching", zap.String("dir", dir))
	}
	if len(watcher.WatchList()) == 0 {
		return fmt.Errorf("watching %s: no directory could be watched", report.FragmentsDir)
	}

	timer := time.NewTimer(wopts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			log.Debug("change detected", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(wopts.Debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			log.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			report, err := Run(ctx, opts)
			if ctx.Err() != nil {
				return nil
			}
			onBuild(report, err)
		}
	}
}

// watchDirs lists the fragments folder plus the git directories whose
// changes can move an attribution: HEAD, branch heads and tags.
func watchDirs(r *Report) []string {
	dirs := []string{r.FragmentsDir}
	gitDir := filepath.Join(r.Root, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return dirs
	}
	return append(dirs,
		gitDir,
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
	)
}
