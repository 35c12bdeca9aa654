// Package pipeline runs a full changelog build: it locates the repository,
// builds the tag index and HEAD history, attributes every fragment on a
// bounded worker pool and folds the results into version groups.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ariel-frischer/changelog2html/internal/attribution"
	"github.com/ariel-frischer/changelog2html/internal/changelog"
	"github.com/ariel-frischer/changelog2html/internal/fragment"
	"github.com/ariel-frischer/changelog2html/internal/git"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrFragmentsNotDirectory is returned when the fragments path is missing
	// or is not a directory.
	ErrFragmentsNotDirectory = errors.New("fragments path is not a directory")
	// ErrOutsideRepository is returned when the fragments folder is not
	// inside the repository root.
	ErrOutsideRepository = errors.New("fragments folder is outside the repository")
)

// Options configures a Run.
type Options struct {
	// FragmentsDir is the fragments folder, absolute or relative to the
	// working directory.
	FragmentsDir string
	// RepoRoot skips discovery when set.
	RepoRoot string
	// MaxDiscoveryDepth bounds how many parents are searched for the
	// repository. Zero means git.DefaultMaxDiscoveryDepth.
	MaxDiscoveryDepth int
	// Workers bounds per-file and per-tag concurrency. Zero means GOMAXPROCS.
	Workers     int
	SemverOnly  bool
	Ignore      []string
	PendingLast bool

	// Fs reads fragment files; defaults to the OS filesystem.
	Fs afero.Fs
	// Now dates the pending group; defaults to time.Now.
	Now    func() time.Time
	Logger *zap.Logger
	// OnProgress, when set, is called after each fragment is processed. It
	// may be called from several goroutines at once.
	OnProgress func(done, total int)
}

func (o *Options) setDefaults() {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.MaxDiscoveryDepth <= 0 {
		o.MaxDiscoveryDepth = git.DefaultMaxDiscoveryDepth
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Ignore == nil {
		o.Ignore = fragment.DefaultIgnore()
	}
}

// Report is the outcome of one Run.
type Report struct {
	// RunID identifies the build in logs: YYYYMMDD_HHMMSS_<8-char-uuid>.
	RunID string
	// Root is the repository working tree root.
	Root string
	// FragmentsDir is the absolute fragments folder.
	FragmentsDir string
	// FragmentsPath is FragmentsDir relative to Root, slash separated.
	FragmentsPath string
	Versions      changelog.Versions
	Tags          attribution.TagIndex
	// TagErrors lists tags that could not be resolved and were skipped.
	TagErrors []error
	// FileErrors aggregates file-scoped failures (see multierr.Errors).
	FileErrors error
	// Excluded lists fragments with no introducing commit in HEAD's history.
	Excluded []string
	Total    int
	Duration time.Duration
}

// Skipped returns the file-scoped failures one by one.
func (r *Report) Skipped() []error {
	return multierr.Errors(r.FileErrors)
}

// Clean reports whether no tag or file was skipped.
func (r *Report) Clean() bool {
	return len(r.TagErrors) == 0 && r.FileErrors == nil
}

// slot is the per-file outcome written by exactly one worker.
type slot struct {
	result   changelog.Result
	ok       bool
	excluded bool
	err      error
}

// Run performs one complete build. File-scoped problems end up in the
// report; the returned error is reserved for configuration problems,
// repository I/O failures and cancellation, in which case no partial result
// is returned.
func Run(ctx context.Context, opts Options) (*Report, error) {
	opts.setDefaults()
	start := time.Now()
	runID := generateRunID(start)
	log := opts.Logger.With(zap.String("run", runID))
	opts.Logger = log

	dir, err := fragmentsDir(opts.FragmentsDir)
	if err != nil {
		return nil, err
	}

	root := opts.RepoRoot
	if root == "" {
		root, err = git.DiscoverRoot(dir, opts.MaxDiscoveryDepth)
		if err != nil {
			return nil, err
		}
	} else if root, err = filepath.Abs(root); err != nil {
		return nil, fmt.Errorf("resolving repository root: %w", err)
	}

	rel, err := relativeToRoot(root, dir)
	if err != nil {
		return nil, err
	}
	log.Debug("resolved paths", zap.String("root", root), zap.String("fragments", rel))

	repo, err := git.Open(root)
	if err != nil {
		return nil, err
	}

	index, tagErrs, history, err := snapshot(ctx, repo, opts)
	if err != nil {
		return nil, err
	}
	for _, e := range tagErrs {
		log.Warn("skipping tag", zap.Error(e))
	}
	log.Debug("snapshot ready", zap.Int("tags", len(index)), zap.Int("commits", history.Len()))

	src, err := fragment.NewSource(opts.Fs, dir, opts.Ignore)
	if err != nil {
		return nil, err
	}
	names, err := src.List()
	if err != nil {
		return nil, err
	}

	resolver := attribution.NewResolver(repo, history, index)
	slots, err := process(ctx, src, resolver, rel, names, opts)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:         runID,
		Root:          root,
		FragmentsDir:  dir,
		FragmentsPath: rel,
		Tags:          index,
		TagErrors:     tagErrs,
		Total:         len(names),
	}

	results := make([]changelog.Result, 0, len(slots))
	for i, s := range slots {
		switch {
		case s.err != nil:
			log.Warn("skipping fragment", zap.String("file", names[i]), zap.Error(s.err))
			report.FileErrors = multierr.Append(report.FileErrors, s.err)
		case s.excluded:
			log.Debug("fragment has no introducing commit", zap.String("file", names[i]))
			report.Excluded = append(report.Excluded, names[i])
		case s.ok:
			results = append(results, s.result)
		}
	}

	report.Versions = changelog.Group(results, opts.Now(), changelog.GroupOptions{PendingLast: opts.PendingLast})
	report.Duration = time.Since(start)

	log.Info("changelog built",
		zap.Int("fragments", len(names)),
		zap.Int("attributed", len(results)),
		zap.Int("versions", len(report.Versions.Order)),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// generateRunID creates a unique run ID with timestamp prefix.
func generateRunID(now time.Time) string {
	return fmt.Sprintf("%s_%s", now.Format("20060102_150405"), uuid.New().String()[:8])
}

func fragmentsDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%s: %w", dir, ErrFragmentsNotDirectory)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is a file: %w", dir, ErrFragmentsNotDirectory)
	}
	return abs, nil
}

// relativeToRoot returns dir relative to root, slash separated; the root
// itself is "".
func relativeToRoot(root, dir string) (string, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", fmt.Errorf("%s: %w", dir, ErrOutsideRepository)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is not inside %s: %w", dir, root, ErrOutsideRepository)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		rel = ""
	}
	return rel, nil
}

// snapshot builds the tag index and HEAD history concurrently. A repository
// without commits yields an empty history.
func snapshot(ctx context.Context, repo *git.Repository, opts Options) (attribution.TagIndex, []error, attribution.History, error) {
	var (
		index   attribution.TagIndex
		tagErrs []error
		history attribution.History
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		index, tagErrs, err = attribution.BuildTagIndex(gctx, repo, attribution.IndexOptions{
			Workers:    opts.Workers,
			SemverOnly: opts.SemverOnly,
			Skipped: func(name string) {
				opts.Logger.Debug("ignoring non-semver tag", zap.String("tag", name))
			},
		})
		if err != nil {
			return fmt.Errorf("building tag index: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		head, ok, err := repo.Head(gctx)
		if err != nil {
			return err
		}
		if !ok {
			opts.Logger.Warn("repository has no commits; every fragment is excluded")
			history = attribution.NewHistory(nil)
			return nil
		}
		history, err = repo.History(gctx, head)
		if err != nil {
			return fmt.Errorf("walking HEAD history: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, attribution.History{}, err
	}
	return index, tagErrs, history, nil
}

// process attributes and loads every named fragment on a bounded pool. Each
// worker writes only its own slot.
func process(ctx context.Context, src *fragment.Source, resolver *attribution.Resolver, rel string, names []string, opts Options) ([]slot, error) {
	slots := make([]slot, len(names))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			s, err := processOne(gctx, src, resolver, rel, name)
			if err != nil {
				return err
			}
			slots[i] = s
			if opts.OnProgress != nil {
				opts.OnProgress(int(done.Add(1)), len(names))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slots, nil
}

// processOne returns a non-nil error only for failures that abort the run.
func processOne(ctx context.Context, src *fragment.Source, resolver *attribution.Resolver, rel, name string) (slot, error) {
	repoPath := path.Join(rel, name)
	parsed, err := fragment.ParseName(name)
	if err != nil {
		return slot{err: &fragment.NameError{Path: repoPath}}, nil
	}

	a, err := resolver.Resolve(ctx, repoPath)
	if err != nil {
		return slot{}, fmt.Errorf("attributing %s: %w", repoPath, err)
	}
	if !a.Found {
		return slot{excluded: true}, nil
	}

	content, rendered, err := src.Load(name)
	if err != nil {
		return slot{err: err}, nil
	}

	return slot{
		ok: true,
		result: changelog.Result{
			File: fragment.File{
				Name:     name,
				Path:     repoPath,
				Type:     parsed.Type,
				Content:  content,
				Rendered: rendered,
			},
			Attribution: a,
		},
	}, nil
}
