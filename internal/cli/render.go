package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ariel-frischer/changelog2html/internal/changelog"
	"github.com/ariel-frischer/changelog2html/internal/config"
	clierrors "github.com/ariel-frischer/changelog2html/internal/errors"
	"github.com/ariel-frischer/changelog2html/internal/git"
	"github.com/ariel-frischer/changelog2html/internal/pipeline"
	"github.com/ariel-frischer/changelog2html/internal/progress"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Color helper functions for command output
var (
	cGreen  = color.New(color.FgGreen).SprintFunc()
	cYellow = color.New(color.FgYellow).SprintFunc()
	cCyan   = color.New(color.FgCyan).SprintFunc()
	cDim    = color.New(color.Faint).SprintFunc()
	cBold   = color.New(color.Bold).SprintFunc()
)

var (
	renderRepo        string
	renderOutput      string
	renderFormat      string
	renderWorkers     int
	renderPageName    string
	renderOnly        string
	renderSemverOnly  bool
	renderPendingLast bool
	renderWatch       bool
	renderStrict      bool
	renderSummary     bool
	renderQuiet       bool
	renderExec        string
)

var renderCmd = &cobra.Command{
	Use:   "render <template> <fragments-dir>",
	Short: "Render the changelog from a fragments folder",
	Long: `Render the changelog for the fragments in <fragments-dir>.

Every fragment is attributed to the oldest tag whose history contains the
commit that added it. Fragments without a tag go to the "pending" group.
Files that are not named <id>.<type>.<ext> and tags that do not resolve to a
commit are skipped with a warning; --strict turns them into exit code 1.

<template> is an html/template file; '-' selects the built-in page. It is only
executed for --format html. The template receives:

  .PageName                 page title (--pagename, default "Changelog")
  .Groups                   version groups, newest first
  .Versions / .Order        the same groups as a map keyed by tag name, and its key order

Each group has .Key (tag name or "pending"), .Pending, .Date, .Changes,
.Sorted, .Types and .ByType <type>. Each change has .Content (markdown),
.RenderedContent (HTML), .Path, .Date, .Tag and .Type.

Template functions: date <layout> <time>, isoDate <time>, title <string>.`,
	Example: `  # Write an HTML page
  changelog2html render changelog.html.tmpl changes/ -o CHANGELOG.html

  # Only the unreleased changes, as markdown
  changelog2html render - changes/ --format markdown --only pending

  # Fail CI when a fragment is misnamed
  changelog2html render - changes/ --format json --strict -o /dev/null

  # Keep the page up to date while editing fragments
  changelog2html render page.tmpl changes/ -o out.html --watch

  # Publish after every rebuild; $CHANGELOG_FILE holds the output path
  changelog2html render - changes/ -o out.html -w --exec "rsync -a out.html web:/srv/"`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return clierrors.MissingRenderArguments(len(args))
		}
		return nil
	},
	RunE: runRender,
}

func init() {
	renderCmd.GroupID = GroupCore
	f := renderCmd.Flags()
	f.StringVar(&renderRepo, "repo", "", "Repository root (default: discovered from the fragments folder)")
	f.StringVarP(&renderOutput, "output", "o", "", "Write to this file instead of stdout")
	f.StringVarP(&renderFormat, "format", "f", "", "Output format: html, json, yaml, markdown (overrides config)")
	f.IntVarP(&renderWorkers, "workers", "j", 0, "Concurrent attribution workers, 0 for one per CPU (overrides config)")
	f.StringVar(&renderPageName, "pagename", "", "Page title passed to the template (overrides config)")
	f.StringVar(&renderOnly, "only", "", "Render a single version, e.g. v1.2.0 or pending")
	f.BoolVar(&renderSemverOnly, "semver-only", false, "Ignore tags that are not semantic versions")
	f.BoolVar(&renderPendingLast, "pending-last", false, "Place pending changes after the oldest release")
	f.BoolVarP(&renderWatch, "watch", "w", false, "Re-render when fragments or tags change (requires --output)")
	f.BoolVar(&renderStrict, "strict", false, "Exit with code 1 when a fragment or tag was skipped")
	f.BoolVar(&renderSummary, "summary", false, "Print a colored summary of the versions to stderr")
	f.BoolVarP(&renderQuiet, "quiet", "q", false, "Suppress the progress spinner and status lines")
	f.StringVar(&renderExec, "exec", "", "Command to run after every successful write (requires --output)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	templatePath, fragmentsDir := args[0], args[1]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRenderFlags(cmd, cfg); err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	format, err := changelog.ParseFormat(cfg.Format)
	if err != nil {
		return clierrors.InvalidFormat(cfg.Format, changelog.ValidFormats())
	}
	if renderWatch {
		if renderOutput == "" || renderOutput == "-" {
			return clierrors.InvalidFlagCombination("--watch without --output",
				"Watch mode rewrites a file on every change; pass --output <file>")
		}
		if renderStrict {
			return clierrors.InvalidFlagCombination("--watch with --strict",
				"Watch mode keeps running when a fragment is skipped; drop --strict")
		}
	}

	var hook *postRenderHook
	if renderExec != "" {
		if renderOutput == "" || renderOutput == "-" {
			return clierrors.InvalidFlagCombination("--exec without --output",
				"The command runs on the written file; pass --output <file>")
		}
		if hook, err = parseHook(renderExec); err != nil {
			return err
		}
	}

	tmpl, err := loadRenderTemplate(templatePath, format)
	if err != nil {
		return err
	}
	if err := checkFragmentsDir(fragmentsDir); err != nil {
		return err
	}

	r := &renderer{
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		cfg:    cfg,
		format: format,
		tmpl:   tmpl,
		hook:   hook,
		log:    logger,
	}
	opts := pipeline.Options{
		FragmentsDir:      fragmentsDir,
		RepoRoot:          renderRepo,
		MaxDiscoveryDepth: cfg.MaxDiscoveryDepth,
		Workers:           cfg.Workers,
		SemverOnly:        cfg.Tags.SemverOnly,
		Ignore:            cfg.Fragments.Ignore,
		PendingLast:       cfg.PendingLast(),
		Logger:            logger,
	}

	if renderWatch {
		return r.watch(cmd.Context(), opts)
	}
	return r.once(cmd.Context(), opts)
}

// loadConfig loads the layered configuration, honoring --config.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, clierrors.ConfigFileNotFound(configFile)
		}
	}
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ConfigFile:    configFile,
		WarningWriter: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, clierrors.ConfigParseError(configPathForErrors(), err)
	}
	return cfg, nil
}

// applyRenderFlags lets explicitly set flags override the configuration.
func applyRenderFlags(cmd *cobra.Command, cfg *config.Configuration) error {
	flags := cmd.Flags()
	if flags.Changed("pagename") {
		cfg.PageName = renderPageName
	}
	if flags.Changed("format") {
		cfg.Format = renderFormat
	}
	if flags.Changed("workers") {
		if renderWorkers < 0 {
			return clierrors.NewArgumentError(
				fmt.Sprintf("--workers must be 0 or more, got %d", renderWorkers),
				"Use 0 for one worker per CPU",
			)
		}
		cfg.Workers = renderWorkers
	}
	if renderSemverOnly {
		cfg.Tags.SemverOnly = true
	}
	if renderPendingLast {
		cfg.PendingPosition = "last"
	}
	return nil
}

// loadRenderTemplate validates the template argument and, when the format
// needs one, parses it. The template path is checked for every format so a
// typo is caught before switching to --format html.
func loadRenderTemplate(path string, format changelog.Format) (*template.Template, error) {
	if path != "-" {
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, clierrors.TemplateNotFound(path)
		case err != nil:
			return nil, clierrors.Wrap(err, clierrors.Argument)
		case info.IsDir():
			return nil, clierrors.TemplateIsDirectory(path)
		}
	}
	if !format.NeedsTemplate() {
		return nil, nil
	}
	tmpl, err := changelog.LoadTemplate(path)
	if err != nil {
		return nil, clierrors.TemplateInvalid(path, err)
	}
	return tmpl, nil
}

func checkFragmentsDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return clierrors.FragmentsDirNotFound(path)
	case err != nil:
		return clierrors.Wrap(err, clierrors.Argument)
	case !info.IsDir():
		return clierrors.FragmentsPathIsFile(path)
	}
	return nil
}

// renderer turns pipeline reports into output.
type renderer struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Configuration
	format changelog.Format
	tmpl   *template.Template
	hook   *postRenderHook
	log    *zap.Logger
}

func (r *renderer) once(ctx context.Context, opts pipeline.Options) error {
	caps := progress.DetectTerminalCapabilities(os.Stderr)
	if renderQuiet {
		caps.IsTTY = false
	}
	sp := progress.NewSpinner(r.stderr, caps, "Attributing fragments")
	opts.OnProgress = sp.Update

	sp.Start()
	report, err := pipeline.Run(ctx, opts)
	if err != nil {
		sp.Stop(false, "Attribution failed")
		return runError(err, opts)
	}
	sp.Stop(true, fmt.Sprintf("Attributed %d fragment(s) in %s",
		report.Total, report.Duration.Round(time.Millisecond)))

	if err := r.emit(report); err != nil {
		return err
	}
	if r.hook != nil {
		if err := r.hook.run(ctx, report, renderOutput, r.stderr); err != nil {
			return err
		}
	}
	if renderSummary {
		summaryOpts := changelog.FormatOptions{Plain: color.NoColor}
		if err := changelog.FormatSummary(report.Versions, r.stderr, summaryOpts); err != nil {
			return err
		}
	}
	if !renderQuiet && renderOutput != "" && renderOutput != "-" {
		r.status(report)
	}

	if renderStrict && !report.Clean() {
		problems := append(append([]error{}, report.TagErrors...), report.Skipped()...)
		return &ExitError{Code: ExitValidationFailed, Err: clierrors.FragmentsSkipped(problems)}
	}
	return nil
}

func (r *renderer) watch(ctx context.Context, opts pipeline.Options) error {
	if !renderQuiet {
		fmt.Fprintf(r.stderr, "%s %s %s\n", cCyan("Watching"), opts.FragmentsDir, cDim("(Ctrl+C to stop)"))
	}
	err := pipeline.Watch(ctx, opts, pipeline.WatchOptions{
		Debounce: r.cfg.Watch.Debounce,
		OnBuild: func(report *pipeline.Report, err error) {
			if err != nil {
				clierrors.FprintAny(r.stderr, runError(err, opts))
				return
			}
			if err := r.emit(report); err != nil {
				clierrors.FprintAny(r.stderr, err)
				return
			}
			if !renderQuiet {
				r.status(report)
			}
			if r.hook != nil {
				if err := r.hook.run(ctx, report, renderOutput, r.stderr); err != nil {
					clierrors.FprintAny(r.stderr, err)
				}
			}
		},
	})
	if err != nil {
		return runError(err, opts)
	}
	return nil
}

// emit renders the report in the selected format and writes it out.
func (r *renderer) emit(report *pipeline.Report) error {
	versions := report.Versions
	if renderOnly != "" {
		only, err := versions.Only(renderOnly)
		if err != nil {
			var notFound *changelog.VersionNotFoundError
			if errors.As(err, &notFound) {
				return clierrors.NewArgumentError(
					fmt.Sprintf("version %q not found", renderOnly),
					fmt.Sprintf("Known versions: %s", strings.Join(notFound.AvailableVersions, ", ")),
				)
			}
			return err
		}
		versions = only
	}

	doc := changelog.NewDocument(r.cfg.PageName, versions)
	var buf bytes.Buffer
	if err := changelog.Write(&buf, doc, r.format, r.tmpl); err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Runtime,
			fmt.Sprintf("rendering %s output failed", r.format),
			"Check the fields the template uses with 'changelog2html render --help'",
		)
	}

	if renderOutput == "" || renderOutput == "-" {
		_, err := r.stdout.Write(buf.Bytes())
		return err
	}
	if err := writeFileAtomic(renderOutput, buf.Bytes()); err != nil {
		return clierrors.FileNotWritable(renderOutput, err)
	}
	r.log.Debug("wrote output", zap.String("path", renderOutput), zap.Int("bytes", buf.Len()))
	return nil
}

func (r *renderer) status(report *pipeline.Report) {
	symbol := cGreen("✓")
	if !report.Clean() {
		symbol = cYellow("!")
	}
	fmt.Fprintf(r.stderr, "%s Wrote %s: %d change(s) in %d version(s)",
		symbol, cBold(renderOutput), report.Versions.ChangeCount(), len(report.Versions.Order))
	if skipped := len(report.TagErrors) + len(report.Skipped()); skipped > 0 {
		fmt.Fprintf(r.stderr, ", %s", cYellow(fmt.Sprintf("%d skipped", skipped)))
	}
	fmt.Fprintln(r.stderr)
}

// runError maps pipeline failures to CLI errors.
func runError(err error, opts pipeline.Options) error {
	switch {
	case errors.Is(err, context.Canceled):
		return &ExitError{Code: ExitInterrupted}
	case errors.Is(err, git.ErrRepositoryNotFound):
		path := opts.RepoRoot
		if path == "" {
			path = opts.FragmentsDir
		}
		return clierrors.RepositoryNotFound(path, err)
	case errors.Is(err, pipeline.ErrOutsideRepository):
		return clierrors.FragmentsOutsideRepository(opts.FragmentsDir, opts.RepoRoot)
	case errors.Is(err, pipeline.ErrFragmentsNotDirectory):
		return clierrors.FragmentsDirNotFound(opts.FragmentsDir)
	}
	return clierrors.WrapWithMessage(err, clierrors.Runtime, "building the changelog failed",
		"Run with --debug to trace every repository lookup",
	)
}

// writeFileAtomic replaces path with data so readers never see a partial
// file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
