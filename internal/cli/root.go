// Package cli implements the changelog2html command line.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	clierrors "github.com/ariel-frischer/changelog2html/internal/errors"
	"github.com/ariel-frischer/changelog2html/internal/git"
	"github.com/ariel-frischer/changelog2html/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Command groups shown in help output.
const (
	GroupCore          = "core"
	GroupConfiguration = "configuration"
	GroupInternal      = "internal"
)

var (
	configFile   string
	logLevelFlag string
	debugFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "changelog2html",
	Short: "Render changelog fragments grouped by the release that shipped them",
	Long: `changelog2html builds a changelog from a folder of fragment files.

Each fragment is a markdown file named <id>.<type>.<ext>, for example
42.feature.md. changelog2html finds the commit that introduced every fragment
and groups it under the oldest tag containing that commit. Fragments no tag
contains yet go into a "pending" group.

The git history is read directly; no git installation is needed.
Source: https://github.com/ariel-frischer/changelog2html`,
	Example: `  # Render an HTML changelog with your own template
  changelog2html render changelog.html.tmpl changes/ -o CHANGELOG.html

  # Render with the built-in template
  changelog2html render - changes/

  # Dump the grouped data as JSON
  changelog2html render - changes/ --format json

  # Re-render whenever fragments or tags change
  changelog2html render page.tmpl changes/ -o out.html --watch`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupCore, Title: "Commands:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"},
		&cobra.Group{ID: GroupInternal, Title: "Other:"},
	)
	rootCmd.SetHelpCommandGroupID(GroupInternal)
	rootCmd.SetCompletionCommandGroupID(GroupInternal)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: .changelog2html.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error, none (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Shorthand for --log-level debug")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context. Errors are printed to stderr before being returned; pass the
// result to ExitCode.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext is Execute with a parent context.
func ExecuteContext(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

func printError(w io.Writer, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			clierrors.FprintAny(w, exitErr.Err)
		}
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	clierrors.FprintAny(w, err)
}

// newLogger builds the logger for a command. --debug wins over --log-level,
// which wins over the configured level.
func newLogger(cmd *cobra.Command, configured string) (*zap.Logger, error) {
	level := configured
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	if debugFlag {
		level = logging.LevelDebug
	}

	logger, err := logging.New(level, cmd.ErrOrStderr())
	if err != nil {
		return nil, clierrors.NewArgumentError(err.Error())
	}
	git.SetDebugLogger(logging.DebugHook(logger))
	return logger, nil
}
