package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	clierrors "github.com/ariel-frischer/changelog2html/internal/errors"
	"github.com/ariel-frischer/changelog2html/internal/pipeline"
	"github.com/google/shlex"
)

// Environment passed to --exec commands.
const (
	hookEnvFile    = "CHANGELOG_FILE"
	hookEnvRunID   = "CHANGELOG_RUN_ID"
	hookEnvChanges = "CHANGELOG_CHANGES"
)

// postRenderHook is the --exec command, run after each successful write.
type postRenderHook struct {
	args []string
}

// parseHook splits command with shell quoting rules and checks that the
// program exists in PATH.
func parseHook(command string) (*postRenderHook, error) {
	parts, err := shlex.Split(command)
	if err != nil {
		return nil, clierrors.NewArgumentError(
			fmt.Sprintf("--exec: invalid command: %v", err),
			"Quote arguments that contain spaces, e.g. --exec \"cp out.html '/srv/my site/'\"",
		)
	}
	if len(parts) == 0 {
		return nil, clierrors.NewArgumentError("--exec: command is empty")
	}
	if _, err := exec.LookPath(parts[0]); err != nil {
		return nil, clierrors.NewPrerequisiteError(
			fmt.Sprintf("--exec: command %q not found in PATH", parts[0]),
			"Install it or pass its full path",
		)
	}
	return &postRenderHook{args: parts}, nil
}

func (h *postRenderHook) String() string {
	return strings.Join(h.args, " ")
}

// run executes the command with the output path and build details in its
// environment. The command's output goes to w.
func (h *postRenderHook) run(ctx context.Context, report *pipeline.Report, output string, w io.Writer) error {
	cmd := exec.CommandContext(ctx, h.args[0], h.args[1:]...)
	cmd.Stdout = w
	cmd.Stderr = w
	cmd.Env = append(os.Environ(),
		hookEnvFile+"="+output,
		hookEnvRunID+"="+report.RunID,
		fmt.Sprintf("%s=%d", hookEnvChanges, report.Versions.ChangeCount()),
	)
	if err := cmd.Run(); err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Runtime,
			fmt.Sprintf("--exec %q failed", h.String()),
			"The changelog was written; only the follow-up command failed",
		)
	}
	return nil
}
