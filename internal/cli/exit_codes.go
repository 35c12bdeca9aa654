package cli

import (
	"context"
	"errors"
	"fmt"

	clierrors "github.com/ariel-frischer/changelog2html/internal/errors"
)

// Exit codes for the changelog2html CLI
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitValidationFailed indicates the run failed, or --strict found skipped fragments or tags
	ExitValidationFailed = 1

	// ExitInvalidArguments indicates invalid command arguments or configuration
	ExitInvalidArguments = 3

	// ExitMissingDependencies indicates the repository could not be found or opened
	ExitMissingDependencies = 4

	// ExitInterrupted indicates the run was cancelled by SIGINT or SIGTERM
	ExitInterrupted = 130
)

// ExitError carries a specific exit code out of a command. Err, when set, is
// printed before exiting; a nil Err means the problem was already reported.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns an error that makes the process exit with code.
func NewExitError(code int) error {
	return &ExitError{Code: code}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case clierrors.Argument, clierrors.Configuration:
			return ExitInvalidArguments
		case clierrors.Prerequisite:
			return ExitMissingDependencies
		}
	}
	return ExitValidationFailed
}
