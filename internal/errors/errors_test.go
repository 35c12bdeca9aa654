package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatErrorPlain(t *testing.T) {
	tests := map[string]struct {
		err         *CLIError
		contains    []string
		notContains []string
	}{
		"argument error with usage": {
			err: TemplateNotFound("page.tmpl"),
			contains: []string{
				"Error [Argument Error]: template page.tmpl does not exist",
				"Usage: changelog2html render <template> <fragments-dir>",
				"To fix this:",
				"  • Use '-' to render with the built-in template",
			},
			notContains: []string{"Details:"},
		},
		"runtime error with details": {
			err: FragmentsSkipped([]error{
				fmt.Errorf("notes.md: bad name"),
				fmt.Errorf("tag nightly: dangling"),
			}),
			contains: []string{
				"Error [Runtime Error]: 2 problem(s) found",
				"Details:\n  - notes.md: bad name\n  - tag nightly: dangling\n",
			},
			notContains: []string{"Usage:"},
		},
		"configuration error": {
			err:      FragmentsOutsideRepository("/tmp/x", "/repo"),
			contains: []string{"Error [Configuration Error]: fragments folder /tmp/x is not inside repository /repo"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := FormatErrorPlain(tt.err)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	sentinel := stderrors.New("not found")
	err := RepositoryNotFound("changes", fmt.Errorf("discovering: %w", sentinel))

	assert.Equal(t, Prerequisite, err.Category)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "no git repository found for changes: discovering: not found")

	assert.Nil(t, Wrap(nil, Runtime))
	assert.Nil(t, WrapWithMessage(nil, Runtime, "x"))
}

func TestAsCLIError(t *testing.T) {
	cliErr := NewConfigError("bad")
	wrapped := fmt.Errorf("loading: %w", cliErr)

	assert.True(t, IsCLIError(cliErr))
	assert.True(t, IsCLIError(wrapped))
	assert.Same(t, cliErr, AsCLIError(wrapped))
	assert.False(t, IsCLIError(stderrors.New("plain")))
	assert.Nil(t, AsCLIError(nil))
}

func TestFprintAny(t *testing.T) {
	var buf bytes.Buffer
	FprintAny(&buf, stderrors.New("boom"))
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "Runtime Error")

	buf.Reset()
	FprintAny(&buf, MissingRenderArguments(1))
	assert.Contains(t, buf.String(), "got 1 argument(s)")

	buf.Reset()
	FprintAny(&buf, nil)
	require.Empty(t, buf.String())
}

func TestErrorCategory_String(t *testing.T) {
	assert.Equal(t, "Argument Error", Argument.String())
	assert.Equal(t, "Configuration Error", Configuration.String())
	assert.Equal(t, "Prerequisite Error", Prerequisite.String())
	assert.Equal(t, "Runtime Error", Runtime.String())
	assert.Equal(t, "Error", ErrorCategory(42).String())
}
