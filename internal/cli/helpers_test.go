package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ariel-frischer/changelog2html/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var epoch = time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func (r cliResult) code() int {
	return ExitCode(r.err)
}

// resetFlags restores every flag of c and its sub-commands to its default,
// since commands and their flag variables are package globals.
func resetFlags(c *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// isolate runs the test in an empty working directory with no user config
// and no CHANGELOG2HTML_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "CHANGELOG2HTML_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// releaseRepo builds:
//
//	day 0: changes/a.feature.md   <- v1.0
//	day 1: changes/c.fix.md       <- v2.0 (annotated)
//	day 2: changes/b.feature.md   (HEAD, untagged)
func releaseRepo(t *testing.T) *testutil.Repo {
	t.Helper()
	r := testutil.NewRepo(t, epoch)
	c1 := r.Commit(0, map[string]string{"changes/a.feature.md": "Added **A**\n"})
	r.Tag("v1.0", c1)
	c2 := r.Commit(1, map[string]string{"changes/c.fix.md": "Fixed C\n"})
	r.AnnotatedTag("v2.0", c2, 1)
	r.Commit(2, map[string]string{"changes/b.feature.md": "Added B\n"})
	return r
}
