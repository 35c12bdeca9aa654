package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ariel-frischer/changelog2html/internal/build"
	clierrors "github.com/ariel-frischer/changelog2html/internal/errors"
	"github.com/spf13/cobra"
)

// SourceURL is the project source URL
const SourceURL = "https://github.com/ariel-frischer/changelog2html"

var (
	versionPlain bool
	versionJSON  bool
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Long:    "Display version, commit, build date, and Go version information for changelog2html",
	Example: `  # Show version info
  changelog2html version

  # Plain output (for scripts)
  changelog2html version --plain

  # Machine-readable output
  changelog2html version --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionPlain && versionJSON {
			return clierrors.InvalidFlagCombination("--plain with --json", "Pick one output style")
		}
		info := build.Current()
		out := cmd.OutOrStdout()
		switch {
		case versionJSON:
			return printJSONVersion(out, info)
		case versionPlain:
			printPlainVersion(out, info)
		default:
			printPrettyVersion(out, info)
		}
		return nil
	},
}

func init() {
	versionCmd.GroupID = GroupInternal
	versionCmd.Flags().BoolVar(&versionPlain, "plain", false, "Plain output without formatting")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "JSON output")
	rootCmd.AddCommand(versionCmd)
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(w io.Writer, info build.Info) {
	fmt.Fprintf(w, "changelog2html %s\n", info.Version)
	fmt.Fprintf(w, "commit: %s\n", info.Commit)
	fmt.Fprintf(w, "built: %s\n", info.BuildDate)
	fmt.Fprintf(w, "go: %s\n", info.GoVersion)
	fmt.Fprintf(w, "platform: %s\n", info.Platform)
}

func printJSONVersion(w io.Writer, info build.Info) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

// printPrettyVersion prints the version details inside a box.
func printPrettyVersion(w io.Writer, info build.Info) {
	rows := [][2]string{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"Built", info.BuildDate},
		{"Go", info.GoVersion},
		{"Platform", info.Platform},
	}

	width := len(SourceURL)
	for _, row := range rows {
		if n := len(row[0]) + 2 + len(row[1]); n > width {
			width = n
		}
	}
	border := strings.Repeat("─", width+2)

	fmt.Fprintf(w, "%s\n", cDim("╭"+border+"╮"))
	fmt.Fprintf(w, "%s %s%s %s\n", cDim("│"), cBold("changelog2html"), strings.Repeat(" ", width-len("changelog2html")), cDim("│"))
	fmt.Fprintf(w, "%s\n", cDim("├"+border+"┤"))
	for _, row := range rows {
		pad := width - len(row[0]) - 2 - len(row[1])
		fmt.Fprintf(w, "%s %s: %s%s %s\n", cDim("│"), cCyan(row[0]), row[1], strings.Repeat(" ", pad), cDim("│"))
	}
	fmt.Fprintf(w, "%s\n", cDim("├"+border+"┤"))
	fmt.Fprintf(w, "%s %s%s %s\n", cDim("│"), cDim(SourceURL), strings.Repeat(" ", width-len(SourceURL)), cDim("│"))
	fmt.Fprintf(w, "%s\n", cDim("╰"+border+"╯"))
}
