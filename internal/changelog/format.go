package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// TypeStyle defines the color and icon for a fragment type.
type TypeStyle struct {
	Color *color.Color
	Icon  string
}

// typeStyles maps common fragment types to their terminal styling. Types
// not listed use defaultStyle.
var typeStyles = map[string]TypeStyle{
	"feature":     {Color: color.New(color.FgGreen), Icon: "✓"},
	"added":       {Color: color.New(color.FgGreen), Icon: "✓"},
	"change":      {Color: color.New(color.FgBlue), Icon: "~"},
	"changed":     {Color: color.New(color.FgBlue), Icon: "~"},
	"deprecation": {Color: color.New(color.FgRed), Icon: "⚠"},
	"removal":     {Color: color.New(color.FgRed), Icon: "✗"},
	"removed":     {Color: color.New(color.FgRed), Icon: "✗"},
	"fix":         {Color: color.New(color.FgYellow), Icon: "⚡"},
	"bugfix":      {Color: color.New(color.FgYellow), Icon: "⚡"},
	"security":    {Color: color.New(color.FgMagenta), Icon: "🔒"},
}

var defaultStyle = TypeStyle{Color: color.New(color.FgWhite), Icon: "•"}

func styleFor(typ string) TypeStyle {
	if s, ok := typeStyles[strings.ToLower(typ)]; ok {
		return s
	}
	return defaultStyle
}

// FormatOptions controls the terminal output formatting.
type FormatOptions struct {
	Plain    bool // Disable colors and icons
	MaxWidth int  // Maximum line width (0 = auto-detect)
}

// FormatSummary writes a short overview of the grouped versions: one header
// per version and one line per change, grouped by fragment type.
func FormatSummary(v Versions, w io.Writer, opts FormatOptions) error {
	if len(v.Order) == 0 {
		_, err := fmt.Fprintln(w, "No fragments attributed.")
		return err
	}

	width := resolveWidth(opts.MaxWidth)

	for i, key := range v.Order {
		g := v.Groups[key]
		if g == nil {
			continue
		}
		if err := formatVersionGroup(g, w, opts, width, i > 0); err != nil {
			return fmt.Errorf("formatting version %s: %w", key, err)
		}
	}
	return nil
}

// formatVersionGroup writes a single version group.
func formatVersionGroup(g *VersionGroup, w io.Writer, opts FormatOptions, width int, addSeparator bool) error {
	if addSeparator {
		fmt.Fprintln(w)
	}

	if err := writeVersionHeader(g, w, opts); err != nil {
		return err
	}

	for _, typ := range g.Types() {
		if err := writeTypeSection(typ, g.ByType(typ), w, opts, width); err != nil {
			return err
		}
	}
	return nil
}

// writeVersionHeader writes the version header line.
func writeVersionHeader(g *VersionGroup, w io.Writer, opts FormatOptions) error {
	var header string
	if g.Pending {
		header = "Unreleased"
	} else {
		header = fmt.Sprintf("%s (%s)", g.Key, g.Date.Format("2006-01-02"))
	}
	count := fmt.Sprintf("[%d]", len(g.Changes))

	if opts.Plain {
		_, err := fmt.Fprintf(w, "## %s %s\n", header, count)
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	_, err := fmt.Fprintf(w, "## %s %s\n", bold(header), faint(count))
	return err
}

// writeTypeSection writes one fragment type with its changes.
func writeTypeSection(typ string, changes []*Change, w io.Writer, opts FormatOptions, width int) error {
	style := styleFor(typ)

	if err := writeTypeHeader(typ, style, w, opts); err != nil {
		return err
	}
	for _, c := range changes {
		if err := writeChange(c, style, w, opts, width); err != nil {
			return err
		}
	}
	return nil
}

// writeTypeHeader writes the type header line.
func writeTypeHeader(typ string, style TypeStyle, w io.Writer, opts FormatOptions) error {
	displayName := capitalizeFirst(typ)

	if opts.Plain {
		_, err := fmt.Fprintf(w, "\n### %s\n", displayName)
		return err
	}

	colored := style.Color.SprintFunc()
	_, err := fmt.Fprintf(w, "\n%s %s\n", colored(style.Icon), colored(displayName))
	return err
}

// writeChange writes the first line of a change with optional wrapping.
func writeChange(c *Change, style TypeStyle, w io.Writer, opts FormatOptions, width int) error {
	prefix := "  - "
	text := firstLine(c.Content)
	if text == "" {
		text = c.Name
	}

	if opts.Plain {
		_, err := fmt.Fprintf(w, "%s%s\n", prefix, text)
		return err
	}

	wrapped := wrapText(text, width-len(prefix), "    ")

	colored := style.Color.SprintFunc()
	_, err := fmt.Fprintf(w, "%s%s\n", prefix, colored(wrapped))
	return err
}

// FormatChangeSummary returns a brief one-line summary of a change.
func FormatChangeSummary(c *Change, opts FormatOptions) string {
	style := styleFor(c.Type)
	text := truncateText(firstLine(c.Content), 60)

	if opts.Plain {
		return fmt.Sprintf("[%s] %s", c.Type, text)
	}

	colored := style.Color.SprintFunc()
	return fmt.Sprintf("%s %s", colored(style.Icon), text)
}

// firstLine returns the first non-blank line, without markdown heading or
// list markers.
func firstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "#-* ")
		if line != "" {
			return line
		}
	}
	return ""
}

// resolveWidth determines the terminal width to use.
func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// wrapText wraps text to fit within maxWidth, using indent for continuation lines.
func wrapText(text string, maxWidth int, indent string) string {
	if maxWidth <= 0 || len(text) <= maxWidth {
		return text
	}

	var lines []string
	remaining := text

	for len(remaining) > maxWidth {
		// Find the last space within maxWidth
		breakPoint := maxWidth
		for i := maxWidth - 1; i > 0; i-- {
			if remaining[i] == ' ' {
				breakPoint = i
				break
			}
		}

		lines = append(lines, remaining[:breakPoint])
		remaining = strings.TrimLeft(remaining[breakPoint:], " ")
	}

	if len(remaining) > 0 {
		lines = append(lines, remaining)
	}

	return strings.Join(lines, "\n"+indent)
}

// truncateText truncates text to maxLen, adding ellipsis if needed.
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen-3] + "..."
}

// capitalizeFirst capitalizes the first letter of a string.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
