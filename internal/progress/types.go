// Package progress shows a spinner on stderr while a changelog is built.
// Nothing is drawn unless stderr is a terminal.
package progress

// TerminalCapabilities describes what the output terminal can display.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	Width           int
}

// ProgressSymbols are the glyphs used for the final status line.
type ProgressSymbols struct {
	Checkmark string
	Failure   string
	// SpinnerSet indexes spinner.CharSets.
	SpinnerSet int
}
