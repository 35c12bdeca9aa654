package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner reports build progress. A disabled Spinner ignores every call,
// so callers never need to check whether output is a terminal.
type Spinner struct {
	w       io.Writer
	label   string
	enabled bool
	symbols ProgressSymbols
	s       *spinner.Spinner
}

// NewSpinner creates a spinner writing to w. It is enabled only when caps
// reports a terminal.
func NewSpinner(w io.Writer, caps TerminalCapabilities, label string) *Spinner {
	p := &Spinner{
		w:       w,
		label:   label,
		enabled: caps.IsTTY,
		symbols: SelectSymbols(caps),
	}
	if p.enabled {
		p.s = spinner.New(spinner.CharSets[p.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(w))
		p.s.Suffix = " " + label
		if caps.SupportsColor {
			_ = p.s.Color("cyan")
		}
	}
	return p
}

// Enabled reports whether the spinner draws anything.
func (p *Spinner) Enabled() bool {
	return p.enabled
}

// Start begins animating.
func (p *Spinner) Start() {
	if p.enabled {
		p.s.Start()
	}
}

// Update shows how many fragments are done. Safe for concurrent use.
func (p *Spinner) Update(done, total int) {
	if !p.enabled {
		return
	}
	p.s.Lock()
	p.s.Suffix = fmt.Sprintf(" %s (%d/%d)", p.label, done, total)
	p.s.Unlock()
}

// Stop ends the animation and prints a final status line.
func (p *Spinner) Stop(ok bool, msg string) {
	if !p.enabled {
		return
	}
	symbol := p.symbols.Checkmark
	if !ok {
		symbol = p.symbols.Failure
	}
	p.s.FinalMSG = fmt.Sprintf("%s %s\n", symbol, msg)
	p.s.Stop()
}
