// Package cliprint prints bracket-prefixed progress lines to stderr,
// colored when attached to a terminal.
package cliprint

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Printer writes progress lines to an underlying writer, colorizing
// only when that writer is a TTY.
type Printer struct {
	out       io.Writer
	colorized bool
}

// New builds a Printer over w, detecting TTY-ness when w is an *os.File.
func New(w io.Writer) *Printer {
	colorized := false
	if f, ok := w.(*os.File); ok {
		colorized = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{out: w, colorized: colorized}
}

// Stderr is the default Printer for CLI progress output.
func Stderr() *Printer { return New(os.Stderr) }

func (p *Printer) line(prefix string, col *color.Color, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if p.colorized {
		col.Fprintf(p.out, "%s %s\n", prefix, msg)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", prefix, msg)
}

// Step reports the start of a pipeline stage.
func (p *Printer) Step(format string, args ...interface{}) {
	p.line("[*]", color.New(color.FgCyan), format, args...)
}

// Warn reports a recoverable problem (e.g. a downgraded TTS failure).
func (p *Printer) Warn(format string, args ...interface{}) {
	p.line("[!]", color.New(color.FgYellow), format, args...)
}

// Done reports a completed stage or the final success line.
func (p *Printer) Done(format string, args ...interface{}) {
	p.line("[+++]", color.New(color.FgGreen), format, args...)
}

// Fail reports the failing step's name and reason on stderr, matching
// the CLI contract's exit-code-1 requirement.
func (p *Printer) Fail(step string, err error) {
	p.line("[!!!]", color.New(color.FgRed), "%s: %v", step, err)
}
