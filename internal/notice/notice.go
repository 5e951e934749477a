// Package notice prints short styled messages for the command line.
package notice

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#5C7A84")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

// Printer writes notices to w.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) line(icon string, style lipgloss.Style, msg string) {
	fmt.Fprintf(p.w, "%s %s\n", style.Render(icon), style.Render(msg))
}

// Success prints msg with a check mark.
func (p *Printer) Success(msg string) {
	p.line("✓", successStyle, msg)
}

// Warning prints msg with a warning sign.
func (p *Printer) Warning(msg string) {
	p.line("⚠", warningStyle, msg)
}

// Error prints err. Nil errors print nothing.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	p.line("✗", errorStyle, err.Error())
}

// Detail prints an indented secondary line.
func (p *Printer) Detail(label, value string) {
	fmt.Fprintf(p.w, "  %s %s\n", mutedStyle.Render(label+":"), value)
}
