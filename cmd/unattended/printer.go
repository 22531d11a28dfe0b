package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/cboone/unattended"
)

var (
	stepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	lineStyle   = lipgloss.NewStyle().Faint(true)
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	sentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// printer writes the human-readable progress lines shown to the operator.
type printer struct {
	w     io.Writer
	quiet bool
}

func (p *printer) step(format string, args ...any) {
	fmt.Fprintln(p.w, stepStyle.Render("==> ")+fmt.Sprintf(format, args...))
}

func (p *printer) done(format string, args ...any) {
	fmt.Fprintln(p.w, doneStyle.Render("✓ ")+fmt.Sprintf(format, args...))
}

func (p *printer) fail(format string, args ...any) {
	fmt.Fprintln(p.w, failStyle.Render("✗ ")+fmt.Sprintf(format, args...))
}

func (p *printer) plain(s string) {
	fmt.Fprintln(p.w, s)
}

// event renders an engine event.
func (p *printer) event(ev unattended.Event) {
	switch ev.Kind {
	case unattended.EventLine:
		if !p.quiet {
			fmt.Fprintln(p.w, lineStyle.Render("  │ "+ev.Line))
		}
	case unattended.EventResponse:
		fmt.Fprintf(p.w, "%s %s\n",
			promptStyle.Render(fmt.Sprintf("  ? %q", ev.Rule.Match)),
			sentStyle.Render(fmt.Sprintf("→ %q", ev.Rule.Response)))
	case unattended.EventState:
		if ev.State == unattended.Streaming {
			p.step("watching for prompts")
		}
	}
}
