package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Terminal colors.
const (
	colorSuccess = "#10B981"
	colorError   = "#EF4444"
	colorInfo    = "#3B82F6"
	colorGray    = "#6B7280"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess)).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorError)).Bold(true)
	variantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorInfo))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray))
)

// terminalPrinter writes notifications and progress lines. It implements
// codegen.Notifier.
type terminalPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func newTerminalPrinter(out io.Writer) *terminalPrinter {
	return &terminalPrinter{out: out}
}

func (p *terminalPrinter) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s)
}

// Success implements codegen.Notifier.
func (p *terminalPrinter) Success(msg string) {
	p.println(successStyle.Render("✔ " + msg))
}

// Error implements codegen.Notifier.
func (p *terminalPrinter) Error(msg string) {
	p.println(errorStyle.Render("✖ " + msg))
}

// Status prints a progress line for a variant.
func (p *terminalPrinter) Status(variant int, msg string) {
	p.println(variantStyle.Render(fmt.Sprintf("[variant %d]", variant)) + " " + msg)
}

// Info prints a dimmed informational line.
func (p *terminalPrinter) Info(msg string) {
	p.println(subtleStyle.Render(msg))
}
