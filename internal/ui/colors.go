package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// interface Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

func (p *Palette) On(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Background(c).Render(s)
}

func (p *Palette) As(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

// Title renders a section heading.
func Title(format string, args ...any) string {
	return styles.title.Render(fmt.Sprintf(format, args...))
}

// OK renders a success line prefixed with a check mark.
func OK(format string, args ...any) string {
	return styles.ok.Render("✓ " + fmt.Sprintf(format, args...))
}

// Warn renders a warning line, used for shortfalls and degraded runs.
func Warn(format string, args ...any) string {
	return styles.warn.Render("! " + fmt.Sprintf(format, args...))
}

// Error renders a failure line.
func Error(format string, args ...any) string {
	return styles.err.Render("✗ " + fmt.Sprintf(format, args...))
}

// Help renders a dimmed hint.
func Help(format string, args ...any) string {
	return styles.help.Render(fmt.Sprintf(format, args...))
}
