// Package progress reports detail-phase progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	bar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Reporter receives progress events from a long-running phase.
type Reporter interface {
	Start(total int)
	Advance()
	Finish()
}

type nop struct{}

func (nop) Start(int) {}
func (nop) Advance()  {}
func (nop) Finish()   {}

// Nop returns a Reporter that discards all events.
func Nop() Reporter {
	return nop{}
}

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED")).
			Bold(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// Bar redraws a single-line progress bar on every event.
type Bar struct {
	mu     sync.Mutex
	out    io.Writer
	label  string
	model  bar.Model
	total  int
	done   int
	active bool
}

// NewBar creates a bar writing to out.
func NewBar(out io.Writer, label string) *Bar {
	return &Bar{
		out:   out,
		label: label,
		model: bar.New(
			bar.WithDefaultGradient(),
			bar.WithWidth(40),
		),
	}
}

// Start resets the bar for total items and draws it.
func (b *Bar) Start(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total = total
	b.done = 0
	b.active = true
	b.draw()
}

// Advance marks one item done.
func (b *Bar) Advance() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active {
		return
	}
	if b.done < b.total {
		b.done++
	}
	b.draw()
}

// Finish ends the line. Further events are ignored until the next Start.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active {
		return
	}
	b.active = false
	fmt.Fprintln(b.out)
}

func (b *Bar) percent() float64 {
	if b.total <= 0 {
		return 1
	}
	return float64(b.done) / float64(b.total)
}

func (b *Bar) draw() {
	fmt.Fprintf(b.out, "\r%s %s %s",
		labelStyle.Render(b.label),
		b.model.ViewAs(b.percent()),
		countStyle.Render(fmt.Sprintf("%d/%d", b.done, b.total)),
	)
}

// ForTerminal returns a Bar on stderr when stderr is a terminal and a Nop
// reporter otherwise, so piped or logged runs stay free of control codes.
func ForTerminal(label string) Reporter {
	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return NewBar(os.Stderr, label)
	}
	return Nop()
}
