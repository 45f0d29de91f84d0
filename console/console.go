// Package console prints user-facing progress to a terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

var (
	cGreen  = lipgloss.Color("42")
	cRed    = lipgloss.Color("196")
	cOrange = lipgloss.Color("208")
	cCyan   = lipgloss.Color("39")
	cGray   = lipgloss.Color("245")

	styleHeading = lipgloss.NewStyle().Foreground(cCyan).Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(cGreen)
	styleWarn    = lipgloss.NewStyle().Foreground(cOrange)
	styleError   = lipgloss.NewStyle().Foreground(cRed).Bold(true)
	styleFaint   = lipgloss.NewStyle().Foreground(cGray)
)

// Printer writes lines to the console. It is safe for concurrent use.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	styled bool
	width  int
}

// New returns a printer for out. Styling and truncation are enabled only when
// out is a terminal.
func New(out io.Writer) *Printer {
	p := &Printer{out: out}

	if f, ok := out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		p.styled = os.Getenv("NO_COLOR") == ""
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			p.width = w
		}
	}

	return p
}

// NewPlain returns an unstyled printer. Progress lines are cut at width
// columns; zero disables truncation.
func NewPlain(out io.Writer, width int) *Printer {
	return &Printer{out: out, width: width}
}

func (p *Printer) println(style lipgloss.Style, s string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.styled {
		s = style.Render(s)
	}
	fmt.Fprintln(p.out, s)
}

// Println prints s as is.
func (p *Printer) Println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s)
}

// Printf prints a formatted line.
func (p *Printer) Printf(format string, args ...any) {
	p.Println(fmt.Sprintf(format, args...))
}

func (p *Printer) Heading(s string) { p.println(styleHeading, s) }

func (p *Printer) Success(s string) { p.println(styleSuccess, s) }

func (p *Printer) Warn(s string) { p.println(styleWarn, s) }

func (p *Printer) Error(s string) { p.println(styleError, s) }

// Faint prints secondary information.
func (p *Printer) Faint(s string) { p.println(styleFaint, s) }

// Progress prints a line of downloader output, cut to the terminal width.
// Lines from the error stream are printed as warnings.
func (p *Printer) Progress(line string, isErr bool) {
	line = strings.TrimRight(line, " \r\n")
	if p.width > 0 && runewidth.StringWidth(line) > p.width {
		line = runewidth.Truncate(line, p.width, "…")
	}

	if isErr {
		p.Warn(line)
		return
	}
	p.Faint(line)
}
