package client

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const eraseLine = "\r\x1b[K"

// Console writes notices to a terminal. When attached to a tty it erases
// the prompt before printing, colours private and self lines, and redraws
// the prompt afterwards.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	tty    bool
	prompt string

	privateStyle lipgloss.Style
	selfStyle    lipgloss.Style
}

// NewConsole builds a console on f, detecting whether it is a terminal.
func NewConsole(f *os.File) *Console {
	return NewConsoleWriter(f, term.IsTerminal(int(f.Fd())))
}

// NewConsoleWriter builds a console on w. tty enables cursor control and
// colours.
func NewConsoleWriter(w io.Writer, tty bool) *Console {
	c := &Console{
		out:          w,
		tty:          tty,
		privateStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
		selfStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
	if tty {
		c.prompt = "> "
	}
	return c
}

// Render prints line, which may span several lines, then restores the prompt.
func (c *Console) Render(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	if c.tty {
		b.WriteString(eraseLine)
	}
	for _, l := range strings.Split(line, "\n") {
		b.WriteString(c.style(l))
		b.WriteByte('\n')
	}
	b.WriteString(c.prompt)
	_, _ = io.WriteString(c.out, b.String())
}

// Print writes text without touching the prompt.
func (c *Console) Print(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, text+"\n")
}

// ShowPrompt draws the input prompt.
func (c *Console) ShowPrompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, c.prompt)
}

func (c *Console) style(line string) string {
	if !c.tty {
		return line
	}
	body := line
	if len(line) > len(timestampLayout) && line[len(timestampLayout)] == ' ' {
		body = line[len(timestampLayout)+1:]
	}
	switch {
	case strings.HasPrefix(body, "!"):
		return c.privateStyle.Render(line)
	case strings.HasPrefix(body, "You"):
		return c.selfStyle.Render(line)
	}
	return line
}
