package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/term"
)

// DefaultTermWidth is used when the width cannot be detected.
const DefaultTermWidth = 120

// MinTermWidth is the narrowest width tables and rendered chapters are laid
// out for.
const MinTermWidth = 40

// DisplayContext describes the terminal the CLI writes to.
type DisplayContext struct {
	TermWidth int
	IsTTY     bool
}

// NewDisplayContext inspects stdout. When stdout is not a terminal, as when
// piping `qbank show` into a file, $COLUMNS is honored if set.
func NewDisplayContext() *DisplayContext {
	return detectDisplay(os.Stdout.Fd(), os.Getenv("COLUMNS"))
}

func detectDisplay(fd uintptr, columns string) *DisplayContext {
	d := &DisplayContext{TermWidth: DefaultTermWidth, IsTTY: term.IsTerminal(fd)}

	if d.IsTTY {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			d.TermWidth = w
		}
	} else if n, err := strconv.Atoi(strings.TrimSpace(columns)); err == nil && n > 0 {
		d.TermWidth = n
	}

	if d.TermWidth < MinTermWidth {
		d.TermWidth = MinTermWidth
	}
	return d
}

// NewDisplayContextWithWidth returns a terminal context of a fixed width.
func NewDisplayContextWithWidth(width int) *DisplayContext {
	return &DisplayContext{TermWidth: width, IsTTY: true}
}

// AvailableWidth is the width left after a left margin.
func (d *DisplayContext) AvailableWidth(leftMargin int) int {
	return d.TermWidth - leftMargin
}
