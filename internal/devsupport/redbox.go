package devsupport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joeycumines/uibridge/internal/scripting"
	"golang.org/x/term"
)

// RedBox renders script errors for the developer. In debug mode it draws a
// bordered overlay with the JavaScript stack; otherwise it prints one line.
type RedBox struct {
	Out   io.Writer
	Debug bool
	// Color forces styling on or off. Nil means style only when Out is a
	// terminal.
	Color *bool
}

var (
	redBoxTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")).Padding(0, 1)
	redBoxFrame = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("1")).Padding(0, 1)
	redBoxStack = lipgloss.NewStyle().Faint(true)
)

// Show writes err to Out.
func (r *RedBox) Show(err error) {
	if err == nil || r.Out == nil {
		return
	}
	if !r.Debug {
		fmt.Fprintf(r.Out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(r.Out, r.Render(err))
}

// Render returns the overlay text for err.
func (r *RedBox) Render(err error) string {
	title := "Error"
	var stack string
	var se *scripting.ScriptError
	if errors.As(err, &se) {
		title = fmt.Sprintf("Script %s error in %s", se.Phase, se.Name)
		stack = strings.TrimSpace(se.Stack())
	}
	message := err.Error()

	if !r.colored() {
		var b strings.Builder
		fmt.Fprintf(&b, "== %s ==\n%s", title, message)
		if stack != "" && stack != message {
			fmt.Fprintf(&b, "\n\n%s", stack)
		}
		return b.String()
	}

	parts := []string{redBoxTitle.Render(title), "", message}
	if stack != "" && stack != message {
		parts = append(parts, "", redBoxStack.Render(stack))
	}
	return redBoxFrame.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (r *RedBox) colored() bool {
	if r.Color != nil {
		return *r.Color
	}
	f, ok := r.Out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
