package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewRenderer returns a function that renders markdown using glamour.
// The style follows the terminal background.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}, nil
}

// levelColors maps levels to terminal colors; unknown levels stay plain.
var levelColors = map[domain.Level]string{
	domain.LevelDebug:   "#9ca3af",
	domain.LevelInfo:    "#60a5fa",
	domain.LevelSuccess: "#4ade80",
	domain.LevelWarning: "#facc15",
	domain.LevelError:   "#f87171",
	domain.LevelFatal:   "#dc2626",
}

// WriteView writes a rendered page. On a terminal the outline goes through
// glamour and a colored feedback summary follows; otherwise the raw
// markdown is written unchanged.
func WriteView(w io.Writer, view *domain.View) error {
	if !IsTerminal(w) {
		_, err := io.WriteString(w, view.Output)
		return err
	}

	render, err := NewRenderer()
	if err != nil {
		return err
	}
	out, err := render(view.Output)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, out); err != nil {
		return err
	}

	if view.Restarts > 0 {
		fmt.Fprintf(w, "  redirected from %s (%d restart(s))\n", view.Requested, view.Restarts)
	}
	return WriteFeedback(termenv.NewOutput(w), view)
}

// WriteFeedback writes one colored line per displayed message.
func WriteFeedback(out *termenv.Output, view *domain.View) error {
	for _, c := range view.Feedback {
		for _, m := range c.Messages {
			level := strings.ToUpper(m.Level.String())
			styled := out.String(fmt.Sprintf("%-8s", level))
			if color, ok := levelColors[m.Level]; ok {
				styled = styled.Foreground(out.Color(color)).Bold()
			}
			if _, err := fmt.Fprintf(out, "  %s %s  (%s)\n", styled, m.Text, c.Path); err != nil {
				return err
			}
		}
	}
	return nil
}
