package tui

import (
	"log"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"

	"github.com/csheth/chromaseek/internal/render"
)

// answerRenderer draws the answer markdown for the terminal. The glamour
// renderer is rebuilt only when the theme or width changes.
type answerRenderer struct {
	dark     bool
	width    int
	renderer *glamour.TermRenderer
}

func answerStyle(dark bool) ansi.StyleConfig {
	if dark {
		return styles.DarkStyleConfig
	}
	return styles.LightStyleConfig
}

func (a *answerRenderer) ensure(dark bool, width int) {
	if width < 20 {
		width = 20
	}
	if a.renderer != nil && a.dark == dark && a.width == width {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(answerStyle(dark)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Printf("[tui] build answer renderer: %v", err)
		a.renderer = nil
		return
	}
	a.dark, a.width, a.renderer = dark, width, r
}

// Render returns the terminal rendering of markdown. markup is the sanitised
// HTML of the same answer, used as plain text when glamour fails.
func (a *answerRenderer) Render(markdown, markup string, dark bool, width int) string {
	a.ensure(dark, width)
	if a.renderer != nil {
		out, err := a.renderer.Render(markdown)
		if err == nil {
			return strings.Trim(out, "\n")
		}
		log.Printf("[tui] render answer: %v", err)
	}
	return termSafe(render.PlainText(markup))
}
