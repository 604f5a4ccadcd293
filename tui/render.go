package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/buildfastwithai/researchchat/pkg/session"
	"github.com/buildfastwithai/researchchat/pkg/thinking"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	userStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	asstStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	thinkStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	metaStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Faint(true)

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// transcriptRenderer turns a session into the viewport content. Markdown in
// answers goes through glamour; thinking sections render dim and only on
// request.
type transcriptRenderer struct {
	markdown *glamour.TermRenderer
	width    int
}

func newTranscriptRenderer(width int) *transcriptRenderer {
	if width <= 0 {
		width = 80
	}

	style := "light"
	if termenv.HasDarkBackground() {
		style = "dark"
	}

	markdown, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		markdown = nil
	}

	return &transcriptRenderer{markdown: markdown, width: width}
}

func (r *transcriptRenderer) transcript(sess *session.Session, gate *thinking.Gate, streaming, showThinking bool) string {
	var b strings.Builder

	if len(sess.Turns) == 0 && !streaming {
		b.WriteString(metaStyle.Render("Ask me anything!"))
		b.WriteString("\n")
	}

	for _, turn := range sess.Transcript() {
		switch turn.Role {
		case session.RoleUser:
			b.WriteString(userStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(turn.Content)
			b.WriteString("\n\n")

		case session.RoleAssistant:
			b.WriteString(asstStyle.Render("Assistant"))
			b.WriteString("\n")
			r.writeAssistant(&b, turn, showThinking)
			b.WriteString("\n")
		}
	}

	if streaming {
		b.WriteString(asstStyle.Render("Assistant"))
		b.WriteString("\n")
		if visible := gate.Visible(); visible != "" {
			b.WriteString(visible)
		} else if strings.Contains(gate.String(), thinking.OpenMarker) {
			b.WriteString(thinkStyle.Render("thinking..."))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (r *transcriptRenderer) writeAssistant(b *strings.Builder, turn session.Turn, showThinking bool) {
	split := thinking.Split(turn.Content)

	if split.Found {
		if showThinking {
			b.WriteString(thinkStyle.Render(split.Thinking))
		} else {
			b.WriteString(metaStyle.Render("[thinking hidden, ctrl+t to show]"))
		}
		b.WriteString("\n")
	}

	b.WriteString(r.renderMarkdown(split.Answer))
	b.WriteString("\n")

	if meta := turn.Meta; meta != nil {
		b.WriteString(metaStyle.Render(fmt.Sprintf("%s  %.1fs  ~%d tokens",
			meta.Model, float64(meta.ElapsedMS)/1000.0, meta.TokenEstimate)))
		b.WriteString("\n")
	}
}

func (r *transcriptRenderer) renderMarkdown(text string) string {
	if r.markdown == nil {
		return text
	}
	out, err := r.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
