// Package tui is the interactive terminal chat. It renders the session
// transcript, streams the model's reply into the viewport, and keeps the
// thinking section collapsed until the user asks for it.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buildfastwithai/researchchat/pkg/llm"
	"github.com/buildfastwithai/researchchat/pkg/session"
	"github.com/buildfastwithai/researchchat/pkg/thinking"
)

// Config wires the chat model to its collaborators.
type Config struct {
	Client    *llm.Client
	Store     session.Store
	Session   *session.Session
	Model     string
	MaxTokens int
}

// Model is the bubbletea model for the chat screen.
type Model struct {
	cfg  Config
	sess *session.Session

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *transcriptRenderer

	gate      *thinking.Gate
	deltas    chan llm.StreamDelta
	streamErr chan error
	streaming bool
	start     time.Time

	showThinking bool
	errText      string
	width        int
	height       int
	ready        bool
}

// New creates the chat model over an existing session.
func New(cfg Config) Model {
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = llm.DefaultMaxTokens
	}

	input := textinput.New()
	input.Placeholder = "What's on your mind?"
	input.Prompt = "> "
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		cfg:      cfg,
		sess:     cfg.Session,
		input:    input,
		spinner:  sp,
		gate:     &thinking.Gate{},
		renderer: newTranscriptRenderer(80),
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

type deltaMsg struct {
	delta llm.StreamDelta
}

type streamDoneMsg struct {
	err error
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			return m.submit()

		case "ctrl+n":
			// Start a new chat; the previous session is already on disk.
			if m.streaming {
				return m, nil
			}
			m.sess = session.New(m.sess.SystemPrompt)
			m.errText = ""
			m.refreshViewport()
			return m, nil

		case "ctrl+t":
			m.showThinking = !m.showThinking
			m.refreshViewport()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderer = newTranscriptRenderer(msg.Width)

		headerHeight := 2
		footerHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.input.Width = msg.Width - 4
		m.refreshViewport()
		return m, nil

	case deltaMsg:
		m.gate.Write(msg.delta.Content)
		m.refreshViewport()
		return m, waitForDelta(m.deltas, m.streamErr)

	case streamDoneMsg:
		return m.finishStream(msg.err)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the typed prompt as the next user turn and starts streaming
// the reply. Only one request may be outstanding.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.streaming {
		return m, nil
	}

	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return m, nil
	}

	m.sess.Append(session.Turn{
		Role:    session.RoleUser,
		Content: prompt,
		Meta: &session.TurnMeta{
			TokenEstimate: session.EstimateTokens(prompt),
			Timestamp:     time.Now().UTC(),
		},
	})
	m.persist()

	m.input.Reset()
	m.errText = ""
	m.gate = &thinking.Gate{}
	m.streaming = true
	m.start = time.Now()

	m.deltas = make(chan llm.StreamDelta)
	m.streamErr = make(chan error, 1)

	req := &llm.ChatRequest{
		Model:     m.cfg.Model,
		Messages:  m.sess.Messages(),
		MaxTokens: m.cfg.MaxTokens,
	}
	deltas, errCh := m.deltas, m.streamErr
	client := m.cfg.Client
	go func() {
		errCh <- client.Stream(context.Background(), req, deltas)
	}()

	m.refreshViewport()
	return m, tea.Batch(m.spinner.Tick, waitForDelta(m.deltas, m.streamErr))
}

// finishStream closes out the in-flight turn. On error the transcript keeps
// the user turn and nothing else.
func (m Model) finishStream(err error) (tea.Model, tea.Cmd) {
	m.streaming = false
	elapsed := time.Since(m.start)

	if err != nil {
		m.errText = err.Error()
		m.persist()
		m.refreshViewport()
		return m, nil
	}

	content := m.gate.String()
	m.sess.Append(session.Turn{
		Role:    session.RoleAssistant,
		Content: content,
		Meta: &session.TurnMeta{
			Model:         m.cfg.Model,
			ElapsedMS:     elapsed.Milliseconds(),
			TokenEstimate: session.EstimateTokens(content),
			Timestamp:     time.Now().UTC(),
		},
	})
	m.persist()

	m.gate = &thinking.Gate{}
	m.refreshViewport()
	return m, nil
}

// waitForDelta relays one stream delta into the update loop. A closed
// channel means the stream finished; its error is waiting on errCh.
func waitForDelta(deltas <-chan llm.StreamDelta, errCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		for d := range deltas {
			if d.Done {
				continue
			}
			return deltaMsg{delta: d}
		}
		return streamDoneMsg{err: <-errCh}
	}
}

func (m *Model) persist() {
	// Storage failures surface in the footer but never interrupt the chat.
	if err := m.cfg.Store.Save(context.Background(), m.sess); err != nil {
		m.errText = fmt.Sprintf("failed to save session: %v", err)
	}
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderer.transcript(m.sess, m.gate, m.streaming, m.showThinking))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Deep Research Chat"))
	b.WriteString(metaStyle.Render("  " + m.cfg.Model))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	switch {
	case m.errText != "":
		b.WriteString(errorStyle.Render("error: " + m.errText))
		b.WriteString("\n")
		b.WriteString(m.input.View())
	case m.streaming:
		b.WriteString(m.spinner.View())
		b.WriteString(metaStyle.Render(" researching..."))
	default:
		b.WriteString(m.input.View())
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send · ctrl+t thinking · ctrl+n new chat · ctrl+c quit"))

	return b.String()
}
