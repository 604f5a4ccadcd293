// Package session defines the conversation model and its persistence drivers.
// A session is one conversation: an ordered list of turns plus the system
// prompt used to seed it. Ordering is insertion order and is the transcript.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildfastwithai/researchchat/pkg/llm"
)

// Turn roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultSystemPrompt seeds new sessions unless overridden.
const DefaultSystemPrompt = "You are a helpful AI assistant."

const titleMaxLen = 60

// TurnMeta carries optional bookkeeping recorded alongside a turn.
type TurnMeta struct {
	Model         string    `json:"model,omitempty"`          // Model that produced the turn
	ElapsedMS     int64     `json:"elapsed_ms,omitempty"`     // Wall time for the remote call
	TokenEstimate int       `json:"token_estimate,omitempty"` // Reported or approximated tokens
	Timestamp     time.Time `json:"timestamp"`                // When the turn was recorded
}

// Turn is one message in a conversation. Assistant turns store the raw
// response content, thinking markers included; display-time splitting is the
// caller's concern.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Meta    *TurnMeta `json:"meta,omitempty"`
}

// Session is one persisted conversation. The system prompt lives in its own
// field and is never recorded as a turn, so the turn list is exactly what a
// transcript displays.
type Session struct {
	ID           string    `json:"id"`
	Title        string    `json:"title,omitempty"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Turns        []Turn    `json:"turns"`
}

// Summary is the listing view of a stored session.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	TurnCount int       `json:"turn_count"`
}

// New creates an empty session with a generated id.
func New(systemPrompt string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           uuid.NewString(),
		SystemPrompt: systemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Append records a turn and bumps UpdatedAt. The first user turn also
// titles the session.
func (s *Session) Append(turn Turn) {
	if turn.Role == RoleUser && s.Title == "" {
		s.Title = deriveTitle(turn.Content)
	}
	s.Turns = append(s.Turns, turn)
	s.UpdatedAt = time.Now().UTC()
}

// Messages builds the outbound message list for a completion request:
// the system prompt first (when set), then every recorded turn in order.
func (s *Session) Messages() []llm.Message {
	msgs := make([]llm.Message, 0, len(s.Turns)+1)
	if s.SystemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: RoleSystem, Content: s.SystemPrompt})
	}
	for _, t := range s.Turns {
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Content})
	}
	return msgs
}

// Transcript returns the displayable turns: user and assistant messages in
// order, with anything else filtered out.
func (s *Session) Transcript() []Turn {
	turns := make([]Turn, 0, len(s.Turns))
	for _, t := range s.Turns {
		if t.Role == RoleUser || t.Role == RoleAssistant {
			turns = append(turns, t)
		}
	}
	return turns
}

// Summary returns the listing view of this session.
func (s *Session) Summary() Summary {
	return Summary{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		TurnCount: len(s.Turns),
	}
}

func deriveTitle(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if len(content) > titleMaxLen {
		content = content[:titleMaxLen] + "..."
	}
	return content
}

// EstimateTokens is a best-effort token estimate (~4 bytes per token for
// English-like text). It is display metadata, not billing arithmetic.
func EstimateTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}
