// Package thinking separates the <think>...</think> section a deep-research
// model emits from the final answer text.
package thinking

import "strings"

// Literal markers delimiting the thinking section of a response.
const (
	OpenMarker  = "<think>"
	CloseMarker = "</think>"
)

// Result is the outcome of splitting a response.
type Result struct {
	Thinking string // Marker-to-marker span, markers included; "" when absent
	Answer   string // Trimmed text after the closing marker, or the whole input
	Found    bool   // Whether a complete thinking section was present
}

// Split classifies a response text. When both markers appear in order, the
// span from the opening marker through the closing marker (inclusive) is the
// thinking section and the remainder after the closing marker, trimmed of
// surrounding whitespace, is the answer. Otherwise the entire text is the
// answer; absent markers are the normal case, not an error.
func Split(text string) Result {
	open := strings.Index(text, OpenMarker)
	if open < 0 {
		return Result{Answer: text}
	}

	rel := strings.Index(text[open+len(OpenMarker):], CloseMarker)
	if rel < 0 {
		return Result{Answer: text}
	}

	end := open + len(OpenMarker) + rel + len(CloseMarker)
	return Result{
		Thinking: text[open:end],
		Answer:   strings.TrimSpace(text[end:]),
		Found:    true,
	}
}

// Gate accumulates streamed content and decides what is safe to display.
// Until an opening marker shows up, everything accumulated is displayable.
// Once one appears, display is withheld until the closing marker arrives,
// after which only the answer portion is shown. This keeps partial thinking
// text from ever reaching the screen mid-stream.
type Gate struct {
	buf strings.Builder
}

// Write appends a content delta and returns the currently displayable text.
func (g *Gate) Write(delta string) string {
	g.buf.WriteString(delta)
	return g.Visible()
}

// Visible returns the portion of the accumulated text that may be displayed.
func (g *Gate) Visible() string {
	s := g.buf.String()
	if !strings.Contains(s, OpenMarker) {
		return s
	}
	if r := Split(s); r.Found {
		return r.Answer
	}
	return ""
}

// String returns the full accumulated text, markers included.
func (g *Gate) String() string {
	return g.buf.String()
}

// Final splits the full accumulated text.
func (g *Gate) Final() Result {
	return Split(g.buf.String())
}

// Reset clears the accumulated text for reuse on the next turn.
func (g *Gate) Reset() {
	g.buf.Reset()
}
