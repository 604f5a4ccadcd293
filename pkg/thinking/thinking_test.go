package thinking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitWithBothMarkers(t *testing.T) {
	text := "<think>pondering the question</think>\n\nThe answer is 4."
	r := Split(text)

	assert.True(t, r.Found)
	assert.Equal(t, "<think>pondering the question</think>", r.Thinking)
	assert.Equal(t, "The answer is 4.", r.Answer)
}

func TestSplitSpansMarkerToMarkerInclusive(t *testing.T) {
	r := Split("<think>a</think>b")

	assert.Equal(t, "<think>a</think>", r.Thinking)
	assert.Equal(t, "b", r.Answer)
}

func TestSplitWithoutMarkersReturnsInputUnchanged(t *testing.T) {
	text := "  just a plain answer with whitespace  "
	r := Split(text)

	assert.False(t, r.Found)
	assert.Empty(t, r.Thinking)
	assert.Equal(t, text, r.Answer)
}

func TestSplitWithOnlyOpeningMarker(t *testing.T) {
	text := "<think>still going"
	r := Split(text)

	assert.False(t, r.Found)
	assert.Equal(t, text, r.Answer)
}

func TestSplitWithOnlyClosingMarker(t *testing.T) {
	text := "no opening</think> here"
	r := Split(text)

	assert.False(t, r.Found)
	assert.Equal(t, text, r.Answer)
}

func TestSplitRequiresMarkersInOrder(t *testing.T) {
	text := "</think>backwards<think>"
	r := Split(text)

	assert.False(t, r.Found)
	assert.Equal(t, text, r.Answer)
}

func TestSplitDiscardsTextBeforeOpeningMarker(t *testing.T) {
	r := Split("preamble<think>t</think>answer")

	assert.True(t, r.Found)
	assert.Equal(t, "<think>t</think>", r.Thinking)
	assert.Equal(t, "answer", r.Answer)
}

func TestSplitEmptyAnswerAfterThinking(t *testing.T) {
	r := Split("<think>all thinking, no answer</think>   ")

	assert.True(t, r.Found)
	assert.Empty(t, r.Answer)
}

func TestGatePassesTextThroughBeforeMarker(t *testing.T) {
	g := &Gate{}

	assert.Equal(t, "Hello", g.Write("Hello"))
	assert.Equal(t, "Hello, world", g.Write(", world"))
}

func TestGateWithholdsOnceMarkerOpens(t *testing.T) {
	g := &Gate{}
	g.Write("<think>working")

	assert.Empty(t, g.Visible())

	// Still withheld while the block is open
	g.Write(" on it")
	assert.Empty(t, g.Visible())
}

func TestGateShowsAnswerAfterMarkerCloses(t *testing.T) {
	g := &Gate{}
	g.Write("<think>working</think>")
	g.Write("\nThe answer.")

	assert.Equal(t, "The answer.", g.Visible())
}

func TestGateHandlesMarkerSplitAcrossDeltas(t *testing.T) {
	g := &Gate{}
	g.Write("<thi")
	g.Write("nk>hidden</th")
	g.Write("ink>done")

	assert.Equal(t, "done", g.Visible())
	r := g.Final()
	assert.True(t, r.Found)
	assert.Equal(t, "<think>hidden</think>", r.Thinking)
}

func TestGateFinalMatchesAccumulated(t *testing.T) {
	g := &Gate{}
	g.Write("plain ")
	g.Write("answer")

	assert.Equal(t, "plain answer", g.String())
	r := g.Final()
	assert.False(t, r.Found)
	assert.Equal(t, "plain answer", r.Answer)
}

func TestGateReset(t *testing.T) {
	g := &Gate{}
	g.Write("<think>old</think>old answer")
	g.Reset()

	assert.Empty(t, g.String())
	assert.Equal(t, "fresh", g.Write("fresh"))
}
