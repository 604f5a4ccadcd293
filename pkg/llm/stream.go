package llm

// StreamChunk represents a single SSE chunk in a streaming response.
// It has the same envelope as ChatResponse but choices carry deltas.
type StreamChunk struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"` // "chat.completion.chunk"
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"` // Final chunk may include usage
}

// StreamDelta is the unit the client emits while consuming a stream.
type StreamDelta struct {
	Content string // Partial assistant content, possibly empty
	Done    bool   // True once the stream terminator arrived
}

// delta returns the content fragment carried by this chunk.
func (c *StreamChunk) delta() string {
	if len(c.Choices) == 0 || c.Choices[0].Delta == nil {
		return ""
	}
	return c.Choices[0].Delta.Content
}
