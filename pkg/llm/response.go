package llm

// ChatResponse represents a chat completion response.
type ChatResponse struct {
	ID      string   `json:"id"`      // Completion identifier
	Object  string   `json:"object"`  // "chat.completion"
	Created int64    `json:"created"` // Unix timestamp
	Model   string   `json:"model"`   // Model that generated the response
	Choices []Choice `json:"choices"` // Response choices (one in practice)
	Usage   Usage    `json:"usage"`   // Token accounting
}

// Choice represents a single response choice. Non-streaming responses carry
// Message; streaming chunks carry Delta instead.
type Choice struct {
	Index        int      `json:"index"`
	Message      Message  `json:"message"`
	Delta        *Message `json:"delta,omitempty"`
	FinishReason string   `json:"finish_reason,omitempty"`
}

// Usage tracks token consumption for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Text returns the content of the first choice, or "" when the response
// carries no choices.
func (r *ChatResponse) Text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}
