package llm

// ChatRequest represents a chat completion request (OpenAI-compatible,
// as served by Perplexity).
type ChatRequest struct {
	Model    string    `json:"model"`    // Model name (e.g., "sonar-deep-research")
	Messages []Message `json:"messages"` // Conversation history, system message first

	// Generation bounds
	MaxTokens   int      `json:"max_tokens,omitempty"`  // Max tokens to generate
	Temperature *float64 `json:"temperature,omitempty"` // Sampling temperature
	TopP        *float64 `json:"top_p,omitempty"`       // Nucleus sampling threshold
	Stop        []string `json:"stop,omitempty"`        // Stop generation at these sequences

	Stream bool `json:"stream,omitempty"` // Whether to stream the response
}
