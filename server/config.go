package server

// Config is the chat server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// Model requested from the upstream API (e.g., "sonar-deep-research")
	Model string

	// MaxTokens bounds the generated answer length.
	MaxTokens int

	// SystemPrompt seeds newly created sessions.
	SystemPrompt string
}
