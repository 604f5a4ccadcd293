// Package llm provides wire types and a client for OpenAI-compatible chat
// completion APIs, tuned for Perplexity's deep-research models.
package llm

import "fmt"

// ErrorResponse represents an error payload from the chat API.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the nested error object in an ErrorResponse.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    any    `json:"code,omitempty"`
}

// APIError is returned when the chat API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chat API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("chat API returned status %d: %s", e.StatusCode, e.Message)
}
