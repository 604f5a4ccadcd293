package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Perplexity API root.
	DefaultBaseURL = "https://api.perplexity.ai"

	// DefaultModel is the deep-research model this client is built around.
	DefaultModel = "sonar-deep-research"

	// DefaultMaxTokens bounds the generated answer length.
	DefaultMaxTokens = 2000
)

const completionsPath = "/chat/completions"

// Client is a chat completion client. Construct one value and pass it to
// whatever needs to talk to the model; it is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Client for the given API root and bearer key.
// An empty baseURL falls back to the Perplexity API.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			// Deep-research completions can run for minutes
			Timeout: 5 * time.Minute,
		},
	}
}

// Complete sends a non-streaming chat completion request and returns the
// full response.
func (c *Client) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	req.Stream = false

	httpResp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, apiError(httpResp.StatusCode, body)
	}

	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp, nil
}

// Stream sends a streaming chat completion request and emits content deltas
// on the given channel, which is closed before Stream returns. The final
// delta has Done set. Malformed chunks are skipped.
func (c *Client) Stream(ctx context.Context, req *ChatRequest, deltas chan<- StreamDelta) error {
	defer close(deltas)

	req.Stream = true

	httpResp, err := c.post(ctx, req)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return apiError(httpResp.StatusCode, body)
	}

	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		// SSE data lines; everything else is framing
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		if data == "[DONE]" {
			return emit(ctx, deltas, StreamDelta{Done: true})
		}

		var chunk StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}

		if content := chunk.delta(); content != "" {
			if err := emit(ctx, deltas, StreamDelta{Content: content}); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}

	// Stream ended without a [DONE] terminator; treat as complete.
	return emit(ctx, deltas, StreamDelta{Done: true})
}

func (c *Client) post(ctx context.Context, req *ChatRequest) (*http.Response, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	return httpResp, nil
}

func emit(ctx context.Context, deltas chan<- StreamDelta, d StreamDelta) error {
	select {
	case deltas <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func apiError(status int, body []byte) error {
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Message != "" {
		return &APIError{StatusCode: status, Message: er.Error.Message}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}
