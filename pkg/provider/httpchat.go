package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds a single provider send when the caller
// has not set a tighter deadline.
const DefaultRequestTimeout = 20 * time.Second

// chatClient talks to an OpenAI-compatible chat completions endpoint
// over plain HTTP with bearer auth. DeepSeek and Groq both speak this
// dialect.
type chatClient struct {
	name       string
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

func (c *chatClient) Name() string { return c.name }

func (c *chatClient) Configured() bool {
	return c.apiKey != "" && c.baseURL != ""
}

func (c *chatClient) Enhance(ctx context.Context, req *Request) (*Response, error) {
	if !c.Configured() {
		return nil, NotConfigured(c.name)
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Provider: c.name, Err: err}
	}

	timeout := c.timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens: 4096,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Provider: c.name, Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Provider: c.name, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, Classify(c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Classify(c.name, fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyStatus(c.name, resp.StatusCode,
			fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(body), 512)))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, Malformed(c.name, fmt.Errorf("parse completion envelope: %w", err))
	}
	if chatResp.Error != nil {
		return nil, &Error{
			Kind:     KindUnavailable,
			Provider: c.name,
			Err:      fmt.Errorf("API error: %s (type: %s, code: %s)", chatResp.Error.Message, chatResp.Error.Type, chatResp.Error.Code),
		}
	}
	if len(chatResp.Choices) == 0 {
		return nil, Malformed(c.name, fmt.Errorf("completion has no choices"))
	}

	return ParseReply(c.name, chatResp.Choices[0].Message.Content)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
