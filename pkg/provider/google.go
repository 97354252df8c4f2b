package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const googleDefaultModel = "gemini-2.0-pro"

// GoogleProvider implements the Provider interface for Gemini models.
type GoogleProvider struct {
	apiKey  string
	model   string
	timeout time.Duration
}

// GoogleOptions configures the Google Gemini provider.
type GoogleOptions struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewGoogle creates the Google Gemini provider. The genai client is
// built per send because its constructor needs a context.
func NewGoogle(opts GoogleOptions) *GoogleProvider {
	model := opts.Model
	if model == "" {
		model = googleDefaultModel
	}
	return &GoogleProvider{
		apiKey:  opts.APIKey,
		model:   model,
		timeout: opts.Timeout,
	}
}

// Name returns the provider identifier.
func (p *GoogleProvider) Name() string { return "google" }

// Configured reports whether an API key is present.
func (p *GoogleProvider) Configured() bool { return p.apiKey != "" }

// Enhance sends the enhancement request to Gemini and parses the reply.
func (p *GoogleProvider) Enhance(ctx context.Context, req *Request) (*Response, error) {
	if !p.Configured() {
		return nil, NotConfigured(p.Name())
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Provider: p.Name(), Err: err}
	}

	timeout := p.timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, Classify(p.Name(), fmt.Errorf("create google client: %w", err))
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, p.classify(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, Malformed(p.Name(), fmt.Errorf("google returned no candidates"))
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}

	return ParseReply(p.Name(), content)
}

func (p *GoogleProvider) classify(err error) *Error {
	var apierr genai.APIError
	if errors.As(err, &apierr) {
		return ClassifyStatus(p.Name(), apierr.Code, fmt.Errorf("google API error: %w", err))
	}
	return Classify(p.Name(), err)
}
