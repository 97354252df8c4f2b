package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicDefaultModel = "claude-sonnet-4-20250514"

// AnthropicProvider implements the Provider interface for Claude models.
type AnthropicProvider struct {
	client  anthropic.Client
	apiKey  string
	model   string
	timeout time.Duration
}

// AnthropicOptions configures the Anthropic provider.
type AnthropicOptions struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewAnthropic creates the Anthropic provider.
func NewAnthropic(opts AnthropicOptions) *AnthropicProvider {
	model := opts.Model
	if model == "" {
		model = anthropicDefaultModel
	}
	return &AnthropicProvider{
		client:  anthropic.NewClient(option.WithAPIKey(opts.APIKey)),
		apiKey:  opts.APIKey,
		model:   model,
		timeout: opts.Timeout,
	}
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Configured reports whether an API key is present.
func (p *AnthropicProvider) Configured() bool { return p.apiKey != "" }

// Enhance sends the enhancement request to Claude and parses the reply.
func (p *AnthropicProvider) Enhance(ctx context.Context, req *Request) (*Response, error) {
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

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, p.classify(err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return ParseReply(p.Name(), content)
}

func (p *AnthropicProvider) classify(err error) *Error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return ClassifyStatus(p.Name(), apierr.StatusCode, fmt.Errorf("anthropic API error: %w", err))
	}
	return Classify(p.Name(), err)
}
