package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const openaiDefaultModel = "gpt-5.2-thinking"

// OpenAIProvider implements the Provider interface for OpenAI models.
type OpenAIProvider struct {
	client  openai.Client
	apiKey  string
	model   string
	timeout time.Duration
}

// OpenAIOptions configures the OpenAI provider.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewOpenAI creates the OpenAI provider.
func NewOpenAI(opts OpenAIOptions) *OpenAIProvider {
	model := opts.Model
	if model == "" {
		model = openaiDefaultModel
	}
	return &OpenAIProvider{
		client:  openai.NewClient(option.WithAPIKey(opts.APIKey)),
		apiKey:  opts.APIKey,
		model:   model,
		timeout: opts.Timeout,
	}
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string { return "openai" }

// Configured reports whether an API key is present.
func (p *OpenAIProvider) Configured() bool { return p.apiKey != "" }

// Enhance sends the enhancement request to OpenAI and parses the reply.
func (p *OpenAIProvider) Enhance(ctx context.Context, req *Request) (*Response, error) {
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

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(4096),
	})
	if err != nil {
		return nil, p.classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, Malformed(p.Name(), fmt.Errorf("openai returned no choices"))
	}

	return ParseReply(p.Name(), resp.Choices[0].Message.Content)
}

func (p *OpenAIProvider) classify(err error) *Error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return ClassifyStatus(p.Name(), apierr.StatusCode, fmt.Errorf("openai API error: %w", err))
	}
	return Classify(p.Name(), err)
}
