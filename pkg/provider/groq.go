package provider

import (
	"net/http"
	"time"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	groqDefaultModel = "llama-3.3-70b-versatile"
)

// GroqOptions configures the Groq provider.
type GroqOptions struct {
	APIKey  string
	BaseURL string        // defaults to the public Groq endpoint
	Model   string        // defaults to llama-3.3-70b-versatile
	Timeout time.Duration // defaults to DefaultRequestTimeout
}

// NewGroq creates the Groq provider. Groq exposes an OpenAI-compatible
// chat completions API.
func NewGroq(opts GroqOptions) Provider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = groqBaseURL
	}
	model := opts.Model
	if model == "" {
		model = groqDefaultModel
	}
	return &chatClient{
		name:       "groq",
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		model:      model,
		timeout:    opts.Timeout,
		httpClient: &http.Client{},
	}
}
