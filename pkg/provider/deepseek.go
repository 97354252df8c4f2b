package provider

import (
	"net/http"
	"time"
)

const (
	deepseekBaseURL      = "https://api.deepseek.com/v1"
	deepseekDefaultModel = "deepseek-chat"
)

// DeepSeekOptions configures the DeepSeek provider.
type DeepSeekOptions struct {
	APIKey  string
	BaseURL string        // defaults to the public DeepSeek endpoint
	Model   string        // defaults to deepseek-chat
	Timeout time.Duration // defaults to DefaultRequestTimeout
}

// NewDeepSeek creates the DeepSeek provider. An empty API key yields a
// provider that reports itself unconfigured rather than an error, so a
// fallback chain can be assembled without knowing which credentials are
// present.
func NewDeepSeek(opts DeepSeekOptions) Provider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = deepseekBaseURL
	}
	model := opts.Model
	if model == "" {
		model = deepseekDefaultModel
	}
	return &chatClient{
		name:       "deepseek",
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		model:      model,
		timeout:    opts.Timeout,
		httpClient: &http.Client{},
	}
}
