package providers

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Perplexity is a secondary chat adapter. Perplexity exposes an
// OpenAI-compatible API with web-grounded "sonar" models.
type Perplexity struct {
	Base
	httpClient *http.Client
}

// NewPerplexity creates a new Perplexity adapter. Pass "" for the default base URL.
func NewPerplexity(apiKey, baseURL string) *Perplexity {
	if baseURL == "" {
		baseURL = "https://api.perplexity.ai"
	}
	return &Perplexity{
		Base: Base{
			name:         "perplexity",
			apiKey:       apiKey,
			baseURL:      strings.TrimRight(baseURL, "/"),
			defaultModel: "sonar",
		},
		httpClient: newHTTPClient(defaultTimeout),
	}
}

// WithTimeout overrides the fixed per-call timeout.
func (p *Perplexity) WithTimeout(d time.Duration) *Perplexity {
	p.httpClient = newHTTPClient(d)
	return p
}

// SupportedModels returns the static list of known models.
func (p *Perplexity) SupportedModels() []string {
	return []string{
		"sonar",
		"sonar-pro",
		"sonar-reasoning",
		"sonar-reasoning-pro",
	}
}

// SupportsModel returns true for any model — the upstream API validates model names.
func (p *Perplexity) SupportsModel(_ string) bool { return true }

// Models returns structured model metadata for the /v1/models endpoint.
func (p *Perplexity) Models() []ModelInfo {
	return ModelsFromList(p.name, p.SupportedModels())
}

// Complete issues one chat completion call to Perplexity.
func (p *Perplexity) Complete(ctx context.Context, req Request) (*Response, error) {
	body := openAIChatRequest{
		Model:          p.resolveModel(req.Model),
		Messages:       FlattenText(req.Messages),
		Temperature:    req.Temperature,
		TopP:           req.TopP,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: req.ResponseFormat,
	}

	respBody, status, err := postJSON(ctx, p.httpClient, p.name, p.baseURL+"/chat/completions", p.apiKey, body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, StatusError(p.name, status, openAIErrorDetail(respBody))
	}
	return parseOpenAIChat(p.name, respBody)
}
