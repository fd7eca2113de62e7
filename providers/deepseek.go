package providers

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DeepSeek is a secondary chat adapter. DeepSeek exposes an OpenAI-compatible API.
type DeepSeek struct {
	Base
	httpClient *http.Client
}

// NewDeepSeek creates a new DeepSeek adapter. Pass "" for the default base URL.
func NewDeepSeek(apiKey, baseURL string) *DeepSeek {
	if baseURL == "" {
		baseURL = "https://api.deepseek.com"
	}
	return &DeepSeek{
		Base: Base{
			name:         "deepseek",
			apiKey:       apiKey,
			baseURL:      strings.TrimRight(baseURL, "/"),
			defaultModel: "deepseek-chat",
		},
		httpClient: newHTTPClient(defaultTimeout),
	}
}

// WithTimeout overrides the fixed per-call timeout.
func (p *DeepSeek) WithTimeout(d time.Duration) *DeepSeek {
	p.httpClient = newHTTPClient(d)
	return p
}

// SupportedModels returns the static list of known models.
func (p *DeepSeek) SupportedModels() []string {
	return []string{"deepseek-chat", "deepseek-reasoner"}
}

// SupportsModel returns true if the model matches the DeepSeek prefix.
func (p *DeepSeek) SupportsModel(model string) bool {
	return model == "" || strings.HasPrefix(model, "deepseek-")
}

// Models returns structured model metadata for the /v1/models endpoint.
func (p *DeepSeek) Models() []ModelInfo {
	return ModelsFromList(p.name, p.SupportedModels())
}

// Complete issues one chat completion call to DeepSeek.
func (p *DeepSeek) Complete(ctx context.Context, req Request) (*Response, error) {
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
