package providers

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

	"golang.org/x/oauth2"
)

// Gemini is the adapter for Google Gemini. It is the gateway's only
// vision-capable adapter and therefore also backs the OCR endpoint.
type Gemini struct {
	Base
	httpClient *http.Client
	// tokenSource, when set, replaces API-key auth with OAuth2 bearer tokens
	// (Vertex-style enterprise credentials).
	tokenSource oauth2.TokenSource
}

// NewGemini creates a new Gemini adapter. Pass "" for the default base URL.
func NewGemini(apiKey, baseURL string) *Gemini {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &Gemini{
		Base: Base{
			name:         "gemini",
			apiKey:       apiKey,
			baseURL:      strings.TrimRight(baseURL, "/"),
			defaultModel: "gemini-2.0-flash",
		},
		httpClient: newHTTPClient(defaultTimeout),
	}
}

// WithTokenSource switches the adapter to OAuth2 bearer-token auth.
func (p *Gemini) WithTokenSource(ts oauth2.TokenSource) *Gemini {
	p.tokenSource = ts
	return p
}

// WithTimeout overrides the fixed per-call timeout.
func (p *Gemini) WithTimeout(d time.Duration) *Gemini {
	p.httpClient = newHTTPClient(d)
	return p
}

// SupportedModels returns the static list of known models.
func (p *Gemini) SupportedModels() []string {
	return []string{
		"gemini-2.0-flash",
		"gemini-2.0-flash-lite",
		"gemini-1.5-pro",
		"gemini-1.5-flash",
	}
}

// SupportsModel returns true if the model matches the Gemini prefix.
func (p *Gemini) SupportsModel(model string) bool {
	return model == "" || strings.HasPrefix(model, "gemini-")
}

// SupportsVision implements VisionAdapter.
func (p *Gemini) SupportsVision() bool { return true }

// Models returns structured model metadata for the /v1/models endpoint.
func (p *Gemini) Models() []ModelInfo {
	return ModelsFromList(p.name, p.SupportedModels())
}

// geminiPart is one content part in the Gemini wire format. Exactly one of
// Text or InlineData is set.
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type geminiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// parseDataURI splits "data:<mime>;base64,<payload>" into its parts.
// Returns ok=false for anything else.
func parseDataURI(uri string) (mime, data string, ok bool) {
	if !strings.HasPrefix(uri, "data:") {
		return "", "", false
	}
	rest := strings.TrimPrefix(uri, "data:")
	idx := strings.Index(rest, ";base64,")
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+len(";base64,"):], true
}

// convertMessages translates gateway messages into Gemini contents.
// System messages are prepended to the first user turn; image content parts
// carrying base64 data URIs become inline_data parts. The input slice is
// read-only; all conversion happens into fresh structures.
func convertMessages(messages []Message) []geminiContent {
	var systemText string
	var contents []geminiContent

	for _, msg := range messages {
		if msg.Role == RoleSystem {
			if systemText != "" {
				systemText += "\n"
			}
			systemText += msg.Content
			continue
		}

		role := msg.Role
		if role == RoleAssistant {
			role = "model"
		}

		var parts []geminiPart
		if len(msg.ContentParts) > 0 {
			for _, cp := range msg.ContentParts {
				switch cp.Type {
				case ContentTypeText:
					parts = append(parts, geminiPart{Text: cp.Text})
				case ContentTypeImageURL:
					if cp.ImageURL == nil {
						continue
					}
					if mime, data, ok := parseDataURI(cp.ImageURL.URL); ok {
						parts = append(parts, geminiPart{InlineData: &geminiInlineData{MimeType: mime, Data: data}})
					} else {
						// Remote URLs cannot be inlined; fall back to referencing them as text.
						parts = append(parts, geminiPart{Text: cp.ImageURL.URL})
					}
				}
			}
		} else {
			parts = []geminiPart{{Text: msg.Content}}
		}

		if role == RoleUser && systemText != "" && len(parts) > 0 {
			parts[0].Text = systemText + "\n" + parts[0].Text
			systemText = ""
		}

		contents = append(contents, geminiContent{Role: role, Parts: parts})
	}

	return contents
}

// mapFinishReason maps Gemini finish reasons to OpenAI-style reasons.
func mapFinishReason(reason string) string {
	switch reason {
	case "STOP":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY":
		return "content_filter"
	default:
		return reason
	}
}

func (p *Gemini) authorize(httpReq *http.Request) error {
	if p.tokenSource != nil {
		tok, err := p.tokenSource.Token()
		if err != nil {
			return err
		}
		tok.SetAuthHeader(httpReq)
		return nil
	}
	httpReq.Header.Set("x-goog-api-key", p.apiKey)
	return nil
}

// Complete issues one generateContent call to Gemini.
func (p *Gemini) Complete(ctx context.Context, req Request) (*Response, error) {
	geminiReq := geminiRequest{Contents: convertMessages(req.Messages)}
	if req.Temperature != nil || req.MaxTokens != nil {
		geminiReq.GenerationConfig = &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}
	}

	model := p.resolveModel(req.Model)
	body, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, NetworkError(p.name, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NetworkError(p.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if err := p.authorize(httpReq); err != nil {
		return nil, NetworkError(p.name, err)
	}

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, NetworkError(p.name, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NetworkError(p.name, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, StatusError(p.name, httpResp.StatusCode, geminiErrorDetail(respBody))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return nil, EmptyResponseError(p.name)
	}

	var choices []Choice
	for i, candidate := range geminiResp.Candidates {
		var text string
		for _, part := range candidate.Content.Parts {
			text += part.Text
		}
		choices = append(choices, Choice{
			Index:        i,
			Message:      Message{Role: RoleAssistant, Content: text},
			FinishReason: mapFinishReason(candidate.FinishReason),
		})
	}
	if len(choices) == 0 || choices[0].Message.Content == "" {
		return nil, EmptyResponseError(p.name)
	}

	return &Response{
		ID:       model,
		Model:    model,
		Provider: p.name,
		Choices:  choices,
		Usage: Usage{
			PromptTokens:     geminiResp.UsageMetadata.PromptTokenCount,
			CompletionTokens: geminiResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      geminiResp.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

func geminiErrorDetail(body []byte) string {
	var errResp geminiErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// CompleteStream sends a streaming generateContent request to Gemini.
func (p *Gemini) CompleteStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	geminiReq := geminiRequest{Contents: convertMessages(req.Messages)}
	if req.Temperature != nil || req.MaxTokens != nil {
		geminiReq.GenerationConfig = &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}
	}

	model := p.resolveModel(req.Model)
	body, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, NetworkError(p.name, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", p.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NetworkError(p.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if err := p.authorize(httpReq); err != nil {
		return nil, NetworkError(p.name, err)
	}

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, NetworkError(p.name, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		defer func() { _ = httpResp.Body.Close() }()
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, StatusError(p.name, httpResp.StatusCode, geminiErrorDetail(respBody))
	}

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		defer func() { _ = httpResp.Body.Close() }()

		scanner := bufio.NewScanner(httpResp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")

			var chunk geminiResponse
			if json.Unmarshal([]byte(data), &chunk) != nil {
				continue
			}

			sc := StreamChunk{ID: model, Model: model}
			for i, candidate := range chunk.Candidates {
				var text string
				for _, part := range candidate.Content.Parts {
					text += part.Text
				}
				sc.Choices = append(sc.Choices, StreamChoice{
					Index:        i,
					Delta:        MessageDelta{Role: RoleAssistant, Content: text},
					FinishReason: mapFinishReason(candidate.FinishReason),
				})
			}
			ch <- sc
		}
		if err := scanner.Err(); err != nil {
			ch <- StreamChunk{Error: NetworkError(p.name, err)}
		}
	}()

	return ch, nil
}
