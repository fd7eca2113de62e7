package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// Groq is the primary chat adapter. Groq exposes an OpenAI-compatible API.
type Groq struct {
	Base
	httpClient *http.Client
}

// NewGroq creates a new Groq adapter. Pass "" for the default base URL.
func NewGroq(apiKey, baseURL string) *Groq {
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai"
	}
	return &Groq{
		Base: Base{
			name:         "groq",
			apiKey:       apiKey,
			baseURL:      strings.TrimRight(baseURL, "/"),
			defaultModel: "llama-3.3-70b-versatile",
		},
		httpClient: newHTTPClient(defaultTimeout),
	}
}

// WithTimeout overrides the fixed per-call timeout.
func (p *Groq) WithTimeout(d time.Duration) *Groq {
	p.httpClient = newHTTPClient(d)
	return p
}

// SupportedModels returns the static list of known models.
func (p *Groq) SupportedModels() []string {
	return []string{
		"llama-3.3-70b-versatile",
		"llama-3.1-8b-instant",
		"mixtral-8x7b-32768",
		"gemma2-9b-it",
	}
}

// SupportsModel returns true for any model — the upstream API validates model names.
func (p *Groq) SupportsModel(_ string) bool { return true }

// Models returns structured model metadata for the /v1/models endpoint.
func (p *Groq) Models() []ModelInfo {
	return ModelsFromList(p.name, p.SupportedModels())
}

// groqRequest is OpenAI-compatible.
type groqRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
}

type groqResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type groqErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete issues one chat completion call to Groq.
func (p *Groq) Complete(ctx context.Context, req Request) (*Response, error) {
	// Groq's chat endpoint is text-only; work on a flattened copy so the
	// caller's messages are untouched.
	groqReq := groqRequest{
		Model:          p.resolveModel(req.Model),
		Messages:       FlattenText(req.Messages),
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: req.ResponseFormat,
	}

	respBody, status, err := p.post(ctx, groqReq)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, StatusError(p.name, status, groqErrorDetail(respBody))
	}

	var groqResp groqResponse
	if err := json.Unmarshal(respBody, &groqResp); err != nil {
		return nil, EmptyResponseError(p.name)
	}
	if len(groqResp.Choices) == 0 || groqResp.Choices[0].Message.Content == "" {
		return nil, EmptyResponseError(p.name)
	}

	return &Response{
		ID:       groqResp.ID,
		Model:    groqResp.Model,
		Provider: p.name,
		Choices:  groqResp.Choices,
		Usage:    groqResp.Usage,
	}, nil
}

func (p *Groq) post(ctx context.Context, payload any) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, NetworkError(p.name, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, 0, NetworkError(p.name, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, NetworkError(p.name, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, 0, NetworkError(p.name, err)
	}
	return respBody, httpResp.StatusCode, nil
}

func groqErrorDetail(body []byte) string {
	var errResp groqErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return strings.TrimSpace(string(body))
}

type groqStreamResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index int `json:"index"`
		Delta struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason,omitempty"`
	} `json:"choices"`
}

// CompleteStream sends a streaming chat completion request to Groq.
func (p *Groq) CompleteStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	groqReq := groqRequest{
		Model:       p.resolveModel(req.Model),
		Messages:    FlattenText(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	}

	body, err := json.Marshal(groqReq)
	if err != nil {
		return nil, NetworkError(p.name, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, NetworkError(p.name, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, NetworkError(p.name, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		defer func() { _ = httpResp.Body.Close() }()
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, StatusError(p.name, httpResp.StatusCode, groqErrorDetail(respBody))
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
			if data == SSEDone {
				return
			}

			var chunk groqStreamResponse
			if json.Unmarshal([]byte(data), &chunk) != nil {
				continue
			}

			sc := StreamChunk{ID: chunk.ID, Model: chunk.Model}
			for _, c := range chunk.Choices {
				sc.Choices = append(sc.Choices, StreamChoice{
					Index:        c.Index,
					Delta:        MessageDelta{Role: c.Delta.Role, Content: c.Delta.Content},
					FinishReason: c.FinishReason,
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
