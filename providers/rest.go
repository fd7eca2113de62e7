package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// openAIChatRequest is the request body shared by the OpenAI-compatible
// vendors (DeepSeek, Perplexity).
type openAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	TopP           *float64        `json:"top_p,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
}

// openAIChatResponse is the response body shared by OpenAI-compatible vendors.
type openAIChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// postJSON issues one bearer-authenticated POST and returns the raw body and
// status. Transport failures come back as *Error with reason "network".
func postJSON(ctx context.Context, client *http.Client, provider, url, apiKey string, payload any) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, NetworkError(provider, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, NetworkError(provider, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, 0, NetworkError(provider, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, 0, NetworkError(provider, err)
	}
	return respBody, httpResp.StatusCode, nil
}

// openAIErrorDetail extracts the error message from an OpenAI-style error body.
func openAIErrorDetail(body []byte) string {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return strings.TrimSpace(string(body))
}

// parseOpenAIChat normalises an OpenAI-compatible 2xx body, enforcing the
// non-empty completion success condition.
func parseOpenAIChat(provider string, body []byte) (*Response, error) {
	var resp openAIChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, EmptyResponseError(provider)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, EmptyResponseError(provider)
	}
	return &Response{
		ID:       resp.ID,
		Model:    resp.Model,
		Provider: provider,
		Choices:  resp.Choices,
		Usage:    resp.Usage,
	}, nil
}
