package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// HuggingFace is the vendor-hosted alternate adapter. It talks to the
// HuggingFace inference router, which is OpenAI-compatible, through the
// openai-go SDK pointed at a custom base URL.
type HuggingFace struct {
	Base
	client openai.Client
}

// NewHuggingFace creates a new HuggingFace adapter. Pass "" for the default
// router URL.
func NewHuggingFace(apiKey, baseURL string) *HuggingFace {
	if baseURL == "" {
		baseURL = "https://router.huggingface.co/v1"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	return &HuggingFace{
		Base: Base{
			name:         "huggingface",
			apiKey:       apiKey,
			baseURL:      baseURL,
			defaultModel: "meta-llama/Llama-3.3-70B-Instruct",
		},
		client: client,
	}
}

// SupportedModels returns the static list of known models.
func (p *HuggingFace) SupportedModels() []string {
	return []string{
		"meta-llama/Llama-3.3-70B-Instruct",
		"meta-llama/Llama-3.1-8B-Instruct",
		"Qwen/Qwen2.5-72B-Instruct",
		"mistralai/Mistral-7B-Instruct-v0.3",
	}
}

// SupportsModel returns true for hub-style "org/model" IDs, or any empty
// model (the default is substituted).
func (p *HuggingFace) SupportsModel(model string) bool {
	return model == "" || strings.Contains(model, "/")
}

// Models returns structured model metadata for the /v1/models endpoint.
func (p *HuggingFace) Models() []ModelInfo {
	return ModelsFromList(p.name, p.SupportedModels())
}

// classify converts openai-go SDK errors into the gateway's *Error taxonomy.
func (p *HuggingFace) classify(err error) *Error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return StatusError(p.name, apierr.StatusCode, apierr.Message)
	}
	return NetworkError(p.name, err)
}

// Complete issues one chat completion call through the HuggingFace router.
func (p *HuggingFace) Complete(ctx context.Context, req Request) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    p.resolveModel(req.Model),
		Messages: buildSDKMessages(req.Messages),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	}
	if req.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, p.classify(err)
	}

	resp := &Response{
		ID:       completion.ID,
		Model:    completion.Model,
		Provider: p.name,
		Usage: Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}
	for i, choice := range completion.Choices {
		resp.Choices = append(resp.Choices, Choice{
			Index:        i,
			Message:      Message{Role: string(choice.Message.Role), Content: choice.Message.Content},
			FinishReason: string(choice.FinishReason),
		})
	}
	if resp.Content() == "" {
		return nil, EmptyResponseError(p.name)
	}
	return resp, nil
}

// CompleteStream issues a streaming chat completion through the router.
func (p *HuggingFace) CompleteStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	params := openai.ChatCompletionNewParams{
		Model:    p.resolveModel(req.Model),
		Messages: buildSDKMessages(req.Messages),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.MaxTokens))
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		for stream.Next() {
			chunk := stream.Current()
			sc := StreamChunk{ID: chunk.ID, Model: chunk.Model}
			for _, c := range chunk.Choices {
				sc.Choices = append(sc.Choices, StreamChoice{
					Index:        int(c.Index),
					Delta:        MessageDelta{Role: c.Delta.Role, Content: c.Delta.Content},
					FinishReason: c.FinishReason,
				})
			}
			ch <- sc
		}
		if err := stream.Err(); err != nil {
			ch <- StreamChunk{Error: p.classify(err)}
		}
	}()

	return ch, nil
}

// buildSDKMessages converts gateway Messages to the openai-go union type.
// Content is flattened to text; the router's chat models are text-only here.
func buildSDKMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
