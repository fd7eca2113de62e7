// Package providers defines the Adapter interface and the shared data types
// used across all LLM provider implementations.
//
// Every vendor the gateway can talk to (Groq, Gemini, DeepSeek, Perplexity,
// HuggingFace, Bedrock) implements Adapter: it serializes the gateway request
// into the vendor wire shape, issues exactly one HTTP call, and normalises the
// response or failure. Adapters never retry; recovery happens in the fallback
// chain by moving to the next adapter, never by re-invoking the same one.
//
// Core types: Request, Message, Response, StreamChunk, ModelInfo, Error.
package providers

import (
	"context"
	"encoding/json"
)

// Message role constants used across multiple adapters.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"

	// ContentTypeText is the content-part type for plain text (multimodal messages).
	ContentTypeText = "text"
	// ContentTypeImageURL is the content-part type for image references.
	ContentTypeImageURL = "image_url"

	// SSEDone is the sentinel value that marks the end of a server-sent event stream.
	SSEDone = "[DONE]"
)

// Adapter is the interface every vendor integration must implement.
//
// Complete issues exactly one chat-completion call. On failure it returns a
// *Error whose Reason classifies the failure for the chain's diagnostics.
// Implementations must not mutate req.Messages; vendors that cannot accept
// multimodal content must operate on a flattened copy (see FlattenText).
type Adapter interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
	SupportedModels() []string
	SupportsModel(model string) bool
	Models() []ModelInfo
}

// StreamAdapter is an optional interface for adapters that support streaming.
type StreamAdapter interface {
	Adapter
	CompleteStream(ctx context.Context, req Request) (<-chan StreamChunk, error)
}

// VisionAdapter is an optional interface for adapters that can read image
// content parts. The OCR endpoint requires one.
type VisionAdapter interface {
	Adapter
	SupportsVision() bool
}

// ------------------------------------------------------------------ types ---

// ContentPart is a single element of a multipart message content array.
// Used for vision requests where content mixes text and images.
type ContentPart struct {
	Type     string        `json:"type"`                // "text" or "image_url"
	Text     string        `json:"text,omitempty"`      // for type="text"
	ImageURL *ImageURLPart `json:"image_url,omitempty"` // for type="image_url"
}

// ImageURLPart carries the URL (or base64 data URI) for an image content part.
type ImageURLPart struct {
	URL string `json:"url"`
}

// ResponseFormat instructs the model how to format its output.
type ResponseFormat struct {
	Type       string          `json:"type"`                  // "text" | "json_object" | "json_schema"
	JSONSchema json.RawMessage `json:"json_schema,omitempty"` // required when type="json_schema"
}

// ----------------------------------------------------------------- Message ---

// Message represents a single turn in a conversation.
//
// Content holds plain-text content and is always populated, so any adapter can
// use it. ContentParts is non-nil when the incoming JSON encoded content as an
// array (vision requests); vision-capable adapters should check it first.
// Messages are immutable once constructed: every adapter in a chain receives
// the same slice and must never write to it.
type Message struct {
	Role         string        `json:"-"` // marshalled by custom JSON methods
	Content      string        `json:"-"` // plain-text content (always set)
	ContentParts []ContentPart `json:"-"` // non-nil when content is multipart
}

// MarshalJSON encodes a Message. Content is written as a string unless
// ContentParts is set, in which case it is encoded as an array.
func (m Message) MarshalJSON() ([]byte, error) {
	type wire struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	w := wire{Role: m.Role}
	if len(m.ContentParts) > 0 {
		b, err := json.Marshal(m.ContentParts)
		if err != nil {
			return nil, err
		}
		w.Content = b
	} else {
		b, err := json.Marshal(m.Content)
		if err != nil {
			return nil, err
		}
		w.Content = b
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a Message. The content field may be a plain string or
// an array of ContentPart objects; both forms are handled.
func (m *Message) UnmarshalJSON(b []byte) error {
	type wire struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	m.Role = w.Role

	if len(w.Content) == 0 || string(w.Content) == "null" {
		return nil
	}
	// Try plain string first (common case).
	var s string
	if err := json.Unmarshal(w.Content, &s); err == nil {
		m.Content = s
		return nil
	}
	// Fall back to content-part array (vision).
	var parts []ContentPart
	if err := json.Unmarshal(w.Content, &parts); err != nil {
		return err
	}
	m.ContentParts = parts
	// Collapse text parts into Content so text-only adapters keep working.
	for _, p := range parts {
		if p.Type == ContentTypeText {
			m.Content += p.Text
		}
	}
	return nil
}

// FlattenText returns a copy of messages with all multipart content collapsed
// to plain text. Adapters for vendors without vision support call this so the
// caller's message slice is never modified in transit.
func FlattenText(messages []Message) []Message {
	flat := make([]Message, len(messages))
	for i, m := range messages {
		flat[i] = Message{Role: m.Role, Content: m.Content}
	}
	return flat
}

// ----------------------------------------------------------------- Request ---

// Request represents a chat completion request sent to the gateway.
// Fields map onto the OpenAI Chat Completions schema so OpenAI-compatible
// clients work without modification. Model is optional: when empty, each
// adapter substitutes its own default model.
type Request struct {
	Model    string    `json:"model,omitempty"`
	Messages []Message `json:"messages"`

	// Sampling
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`

	// Output limits
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Structured output
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// Streaming
	Stream bool `json:"stream,omitempty"`

	// Action is a free-form hint from Gawin clients ("chat", "math", ...).
	// Adapters ignore it; the terminal responder uses it as a topic hint
	// when it names a decision-table row.
	Action string `json:"action,omitempty"`

	// ConversationID threads persisted history; empty for one-shot requests.
	ConversationID string `json:"conversation_id,omitempty"`
}

// LastUserContent returns the text of the final message when its role is
// "user", or "" otherwise.
func (r Request) LastUserContent() string {
	if len(r.Messages) == 0 {
		return ""
	}
	last := r.Messages[len(r.Messages)-1]
	if last.Role != RoleUser {
		return ""
	}
	return last.Content
}

// HasImageContent reports whether any message carries an image content part.
func (r Request) HasImageContent() bool {
	for _, m := range r.Messages {
		for _, p := range m.ContentParts {
			if p.Type == ContentTypeImageURL {
				return true
			}
		}
	}
	return false
}

// ----------------------------------------------------------------- Response --

// Response represents a chat completion response normalised across adapters.
type Response struct {
	ID       string   `json:"id"`
	Object   string   `json:"object,omitempty"`
	Created  int64    `json:"created,omitempty"`
	Model    string   `json:"model"`
	Provider string   `json:"provider,omitempty"`
	Choices  []Choice `json:"choices"`
	Usage    Usage    `json:"usage"`

	// FallbackReasons is set only on terminal (degraded) responses: the
	// classified failure reason of every adapter attempted before giving up.
	FallbackReasons []string `json:"fallback_reasons,omitempty"`
}

// Content returns the text of the first choice, or "".
func (r *Response) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Choice represents a single completion choice in the response.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// StreamChunk represents a single SSE chunk in a streaming response.
type StreamChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
	Error   error          `json:"-"` // non-nil signals a stream failure
}

// StreamChoice is a single choice in a streaming chunk.
type StreamChoice struct {
	Index        int          `json:"index"`
	Delta        MessageDelta `json:"delta"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

// MessageDelta carries incremental content in a streaming response.
type MessageDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// Usage carries token consumption statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelInfo describes a single model offered by an adapter.
// Fields match the OpenAI /v1/models response schema.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}
