package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Bedrock is an optional enterprise adapter for AWS Bedrock. It targets the
// Anthropic message API via the Bedrock runtime InvokeModel call; credentials
// come from the standard AWS chain (env, shared config, instance role) or an
// explicit static key pair.
type Bedrock struct {
	Base
	client *bedrockruntime.Client
	region string
}

// NewBedrock creates a new Bedrock adapter. region defaults to us-east-1.
// accessKey/secretKey may be empty, in which case the default credential
// chain is used.
func NewBedrock(ctx context.Context, region, accessKey, secretKey string) (*Bedrock, error) {
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Bedrock{
		Base: Base{
			name:         "bedrock",
			defaultModel: "anthropic.claude-3-5-haiku-20241022-v1:0",
		},
		client: bedrockruntime.NewFromConfig(cfg),
		region: region,
	}, nil
}

// SupportedModels returns well-known Bedrock model IDs.
func (p *Bedrock) SupportedModels() []string {
	return []string{
		"anthropic.claude-3-5-sonnet-20241022-v2:0",
		"anthropic.claude-3-5-haiku-20241022-v1:0",
		"anthropic.claude-3-haiku-20240307-v1:0",
	}
}

// SupportsModel restricts this adapter to the Anthropic family on Bedrock.
func (p *Bedrock) SupportsModel(model string) bool {
	return model == "" || strings.HasPrefix(model, "anthropic.")
}

// Models returns structured model metadata.
func (p *Bedrock) Models() []ModelInfo {
	return ModelsFromList(p.name, p.SupportedModels())
}

type bedrockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      *float64         `json:"temperature,omitempty"`
	TopP             *float64         `json:"top_p,omitempty"`
	System           string           `json:"system,omitempty"`
}

type bedrockResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// classify converts AWS SDK failures into the gateway's *Error taxonomy:
// SigV4/transport problems are "network"; service replies keep their status.
func (p *Bedrock) classify(err error) *Error {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return StatusError(p.name, re.HTTPStatusCode(), re.Error())
	}
	return NetworkError(p.name, err)
}

// Complete issues one InvokeModel call to Bedrock.
func (p *Bedrock) Complete(ctx context.Context, req Request) (*Response, error) {
	modelID := p.resolveModel(req.Model)

	maxTokens := 1024
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	// The Anthropic message API carries system text in its own field.
	body := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
	}
	for _, msg := range FlattenText(req.Messages) {
		if msg.Role == RoleSystem {
			if body.System != "" {
				body.System += "\n"
			}
			body.System += msg.Content
			continue
		}
		body.Messages = append(body.Messages, bedrockMessage{Role: msg.Role, Content: msg.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, NetworkError(p.name, err)
	}

	out, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, p.classify(err)
	}

	var parsed bedrockResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil {
		return nil, EmptyResponseError(p.name)
	}

	var text string
	for _, c := range parsed.Content {
		if c.Type == ContentTypeText {
			text += c.Text
		}
	}
	if text == "" {
		return nil, EmptyResponseError(p.name)
	}

	finish := "stop"
	if parsed.StopReason == "max_tokens" {
		finish = "length"
	}

	return &Response{
		ID:       parsed.ID,
		Model:    modelID,
		Provider: p.name,
		Choices: []Choice{{
			Message:      Message{Role: RoleAssistant, Content: text},
			FinishReason: finish,
		}},
		Usage: Usage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		},
	}, nil
}
