// Package maxtoken provides a guardrail plugin that caps max_tokens, message
// count, and total input length on incoming chat requests. Register it with a
// blank import:
//
//	_ "github.com/gawin-ai/gateway/internal/plugins/maxtoken"
package maxtoken

import (
	"context"
	"fmt"

	"github.com/gawin-ai/gateway/plugin"
)

func init() {
	plugin.RegisterFactory("max-token", func() plugin.Plugin {
		return &MaxToken{}
	})
}

// MaxToken is a guardrail plugin enforcing request size limits before any
// adapter is invoked.
type MaxToken struct {
	maxTokens   int
	maxMessages int
	maxInputLen int
}

// Name returns the plugin identifier.
func (m *MaxToken) Name() string { return "max-token" }

// Type returns the plugin lifecycle hook type.
func (m *MaxToken) Type() plugin.PluginType { return plugin.TypeGuardrail }

// Init configures the plugin from the provided options map.
func (m *MaxToken) Init(config map[string]interface{}) error {
	m.maxTokens = intOpt(config, "max_tokens", 4096)
	m.maxMessages = intOpt(config, "max_messages", 100)
	m.maxInputLen = intOpt(config, "max_input_length", 0) // 0 = no limit
	return nil
}

// Execute runs the plugin logic for the current request context.
func (m *MaxToken) Execute(_ context.Context, pctx *plugin.Context) error {
	if pctx.Request == nil {
		return nil
	}

	if pctx.Request.MaxTokens != nil && *pctx.Request.MaxTokens > m.maxTokens {
		pctx.Reject = true
		pctx.Reason = fmt.Sprintf("max_tokens %d exceeds limit of %d", *pctx.Request.MaxTokens, m.maxTokens)
		return nil
	}

	if len(pctx.Request.Messages) > m.maxMessages {
		pctx.Reject = true
		pctx.Reason = fmt.Sprintf("message count %d exceeds limit of %d", len(pctx.Request.Messages), m.maxMessages)
		return nil
	}

	if m.maxInputLen > 0 {
		total := 0
		for _, msg := range pctx.Request.Messages {
			total += len(msg.Content)
			for _, part := range msg.ContentParts {
				total += len(part.Text)
			}
		}
		if total > m.maxInputLen {
			pctx.Reject = true
			pctx.Reason = fmt.Sprintf("total input length %d exceeds limit of %d", total, m.maxInputLen)
			return nil
		}
	}

	return nil
}

// intOpt reads an integer option that may arrive as int (YAML) or float64 (JSON).
func intOpt(config map[string]interface{}, key string, def int) int {
	switch v := config[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}
