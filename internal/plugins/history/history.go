// Package history provides a storage plugin that records the final user turn
// and the assistant reply into the conversation store after each request.
// Register it with a blank import:
//
//	_ "github.com/gawin-ai/gateway/internal/plugins/history"
package history

import (
	"context"
	"fmt"
	"time"

	storepkg "github.com/gawin-ai/gateway/internal/history"
	"github.com/gawin-ai/gateway/plugin"
	"github.com/gawin-ai/gateway/providers"
)

func init() {
	plugin.RegisterFactory("conversation-history", func() plugin.Plugin {
		return &Recorder{}
	})
}

// Recorder persists chat turns. It runs at the after-request stage; failures
// are logged by the plugin manager and never affect the served response.
type Recorder struct {
	store storepkg.Store

	// recordDegraded controls whether canned terminal responses are
	// persisted alongside real completions.
	recordDegraded bool
	timeout        time.Duration
}

// Name returns the plugin identifier.
func (r *Recorder) Name() string { return "conversation-history" }

// Type returns the plugin lifecycle hook type.
func (r *Recorder) Type() plugin.PluginType { return plugin.TypeStorage }

// Init configures the plugin from the provided options map. The store itself
// is injected by the gateway via SetStore, since database handles cannot be
// expressed in a config map.
func (r *Recorder) Init(config map[string]interface{}) error {
	r.recordDegraded = true
	if v, ok := config["record_degraded"].(bool); ok {
		r.recordDegraded = v
	}
	r.timeout = 5 * time.Second
	switch v := config["timeout_seconds"].(type) {
	case int:
		r.timeout = time.Duration(v) * time.Second
	case float64:
		r.timeout = time.Duration(v) * time.Second
	}
	return nil
}

// SetStore injects the conversation store.
func (r *Recorder) SetStore(s storepkg.Store) { r.store = s }

// Execute records the exchange when both a request and a response are present.
func (r *Recorder) Execute(ctx context.Context, pctx *plugin.Context) error {
	if r.store == nil || pctx.Request == nil || pctx.Response == nil {
		return nil
	}
	if pctx.Degraded && !r.recordDegraded {
		return nil
	}
	userText := pctx.Request.LastUserContent()
	answer := pctx.Response.Content()
	if userText == "" && answer == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	msgs := []storepkg.Message{
		{Role: providers.RoleUser, Content: userText},
		{
			Role:             providers.RoleAssistant,
			Content:          answer,
			Provider:         pctx.Response.Provider,
			Model:            pctx.Response.Model,
			PromptTokens:     pctx.Response.Usage.PromptTokens,
			CompletionTokens: pctx.Response.Usage.CompletionTokens,
			Degraded:         pctx.Degraded,
		},
	}
	convID, err := r.store.Append(ctx, pctx.Request.ConversationID, msgs)
	if err != nil {
		return fmt.Errorf("record conversation: %w", err)
	}
	pctx.Metadata["conversation_id"] = convID
	return nil
}
