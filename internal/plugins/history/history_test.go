package history

import (
	"context"
	"path/filepath"
	"testing"

	storepkg "github.com/gawin-ai/gateway/internal/history"
	"github.com/gawin-ai/gateway/plugin"
	"github.com/gawin-ai/gateway/providers"
)

func newRecorder(t *testing.T, config map[string]interface{}) (*Recorder, storepkg.Store) {
	t.Helper()
	store, err := storepkg.NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	r := &Recorder{}
	if err := r.Init(config); err != nil {
		t.Fatalf("init: %v", err)
	}
	r.SetStore(store)
	return r, store
}

func exchange(convID string) *plugin.Context {
	pctx := plugin.NewContext(&providers.Request{
		ConversationID: convID,
		Messages: []providers.Message{
			{Role: providers.RoleUser, Content: "what is a mutex?"},
		},
	})
	pctx.Response = &providers.Response{
		Provider: "groq",
		Model:    "llama-3.3-70b-versatile",
		Choices: []providers.Choice{
			{Message: providers.Message{Role: providers.RoleAssistant, Content: "A mutual exclusion lock."}},
		},
	}
	return pctx
}

func TestFactoryRegistered(t *testing.T) {
	if _, ok := plugin.GetFactory("conversation-history"); !ok {
		t.Fatal("conversation-history factory not registered")
	}
}

func TestRecordsExchange(t *testing.T) {
	r, store := newRecorder(t, nil)
	pctx := exchange("")

	if err := r.Execute(context.Background(), pctx); err != nil {
		t.Fatalf("execute: %v", err)
	}
	convID, _ := pctx.Metadata["conversation_id"].(string)
	if convID == "" {
		t.Fatal("expected conversation_id metadata")
	}

	_, msgs, err := store.Get(context.Background(), convID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[1].Provider != "groq" {
		t.Errorf("assistant provider = %q", msgs[1].Provider)
	}
}

func TestThreadsExistingConversation(t *testing.T) {
	r, store := newRecorder(t, nil)

	first := exchange("")
	_ = r.Execute(context.Background(), first)
	convID := first.Metadata["conversation_id"].(string)

	second := exchange(convID)
	_ = r.Execute(context.Background(), second)

	_, msgs, err := store.Get(context.Background(), convID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4 after two exchanges", len(msgs))
	}
}

func TestSkipsDegradedWhenConfigured(t *testing.T) {
	r, store := newRecorder(t, map[string]interface{}{"record_degraded": false})
	pctx := exchange("")
	pctx.Degraded = true

	if err := r.Execute(context.Background(), pctx); err != nil {
		t.Fatalf("execute: %v", err)
	}
	convs, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(convs) != 0 {
		t.Fatalf("degraded exchange was recorded: %v", convs)
	}
}

func TestNoStoreIsNoOp(t *testing.T) {
	r := &Recorder{}
	_ = r.Init(nil)
	if err := r.Execute(context.Background(), exchange("")); err != nil {
		t.Fatalf("execute without store: %v", err)
	}
}
