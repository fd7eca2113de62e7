package cache

import (
	"context"
	"testing"

	"github.com/gawin-ai/gateway/plugin"
	"github.com/gawin-ai/gateway/providers"
)

func newCache(t *testing.T) *ResponseCache {
	t.Helper()
	c := &ResponseCache{}
	if err := c.Init(nil); err != nil {
		t.Fatalf("init: %v", err)
	}
	return c
}

func req(content string) *providers.Request {
	return &providers.Request{Messages: []providers.Message{
		{Role: providers.RoleUser, Content: content},
	}}
}

func resp(id, provider string) *providers.Response {
	return &providers.Response{ID: id, Provider: provider, Choices: []providers.Choice{
		{Message: providers.Message{Role: providers.RoleAssistant, Content: "answer"}},
	}}
}

func TestMissThenHit(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	// Miss: before-request leaves the context untouched.
	before := plugin.NewContext(req("q1"))
	if err := c.Execute(ctx, before); err != nil {
		t.Fatal(err)
	}
	if before.Response != nil || before.Skip {
		t.Fatal("unexpected hit on empty cache")
	}

	// Store via after-request.
	after := plugin.NewContext(req("q1"))
	after.Response = resp("r1", "groq")
	if err := c.Execute(ctx, after); err != nil {
		t.Fatal(err)
	}

	// Hit: identical request is served from cache and skips the chain.
	hit := plugin.NewContext(req("q1"))
	if err := c.Execute(ctx, hit); err != nil {
		t.Fatal(err)
	}
	if hit.Response == nil || hit.Response.ID != "r1" {
		t.Fatalf("expected cached response, got %+v", hit.Response)
	}
	if !hit.Skip {
		t.Error("cache hit should set Skip")
	}
	if hit.Metadata["cache_hit"] != true {
		t.Error("cache hit should set metadata flag")
	}
	if hit.Provider != "groq" {
		t.Errorf("hit provider = %q", hit.Provider)
	}
}

func TestDifferentRequestsMiss(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	after := plugin.NewContext(req("q1"))
	after.Response = resp("r1", "groq")
	_ = c.Execute(ctx, after)

	other := plugin.NewContext(req("q2"))
	_ = c.Execute(ctx, other)
	if other.Response != nil {
		t.Fatal("different request should not hit")
	}
}

func TestDegradedResponsesNotCached(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	after := plugin.NewContext(req("q1"))
	after.Response = resp("canned", "fallback")
	after.Degraded = true
	_ = c.Execute(ctx, after)

	probe := plugin.NewContext(req("q1"))
	_ = c.Execute(ctx, probe)
	if probe.Response != nil {
		t.Fatal("degraded response must not be cached")
	}
}

func TestStreamingBypassesCache(t *testing.T) {
	c := newCache(t)
	r := req("q1")
	r.Stream = true

	after := plugin.NewContext(r)
	after.Response = resp("r1", "groq")
	_ = c.Execute(context.Background(), after)

	probe := plugin.NewContext(r)
	_ = c.Execute(context.Background(), probe)
	if probe.Response != nil {
		t.Fatal("streaming requests must bypass the cache")
	}
}
