package schemaguard

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gawin-ai/gateway/plugin"
	"github.com/gawin-ai/gateway/providers"
)

const answerSchema = `{
	"type": "object",
	"required": ["answer"],
	"properties": {
		"answer": {"type": "string"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

func newGuard(t *testing.T, config map[string]interface{}) *SchemaGuard {
	t.Helper()
	g := &SchemaGuard{}
	if err := g.Init(config); err != nil {
		t.Fatalf("init: %v", err)
	}
	return g
}

func respCtx(content string) *plugin.Context {
	pctx := plugin.NewContext(&providers.Request{Messages: []providers.Message{
		{Role: providers.RoleUser, Content: "q"},
	}})
	pctx.Response = &providers.Response{Choices: []providers.Choice{
		{Message: providers.Message{Role: providers.RoleAssistant, Content: content}},
	}}
	return pctx
}

func withRequestSchema(pctx *plugin.Context, schema string) *plugin.Context {
	pctx.Request.ResponseFormat = &providers.ResponseFormat{
		Type:       "json_schema",
		JSONSchema: json.RawMessage(schema),
	}
	return pctx
}

func TestInitSchemaOptional(t *testing.T) {
	g := &SchemaGuard{}
	if err := g.Init(nil); err != nil {
		t.Fatalf("schema option should be optional: %v", err)
	}
	if err := g.Init(map[string]interface{}{"schema": "{not json"}); err == nil {
		t.Fatal("expected error for malformed schema")
	}
}

func TestValidResponse(t *testing.T) {
	g := newGuard(t, map[string]interface{}{"schema": answerSchema})
	pctx := respCtx(`{"answer": "42", "confidence": 0.9}`)

	if err := g.Execute(context.Background(), pctx); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if pctx.Metadata["schema_valid"] != true {
		t.Error("expected schema_valid metadata")
	}
}

func TestSchemaViolation(t *testing.T) {
	g := newGuard(t, map[string]interface{}{"schema": answerSchema})
	pctx := respCtx(`{"confidence": 2}`)

	if err := g.Execute(context.Background(), pctx); err == nil {
		t.Fatal("expected violation error")
	}
	if pctx.Metadata["schema_valid"] != false {
		t.Error("expected schema_valid=false metadata")
	}
}

func TestNonJSONResponse(t *testing.T) {
	g := newGuard(t, map[string]interface{}{"schema": answerSchema})
	if err := g.Execute(context.Background(), respCtx("plain text answer")); err == nil {
		t.Fatal("expected error for non-JSON content")
	}
}

func TestRequestSchemaValidated(t *testing.T) {
	g := newGuard(t, nil) // no config schema at all
	pctx := withRequestSchema(respCtx(`{"answer": "42"}`), answerSchema)

	if err := g.Execute(context.Background(), pctx); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if pctx.Metadata["schema_valid"] != true {
		t.Error("expected schema_valid metadata")
	}

	pctx = withRequestSchema(respCtx(`{"confidence": 0.5}`), answerSchema)
	if err := g.Execute(context.Background(), pctx); err == nil {
		t.Fatal("expected violation against request-supplied schema")
	}
}

func TestRequestSchemaOpenAIWrapper(t *testing.T) {
	g := newGuard(t, nil)
	wrapped := `{"name": "answer", "strict": true, "schema": ` + answerSchema + `}`
	pctx := withRequestSchema(respCtx(`{"confidence": 2}`), wrapped)

	if err := g.Execute(context.Background(), pctx); err == nil {
		t.Fatal("wrapped schema should still be enforced")
	}
}

func TestRequestSchemaOverridesFallback(t *testing.T) {
	// Fallback requires "answer"; the request's own schema does not.
	g := newGuard(t, map[string]interface{}{"schema": answerSchema})
	pctx := withRequestSchema(respCtx(`{"anything": 1}`), `{"type": "object"}`)

	if err := g.Execute(context.Background(), pctx); err != nil {
		t.Fatalf("request schema should win over the fallback: %v", err)
	}
}

func TestBadRequestSchemaSurfaced(t *testing.T) {
	g := newGuard(t, nil)
	pctx := withRequestSchema(respCtx(`{}`), `{"type": 42}`)

	if err := g.Execute(context.Background(), pctx); err == nil {
		t.Fatal("expected error for uncompilable request schema")
	}
	if pctx.Metadata["schema_valid"] != false {
		t.Error("expected schema_valid=false metadata")
	}
}

func TestNoSchemaPassesThrough(t *testing.T) {
	g := newGuard(t, nil)
	pctx := respCtx("free text, no schema anywhere")

	if err := g.Execute(context.Background(), pctx); err != nil {
		t.Fatalf("nothing to validate against, should pass: %v", err)
	}
	if _, ok := pctx.Metadata["schema_valid"]; ok {
		t.Error("no validation should have run")
	}
}

func TestJSONOnlySkipsFreeText(t *testing.T) {
	g := newGuard(t, map[string]interface{}{"schema": answerSchema, "json_only": true})
	pctx := respCtx("plain text answer")

	if err := g.Execute(context.Background(), pctx); err != nil {
		t.Fatalf("free-text request should be skipped in json_only mode: %v", err)
	}

	pctx.Request.ResponseFormat = &providers.ResponseFormat{Type: "json_object"}
	if err := g.Execute(context.Background(), pctx); err == nil {
		t.Fatal("json_object request should be validated")
	}
}

func TestDegradedSkipped(t *testing.T) {
	g := newGuard(t, map[string]interface{}{"schema": answerSchema})
	pctx := respCtx("canned text")
	pctx.Degraded = true
	if err := g.Execute(context.Background(), pctx); err != nil {
		t.Fatalf("degraded responses should be skipped: %v", err)
	}
}
