// Package schemaguard provides a guardrail plugin that validates assistant
// output against a JSON Schema, for deployments that require structured
// completions. The schema comes from the request itself when it sets
// response_format.json_schema; a config-supplied schema acts as the
// deployment-wide fallback. Register it with a blank import:
//
//	_ "github.com/gawin-ai/gateway/internal/plugins/schemaguard"
package schemaguard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/gawin-ai/gateway/plugin"
	"github.com/gawin-ai/gateway/providers"
)

func init() {
	plugin.RegisterFactory("schema-guard", func() plugin.Plugin {
		return &SchemaGuard{}
	})
}

// maxCompiledSchemas bounds the per-request schema cache; on overflow the
// cache is flushed rather than evicted entry by entry.
const maxCompiledSchemas = 128

// SchemaGuard validates the first choice of each non-degraded response as a
// JSON document conforming to the applicable schema. It runs at the
// after-request stage; violations are surfaced as plugin errors and flagged
// in the context metadata, never dropped silently.
type SchemaGuard struct {
	// fallback is the config-supplied schema, used when the request does not
	// carry a json_schema of its own. May be nil.
	fallback *jsonschema.Schema

	// jsonOnly restricts fallback validation to requests that asked for a
	// JSON response format; free-text chat passes through untouched.
	jsonOnly bool

	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

// Name returns the plugin identifier.
func (g *SchemaGuard) Name() string { return "schema-guard" }

// Type returns the plugin lifecycle hook type.
func (g *SchemaGuard) Type() plugin.PluginType { return plugin.TypeGuardrail }

// Init compiles the optional "schema" option, the deployment-wide fallback
// applied when a request does not carry its own response_format.json_schema.
func (g *SchemaGuard) Init(config map[string]interface{}) error {
	if raw, _ := config["schema"].(string); strings.TrimSpace(raw) != "" {
		sch, err := compileSchema(raw)
		if err != nil {
			return fmt.Errorf("schema-guard: %w", err)
		}
		g.fallback = sch
	}
	if v, ok := config["json_only"].(bool); ok {
		g.jsonOnly = v
	}
	return nil
}

// Execute validates the response content against the schema the request
// selected, if any.
func (g *SchemaGuard) Execute(_ context.Context, pctx *plugin.Context) error {
	if pctx.Response == nil || pctx.Degraded {
		return nil
	}
	sch, err := g.schemaFor(pctx.Request)
	if err != nil {
		pctx.Metadata["schema_valid"] = false
		return err
	}
	if sch == nil {
		return nil
	}

	content := pctx.Response.Content()
	var doc interface{}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		pctx.Metadata["schema_valid"] = false
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		pctx.Metadata["schema_valid"] = false
		return fmt.Errorf("response violates schema: %w", err)
	}
	pctx.Metadata["schema_valid"] = true
	return nil
}

// schemaFor picks the schema governing req: a request-supplied json_schema
// wins, then the config fallback. nil means nothing applies and the response
// passes through.
func (g *SchemaGuard) schemaFor(req *providers.Request) (*jsonschema.Schema, error) {
	var rf *providers.ResponseFormat
	if req != nil {
		rf = req.ResponseFormat
	}
	if rf != nil && rf.Type == "json_schema" && len(rf.JSONSchema) > 0 {
		sch, err := g.requestSchema(rf.JSONSchema)
		if err != nil {
			return nil, fmt.Errorf("request json_schema: %w", err)
		}
		return sch, nil
	}
	if g.jsonOnly && (rf == nil || (rf.Type != "json_object" && rf.Type != "json_schema")) {
		return nil, nil
	}
	return g.fallback, nil
}

// requestSchema compiles a client-supplied schema, caching by raw text so
// repeated requests with the same schema compile once.
func (g *SchemaGuard) requestSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	// OpenAI clients wrap the schema as {"name": ..., "schema": {...}};
	// accept both the wrapper and a bare schema document.
	var wrapper struct {
		Schema json.RawMessage `json:"schema"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Schema) > 0 {
		raw = wrapper.Schema
	}
	key := string(raw)

	g.mu.Lock()
	defer g.mu.Unlock()
	if sch, ok := g.compiled[key]; ok {
		return sch, nil
	}
	sch, err := compileSchema(key)
	if err != nil {
		return nil, err
	}
	if len(g.compiled) >= maxCompiledSchemas {
		g.compiled = nil
	}
	if g.compiled == nil {
		g.compiled = make(map[string]*jsonschema.Schema)
	}
	g.compiled[key] = sch
	return sch, nil
}

func compileSchema(raw string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("response.json", strings.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	sch, err := compiler.Compile("response.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return sch, nil
}
