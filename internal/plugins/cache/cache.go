// Package cache provides a response-cache plugin that stores chat responses
// in memory and serves them on exact-match hits, avoiding a provider round
// trip for repeated requests. Register it with a blank import:
//
//	_ "github.com/gawin-ai/gateway/internal/plugins/cache"
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	gatewaycache "github.com/gawin-ai/gateway/internal/cache"
	"github.com/gawin-ai/gateway/plugin"
	"github.com/gawin-ai/gateway/providers"
)

func init() {
	plugin.RegisterFactory("response-cache", func() plugin.Plugin {
		return &ResponseCache{}
	})
}

// ResponseCache caches chat responses keyed by an exact-match hash of the
// request (model + messages). Terminal fallback responses are never cached:
// a degraded answer must not shadow a real one once providers recover.
type ResponseCache struct {
	store gatewaycache.Store
}

// Name returns the plugin identifier.
func (c *ResponseCache) Name() string { return "response-cache" }

// Type returns the plugin lifecycle hook type.
func (c *ResponseCache) Type() plugin.PluginType { return plugin.TypeCache }

// Init configures the plugin from the provided options map.
func (c *ResponseCache) Init(config map[string]interface{}) error {
	maxAge := 300
	// JSON delivers numeric values as float64; YAML may deliver int.
	switch v := config["max_age"].(type) {
	case int:
		maxAge = v
	case float64:
		maxAge = int(v)
	}
	maxEntries := 1000
	switch v := config["max_entries"].(type) {
	case int:
		maxEntries = v
	case float64:
		maxEntries = int(v)
	}
	c.store = gatewaycache.NewMemory(maxEntries, time.Duration(maxAge)*time.Second)
	return nil
}

// Execute checks for a cache hit (before request) or stores the response
// (after request).
func (c *ResponseCache) Execute(_ context.Context, pctx *plugin.Context) error {
	if pctx.Request == nil || pctx.Request.Stream {
		return nil
	}

	key := cacheKey(pctx.Request)

	if pctx.Response == nil {
		if resp, ok := c.store.Get(key); ok {
			pctx.Response = resp
			pctx.Provider = resp.Provider
			pctx.Skip = true
			pctx.Metadata["cache_hit"] = true
		}
		return nil
	}

	if pctx.Metadata["cache_hit"] == true || pctx.Degraded {
		return nil
	}
	c.store.Set(key, pctx.Response)
	return nil
}

func cacheKey(req *providers.Request) string {
	var b strings.Builder
	b.WriteString(req.Model)
	b.WriteByte('\n')
	for _, m := range req.Messages {
		b.WriteString(m.Role)
		b.WriteByte(':')
		b.WriteString(m.Content)
		for _, p := range m.ContentParts {
			b.WriteString(p.Type)
			b.WriteByte(':')
			b.WriteString(p.Text)
			if p.ImageURL != nil {
				b.WriteString(p.ImageURL.URL)
			}
		}
		b.WriteByte('\n')
	}
	h := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(h[:])
}
