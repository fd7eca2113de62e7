// Package gawin is the core of the Gawin chat gateway: a validated request
// goes through the plugin pipeline, then the fallback chain of provider
// adapters, and on total failure the terminal responder guarantees a
// well-formed answer. The gateway itself is transport-agnostic; cmd/gawind
// puts HTTP in front of it.
package gawin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gawin-ai/gateway/internal/chain"
	"github.com/gawin-ai/gateway/internal/history"
	"github.com/gawin-ai/gateway/internal/logging"
	"github.com/gawin-ai/gateway/internal/metrics"
	"github.com/gawin-ai/gateway/internal/policy"
	"github.com/gawin-ai/gateway/internal/responder"
	"github.com/gawin-ai/gateway/internal/validate"
	"github.com/gawin-ai/gateway/models"
	"github.com/gawin-ai/gateway/plugin"
	"github.com/gawin-ai/gateway/providers"
)

// Event describes a completed routing decision, published to hooks after the
// response has been handed back to the caller.
type Event struct {
	Type     string // "completed", "degraded", "failed", "rejected"
	Provider string
	Model    string
	Duration time.Duration
	Error    string
}

// Event types published to hooks.
const (
	EventCompleted = "completed"
	EventDegraded  = "degraded"
	EventFailed    = "failed"
	EventRejected  = "rejected"
)

// EventHookFunc receives routing events asynchronously. Hooks must not block
// for long; each invocation runs on its own goroutine.
type EventHookFunc func(Event)

// UnavailableError is returned from Route when every adapter failed and the
// gateway is configured with degrade_mode "unavailable". HTTP handlers map
// it to 503.
type UnavailableError struct {
	Reasons []string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("all providers unavailable: %v", e.Reasons)
}

// Gateway routes chat requests across provider adapters.
type Gateway struct {
	mu     sync.RWMutex
	config Config

	registry *providers.Registry
	catalog  models.Catalog
	plugins  *plugin.Manager

	validator *validate.Validator
	terminal  *responder.Responder

	historyStore history.Store

	hookMu sync.RWMutex
	hooks  []EventHookFunc
}

// New creates a gateway from the given configuration. The model catalog is
// loaded eagerly; a load failure is logged but not fatal since cost tracking
// is best-effort.
func New(cfg Config) (*Gateway, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	catalog, err := models.Load()
	if err != nil {
		logging.Logger.Warn("model catalog unavailable, cost tracking disabled", "error", err.Error())
		catalog = models.Catalog{}
	}

	var checker policy.Checker
	if len(cfg.ContentPolicy.BlockedTerms) > 0 {
		checker = policy.NewKeyword(cfg.ContentPolicy.BlockedTerms, cfg.ContentPolicy.CaseSensitive)
	}

	return &Gateway{
		config:    cfg,
		registry:  providers.NewRegistry(),
		catalog:   catalog,
		plugins:   plugin.NewManager(),
		validator: validate.New(checker),
		terminal:  responder.New(),
	}, nil
}

// RegisterAdapter adds a provider adapter to the registry. Adapters named in
// the configured chain order but never registered are skipped at run time.
func (g *Gateway) RegisterAdapter(a providers.Adapter) {
	g.registry.Register(a)
}

// SetHistoryStore wires the conversation store. Must be called before
// LoadPlugins so the history recorder plugin receives the handle.
func (g *Gateway) SetHistoryStore(s history.Store) {
	g.historyStore = s
}

// History returns the conversation store, or nil when persistence is off.
func (g *Gateway) History() history.Store {
	return g.historyStore
}

// storeReceiver is implemented by plugins that need the conversation store.
type storeReceiver interface {
	SetStore(history.Store)
}

// LoadPlugins instantiates and registers every enabled plugin from the
// configuration.
func (g *Gateway) LoadPlugins() error {
	g.mu.RLock()
	cfgs := g.config.Plugins
	g.mu.RUnlock()

	for _, pc := range cfgs {
		if !pc.Enabled {
			continue
		}
		factory, ok := plugin.GetFactory(pc.Name)
		if !ok {
			return fmt.Errorf("unknown plugin: %s", pc.Name)
		}
		p := factory()
		if err := p.Init(pc.Config); err != nil {
			return fmt.Errorf("init plugin %s: %w", pc.Name, err)
		}
		if r, ok := p.(storeReceiver); ok && g.historyStore != nil {
			r.SetStore(g.historyStore)
		}
		if err := g.plugins.Register(plugin.Stage(pc.Stage), p); err != nil {
			return fmt.Errorf("register plugin %s: %w", pc.Name, err)
		}
		logging.Logger.Info("plugin loaded", "name", pc.Name, "stage", pc.Stage)
	}
	return nil
}

// RegisterPlugin adds an already-initialized plugin at the given stage,
// bypassing the config-driven factory path. Used by embedders.
func (g *Gateway) RegisterPlugin(stage plugin.Stage, p plugin.Plugin) error {
	return g.plugins.Register(stage, p)
}

// AddHook registers an event hook.
func (g *Gateway) AddHook(fn EventHookFunc) {
	g.hookMu.Lock()
	g.hooks = append(g.hooks, fn)
	g.hookMu.Unlock()
}

func (g *Gateway) publish(ev Event) {
	g.hookMu.RLock()
	hooks := g.hooks
	g.hookMu.RUnlock()
	for _, fn := range hooks {
		go fn(ev)
	}
}

// GetConfig returns a snapshot of the current configuration.
func (g *Gateway) GetConfig() Config {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.config
}

// ReloadConfig swaps in a new configuration after validating it. Adapters
// and plugins are unaffected; only chain order, aliases, and degrade policy
// take effect on subsequent requests.
func (g *Gateway) ReloadConfig(cfg Config) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	g.mu.Lock()
	g.config = cfg
	g.mu.Unlock()
	logging.Logger.Info("configuration reloaded", "providers", cfg.Providers)
	return nil
}

// ------------------------------------------------------------- adapters --

// Get returns the adapter registered under the given name.
func (g *Gateway) Get(name string) (providers.Adapter, bool) {
	return g.registry.Get(name)
}

// List returns the names of all registered adapters in sorted order.
func (g *Gateway) List() []string {
	return g.registry.List()
}

// AllModels returns every model offered by every registered adapter.
func (g *Gateway) AllModels() []providers.ModelInfo {
	return g.registry.AllModels()
}

// FindByModel returns the first registered adapter claiming the given model.
func (g *Gateway) FindByModel(model string) (providers.Adapter, bool) {
	return g.registry.FindByModel(model)
}

// FindVision returns a registered adapter that accepts image content.
func (g *Gateway) FindVision() (providers.VisionAdapter, bool) {
	return g.registry.FindVision()
}

// Catalog returns the loaded model catalog.
func (g *Gateway) Catalog() models.Catalog {
	return g.catalog
}

// ------------------------------------------------------------- routing --

func (g *Gateway) resolveAlias(model string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if target, ok := g.config.Aliases[model]; ok {
		return target
	}
	return model
}

func (g *Gateway) buildChain() *chain.Chain {
	g.mu.RLock()
	order := g.config.Providers
	g.mu.RUnlock()
	return chain.New(order, g.registry.Get).WithAttemptHook(func(a chain.Attempt) {
		reason := a.Reason
		if reason == "" {
			reason = "success"
		}
		metrics.ChainAttempts.WithLabelValues(a.Provider, reason).Inc()
	})
}

// Route runs a chat request through validation, the before-request plugin
// stage, the fallback chain, and the after-request stage. It returns an
// error only for rejected input (validation, content policy, plugin reject)
// or, under degrade_mode "unavailable", for total provider failure. Under
// the default graceful policy total failure yields a terminal response, not
// an error.
func (g *Gateway) Route(ctx context.Context, req providers.Request) (*providers.Response, error) {
	start := time.Now()
	log := logging.FromContext(ctx)

	if err := g.validator.Validate(&req); err != nil {
		metrics.RequestsTotal.WithLabelValues("", req.Model, "rejected").Inc()
		g.publish(Event{Type: EventRejected, Model: req.Model, Duration: time.Since(start), Error: err.Error()})
		return nil, err
	}
	req.Model = g.resolveAlias(req.Model)

	pctx := plugin.NewContext(&req)
	if g.plugins.HasPlugins() {
		if err := g.plugins.RunBefore(ctx, pctx); err != nil {
			metrics.RequestsTotal.WithLabelValues("", req.Model, "rejected").Inc()
			g.publish(Event{Type: EventRejected, Model: req.Model, Duration: time.Since(start), Error: err.Error()})
			return nil, err
		}
		req = *pctx.Request
	}

	var resp *providers.Response
	degraded := false
	cached := false

	switch {
	case pctx.Skip && pctx.Response != nil:
		// A before-request plugin (cache) produced the response.
		resp = pctx.Response
		cached = true

	default:
		r, err := g.buildChain().Run(ctx, req)
		if err != nil {
			var allFailed *chain.AllFailedError
			if !errors.As(err, &allFailed) {
				return nil, err
			}
			g.mu.RLock()
			mode := g.config.DegradeMode
			g.mu.RUnlock()
			if mode == DegradeUnavailable {
				pctx.Error = err
				g.plugins.RunOnError(ctx, pctx)
				metrics.RequestsTotal.WithLabelValues("", req.Model, "error").Inc()
				g.publish(Event{Type: EventFailed, Model: req.Model, Duration: time.Since(start), Error: err.Error()})
				return nil, &UnavailableError{Reasons: allFailed.Reasons()}
			}
			resp = g.terminal.Respond(&req, allFailed.Reasons())
			degraded = true
			metrics.TerminalResponses.WithLabelValues(responder.TopicFor(&req)).Inc()
			log.Warn("all providers failed, serving terminal response",
				"reasons", allFailed.Reasons(),
			)
		} else {
			resp = r
		}
	}

	if resp.Object == "" {
		resp.Object = "chat.completion"
	}
	if resp.Created == 0 {
		resp.Created = time.Now().Unix()
	}
	if resp.ID == "" {
		resp.ID = fmt.Sprintf("chatcmpl-%d", time.Now().UnixNano())
	}

	pctx.Response = resp
	pctx.Provider = resp.Provider
	pctx.Degraded = degraded
	if g.plugins.HasPlugins() {
		// After-request plugin errors are logged inside the manager and
		// never fail the request.
		_ = g.plugins.RunAfter(ctx, pctx)
	}

	g.observe(resp, degraded, cached, time.Since(start))
	log.Info("request routed",
		"provider", resp.Provider,
		"model", resp.Model,
		"degraded", degraded,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	evType := EventCompleted
	if degraded {
		evType = EventDegraded
	}
	g.publish(Event{Type: evType, Provider: resp.Provider, Model: resp.Model, Duration: time.Since(start)})
	return resp, nil
}

// observe records the per-request metrics. Degraded responses carry no token
// usage and accrue no cost; cache hits replay a stored response without a
// provider call, so their tokens and cost are counted only once, at fill time.
func (g *Gateway) observe(resp *providers.Response, degraded, cached bool, elapsed time.Duration) {
	status := "success"
	if degraded {
		status = "degraded"
	}
	metrics.RequestsTotal.WithLabelValues(resp.Provider, resp.Model, status).Inc()
	metrics.RequestDuration.WithLabelValues(resp.Provider, resp.Model).Observe(elapsed.Seconds())
	if degraded || cached {
		return
	}
	if resp.Usage.PromptTokens > 0 {
		metrics.TokensInput.WithLabelValues(resp.Provider, resp.Model).Add(float64(resp.Usage.PromptTokens))
	}
	if resp.Usage.CompletionTokens > 0 {
		metrics.TokensOutput.WithLabelValues(resp.Provider, resp.Model).Add(float64(resp.Usage.CompletionTokens))
	}
	cost := models.Calculate(g.catalog, resp.Provider+"/"+resp.Model, models.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	})
	if cost.ModelFound && cost.TotalUSD > 0 {
		metrics.RequestCostUSD.WithLabelValues(resp.Provider, resp.Model).Add(cost.TotalUSD)
	}
}

// RouteStream opens a streaming completion on the first adapter in the chain
// that supports it. Under the graceful degrade policy, total failure yields
// a synthetic single-chunk stream carrying the terminal response.
func (g *Gateway) RouteStream(ctx context.Context, req providers.Request) (<-chan providers.StreamChunk, error) {
	if err := g.validator.Validate(&req); err != nil {
		metrics.RequestsTotal.WithLabelValues("", req.Model, "rejected").Inc()
		return nil, err
	}
	req.Model = g.resolveAlias(req.Model)
	req.Stream = true

	pctx := plugin.NewContext(&req)
	if g.plugins.HasPlugins() {
		if err := g.plugins.RunBefore(ctx, pctx); err != nil {
			metrics.RequestsTotal.WithLabelValues("", req.Model, "rejected").Inc()
			return nil, err
		}
		req = *pctx.Request
	}

	ch, err := g.buildChain().RunStream(ctx, req)
	if err != nil {
		var allFailed *chain.AllFailedError
		if !errors.As(err, &allFailed) {
			return nil, err
		}
		g.mu.RLock()
		mode := g.config.DegradeMode
		g.mu.RUnlock()
		if mode == DegradeUnavailable {
			metrics.RequestsTotal.WithLabelValues("", req.Model, "error").Inc()
			return nil, &UnavailableError{Reasons: allFailed.Reasons()}
		}
		resp := g.terminal.Respond(&req, allFailed.Reasons())
		metrics.TerminalResponses.WithLabelValues(responder.TopicFor(&req)).Inc()
		metrics.RequestsTotal.WithLabelValues(resp.Provider, resp.Model, "degraded").Inc()
		return terminalStream(resp), nil
	}

	metrics.RequestsTotal.WithLabelValues("", req.Model, "success").Inc()
	return ch, nil
}

// terminalStream wraps a terminal response as a two-chunk stream: content,
// then a stop marker.
func terminalStream(resp *providers.Response) <-chan providers.StreamChunk {
	ch := make(chan providers.StreamChunk, 2)
	ch <- providers.StreamChunk{
		ID:      resp.ID,
		Object:  "chat.completion.chunk",
		Created: resp.Created,
		Model:   resp.Model,
		Choices: []providers.StreamChoice{{
			Delta: providers.MessageDelta{Role: "assistant", Content: resp.Content()},
		}},
	}
	ch <- providers.StreamChunk{
		ID:      resp.ID,
		Object:  "chat.completion.chunk",
		Created: resp.Created,
		Model:   resp.Model,
		Choices: []providers.StreamChoice{{FinishReason: "stop"}},
	}
	close(ch)
	return ch
}
