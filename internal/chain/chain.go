// Package chain implements the fallback sequencer: adapters are tried in a
// fixed priority order, strictly sequentially, and the first success wins.
//
// There is deliberately no retry, backoff, racing, load-based reordering, or
// failure-driven disabling of adapters. A failed adapter is simply skipped
// for the rest of the current request; the next request starts from the top
// of the same static list.
package chain

import (
	"context"
	"strings"

	"github.com/gawin-ai/gateway/internal/logging"
	"github.com/gawin-ai/gateway/providers"
)

// AdapterLookup resolves an adapter name to an Adapter instance.
type AdapterLookup func(name string) (providers.Adapter, bool)

// Attempt records the outcome of one adapter invocation within a chain run.
type Attempt struct {
	Provider string
	Reason   string // classified failure reason; "" for the winning attempt
}

// AllFailedError is returned when every adapter in the chain failed.
// It aggregates the per-attempt reasons for the terminal responder and logs.
type AllFailedError struct {
	Attempts []Attempt
}

// Error implements the error interface.
func (e *AllFailedError) Error() string {
	if len(e.Attempts) == 0 {
		return "no adapters configured"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Provider + ":" + a.Reason
	}
	return "all providers failed: " + strings.Join(parts, ", ")
}

// Reasons returns the classified reason of every failed attempt, in order.
func (e *AllFailedError) Reasons() []string {
	reasons := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		reasons[i] = a.Provider + ":" + a.Reason
	}
	return reasons
}

// Chain tries each named adapter in order, moving to the next on failure.
type Chain struct {
	order  []string
	lookup AdapterLookup

	// onAttempt, when set, observes every attempt (metrics hook).
	onAttempt func(Attempt)
}

// New creates a chain over the given static priority order.
func New(order []string, lookup AdapterLookup) *Chain {
	return &Chain{order: order, lookup: lookup}
}

// WithAttemptHook registers a callback invoked once per attempt, success or
// failure. Used by the gateway to emit per-adapter metrics.
func (c *Chain) WithAttemptHook(fn func(Attempt)) *Chain {
	c.onAttempt = fn
	return c
}

// Order returns the configured priority order.
func (c *Chain) Order() []string { return c.order }

// Run executes the chain: each adapter gets exactly one invocation, in
// priority order, and the first success short-circuits. On total failure the
// returned error is an *AllFailedError carrying every attempt.
func (c *Chain) Run(ctx context.Context, req providers.Request) (*providers.Response, error) {
	log := logging.FromContext(ctx)
	var attempts []Attempt

	for _, name := range c.order {
		a, ok := c.lookup(name)
		if !ok {
			log.Warn("adapter not registered, skipping", "provider", name)
			continue
		}
		if req.Model != "" && !a.SupportsModel(req.Model) {
			continue
		}

		resp, err := a.Complete(ctx, req)
		if err == nil {
			att := Attempt{Provider: name}
			if c.onAttempt != nil {
				c.onAttempt(att)
			}
			return resp, nil
		}

		att := Attempt{Provider: name, Reason: providers.ReasonOf(err)}
		attempts = append(attempts, att)
		if c.onAttempt != nil {
			c.onAttempt(att)
		}
		log.Warn("adapter failed, falling back",
			"provider", name,
			"reason", att.Reason,
			"error", err.Error(),
		)

		// A cancelled or timed-out request must not keep burning adapters.
		if ctx.Err() != nil {
			break
		}
	}

	return nil, &AllFailedError{Attempts: attempts}
}

// RunStream resolves the first adapter in priority order that supports both
// the requested model and streaming, and opens a stream on it. Failover
// covers only the connection attempt; once a stream is established,
// mid-stream errors belong to the caller.
func (c *Chain) RunStream(ctx context.Context, req providers.Request) (<-chan providers.StreamChunk, error) {
	log := logging.FromContext(ctx)
	var attempts []Attempt

	for _, name := range c.order {
		a, ok := c.lookup(name)
		if !ok {
			continue
		}
		if req.Model != "" && !a.SupportsModel(req.Model) {
			continue
		}
		sa, ok := a.(providers.StreamAdapter)
		if !ok {
			continue
		}

		ch, err := sa.CompleteStream(ctx, req)
		if err == nil {
			return ch, nil
		}
		attempts = append(attempts, Attempt{Provider: name, Reason: providers.ReasonOf(err)})
		log.Warn("stream adapter failed, falling back", "provider", name, "error", err.Error())

		if ctx.Err() != nil {
			break
		}
	}

	return nil, &AllFailedError{Attempts: attempts}
}
