// Package sessions implements the interactive session pool: entries keyed by
// session id with a last-activity timestamp, evicted after a configurable
// idle TTL. Eviction is a pure function over a pool snapshot so it can be
// driven both by the background sweeper and synchronously by tests.
package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/gawin-ai/gateway/internal/metrics"
)

// Session is one live entry in the pool.
type Session struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActivity time.Time         `json:"last_activity"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Expired returns the ids of sessions idle longer than ttl at the given
// instant. It is a pure function of its arguments.
func Expired(snapshot []Session, ttl time.Duration, now time.Time) []string {
	var ids []string
	for _, s := range snapshot {
		if now.Sub(s.LastActivity) > ttl {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// Pool is a thread-safe session pool.
type Pool struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration

	now func() time.Time // overridable in tests
}

// NewPool creates an empty pool whose sessions expire after ttl of inactivity.
func NewPool(ttl time.Duration) *Pool {
	return &Pool{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create adds a session and returns it. A random id is generated when id is
// empty; creating an existing id refreshes it.
func (p *Pool) Create(id string, metadata map[string]string) *Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id == "" {
		id = newSessionID()
	}
	now := p.now()
	s := &Session{ID: id, CreatedAt: now, LastActivity: now, Metadata: metadata}
	if prev, ok := p.sessions[id]; ok {
		s.CreatedAt = prev.CreatedAt
	}
	p.sessions[id] = s
	metrics.SessionsActive.Set(float64(len(p.sessions)))
	return cloneSession(s)
}

// Get returns a copy of the session, or false if absent.
func (p *Pool) Get(id string) (Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *cloneSession(s), true
}

// Touch refreshes the session's last-activity timestamp. It reports whether
// the session existed.
func (p *Pool) Touch(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if !ok {
		return false
	}
	s.LastActivity = p.now()
	return true
}

// Delete removes a session. It reports whether the session existed.
func (p *Pool) Delete(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sessions[id]; !ok {
		return false
	}
	delete(p.sessions, id)
	metrics.SessionsActive.Set(float64(len(p.sessions)))
	return true
}

// List returns a snapshot of all sessions sorted by id.
func (p *Pool) List() []Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		out = append(out, *cloneSession(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of live sessions.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sessions)
}

// Sweep removes every expired session and returns how many were evicted.
func (p *Pool) Sweep() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := make([]Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		snapshot = append(snapshot, *s)
	}
	expired := Expired(snapshot, p.ttl, p.now())
	for _, id := range expired {
		delete(p.sessions, id)
	}
	if n := len(expired); n > 0 {
		metrics.SessionsEvicted.Add(float64(n))
		metrics.SessionsActive.Set(float64(len(p.sessions)))
	}
	return len(expired)
}

// Run sweeps the pool on the given interval until ctx is cancelled.
func (p *Pool) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep()
		}
	}
}

func cloneSession(s *Session) *Session {
	out := *s
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func newSessionID() string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return "sess-" + hex.EncodeToString(b)
}
