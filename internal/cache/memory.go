package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/gawin-ai/gateway/providers"
)

type entry struct {
	key       string
	response  *providers.Response
	expiresAt time.Time
}

// Memory is a thread-safe in-memory LRU cache with TTL expiration.
type Memory struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	order    *list.List // front = most recently used

	now func() time.Time // overridable in tests
}

// NewMemory creates an in-memory LRU cache holding at most capacity entries,
// each expiring ttl after its last Set.
func NewMemory(capacity int, ttl time.Duration) *Memory {
	return &Memory{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the cached response for key, or false if missing or expired.
// Expired entries are removed on access.
func (m *Memory) Get(key string) (*providers.Response, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*entry)
	if m.now().After(e.expiresAt) {
		m.remove(elem)
		return nil, false
	}
	m.order.MoveToFront(elem)
	return e.response, true
}

// Set stores a response under key, refreshing its TTL and recency. The least
// recently used entry is dropped when the cache is full.
func (m *Memory) Set(key string, resp *providers.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		m.order.MoveToFront(elem)
		e := elem.Value.(*entry)
		e.response = resp
		e.expiresAt = m.now().Add(m.ttl)
		return
	}
	if m.order.Len() >= m.capacity {
		if oldest := m.order.Back(); oldest != nil {
			m.remove(oldest)
		}
	}
	m.items[key] = m.order.PushFront(&entry{
		key:       key,
		response:  resp,
		expiresAt: m.now().Add(m.ttl),
	})
}

// Delete removes an entry from the cache.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if elem, ok := m.items[key]; ok {
		m.remove(elem)
	}
}

// Len returns the number of entries currently in the cache.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// Clear removes all entries from the cache.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*list.Element)
	m.order.Init()
}

func (m *Memory) remove(elem *list.Element) {
	m.order.Remove(elem)
	delete(m.items, elem.Value.(*entry).key)
}
