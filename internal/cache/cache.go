// Package cache provides the response cache used by the cache plugin. The
// default in-process implementation is Memory.
package cache

import "github.com/gawin-ai/gateway/providers"

// Store defines the interface for response caching.
type Store interface {
	Get(key string) (*providers.Response, bool)
	Set(key string, resp *providers.Response)
	Delete(key string)
	Len() int
	Clear()
}
