package providers

import (
	"net/http"
	"time"
)

// defaultTimeout bounds a single adapter invocation. An adapter that cannot
// answer within it fails with reason "network" and the chain moves on.
const defaultTimeout = 60 * time.Second

// Base provides common fields and methods shared by REST-based adapter
// implementations. Embed this struct to avoid repeating name, apiKey,
// baseURL, and default-model handling across adapters.
type Base struct {
	name         string
	apiKey       string
	baseURL      string
	defaultModel string
}

// Name returns the adapter name.
func (b *Base) Name() string { return b.name }

// BaseURL returns the adapter's root API URL (no trailing slash).
func (b *Base) BaseURL() string { return b.baseURL }

// DefaultModel returns the model used when the request leaves Model empty.
func (b *Base) DefaultModel() string { return b.defaultModel }

// resolveModel applies the adapter default when the caller omitted a model.
func (b *Base) resolveModel(requested string) string {
	if requested == "" {
		return b.defaultModel
	}
	return requested
}

// newHTTPClient builds the fixed-timeout client used by REST adapters.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// ModelsFromList builds a ModelInfo slice from a list of model IDs.
// Adapter Models() implementations call this to avoid repetitive boilerplate.
func ModelsFromList(providerName string, ids []string) []ModelInfo {
	models := make([]ModelInfo, len(ids))
	for i, id := range ids {
		models[i] = ModelInfo{
			ID:      id,
			Object:  "model",
			OwnedBy: providerName,
		}
	}
	return models
}

// AdapterSource is a read-only view over a collection of registered adapters.
// Both *Registry and *gawin.Gateway implement it, so handlers that only need
// to read adapter info can accept either.
type AdapterSource interface {
	Get(name string) (Adapter, bool)
	List() []string
	AllModels() []ModelInfo
	FindByModel(model string) (Adapter, bool)
}
