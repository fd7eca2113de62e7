package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gawin-ai/gateway/providers"
)

// Handlers holds dependencies for admin HTTP handlers. All routes returned by
// Routes are expected to be mounted behind AuthMiddleware.
type Handlers struct {
	Keys      Store
	Providers providers.AdapterSource
}

// Routes returns a chi.Router with all admin endpoints mounted.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	// Read-only endpoints (accessible with read-only or admin scope).
	r.Group(func(r chi.Router) {
		r.Use(RequireScope(ScopeReadOnly, ScopeAdmin))
		r.Get("/keys", h.listKeys)
		r.Get("/keys/{id}", h.getKey)
		r.Get("/providers", h.listProviders)
	})

	// Write endpoints (admin scope only).
	r.Group(func(r chi.Router) {
		r.Use(RequireScope(ScopeAdmin))
		r.Post("/keys", h.createKey)
		r.Delete("/keys/{id}", h.deleteKey)
		r.Post("/keys/{id}/revoke", h.revokeKey)
		r.Post("/keys/{id}/rotate", h.rotateKey)
	})

	return r
}

func (h *Handlers) listKeys(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"keys": h.Keys.List()})
}

func (h *Handlers) getKey(w http.ResponseWriter, r *http.Request) {
	k, ok := h.Keys.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "key not found", "", "")
		return
	}
	writeJSON(w, http.StatusOK, masked(k))
}

type createKeyRequest struct {
	Name      string     `json:"name"`
	Scopes    []string   `json:"scopes"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (h *Handlers) createKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "", "")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", "", "")
		return
	}
	k, err := h.Keys.Create(req.Name, req.Scopes, req.ExpiresAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "", "")
		return
	}
	// The full key value is returned exactly once, at creation time.
	writeJSON(w, http.StatusCreated, k)
}

func (h *Handlers) deleteKey(w http.ResponseWriter, r *http.Request) {
	if err := h.Keys.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error(), "", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) revokeKey(w http.ResponseWriter, r *http.Request) {
	if err := h.Keys.Revoke(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error(), "", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

func (h *Handlers) rotateKey(w http.ResponseWriter, r *http.Request) {
	k, err := h.Keys.RotateKey(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), "", "")
		return
	}
	// Like createKey, rotation is the one moment the new value is shown.
	writeJSON(w, http.StatusOK, k)
}

func (h *Handlers) listProviders(w http.ResponseWriter, _ *http.Request) {
	type providerInfo struct {
		Name   string   `json:"name"`
		Models []string `json:"models"`
	}
	out := make([]providerInfo, 0)
	if h.Providers != nil {
		for _, name := range h.Providers.List() {
			a, ok := h.Providers.Get(name)
			if !ok {
				continue
			}
			out = append(out, providerInfo{Name: name, Models: a.SupportedModels()})
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"providers": out})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
