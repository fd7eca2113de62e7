package main

import (
	"encoding/json"
	"net/http"

	"github.com/gawin-ai/gateway/internal/sessions"
	"github.com/go-chi/chi/v5"
)

// sessionHandlers serves the /v1/sessions routes over the shared pool.
type sessionHandlers struct {
	pool *sessions.Pool
}

func (h *sessionHandlers) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID       string            `json:"id"`
		Metadata map[string]string `json:"metadata"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeOpenAIError(w, http.StatusBadRequest, err.Error(), "invalid_request_error")
			return
		}
	}
	s := h.pool.Create(body.ID, body.Metadata)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(s)
}

func (h *sessionHandlers) list(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"object": "list",
		"data":   h.pool.List(),
	})
}

func (h *sessionHandlers) get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.pool.Get(chi.URLParam(r, "id"))
	if !ok {
		writeOpenAIError(w, http.StatusNotFound, "session not found", "invalid_request_error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s)
}

func (h *sessionHandlers) touch(w http.ResponseWriter, r *http.Request) {
	if !h.pool.Touch(chi.URLParam(r, "id")) {
		writeOpenAIError(w, http.StatusNotFound, "session not found", "invalid_request_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *sessionHandlers) delete(w http.ResponseWriter, r *http.Request) {
	if !h.pool.Delete(chi.URLParam(r, "id")) {
		writeOpenAIError(w, http.StatusNotFound, "session not found", "invalid_request_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
