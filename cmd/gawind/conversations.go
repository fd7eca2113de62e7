package main

import (
	"encoding/json"
	"errors"
	"net/http"

	gawin "github.com/gawin-ai/gateway"
	"github.com/gawin-ai/gateway/internal/history"
	"github.com/go-chi/chi/v5"
)

// conversationHandlers serves the /v1/conversations routes over the
// gateway's history store. All routes answer 404-style errors when
// persistence is disabled.
type conversationHandlers struct {
	gw *gawin.Gateway
}

func (h *conversationHandlers) store(w http.ResponseWriter) (history.Store, bool) {
	s := h.gw.History()
	if s == nil {
		writeOpenAIError(w, http.StatusNotFound, "conversation history is disabled", "invalid_request_error")
		return nil, false
	}
	return s, true
}

func (h *conversationHandlers) list(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w)
	if !ok {
		return
	}
	convs, err := s.List(r.Context())
	if err != nil {
		writeOpenAIError(w, http.StatusInternalServerError, err.Error(), "server_error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"object": "list",
		"data":   convs,
	})
}

func (h *conversationHandlers) get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w)
	if !ok {
		return
	}
	conv, msgs, err := s.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeOpenAIError(w, http.StatusNotFound, "conversation not found", "invalid_request_error")
			return
		}
		writeOpenAIError(w, http.StatusInternalServerError, err.Error(), "server_error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"conversation": conv,
		"messages":     msgs,
	})
}

func (h *conversationHandlers) delete(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w)
	if !ok {
		return
	}
	if err := s.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeOpenAIError(w, http.StatusNotFound, "conversation not found", "invalid_request_error")
			return
		}
		writeOpenAIError(w, http.StatusInternalServerError, err.Error(), "server_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
