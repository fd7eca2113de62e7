package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	gawin "github.com/gawin-ai/gateway"
	"github.com/gawin-ai/gateway/internal/sessions"
	"github.com/gawin-ai/gateway/internal/validate"
	"github.com/gawin-ai/gateway/internal/version"
	"github.com/gawin-ai/gateway/providers"
)

// chatHandler serves POST /v1/chat/completions, streaming and not.
func chatHandler(gw *gawin.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req providers.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeOpenAIError(w, http.StatusBadRequest, err.Error(), "invalid_request_error")
			return
		}

		if req.Stream {
			ch, err := gw.RouteStream(r.Context(), req)
			if err != nil {
				writeRouteError(w, err)
				return
			}
			writeSSE(w, ch)
			return
		}

		resp, err := gw.Route(r.Context(), req)
		if err != nil {
			writeRouteError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// writeRouteError maps gateway errors onto HTTP statuses: rejected input is
// the caller's fault (400), exhausted providers under the unavailable policy
// are 503, everything else is 500.
func writeRouteError(w http.ResponseWriter, err error) {
	var malformed *validate.MalformedRequestError
	var policyErr *validate.ContentPolicyError
	var unavailable *gawin.UnavailableError
	switch {
	case errors.As(err, &malformed), errors.As(err, &policyErr):
		writeOpenAIError(w, http.StatusBadRequest, err.Error(), "invalid_request_error")
	case errors.As(err, &unavailable):
		writeOpenAIError(w, http.StatusServiceUnavailable, err.Error(), "server_error")
	default:
		writeOpenAIError(w, http.StatusInternalServerError, err.Error(), "server_error")
	}
}

// modelsHandler serves GET /v1/models in the OpenAI list format.
func modelsHandler(gw *gawin.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data":   gw.AllModels(),
		})
	}
}

// healthHandler reports gateway status: chain order with per-adapter
// registration state, degrade policy, and session count.
func healthHandler(gw *gawin.Gateway, pool *sessions.Pool) http.HandlerFunc {
	type providerStatus struct {
		Name       string `json:"name"`
		Registered bool   `json:"registered"`
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		cfg := gw.GetConfig()
		chain := make([]providerStatus, 0, len(cfg.Providers))
		for _, name := range cfg.Providers {
			_, ok := gw.Get(name)
			chain = append(chain, providerStatus{Name: name, Registered: ok})
		}
		mode := cfg.DegradeMode
		if mode == "" {
			mode = gawin.DegradeGraceful
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":          "ok",
			"version":         version.Short(),
			"chain":           chain,
			"degrade_mode":    mode,
			"active_sessions": pool.Len(),
			"time":            time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// writeOpenAIError writes an OpenAI-compatible JSON error response.
func writeOpenAIError(w http.ResponseWriter, status int, message, errType string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    errType,
		},
	})
}

// writeSSE streams SSE chunks from ch to the response writer.
func writeSSE(w http.ResponseWriter, ch <-chan providers.StreamChunk) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, _ := w.(http.Flusher)
	now := time.Now().Unix()
	for chunk := range ch {
		if chunk.Error != nil {
			errData := fmt.Sprintf(`{"error":{"message":"%s","type":"stream_error"}}`, chunk.Error.Error())
			_, _ = fmt.Fprintf(w, "data: %s\n\n", errData)
			if flusher != nil {
				flusher.Flush()
			}
			return
		}
		if chunk.Object == "" {
			chunk.Object = "chat.completion.chunk"
		}
		if chunk.Created == 0 {
			chunk.Created = now
		}
		data, _ := json.Marshal(chunk)
		_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
		if flusher != nil {
			flusher.Flush()
		}
	}
	_, _ = fmt.Fprintf(w, "data: [DONE]\n\n")
	if flusher != nil {
		flusher.Flush()
	}
}
