package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gawin "github.com/gawin-ai/gateway"
	"github.com/gawin-ai/gateway/internal/admin"
	"github.com/gawin-ai/gateway/internal/responder"
	"github.com/gawin-ai/gateway/internal/sessions"
	"github.com/gawin-ai/gateway/providers"
)

// stubAdapter answers every completion with a fixed string, or fails.
type stubAdapter struct {
	name string
	fail error
}

func (s *stubAdapter) Name() string { return s.name }
func (s *stubAdapter) SupportedModels() []string { return []string{"stub-model"} }
func (s *stubAdapter) SupportsModel(string) bool { return true }

func (s *stubAdapter) Models() []providers.ModelInfo {
	return providers.ModelsFromList(s.name, []string{"stub-model"})
}

func (s *stubAdapter) Complete(_ context.Context, req providers.Request) (*providers.Response, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	return &providers.Response{
		ID:       "resp-1",
		Model:    req.Model,
		Provider: s.name,
		Choices: []providers.Choice{{
			Message:      providers.Message{Role: providers.RoleAssistant, Content: "stub answer"},
			FinishReason: "stop",
		}},
	}, nil
}

func testServer(t *testing.T, cfg gawin.Config, adapters ...providers.Adapter) *httptest.Server {
	t.Helper()
	gw, err := gawin.New(cfg)
	if err != nil {
		t.Fatalf("gawin.New: %v", err)
	}
	for _, a := range adapters {
		gw.RegisterAdapter(a)
	}
	pool := sessions.NewPool(30 * time.Minute)
	srv := httptest.NewServer(newRouter(gw, pool, admin.NewKeyStore(), nil))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, gawin.Config{Providers: []string{"stub", "ghost"}}, &stubAdapter{name: "stub"})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
		Chain  []struct {
			Name       string `json:"name"`
			Registered bool   `json:"registered"`
		} `json:"chain"`
		DegradeMode string `json:"degrade_mode"`
	}
	decodeBody(t, resp, &body)
	if body.Status != "ok" {
		t.Errorf("status = %q", body.Status)
	}
	if body.DegradeMode != "graceful" {
		t.Errorf("degrade_mode = %q, want graceful default", body.DegradeMode)
	}
	if len(body.Chain) != 2 || !body.Chain[0].Registered || body.Chain[1].Registered {
		t.Errorf("chain = %+v, want stub registered and ghost not", body.Chain)
	}
}

func TestModelsEndpoint(t *testing.T) {
	srv := testServer(t, gawin.Config{Providers: []string{"stub"}}, &stubAdapter{name: "stub"})

	resp, err := http.Get(srv.URL + "/v1/models")
	if err != nil {
		t.Fatalf("GET /v1/models: %v", err)
	}
	var body struct {
		Object string                `json:"object"`
		Data   []providers.ModelInfo `json:"data"`
	}
	decodeBody(t, resp, &body)
	if body.Object != "list" || len(body.Data) != 1 || body.Data[0].ID != "stub-model" {
		t.Errorf("models = %+v", body)
	}
}

func TestChatCompletion(t *testing.T) {
	srv := testServer(t, gawin.Config{Providers: []string{"stub"}}, &stubAdapter{name: "stub"})

	resp := postJSON(t, srv.URL+"/v1/chat/completions",
		`{"model":"stub-model","messages":[{"role":"user","content":"hi"}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body providers.Response
	decodeBody(t, resp, &body)
	if body.Content() != "stub answer" {
		t.Errorf("content = %q", body.Content())
	}
	if body.Provider != "stub" {
		t.Errorf("provider = %q", body.Provider)
	}
}

func TestChatCompletionMalformedJSON(t *testing.T) {
	srv := testServer(t, gawin.Config{Providers: []string{"stub"}}, &stubAdapter{name: "stub"})

	resp := postJSON(t, srv.URL+"/v1/chat/completions", `{not json`)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChatCompletionEmptyMessages(t *testing.T) {
	srv := testServer(t, gawin.Config{Providers: []string{"stub"}}, &stubAdapter{name: "stub"})

	resp := postJSON(t, srv.URL+"/v1/chat/completions", `{"model":"stub-model","messages":[]}`)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChatCompletionBlockedContent(t *testing.T) {
	srv := testServer(t, gawin.Config{
		Providers:     []string{"stub"},
		ContentPolicy: gawin.ContentPolicyConfig{BlockedTerms: []string{"verboten"}},
	}, &stubAdapter{name: "stub"})

	resp := postJSON(t, srv.URL+"/v1/chat/completions",
		`{"model":"stub-model","messages":[{"role":"user","content":"something verboten"}]}`)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChatCompletionDegradedStillOK(t *testing.T) {
	srv := testServer(t, gawin.Config{Providers: []string{"stub"}},
		&stubAdapter{name: "stub", fail: providers.StatusError("stub", 500, "down")})

	resp := postJSON(t, srv.URL+"/v1/chat/completions",
		`{"model":"stub-model","messages":[{"role":"user","content":"hello"}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 under graceful degrade", resp.StatusCode)
	}
	var body providers.Response
	decodeBody(t, resp, &body)
	if body.Model != responder.ModelName {
		t.Errorf("model = %q, want %q", body.Model, responder.ModelName)
	}
	if len(body.FallbackReasons) == 0 {
		t.Error("degraded response carries no fallback reasons")
	}
}

func TestChatCompletionUnavailableMode(t *testing.T) {
	srv := testServer(t, gawin.Config{
		Providers:   []string{"stub"},
		DegradeMode: gawin.DegradeUnavailable,
	}, &stubAdapter{name: "stub", fail: providers.StatusError("stub", 500, "down")})

	resp := postJSON(t, srv.URL+"/v1/chat/completions",
		`{"model":"stub-model","messages":[{"role":"user","content":"hello"}]}`)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestOCRWithoutVisionProvider(t *testing.T) {
	srv := testServer(t, gawin.Config{Providers: []string{"stub"}}, &stubAdapter{name: "stub"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("files", "scan.png")
	_, _ = fw.Write([]byte{0x89, 'P', 'N', 'G'})
	_ = mw.Close()

	resp, err := http.Post(srv.URL+"/v1/ocr", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST /v1/ocr: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 with no vision adapter", resp.StatusCode)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := testServer(t, gawin.Config{Providers: []string{"stub"}}, &stubAdapter{name: "stub"})

	resp := postJSON(t, srv.URL+"/v1/sessions", `{"metadata":{"browser":"firefox"}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created sessions.Session
	decodeBody(t, resp, &created)
	if created.ID == "" {
		t.Fatal("created session has empty id")
	}

	getResp, err := http.Get(srv.URL + "/v1/sessions/" + created.ID)
	if err != nil {
		t.Fatalf("GET session: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Errorf("get status = %d, want 200", getResp.StatusCode)
	}
	_ = getResp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/sessions/"+created.ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE session: %v", err)
	}
	if delResp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", delResp.StatusCode)
	}
	_ = delResp.Body.Close()

	gone, err := http.Get(srv.URL + "/v1/sessions/" + created.ID)
	if err != nil {
		t.Fatalf("GET deleted session: %v", err)
	}
	if gone.StatusCode != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", gone.StatusCode)
	}
	_ = gone.Body.Close()
}

func TestConversationsDisabled(t *testing.T) {
	srv := testServer(t, gawin.Config{Providers: []string{"stub"}}, &stubAdapter{name: "stub"})

	resp, err := http.Get(srv.URL + "/v1/conversations")
	if err != nil {
		t.Fatalf("GET /v1/conversations: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when history is disabled", resp.StatusCode)
	}
}

func TestAdminRequiresAuth(t *testing.T) {
	srv := testServer(t, gawin.Config{Providers: []string{"stub"}}, &stubAdapter{name: "stub"})

	resp, err := http.Get(srv.URL + "/admin/keys")
	if err != nil {
		t.Fatalf("GET /admin/keys: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without bearer token", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t, gawin.Config{Providers: []string{"stub"}}, &stubAdapter{name: "stub"})

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/chat/completions", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q, want *", got)
	}
}
