package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) (*httptest.Server, *KeyStore, *APIKey) {
	t.Helper()
	store := NewKeyStore()
	root, err := store.Create("root", []string{ScopeAdmin}, nil)
	if err != nil {
		t.Fatalf("create root key: %v", err)
	}

	h := &Handlers{Keys: store}
	mux := http.NewServeMux()
	mux.Handle("/admin/", http.StripPrefix("/admin", AuthMiddleware(store)(h.Routes())))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store, root
}

func doJSON(t *testing.T, method, url, key, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

func TestCreateListRevokeKeyFlow(t *testing.T) {
	srv, _, root := newTestServer(t)

	resp, created := doJSON(t, http.MethodPost, srv.URL+"/admin/keys", root.Key, `{"name":"ci-bot"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	newKey, _ := created["key"].(string)
	if !strings.HasPrefix(newKey, "gawin-") {
		t.Fatalf("created key = %q, full value should be returned once", newKey)
	}
	id := created["id"].(string)

	resp, listed := doJSON(t, http.MethodGet, srv.URL+"/admin/keys", root.Key, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	keys := listed["keys"].([]interface{})
	if len(keys) != 2 {
		t.Fatalf("listed %d keys, want 2", len(keys))
	}
	for _, raw := range keys {
		k := raw.(map[string]interface{})
		if v := k["key"].(string); !strings.HasSuffix(v, "...") {
			t.Errorf("listed key %q is not masked", v)
		}
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/admin/keys/"+id+"/revoke", root.Key, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("revoke status = %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/admin/keys", newKey, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("revoked key still authorized, status = %d", resp.StatusCode)
	}
}

func TestCreateKeyValidation(t *testing.T) {
	srv, _, root := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/admin/keys", root.Key, `{"name":""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty name status = %d, want 400", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/admin/keys", root.Key, `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad body status = %d, want 400", resp.StatusCode)
	}
}

func TestGetKeyNotFound(t *testing.T) {
	srv, _, root := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/admin/keys/missing", root.Key, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if _, ok := body["error"]; !ok {
		t.Fatal("error envelope missing")
	}
}

func TestDeleteKey(t *testing.T) {
	srv, store, root := newTestServer(t)
	k, _ := store.Create("victim", nil, nil)

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/admin/keys/"+k.ID, root.Key, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if _, ok := store.Get(k.ID); ok {
		t.Fatal("key still present after delete")
	}
}
