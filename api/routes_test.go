package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"widget-dashboard/api"
	"widget-dashboard/auth"
	"widget-dashboard/live"
	"widget-dashboard/preference"
	"widget-dashboard/userstore"
	"widget-dashboard/widget"
)

type testEnv struct {
	srv   *httptest.Server
	store userstore.Store
	hub   *live.Hub
}

func newTestServer(t *testing.T, opts ...api.Option) *testEnv {
	t.Helper()
	store, err := userstore.NewFileStore(filepath.Join(t.TempDir(), "users.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	tokens, err := auth.NewTokenService("test-secret", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	hub := live.NewHub()
	srv := httptest.NewServer(api.RegisterRoutes(store, tokens, hub, widget.Default(), opts...))
	t.Cleanup(func() {
		srv.Close()
		store.Close()
	})
	return &testEnv{srv: srv, store: store, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// signUp registers email and returns a bearer token for it.
func (e *testEnv) signUp(t *testing.T, email string) string {
	t.Helper()
	creds := `{"email":"` + email + `","password":"hunter22"}`
	if resp := e.do(t, http.MethodPost, "/api/register", "", creds); resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	resp := e.do(t, http.MethodPost, "/api/login", "", creds)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if body.AccessToken == "" || body.TokenType != "bearer" {
		t.Fatalf("unexpected login response %+v", body)
	}
	return body.AccessToken
}

func decodeComponents(t *testing.T, resp *http.Response) preference.Set {
	t.Helper()
	var doc preference.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	return doc.Components
}

func TestWidgetsCatalogue(t *testing.T) {
	env := newTestServer(t)

	resp := env.do(t, http.MethodGet, "/api/widgets", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Kind  string `json:"kind"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != widget.Default().Len() {
		t.Fatalf("expected %d widgets, got %d", widget.Default().Len(), len(got))
	}
	if got[0].ID != "1" || got[0].Kind != "card" {
		t.Fatalf("unexpected first widget %+v", got[0])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestServer(t)

	resp := env.do(t, http.MethodGet, "/metrics", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "dashboard_preference_loads_total") {
		t.Fatal("expected preference load counter in metrics output")
	}
}

func TestDefaultArrangement(t *testing.T) {
	set := api.DefaultArrangement(widget.Default())
	if len(set) != 12 {
		t.Fatalf("expected 12 components, got %d", len(set))
	}
	for _, d := range set {
		want := d.ID == "1" || d.ID == "11" || d.ID == "12"
		if d.IsVisible != want {
			t.Errorf("component %s: visible=%v, want %v", d.ID, d.IsVisible, want)
		}
	}
	if err := set.Validate(); err != nil {
		t.Fatalf("default arrangement invalid: %v", err)
	}
}
