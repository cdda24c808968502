package sanity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := Config{
		ProjectID:  "abc123",
		Dataset:    "production",
		APIVersion: "2021-10-21",
		APIHost:    srv.URL,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"complete", Config{ProjectID: "p", Dataset: "d"}, false},
		{"missing project", Config{Dataset: "d"}, true},
		{"missing dataset", Config{ProjectID: "p"}, true},
		{"blank project", Config{ProjectID: "  ", Dataset: "d"}, true},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestConfigBaseURL(t *testing.T) {
	cfg := Config{ProjectID: "abc123", Dataset: "production"}
	if got := cfg.baseURL(false); got != "https://abc123.api.sanity.io" {
		t.Errorf("baseURL(false) = %q", got)
	}
	if got := cfg.baseURL(true); got != "https://abc123.apicdn.sanity.io" {
		t.Errorf("baseURL(true) = %q", got)
	}
	if got := cfg.version(); got != "v"+DefaultAPIVersion {
		t.Errorf("version() = %q", got)
	}
	cfg.APIVersion = "v2023-05-03"
	if got := cfg.version(); got != "v2023-05-03" {
		t.Errorf("version() = %q", got)
	}
}

func TestFetchSendsQueryAndParams(t *testing.T) {
	const query = `*[_type == "post" && slug.current == $slug][0]{title}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/v2021-10-21/data/query/production" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != query {
			t.Errorf("query = %q, want %q", got, query)
		}
		if got := r.URL.Query().Get("$slug"); got != `"hello-world"` {
			t.Errorf("$slug = %q, want JSON string", got)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("queries must not carry the write token")
		}
		w.Write([]byte(`{"ms":3,"result":{"title":"Hello"}}`))
	}, func(cfg *Config) { cfg.Token = "secret" })

	var out struct {
		Title string `json:"title"`
	}
	if err := c.Fetch(context.Background(), query, map[string]any{"slug": "hello-world"}, &out); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if out.Title != "Hello" {
		t.Errorf("Title = %q, want Hello", out.Title)
	}
}

func TestFetchNullResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ms":1,"result":null}`))
	})
	var out map[string]any
	err := c.Fetch(context.Background(), `*[_id == "missing"][0]`, nil, &out)
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("err = %v, want ErrNoResult", err)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound should be true for ErrNoResult")
	}
}

func TestFetchEmptyListIsAResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ms":1,"result":[]}`))
	})
	var out []map[string]any
	if err := c.Fetch(context.Background(), `*[_type == "post"]`, nil, &out); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("len = %d, want 0", len(out))
	}
}

func TestFetchQueryError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"queryParseError","description":"unexpected token"}}`))
	})
	err := c.Fetch(context.Background(), `*[`, nil, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Type != "queryParseError" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if apiErr.Temporary() {
		t.Error("a parse error is not temporary")
	}
	if IsNotFound(err) {
		t.Error("a parse error is not a not-found")
	}
}

func TestFetchFlatErrorShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Service Unavailable","message":"try later","statusCode":503}`))
	})
	err := c.Fetch(context.Background(), `*`, nil, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.Type != "Service Unavailable" || apiErr.Description != "try later" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if !apiErr.Temporary() {
		t.Error("503 should be temporary")
	}
}

func TestFetchLongQueryUsesPost(t *testing.T) {
	long := `*[_type == "post" && title != "` + strings.Repeat("x", maxGetURLLength) + `"]`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body struct {
			Query  string         `json:"query"`
			Params map[string]any `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Query != long {
			t.Error("query body mismatch")
		}
		if body.Params["n"] != float64(1) {
			t.Errorf("params = %v", body.Params)
		}
		w.Write([]byte(`{"result":1}`))
	})
	var n int
	if err := c.Fetch(context.Background(), long, map[string]any{"n": 1}, &n); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}

func TestFetchHonorsContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":1}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Fetch(ctx, `1`, nil, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestMutateRequiresToken(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	_, err := c.Mutate(context.Background(), Mutation{Create: map[string]any{"_type": "comment"}})
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("err = %v, want ErrMissingToken", err)
	}
	if called {
		t.Error("no request should be sent without a token")
	}
}

func TestMutateCreate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2021-10-21/data/mutate/production" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(raw), `"create":{"_type":"comment"}`) {
			t.Errorf("body = %s", raw)
		}
		w.Write([]byte(`{"transactionId":"tx1","results":[{"id":"c1","operation":"create"}]}`))
	}, func(cfg *Config) {
		cfg.Token = "secret"
		cfg.UseCDN = true
	})
	res, err := c.Mutate(context.Background(), Mutation{Create: map[string]any{"_type": "comment"}})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if res.TransactionID != "tx1" || len(res.Results) != 1 || res.Results[0].ID != "c1" {
		t.Errorf("res = %+v", res)
	}
}
