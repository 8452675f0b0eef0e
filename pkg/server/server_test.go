package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	slerrors "github.com/matzehuels/slocmap/pkg/errors"
	"github.com/matzehuels/slocmap/pkg/pipeline"
	"github.com/matzehuels/slocmap/pkg/store"
)

const sampleTree = `{
  "name": "repo",
  "children": [
    {"name": "main.go", "language": "Go", "code": 40, "blank": 5, "comment": 3},
    {"name": "pkg", "children": [
      {"name": "util.go", "language": "Go", "code": 60, "blank": 8, "comment": 12}
    ]}
  ]
}`

const sampleYAML = `name: uploaded
children:
  - name: a.py
    language: Python
    code: 12
`

func newTestServer(t *testing.T, mutate func(*Config)) *httptest.Server {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tree.json")
	if err := os.WriteFile(p, []byte(sampleTree), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Config{Source: p}
	if mutate != nil {
		mutate(&cfg)
	}
	logger := log.New(io.Discard)
	s := New(cfg, pipeline.NewRunner(nil, nil, logger), store.NewMemoryStore(), logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return ts
}

func get(t *testing.T, url string, header ...string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func decodeError(t *testing.T, body string) errorBody {
	t.Helper()
	var e errorBody
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	return e
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	if resp, _ := get(t, ts.URL+"/treemap.svg"); resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /treemap.svg = %d", resp.StatusCode)
	}

	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /healthz = %d %q", resp.StatusCode, body)
	}
	var health struct {
		Status string           `json:"status"`
		Stats  map[string]int64 `json:"stats"`
	}
	if err := json.Unmarshal([]byte(body), &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" || health.Stats["renders"] < 1 || health.Stats["loads"] < 1 {
		t.Errorf("health = %+v", health)
	}
}

func TestArtifactRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/", "text/html", `<div id="chart">`},
		{"/treemap.svg?bars=true&panels=1", "image/svg+xml", "<svg"},
		{"/treemap.png?scale=1", "image/png", "PNG"},
		{"/api/layout?focus=pkg", "application/json", `"focus": "pkg"`},
		{"/api/tree", "application/json", `"util.go"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, body %q", resp.StatusCode, body)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			if !strings.Contains(body, tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
			if resp.Header.Get("ETag") == "" {
				t.Error("missing ETag")
			}
		})
	}
}

func TestETag(t *testing.T) {
	ts := newTestServer(t, nil)
	first, _ := get(t, ts.URL+"/treemap.svg")
	etag := first.Header.Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	resp, body := get(t, ts.URL+"/treemap.svg", "If-None-Match", etag)
	if resp.StatusCode != http.StatusNotModified || body != "" {
		t.Errorf("conditional GET = %d with %d bytes, want 304", resp.StatusCode, len(body))
	}
	resp, _ = get(t, ts.URL+"/treemap.svg", "If-None-Match", `"other"`)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("mismatched ETag status = %d, want 200", resp.StatusCode)
	}
}

func TestArtifactErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		path   string
		status int
		code   slerrors.Code
	}{
		{"/treemap.svg?width=wide", http.StatusBadRequest, slerrors.ErrCodeInvalidInput},
		{"/treemap.svg?focus=missing", http.StatusBadRequest, slerrors.ErrCodeInvalidFocus},
		{"/treemap.svg?focus=a/../b", http.StatusBadRequest, slerrors.ErrCodeInvalidFocus},
		{"/treemap.svg?source=http://example.com/t.json", http.StatusBadRequest, slerrors.ErrCodeInvalidSource},
		{"/treemap.png?width=NaN", http.StatusBadRequest, slerrors.ErrCodeInvalidInput},
		{"/treemap.png?height=Inf", http.StatusBadRequest, slerrors.ErrCodeInvalidInput},
		{"/treemap.png?scale=1e6", http.StatusBadRequest, slerrors.ErrCodeInvalidInput},
		{"/treemap.png?width=20000&height=20000", http.StatusBadRequest, slerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
			if e := decodeError(t, body); e.Error != tt.code {
				t.Errorf("error code = %s, want %s", e.Error, tt.code)
			}
		})
	}
}

func TestRemoteSource(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleYAML))
	}))
	defer upstream.Close()

	ts := newTestServer(t, func(c *Config) { c.AllowRemote = true })
	resp, body := get(t, ts.URL+"/api/tree?source="+upstream.URL+"/tree.yaml")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "a.py") {
		t.Errorf("GET remote tree = %d %q", resp.StatusCode, body)
	}

	resp, body = get(t, ts.URL+"/api/tree?source=/etc/passwd")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("local source status = %d, want 400 (%s)", resp.StatusCode, body)
	}
}

func TestSnapshots(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/api/snapshots", "application/yaml", strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	var snap store.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d", resp.StatusCode)
	}
	if snap.ID == "" || snap.Name != "uploaded" || resp.Header.Get("Location") != "/api/snapshots/"+snap.ID {
		t.Errorf("created snapshot = %+v, Location %q", snap, resp.Header.Get("Location"))
	}

	r, body := get(t, ts.URL+"/api/snapshots")
	if r.StatusCode != http.StatusOK || !strings.Contains(body, snap.ID) {
		t.Errorf("list = %d %q", r.StatusCode, body)
	}

	r, body = get(t, ts.URL+"/api/snapshots/"+snap.ID)
	if r.StatusCode != http.StatusOK || !strings.Contains(body, "a.py") {
		t.Errorf("get = %d %q", r.StatusCode, body)
	}

	r, body = get(t, ts.URL+"/api/snapshots/"+snap.ID+"/treemap.svg?static=true")
	if r.StatusCode != http.StatusOK || !strings.Contains(body, "<svg") {
		t.Errorf("snapshot svg = %d", r.StatusCode)
	}
	if strings.Contains(body, "<script") {
		t.Error("static SVG contains a script")
	}

	r, _ = get(t, ts.URL+"/api/snapshots/"+snap.ID+"/treemap.gif")
	if r.StatusCode != http.StatusBadRequest {
		t.Errorf("bad format status = %d, want 400", r.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/snapshots/"+snap.ID, nil)
	dr, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	dr.Body.Close()
	if dr.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", dr.StatusCode)
	}

	r, body = get(t, ts.URL+"/api/snapshots/"+snap.ID)
	if r.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", r.StatusCode)
	}
	if e := decodeError(t, body); e.Error != slerrors.ErrCodeSnapshotNotFound {
		t.Errorf("error code = %s", e.Error)
	}
}

func TestCreateSnapshotErrors(t *testing.T) {
	ts := newTestServer(t, func(c *Config) { c.MaxUpload = 64 })

	tests := []struct {
		name        string
		url         string
		contentType string
		body        string
	}{
		{"malformed", "/api/snapshots", "application/json", `{"name":`},
		{"too large", "/api/snapshots", "application/json", sampleTree},
		{"bad format", "/api/snapshots?format=csv", "text/plain", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+tt.url, tt.contentType, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestConfigEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("SLOCMAP_ALLOW_REMOTE", "true")
	t.Setenv("SLOCMAP_LRU_SIZE", "32")
	t.Setenv("SLOCMAP_RESPONSE_TTL", "30s")
	t.Setenv("SLOCMAP_SOURCE", "tree.yaml")

	var c Config
	c.ApplyEnv()
	c.SetDefaults()
	if c.Addr != ":9090" || !c.AllowRemote || c.LRUSize != 32 || c.ResponseTTL != 30*time.Second || c.Source != "tree.yaml" {
		t.Errorf("config = %+v", c)
	}
	if c.MaxUpload != DefaultMaxUpload || c.Timeout != DefaultTimeout {
		t.Errorf("defaults not applied: %+v", c)
	}
}
