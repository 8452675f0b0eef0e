package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/slocmap/pkg/cache"
	slerrors "github.com/matzehuels/slocmap/pkg/errors"
)

const sampleJSON = `{
  "name": "repo",
  "children": [
    {"name": "main.go", "language": "Go", "code": 40, "blank": 5, "comment": 3},
    {"name": "pkg", "children": [
      {"name": "util.go", "language": "Go", "code": 60, "blank": 8, "comment": 12}
    ]}
  ]
}`

const sampleYAML = `name: repo
children:
  - name: main.go
    language: Go
    code: 40
    blank: 5
    comment: 3
  - name: pkg
    children:
      - name: util.go
        language: Go
        code: 60
        blank: 8
        comment: 12
`

const sampleGocloc = `{
  "files": [
    {"code": 40, "comment": 3, "blank": 5, "name": "./main.go", "Lang": "Go"},
    {"code": 60, "comment": 12, "blank": 8, "name": "./pkg/util.go", "Lang": "Go"}
  ],
  "total": {"files": 2, "code": 100, "comment": 15, "blank": 13}
}`

func fastLoader(opts ...Option) *Loader {
	return NewLoader(append([]Option{WithRetry(3, time.Millisecond)}, opts...)...)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		format  Format
	}{
		{"json", "tree.json", sampleJSON, FormatAuto},
		{"yaml", "tree.yaml", sampleYAML, FormatAuto},
		{"yml", "tree.yml", sampleYAML, FormatAuto},
		{"explicit yaml", "tree.txt", sampleYAML, FormatYAML},
		{"gocloc", "report.json", sampleGocloc, FormatGocloc},
	}

	var hashes []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, tt.file, tt.content)
			res, err := fastLoader().Load(context.Background(), Spec{Location: p, Format: tt.format, RootName: "repo"})
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if got := res.Tree.Value(); got != 100 {
				t.Errorf("Value() = %d, want 100", got)
			}
			if res.Cached {
				t.Error("file loads should not be cached")
			}
			hashes = append(hashes, res.Hash)
		})
	}
	// JSON and YAML renditions of the same tree hash identically.
	if len(hashes) >= 3 && (hashes[0] != hashes[1] || hashes[1] != hashes[2]) {
		t.Errorf("hashes differ across formats: %v", hashes[:3])
	}
}

func TestLoadStdin(t *testing.T) {
	res, err := fastLoader().Load(context.Background(), Spec{Location: Stdin, Stdin: strings.NewReader(sampleJSON)})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if res.Tree.Name != "repo" {
		t.Errorf("root = %q, want repo", res.Tree.Name)
	}

	_, err = fastLoader().Load(context.Background(), Spec{Location: Stdin})
	if !slerrors.Is(err, slerrors.ErrCodeInvalidSource) {
		t.Errorf("Load() without stdin: error = %v, want %s", err, slerrors.ErrCodeInvalidSource)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		location string
		content  string
		want     slerrors.Code
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.json"), "", slerrors.ErrCodeFileNotFound},
		{"malformed json", "", `{"name": `, slerrors.ErrCodeInvalidTree},
		{"negative counts", "", `{"name": "x", "code": -1}`, slerrors.ErrCodeInvalidTree},
		{"control characters", "bad\x00path", "", slerrors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := tt.location
			if tt.content != "" {
				loc = writeFile(t, "tree.json", tt.content)
			}
			_, err := fastLoader().Load(context.Background(), Spec{Location: loc})
			if !slerrors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestLoadURLCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	lru, err := cache.NewLRUCache(8)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	spec := Spec{Location: srv.URL + "/sourcetree.json"}

	first, err := fastLoader(WithCache(lru, nil)).Load(ctx, spec)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if first.Cached {
		t.Error("first load reported cached")
	}

	second, err := fastLoader(WithCache(lru, nil)).Load(ctx, spec)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !second.Cached {
		t.Error("second load should come from cache")
	}
	if first.Hash != second.Hash {
		t.Errorf("hash changed between loads: %s vs %s", first.Hash, second.Hash)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}

	spec.Refresh = true
	if _, err := fastLoader(WithCache(lru, nil)).Load(ctx, spec); err != nil {
		t.Fatalf("Load() with refresh error: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits after refresh = %d, want 2", got)
	}
}

func TestLoadURLYAMLByExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleYAML))
	}))
	defer srv.Close()

	res, err := fastLoader().Load(context.Background(), Spec{Location: srv.URL + "/tree.yaml?ref=main"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if res.Tree.Value() != 100 {
		t.Errorf("Value() = %d, want 100", res.Tree.Value())
	}
}

func TestLoadURLRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	if _, err := fastLoader().Load(context.Background(), Spec{Location: srv.URL}); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("server hits = %d, want 3", got)
	}
}

func TestLoadURLCallerCancel(t *testing.T) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case arrived <- struct{}{}:
		default:
		}
		<-release
		_, _ = w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()
	released := false
	defer func() {
		if !released {
			close(release)
		}
	}()

	l := fastLoader()
	spec := Spec{Location: srv.URL + "/slow.json"}

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := l.Load(ctx, spec)
		firstErr <- err
	}()
	<-arrived

	type result struct {
		res *Result
		err error
	}
	second := make(chan result, 1)
	go func() {
		res, err := l.Load(context.Background(), spec)
		second <- result{res, err}
	}()
	// Let the second caller join the in-flight fetch.
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		if err == nil {
			t.Error("cancelled caller should fail")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	released = true
	select {
	case r := <-second:
		if r.err != nil {
			t.Fatalf("second caller error: %v", r.err)
		}
		if r.res.Tree.Value() != 100 {
			t.Errorf("Value() = %d, want 100", r.res.Tree.Value())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second caller did not return")
	}
}

func TestLoadURLErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   slerrors.Code
	}{
		{"not found", http.StatusNotFound, "", slerrors.ErrCodeNotFound},
		{"server error", http.StatusInternalServerError, "", slerrors.ErrCodeNetwork},
		{"malformed body", http.StatusOK, "<html>", slerrors.ErrCodeInvalidTree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			lru, _ := cache.NewLRUCache(4)
			_, err := fastLoader(WithCache(lru, nil)).Load(context.Background(), Spec{Location: srv.URL})
			if !slerrors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want code %s", err, tt.want)
			}
			if lru.Len() != 0 {
				t.Error("failed loads must not be cached")
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"", "json", "YAML", "gocloc"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) error: %v", s, err)
		}
	}
	if _, err := ParseFormat("xml"); !slerrors.Is(err, slerrors.ErrCodeInvalidFormat) {
		t.Errorf("ParseFormat(xml) error = %v, want %s", err, slerrors.ErrCodeInvalidFormat)
	}
}
