package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	slerrors "github.com/matzehuels/slocmap/pkg/errors"
)

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			if r.Header.Get("X-Test") != "1" || !strings.HasPrefix(r.UserAgent(), "slocmap/") {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"name":"root"}`))
		case "/missing":
			http.NotFound(w, r)
		case "/busy":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
		case "/big":
			w.Write([]byte(strings.Repeat("x", 64)))
		}
	}))
	defer srv.Close()

	c := NewClient(map[string]string{"X-Test": "1"}, WithMaxBytes(32))
	ctx := context.Background()

	tests := []struct {
		name      string
		path      string
		wantBody  string
		wantCode  slerrors.Code
		retryable bool
	}{
		{name: "ok", path: "/ok", wantBody: `{"name":"root"}`},
		{name: "not found", path: "/missing", wantCode: slerrors.ErrCodeNotFound},
		{name: "server error", path: "/busy", wantCode: slerrors.ErrCodeNetwork, retryable: true},
		{name: "rate limited", path: "/limited", wantCode: slerrors.ErrCodeNetwork, retryable: true},
		{name: "forbidden", path: "/forbidden", wantCode: slerrors.ErrCodeNetwork},
		{name: "too large", path: "/big", wantCode: slerrors.ErrCodeInvalidSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := c.Fetch(ctx, srv.URL+tt.path)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Fetch() error = %v", err)
				}
				if string(body) != tt.wantBody {
					t.Errorf("body = %q, want %q", body, tt.wantBody)
				}
				return
			}
			if got := slerrors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q (err %v)", got, tt.wantCode, err)
			}
			if got := errors.As(err, new(*RetryableError)); got != tt.retryable {
				t.Errorf("retryable = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestClientFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(nil, WithHTTPClient(&http.Client{Timeout: time.Second}))
	_, err := c.Fetch(context.Background(), url)
	if !errors.As(err, new(*RetryableError)) {
		t.Errorf("connection failure should be retryable, got %v", err)
	}
	if slerrors.GetCode(err) != slerrors.ErrCodeNetwork {
		t.Errorf("code = %q, want NETWORK_ERROR", slerrors.GetCode(err))
	}
}
