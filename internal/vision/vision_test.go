package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestIsImageURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example.com/logo.png", true},
		{"https://bucket.s3.amazonaws.com/abc", true},
		{"http://images.example.com/x", true},
		{"https://example.com/page", false},
		{"ftp://example.com/logo.png", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsImageURL(tt.url); got != tt.want {
			t.Errorf("IsImageURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestCleanVendorName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Marination", "Marination"},
		{"Paseo Food Truck", "Paseo"},
		{"  Tacos LLC ", "Tacos"},
		{"Georgia's Greek Kitchen", "Georgia's Greek"},
	}

	for _, tt := range tests {
		if got := CleanVendorName(tt.input); got != tt.want {
			t.Errorf("CleanVendorName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCache_CachesSuccessOnly(t *testing.T) {
	var calls int32
	fail := true
	inner := AnalyzerFunc(func(ctx context.Context, url string) (string, error) {
		atomic.AddInt32(&calls, 1)
		if fail {
			return "", errors.New("temporary")
		}
		return "Marination", nil
	})
	cache := NewCache(inner)
	ctx := context.Background()
	url := "https://cdn.example.com/logo.png"

	if _, err := cache.Analyze(ctx, url); err == nil {
		t.Fatal("first Analyze() should fail")
	}
	if cache.Len() != 0 {
		t.Errorf("failure was cached")
	}

	fail = false
	for i := 0; i < 3; i++ {
		name, err := cache.Analyze(ctx, url)
		if err != nil || name != "Marination" {
			t.Fatalf("Analyze() = %q, %v", name, err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("inner analyzer called %d times, want 2", got)
	}
}

func TestLookup(t *testing.T) {
	ok := AnalyzerFunc(func(ctx context.Context, url string) (string, error) { return " Paseo ", nil })
	broken := AnalyzerFunc(func(ctx context.Context, url string) (string, error) { return "", errors.New("down") })
	img := "https://cdn.example.com/logo.png"

	if name, found := Lookup(context.Background(), ok, img, nil); !found || name != "Paseo" {
		t.Errorf("Lookup() = %q, %v, want Paseo, true", name, found)
	}
	if _, found := Lookup(context.Background(), broken, img, nil); found {
		t.Error("Lookup() with failing analyzer should report not found")
	}
	if _, found := Lookup(context.Background(), nil, img, nil); found {
		t.Error("Lookup() with nil analyzer should report not found")
	}
	if _, found := Lookup(context.Background(), ok, "https://example.com/page", nil); found {
		t.Error("Lookup() with non-image URL should report not found")
	}
}

func claudeServer(t *testing.T, status int, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("path = %q, want the messages endpoint", r.URL.Path)
		}
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content []struct {
					Type   string `json:"type"`
					Source struct {
						Type string `json:"type"`
						URL  string `json:"url"`
					} `json:"source"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 ||
			req.Messages[0].Content[0].Type != "image" || req.Messages[0].Content[0].Source.Type != "url" {
			t.Errorf("request missing image url block: %+v", req)
		}
		writeMessage(w, status, reply)
	}))
}

func writeMessage(w http.ResponseWriter, status int, reply string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status != http.StatusOK {
		fmt.Fprintf(w, `{"type":"error","error":{"type":"api_error","message":"status %d"}}`, status)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"model":       DefaultModel,
		"content":     []map[string]string{{"type": "text", "text": reply}},
		"stop_reason": "end_turn",
		"usage":       map[string]int{"input_tokens": 1, "output_tokens": 1},
	})
}

func TestClaude_Analyze(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		reply   string
		want    string
		wantErr error
	}{
		{"name", http.StatusOK, "Marination Food Truck", "Marination", nil},
		{"unknown", http.StatusOK, "UNKNOWN", "", ErrNoName},
		{"blank", http.StatusOK, "  ", "", ErrNoName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := claudeServer(t, tt.status, tt.reply)
			defer server.Close()

			c, err := NewClaude(ClaudeConfig{APIKey: "test-key", BaseURL: server.URL})
			if err != nil {
				t.Fatalf("NewClaude() error = %v", err)
			}
			got, err := c.Analyze(context.Background(), "https://cdn.example.com/logo.png")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Analyze() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Analyze() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClaude_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeMessage(w, http.StatusBadRequest, "")
	}))
	defer server.Close()

	c, _ := NewClaude(ClaudeConfig{APIKey: "test-key", BaseURL: server.URL, MaxRetries: 2, RetryInterval: time.Millisecond})
	_, err := c.Analyze(context.Background(), "https://cdn.example.com/logo.png")
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("Analyze() error = %v, want a 400 API error", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server called %d times, want 1", got)
	}
}

func TestClaude_ServerErrorRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			writeMessage(w, http.StatusInternalServerError, "")
			return
		}
		writeMessage(w, http.StatusOK, "Georgia's Greek")
	}))
	defer server.Close()

	c, _ := NewClaude(ClaudeConfig{APIKey: "test-key", BaseURL: server.URL, MaxRetries: 2, RetryInterval: time.Millisecond})
	got, err := c.Analyze(context.Background(), "https://cdn.example.com/logo.png")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got != "Georgia's Greek" {
		t.Errorf("Analyze() = %q, want %q", got, "Georgia's Greek")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("server called %d times, want 2", got)
	}
}

func TestClaude_UsesGivenHTTPClient(t *testing.T) {
	server := claudeServer(t, http.StatusOK, "Marination")
	defer server.Close()

	var used int32
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&used, 1)
		return http.DefaultTransport.RoundTrip(r)
	})}

	c, _ := NewClaude(ClaudeConfig{APIKey: "test-key", BaseURL: server.URL, HTTPClient: hc})
	if _, err := c.Analyze(context.Background(), "https://cdn.example.com/logo.png"); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if atomic.LoadInt32(&used) != 1 {
		t.Errorf("requests through given client = %d, want 1", used)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestNewClaude_RequiresKey(t *testing.T) {
	if _, err := NewClaude(ClaudeConfig{}); err == nil {
		t.Error("NewClaude() without key should fail")
	}
}
