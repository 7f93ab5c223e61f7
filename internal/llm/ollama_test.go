package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["model"] != "test-model" {
			t.Errorf("model = %v", req["model"])
		}
		if req["stream"] != false {
			t.Errorf("stream = %v", req["stream"])
		}
		opts, _ := req["options"].(map[string]any)
		if opts["temperature"] != 0.1 {
			t.Errorf("temperature = %v", opts["temperature"])
		}
		if opts["num_predict"] != float64(512) {
			t.Errorf("num_predict = %v", opts["num_predict"])
		}

		_ = json.NewEncoder(w).Encode(map[string]string{"response": "SELECT 1"})
	}))
	defer srv.Close()

	c := NewOllama(srv.URL, "test-model", time.Second)
	got, err := c.Generate(context.Background(), "make sql")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "SELECT 1" {
		t.Errorf("response = %q", got)
	}
}

func TestGenerateErrorResponses(t *testing.T) {
	t.Parallel()

	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewOllama(srv.URL, "test-model", time.Second)
		_, err := c.Generate(context.Background(), "p")
		if err == nil || !strings.Contains(err.Error(), "status 404") {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("gateway error field", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "out of memory"})
		}))
		defer srv.Close()

		c := NewOllama(srv.URL, "test-model", time.Second)
		_, err := c.Generate(context.Background(), "p")
		if err == nil || !strings.Contains(err.Error(), "out of memory") {
			t.Errorf("err = %v", err)
		}
	})
}

func TestGenerateUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing is listening anymore

	c := NewOllama(srv.URL, "test-model", time.Second)
	_, err := c.Generate(context.Background(), "p")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestGenerateTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewOllama(srv.URL, "test-model", 50*time.Millisecond)
	_, err := c.Generate(context.Background(), "p")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}
