package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wonny/pairlab/pkg/config"
	"github.com/wonny/pairlab/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:      "development",
		LogLevel: "error",
		Fetch: config.FetchConfig{
			Timeout:    5 * time.Second,
			MaxRetries: 3,
		},
	}
}

func TestNew(t *testing.T) {
	client := New(testConfig(), logger.NewNop())

	if client.httpClient.Timeout != 5*time.Second {
		t.Errorf("Expected timeout=5s, got %v", client.httpClient.Timeout)
	}
	if client.retryConfig.MaxRetries != 3 || !client.retryConfig.Enabled {
		t.Errorf("Expected 3 retries enabled, got %+v", client.retryConfig)
	}
	if client.limiter != nil {
		t.Error("Expected no limiter without FETCH_RATE_PER_SEC")
	}
}

func TestRetryOptions(t *testing.T) {
	client := New(testConfig(), logger.NewNop()).WithRetry(5, 2*time.Second)
	if client.retryConfig.MaxRetries != 5 || client.retryConfig.InitialDelay != 2*time.Second {
		t.Errorf("Unexpected retry config %+v", client.retryConfig)
	}

	client.DisableRetry()
	if client.retryConfig.Enabled {
		t.Error("Expected retry to be disabled")
	}
}

func TestGetBytesSendsUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("Expected default user agent, got %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	body, err := New(testConfig(), logger.NewNop()).GetBytes(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetBytes failed: %v", err)
	}
	if string(body) != `{"status":"ok"}` {
		t.Errorf("Unexpected body %q", body)
	}
}

func TestGetBytesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(testConfig(), logger.NewNop()).GetBytes(context.Background(), server.URL)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", statusErr.StatusCode)
	}
}

func TestRetryOn5xx(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := New(testConfig(), logger.NewNop()).WithRetry(3, 10*time.Millisecond)

	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Request failed after retries: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if n := atomic.LoadInt32(&attempts); n != 3 {
		t.Errorf("Expected 3 attempts, got %d", n)
	}
}

func TestRateLimitPacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(testConfig(), logger.NewNop()).WithRateLimit(20)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.GetBytes(context.Background(), server.URL); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}

	// burst 1 at 20/s: the 2nd and 3rd requests wait ~50ms each
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("Expected paced requests, finished in %v", elapsed)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{400, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.statusCode), func(t *testing.T) {
			if got := IsRetryableError(tt.statusCode); got != tt.want {
				t.Errorf("IsRetryableError(%d) = %v, want %v", tt.statusCode, got, tt.want)
			}
		})
	}
}
