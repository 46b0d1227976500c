package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, srv *httptest.Server, retryMax int) *Client {
	t.Helper()
	return NewClientWithBaseURL("test-key", 5*time.Second, retryMax, time.Millisecond, 5*time.Millisecond, srv.URL)
}

func chatRequest() GenerateRequest {
	return GenerateRequest{
		Model:    "openai/gpt-4o-mini",
		Messages: []Message{{Role: "user", Content: "hello"}},
	}
}

func TestGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("X-Request-Id", "req-123")
		w.Write([]byte(`{"id":"gen-1","choices":[{"message":{"role":"assistant","content":"{}"}}],"usage":{"total_tokens":10}}`))
	}))
	defer srv.Close()

	resp, err := testClient(t, srv, 3).Generate(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.Equal(t, "{}", resp.Text())
	assert.Equal(t, "req-123", resp.RequestID)
	assert.Equal(t, 10, resp.Usage.TotalTokens)
}

func TestGenerateRetriesRateLimitThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"slow down"}}`))
			return
		}
		w.Write([]byte(`{"id":"gen-2","choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	resp, err := testClient(t, srv, 3).Generate(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGenerateAuthErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv, 3).Generate(context.Background(), chatRequest())
	require.Error(t, err)
	assert.False(t, Retryable(err))
	var ae *AuthError
	assert.ErrorAs(t, err, &ae)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "auth failures must not be retried")
}

func TestGenerateServerErrorExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(t, srv, 3).Generate(context.Background(), chatRequest())
	require.Error(t, err)
	assert.True(t, Retryable(err))
	var se *ServerError
	assert.ErrorAs(t, err, &se)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGenerateModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"model not found","code":"model_not_found"}}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv, 3).Generate(context.Background(), chatRequest())
	require.Error(t, err)
	assert.False(t, Retryable(err))
	var mnf *ModelNotFoundError
	assert.ErrorAs(t, err, &mnf)
}

func TestGenerateMissingAPIKey(t *testing.T) {
	c := NewClient("", time.Second, 1, time.Millisecond, time.Millisecond)
	_, err := c.Generate(context.Background(), chatRequest())
	require.Error(t, err)
	assert.False(t, Retryable(err))
	assert.Contains(t, err.Error(), "API key")
}

func TestGenerateEmptyModel(t *testing.T) {
	c := NewClient("k", time.Second, 1, time.Millisecond, time.Millisecond)
	_, err := c.Generate(context.Background(), GenerateRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")
}

func TestGenerateHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testClient(t, srv, 3).Generate(ctx, chatRequest())
	require.Error(t, err)
}

func TestParseRetryAfterSeconds(t *testing.T) {
	s, err := parseRetryAfterSeconds("7")
	require.NoError(t, err)
	assert.Equal(t, 7, s)

	_, err = parseRetryAfterSeconds("soon")
	assert.Error(t, err)

	s, err = parseRetryAfterSeconds(time.Now().UTC().Add(-time.Minute).Format(http.TimeFormat))
	require.NoError(t, err)
	assert.Equal(t, 0, s, "dates in the past clamp to zero")
}

func TestStatusRetryable(t *testing.T) {
	assert.True(t, statusRetryable(429))
	assert.True(t, statusRetryable(500))
	assert.True(t, statusRetryable(503))
	assert.False(t, statusRetryable(400))
	assert.False(t, statusRetryable(401))
	assert.False(t, statusRetryable(404))
}
