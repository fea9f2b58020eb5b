package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/finsights/internal/adapters/config"
	"github.com/selivandex/finsights/pkg/logger"
)

func setupTest(t *testing.T) {
	t.Helper()
	require.NoError(t, logger.Init("error", ""))
}

func testClient(baseURL string, maxRetries int) *Client {
	return NewClient(&config.AIConfig{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "sonar-pro",
		Timeout:     5 * time.Second,
		MaxRetries:  maxRetries,
		Temperature: 0.2,
	})
}

func completionBody(content string) string {
	payload := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func TestCompleteReturnsContent(t *testing.T) {
	setupTest(t)

	var gotAuth string
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			gotModel = req.Model
		}
		fmt.Fprint(w, completionBody("the summary"))
	}))
	defer srv.Close()

	content, err := testClient(srv.URL, 2).Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "the summary", content)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "sonar-pro", gotModel)
}

func TestRateLimitIsTransientWithoutImmediateRetry(t *testing.T) {
	setupTest(t)

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.False(t, IsPermanent(err))
	assert.Equal(t, int64(1), calls.Load(), "rate limiting is retried on the next schedule, not immediately")

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusTooManyRequests, pe.Status)
}

func TestServerErrorIsTransient(t *testing.T) {
	setupTest(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2).Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestClientErrorIsPermanent(t *testing.T) {
	setupTest(t)

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"bad model"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2).Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, int64(1), calls.Load())
}

func TestMalformedResponseIsPermanent(t *testing.T) {
	setupTest(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json at all")
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2).Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestEmptyCompletionIsPermanent(t *testing.T) {
	setupTest(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2).Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestConnectionFailureIsTransient(t *testing.T) {
	setupTest(t)

	// Grab a port with nothing listening on it
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	_, err := testClient(deadURL, 1).Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, FailureTransient, classifyStatus(http.StatusTooManyRequests))
	assert.Equal(t, FailureTransient, classifyStatus(http.StatusInternalServerError))
	assert.Equal(t, FailureTransient, classifyStatus(http.StatusServiceUnavailable))
	assert.Equal(t, FailurePermanent, classifyStatus(http.StatusBadRequest))
	assert.Equal(t, FailurePermanent, classifyStatus(http.StatusUnauthorized))
	assert.Equal(t, FailurePermanent, classifyStatus(http.StatusNotFound))
}
