package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewmcadoo/nexus/internal/errs"
	"github.com/andrewmcadoo/nexus/internal/secret"
)

func newTestRequest() ChatCompletionRequest {
	return ChatCompletionRequest{
		Model:    "gpt-test",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	}
}

func TestChatCompletionStream_SucceedsAndDecodesChunks(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		w.Write([]byte(`data: {"id":"x","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":"hi"}}]}` + "\n\n"))
		flusher.Flush()
		w.Write([]byte("data: [DONE]\n\n"))
		flusher.Flush()
	}))
	defer server.Close()

	client := New(secret.New("sk-test")).WithBaseURL(server.URL)
	stream, err := client.ChatCompletionStream(context.Background(), newTestRequest())
	require.NoError(t, err)

	var results []StreamResult
	for r := range stream {
		results = append(results, r)
	}

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "hi", results[0].Chunk.Choices[0].Delta.Content)
	assert.Equal(t, "Bearer sk-test", gotAuth)
}

func TestChatCompletionStream_RetriesOn500ThenSucceeds(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := New(secret.New("sk-test")).WithBaseURL(server.URL)
	stream, err := client.ChatCompletionStream(context.Background(), newTestRequest())
	require.NoError(t, err)
	for range stream {
	}

	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestChatCompletionStream_NonRetryable4xxFailsImmediately(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad request"))
	}))
	defer server.Close()

	client := New(secret.New("sk-test")).WithBaseURL(server.URL)
	_, err := client.ChatCompletionStream(context.Background(), newTestRequest())
	require.Error(t, err)
	var apiErr *errs.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestChatCompletionStream_RateLimitedAfterExhaustingRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(secret.New("sk-test")).WithBaseURL(server.URL).WithMaxRetries(1)
	_, err := client.ChatCompletionStream(context.Background(), newTestRequest())
	require.Error(t, err)
	var rateErr *errs.RateLimitedError
	require.ErrorAs(t, err, &rateErr)
	require.NotNil(t, rateErr.RetryAfter)
	assert.Equal(t, 42, *rateErr.RetryAfter)
}

func TestChatCompletionStream_StreamInterruptedOnTruncatedEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`data: {"id":"x"`))
	}))
	defer server.Close()

	client := New(secret.New("sk-test")).WithBaseURL(server.URL)
	stream, err := client.ChatCompletionStream(context.Background(), newTestRequest())
	require.NoError(t, err)

	var last StreamResult
	for r := range stream {
		last = r
	}
	require.Error(t, last.Err)
	var streamErr *errs.StreamInterruptedError
	assert.ErrorAs(t, last.Err, &streamErr)
}
