package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBackendClientTrimsBaseURL(t *testing.T) {
	c := NewBackendClient(" http://127.0.0.1:1234/v1/ ", "", 0, nil)
	require.Equal(t, "http://127.0.0.1:1234/v1", c.BaseURL())
}

func TestBackendListModels_ReturnsBodyVerbatim(t *testing.T) {
	const body = `{"object":"list","data":[{"id":"gemma-2-2b-it"}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/models", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL+"/v1", "", 0, nil)
	got, err := c.ListModels(context.Background())
	require.NoError(t, err)
	require.Equal(t, body, string(got))
}

func TestBackendChatCompletion_ForwardsPayload(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "Bearer sk-local", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"hello"}}]}`)
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL+"/v1/", "sk-local", 0, nil)
	got, err := c.ChatCompletion(context.Background(), BackendChatRequest{
		Model:       "m",
		Messages:    []json.RawMessage{json.RawMessage(`{"role":"user","content":"hi","name":"x"}`)},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"choices":[{"message":{"content":"hello"}}]}`, string(got))

	require.Equal(t, "m", received["model"])
	require.EqualValues(t, 0.7, received["temperature"])
	require.EqualValues(t, 500, received["max_tokens"])
	msgs := received["messages"].([]any)
	require.Len(t, msgs, 1)
	require.Equal(t, "x", msgs[0].(map[string]any)["name"], "unknown message fields must survive the relay")
}

func TestBackendStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"model not loaded"}`)
	}))
	defer srv.Close()

	c := NewBackendClient(srv.URL, "", 0, nil)
	_, err := c.ChatCompletion(context.Background(), BackendChatRequest{Model: "m"})
	require.Error(t, err)

	var be *BackendError
	require.True(t, errors.As(err, &be))
	require.Equal(t, http.StatusNotFound, be.StatusCode)
	require.JSONEq(t, `{"error":"model not loaded"}`, string(be.Body))
	require.Contains(t, err.Error(), "404")
}

func TestBackendTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewBackendClient(url, "", 0, nil)
	_, err := c.ListModels(context.Background())
	require.Error(t, err)

	var be *BackendError
	require.False(t, errors.As(err, &be))
}
