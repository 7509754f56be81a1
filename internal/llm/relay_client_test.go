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

	"chat-relay/internal/domain"
)

func newRelayStub(t *testing.T, status int, body string) (*httptest.Server, *[]byte) {
	t.Helper()
	var received []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &received
}

func sampleRequest() CompletionRequest {
	return CompletionRequest{
		Model: "m",
		Messages: []domain.APIMessage{
			{Role: domain.RoleSystem, Content: "s"},
			{Role: domain.RoleUser, Content: "hi"},
		},
		Temperature: 0.2,
		MaxTokens:   100,
	}
}

func TestRelayComplete_Success(t *testing.T) {
	srv, received := newRelayStub(t, http.StatusOK, `{"choices":[{"message":{"content":"  Hi there!  "}}]}`)

	c := NewRelayClient(srv.URL+"/", 0, nil)
	got, err := c.Complete(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Equal(t, "  Hi there!  ", got)

	var sent CompletionRequest
	require.NoError(t, json.Unmarshal(*received, &sent))
	require.Equal(t, sampleRequest(), sent)
}

func TestRelayComplete_NoMessages(t *testing.T) {
	c := NewRelayClient("http://localhost:1", 0, nil)
	_, err := c.Complete(context.Background(), CompletionRequest{Model: "m"})
	require.Error(t, err)
}

func TestRelayComplete_InvalidResponse(t *testing.T) {
	cases := map[string]string{
		"not json":      `<html>oops</html>`,
		"no choices":    `{"choices":[]}`,
		"empty content": `{"choices":[{"message":{"content":""}}]}`,
		"no message":    `{"id":"x"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := newRelayStub(t, http.StatusOK, body)
			c := NewRelayClient(srv.URL, 0, nil)
			_, err := c.Complete(context.Background(), sampleRequest())
			require.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestRelayComplete_StructuredRelayError(t *testing.T) {
	srv, _ := newRelayStub(t, http.StatusInternalServerError,
		`{"error":"Failed to get chat completion from the inference backend","details":"backend returned status 404","status":404,"data":{"error":"model not found"}}`)

	c := NewRelayClient(srv.URL, 0, nil)
	_, err := c.Complete(context.Background(), sampleRequest())

	var re *RelayError
	require.True(t, errors.As(err, &re))
	require.Equal(t, http.StatusInternalServerError, re.StatusCode)
	require.Equal(t, "backend returned status 404", re.Details)
	require.Equal(t, 404, re.BackendStatus)
	require.JSONEq(t, `{"error":"model not found"}`, string(re.Data))
	require.Contains(t, re.Error(), "backend returned status 404")
}

func TestRelayComplete_PlainTextError(t *testing.T) {
	srv, _ := newRelayStub(t, http.StatusBadGateway, "bad gateway\n")

	c := NewRelayClient(srv.URL, 0, nil)
	_, err := c.Complete(context.Background(), sampleRequest())

	var re *RelayError
	require.True(t, errors.As(err, &re))
	require.Equal(t, "bad gateway", re.Message)
	require.Empty(t, re.Details)
}

func TestRelayComplete_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewRelayClient(url, 0, nil)
	_, err := c.Complete(context.Background(), sampleRequest())
	require.ErrorIs(t, err, ErrRelayUnreachable)
}

func TestRelayListModels(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		srv, _ := newRelayStub(t, http.StatusOK, `{"data":[{"id":"m"}]}`)
		c := NewRelayClient(srv.URL, 0, nil)
		models, err := c.ListModels(context.Background())
		require.NoError(t, err)
		require.JSONEq(t, `{"data":[{"id":"m"}]}`, string(models))
	})

	t.Run("backend down behind relay", func(t *testing.T) {
		srv, _ := newRelayStub(t, http.StatusInternalServerError, `{"error":"Failed to fetch models from the inference backend","details":"connection refused"}`)
		c := NewRelayClient(srv.URL, 0, nil)
		_, err := c.ListModels(context.Background())
		var re *RelayError
		require.True(t, errors.As(err, &re))
		require.Equal(t, "connection refused", re.Details)
	})
}
