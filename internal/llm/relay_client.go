package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrRelayUnreachable envuelve fallas de transporte contra el relay.
	ErrRelayUnreachable = errors.New("relay unreachable")
	// ErrInvalidResponse indica un cuerpo no JSON o sin choices[0].message.content.
	ErrInvalidResponse = errors.New("invalid response from relay")
)

// RelayError representa una respuesta no exitosa del relay.
type RelayError struct {
	StatusCode    int
	Message       string
	Details       string
	BackendStatus int
	Data          json.RawMessage
}

func (e *RelayError) Error() string {
	msg := fmt.Sprintf("relay error (%d): %s", e.StatusCode, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// RelayClient consume la API del relay (GET /models, POST /chat).
type RelayClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewRelayClient(baseURL string, timeout time.Duration, logger *zap.Logger) *RelayClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelayClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *RelayClient) BaseURL() string {
	return c.baseURL
}

// ListModels devuelve la lista de modelos del backend tal como la entrega el relay.
func (c *RelayClient) ListModels(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		c.logger.Warn("model list error", zap.Int("status", status), zap.ByteString("body", body))
		return nil, parseRelayError(status, body)
	}
	c.logger.Debug("available models", zap.ByteString("body", body))
	return json.RawMessage(body), nil
}

// Complete envia el historial completo y devuelve el contenido de la primera choice.
func (c *RelayClient) Complete(ctx context.Context, in CompletionRequest) (string, error) {
	if len(in.Messages) == 0 {
		return "", errors.New("no messages provided")
	}

	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	c.logger.Debug("relay chat request", zap.ByteString("payload", bodyBytes))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return "", err
	}
	c.logger.Debug("relay chat response", zap.Int("status", status))

	if status < 200 || status >= 300 {
		c.logger.Warn("relay chat error", zap.Int("status", status), zap.ByteString("body", body))
		return "", parseRelayError(status, body)
	}

	var cr completionResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: missing choices[0].message.content", ErrInvalidResponse)
	}
	return cr.Choices[0].Message.Content, nil
}

func (c *RelayClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrRelayUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func parseRelayError(status int, body []byte) *RelayError {
	var eb relayErrorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Error == "" {
		return &RelayError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	}
	return &RelayError{
		StatusCode:    status,
		Message:       eb.Error,
		Details:       eb.Details,
		BackendStatus: eb.Status,
		Data:          eb.Data,
	}
}
