package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// BackendError indica que el backend respondio con un status no exitoso.
type BackendError struct {
	StatusCode int
	Body       []byte
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// BackendClient habla con el servidor de inferencia OpenAI-compatible.
// Devuelve los cuerpos sin decodificar para que el relay los reenvie tal cual.
type BackendClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewBackendClient construye un cliente apuntando a la base /v1 del backend.
// Un timeout de cero deja el default del transporte.
func NewBackendClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *BackendClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackendClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *BackendClient) BaseURL() string {
	return c.baseURL
}

// ListModels llama GET {base}/models.
func (c *BackendClient) ListModels(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// ChatCompletion llama POST {base}/chat/completions.
func (c *BackendClient) ChatCompletion(ctx context.Context, in BackendChatRequest) ([]byte, error) {
	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *BackendClient) do(req *http.Request) ([]byte, error) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("backend error response",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return nil, &BackendError{StatusCode: resp.StatusCode, Body: respBody}
	}

	return respBody, nil
}
