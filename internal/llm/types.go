package llm

import (
	"encoding/json"

	"chat-relay/internal/domain"
)

// CompletionRequest es el cuerpo que el cliente envia a POST /chat del relay.
type CompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []domain.APIMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
}

// BackendChatRequest es el cuerpo reenviado a /chat/completions. Los mensajes
// viajan tal cual llegaron al relay.
type BackendChatRequest struct {
	Model       string            `json:"model"`
	Messages    []json.RawMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// relayErrorBody es la forma de los errores 4xx/5xx que devuelve el relay.
type relayErrorBody struct {
	Error   string          `json:"error"`
	Details string          `json:"details,omitempty"`
	Status  int             `json:"status,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}
