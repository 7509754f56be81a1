package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-relay/internal/domain"
	"chat-relay/internal/llm"
)

const (
	statusText         = "Proxy server for the inference backend is running"
	errInvalidChatBody = "Invalid request body. Required: model and messages array."
	errFetchModels     = "Failed to fetch models from the inference backend"
	errChatCompletion  = "Failed to get chat completion from the inference backend"
	contentTypeJSON    = "application/json; charset=utf-8"
)

// Backend es lo que el relay necesita del servidor de inferencia.
type Backend interface {
	ListModels(ctx context.Context) ([]byte, error)
	ChatCompletion(ctx context.Context, in llm.BackendChatRequest) ([]byte, error)
}

// RelayHandler reenvia /models y /chat al backend sin guardar estado entre requests.
type RelayHandler struct {
	logger  *zap.Logger
	backend Backend
}

func NewRelayHandler(logger *zap.Logger, backend Backend) *RelayHandler {
	return &RelayHandler{
		logger:  logger,
		backend: backend,
	}
}

type chatRequest struct {
	Model       string            `json:"model"`
	Messages    []json.RawMessage `json:"messages"`
	Temperature *float64          `json:"temperature"`
	MaxTokens   *int              `json:"max_tokens"`
}

// Status maneja GET /.
func (h *RelayHandler) Status(c *gin.Context) {
	c.String(http.StatusOK, statusText)
}

// ListModels maneja GET /models.
func (h *RelayHandler) ListModels(c *gin.Context) {
	h.logger.Info("fetching models from backend")
	body, err := h.backend.ListModels(c.Request.Context())
	if err != nil {
		h.logger.Error("fetch models failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   errFetchModels,
			"details": err.Error(),
		})
		return
	}

	h.logger.Info("models fetched successfully")
	c.Data(http.StatusOK, contentTypeJSON, body)
}

// Chat maneja POST /chat.
func (h *RelayHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fields := []zap.Field{zap.Error(err)}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			fields = append(fields,
				zap.String("field", typeErr.Field),
				zap.String("got", typeErr.Value),
				zap.String("want", typeErr.Type.String()),
			)
		}
		h.logger.Warn("invalid chat request", fields...)
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidChatBody})
		return
	}
	if req.Model == "" || len(req.Messages) == 0 {
		h.logger.Warn("invalid chat request", zap.String("model", req.Model), zap.Int("messages", len(req.Messages)))
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidChatBody})
		return
	}

	out := llm.BackendChatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: domain.DefaultTemperature,
		MaxTokens:   domain.DefaultMaxTokens,
	}
	if req.Temperature != nil {
		out.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	}

	if payload, err := json.Marshal(out); err == nil {
		h.logger.Info("sending chat request to backend",
			zap.String("model", out.Model),
			zap.ByteString("body", payload),
		)
	}

	body, err := h.backend.ChatCompletion(c.Request.Context(), out)
	if err != nil {
		h.logger.Error("chat completion failed", zap.Error(err))
		resp := gin.H{
			"error":   errChatCompletion,
			"details": err.Error(),
		}
		var be *llm.BackendError
		if errors.As(err, &be) {
			resp["status"] = be.StatusCode
			resp["data"] = backendData(be.Body)
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	h.logger.Info("chat response received from backend", zap.ByteString("body", body))
	c.Data(http.StatusOK, contentTypeJSON, body)
}

// backendData devuelve el cuerpo de error del backend como JSON si lo es, o como texto.
func backendData(body []byte) any {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}
