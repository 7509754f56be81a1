package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chat-relay/internal/domain"
	"chat-relay/internal/llm"
)

// RelayAPI es lo que la sesion necesita del relay.
type RelayAPI interface {
	ListModels(ctx context.Context) (json.RawMessage, error)
	Complete(ctx context.Context, in llm.CompletionRequest) (string, error)
}

var (
	ErrEmptyMessage = errors.New("empty message")
	ErrSendInFlight = errors.New("a message is already being sent")
)

// Mensajes del banner de error.
const (
	BannerBackendOffline = "Cannot connect to the inference backend. Make sure the model server is running and a model is loaded."
	BannerSettingsFailed = "Could not connect to the inference backend with these settings."
	BannerProxyOffline   = "Cannot connect to the proxy server. Make sure the relay is running."
)

// ChatSession mantiene las dos vistas paralelas de la conversacion: la que se
// muestra (con timestamps) y la que se envia al backend (role/content). El
// primer APIMessage es siempre el unico mensaje de sistema.
type ChatSession struct {
	relay    RelayAPI
	relayURL string
	logger   *zap.Logger
	now      func() time.Time

	mu             sync.Mutex
	display        []domain.DisplayMessage
	api            []domain.APIMessage
	cfg            domain.GenerationConfig
	inFlight       bool
	proxyAvailable bool
	banner         string
}

// NewChatSession arranca una sesion con el saludo del bot en ambas vistas.
func NewChatSession(relay RelayAPI, relayURL string, cfg domain.GenerationConfig, logger *zap.Logger) *ChatSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ChatSession{
		relay:    relay,
		relayURL: relayURL,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
	s.display = []domain.DisplayMessage{s.newDisplay(domain.Greeting, domain.SenderBot)}
	s.api = []domain.APIMessage{
		{Role: domain.RoleSystem, Content: cfg.SystemPrompt},
		{Role: domain.RoleAssistant, Content: domain.Greeting},
	}
	return s
}

// Probe consulta GET /models en el relay y actualiza el indicador de conexion.
func (s *ChatSession) Probe(ctx context.Context) bool {
	return s.probe(ctx, BannerBackendOffline)
}

func (s *ChatSession) probe(ctx context.Context, failBanner string) bool {
	_, err := s.relay.ListModels(ctx)
	ok := err == nil

	s.mu.Lock()
	s.proxyAvailable = ok
	switch {
	case ok:
		s.banner = ""
	case errors.Is(err, llm.ErrRelayUnreachable):
		s.banner = BannerProxyOffline
	default:
		s.banner = failBanner
	}
	s.mu.Unlock()

	if ok {
		s.logger.Info("connected to inference backend via relay", zap.String("relay", s.relayURL))
	} else {
		s.logger.Warn("relay probe failed", zap.String("relay", s.relayURL), zap.Error(err))
	}
	return ok
}

// Send agrega el mensaje del usuario, llama al relay con el historial completo
// y agrega la respuesta del bot. Las fallas del relay se convierten en un
// mensaje del bot y no se agregan al historial que se envia al modelo.
func (s *ChatSession) Send(ctx context.Context, text string) (domain.DisplayMessage, error) {
	if strings.TrimSpace(text) == "" {
		return domain.DisplayMessage{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return domain.DisplayMessage{}, ErrSendInFlight
	}
	s.inFlight = true
	s.display = append(s.display, s.newDisplay(text, domain.SenderUser))
	s.api = append(s.api, domain.APIMessage{Role: domain.RoleUser, Content: text})
	s.banner = ""
	req := llm.CompletionRequest{
		Model:       s.cfg.ModelName,
		Messages:    append([]domain.APIMessage(nil), s.api...),
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}
	s.mu.Unlock()

	s.logger.Debug("sending message", zap.String("model", req.Model), zap.Int("history", len(req.Messages)))
	content, err := s.relay.Complete(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if err != nil {
		s.logger.Warn("chat completion failed", zap.Error(err))
		reply := s.newDisplay(s.describeError(err), domain.SenderBot)
		s.display = append(s.display, reply)
		s.banner = "Failed to get AI response: " + err.Error()
		return reply, nil
	}

	content = strings.TrimSpace(content)
	reply := s.newDisplay(content, domain.SenderBot)
	s.display = append(s.display, reply)
	s.api = append(s.api, domain.APIMessage{Role: domain.RoleAssistant, Content: content})
	return reply, nil
}

// ApplyConfig reemplaza la configuracion completa, reescribe el mensaje de
// sistema y vuelve a probar la conexion.
func (s *ChatSession) ApplyConfig(ctx context.Context, cfg domain.GenerationConfig) bool {
	s.mu.Lock()
	s.cfg = cfg
	system := domain.APIMessage{Role: domain.RoleSystem, Content: cfg.SystemPrompt}
	idx := -1
	for i, m := range s.api {
		if m.Role == domain.RoleSystem {
			idx = i
			break
		}
	}
	if idx >= 0 {
		s.api[idx] = system
	} else {
		s.api = append([]domain.APIMessage{system}, s.api...)
	}
	s.mu.Unlock()

	s.logger.Info("settings applied",
		zap.String("model", cfg.ModelName),
		zap.Float64("temperature", cfg.Temperature),
		zap.Int("max_tokens", cfg.MaxTokens),
	)
	return s.probe(ctx, BannerSettingsFailed)
}

func (s *ChatSession) describeError(err error) string {
	var relayErr *llm.RelayError
	switch {
	case errors.Is(err, llm.ErrRelayUnreachable):
		return fmt.Sprintf("Could not connect to the proxy server at %s. Please make sure the server is running.\n\nError details: %v", s.relayURL, err)
	case errors.As(err, &relayErr):
		return "Sorry, I couldn't get a response from the AI service. Error: " + relayErr.Error()
	case errors.Is(err, llm.ErrInvalidResponse):
		return "Sorry, the AI service returned an invalid response."
	default:
		return "Sorry, I couldn't connect to the AI service. Error: " + err.Error()
	}
}

func (s *ChatSession) newDisplay(text string, sender domain.Sender) domain.DisplayMessage {
	return domain.DisplayMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: s.now(),
	}
}

func (s *ChatSession) DisplayMessages() []domain.DisplayMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.DisplayMessage(nil), s.display...)
}

func (s *ChatSession) APIMessages() []domain.APIMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.APIMessage(nil), s.api...)
}

func (s *ChatSession) Config() domain.GenerationConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *ChatSession) ProxyAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proxyAvailable
}

// Banner devuelve el error visible actual, vacio si no hay.
func (s *ChatSession) Banner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banner
}

func (s *ChatSession) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}
