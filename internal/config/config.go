package config

import (
	"time"

	"github.com/caarlos0/env/v10"

	"chat-relay/internal/domain"
)

// Config centraliza la configuración del relay.
type Config struct {
	HTTPPort   string        `env:"HTTP_PORT" envDefault:"5000"`
	LLMBaseURL string        `env:"LLM_BASE_URL" envDefault:"http://127.0.0.1:1234/v1"`
	LLMAPIKey  string        `env:"LLM_API_KEY"`
	LLMTimeout time.Duration `env:"LLM_TIMEOUT" envDefault:"0s"`
}

// ClientConfig configura el cliente de chat de terminal.
type ClientConfig struct {
	RelayURL     string        `env:"RELAY_URL" envDefault:"http://localhost:5000"`
	Timeout      time.Duration `env:"RELAY_TIMEOUT" envDefault:"0s"`
	ModelName    string        `env:"CHAT_MODEL" envDefault:"gemma-2-2b-it"`
	Temperature  float64       `env:"CHAT_TEMPERATURE" envDefault:"0.7"`
	MaxTokens    int           `env:"CHAT_MAX_TOKENS" envDefault:"500"`
	SystemPrompt string        `env:"CHAT_SYSTEM_PROMPT" envDefault:"You are a helpful, friendly assistant on a website. Keep your responses concise and helpful."`
}

// LoadConfig carga la configuración del relay desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadClientConfig carga la configuración del cliente desde variables de entorno.
func LoadClientConfig() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Generation devuelve la configuracion inicial de generacion de la sesion.
func (c *ClientConfig) Generation() domain.GenerationConfig {
	return domain.GenerationConfig{
		ModelName:    c.ModelName,
		Temperature:  c.Temperature,
		MaxTokens:    c.MaxTokens,
		SystemPrompt: c.SystemPrompt,
	}
}
