package domain

import (
	"errors"
	"fmt"
)

// Valores por defecto compartidos por el cliente y el relay.
const (
	DefaultModelName    = "gemma-2-2b-it"
	DefaultTemperature  = 0.7
	DefaultMaxTokens    = 500
	DefaultSystemPrompt = "You are a helpful, friendly assistant on a website. Keep your responses concise and helpful."

	MinTemperature = 0.0
	MaxTemperature = 1.0
	MinMaxTokens   = 50
	MaxMaxTokens   = 2000
)

var ErrConfigOutOfRange = errors.New("generation config out of range")

// GenerationConfig agrupa los parametros editables que viajan en cada request.
type GenerationConfig struct {
	ModelName    string  `json:"model_name"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
	SystemPrompt string  `json:"system_prompt"`
}

func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		ModelName:    DefaultModelName,
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
		SystemPrompt: DefaultSystemPrompt,
	}
}

// Validate aplica solo las restricciones de rango del formulario de settings.
// Las comparaciones van negadas para que NaN quede fuera de rango.
func (c GenerationConfig) Validate() error {
	if !(c.Temperature >= MinTemperature && c.Temperature <= MaxTemperature) {
		return fmt.Errorf("%w: temperature %.2f not in [%.0f,%.0f]", ErrConfigOutOfRange, c.Temperature, MinTemperature, MaxTemperature)
	}
	if c.MaxTokens < MinMaxTokens || c.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("%w: max tokens %d not in [%d,%d]", ErrConfigOutOfRange, c.MaxTokens, MinMaxTokens, MaxMaxTokens)
	}
	return nil
}
