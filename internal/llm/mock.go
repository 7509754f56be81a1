package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockRelay permite tests sin levantar un relay real.
// Si Release no es nil, Complete avisa por Started y espera a que se cierre Release.
type MockRelay struct {
	Response  string
	Err       error
	Models    json.RawMessage
	ModelsErr error

	Started chan struct{}
	Release chan struct{}

	mu       sync.Mutex
	requests []CompletionRequest
	probes   int
}

func (m *MockRelay) ListModels(_ context.Context) (json.RawMessage, error) {
	m.mu.Lock()
	m.probes++
	m.mu.Unlock()
	if m.ModelsErr != nil {
		return nil, m.ModelsErr
	}
	return m.Models, nil
}

func (m *MockRelay) Complete(ctx context.Context, in CompletionRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, in)
	m.mu.Unlock()

	if m.Release != nil {
		if m.Started != nil {
			m.Started <- struct{}{}
		}
		select {
		case <-m.Release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.Response, m.Err
}

// Requests devuelve una copia de los requests recibidos.
func (m *MockRelay) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockRelay) Probes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probes
}
