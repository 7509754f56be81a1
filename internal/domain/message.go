package domain

import "time"

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DisplayMessage es lo que ve el usuario en el chat.
type DisplayMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// APIMessage es el mensaje en el formato que espera el backend (role/content).
type APIMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Greeting es el primer mensaje del bot al abrir una sesion.
const Greeting = "Hello! How can I help you today?"
